package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtoxlili/echoSage/chat"
	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/knowledge"
	"github.com/gtoxlili/echoSage/metrics"
	"github.com/gtoxlili/echoSage/trade"
)

type fakeAnswerer struct {
	err error
}

func (f fakeAnswerer) Answer(_ context.Context, query string) (entity.Answer, error) {
	if f.err != nil {
		return entity.Answer{}, f.err
	}
	return entity.Answer{SelectedQuestion: query, HumanizedAnswer: "answer: " + query}, nil
}

type fixture struct {
	server *Server
	book   *trade.Book
}

func newFixture(t *testing.T, answerer Answerer) fixture {
	t.Helper()
	store := knowledge.NewStore()
	require.NoError(t, knowledge.Seed(store))

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	kb := knowledge.NewQueryService(store, zerolog.Nop(), rec)
	book := trade.NewBook(zerolog.Nop())

	return fixture{
		server: New(Deps{
			Name:      "echosage-agent",
			Answerer:  answerer,
			Executor:  trade.NewExecutor(trade.NewEngine(kb), kb, zerolog.Nop(), rec),
			Book:      book,
			Knowledge: kb,
			Registry:  reg,
			Log:       zerolog.Nop(),
		}),
		book: book,
	}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Echo().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})
	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Greater(t, body["facts"], 0.0)
}

func TestAnswerEndpoint(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})

	rec := f.do(t, http.MethodPost, "/api/answer", `{"query": "Is SOL a buy?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	answer := decode[entity.Answer](t, rec)
	assert.Equal(t, "Is SOL a buy?", answer.SelectedQuestion)
	assert.Equal(t, "answer: Is SOL a buy?", answer.HumanizedAnswer)

	rec = f.do(t, http.MethodPost, "/api/answer", `{"query": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/answer", `{"query": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerEndpointUpstreamError(t *testing.T) {
	f := newFixture(t, fakeAnswerer{err: errors.New("oracle down")})
	rec := f.do(t, http.MethodPost, "/api/answer", `{"query": "hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSignalEndpoint(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})

	rec := f.do(t, http.MethodPost, "/api/signal",
		`{"token": "sol", "current_price": 120, "entry_price": 100, "historical_prices": [100, 102, 101], "current_holdings": 10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[entity.SignalReport](t, rec)
	assert.Equal(t, "SOL", report.Token)
	assert.Equal(t, entity.Sell, report.Signal)
	assert.Equal(t, "high", report.Analysis.Volatility)

	rec = f.do(t, http.MethodPost, "/api/signal", `{"token": "sol", "current_price": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFactsEndpoint(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})

	rec := f.do(t, http.MethodGet, "/api/facts?predicate=protocol", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[factsResponse](t, rec)
	assert.Equal(t, 5, body.Count)
	for _, fact := range body.Facts {
		assert.Equal(t, entity.Protocol, fact.Predicate)
	}
}

func TestHoldingsEndpoints(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})

	rec := f.do(t, http.MethodPut, "/api/holdings/sol", `{"value": 600}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPut, "/api/holdings/usdc", `{"value": 400}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[holdingsResponse](t, rec)
	assert.Equal(t, 1000.0, body.Total)
	assert.InDelta(t, 60.0, body.Weights["SOL"], 1e-9)
	assert.InDelta(t, 1.6, body.Risk, 1e-9)

	rec = f.do(t, http.MethodPut, "/api/holdings/sol", `{"value": -1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/holdings/usdc", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := f.book.Get("USDC")
	assert.False(t, ok)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})
	f.do(t, http.MethodPost, "/api/signal", `{"token": "SOL", "current_price": 100, "entry_price": 100}`)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echosage_signals_total")
}

func dialChat(t *testing.T, f fixture) (*chat.Client, func()) {
	t.Helper()
	srv := httptest.NewServer(f.server.Echo())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat"

	transport, err := chat.Dial(context.Background(), url, "tester", zerolog.Nop())
	require.NoError(t, err)
	client := chat.NewClient(transport, "echosage-agent", zerolog.Nop(), chat.WithPollInterval(10*time.Millisecond))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = transport.Listen(context.Background(), client)
	}()
	return client, func() {
		_ = transport.Close()
		<-done
		srv.Close()
	}
}

func TestChatEndToEnd(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})
	client, closeFn := dialChat(t, f)
	defer closeFn()

	reply, err := client.Send(context.Background(), "How much SOL to hold?", 2*time.Second)
	require.NoError(t, err)
	assert.False(t, reply.TimedOut)
	assert.True(t, reply.Acked)
	assert.Equal(t, "echosage-agent", reply.Sender)
	assert.Equal(t, "answer: How much SOL to hold?", reply.Payload)
}

func TestChatPriceRequest(t *testing.T) {
	f := newFixture(t, fakeAnswerer{})
	client, closeFn := dialChat(t, f)
	defer closeFn()

	reply, err := client.Send(context.Background(),
		`{"token": "BONK", "current_price": 0.00002, "entry_price": 0.00002, "historical_prices": [0.00002], "current_holdings": 3}`,
		2*time.Second)
	require.NoError(t, err)

	var report entity.SignalReport
	require.NoError(t, json.UnmarshalString(reply.Payload, &report))
	assert.Equal(t, "BONK", report.Token)
	assert.Equal(t, "meme", report.Analysis.Category)
}

func TestChatAnswerFailure(t *testing.T) {
	f := newFixture(t, fakeAnswerer{err: errors.New("oracle down")})
	client, closeFn := dialChat(t, f)
	defer closeFn()

	reply, err := client.Send(context.Background(), "hi", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply.Payload)
}
