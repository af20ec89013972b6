package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/knowledge"
	"github.com/gtoxlili/echoSage/trade"
)

// Answerer 是自然语言问答的入口
type Answerer interface {
	Answer(ctx context.Context, query string) (entity.Answer, error)
}

type Deps struct {
	Name      string
	Answerer  Answerer
	Executor  *trade.Executor
	Book      *trade.Book
	Knowledge *knowledge.QueryService
	// Registry 为空时不暴露 /metrics
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// Server 对外提供 HTTP API 和 /chat websocket
type Server struct {
	echo      *echo.Echo
	name      string
	answerer  Answerer
	executor  *trade.Executor
	book      *trade.Book
	knowledge *knowledge.QueryService
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

func New(deps Deps) *Server {
	s := &Server{
		name:      deps.Name,
		answerer:  deps.Answerer,
		executor:  deps.Executor,
		book:      deps.Book,
		knowledge: deps.Knowledge,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: deps.Log.With().Str("component", "server").Logger(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Validator = newRequestValidator()

	e.Use(middleware.Recover())
	e.Use(requestLogging(s.log))

	e.GET("/healthz", s.handleHealth)
	e.GET("/chat", s.handleChat)

	api := e.Group("/api")
	api.POST("/answer", s.handleAnswer)
	api.POST("/signal", s.handleSignal)
	api.GET("/facts", s.handleFacts)
	api.GET("/holdings", s.handleHoldings)
	api.PUT("/holdings/:token", s.handleSetHolding)
	api.DELETE("/holdings/:token", s.handleRemoveHolding)

	if deps.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	s.echo = e
	return s
}

// Start 阻塞直到服务停止，正常 Shutdown 时返回 nil
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Str("name", s.name).Msg("listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info().Msg("stopped gracefully")
	return nil
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
