package server

import (
	"context"
	"strings"
	"sync"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/gtoxlili/echoSage/entity"
)

const fallbackReply = "Sorry, I could not process your request right now. Please try again later."

// session 串行化同一连接上的写操作
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (ss *session) send(env entity.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.conn.WriteMessage(websocket.TextMessage, data)
}

// handleChat 对每条消息立即回 ack，回答完成后用同一个 msg_id 回复。
// 同一连接上的多个请求并发处理，回复顺序不保证。
func (s *Server) handleChat(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	ss := &session{conn: conn}
	log := s.log.With().Str("remote", c.RealIP()).Logger()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("chat connection closed")
			}
			break
		}

		var req entity.Envelope
		if err := json.Unmarshal(data, &req); err != nil || req.MsgID == "" {
			log.Warn().Msg("ignoring malformed envelope")
			continue
		}
		if req.Type != entity.EnvelopeMessage {
			continue
		}

		if err := ss.send(entity.Envelope{
			Type:      entity.EnvelopeAck,
			MsgID:     req.MsgID,
			Sender:    s.name,
			Target:    req.Sender,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			log.Warn().Err(err).Str("msg_id", req.MsgID).Msg("failed to send ack")
			break
		}

		g.Go(func() error {
			reply := entity.Envelope{
				Type:      entity.EnvelopeMessage,
				MsgID:     req.MsgID,
				Sender:    s.name,
				Target:    req.Sender,
				Text:      s.reply(gctx, req.Text),
				Timestamp: time.Now().UTC(),
			}
			if err := ss.send(reply); err != nil {
				log.Warn().Err(err).Str("msg_id", req.MsgID).Msg("failed to send reply")
			}
			return nil
		})
	}

	cancel()
	_ = g.Wait()
	return nil
}

// reply 识别 JSON 形式的 PriceRequest，其余文本走问答流程
func (s *Server) reply(ctx context.Context, text string) string {
	if req, ok := decodePriceRequest(text); ok {
		report, err := json.MarshalString(s.executor.Evaluate(req))
		if err != nil {
			return fallbackReply
		}
		return report
	}

	answer, err := s.answerer.Answer(ctx, text)
	if err != nil {
		s.log.Error().Err(err).Str("query", text).Msg("failed to answer")
		return fallbackReply
	}
	return answer.HumanizedAnswer
}

func decodePriceRequest(text string) (entity.PriceRequest, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return entity.PriceRequest{}, false
	}
	var req entity.PriceRequest
	if err := json.UnmarshalString(text, &req); err != nil || req.CurrentPrice <= 0 {
		return entity.PriceRequest{}, false
	}
	return req, true
}
