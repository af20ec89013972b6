package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gtoxlili/echoSage/entity"
)

// WebSocketTransport 在一条 websocket 连接上收发 Envelope
type WebSocketTransport struct {
	conn   *websocket.Conn
	name   string
	closed atomic.Bool
	// gorilla 的连接不支持并发写
	writeMu sync.Mutex
	log     zerolog.Logger
}

func Dial(ctx context.Context, url, name string, log zerolog.Logger) (*WebSocketTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	log = log.With().Str("component", "ws-transport").Str("url", url).Logger()
	log.Info().Msg("connected")
	return &WebSocketTransport{conn: conn, name: name, log: log}, nil
}

func (t *WebSocketTransport) SendRequest(ctx context.Context, target, payload, correlationID string) error {
	data, err := json.Marshal(entity.Envelope{
		Type:      entity.EnvelopeMessage,
		MsgID:     correlationID,
		Sender:    t.name,
		Target:    target,
		Text:      payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
		defer func() { _ = t.conn.SetWriteDeadline(time.Time{}) }()
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}
	return nil
}

// Listen 阻塞读取，把 ack 和回复转给 inbox，直到连接关闭或 ctx 结束。
// 连接正常关闭时返回 nil。
func (t *WebSocketTransport) Listen(ctx context.Context, inbox Inbox) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if t.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read envelope: %w", err)
		}

		var env entity.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.log.Warn().Err(err).Msg("ignoring malformed frame")
			continue
		}
		switch env.Type {
		case entity.EnvelopeAck:
			inbox.OnAcknowledgement(env.MsgID, env.Sender)
		case entity.EnvelopeMessage:
			inbox.OnResponse(env.MsgID, env.Sender, env.Text)
		default:
			t.log.Debug().Str("type", string(env.Type)).Msg("ignoring frame")
		}
	}
}

func (t *WebSocketTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	t.writeMu.Unlock()

	if err := t.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
