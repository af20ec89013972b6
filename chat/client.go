package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gtoxlili/echoSage/config"
	"github.com/gtoxlili/echoSage/metrics"
)

var ErrTransport = errors.New("chat: transport failure")

// Transport 只负责把带 correlation id 的请求发出去，回包通过 Inbox 回调送达
type Transport interface {
	SendRequest(ctx context.Context, target, payload, correlationID string) error
}

// Inbox 接收传输层的确认和回复
type Inbox interface {
	OnAcknowledgement(correlationID, sender string)
	OnResponse(correlationID, sender, payload string)
}

// Reply 是一次 Send 的结果。TimedOut 为 true 时 Payload 为空。
type Reply struct {
	ID       string
	Sender   string
	Payload  string
	Acked    bool
	TimedOut bool
}

type pendingRequest struct {
	sentAt   time.Time
	acked    bool
	resolved bool
	sender   string
	payload  string
}

// Client 把请求和回复按 correlation id 配对。
// 回调只做登记，等待方按固定间隔轮询，不阻塞传输层的读循环。
type Client struct {
	transport    Transport
	target       string
	pollInterval time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest

	log     zerolog.Logger
	metrics *metrics.Recorder
}

type ClientOption func(*Client)

func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithClientMetrics(rec *metrics.Recorder) ClientOption {
	return func(c *Client) {
		c.metrics = rec
	}
}

func NewClient(transport Transport, target string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		transport:    transport,
		target:       target,
		pollInterval: config.PollInterval,
		pending:      make(map[string]*pendingRequest),
		log:          log.With().Str("component", "chat-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send 发出请求并等待配对的回复。
// 超时不是错误，返回 TimedOut；ctx 取消时返回 ctx.Err()。
func (c *Client) Send(ctx context.Context, query string, timeout time.Duration) (Reply, error) {
	if timeout <= 0 {
		timeout = config.RequestTimeout
	}
	id := uuid.NewString()
	start := time.Now()

	c.mu.Lock()
	c.pending[id] = &pendingRequest{sentAt: start}
	c.mu.Unlock()

	if err := c.transport.SendRequest(ctx, c.target, query, id); err != nil {
		c.drop(id)
		c.metrics.RecordCorrelation("send_failed")
		return Reply{ID: id}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	c.log.Debug().Str("id", id).Str("target", c.target).Msg("request sent")

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drop(id)
			c.metrics.RecordCorrelation("cancelled")
			return Reply{ID: id}, ctx.Err()

		case <-deadline.C:
			reply, resolved := c.take(id)
			if !resolved {
				reply.TimedOut = true
				c.metrics.RecordCorrelation("timeout")
				c.log.Warn().Str("id", id).Dur("timeout", timeout).Bool("acked", reply.Acked).Msg("request timed out")
				return reply, nil
			}
			c.finish(reply, start)
			return reply, nil

		case <-ticker.C:
			if reply, ok := c.poll(id); ok {
				c.finish(reply, start)
				return reply, nil
			}
		}
	}
}

func (c *Client) finish(reply Reply, start time.Time) {
	c.metrics.RecordCorrelation("resolved")
	c.metrics.RecordLatency("correlation", time.Since(start).Seconds())
	c.log.Debug().Str("id", reply.ID).Str("sender", reply.Sender).Msg("response matched")
}

// poll 在请求已有回复时将其移出 pending
func (c *Client) poll(id string) (Reply, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if !ok || !p.resolved {
		return Reply{}, false
	}
	delete(c.pending, id)
	return Reply{ID: id, Sender: p.sender, Payload: p.payload, Acked: p.acked}, true
}

// take 无论是否已有回复都移出 pending
func (c *Client) take(id string) (Reply, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if !ok {
		return Reply{ID: id}, false
	}
	delete(c.pending, id)
	return Reply{ID: id, Sender: p.sender, Payload: p.payload, Acked: p.acked}, p.resolved
}

func (c *Client) drop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// Pending 返回尚未结束的请求数
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// OnAcknowledgement 只记录确认，不结束等待
func (c *Client) OnAcknowledgement(correlationID, sender string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[correlationID]; ok {
		p.acked = true
		c.log.Debug().Str("id", correlationID).Str("sender", sender).Msg("request acknowledged")
	}
}

// OnResponse 登记回复；未知 id（已超时、已取消或重复）的回复直接丢弃
func (c *Client) OnResponse(correlationID, sender, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[correlationID]
	if !ok || p.resolved {
		c.metrics.RecordCorrelation("discarded")
		c.log.Debug().Str("id", correlationID).Str("sender", sender).Msg("discarding unmatched response")
		return
	}
	p.resolved = true
	p.sender = sender
	p.payload = payload
}
