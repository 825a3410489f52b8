// Package transport maintains the real-time websocket connection to the
// messaging backend.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultReconnectDelay = 3 * time.Second
	defaultReadLimit      = int64(64 << 10)
	writeTimeout          = 10 * time.Second
	sendQueueSize         = 64
)

// Handler receives channel signals. Both methods are called from the
// channel's loop goroutine, one at a time, in arrival order.
type Handler interface {
	HandleFrame(text string)
	HandleConnectivity(up bool)
}

// Options tunes a Channel. Zero values select the defaults.
type Options struct {
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
	PingInterval      time.Duration
	ReadLimit         int64
	Header            http.Header
	Dialer            *websocket.Dialer
}

// Channel keeps one websocket connection alive and reconnects after
// unexpected closes until Close is called.
type Channel struct {
	opts    Options
	handler Handler
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
	out     chan string
}

// New creates a channel that reports to h.
func New(h Handler, opts Options, logger *zap.Logger) *Channel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.ReconnectMaxDelay < opts.ReconnectDelay {
		opts.ReconnectMaxDelay = opts.ReconnectDelay
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{opts: opts, handler: h, logger: logger}
}

// Open starts the connection loop in the background. It is a no-op while a
// loop is already running or after Close.
func (c *Channel) Open(ctx context.Context, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.running {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.done = make(chan struct{})
	go c.loop(ctx, url, c.done)
}

// Send queues a text frame on the current connection. It returns false
// when there is no connection or the queue is full.
func (c *Channel) Send(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out == nil {
		return false
	}
	select {
	case c.out <- text:
		return true
	default:
		return false
	}
}

// Connected reports whether a connection is currently established.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out != nil
}

// Close stops the loop, closes the socket and waits for the loop to exit.
// The channel cannot be reopened.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (c *Channel) loop(ctx context.Context, url string, done chan struct{}) {
	defer close(done)
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	delay := c.opts.ReconnectDelay
	for {
		conn, _, err := c.opts.Dialer.DialContext(ctx, url, c.opts.Header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("connect failed", zap.String("url", url), zap.Error(err), zap.Duration("retry_in", delay))
			c.handler.HandleConnectivity(false)
		} else {
			c.logger.Info("connected", zap.String("url", url))
			delay = c.opts.ReconnectDelay
			err := c.serve(ctx, conn)
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("connection lost", zap.Error(err), zap.Duration("retry_in", delay))
			c.handler.HandleConnectivity(false)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if delay < c.opts.ReconnectMaxDelay {
			delay = min(delay*2, c.opts.ReconnectMaxDelay)
		}
	}
}

// serve runs one connection until it fails or ctx is cancelled.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) error {
	out := make(chan string, sendQueueSize)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	c.mu.Lock()
	c.out = out
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.out = nil
		c.mu.Unlock()
		close(stop)
		_ = conn.Close()
		wg.Wait()
	}()

	conn.SetReadLimit(c.opts.ReadLimit)
	if c.opts.PingInterval > 0 {
		grace := 2*c.opts.PingInterval + writeTimeout
		_ = conn.SetReadDeadline(time.Now().Add(grace))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(grace))
		})
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()
	go func() {
		defer wg.Done()
		c.writeLoop(conn, out, stop)
	}()

	c.handler.HandleConnectivity(true)

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if typ == websocket.TextMessage {
			c.handler.HandleFrame(string(data))
		}
	}
}

func (c *Channel) writeLoop(conn *websocket.Conn, out <-chan string, stop <-chan struct{}) {
	var tick <-chan time.Time
	if c.opts.PingInterval > 0 {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case text := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				c.logger.Warn("write failed", zap.Error(err))
				_ = conn.Close()
				return
			}
		case <-tick:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				_ = conn.Close()
				return
			}
		case <-stop:
			return
		}
	}
}
