// Package echo is a development event source: a websocket endpoint that
// echoes every frame back with a prefix, plus an HTTP hook to push frames
// to every connected client.
package echo

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultPrefix = "Echo: "

	readDeadline = 90 * time.Second
	writeTimeout = 10 * time.Second
	readLimit    = int64(64 << 10)
)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Server serves /ws, GET / and POST /broadcast.
type Server struct {
	prefix   string
	logger   *zap.Logger
	upgrader websocket.Upgrader
	engine   *gin.Engine

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates the server. An empty prefix means DefaultPrefix.
func New(prefix string, logger *zap.Logger) *Server {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		prefix: prefix,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog)
	r.GET("/", s.health)
	r.GET("/ws", s.handleWebSocket)
	r.POST("/broadcast", s.handleBroadcast)
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Clients returns the number of open websocket connections.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast writes frame to every client and returns how many got it.
func (s *Server) Broadcast(frame string) int {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	n := 0
	for _, c := range targets {
		if err := c.write(frame); err != nil {
			s.logger.Warn("broadcast write failed", zap.Error(err))
			continue
		}
		n++
	}
	return n
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": s.Clients()})
}

func (s *Server) handleBroadcast(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, readLimit))
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty frame"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": s.Broadcast(string(body))})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{conn: conn}
	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("client connected", zap.String("remote", c.Request.RemoteAddr))

	go s.readLoop(cl)
}

func (s *Server) readLoop(cl *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, cl)
		s.mu.Unlock()
		_ = cl.conn.Close()
		s.logger.Info("client disconnected")
	}()

	cl.conn.SetReadLimit(readLimit)
	_ = cl.conn.SetReadDeadline(time.Now().Add(readDeadline))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	cl.conn.SetPingHandler(func(data string) error {
		_ = cl.conn.SetReadDeadline(time.Now().Add(readDeadline))
		cl.mu.Lock()
		defer cl.mu.Unlock()
		return cl.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeTimeout))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		if err := cl.write(s.prefix + string(data)); err != nil {
			s.logger.Warn("echo failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("took", time.Since(start)),
	)
}
