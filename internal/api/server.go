package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/genricoloni/rrp/internal/broadcast"
	"github.com/genricoloni/rrp/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options configure the control API
type Options struct {
	Addr        string
	CORSOrigins []string
}

// Server exposes playback control and the now-playing stream over HTTP
type Server struct {
	logger   *zap.Logger
	control  domain.PlaybackControl
	hub      *broadcast.Hub
	opts     Options
	router   *gin.Engine
	upgrader websocket.Upgrader

	mu      sync.Mutex
	srv     *http.Server
	addr    net.Addr
	stopped bool
	clients map[*client]struct{}
	wg      sync.WaitGroup
}

// NewServer builds the router; nothing listens until Start
func NewServer(logger *zap.Logger, control domain.PlaybackControl, hub *broadcast.Hub, opts Options) *Server {
	s := &Server{
		logger:  logger,
		control: control,
		hub:     hub,
		opts:    opts,
		clients: make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	if mw := corsMiddleware(opts.CORSOrigins); mw != nil {
		r.Use(mw)
	}

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/status", s.status)
	api.POST("/play", s.command(control.Play))
	api.POST("/pause", s.command(control.Pause))
	api.POST("/toggle", s.command(control.Toggle))
	api.GET("/ws/nowplaying", s.nowPlaying)

	s.router = r
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.srv = srv
	s.addr = ln.Addr()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Control API stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Control API listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Stop shuts the listener down and closes every WebSocket stream
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.stopped = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = multierr.Append(err, srv.Shutdown(ctx))
	}

	// Hijacked connections are not covered by Shutdown
	for _, c := range clients {
		c.sub.Unsubscribe()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		for _, c := range clients {
			_ = c.conn.Close()
		}
		err = multierr.Append(err, fmt.Errorf("waiting for websocket clients: %w", ctx.Err()))
	}

	return err
}

func (s *Server) nowPlaying(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already replied
		s.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	cl := &client{
		id:     id,
		conn:   conn,
		sub:    s.hub.Subscribe("ws:" + id),
		logger: s.logger,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cl.sub.Unsubscribe()
		_ = conn.Close()
		return
	}
	s.clients[cl] = struct{}{}
	s.wg.Add(2)
	s.mu.Unlock()

	s.logger.Debug("WebSocket client connected", zap.String("client", id))

	go func() {
		defer s.wg.Done()
		cl.writePump()
	}()
	go cl.readPump(func() {
		s.mu.Lock()
		delete(s.clients, cl)
		s.mu.Unlock()
		s.wg.Done()
		s.logger.Debug("WebSocket client disconnected", zap.String("client", id))
	})
}

// checkOrigin accepts non-browser clients, same-host pages and the CORS origins
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.opts.CORSOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
