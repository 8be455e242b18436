package mockstream

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/tweetkit/logger"
)

// Server replays a Recording to every client of Config.Path.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	recording  *Recording
	log        *logger.Logger

	active   atomic.Int64
	served   atomic.Int64
	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server. Routes and middleware are registered; call Start
// to listen, or mount Handler on a test server.
func New(cfg Config, rec *Recording, log *logger.Logger) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:    gin.New(),
		config:    cfg,
		recording: rec,
		log:       log.WithComponent("mockstream"),
	}
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.engine,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
	}

	s.engine.Use(recovery(s.log), requestID(), requestLogger(s.log))
	s.engine.GET("/health", s.health)
	s.engine.GET(cfg.Path, s.replay)
	return s, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("mockstream: bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("replay server started", logger.Fields(
		"addr", listener.Addr().String(),
		"path", s.config.Path,
		"records", s.recording.Len(),
	))
	return nil
}

// Stop shuts the server down, cutting open streams after a 5-second grace
// period.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		_ = s.httpServer.Close()
		return fmt.Errorf("mockstream: shutdown: %w", err)
	}
	s.log.Info("replay server stopped")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// URL returns the base URL clients should use.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}
