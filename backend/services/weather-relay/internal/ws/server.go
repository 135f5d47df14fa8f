package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"weatherrelay/backend/services/weather-relay/internal/registry"
)

// Registry is the subset of the subscriber registry the server mutates.
type Registry interface {
	Add(sub registry.Subscriber) bool
	Remove(id string) bool
}

// Options tunes websocket behaviour.
type Options struct {
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

// Server upgrades HTTP connections to live-update subscribers.
type Server struct {
	ctx      context.Context
	registry Registry
	opts     Options
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer builds ws server. Connections are bound to ctx and stop when it is cancelled.
func NewServer(ctx context.Context, registry Registry, opts Options, logger *zap.Logger) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	s := &Server{
		ctx:      ctx,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// HandleWS is HTTP handler for the /ws endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	connection := NewConnection(uuid.NewString(), conn, s.opts.WriteTimeout, s.opts.PingInterval, s.logger, func(id string) {
		s.registry.Remove(id)
		cancel()
	})
	if !s.registry.Add(connection) {
		cancel()
		_ = conn.Close()
		return
	}

	go connection.Start(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	s.logger.Warn("rejected websocket origin", zap.String("origin", origin))
	return false
}
