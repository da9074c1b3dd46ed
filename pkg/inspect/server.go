package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// ServerConfig configures the inspection server.
type ServerConfig struct {
	// Address is the listen address for Run. Default: "localhost:7070".
	Address string

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	// EventBuffer is the per-connection event buffer. Default: 256.
	EventBuffer int

	// WriteTimeout bounds a single websocket write. Default: 5s.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown in Run. Default: 10s.
	ShutdownTimeout time.Duration

	// CheckOrigin validates websocket origins. Default: allow all.
	CheckOrigin func(r *http.Request) bool

	// Logger receives request and connection logs. Default: slog.Default().
	Logger *slog.Logger
}

// ServerOption configures the inspection server.
type ServerOption func(*ServerConfig)

// WithAddress sets the listen address.
func WithAddress(addr string) ServerOption {
	return func(c *ServerConfig) {
		c.Address = addr
	}
}

// WithGatherer exposes the gatherer's metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(c *ServerConfig) {
		c.Gatherer = g
	}
}

// WithEventBuffer sets the per-connection event buffer size.
func WithEventBuffer(n int) ServerOption {
	return func(c *ServerConfig) {
		c.EventBuffer = n
	}
}

// WithCheckOrigin sets the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(c *ServerConfig) {
		c.CheckOrigin = fn
	}
}

// WithServerLogger sets the server logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(c *ServerConfig) {
		c.Logger = logger
	}
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         "localhost:7070",
		EventBuffer:     256,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CheckOrigin:     func(*http.Request) bool { return true },
		Logger:          slog.Default(),
	}
}

// Server exposes a Runtime's dependency graph over HTTP:
//
//	GET /healthz        liveness
//	GET /deps           full dependency snapshot
//	GET /deps/{object}  snapshot entries of one object
//	GET /stats          dependency store size
//	GET /metrics        Prometheus metrics, when a gatherer is configured
//	GET /events         websocket stream of hub events
type Server struct {
	rt       *reactive.Runtime
	hub      *Hub
	config   ServerConfig
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger

	httpServer *http.Server
}

// NewServer creates an inspection server for rt. hub may be nil, in which
// case /events is not served.
func NewServer(rt *reactive.Runtime, hub *Hub, opts ...ServerOption) *Server {
	config := defaultServerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		rt:     rt,
		hub:    hub,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: config.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/deps", s.handleDeps)
	r.Get("/deps/{object}", s.handleObjectDeps)
	r.Get("/stats", s.handleStats)
	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.hub != nil {
		r.Get("/events", s.handleEvents)
	}
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspect server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown disconnects event subscribers and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.hub != nil {
		s.hub.Close()
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("inspect server shutdown complete")
	return nil
}

func (s *Server) handleDeps(w http.ResponseWriter, _ *http.Request) {
	entries := s.rt.Snapshot()
	if entries == nil {
		entries = []reactive.DepEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleObjectDeps(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "object"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid object id"})
		return
	}

	entries := []reactive.DepEntry{}
	for _, e := range s.rt.Snapshot() {
		if e.Object == id {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "object not tracked"})
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		reactive.Stats
		Subscribers int    `json:"subscribers"`
		Dropped     uint64 `json:"dropped"`
	}{Stats: s.rt.Stats()}
	if s.hub != nil {
		resp.Subscribers = s.hub.ClientCount()
		resp.Dropped = s.hub.Dropped()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe(s.config.EventBuffer)
	defer cancel()

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case msg, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
					time.Now().Add(s.config.WriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
