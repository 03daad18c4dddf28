// Package server exposes the engine over HTTP: a JSON API, a live
// recalculation page driven by server-sent events, exports and metrics.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/metrics"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
)

// Options configures a Server.
type Options struct {
	Protocol *protocol.Protocol // nil selects the canonical table
	Store    selection.Store    // nil keeps the selection in memory
	Logger   *zap.Logger

	JWTSecret     string // empty generates a per-process secret
	AdminUser     string
	AdminPassHash string

	CORSOrigins []string
	Now         func() time.Time
}

// Server holds the active engine and its collaborators.
type Server struct {
	engine atomic.Pointer[engine.Engine]
	store  selection.Store
	auth   *AuthService
	logger *zap.Logger
	cors   []string
	now    func() time.Time
}

func New(opts Options) (*Server, error) {
	s := &Server{
		store:  opts.Store,
		logger: opts.Logger,
		cors:   opts.CORSOrigins,
		now:    opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.store == nil {
		s.store = selection.NewMemoryStore()
	}
	if s.now == nil {
		s.now = time.Now
	}

	p := opts.Protocol
	if p == nil {
		p = protocol.Default()
	}
	if err := s.SetProtocol(p); err != nil {
		return nil, err
	}

	secret := opts.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		if opts.AdminPassHash != "" {
			s.logger.Warn("no JWT secret configured, tokens will not survive a restart")
		}
	}
	s.auth = NewAuthService(secret, opts.AdminUser, opts.AdminPassHash)
	return s, nil
}

// Engine returns the active engine.
func (s *Server) Engine() *engine.Engine {
	return s.engine.Load()
}

// SetProtocol validates p and makes it active. In-flight requests finish
// with the engine they started with.
func (s *Server) SetProtocol(p *protocol.Protocol) error {
	e, err := engine.New(p, engine.WithLogger(s.logger), engine.WithObserver(metrics.Observer{}))
	if err != nil {
		return err
	}
	s.engine.Store(e)
	s.logger.Info("protocol activated",
		zap.String("protocol", p.Name),
		zap.String("version", p.Version),
		zap.String("strategy", string(p.Strategy)),
	)
	return nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, middleware.RequestID, middleware.RealIP, s.accessLog, middleware.Recoverer)

	origins := s.cors
	if len(origins) == 0 {
		origins = []string{"http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handleIndex)
	r.Get("/ui/derive", s.handleUIDerive)

	r.Post("/auth/token", tokenHandler(s.auth))

	r.Route("/api", func(ar chi.Router) {
		ar.Use(middleware.Timeout(30 * time.Second))

		ar.Get("/protocol", s.handleGetProtocol)
		ar.With(requireAdmin(s.auth)).Put("/protocol", s.handlePutProtocol)
		ar.Get("/regions", s.handleRegions)
		ar.Post("/derive", s.handleDerive)
		ar.Post("/kvmas", s.handleKVMAs)
		ar.Get("/selection", s.handleGetSelection)
		ar.Put("/selection", s.handlePutSelection)
		ar.Get("/print", s.handlePrint)
		ar.Get("/export.dcm", s.handleExportDICOM)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
