// Package httpapi is the core's read-only HTTP surface: a health endpoint,
// a cache-stats endpoint, and a Prometheus /metrics endpoint. Shaped after
// the teacher's internal/interfaces/http package (mux.Router, one
// middleware chain, a local-only default bind), trimmed to this core's
// three operational endpoints instead of the teacher's candidates/explain/
// regime scanner API.
package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sawpanic/regimescope/internal/cache"
	"github.com/sawpanic/regimescope/internal/log"
	"github.com/sawpanic/regimescope/internal/metrics"
	"github.com/sawpanic/regimescope/internal/provider"
)

// ServerConfig controls bind address and request timeouts.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig binds to loopback-only by default, overridable via
// HTTPAPI_PORT, matching the teacher's env-var port override.
func DefaultServerConfig() ServerConfig {
	port := 8080
	if v := os.Getenv("HTTPAPI_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	return ServerConfig{
		Host: "127.0.0.1", Port: port,
		ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 60 * time.Second,
	}
}

// Server is the core's read-only HTTP server.
type Server struct {
	router *mux.Router
	server *http.Server
	config ServerConfig
}

// NewServer wires a health handler (cache manager + provider) and a
// Prometheus metrics handler behind a mux.Router. The collector argument is
// not read here: /metrics serves the default Prometheus registry.
func NewServer(cfg ServerConfig, cacheMgr *cache.Manager, prov *provider.Provider, collector *metrics.Collector, version, buildStamp string) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("httpapi: port %d is busy or unavailable: %w", cfg.Port, err)
	}
	listener.Close()

	router := mux.NewRouter()
	health := newHealthHandler(cacheMgr, prov, version, buildStamp)

	s := &Server{router: router, config: cfg}
	s.setupRoutes(health)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes(health *healthHandler) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", health.ServeHTTP).Methods(http.MethodGet)
	api.HandleFunc("/cache/stats", health.cacheStats).Methods(http.MethodGet)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(notFound)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("no such route: %s %s", r.Method, r.URL.Path), http.StatusNotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	logger := log.NewComponentLogger("httpapi")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		logger.Info().
			Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).Dur("duration", time.Since(start)).
			Msg("httpapi request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving the HTTP server.
func (s *Server) Start() error {
	log.NewComponentLogger("httpapi").Info().Str("addr", s.Address()).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address reports the server's bind address.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

type statusWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
