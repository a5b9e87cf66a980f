// Package server exposes the duplicate, extend and generate actions as a
// single-page web form.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/segmentio/events/v2"
	"github.com/segmentio/events/v2/text"
	"github.com/segmentio/stats/v4"
	"github.com/segmentio/stats/v4/httpstats"
	"github.com/segmentio/stats/v4/prometheus"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/esgsynth-cli/internal/prompt"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// Actions is the subset of *service.Service the form drives.
type Actions interface {
	Duplicate(in *table.Table, extra int) (*service.Result, error)
	Extend(ctx context.Context, in *table.Table, req service.ExtendRequest) (*service.Result, error)
	Generate(ctx context.Context, f prompt.Filters) (*service.Result, error)
}

// Options configures a Server. Zero values fall back to sensible defaults.
type Options struct {
	Addr           string
	RateLimit      float64 // requests per second on /extend and /generate; <= 0 disables
	Burst          int
	MaxUploadBytes int64
	PreviewRows    int
	DownloadTTL    time.Duration
	Logger         *events.Logger
	Debug          bool
}

// Server is the web form. Handlers keep no state between requests apart from
// short-lived download tokens.
type Server struct {
	actions   Actions
	opt       Options
	log       *events.Logger
	limiter   *rate.Limiter
	downloads *cache.Cache
	metrics   *prometheus.Handler
	stats     *stats.Engine
	handler   http.Handler
}

// New wires the router and middleware.
func New(actions Actions, opt Options) *Server {
	if opt.Addr == "" {
		opt.Addr = "127.0.0.1:8501"
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 10 << 20
	}
	if opt.PreviewRows <= 0 {
		opt.PreviewRows = 10
	}
	if opt.DownloadTTL <= 0 {
		opt.DownloadTTL = 15 * time.Minute
	}
	if opt.Burst <= 0 {
		opt.Burst = 1
	}
	logger := opt.Logger
	if logger == nil {
		logger = events.NewLogger(text.NewHandler("esgsynth ", os.Stderr))
	}
	logger.EnableDebug = opt.Debug

	s := &Server{
		actions:   actions,
		opt:       opt,
		log:       logger,
		downloads: cache.New(opt.DownloadTTL, 2*opt.DownloadTTL),
		metrics:   &prometheus.Handler{},
	}
	s.stats = stats.NewEngine("esgsynth", s.metrics)
	if opt.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opt.RateLimit), opt.Burst)
	}

	handleErr := func(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if err := fn(w, r); err != nil {
				s.writeError(w, r, err)
			}
		}
	}

	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)
	r.HandleFunc("/", handleErr(s.index)).Methods("GET")
	r.HandleFunc("/duplicate", handleErr(s.limitBody(s.duplicate))).Methods("POST")
	r.HandleFunc("/extend", handleErr(s.throttle(s.limitBody(s.extend)))).Methods("POST")
	r.HandleFunc("/generate", handleErr(s.throttle(s.limitBody(s.generate)))).Methods("POST")
	r.HandleFunc("/download/{token}", handleErr(s.download)).Methods("GET")
	r.HandleFunc("/healthz", s.healthz).Methods("GET")
	r.Handle("/metrics", s.metrics).Methods("GET")

	s.handler = httpstats.NewHandlerWith(s.stats, r)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens on opt.Addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opt.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opt.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// generation calls can take a while
		WriteTimeout: 5 * time.Minute,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Log("serving esgsynth form on http://%{addr}s", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Log("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
