package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/events/v2"
	"github.com/segmentio/stats/v4"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-Id"

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		s.log.With(events.Args{{Name: "request_id", Value: requestIDFrom(r.Context())}}).Log(
			"%{method}s %{path}s %{status}d %{bytes}d bytes in %{duration}v",
			r.Method, r.URL.Path, sw.status, sw.bytes, time.Since(start).Round(time.Millisecond))
	})
}

// limitBody caps the request body before any form parsing happens.
func (s *Server) limitBody(fn func(http.ResponseWriter, *http.Request) error) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		if r.ContentLength > s.opt.MaxUploadBytes {
			return &http.MaxBytesError{Limit: s.opt.MaxUploadBytes}
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
		return fn(w, r)
	}
}

// throttle rejects requests beyond the configured rate with errRateLimited.
func (s *Server) throttle(fn func(http.ResponseWriter, *http.Request) error) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		if s.limiter != nil && !s.limiter.Allow() {
			s.stats.Incr("requests.throttled", stats.T("path", r.URL.Path))
			return errRateLimited
		}
		return fn(w, r)
	}
}
