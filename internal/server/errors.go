package server

import (
	"errors"
	"net/http"

	"github.com/segmentio/stats/v4"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/synth"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

var errRateLimited = errors.New("too many requests, try again shortly")

// statusFor maps an action error to the HTTP status shown to the user.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var rateLimited *ai.RateLimitError
	switch {
	case errors.Is(err, errRateLimited), errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, table.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrNoData),
		errors.Is(err, table.ErrEmptyCSV),
		errors.Is(err, synth.ErrEmptySample):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNoRuntime), ai.IsCollaboratorError(err):
		return http.StatusBadGateway
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

var errNotFound = errors.New("download expired or not found")

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	s.stats.Incr("requests.failed", stats.T("status", http.StatusText(code)))
	if code >= http.StatusInternalServerError {
		s.log.Log("%{request_id}s %{path}s failed: %{error}v", requestIDFrom(r.Context()), r.URL.Path, err)
	} else {
		s.log.Debug("%{request_id}s %{path}s rejected: %{error}v", requestIDFrom(r.Context()), r.URL.Path, err)
	}
	if wantsCSV(r) {
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	s.render(w, r, pageData{Error: err.Error()})
}
