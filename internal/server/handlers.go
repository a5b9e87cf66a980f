package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segmentio/stats/v4"

	"github.com/KaramelBytes/esgsynth-cli/internal/prompt"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

type download struct {
	name string
	data []byte
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) error {
	s.render(w, r, pageData{})
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) duplicate(w http.ResponseWriter, r *http.Request) error {
	in, err := s.readUpload(r)
	if err != nil {
		return err
	}
	extra, err := table.ParseCount(r.FormValue("rows"))
	if err != nil {
		return err
	}
	res, err := s.actions.Duplicate(in, extra)
	if err != nil {
		return err
	}
	s.stats.Incr("actions", stats.T("action", "duplicate"))
	return s.respond(w, r, res, optionDuplication)
}

func (s *Server) extend(w http.ResponseWriter, r *http.Request) error {
	in, err := s.readUpload(r)
	if err != nil {
		return err
	}
	rows, err := formInt(r, "rows")
	if err != nil {
		return err
	}
	req := service.ExtendRequest{
		Rows:     rows,
		Engine:   r.FormValue("engine"),
		CompareA: strings.TrimSpace(r.FormValue("compare_a")),
		CompareB: strings.TrimSpace(r.FormValue("compare_b")),
	}
	if v := strings.TrimSpace(r.FormValue("seed")); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: seed must be a non-negative integer", table.ErrInvalidInput)
		}
		req.Seed = seed
	}
	res, err := s.actions.Extend(r.Context(), in, req)
	if err != nil {
		return s.recoveryFailed(w, r, res, err)
	}
	s.stats.Incr("actions", stats.T("action", "extend"))
	return s.respond(w, r, res, optionGeneration)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) error {
	rows, err := formInt(r, "rows")
	if err != nil {
		return err
	}
	cols, err := formInt(r, "columns")
	if err != nil {
		return err
	}
	f := prompt.Filters{
		Industry: r.FormValue("industry"),
		Company:  r.FormValue("company"),
		Country:  r.FormValue("country"),
		Location: r.FormValue("location"),
		Year:     r.FormValue("year"),
		DataType: r.FormValue("data_type"),
		Rows:     rows,
		Columns:  cols,
	}
	res, err := s.actions.Generate(r.Context(), f)
	if err != nil {
		return s.recoveryFailed(w, r, res, err)
	}
	s.stats.Incr("actions", stats.T("action", "generate"))
	return s.respond(w, r, res, optionGeneration)
}

// recoveryFailed shows the raw service reply when it could not be turned into
// a table. No download is offered.
func (s *Server) recoveryFailed(w http.ResponseWriter, r *http.Request, res *service.Result, err error) error {
	var rerr *table.RecoveryError
	if res == nil || res.Raw == "" || !errors.As(err, &rerr) || wantsCSV(r) {
		return err
	}
	s.stats.Incr("recovery.failed")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	s.render(w, r, pageData{Option: optionGeneration, Error: err.Error(), Raw: res.Raw})
	return nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, res *service.Result, option string) error {
	data, err := res.Table.Bytes()
	if err != nil {
		return err
	}
	if wantsCSV(r) {
		writeAttachment(w, res.Filename, data)
		return nil
	}
	token := uuid.NewString()
	s.downloads.SetDefault(token, download{name: res.Filename, data: data})

	head := res.Table.Head(s.opt.PreviewRows)
	pd := pageData{
		Option:   option,
		Columns:  head.Columns,
		Rows:     head.Rows,
		Total:    res.Table.Len(),
		Token:    token,
		Filename: res.Filename,
		Cached:   res.Cached,
	}
	if res.Comparison != nil {
		pd.Comparison = res.Comparison.Markdown()
	}
	s.render(w, r, pd)
	return nil
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) error {
	v, ok := s.downloads.Get(mux.Vars(r)["token"])
	if !ok {
		return errNotFound
	}
	d := v.(download)
	writeAttachment(w, d.name, d.data)
	return nil
}

func writeAttachment(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) readUpload(r *http.Request) (*table.Table, error) {
	if err := r.ParseMultipartForm(s.opt.MaxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: please upload the file as multipart form data", table.ErrInvalidInput)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: please upload the file", table.ErrInvalidInput)
	}
	defer f.Close()
	t, err := table.ReadCSV(f, table.ReadOptions{})
	switch {
	case errors.Is(err, table.ErrEmptyCSV):
		return nil, fmt.Errorf("read %s: %w", hdr.Filename, err)
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", table.ErrInvalidInput, hdr.Filename, err)
	}
	return t, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", table.ErrInvalidInput, key, v)
	}
	return n, nil
}

// wantsCSV reports whether the caller asked for the raw CSV instead of the page.
// It never triggers body parsing.
func wantsCSV(r *http.Request) bool {
	if r.URL.Query().Get("format") == "csv" {
		return true
	}
	return r.Form != nil && r.Form.Get("format") == "csv"
}
