package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/segmentio/events/v2"
	"github.com/segmentio/events/v2/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	"github.com/KaramelBytes/esgsynth-cli/internal/config"
	"github.com/KaramelBytes/esgsynth-cli/internal/prompt"
	"github.com/KaramelBytes/esgsynth-cli/internal/service"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

const sampleCSV = "Company,Year,Emissions\nAcme,2021,10\nAcme,2022,12\nGlobex,2021,7\n"

// fakeActions delegates Duplicate and Extend to a real service and lets tests
// script Generate.
type fakeActions struct {
	*service.Service
	generate func(prompt.Filters) (*service.Result, error)
}

func (f *fakeActions) Generate(_ context.Context, in prompt.Filters) (*service.Result, error) {
	return f.generate(in)
}

func newTestServer(t *testing.T, opt Options, gen func(prompt.Filters) (*service.Result, error)) *Server {
	t.Helper()
	opt.Logger = events.NewLogger(text.NewHandler("", io.Discard))
	if gen == nil {
		gen = func(prompt.Filters) (*service.Result, error) { return nil, service.ErrNoRuntime }
	}
	return New(&fakeActions{Service: service.New(&config.Global{Seed: 7}), generate: gen}, opt)
}

func multipartBody(t *testing.T, csv string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sample.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestIndexRendersOptions(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ESG Data Generation")
	assert.Contains(t, body, `action="/generate"`)
	assert.Contains(t, body, "<option>Vehicle Manufacturing</option>")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/?option=duplication", nil))
	assert.Contains(t, rec.Body.String(), `action="/duplicate"`)
	assert.NotContains(t, rec.Body.String(), `action="/generate"`)
}

func TestDuplicateReturnsCSVAttachment(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	body, ct := multipartBody(t, sampleCSV, map[string]string{"rows": "2"})
	req := httptest.NewRequest(http.MethodPost, "/duplicate?format=csv", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="Updated_file.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, sampleCSV+"Acme,2021,10\nAcme,2022,12\n", rec.Body.String())
}

func TestDuplicatePreviewAndDownload(t *testing.T) {
	s := newTestServer(t, Options{PreviewRows: 2}, nil)
	body, ct := multipartBody(t, sampleCSV, map[string]string{"rows": "1"})
	req := httptest.NewRequest(http.MethodPost, "/duplicate", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Preview (2 of 4 rows)")

	m := regexp.MustCompile(`/download/([0-9a-f-]+)`).FindStringSubmatch(page)
	require.Len(t, m, 2)
	rec = do(s, httptest.NewRequest(http.MethodGet, m[0], nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sampleCSV+"Acme,2021,10\n", rec.Body.String())
}

func TestDownloadUnknownToken(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/download/nope?format=csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicateRejectsBadCount(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	for _, rows := range []string{"many", "1000001", "4611686018427387904"} {
		body, ct := multipartBody(t, sampleCSV, map[string]string{"rows": rows})
		req := httptest.NewRequest(http.MethodPost, "/duplicate", body)
		req.Header.Set("Content-Type", ct)

		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rows)
		assert.Contains(t, rec.Body.String(), `class="error"`, rows)
	}
}

func TestDuplicateMissingFile(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/duplicate", strings.NewReader("rows=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, do(s, req).Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadBytes: 64}, nil)
	body, ct := multipartBody(t, sampleCSV+strings.Repeat("Acme,2023,1\n", 50), map[string]string{"rows": "1"})
	req := httptest.NewRequest(http.MethodPost, "/duplicate?format=csv", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(s, req).Code)
}

func TestExtendWithCopulaAppendsRows(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	body, ct := multipartBody(t, sampleCSV, map[string]string{"rows": "5", "engine": "copula", "seed": "3"})
	req := httptest.NewRequest(http.MethodPost, "/extend?format=csv", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out, err := table.ReadCSV(rec.Body, table.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8, out.Len())
	assert.Equal(t, []string{"Company", "Year", "Emissions"}, out.Columns)
}

func TestExtendUnknownCompareColumn(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	body, ct := multipartBody(t, sampleCSV, map[string]string{"rows": "1", "compare_a": "Nope", "compare_b": "Year"})
	req := httptest.NewRequest(http.MethodPost, "/extend", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, do(s, req).Code)
}

func generateForm(v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestGeneratePassesFilters(t *testing.T) {
	var got prompt.Filters
	s := newTestServer(t, Options{}, func(f prompt.Filters) (*service.Result, error) {
		got = f
		tb, err := table.New([]string{"a", "b"}, table.Row{"1", "2"})
		return &service.Result{Table: tb, Filename: service.FilenameGenerated}, err
	})
	rec := do(s, generateForm(url.Values{
		"industry": {"Finance"}, "country": {"India"}, "rows": {"1"}, "columns": {"2"}, "format": {"csv"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a,b\n1,2\n", rec.Body.String())
	assert.Equal(t, `attachment; filename="Generated_data.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, prompt.Filters{Industry: "Finance", Country: "India", Rows: 1, Columns: 2}, got)
}

func TestGenerateRecoveryFailureShowsRawReply(t *testing.T) {
	s := newTestServer(t, Options{}, func(prompt.Filters) (*service.Result, error) {
		return &service.Result{Raw: "I cannot do that"}, &table.RecoveryError{Lines: 1}
	})
	rec := do(s, generateForm(url.Values{"rows": {"1"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "I cannot do that")
	assert.NotContains(t, rec.Body.String(), "/download/")
}

func TestGenerateErrorStatuses(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		want int
	}{
		"auth":         {&ai.AuthError{APIError: &ai.APIError{StatusCode: 401}}, http.StatusBadGateway},
		"rate limited": {&ai.RateLimitError{APIError: &ai.APIError{StatusCode: 429}}, http.StatusTooManyRequests},
		"no runtime":   {service.ErrNoRuntime, http.StatusBadGateway},
		"invalid":      {fmt.Errorf("%w: unknown industry", table.ErrInvalidInput), http.StatusBadRequest},
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, Options{}, func(prompt.Filters) (*service.Result, error) { return nil, tc.err })
			assert.Equal(t, tc.want, do(s, generateForm(url.Values{"format": {"csv"}})).Code)
		})
	}
}

func TestGenerateRejectsNegativeRows(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	assert.Equal(t, http.StatusBadRequest, do(s, generateForm(url.Values{"rows": {"-1"}})).Code)
}

func TestGenerateIsThrottled(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 0.001, Burst: 1}, nil)
	first := do(s, generateForm(url.Values{}))
	assert.Equal(t, http.StatusBadGateway, first.Code)
	second := do(s, generateForm(url.Values{}))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// duplicate is not rate limited
	body, ct := multipartBody(t, sampleCSV, map[string]string{"rows": "0"})
	req := httptest.NewRequest(http.MethodPost, "/duplicate?format=csv", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusOK, do(s, req).Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, httptest.NewRequest(http.MethodGet, "/generate", nil)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", do(s, req).Header().Get(RequestIDHeader))
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t, Options{Addr: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)
}
