// Package service implements the user-facing actions: duplicate, extend and
// generate. Each action turns form values into a Result.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/KaramelBytes/esgsynth-cli/internal/ai"
	"github.com/KaramelBytes/esgsynth-cli/internal/analysis"
	"github.com/KaramelBytes/esgsynth-cli/internal/config"
	"github.com/KaramelBytes/esgsynth-cli/internal/prompt"
	"github.com/KaramelBytes/esgsynth-cli/internal/synth"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// Fixed artifact names offered for download.
const (
	FilenameUpdated   = "Updated_file.csv"
	FilenameGenerated = "Generated_data.csv"
)

// Extension engines.
const (
	EngineCopula = "copula"
	EngineLLM    = "llm"
)

// ErrNoRuntime is returned when an action needs the generative service but none is configured.
var ErrNoRuntime = errors.New("no generative text runtime configured")

// Result is the outcome of one action.
type Result struct {
	Table      *table.Table
	Filename   string
	Raw        string // generative service output, when one was called
	Prompt     string
	Comparison *analysis.Comparison
	Cached     bool
}

// ExtendRequest configures Extend.
type ExtendRequest struct {
	Rows     int
	Engine   string // copula (default) or llm
	CompareA string
	CompareB string
	Seed     uint64 // overrides the configured seed when non-zero
}

// SynthFactory builds a fresh synthesizer for one request.
type SynthFactory func(seed uint64) synth.Synthesizer

// Service holds the collaborators shared by every action. It is safe for
// concurrent use when the runtime is.
type Service struct {
	cfg      *config.Global
	rt       ai.Runtime
	newSynth SynthFactory
	cache    *cache.Cache
	onDelta  func(string)
}

// Option customizes a Service.
type Option func(*Service)

// WithRuntime sets the generative text runtime.
func WithRuntime(rt ai.Runtime) Option { return func(s *Service) { s.rt = rt } }

// WithSynthesizer replaces the default Gaussian copula factory.
func WithSynthesizer(f SynthFactory) Option { return func(s *Service) { s.newSynth = f } }

// WithCache sets the response cache; nil disables caching.
func WithCache(c *cache.Cache) Option { return func(s *Service) { s.cache = c } }

// WithStreaming forwards partial replies to onDelta when the runtime can stream.
func WithStreaming(onDelta func(string)) Option { return func(s *Service) { s.onDelta = onDelta } }

// New builds a Service. cfg is read, never written.
func New(cfg *config.Global, opts ...Option) *Service {
	if cfg == nil {
		cfg = &config.Global{}
	}
	s := &Service{
		cfg: cfg,
		newSynth: func(seed uint64) synth.Synthesizer {
			return synth.NewGaussianCopula(synth.Options{Seed: seed})
		},
	}
	if !cfg.NoCache && cfg.CacheTTLSec > 0 {
		ttl := time.Duration(cfg.CacheTTLSec) * time.Second
		s.cache = cache.New(ttl, 2*ttl)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Duplicate appends extra cyclic copies of the input rows.
func (s *Service) Duplicate(in *table.Table, extra int) (*Result, error) {
	if err := table.CheckCount(extra, s.cfg.MaxRowsOut); err != nil {
		return nil, err
	}
	out, err := table.Duplicate(in, extra)
	if err != nil {
		return nil, err
	}
	return &Result{Table: out, Filename: FilenameUpdated}, nil
}

// Extend appends req.Rows newly synthesized rows to the sample.
func (s *Service) Extend(ctx context.Context, in *table.Table, req ExtendRequest) (*Result, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: no sample table", table.ErrInvalidInput)
	}
	if err := table.CheckCount(req.Rows, s.cfg.MaxRowsOut); err != nil {
		return nil, err
	}
	for _, col := range []string{req.CompareA, req.CompareB} {
		if _, ok := in.Column(col); col != "" && !ok {
			return nil, fmt.Errorf("%w: unknown comparison column %q", table.ErrInvalidInput, col)
		}
	}
	engine := strings.ToLower(strings.TrimSpace(req.Engine))
	if engine == "" {
		engine = s.cfg.Engine
	}
	switch engine {
	case "", EngineCopula:
		return s.extendCopula(in, req)
	case EngineLLM:
		return s.extendLLM(ctx, in, req)
	}
	return nil, fmt.Errorf("%w: unknown engine %q (use %s or %s)", table.ErrInvalidInput, req.Engine, EngineCopula, EngineLLM)
}

func (s *Service) extendCopula(in *table.Table, req ExtendRequest) (*Result, error) {
	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.Seed
	}
	sy := s.newSynth(seed)
	if err := sy.Fit(in); err != nil {
		return nil, fmt.Errorf("fit synthesizer: %w", err)
	}
	sampled, err := sy.Sample(req.Rows)
	if err != nil {
		return nil, fmt.Errorf("sample synthesizer: %w", err)
	}
	out, err := table.Concat(in, sampled)
	if err != nil {
		return nil, err
	}
	res := &Result{Table: out, Filename: FilenameUpdated}
	if req.CompareA != "" && req.CompareB != "" {
		cmp, err := analysis.Compare(in, sampled, req.CompareA, req.CompareB)
		if err != nil {
			return nil, err
		}
		res.Comparison = cmp
	}
	return res, nil
}

func (s *Service) extendLLM(ctx context.Context, in *table.Table, req ExtendRequest) (*Result, error) {
	csvBytes, err := in.Bytes()
	if err != nil {
		return nil, err
	}
	p := prompt.BuildExtend(string(csvBytes), req.Rows, ai.PromptBudget(s.model(), s.maxTokens()))
	text, cached, err := s.complete(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("extend: %w", err)
	}
	res := &Result{Filename: FilenameUpdated, Raw: text, Prompt: p, Cached: cached}
	out, err := table.ParseText(text)
	if err != nil {
		return res, err
	}
	res.Table = out
	if req.CompareA != "" && req.CompareB != "" {
		// The service may rename columns; comparison is best effort here.
		if cmp, err := analysis.Compare(in, out, req.CompareA, req.CompareB); err == nil {
			res.Comparison = cmp
		}
	}
	return res, nil
}

// Generate asks the generative service for a table matching f. When the
// reply cannot be recovered into a table, the returned Result carries only
// Raw and Prompt alongside the *table.RecoveryError.
func (s *Service) Generate(ctx context.Context, f prompt.Filters) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := table.CheckCount(f.Rows, s.cfg.MaxRowsOut); err != nil {
		return nil, err
	}
	p := prompt.BuildGenerate(f)
	text, cached, err := s.complete(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	res := &Result{Filename: FilenameGenerated, Raw: text, Prompt: p, Cached: cached}
	out, err := table.ParseText(text)
	if err != nil {
		return res, err
	}
	res.Table = out
	return res, nil
}

// complete sends one prompt and returns the reply text, consulting the cache first.
func (s *Service) complete(ctx context.Context, p string) (string, bool, error) {
	if s.rt == nil {
		return "", false, ErrNoRuntime
	}
	model := s.model()
	key := s.cacheKey(model, p)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.(string), true, nil
		}
	}
	text, err := s.send(ctx, ai.UserPrompt(model, p, s.maxTokens(), s.cfg.Temperature))
	if err != nil {
		return "", false, err
	}
	if s.cache != nil {
		s.cache.SetDefault(key, text)
	}
	return text, false, nil
}

func (s *Service) send(ctx context.Context, req ai.GenerateRequest) (string, error) {
	sr, ok := s.rt.(ai.StreamRuntime)
	if !ok || s.onDelta == nil {
		resp, err := s.rt.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return ai.Text(resp)
	}
	var sb strings.Builder
	err := sr.GenerateStream(ctx, req, func(d string) {
		sb.WriteString(d)
		s.onDelta(d)
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ai.ErrEmptyResponse
	}
	return sb.String(), nil
}

func (s *Service) model() string {
	if s.cfg.DefaultModel != "" {
		return s.cfg.DefaultModel
	}
	m, _ := ai.DefaultModel(s.cfg.DefaultProvider)
	return m
}

func (s *Service) maxTokens() int {
	if s.cfg.MaxTokens > 0 {
		return s.cfg.MaxTokens
	}
	return 1024
}

// cacheKeyPrefix versions cached replies; bump it when the prompt layout changes.
const cacheKeyPrefix = "gen:v1:"

func (s *Service) cacheKey(model, p string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%g\x00", s.cfg.DefaultProvider, model, s.maxTokens(), s.cfg.Temperature)
	h.Write([]byte(p))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
