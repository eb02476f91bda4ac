// Package pipeline wires extractors and the recognizer into a corpus-level
// candidate finder.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/ppiankov/curato/internal/cache"
	"github.com/ppiankov/curato/internal/extract"
	"github.com/ppiankov/curato/internal/index"
	"github.com/ppiankov/curato/internal/model"
	"github.com/ppiankov/curato/internal/recognize"
	"github.com/ppiankov/curato/internal/worker"
)

// Finder locates candidates in a corpus. It is built once per ontology and
// is read-only afterwards, so one Finder may serve concurrent runs.
type Finder struct {
	extractor  extract.Extractor
	recognizer *recognize.Recognizer
	workers    int
	logger     *slog.Logger
}

type settings struct {
	auxiliary extract.Extractor
	cache     cache.Cache
	cacheTTL  time.Duration
	workers   int
	foldCase  bool
	logger    *slog.Logger
}

// Option configures a Finder
type Option func(*settings)

// WithAuxiliary appends an extra extractor after the dictionary and pattern extractors
func WithAuxiliary(e extract.Extractor) Option {
	return func(s *settings) { s.auxiliary = e }
}

// WithCache memoizes joined evidence per sentence
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *settings) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithWorkers processes sentences on n workers (n <= 1 runs sequentially)
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithCaseFolding makes dictionary matching ASCII case-insensitive
func WithCaseFolding(enabled bool) Option {
	return func(s *settings) { s.foldCase = enabled }
}

// WithLogger sets the logger (default slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// New builds the term index, the dictionary and pattern extractors and the
// recognizer for onto. Extractors are joined in the order dictionary,
// pattern, auxiliary.
func New(onto *model.Ontology, opts ...Option) (*Finder, error) {
	if onto == nil {
		onto = &model.Ontology{}
	}
	s := settings{workers: 1}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	terms := index.BuildTermIndex(onto.Clusters)
	dictionary := extract.NewDictionaryExtractor(terms, extract.WithCaseFolding(s.foldCase))
	soft, err := extract.NewPatternExtractor(onto.Regex, model.AnnotatorSource)
	if err != nil {
		return nil, err
	}

	extractors := []extract.Extractor{dictionary, soft}
	if s.auxiliary != nil {
		extractors = append(extractors, s.auxiliary)
	}
	var ex extract.Extractor = extract.NewJoinExtractor(extractors...)
	if s.cache != nil {
		ex = extract.NewCachedExtractor(ex, s.cache, s.cacheTTL)
	}

	recognizer := recognize.New(onto.Statements)

	s.logger.Debug("finder ready",
		"lemmas", terms.Len(),
		"soft_lemmas", len(soft.Lemmas()),
		"statements", len(onto.Statements),
		"anchor_terms", recognizer.Statements().Len(),
		"auxiliary", s.auxiliary != nil,
		"cached", s.cache != nil,
	)

	return &Finder{
		extractor:  ex,
		recognizer: recognizer,
		workers:    s.workers,
		logger:     s.logger,
	}, nil
}

// NewFromConfig builds a Finder with options taken from cfg
func NewFromConfig(onto *model.Ontology, cfg *model.Config, logger *slog.Logger) (*Finder, error) {
	opts := []Option{
		WithLogger(logger),
		WithWorkers(cfg.Concurrency.Workers),
		WithCaseFolding(cfg.Extraction.CaseInsensitive),
	}
	if cfg.Extraction.ExtraPattern != "" {
		aux, err := extract.NewPatternExtractor(cfg.Extraction.ExtraPattern, "extra")
		if err != nil {
			return nil, fmt.Errorf("extra pattern: %w", err)
		}
		opts = append(opts, WithAuxiliary(aux))
	}
	if cfg.Cache.Enabled {
		opts = append(opts, WithCache(cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval), cfg.Cache.TTL))
	}
	return New(onto, opts...)
}

// Grounds returns the joined evidence of one sentence
func (f *Finder) Grounds(s model.Sentence) (model.Grounds, error) {
	return f.extractor.ToGrounds(s)
}

// FindSentence returns the candidates of one sentence
func (f *Finder) FindSentence(s model.Sentence) ([]model.Candidate, error) {
	g, err := f.Grounds(s)
	if err != nil {
		return nil, err
	}
	return f.recognizer.Generate(g), nil
}

// Result is the outcome of a corpus run
type Result struct {
	Candidates []model.Candidate
	Stats      model.Stats
}

// FindAll returns the candidates of every sentence, sentence by sentence in
// corpus order
func (f *Finder) FindAll(corpus []model.Sentence) ([]model.Candidate, error) {
	res, err := f.Run(context.Background(), corpus)
	if err != nil {
		return nil, err
	}
	return res.Candidates, nil
}

// Run processes corpus, on several workers when configured. The candidates
// come back in corpus order either way.
func (f *Finder) Run(ctx context.Context, corpus []model.Sentence) (*Result, error) {
	start := time.Now()
	ctx, span := startRunSpan(ctx, len(corpus), f.workers)
	defer span.End()

	counter := &countingFinder{finder: f}

	var (
		cands []model.Candidate
		err   error
	)
	if f.workers > 1 {
		cands, err = worker.NewBatchProcessor(counter, f.workers).ProcessCorpus(ctx, corpus)
	} else {
		cands, err = f.runSequential(ctx, counter, corpus)
	}

	evidences := int(counter.evidences.Load())
	recordRunMetrics(ctx, time.Since(start), len(corpus), evidences, len(cands), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	setRunSpanResult(span, evidences, len(cands))

	stats := model.Stats{Sentences: len(corpus), Evidences: evidences, Candidates: len(cands)}
	f.logger.Debug("corpus processed",
		"sentences", stats.Sentences,
		"evidences", stats.Evidences,
		"candidates", stats.Candidates,
		"workers", f.workers,
		"duration", time.Since(start),
	)
	return &Result{Candidates: cands, Stats: stats}, nil
}

func (f *Finder) runSequential(ctx context.Context, sf worker.SentenceFinder, corpus []model.Sentence) ([]model.Candidate, error) {
	var out []model.Candidate
	for i, s := range corpus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands, err := sf.FindSentence(s)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		out = append(out, cands...)
	}
	return out, nil
}

// countingFinder counts evidence for one run
type countingFinder struct {
	finder    *Finder
	evidences atomic.Int64
}

func (c *countingFinder) FindSentence(s model.Sentence) ([]model.Candidate, error) {
	g, err := c.finder.Grounds(s)
	if err != nil {
		return nil, err
	}
	c.evidences.Add(int64(len(g.Evidences)))
	return c.finder.recognizer.Generate(g), nil
}
