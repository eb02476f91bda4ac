package worker

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/curato/internal/model"
)

// SentenceFinder produces the candidates of one sentence
type SentenceFinder interface {
	FindSentence(s model.Sentence) ([]model.Candidate, error)
}

// SentenceJob runs a SentenceFinder on one sentence of a corpus
type SentenceJob struct {
	Index    int
	Sentence model.Sentence
	Finder   SentenceFinder
}

// Execute executes the sentence job
func (j *SentenceJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &SentenceResult{Index: j.Index, Error: err}
	}
	cands, err := j.Finder.FindSentence(j.Sentence)
	return &SentenceResult{
		Index:      j.Index,
		Candidates: cands,
		Error:      err,
	}
}

// SentenceResult is the outcome of a SentenceJob
type SentenceResult struct {
	Index      int
	Candidates []model.Candidate
	Error      error
}

// GetError returns the error from the sentence result
func (r *SentenceResult) GetError() error {
	return r.Error
}

// BatchProcessor fans sentences out to a worker pool
type BatchProcessor struct {
	finder      SentenceFinder
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(finder SentenceFinder, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		finder:      finder,
		concurrency: concurrency,
	}
}

// ProcessCorpus runs every sentence and concatenates the candidates in
// corpus order, whatever order the workers finish in. The first failing
// sentence (in corpus order) aborts the result.
func (b *BatchProcessor) ProcessCorpus(ctx context.Context, corpus []model.Sentence) ([]model.Candidate, error) {
	if len(corpus) == 0 {
		return nil, nil
	}

	jobs := make([]Job, len(corpus))
	for i, s := range corpus {
		jobs[i] = &SentenceJob{Index: i, Sentence: s, Finder: b.finder}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	results := pool.Run(jobs)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(results) != len(corpus) {
		return nil, fmt.Errorf("incomplete batch: %d of %d sentences", len(results), len(corpus))
	}

	ordered := make([]*SentenceResult, len(results))
	for i, r := range results {
		ordered[i] = r.(*SentenceResult)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	var out []model.Candidate
	for _, r := range ordered {
		if r.Error != nil {
			return nil, fmt.Errorf("sentence %d: %w", r.Index, r.Error)
		}
		out = append(out, r.Candidates...)
	}
	return out, nil
}
