package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/curato/internal/cache"
	"github.com/ppiankov/curato/internal/model"
)

var (
	apoptosis = model.EntityTerm("GO:0006915")
	bax       = model.EntityTerm("PR:BAX")
	regulate  = model.PatternTerm("regulate", model.AnnotatorSource)
	inhibit   = model.PatternTerm("inhibit", model.AnnotatorSource)
)

func testOntology() *model.Ontology {
	return &model.Ontology{
		Clusters: []model.Cluster{
			{Primary: apoptosis, Lemmas: []string{"apoptosis", "programmed cell death"}},
			{Primary: bax, Lemmas: []string{"BAX", "Bax"}},
		},
		Statements: []model.Statement{
			model.NewStatement("regulation of apoptosis", regulate, apoptosis),
			model.NewStatement("BAX in apoptosis", bax, apoptosis),
			model.NewStatement("regulate and inhibit", regulate, inhibit),
		},
		Regex: `(?P<regulate>regulat(?:es|ed|ion))|(?P<inhibit>inhibit(?:s|ed)?)`,
	}
}

func testCorpus() []model.Sentence {
	return []model.Sentence{
		{Text: "BAX regulates apoptosis.", Offset: 0},
		{Text: "Nothing to see here.", Offset: 25},
		{Text: "programmed cell death is inhibited and regulated.", Offset: 46},
	}
}

func TestFinder_EndToEnd(t *testing.T) {
	f, err := New(testOntology())
	require.NoError(t, err)

	cands, err := f.FindAll(testCorpus())
	require.NoError(t, err)

	var got []string
	for _, c := range cands {
		got = append(got, fmt.Sprintf("%d:%s", c.Sentence.Offset, c.Statement.Key()))
	}
	assert.Equal(t, []string{
		// sentence 1: BAX, regulates, apoptosis
		"0:BAX in apoptosis",
		"0:regulate and inhibit",
		"0:regulation of apoptosis",
		"0:BAX in apoptosis",
		// sentence 3: programmed cell death, inhibited, regulated
		"46:regulation of apoptosis",
		"46:BAX in apoptosis",
		"46:regulate and inhibit",
		"46:regulate and inhibit",
	}, got)

	// BAX in apoptosis in the third sentence has no BAX evidence
	assert.Equal(t, []model.Evidence{
		{Term: apoptosis, Text: "programmed cell death", Start: 46, End: 67},
	}, cands[5].Evidences)

	// regulation of apoptosis in the first sentence pulls the regulate evidence
	assert.Equal(t, []model.Evidence{
		{Term: regulate, Text: "regulates", Start: 4, End: 13},
		{Term: apoptosis, Text: "apoptosis", Start: 14, End: 23},
	}, cands[2].Evidences)
}

func TestFinder_ParallelMatchesSequential(t *testing.T) {
	var corpus []model.Sentence
	offset := 0
	for i := 0; i < 60; i++ {
		for _, s := range testCorpus() {
			corpus = append(corpus, model.Sentence{Text: s.Text, Offset: offset})
			offset += len(s.Text) + 1
		}
	}

	seq, err := New(testOntology())
	require.NoError(t, err)
	par, err := New(testOntology(), WithWorkers(6))
	require.NoError(t, err)

	want, err := seq.Run(context.Background(), corpus)
	require.NoError(t, err)
	got, err := par.Run(context.Background(), corpus)
	require.NoError(t, err)

	assert.Equal(t, want.Candidates, got.Candidates)
	assert.Equal(t, want.Stats, got.Stats)
	assert.Equal(t, len(corpus), got.Stats.Sentences)
}

func TestFinder_RepeatedRunsIdentical(t *testing.T) {
	f, err := New(testOntology())
	require.NoError(t, err)

	first, err := f.FindAll(testCorpus())
	require.NoError(t, err)
	second, err := f.FindAll(testCorpus())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFinder_SentenceOrder(t *testing.T) {
	f, err := New(testOntology())
	require.NoError(t, err)

	corpus := testCorpus()
	corpus[0], corpus[2] = corpus[2], corpus[0]

	cands, err := f.FindAll(corpus)
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, 46, cands[0].Sentence.Offset)
	assert.Equal(t, 0, cands[len(cands)-1].Sentence.Offset)
}

func TestFinder_EmptyInputs(t *testing.T) {
	f, err := New(nil)
	require.NoError(t, err)

	cands, err := f.FindAll(testCorpus())
	require.NoError(t, err)
	assert.Empty(t, cands)

	f, err = New(testOntology())
	require.NoError(t, err)
	cands, err = f.FindAll(nil)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestFinder_InvalidRegex(t *testing.T) {
	onto := testOntology()
	onto.Regex = `(?P<broken>`

	_, err := New(onto)
	assert.Error(t, err)
}

// spanExtractor emits fixed local spans as evidence of term
type spanExtractor struct {
	term  model.Term
	spans [][2]int
}

func (e *spanExtractor) FindAll(s model.Sentence) ([]model.Evidence, error) {
	var out []model.Evidence
	for _, sp := range e.spans {
		out = append(out, model.Evidence{Term: e.term, Text: "aux", Start: sp[0] + s.Offset, End: sp[1] + s.Offset})
	}
	return out, nil
}

func (e *spanExtractor) ToGrounds(s model.Sentence) (model.Grounds, error) {
	evs, err := e.FindAll(s)
	return model.Grounds{Evidences: evs, Sentence: s}, err
}

func TestFinder_AuxiliaryExtractor(t *testing.T) {
	onto := testOntology()
	aux := &spanExtractor{term: bax, spans: [][2]int{{0, 3}}}

	f, err := New(onto, WithAuxiliary(aux))
	require.NoError(t, err)

	g, err := f.Grounds(model.Sentence{Text: "BAX regulates apoptosis."})
	require.NoError(t, err)

	require.Len(t, g.Evidences, 4)
	assert.Equal(t, "BAX", g.Evidences[0].Text, "dictionary evidence precedes auxiliary on ties")
	assert.Equal(t, "aux", g.Evidences[1].Text)
}

func TestFinder_AuxiliaryInvalidSpan(t *testing.T) {
	aux := &spanExtractor{term: bax, spans: [][2]int{{3, 1}}}

	f, err := New(testOntology(), WithAuxiliary(aux))
	require.NoError(t, err)

	_, err = f.FindAll(testCorpus())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidSpan))
}

func TestFinder_CacheAndCaseFolding(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	f, err := New(testOntology(), WithCache(mem, 0), WithCaseFolding(true))
	require.NoError(t, err)

	sentence := model.Sentence{Text: "APOPTOSIS regulated by bax", Offset: 0}
	cands, err := f.FindAll([]model.Sentence{sentence})
	require.NoError(t, err)
	assert.NotEmpty(t, cands)

	cached, ok := mem.Get(cache.Key(sentence))
	require.True(t, ok)
	assert.NotEmpty(t, cached)
}

func TestFinder_Cancelled(t *testing.T) {
	f, err := New(testOntology())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Run(ctx, testCorpus())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = 3
	cfg.Extraction.ExtraPattern = `(?P<death>death)`

	f, err := NewFromConfig(testOntology(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, f.workers)

	g, err := f.Grounds(model.Sentence{Text: "programmed cell death"})
	require.NoError(t, err)
	require.Len(t, g.Evidences, 2)
	assert.Equal(t, "extra", g.Evidences[1].Term.Source)

	cfg.Extraction.ExtraPattern = `(`
	_, err = NewFromConfig(testOntology(), cfg, nil)
	assert.Error(t, err)
}
