package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/curato/internal/model"
)

func TestPatternExtractor_NamedGroups(t *testing.T) {
	p, err := NewPatternExtractor(`(?P<regulate>regulat(?:es|ed|ion))|(?P<bind>bind(?:s|ing)?)`, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"regulate", "bind"}, p.Lemmas())

	evs, err := p.FindAll(model.Sentence{Text: "X regulates Y binding", Offset: 10})
	require.NoError(t, err)

	assert.Equal(t, []model.Evidence{
		{Term: model.PatternTerm("regulate", model.AnnotatorSource), Text: "regulates", Start: 12, End: 21},
		{Term: model.PatternTerm("bind", model.AnnotatorSource), Text: "binding", Start: 24, End: 31},
	}, evs)
}

func TestPatternExtractor_TieBreakByDeclarationOrder(t *testing.T) {
	p, err := NewPatternExtractor(`(?P<alpha>foo)(?P<beta>bar)`, "")
	require.NoError(t, err)

	evs, err := p.FindAll(model.Sentence{Text: "foobar"})
	require.NoError(t, err)

	require.Len(t, evs, 1)
	assert.Equal(t, "alpha", evs[0].Term.ID)
	assert.Equal(t, "foobar", evs[0].Text)
}

func TestPatternExtractor_NoParticipatingGroup(t *testing.T) {
	p, err := NewPatternExtractor(`(?P<x>a)|b`, "")
	require.NoError(t, err)

	evs, err := p.FindAll(model.Sentence{Text: "b a b"})
	require.NoError(t, err)

	require.Len(t, evs, 1)
	assert.Equal(t, 2, evs[0].Start)
}

func TestPatternExtractor_SkipsEmptyMatches(t *testing.T) {
	p, err := NewPatternExtractor(`(?P<x>a*)`, "")
	require.NoError(t, err)

	evs, err := p.FindAll(model.Sentence{Text: "baab"})
	require.NoError(t, err)

	require.Len(t, evs, 1)
	assert.Equal(t, "aa", evs[0].Text)
}

func TestPatternExtractor_CustomSource(t *testing.T) {
	p, err := NewPatternExtractor(`(?P<x>a)`, "curator")
	require.NoError(t, err)

	evs, err := p.FindAll(model.Sentence{Text: "a"})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "curator", evs[0].Term.Source)
}

func TestPatternExtractor_EmptyExpression(t *testing.T) {
	p, err := NewPatternExtractor("", "")
	require.NoError(t, err)

	evs, err := p.FindAll(model.Sentence{Text: "anything"})
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestPatternExtractor_InvalidExpression(t *testing.T) {
	_, err := NewPatternExtractor(`(?P<x>a`, "")
	assert.Error(t, err)
}
