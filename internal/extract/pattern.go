package extract

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/curato/internal/model"
)

// PatternExtractor runs one regular expression whose named groups each name
// a soft lemma. A match is attributed to the first named group, in
// declaration order, that took part in it; matches with no participating
// named group, and empty matches, produce no evidence.
type PatternExtractor struct {
	re     *regexp.Regexp
	groups []namedGroup
	source string
}

type namedGroup struct {
	index int
	lemma string
}

// NewPatternExtractor compiles expr. An empty expression yields an extractor
// that never matches. Source is recorded as provenance on every pattern term
// (model.AnnotatorSource when empty).
func NewPatternExtractor(expr, source string) (*PatternExtractor, error) {
	if source == "" {
		source = model.AnnotatorSource
	}
	p := &PatternExtractor{source: source}
	if expr == "" {
		return p, nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile soft pattern: %w", err)
	}
	p.re = re
	for i, name := range re.SubexpNames() {
		if name != "" {
			p.groups = append(p.groups, namedGroup{index: i, lemma: name})
		}
	}
	return p, nil
}

// Lemmas returns the group names in declaration order
func (p *PatternExtractor) Lemmas() []string {
	out := make([]string, len(p.groups))
	for i, g := range p.groups {
		out[i] = g.lemma
	}
	return out
}

// FindAll returns evidence for every non-overlapping leftmost match
func (p *PatternExtractor) FindAll(s model.Sentence) ([]model.Evidence, error) {
	if p.re == nil || len(p.groups) == 0 {
		return nil, nil
	}

	var result []model.Evidence
	for _, loc := range p.re.FindAllStringSubmatchIndex(s.Text, -1) {
		start, end := loc[0], loc[1]
		if start == end {
			continue
		}
		lemma, ok := p.capturingGroup(loc)
		if !ok {
			continue
		}
		ev, err := model.NewEvidence(
			model.PatternTerm(lemma, p.source),
			s.Text[start:end],
			start+s.Offset,
			end+s.Offset,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, nil
}

// ToGrounds wraps FindAll's result with the sentence
func (p *PatternExtractor) ToGrounds(s model.Sentence) (model.Grounds, error) {
	return toGrounds(p, s)
}

func (p *PatternExtractor) capturingGroup(loc []int) (string, bool) {
	for _, g := range p.groups {
		if loc[2*g.index] >= 0 {
			return g.lemma, true
		}
	}
	return "", false
}
