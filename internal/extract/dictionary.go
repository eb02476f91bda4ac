package extract

import (
	ahocorasick "github.com/BobuSumisu/aho-corasick"

	"github.com/ppiankov/curato/internal/index"
	"github.com/ppiankov/curato/internal/model"
)

// DictionaryExtractor finds every lemma of a term index in one pass over
// the sentence and keeps the matches that sit on word edges. Overlapping
// matches are all kept.
type DictionaryExtractor struct {
	trie     *ahocorasick.Trie
	terms    [][]model.Term // pattern number → canonical terms
	foldCase bool
}

// DictionaryOption configures a DictionaryExtractor
type DictionaryOption func(*DictionaryExtractor)

// WithCaseFolding matches lemmas regardless of ASCII case
func WithCaseFolding(enabled bool) DictionaryOption {
	return func(d *DictionaryExtractor) {
		d.foldCase = enabled
	}
}

// NewDictionaryExtractor builds the automaton over all lemmas of terms
func NewDictionaryExtractor(terms index.TermIndex, opts ...DictionaryOption) *DictionaryExtractor {
	d := &DictionaryExtractor{}
	for _, opt := range opts {
		opt(d)
	}

	// Lemmas that fold to the same key share one pattern
	patterns := make([]string, 0, terms.Len())
	slot := make(map[string]int, terms.Len())
	for _, lemma := range terms.Keys() {
		key := lemma
		if d.foldCase {
			key = asciiLower(lemma)
		}
		i, ok := slot[key]
		if !ok {
			i = len(patterns)
			slot[key] = i
			patterns = append(patterns, key)
			d.terms = append(d.terms, nil)
		}
		d.terms[i] = appendUnique(d.terms[i], terms.Get(lemma)...)
	}

	if len(patterns) > 0 {
		d.trie = ahocorasick.NewTrieBuilder().AddStrings(patterns).Build()
	}
	return d
}

// FindAll returns accepted matches in automaton order
func (d *DictionaryExtractor) FindAll(s model.Sentence) ([]model.Evidence, error) {
	if d.trie == nil || s.Text == "" {
		return nil, nil
	}

	haystack := s.Text
	if d.foldCase {
		haystack = asciiLower(haystack)
	}

	var result []model.Evidence
	for _, m := range d.trie.MatchString(haystack) {
		start := int(m.Pos())
		end := start + len(m.Match())
		if !AcceptsBorder(s.Text, start, end) {
			continue
		}
		text := s.Text[start:end]
		for _, term := range d.terms[int(m.Pattern())] {
			ev, err := model.NewEvidence(term, text, start+s.Offset, end+s.Offset)
			if err != nil {
				return nil, err
			}
			result = append(result, ev)
		}
	}
	return result, nil
}

// ToGrounds wraps FindAll's result with the sentence
func (d *DictionaryExtractor) ToGrounds(s model.Sentence) (model.Grounds, error) {
	return toGrounds(d, s)
}

// asciiLower lowers ASCII letters only, so byte offsets stay valid
func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

func appendUnique(dst []model.Term, terms ...model.Term) []model.Term {
next:
	for _, t := range terms {
		for _, have := range dst {
			if have == t {
				continue next
			}
		}
		dst = append(dst, t)
	}
	return dst
}
