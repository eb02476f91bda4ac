package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSpan is returned when an evidence span is negative or empty
var ErrInvalidSpan = errors.New("invalid span")

// Evidence is a located mention of a Term.
// Start and End are absolute byte offsets (sentence offset included), End exclusive.
type Evidence struct {
	Term  Term   `json:"term"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// NewEvidence builds an Evidence, rejecting spans that violate 0 <= start < end
func NewEvidence(term Term, text string, start, end int) (Evidence, error) {
	ev := Evidence{Term: term, Text: text, Start: start, End: end}
	if err := ev.Validate(); err != nil {
		return Evidence{}, err
	}
	return ev, nil
}

// Validate checks the span invariant. Evidence built by hand (e.g., by an
// auxiliary extractor) is validated before it enters the grounds.
func (e Evidence) Validate() error {
	if e.Start < 0 || e.Start >= e.End {
		return fmt.Errorf("%w: [%d,%d) for %s", ErrInvalidSpan, e.Start, e.End, e.Term)
	}
	return nil
}

// SortEvidences orders evidences by start, keeping the relative order of
// evidences that start at the same offset
func SortEvidences(evs []Evidence) {
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].Start < evs[j].Start
	})
}
