package extract

import (
	"fmt"
	"sort"

	"github.com/ppiankov/curato/internal/model"
)

// JoinExtractor merges the evidence of several extractors
type JoinExtractor struct {
	extractors []Extractor
}

// NewJoinExtractor combines extractors; their order decides ties on equal starts
func NewJoinExtractor(extractors ...Extractor) *JoinExtractor {
	return &JoinExtractor{extractors: extractors}
}

// FindAll concatenates each extractor's evidence in list order and stable
// sorts the result by start. Evidence with a malformed span fails the call.
func (j *JoinExtractor) FindAll(s model.Sentence) ([]model.Evidence, error) {
	var result []model.Evidence
	for i, ex := range j.extractors {
		evs, err := ex.FindAll(s)
		if err != nil {
			return nil, fmt.Errorf("extractor %d: %w", i, err)
		}
		for _, ev := range evs {
			if err := ev.Validate(); err != nil {
				return nil, fmt.Errorf("extractor %d: %w", i, err)
			}
		}
		result = append(result, evs...)
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Start < result[b].Start
	})
	return result, nil
}

// ToGrounds wraps FindAll's result with the sentence
func (j *JoinExtractor) ToGrounds(s model.Sentence) (model.Grounds, error) {
	return toGrounds(j, s)
}
