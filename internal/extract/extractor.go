// Package extract finds term evidence in sentences.
package extract

import "github.com/ppiankov/curato/internal/model"

// Extractor finds evidence in a single sentence
type Extractor interface {
	// FindAll returns the evidence found in s with absolute offsets
	FindAll(s model.Sentence) ([]model.Evidence, error)
	// ToGrounds pairs FindAll's result with s
	ToGrounds(s model.Sentence) (model.Grounds, error)
}

// finder is the half of Extractor that concrete extractors implement
type finder interface {
	FindAll(s model.Sentence) ([]model.Evidence, error)
}

func toGrounds(f finder, s model.Sentence) (model.Grounds, error) {
	evs, err := f.FindAll(s)
	if err != nil {
		return model.Grounds{}, err
	}
	return model.Grounds{Evidences: evs, Sentence: s}, nil
}
