package model

import "fmt"

// TermKind discriminates the two vocabularies a Term can come from
type TermKind uint8

const (
	KindEntity  TermKind = iota + 1 // Ontology concept (e.g., GO:0006915)
	KindPattern                     // Regex-derived soft tag
)

func (k TermKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// AnnotatorSource is the provenance recorded on pattern terms produced by the soft extractor
const AnnotatorSource = "annotator"

// Term is a vocabulary item. It is a comparable value and is used directly as a map key.
//
// For entities ID holds the concept identifier and Source is empty.
// For patterns ID holds the lemma tag and Source the provenance marker.
type Term struct {
	Kind   TermKind `json:"kind" yaml:"kind"`
	ID     string   `json:"id" yaml:"id"`
	Source string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// EntityTerm returns the entity term for an ontology concept
func EntityTerm(id string) Term {
	return Term{Kind: KindEntity, ID: id}
}

// PatternTerm returns a soft term for a lemma tag
func PatternTerm(lemma, source string) Term {
	return Term{Kind: KindPattern, ID: lemma, Source: source}
}

// IsEntity reports whether t names an ontology concept
func (t Term) IsEntity() bool {
	return t.Kind == KindEntity
}

func (t Term) String() string {
	if t.Kind == KindPattern {
		if t.Source == "" {
			return "pattern:" + t.ID
		}
		return fmt.Sprintf("pattern:%s@%s", t.ID, t.Source)
	}
	return t.ID
}

// Cluster groups synonymous lemmas under one canonical term
type Cluster struct {
	Primary Term
	Lemmas  []string
}
