package model

// Statement is an ontology relationship template over an ordered list of
// required terms. Implementations must be comparable (pointer types are
// fine) because statements are stored in sets.
type Statement interface {
	// Key identifies the statement for rendering and candidate identity
	Key() string
	// Terms returns the required terms in declared order; duplicates allowed
	Terms() []Term
}

// BasicStatement is the Statement loaded from ontology files
type BasicStatement struct {
	ID       string
	Required []Term
}

// NewStatement creates a statement with the given required terms
func NewStatement(id string, terms ...Term) *BasicStatement {
	return &BasicStatement{ID: id, Required: terms}
}

func (s *BasicStatement) Key() string { return s.ID }

func (s *BasicStatement) Terms() []Term { return s.Required }

// HasEntity reports whether s references at least one entity term
func HasEntity(s Statement) bool {
	for _, t := range s.Terms() {
		if t.IsEntity() {
			return true
		}
	}
	return false
}

// Ontology is everything the candidate finder needs from an ontology
type Ontology struct {
	Clusters   []Cluster
	Statements []Statement
	Regex      string // Soft-match expression with one named group per lemma
}
