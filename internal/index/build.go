package index

import "github.com/ppiankov/curato/internal/model"

// TermIndex maps a lemma to the canonical terms of every cluster listing it
type TermIndex = Index[string, model.Term]

// StatementIndex maps a term to the statements anchored on it
type StatementIndex = Index[model.Term, model.Statement]

// BuildTermIndex flattens clusters so every lemma points at its cluster's
// primary term. A lemma shared by several clusters maps to all their primaries.
func BuildTermIndex(clusters []model.Cluster) TermIndex {
	b := NewBuilder[string, model.Term]()
	for _, c := range clusters {
		for _, lemma := range c.Lemmas {
			if lemma == "" {
				continue
			}
			b.Add(lemma, c.Primary)
		}
	}
	return b.Finish()
}

// BuildStatementIndex indexes statements by the terms that may anchor them.
// A statement referencing at least one entity is indexed under its entity
// terms only; a purely soft statement is indexed under every term.
func BuildStatementIndex(statements []model.Statement) StatementIndex {
	b := NewBuilder[model.Term, model.Statement]()
	for _, s := range statements {
		entityOnly := model.HasEntity(s)
		for _, t := range s.Terms() {
			if entityOnly && !t.IsEntity() {
				continue
			}
			b.Add(t, s)
		}
	}
	return b.Finish()
}
