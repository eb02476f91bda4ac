// Package recognize turns grounds into candidates by pairing each anchor
// evidence with the nearest evidence for every other required term.
package recognize

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/ppiankov/curato/internal/index"
	"github.com/ppiankov/curato/internal/model"
)

// candidateNamespace scopes deterministic candidate IDs
var candidateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ppiankov/curato/candidate"))

// Recognizer generates candidates against a frozen statement index.
// It holds no mutable state and is safe for concurrent use.
type Recognizer struct {
	statements index.StatementIndex
}

// New indexes statements and returns a Recognizer
func New(statements []model.Statement) *Recognizer {
	return NewFromIndex(index.BuildStatementIndex(statements))
}

// NewFromIndex uses an already built statement index
func NewFromIndex(ix index.StatementIndex) *Recognizer {
	return &Recognizer{statements: ix}
}

// Statements exposes the statement index
func (r *Recognizer) Statements() index.StatementIndex {
	return r.statements
}

// occurrence is an evidence and its position in the grounds
type occurrence struct {
	position int
	evidence model.Evidence
}

// positionIndex lists, per term, where it occurs in insertion order
type positionIndex map[model.Term][]occurrence

func newPositionIndex(evs []model.Evidence) positionIndex {
	pix := make(positionIndex)
	for pos, ev := range evs {
		pix[ev.Term] = append(pix[ev.Term], occurrence{position: pos, evidence: ev})
	}
	return pix
}

// nearest returns the occurrence of term closest to position; ties go to
// the earliest occurrence
func (p positionIndex) nearest(position int, term model.Term) (model.Evidence, bool) {
	occs := p[term]
	if len(occs) == 0 {
		return model.Evidence{}, false
	}

	best := occs[0]
	bestDist := distance(position, best.position)
	for _, o := range occs[1:] {
		if d := distance(position, o.position); d < bestDist {
			best, bestDist = o, d
		}
	}
	return best.evidence, true
}

// nearestEvidences picks the closest evidence for each wanted term, skipping
// terms with no evidence at all, and orders the picks by span
func (p positionIndex) nearestEvidences(position int, wanted []model.Term) []model.Evidence {
	found := make([]model.Evidence, 0, len(wanted))
	for _, t := range wanted {
		if ev, ok := p.nearest(position, t); ok {
			found = append(found, ev)
		}
	}
	model.SortEvidences(found)
	return found
}

// Generate emits one candidate per (anchor evidence, indexed statement) pair,
// in evidence order and then statement index order. Evidences must already be
// sorted by start so that positional and textual nearness agree.
func (r *Recognizer) Generate(g model.Grounds) []model.Candidate {
	if len(g.Evidences) == 0 || r.statements.Len() == 0 {
		return nil
	}

	pix := newPositionIndex(g.Evidences)

	var result []model.Candidate
	for pos, anchor := range g.Evidences {
		if !r.statements.Has(anchor.Term) {
			continue
		}
		for _, stmt := range r.statements.Get(anchor.Term) {
			result = append(result, model.Candidate{
				ID:        candidateID(stmt, g.Sentence, pos),
				Statement: stmt,
				Evidences: pix.nearestEvidences(pos, stmt.Terms()),
				Anchor:    anchor,
				Sentence:  g.Sentence,
			})
		}
	}
	return result
}

func candidateID(stmt model.Statement, s model.Sentence, anchorPos int) string {
	name := stmt.Key() + "\x00" + strconv.Itoa(s.Offset) + "\x00" + strconv.Itoa(anchorPos)
	return uuid.NewSHA1(candidateNamespace, []byte(name)).String()
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
