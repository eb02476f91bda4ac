package model

import "time"

// Report is the rendered output of one corpus run
type Report struct {
	Source      string            `json:"source"`       // Corpus path or URL
	GeneratedAt time.Time         `json:"generated_at"` // When the run finished
	Stats       Stats             `json:"stats"`
	Candidates  []CandidateRecord `json:"candidates"`
}

// Stats counts what a run saw and produced
type Stats struct {
	Sentences  int `json:"sentences"`
	Evidences  int `json:"evidences"`
	Candidates int `json:"candidates"`
}

// Add accumulates another run's counts
func (s *Stats) Add(o Stats) {
	s.Sentences += o.Sentences
	s.Evidences += o.Evidences
	s.Candidates += o.Candidates
}

// CandidateRecord is the serializable view of a Candidate
type CandidateRecord struct {
	ID        string           `json:"id"`
	Statement string           `json:"statement"`
	Terms     []string         `json:"terms"`
	Anchor    EvidenceRecord   `json:"anchor"`
	Evidences []EvidenceRecord `json:"evidences"`
	Sentence  Sentence         `json:"sentence"`
}

// EvidenceRecord is the serializable view of an Evidence
type EvidenceRecord struct {
	Term  string `json:"term"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// NewEvidenceRecord flattens an Evidence for output
func NewEvidenceRecord(e Evidence) EvidenceRecord {
	return EvidenceRecord{
		Term:  e.Term.String(),
		Kind:  e.Term.Kind.String(),
		Text:  e.Text,
		Start: e.Start,
		End:   e.End,
	}
}

// NewCandidateRecord flattens a Candidate for output
func NewCandidateRecord(c Candidate) CandidateRecord {
	rec := CandidateRecord{
		ID:        c.ID,
		Anchor:    NewEvidenceRecord(c.Anchor),
		Evidences: make([]EvidenceRecord, 0, len(c.Evidences)),
		Sentence:  c.Sentence,
	}
	if c.Statement != nil {
		rec.Statement = c.Statement.Key()
		for _, t := range c.Statement.Terms() {
			rec.Terms = append(rec.Terms, t.String())
		}
	}
	for _, e := range c.Evidences {
		rec.Evidences = append(rec.Evidences, NewEvidenceRecord(e))
	}
	return rec
}
