package model

// Sentence is a piece of text located at Offset bytes into a larger document
type Sentence struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// End returns the absolute offset just past the sentence
func (s Sentence) End() int {
	return s.Offset + len(s.Text)
}

// Grounds pairs the evidence found in a sentence with that sentence.
// Evidences are ordered by start offset.
type Grounds struct {
	Evidences []Evidence
	Sentence  Sentence
}

// Candidate is a statement instantiated against the nearest evidence in one sentence
type Candidate struct {
	ID        string    // Deterministic identifier (statement, sentence, anchor)
	Statement Statement // The relationship template
	Evidences []Evidence
	Anchor    Evidence // Evidence that triggered generation
	Sentence  Sentence
}

// Corpus is an ordered sequence of sentences
type Corpus []Sentence
