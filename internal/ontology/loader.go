// Package ontology loads clusters, statements and soft patterns from YAML.
//
// Example:
//
//	clusters:
//	  - primary: {id: "GO:0006915"}
//	    lemmas: [apoptosis, programmed cell death]
//	statements:
//	  - id: regulation of apoptosis
//	    terms: [{pattern: regulate}, {id: "GO:0006915"}]
//	patterns:
//	  - lemma: regulate
//	    regex: 'regulat(?:es|ed|ion)'
package ontology

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/curato/internal/model"
)

// ErrInvalidOntology marks structural problems in an ontology file
var ErrInvalidOntology = errors.New("invalid ontology")

var lemmaName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// File is the on-disk layout of an ontology
type File struct {
	Clusters   []ClusterDef   `yaml:"clusters"`
	Statements []StatementDef `yaml:"statements"`
	Patterns   []PatternDef   `yaml:"patterns,omitempty"`
	Regex      string         `yaml:"regex,omitempty"` // Raw soft expression; overrides patterns
}

// TermDef names either an entity (ID) or a soft lemma (Pattern)
type TermDef struct {
	ID      string `yaml:"id,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
	Source  string `yaml:"source,omitempty"`
}

// ClusterDef lists synonymous lemmas for one primary term
type ClusterDef struct {
	Primary TermDef  `yaml:"primary"`
	Lemmas  []string `yaml:"lemmas"`
}

// StatementDef is a relationship template
type StatementDef struct {
	ID    string    `yaml:"id"`
	Terms []TermDef `yaml:"terms"`
}

// PatternDef contributes one named group to the soft expression
type PatternDef struct {
	Lemma string `yaml:"lemma"`
	Regex string `yaml:"regex"`
}

// Load reads an ontology file from path
func Load(path string) (*model.Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ontology: %w", err)
	}
	defer func() { _ = f.Close() }()

	onto, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return onto, nil
}

// Parse decodes and validates an ontology document
func Parse(r io.Reader) (*model.Ontology, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode ontology: %w", err)
	}
	return file.Build()
}

// Build converts the file layout into an Ontology
func (f *File) Build() (*model.Ontology, error) {
	onto := &model.Ontology{}

	for i, c := range f.Clusters {
		primary, err := c.Primary.term()
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", i, err)
		}
		cluster := model.Cluster{Primary: primary}
		for _, lemma := range c.Lemmas {
			lemma = norm.NFC.String(strings.TrimSpace(lemma))
			if lemma == "" {
				return nil, fmt.Errorf("%w: cluster %d has an empty lemma", ErrInvalidOntology, i)
			}
			cluster.Lemmas = append(cluster.Lemmas, lemma)
		}
		onto.Clusters = append(onto.Clusters, cluster)
	}

	seen := make(map[string]bool, len(f.Statements))
	for i, s := range f.Statements {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: statement %d has no id", ErrInvalidOntology, i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: duplicate statement %q", ErrInvalidOntology, s.ID)
		}
		seen[s.ID] = true

		stmt := model.NewStatement(s.ID)
		for _, ts := range s.Terms {
			t, err := ts.term()
			if err != nil {
				return nil, fmt.Errorf("statement %q: %w", s.ID, err)
			}
			stmt.Required = append(stmt.Required, t)
		}
		onto.Statements = append(onto.Statements, stmt)
	}

	regex, err := f.softExpression()
	if err != nil {
		return nil, err
	}
	onto.Regex = regex
	return onto, nil
}

// softExpression joins the pattern definitions into one alternation with a named
// group per lemma, in declaration order
func (f *File) softExpression() (string, error) {
	if f.Regex != "" {
		if _, err := regexp.Compile(f.Regex); err != nil {
			return "", fmt.Errorf("%w: regex: %v", ErrInvalidOntology, err)
		}
		return f.Regex, nil
	}

	parts := make([]string, 0, len(f.Patterns))
	for _, p := range f.Patterns {
		if !lemmaName.MatchString(p.Lemma) {
			return "", fmt.Errorf("%w: pattern lemma %q is not a valid group name", ErrInvalidOntology, p.Lemma)
		}
		if _, err := regexp.Compile(p.Regex); err != nil {
			return "", fmt.Errorf("%w: pattern %q: %v", ErrInvalidOntology, p.Lemma, err)
		}
		parts = append(parts, fmt.Sprintf("(?P<%s>%s)", p.Lemma, p.Regex))
	}
	return strings.Join(parts, "|"), nil
}

func (t TermDef) term() (model.Term, error) {
	switch {
	case t.ID != "" && t.Pattern != "":
		return model.Term{}, fmt.Errorf("%w: term sets both id %q and pattern %q", ErrInvalidOntology, t.ID, t.Pattern)
	case t.ID != "":
		return model.EntityTerm(t.ID), nil
	case t.Pattern != "":
		source := t.Source
		if source == "" {
			source = model.AnnotatorSource
		}
		return model.PatternTerm(t.Pattern, source), nil
	default:
		return model.Term{}, fmt.Errorf("%w: term needs an id or a pattern", ErrInvalidOntology)
	}
}
