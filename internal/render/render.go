// Package render writes candidate reports as JSON or Markdown.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/curato/internal/model"
)

// ErrUnknownFormat is returned for output formats other than json and md
var ErrUnknownFormat = errors.New("unknown output format")

const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// NewReport builds a report from a run. With dedupe set, candidates with the
// same statement and evidence spans are kept once.
func NewReport(source string, cands []model.Candidate, stats model.Stats, dedupe bool) *model.Report {
	report := &model.Report{
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Stats:       stats,
		Candidates:  make([]model.CandidateRecord, 0, len(cands)),
	}
	for _, c := range cands {
		report.Candidates = append(report.Candidates, model.NewCandidateRecord(c))
	}
	if dedupe {
		report.Candidates = Dedupe(report.Candidates)
	}
	return report
}

// Dedupe drops records whose statement and evidence spans were already seen,
// keeping first occurrences in order
func Dedupe(records []model.CandidateRecord) []model.CandidateRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, r := range records {
		key := dedupeKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func dedupeKey(r model.CandidateRecord) string {
	var b strings.Builder
	b.WriteString(r.Statement)
	for _, e := range r.Evidences {
		b.WriteByte(0)
		b.WriteString(e.Term)
		b.WriteByte('@')
		b.WriteString(strconv.Itoa(e.Start))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.End))
	}
	return b.String()
}

// Write renders report in the named format
func Write(w io.Writer, format string, report *model.Report) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return WriteJSON(w, report)
	case FormatMarkdown, "markdown":
		return WriteMarkdown(w, report)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteJSON writes report as indented JSON
func WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteMarkdown writes report as a Markdown table
func WriteMarkdown(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Candidates: %s\n\n", report.Source)
	fmt.Fprintf(&b, "Generated %s\n\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Sentences: %d\n- Evidences: %d\n- Candidates: %d\n\n",
		report.Stats.Sentences, report.Stats.Evidences, report.Stats.Candidates)

	if len(report.Candidates) == 0 {
		b.WriteString("No candidates found.\n")
	} else {
		b.WriteString("| # | Statement | Evidence | Sentence |\n")
		b.WriteString("|---|---|---|---|\n")
		for i, c := range report.Candidates {
			evs := make([]string, 0, len(c.Evidences))
			for _, e := range c.Evidences {
				evs = append(evs, fmt.Sprintf("`%s` %s [%d,%d)", e.Text, e.Term, e.Start, e.End))
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
				i+1, escapeCell(c.Statement), escapeCell(strings.Join(evs, "<br>")), escapeCell(c.Sentence.Text))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// WriteFile renders report to path, picking the format from the extension
// when format is empty
func WriteFile(path, format string, report *model.Report) (err error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return Write(f, format, report)
}

// FormatFromPath maps .md and .markdown to Markdown, anything else to JSON
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

// Summary prints a one-line overview of report
func Summary(w io.Writer, report *model.Report) {
	_, _ = fmt.Fprintf(w, "%s: %d sentences, %d evidences, %d candidates\n",
		report.Source, report.Stats.Sentences, report.Stats.Evidences, len(report.Candidates))
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
