// Package corpus turns files and fetched pages into sentences.
package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/curato/internal/model"
)

// ErrUnsupportedFormat is returned by Open for unknown extensions
var ErrUnsupportedFormat = errors.New("unsupported corpus format")

const maxLineBytes = 4 << 20

// Format names a corpus encoding
type Format string

const (
	FormatText  Format = "txt"
	FormatJSONL Format = "jsonl"
	FormatHTML  Format = "html"
)

// DetectFormat picks a format from a file name or URL path
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text", "":
		return FormatText, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".html", ".htm", ".xhtml":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Read decodes r according to format
func Read(r io.Reader, format Format) (model.Corpus, error) {
	switch format {
	case FormatText:
		return ReadLines(r)
	case FormatJSONL:
		return ReadJSONL(r)
	case FormatHTML:
		return ReadHTML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Open reads a corpus file, choosing the decoder by extension
func Open(path string) (model.Corpus, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	corpus, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return corpus, nil
}

// ReadLines treats every non-blank line as a sentence. The offset is the
// byte position of the line in the input; a trailing \r is dropped.
func ReadLines(r io.Reader) (model.Corpus, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	var (
		corpus model.Corpus
		offset int
	)

	for {
		line, err := br.ReadString('\n')
		if len(line) > maxLineBytes {
			return nil, fmt.Errorf("line at offset %d exceeds %d bytes", offset, maxLineBytes)
		}
		if line != "" {
			text := strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(text) != "" {
				corpus = append(corpus, model.Sentence{Text: text, Offset: offset})
			}
			offset += len(line)
		}
		if errors.Is(err, io.EOF) {
			return corpus, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read line: %w", err)
		}
	}
}

type jsonSentence struct {
	Text   string `json:"text"`
	Offset *int   `json:"offset,omitempty"`
}

// ReadJSONL decodes one {"text": ..., "offset": ...} object per line.
// A missing offset continues from the end of the previous sentence.
func ReadJSONL(r io.Reader) (model.Corpus, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)

	var (
		corpus model.Corpus
		next   int
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var js jsonSentence
		if err := json.Unmarshal([]byte(raw), &js); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		offset := next
		if js.Offset != nil {
			if *js.Offset < 0 {
				return nil, fmt.Errorf("line %d: negative offset %d", lineNo, *js.Offset)
			}
			offset = *js.Offset
		}
		s := model.Sentence{Text: js.Text, Offset: offset}
		corpus = append(corpus, s)
		next = s.End() + 1
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return corpus, nil
}
