package corpus

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/curato/internal/model"
)

// blockSeparator joins block texts when computing offsets
const blockSeparator = "\n"

var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"head": true, "template": true, "svg": true,
}

var blocks = map[string]bool{
	"p": true, "li": true, "td": true, "th": true, "dd": true, "dt": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "figcaption": true, "caption": true,
	"div": true, "section": true, "article": true, "body": true,
}

// ReadHTML collects the visible text of every block element as a sentence.
// Offsets are positions in the page text formed by joining the blocks with
// a newline.
func ReadHTML(r io.Reader) (model.Corpus, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return sentencesFromHTML(doc), nil
}

func sentencesFromHTML(doc *html.Node) model.Corpus {
	var (
		corpus model.Corpus
		offset int
		buf    strings.Builder
	)

	flush := func() {
		text := strings.Join(strings.Fields(buf.String()), " ")
		buf.Reset()
		if text == "" {
			return
		}
		corpus = append(corpus, model.Sentence{Text: text, Offset: offset})
		offset += len(text) + len(blockSeparator)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped[n.Data] {
				return
			}
			if n.Data == "br" {
				buf.WriteByte(' ')
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		isBlock := n.Type == html.ElementNode && blocks[n.Data]
		if isBlock {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if isBlock {
			flush()
		}
	}

	walk(doc)
	flush()
	return corpus
}
