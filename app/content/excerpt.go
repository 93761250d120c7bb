package content

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// DefaultExcerptWords bounds excerpt length when a content type does
	// not configure its own limit.
	DefaultExcerptWords = 50

	truncationMarker = "..."
)

var excerptMarkdown = goldmark.New()

// PlainText strips all markdown formatting from the source, dropping
// image references entirely (not replaced with alt text) and collapsing
// all whitespace runs to single spaces.
func PlainText(markdown string) string {
	source := []byte(markdown)
	reader := text.NewReader(source)
	doc := excerptMarkdown.Parser().Parse(reader)

	var b strings.Builder

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(n.Segment.Value(source))
			b.WriteByte(' ')
		case *ast.AutoLink:
			b.Write(n.URL(source))
			b.WriteByte(' ')
		case *ast.CodeBlock:
			writeCodeLines(&b, n.BaseBlock, source)
		case *ast.FencedCodeBlock:
			writeCodeLines(&b, n.BaseBlock, source)
		case *ast.CodeSpan:
			// Children are plain text nodes, handled above.
		}

		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

func writeCodeLines(b *strings.Builder, block ast.BaseBlock, source []byte) {
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(source))
		b.WriteByte(' ')
	}
}

// Excerpt derives a short plain-text summary from markdown: the first
// wordCount words of the stripped text, joined with single spaces, with a
// truncation marker appended. The marker is appended unconditionally,
// matching observed upstream behavior for short posts.
func Excerpt(markdown string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultExcerptWords
	}

	words := strings.Fields(PlainText(markdown))
	if len(words) > wordCount {
		words = words[:wordCount]
	}

	return strings.Join(words, " ") + truncationMarker
}
