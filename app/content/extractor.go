package content

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Extractor derives a short description from the HTML of an externally
// hosted post, so external entries get list-page summaries just like
// local ones.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if excerpt := strings.TrimSpace(article.Excerpt); excerpt != "" {
		return excerpt, nil
	}

	if strings.TrimSpace(article.TextContent) == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Description derived from article body",
		"title", article.Title,
		"content_length", len(article.TextContent))

	return Excerpt(article.TextContent, DefaultExcerptWords), nil
}
