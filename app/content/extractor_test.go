package content

import (
	"strings"
	"testing"
)

func TestExtractor_Run_UsesMetaDescription(t *testing.T) {
	extractor := NewExtractor()

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Test Article</title>
		<meta name="description" content="A handwritten summary of the article.">
	</head>
	<body>
		<article>
			<h1>Main Article Title</h1>
			<p>This is the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
			<p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
		</article>
	</body>
	</html>
	`

	description, err := extractor.Run([]byte(htmlContent))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if description != "A handwritten summary of the article." {
		t.Errorf("Expected meta description, got '%s'", description)
	}
}

func TestExtractor_Run_FallsBackToBodyExcerpt(t *testing.T) {
	extractor := NewExtractor()

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head><title>Test Article</title></head>
	<body>
		<article>
			<h1>Main Article Title</h1>
			<p>This is the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
			<p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
			<p>Here is some more substantial content to ensure we meet the character threshold. This paragraph adds more context and information that would be valuable to readers.</p>
		</article>
	</body>
	</html>
	`

	description, err := extractor.Run([]byte(htmlContent))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(description, "main content of the article") {
		t.Errorf("Expected description derived from article body, got '%s'", description)
	}
}

func TestExtractor_Run_EmptyInput(t *testing.T) {
	extractor := NewExtractor()

	if _, err := extractor.Run(nil); err == nil {
		t.Error("Expected error for empty input")
	}
}
