package content

import (
	"net/url"
	"regexp"
	"strings"
)

var datePrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// DeriveSlug extracts the URL slug from a source file or directory name:
// a leading YYYY-MM-DD- date prefix is stripped, as is a trailing /index.md
// (directory items) or markdown extension.
//
//	DeriveSlug("2024-01-05-my-post.md")       => "my-post"
//	DeriveSlug("2024-01-05-my-post/index.md") => "my-post"
func DeriveSlug(name string) string {
	name = strings.TrimSuffix(name, "/index.md")
	name = strings.TrimSuffix(name, ".mdx")
	name = strings.TrimSuffix(name, ".md")
	return datePrefixPattern.ReplaceAllString(name, "")
}

// DeriveDatePrefix returns the YYYY-MM-DD date embedded in a source file
// name, or the empty string when the name carries no date prefix.
func DeriveDatePrefix(name string) string {
	match := datePrefixPattern.FindString(name)
	return strings.TrimSuffix(match, "-")
}

// DeriveHost extracts the host from an external URL, with any leading
// "www." label stripped. Scheme-less values like "example.com/post" are
// reparsed with an assumed https scheme. Returns the empty string for
// unparseable URLs.
func DeriveHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	if parsed.Hostname() == "" {
		parsed, err = url.Parse("https://" + rawURL)
		if err != nil {
			return ""
		}
	}

	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
