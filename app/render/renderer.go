package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/mpetrie/pressmill/app/content"
)

var (
	absoluteURLPattern = regexp.MustCompile(`^https?://`)
	codepenPattern     = regexp.MustCompile(`^https?://codepen\.io/([^/]+)/pen/([^/?#]+)`)
)

// Renderer compiles markdown into publish-ready HTML: GitHub-flavored
// markdown with syntax-highlighted code blocks, then a post-pass that
// makes headings self-linking, opens absolute links in a new tab,
// replaces lone codepen links with pen embeds, and rewrites images for
// lazy loading with precomputed dimensions.
type Renderer struct {
	markdown goldmark.Markdown
	basePath string
	images   *ImageIndex
}

var _ content.Renderer = (*Renderer)(nil)

// NewRenderer builds a renderer for one content type. assetsDir and
// basePath may be empty when the type has no image assets.
func NewRenderer(assetsDir, basePath string) *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("monokai"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				htmlrenderer.WithUnsafe(),
			),
		),
		basePath: strings.TrimSuffix(basePath, "/"),
		images:   NewImageIndex(assetsDir),
	}
}

// Refresh rescans image asset metadata.
func (r *Renderer) Refresh() error {
	return r.images.Refresh()
}

// Render converts markdown to enriched HTML. When the enrichment pass
// fails the plain conversion is served instead; a broken post-pass should
// degrade the page, not take it down.
func (r *Renderer) Render(markdown, slug string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	plain := buf.String()

	enriched, err := r.enrich(plain, slug)
	if err != nil {
		slog.Warn("HTML enrichment failed, serving plain conversion", "slug", slug, "error", err)
		return plain, nil
	}

	return enriched, nil
}

func (r *Renderer) enrich(rawHTML, slug string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered HTML: %w", err)
	}

	r.embedCodepens(doc)
	r.anchorHeadings(doc)
	r.markExternalLinks(doc)
	r.prepareImages(doc, slug)

	return doc.Find("body").Html()
}

// anchorHeadings wraps each heading's content in a link to its own id so
// readers can grab a fragment URL from any section.
func (r *Renderer) anchorHeadings(doc *goquery.Document) {
	doc.Find("h1[id], h2[id], h3[id], h4[id], h5[id], h6[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		inner, err := s.Html()
		if err != nil {
			return
		}
		s.SetHtml(fmt.Sprintf(`<a href="#%s">%s</a>`, id, inner))
	})
}

func (r *Renderer) markExternalLinks(doc *goquery.Document) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if !absoluteURLPattern.MatchString(s.AttrOr("href", "")) {
			return
		}
		s.SetAttr("target", "_blank")
		s.SetAttr("rel", "noopener noreferrer")
	})
}

// embedCodepens replaces paragraphs consisting of a single codepen pen
// link with the pen's embed markup.
func (r *Renderer) embedCodepens(doc *goquery.Document) {
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		link := s.Children()
		if link.Length() != 1 || goquery.NodeName(link) != "a" {
			return
		}
		if strings.TrimSpace(s.Text()) != strings.TrimSpace(link.Text()) {
			return
		}

		href := link.AttrOr("href", "")
		match := codepenPattern.FindStringSubmatch(href)
		if match == nil {
			return
		}

		s.ReplaceWithHtml(codepenEmbed(href, match[1], match[2]))
	})
}

func codepenEmbed(url, user, penID string) string {
	return fmt.Sprintf(`<div><p class="codepen" data-height="300" data-default-tab="html,result" data-slug-hash="%s" data-user="%s" style="height: 300px; box-sizing: border-box; display: flex; align-items: center; justify-content: center; border: 2px solid; margin: 1em 0; padding: 1em;"><span><a href="%s">See the Pen</a> on <a href="https://codepen.io">CodePen</a>.</span></p></div>`, penID, user, url)
}

// prepareImages rewrites every image for client-side lazy loading: the
// source moves to data-lazy-src and relative sources are resolved under
// the content type's asset base path, with width and height filled from
// the precomputed dimension index so the page reserves space up front.
func (r *Renderer) prepareImages(doc *goquery.Document, slug string) {
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")

		if !absoluteURLPattern.MatchString(src) {
			cleaned := strings.TrimPrefix(src, "./")
			if dims, ok := r.images.Lookup(slug, cleaned); ok {
				s.SetAttr("width", strconv.Itoa(dims.Width))
				s.SetAttr("height", strconv.Itoa(dims.Height))
			} else {
				slog.Warn("No dimensions for image, rendering without size attributes", "slug", slug, "image", cleaned)
			}
			src = r.basePath + "/" + slug + "/" + cleaned
		}

		s.SetAttr("data-lazy-src", src)
		s.RemoveAttr("src")
		s.AddClass("transition-opacity", "opacity-0", "mx-auto", "block")
	})
}
