package html

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// boilerplate lists elements removed before content selection.
const boilerplate = "script, style, nav, header, footer, aside, form, iframe, noscript, svg, button"

// minParagraphChars is the length a paragraph must exceed to be kept
// by the last-resort paragraph scan.
const minParagraphChars = 50

// Pre-compiled regular expressions for content selection and cleanup.
var (
	contentClass  = regexp.MustCompile(`(?i)(content|article|post|entry)`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
	multiSpaces   = regexp.MustCompile(` {2,}`)
)

// Normaliser handles HTML article pages.
type Normaliser struct {
	minChars          int
	minSelectionChars int
}

// Option configures the HTML normaliser.
type Option func(*Normaliser)

// WithMinChars sets the minimum extracted length worth indexing.
func WithMinChars(n int) Option {
	return func(nz *Normaliser) {
		if n >= 0 {
			nz.minChars = n
		}
	}
}

// WithMinSelectionChars sets the length below which content selection
// falls through to the next strategy.
func WithMinSelectionChars(n int) Option {
	return func(nz *Normaliser) {
		if n >= 0 {
			nz.minSelectionChars = n
		}
	}
}

// New creates a new HTML normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		minChars:          domain.DefaultMinArticleChars,
		minSelectionChars: domain.DefaultMinSelectionChars,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.MIMETypeHTML, "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the article title and body from a fetched page.
// raw.URI must be the page URL; it determines the attribution domain.
// Pages yielding fewer than the minimum characters return
// domain.ErrInsufficientContent.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", domain.ErrExtraction, err)
	}

	title := extractTitle(page)
	page.Find(boilerplate).Remove()
	text := cleanText(n.selectContent(page))

	if utf8.RuneCountInString(text) < n.minChars {
		return nil, fmt.Errorf("%w: %d characters extracted from %s",
			domain.ErrInsufficientContent, utf8.RuneCountInString(text), raw.URI)
	}

	host := Domain(raw.URI)
	metadata := copyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["mime_type"] = domain.MIMETypeHTML
	metadata["domain"] = host
	metadata["url"] = raw.URI

	return &driven.NormaliseResult{
		Document: domain.Document{
			SourceName: domain.ArticleSourceName(title, host),
			SourceType: domain.SourceTypeArticle,
			URI:        raw.URI,
			Title:      title,
			Content:    text,
			Metadata:   metadata,
		},
	}, nil
}

// extractTitle prefers the Open Graph title, then <title>, then the first <h1>.
func extractTitle(page *goquery.Document) string {
	title := strings.TrimSpace(page.Find("title").First().Text())
	if og, ok := page.Find(`meta[property="og:title"]`).First().Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}
	if title == "" {
		title = joinText(page.Find("h1").First(), "")
	}
	return title
}

// selectContent returns the main body text using, in order: the first
// <article>; <main> or a content-like div; all substantial paragraphs.
func (n *Normaliser) selectContent(page *goquery.Document) string {
	var text string

	if article := page.Find("article").First(); article.Length() > 0 {
		text = joinText(article, "\n")
	}

	if utf8.RuneCountInString(text) < n.minSelectionChars {
		main := page.Find("main").First()
		if main.Length() == 0 {
			main = page.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
				class, _ := s.Attr("class")
				for _, c := range strings.Fields(class) {
					if contentClass.MatchString(c) {
						return true
					}
				}
				return false
			}).First()
		}
		if main.Length() > 0 {
			text = joinText(main, "\n")
		}
	}

	if utf8.RuneCountInString(text) < n.minSelectionChars {
		if body := page.Find("body").First(); body.Length() > 0 {
			var paragraphs []string
			body.Find("p").Each(func(_ int, p *goquery.Selection) {
				if t := joinText(p, ""); utf8.RuneCountInString(t) > minParagraphChars {
					paragraphs = append(paragraphs, t)
				}
			})
			text = strings.Join(paragraphs, "\n\n")
		}
	}

	return text
}

// joinText collects every descendant text node, trimmed and non-empty,
// joined with sep.
func joinText(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
	return strings.Join(parts, sep)
}

// cleanText collapses blank-line runs and repeated spaces.
func cleanText(text string) string {
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	text = multiSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Domain returns the URL host without a leading "www.".
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
