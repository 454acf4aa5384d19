package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Page is a parsed HTML document and the URL it was loaded from.
type Page struct {
	// URL is the final URL of the document, after redirects.
	URL *url.URL

	// Doc is the parsed document.
	Doc *goquery.Document
}

// NewPage parses an HTML document. contentType is the Content-Type header,
// used to pick the character encoding; it may be empty, in which case the
// encoding is sniffed from the document itself.
func NewPage(pageURL string, body io.Reader, contentType string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	r, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect page encoding: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Url = u

	return &Page{URL: u, Doc: doc}, nil
}

// BaseURL returns the URL relative references resolve against: the first
// <base href> when present and valid, the page URL otherwise.
func (p *Page) BaseURL() *url.URL {
	href, ok := p.Doc.Find("base[href]").First().Attr("href")
	if !ok {
		return p.URL
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return p.URL
	}
	return p.URL.ResolveReference(ref)
}

// VisibleText returns the rendered text of <body>.
func (p *Page) VisibleText() string {
	body := p.Doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	return renderText(body.Nodes[0])
}

// InlineScripts returns the bodies of all scripts without a src attribute,
// in document order, joined by newlines. Empty bodies are skipped.
func (p *Page) InlineScripts() string {
	var parts []string
	p.Doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		if code := s.Text(); strings.TrimSpace(code) != "" {
			parts = append(parts, code)
		}
	})
	return strings.Join(parts, "\n")
}

// ScriptURLs returns the external script URLs that share the page's origin,
// resolved, stripped of fragments and deduplicated in document order.
func (p *Page) ScriptURLs() []string {
	base := p.BaseURL()
	seen := make(map[string]bool)
	urls := make([]string, 0)

	p.Doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		resolved := normalizeURL(base.ResolveReference(ref))
		if !isHTTP(resolved) || !SameOrigin(p.URL, resolved) {
			return
		}

		key := resolved.String()
		if seen[key] {
			return
		}
		seen[key] = true
		urls = append(urls, key)
	})

	return urls
}

// Title returns the trimmed document title.
func (p *Page) Title() string {
	return strings.TrimSpace(p.Doc.Find("title").First().Text())
}
