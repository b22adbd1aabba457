// Package extract fetches web pages and turns the elements matched by a CSS
// selector into a headline mapping.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pevans/headlines"
)

// DefaultUserAgent is a desktop browser identity. Some sites refuse requests
// that do not look like they come from a browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/70.0.3538.102 Safari/537.36"

// Errors returned by the extractor.
var (
	ErrFetch       = errors.New("fetch failed")
	ErrSelector    = errors.New("invalid selector")
	ErrMissingText = errors.New("matched element has no child text")
	ErrNoLink      = errors.New("no link found for element")
)

// Extractor fetches pages and extracts headlines from them. It holds no state
// beyond its HTTP client and is safe for concurrent use.
type Extractor struct {
	client    *http.Client
	userAgent string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) Option {
	return func(e *Extractor) {
		e.client = client
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithTimeout bounds each request. There is no timeout by default.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.client = &http.Client{Timeout: d}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches pageURL and returns a mapping from the text of each element
// matching selector to the URL the deriver produces for it. Elements are
// visited in document order, so when two share the same text the later one
// wins. A selector that matches nothing yields an empty mapping.
func (e *Extractor) Extract(ctx context.Context, pageURL, selector string, deriver URLDeriver) (*headlines.Headlines, error) {
	// Compile first so a bad selector doesn't cost a request
	matcher, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}

	doc, err := e.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return extractMatches(doc.FindMatcher(matcher), deriver)
}

// ExtractDocument runs the selection step of Extract against a document that
// has already been parsed.
func ExtractDocument(doc *goquery.Document, selector string, deriver URLDeriver) (*headlines.Headlines, error) {
	matcher, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	return extractMatches(doc.FindMatcher(matcher), deriver)
}

// FetchHTML fetches the page at pageURL and parses it as HTML. Any response
// outside the 2xx range is an error.
func (e *Extractor) FetchHTML(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch URL: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP error: %s", ErrFetch, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %w", ErrFetch, err)
	}

	return doc, nil
}

// compileSelector reports syntax errors that goquery.Find would otherwise
// swallow by matching nothing.
func compileSelector(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSelector, selector, err)
	}
	return sel, nil
}

func extractMatches(matches *goquery.Selection, deriver URLDeriver) (*headlines.Headlines, error) {
	result := headlines.NewHeadlines()

	for i := 0; i < matches.Length(); i++ {
		el := matches.Eq(i)

		// The key is the first child node only, not the element's full text
		first := el.Contents().First()
		if first.Length() == 0 {
			html, _ := goquery.OuterHtml(el)
			return nil, fmt.Errorf("%w: %s", ErrMissingText, html)
		}
		text := first.Text()

		url, err := deriver.DeriveURL(el)
		if err != nil {
			return nil, fmt.Errorf("failed to derive URL for %q: %w", text, err)
		}

		result.Set(text, url)
	}

	return result, nil
}
