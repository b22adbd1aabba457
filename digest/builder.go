// Package digest drives a build: it extracts headlines from every configured
// site, in order, and collects them into one digest.
package digest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pevans/headlines"
	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/extract"
)

// PageExtractor extracts headlines from a web page.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL, selector string, deriver extract.URLDeriver) (*headlines.Headlines, error)
}

// FeedReader extracts headlines from an RSS or Atom feed.
type FeedReader interface {
	Read(ctx context.Context, feedURL string) (*headlines.Headlines, error)
}

// Ensure the extract package types satisfy the driver's interfaces.
var (
	_ PageExtractor = (*extract.Extractor)(nil)
	_ FeedReader    = (*extract.FeedReader)(nil)
)

// SiteError describes a site that could not be extracted.
type SiteError struct {
	Site config.Site
	Err  error
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Site.Name, e.Err)
}

func (e *SiteError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a build.
type Result struct {
	Digest      *headlines.Digest
	SitesBuilt  int
	SitesFailed int
	Errors      []SiteError
	Duration    time.Duration
}

// Builder runs the extractor over a list of sites. Sites are fetched one at a
// time in the order given.
type Builder struct {
	sites      []config.Site
	pages      PageExtractor
	feeds      FeedReader
	logger     *log.Logger
	skipFailed bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for build progress. Builders are silent by
// default.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSkipFailed makes the builder log failing sites and carry on instead of
// aborting the build.
func WithSkipFailed(skip bool) Option {
	return func(b *Builder) {
		b.skipFailed = skip
	}
}

// NewBuilder creates a Builder for sites.
func NewBuilder(sites []config.Site, pages PageExtractor, feeds FeedReader, opts ...Option) *Builder {
	b := &Builder{
		sites:  sites,
		pages:  pages,
		feeds:  feeds,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sites returns the sites the builder visits.
func (b *Builder) Sites() []config.Site {
	return b.sites
}

// Build extracts every site and returns the collected digest. The first site
// failure aborts the build unless the builder skips failed sites.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	begin := time.Now()
	result := &Result{Digest: headlines.NewDigest()}

	for _, site := range b.sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		siteBegin := time.Now()
		h, err := b.extractSite(ctx, site)
		if err != nil {
			siteErr := SiteError{Site: site, Err: err}
			if !b.skipFailed {
				return nil, &siteErr
			}

			b.logger.Warn("skipping site", "site", site.Name, "url", site.Location(), "err", err)
			result.SitesFailed++
			result.Errors = append(result.Errors, siteErr)
			continue
		}

		b.logger.Debug("extracted site",
			"site", site.Name,
			"url", site.Location(),
			"headlines", h.Len(),
			"duration", time.Since(siteBegin),
		)

		result.Digest.Add(site.Name, h)
		result.SitesBuilt++
	}

	result.Duration = time.Since(begin)
	b.logger.Info("digest built",
		"sites", result.SitesBuilt,
		"failed", result.SitesFailed,
		"headlines", result.Digest.HeadlineCount(),
		"duration", result.Duration,
	)

	return result, nil
}

func (b *Builder) extractSite(ctx context.Context, site config.Site) (*headlines.Headlines, error) {
	if site.IsFeed() {
		return b.feeds.Read(ctx, site.Feed)
	}

	deriver, err := site.Deriver()
	if err != nil {
		return nil, err
	}
	return b.pages.Extract(ctx, site.URL, site.Selector, deriver)
}
