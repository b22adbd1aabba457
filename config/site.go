package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pevans/headlines/extract"
)

// Site describes one source of headlines. A site is either a page scraped
// with Selector and Link, or a Feed.
type Site struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url,omitempty"`
	Selector string   `yaml:"selector,omitempty"`
	Link     LinkRule `yaml:"link,omitempty"`
	Feed     string   `yaml:"feed,omitempty"`
}

// LinkRule says how to find the URL for a matched element. From is one of
// self, parent, closest, or child (default self); Attr defaults to href;
// Base, when set, resolves relative links.
type LinkRule struct {
	From string `yaml:"from,omitempty"`
	Attr string `yaml:"attr,omitempty"`
	Base string `yaml:"base,omitempty"`
}

// IsFeed reports whether the site is read as an RSS or Atom feed.
func (s Site) IsFeed() bool {
	return s.Feed != ""
}

// Location returns the URL fetched for the site.
func (s Site) Location() string {
	if s.IsFeed() {
		return s.Feed
	}
	return s.URL
}

// Validate checks a single site definition.
func (s Site) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}

	switch {
	case s.URL != "" && s.Feed != "":
		return fmt.Errorf("%s: url and feed are mutually exclusive", s.Name)
	case s.URL == "" && s.Feed == "":
		return fmt.Errorf("%s: one of url or feed is required", s.Name)
	}

	if err := validateHTTPURL(s.Location()); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}

	if s.IsFeed() {
		return nil
	}

	if strings.TrimSpace(s.Selector) == "" {
		return fmt.Errorf("%s: selector is required", s.Name)
	}
	if _, err := s.Deriver(); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}

	return nil
}

// Deriver builds the URL-derivation strategy described by the site's link
// rule.
func (s Site) Deriver() (extract.URLDeriver, error) {
	scope, err := extract.ParseScope(s.Link.From)
	if err != nil {
		return nil, err
	}
	d, err := extract.NewAttrDeriver(scope, s.Link.Attr, s.Link.Base)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", raw)
	}
	return nil
}
