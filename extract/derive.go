package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// URLDeriver produces the link for an element matched by a site's selector.
// Sites mark up their links differently, so each site supplies its own.
type URLDeriver interface {
	DeriveURL(el *goquery.Selection) (string, error)
}

// DeriverFunc adapts an ordinary function to URLDeriver.
type DeriverFunc func(el *goquery.Selection) (string, error)

// DeriveURL calls f(el).
func (f DeriverFunc) DeriveURL(el *goquery.Selection) (string, error) {
	return f(el)
}

// Scope says where, relative to the matched element, the link attribute is
// read from.
type Scope string

// Supported scopes.
const (
	ScopeSelf    Scope = "self"    // the matched element itself
	ScopeParent  Scope = "parent"  // its direct parent
	ScopeClosest Scope = "closest" // nearest ancestor-or-self carrying the attribute
	ScopeChild   Scope = "child"   // first descendant carrying the attribute
)

// ParseScope converts a configuration value to a Scope. An empty string means
// ScopeSelf.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeSelf:
		return ScopeSelf, nil
	case ScopeParent:
		return ScopeParent, nil
	case ScopeClosest:
		return ScopeClosest, nil
	case ScopeChild:
		return ScopeChild, nil
	default:
		return "", fmt.Errorf("unknown link scope %q: must be self, parent, closest, or child", s)
	}
}

// AttrDeriver reads a URL from an attribute of the matched element or one of
// its relatives, optionally resolving it against a base URL.
type AttrDeriver struct {
	Scope Scope
	Attr  string
	Base  *url.URL
}

// NewAttrDeriver creates an AttrDeriver. attr defaults to "href"; base may be
// empty, in which case attribute values are returned as written.
func NewAttrDeriver(scope Scope, attr, base string) (*AttrDeriver, error) {
	if attr == "" {
		attr = "href"
	}

	d := &AttrDeriver{Scope: scope, Attr: attr}
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("base URL must be absolute: %s", base)
		}
		d.Base = u
	}

	return d, nil
}

// DeriveURL implements URLDeriver.
func (d *AttrDeriver) DeriveURL(el *goquery.Selection) (string, error) {
	target := d.locate(el)

	value, ok := target.Attr(d.Attr)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: no %s attribute in %s scope", ErrNoLink, d.Attr, d.Scope)
	}

	if d.Base == nil {
		return value, nil
	}

	ref, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", value, err)
	}
	return d.Base.ResolveReference(ref).String(), nil
}

func (d *AttrDeriver) locate(el *goquery.Selection) *goquery.Selection {
	withAttr := "[" + d.Attr + "]"

	switch d.Scope {
	case ScopeParent:
		return el.Parent()
	case ScopeClosest:
		return el.Closest(withAttr)
	case ScopeChild:
		return el.Find(withAttr).First()
	default:
		return el
	}
}
