// Package render turns a digest into a static HTML page.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/pevans/headlines"
)

// DefaultTitle is used when no title is configured.
const DefaultTitle = "My News"

// DateLayout formats the date shown in the page heading, e.g. "October 18
// 2026".
const DateLayout = "January 02 2006"

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
    <head>
        <meta charset="UTF-8">
        <title>{{.Title}}</title>
    </head>
    <body>
        <h1>{{.Title}}: {{.Date}}</h1>
{{- range .Sites}}
        <h2> {{.Name}} </h2>
        <ol>
{{- range .Headlines}}
            <li><a href="{{.URL}}">{{.Text}}</a></li>
{{- end}}
        </ol>
{{- end}}
    </body>
</html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))

type pageData struct {
	Title string
	Date  string
	Sites []siteData
}

type siteData struct {
	Name      string
	Headlines []headlines.Headline
}

// Renderer renders digests. It is safe for concurrent use.
type Renderer struct {
	title string
	now   func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTitle sets the page title. An empty title keeps DefaultTitle.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		if title != "" {
			r.title = title
		}
	}
}

// WithClock replaces time.Now as the source of the page date.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		title: DefaultTitle,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the digest as a complete HTML document dated today (local
// time). Sites and headlines appear in digest order.
func (r *Renderer) Render(d *headlines.Digest) (string, error) {
	return r.RenderAt(d, r.now())
}

// RenderAt is like Render but dates the page with date.
func (r *Renderer) RenderAt(d *headlines.Digest, date time.Time) (string, error) {
	var buf bytes.Buffer
	if err := r.WriteAt(&buf, d, date); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write renders the digest dated today to w.
func (r *Renderer) Write(w io.Writer, d *headlines.Digest) error {
	return r.WriteAt(w, d, r.now())
}

// WriteAt renders the digest dated date to w.
func (r *Renderer) WriteAt(w io.Writer, d *headlines.Digest, date time.Time) error {
	data := pageData{
		Title: r.title,
		Date:  date.Local().Format(DateLayout),
		Sites: []siteData{},
	}

	if d != nil {
		for _, s := range d.Sites {
			data.Sites = append(data.Sites, siteData{
				Name:      s.Name,
				Headlines: s.Headlines.All(),
			})
		}
	}

	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
