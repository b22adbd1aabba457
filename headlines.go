package headlines

import (
	"encoding/json"
	"fmt"
)

// Headline is a single piece of link text and the URL it points to.
type Headline struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Headlines is an ordered mapping from headline text to URL. Setting a text
// that is already present replaces its URL but keeps its original position.
// The zero value is ready to use.
type Headlines struct {
	items []Headline
	index map[string]int
}

// NewHeadlines creates an empty headline mapping.
func NewHeadlines() *Headlines {
	return &Headlines{index: make(map[string]int)}
}

// Set records the URL for the given text. A later Set for the same text
// overwrites the earlier URL.
func (h *Headlines) Set(text, url string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}

	if i, ok := h.index[text]; ok {
		h.items[i].URL = url
		return
	}

	h.index[text] = len(h.items)
	h.items = append(h.items, Headline{Text: text, URL: url})
}

// Get returns the URL recorded for text.
func (h *Headlines) Get(text string) (string, bool) {
	if h == nil {
		return "", false
	}
	i, ok := h.index[text]
	if !ok {
		return "", false
	}
	return h.items[i].URL, true
}

// Len returns the number of distinct headlines.
func (h *Headlines) Len() int {
	if h == nil {
		return 0
	}
	return len(h.items)
}

// All returns a copy of the headlines in insertion order.
func (h *Headlines) All() []Headline {
	if h == nil {
		return []Headline{}
	}
	out := make([]Headline, len(h.items))
	copy(out, h.items)
	return out
}

// MarshalJSON encodes the mapping as an ordered array of headlines.
func (h *Headlines) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.All())
}

// UnmarshalJSON decodes an ordered array of headlines, applying the same
// overwrite rule as Set.
func (h *Headlines) UnmarshalJSON(data []byte) error {
	var items []Headline
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal headlines: %w", err)
	}

	h.items = nil
	h.index = make(map[string]int, len(items))
	for _, item := range items {
		h.Set(item.Text, item.URL)
	}
	return nil
}

// SiteHeadlines pairs a site name with the headlines extracted from it.
type SiteHeadlines struct {
	Name      string     `json:"name"`
	Headlines *Headlines `json:"headlines"`
}

// Digest is the full set of headlines for one run, grouped by site. Sites
// keep the order in which they were added.
type Digest struct {
	Sites []SiteHeadlines `json:"sites"`
}

// NewDigest creates an empty digest.
func NewDigest() *Digest {
	return &Digest{Sites: []SiteHeadlines{}}
}

// Add appends the headlines for a site. Adding a name that is already present
// replaces that site's headlines in place.
func (d *Digest) Add(name string, h *Headlines) {
	if h == nil {
		h = NewHeadlines()
	}

	for i := range d.Sites {
		if d.Sites[i].Name == name {
			d.Sites[i].Headlines = h
			return
		}
	}

	d.Sites = append(d.Sites, SiteHeadlines{Name: name, Headlines: h})
}

// Site returns the headlines recorded for the named site.
func (d *Digest) Site(name string) (*Headlines, bool) {
	for _, s := range d.Sites {
		if s.Name == name {
			return s.Headlines, true
		}
	}
	return nil, false
}

// HeadlineCount returns the total number of headlines across all sites.
func (d *Digest) HeadlineCount() int {
	total := 0
	for _, s := range d.Sites {
		total += s.Headlines.Len()
	}
	return total
}
