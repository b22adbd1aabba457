package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pevans/headlines"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/config"
)

// truncate shortens s to width, marking the cut with "...".
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// printHeadlines prints one headline per line, text first.
func printHeadlines(w io.Writer, h *headlines.Headlines) {
	items := h.All()
	if len(items) == 0 {
		fmt.Fprintln(w, "No headlines found.")
		return
	}

	for _, item := range items {
		fmt.Fprintf(w, "%s\n   %s\n", item.Text, item.URL)
	}
	fmt.Fprintf(w, "\n%d headlines\n", len(items))
}

// printSitesTable prints the configured sites.
func printSitesTable(w io.Writer, sites []config.Site) {
	if len(sites) == 0 {
		fmt.Fprintln(w, "No sites configured.")
		return
	}

	fmt.Fprintf(w, "%-24s %-6s %-30s %s\n", "NAME", "TYPE", "SELECTOR", "URL")
	fmt.Fprintln(w, "----------------------------------------------------------------------------------------------------")

	for _, site := range sites {
		kind := "page"
		if site.IsFeed() {
			kind = "feed"
		}
		fmt.Fprintf(w, "%-24s %-6s %-30s %s\n",
			truncate(site.Name, 24),
			kind,
			truncate(site.Selector, 30),
			site.Location(),
		)
	}
}

// printHistoryTable prints archived digests, newest first.
func printHistoryTable(w io.Writer, entries []archive.Entry, total int, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No digests archived yet.")
		return
	}

	fmt.Fprintf(w, "Showing %d of %d digests\n\n", len(entries), total)
	fmt.Fprintf(w, "%-36s %-16s %-6s %-9s %s\n", "ID", "BUILT", "SITES", "HEADLINES", "TITLE")
	fmt.Fprintln(w, "----------------------------------------------------------------------------------------------------")

	for _, entry := range entries {
		fmt.Fprintf(w, "%-36s %-16s %-6d %-9d %s\n",
			entry.DigestID.String(),
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			entry.SiteCount,
			entry.HeadlineCount,
			truncate(entry.Title, 30),
		)
	}
}
