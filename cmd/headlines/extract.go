package main

import (
	"encoding/json"
	"os"

	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/extract"
	"github.com/spf13/cobra"
)

var (
	extractURL      string
	extractSelector string
	extractFrom     string
	extractAttr     string
	extractBase     string
	extractJSON     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Try a selector against one page and print what it finds",
	Args:  cobra.NoArgs,
	RunE:  extractAction,
}

func init() {
	extractCmd.Flags().StringVar(&extractURL, "url", "", "page to fetch")
	extractCmd.Flags().StringVar(&extractSelector, "selector", "", "CSS selector for headline elements")
	extractCmd.Flags().StringVar(&extractFrom, "from", "", "where the link lives: self, parent, closest, child")
	extractCmd.Flags().StringVar(&extractAttr, "attr", "", "link attribute (default: href)")
	extractCmd.Flags().StringVar(&extractBase, "base", "", "base URL for relative links")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print headlines as JSON")
	_ = extractCmd.MarkFlagRequired("url")
	_ = extractCmd.MarkFlagRequired("selector")
	rootCmd.AddCommand(extractCmd)
}

func extractAction(cmd *cobra.Command, _ []string) error {
	site := config.Site{
		Name:     "extract",
		URL:      extractURL,
		Selector: extractSelector,
		Link: config.LinkRule{
			From: extractFrom,
			Attr: extractAttr,
			Base: extractBase,
		},
	}
	if err := site.Validate(); err != nil {
		return err
	}

	deriver, err := site.Deriver()
	if err != nil {
		return err
	}

	h, err := extract.NewExtractor().Extract(cmd.Context(), site.URL, site.Selector, deriver)
	if err != nil {
		return err
	}

	if extractJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(h)
	}

	printHeadlines(os.Stdout, h)
	return nil
}
