package main

import (
	"os"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the configured sites",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printSitesTable(os.Stdout, cfg.Sites)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
