package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pevans/headlines/render"
	"github.com/spf13/cobra"
)

var (
	buildOutput     string
	buildNoArchive  bool
	buildSkipFailed bool
	buildStdout     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch every site and write the digest page",
	Args:  cobra.NoArgs,
	RunE:  buildAction,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default: config output, then news.html)")
	buildCmd.Flags().BoolVar(&buildNoArchive, "no-archive", false, "don't record the digest in the archive")
	buildCmd.Flags().BoolVar(&buildSkipFailed, "skip-failed", false, "leave out sites that fail instead of aborting")
	buildCmd.Flags().BoolVar(&buildStdout, "stdout", false, "write the page to stdout")
	rootCmd.AddCommand(buildCmd)
}

func buildAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr)

	result, err := newBuilder(cfg, logger, buildSkipFailed).Build(cmd.Context())
	if err != nil {
		return err
	}

	output := cfg.Output
	if buildOutput != "" {
		output = buildOutput
	}
	if buildStdout {
		output = "-"
	}

	renderer := render.NewRenderer(render.WithTitle(cfg.Title))
	if err := writePage(output, func(w io.Writer) error {
		return renderer.Write(w, result.Digest)
	}); err != nil {
		return err
	}

	if !buildNoArchive && !cfg.Archive.Disabled {
		store, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		entry, err := store.Save(pageTitle(cfg), result.Digest)
		if err != nil {
			return fmt.Errorf("failed to archive digest: %w", err)
		}
		logger.Debug("archived digest", "id", entry.DigestID)
	}

	if output == "-" {
		return nil
	}

	fmt.Printf("✓ Wrote %s\n", output)
	fmt.Printf("  Sites: %d", result.SitesBuilt)
	if result.SitesFailed > 0 {
		fmt.Printf(" (%d skipped)", result.SitesFailed)
	}
	fmt.Println()
	fmt.Printf("  Headlines: %d\n", result.Digest.HeadlineCount())
	return nil
}
