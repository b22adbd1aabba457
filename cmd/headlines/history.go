package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/render"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
	showOutput   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived digests",
	Args:  cobra.NoArgs,
	RunE:  historyAction,
}

var showCmd = &cobra.Command{
	Use:   "show <digest-id>",
	Short: "Re-render an archived digest",
	Args:  cobra.ExactArgs(1),
	RunE:  showAction,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of digests to list (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print entries as JSON")
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "-", "output file (default: stdout)")
	rootCmd.AddCommand(historyCmd, showCmd)
}

// archiveConfig loads the config file if there is one. The archive commands
// work without it.
func archiveConfig() (*config.FileConfig, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.LoadConfigFile(path)
}

func historyAction(_ *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return errors.New("--limit must not be negative")
	}

	cfg, err := archiveConfig()
	if err != nil {
		return err
	}

	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(historyLimit, 0)
	if err != nil {
		return err
	}
	total, err := store.Count()
	if err != nil {
		return err
	}

	if historyJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	printHistoryTable(os.Stdout, entries, total, time.Now())
	return nil
}

func showAction(_ *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid digest ID: %w", err)
	}

	cfg, err := archiveConfig()
	if err != nil {
		return err
	}

	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(id)
	if errors.Is(err, archive.ErrDigestNotFound) {
		return fmt.Errorf("no digest with ID %s", id)
	}
	if err != nil {
		return err
	}

	renderer := render.NewRenderer(render.WithTitle(entry.Title))
	if err := writePage(showOutput, func(w io.Writer) error {
		return renderer.WriteAt(w, entry.Digest, entry.CreatedAt)
	}); err != nil {
		return err
	}

	if showOutput != "-" {
		fmt.Printf("✓ Wrote %s\n", showOutput)
	}
	return nil
}
