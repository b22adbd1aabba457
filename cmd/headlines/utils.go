package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/config"
	"github.com/pevans/headlines/digest"
	"github.com/pevans/headlines/extract"
	"github.com/pevans/headlines/render"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// resolveConfigPath picks the config file from --config, then
// HEADLINES_CONFIG, then the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	if path := os.Getenv("HEADLINES_CONFIG"); path != "" {
		return path, nil
	}
	return config.DefaultConfigPath()
}

// loadConfig loads and validates the config file. A missing file is an error
// here since there is nothing to build without sites.
func loadConfig() (*config.FileConfig, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config file found at %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// openArchive opens the archive database, creating its directory if needed.
// HEADLINES_ARCHIVE_DSN overrides the configured location.
func openArchive(cfg *config.FileConfig) (*archive.Store, error) {
	dsn := config.DefaultArchiveDSN
	if cfg != nil && cfg.Archive.DSN != "" {
		dsn = cfg.Archive.DSN
	}
	dsn = getEnv("HEADLINES_ARCHIVE_DSN", dsn)

	path, err := config.ExpandPath(dsn)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	store, err := archive.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return store, nil
}

// newLogger returns the stderr logger shared by the commands.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "headlines",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// extractorOptions turns the fetch settings of cfg into extractor options.
func extractorOptions(cfg *config.FileConfig) []extract.Option {
	var opts []extract.Option
	if cfg.UserAgent != "" {
		opts = append(opts, extract.WithUserAgent(cfg.UserAgent))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, extract.WithTimeout(cfg.Timeout))
	}
	return opts
}

// newBuilder wires a digest builder for the configured sites.
func newBuilder(cfg *config.FileConfig, logger *log.Logger, skipFailed bool) *digest.Builder {
	opts := extractorOptions(cfg)
	return digest.NewBuilder(
		cfg.Sites,
		extract.NewExtractor(opts...),
		extract.NewFeedReader(opts...),
		digest.WithLogger(logger),
		digest.WithSkipFailed(skipFailed),
	)
}

// pageTitle is the title used for rendered and archived digests.
func pageTitle(cfg *config.FileConfig) string {
	if cfg != nil && cfg.Title != "" {
		return cfg.Title
	}
	return render.DefaultTitle
}

// writePage renders page to path, or to stdout when path is "-".
func writePage(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
