package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ArchiveConfig represents the archive section of the config file.
type ArchiveConfig struct {
	DSN      string `yaml:"dsn"`
	Disabled bool   `yaml:"disabled"`
}

// FileConfig represents the structure of ~/.headlines/config.yaml.
type FileConfig struct {
	Title     string        `yaml:"title"`
	Output    string        `yaml:"output"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Archive   ArchiveConfig `yaml:"archive"`
	Sites     []Site        `yaml:"sites"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultOutput     = "news.html"
	DefaultArchiveDSN = "~/.headlines/archive.db"
)

// DefaultConfigPath returns ~/.headlines/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".headlines", "config.yaml"), nil
}

// LoadConfigFile loads configuration from path. Returns nil if the file
// doesn't exist (not an error). Returns error if the file exists but cannot be
// parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	// Check if file exists
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in unset fields.
func (c *FileConfig) ApplyDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Archive.DSN == "" {
		c.Archive.DSN = DefaultArchiveDSN
	}
}

// Validate checks the configuration for mistakes that would otherwise only
// show up halfway through a build.
func (c *FileConfig) Validate() error {
	if len(c.Sites) == 0 {
		return errors.New("no sites configured")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}

	seen := make(map[string]bool, len(c.Sites))
	for i, site := range c.Sites {
		if err := site.Validate(); err != nil {
			return fmt.Errorf("site %d: %w", i+1, err)
		}
		if seen[site.Name] {
			return fmt.Errorf("site %d: duplicate site name %q", i+1, site.Name)
		}
		seen[site.Name] = true
	}

	return nil
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
