package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the configuration for the CLI.
type Config struct {
	// Max pages processed at a time during a scan or while indexing.
	// Large values increase CPU and memory usage.
	Concurrency int `toml:"concurrency"`

	// Path to the sqlite library database.
	Database string `toml:"database"`

	// Server port.
	Port int `toml:"port"`

	// The directory to index.
	Directory string `toml:"-"`

	// The PDF file to search.
	Filename string `toml:"-"`

	// The text to search for.
	Query string `toml:"-"`

	CaseSensitive bool `toml:"-"`
	WholeWord     bool `toml:"-"`
}

var DefaultConfig = Config{
	Concurrency: 4,
	Port:        8080,
}

// LoadDefaults fills in the library path and overlays the user's config
// file (pdfview/config.toml in the user config dir) when one exists.
// Command-line flags are parsed afterwards and take precedence.
func LoadDefaults(config *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("os.UserHomeDir failed: %w", err)
	}
	if config.Database == "" {
		config.Database = filepath.Join(home, "library.db")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(configDir, "pdfview", "config.toml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
