// Package config loads the optional .callscope.yaml settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/callscope/internal/lang"
	"github.com/phobologic/callscope/internal/textpos"
)

// FileName is looked up in the working directory when no path is given.
const FileName = ".callscope.yaml"

// DefaultMaxFileSize is the default per-file size limit in bytes.
const DefaultMaxFileSize int64 = 1 << 20

// Config holds the settings a flag can override.
type Config struct {
	MaxLineLength int      `yaml:"max_line_length"`
	Literal       bool     `yaml:"literal"`
	Recover       bool     `yaml:"recover"`
	Language      string   `yaml:"language"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	MaxFileSize   int64    `yaml:"max_file_size"`
	SkipTests     bool     `yaml:"skip_tests"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		MaxLineLength: textpos.DefaultMaxLineLength,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Find loads FileName from dir if it exists. It returns the path it
// loaded, or "" with the defaults when there is no file.
func Find(dir string) (Config, string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.MaxLineLength <= 0 {
		return fmt.Errorf("max_line_length must be positive, got %d", c.MaxLineLength)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	if c.Language != "" {
		if _, ok := lang.Languages[c.Language]; !ok {
			return fmt.Errorf("unknown language %q (supported: %v)", c.Language, lang.Names())
		}
	}
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob %q", p)
		}
	}
	return nil
}
