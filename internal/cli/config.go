package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds CLI defaults loadable from a YAML config file. Flags take
// precedence over config values.
type Config struct {
	File       string `yaml:"file"`
	Format     string `yaml:"format"`
	ForceParse bool   `yaml:"force_parse"`
	HTTPOnly   bool   `yaml:"http_only_extension"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Format:   "auto",
		HTTPOnly: true,
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cookiefile.yaml")
}

// LoadConfig reads a config file, falling back to defaults when the file
// does not exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
