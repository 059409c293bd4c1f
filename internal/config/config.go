// Package config loads settings for the mask generator and lookup server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"go.ngs.io/countrymasks/internal/domain"
)

// Config holds generator settings that can be overridden from a TOML file.
type Config struct {
	// Repository is written into every dataset as its provenance URL.
	Repository string `toml:"repository"`

	// Groups are the aggregate masks built from member countries.
	Groups []domain.Group `toml:"groups"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Repository: domain.Repository,
		Groups:     domain.DefaultGroups(),
	}
}

// Load reads a TOML configuration file on top of the defaults. An empty path
// returns the defaults. Keys missing from the file keep their default value.
//
// Example:
//
//	repository = "https://example.org/masks"
//
//	[[groups]]
//	code = "PSID"
//	name = "Pacific island small states"
//	members = ["FJI", "TON"]
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.WithField("keys", undecoded).Warn("unknown keys in config file")
	}

	if md.IsDefined("repository") {
		cfg.Repository = file.Repository
	}
	if md.IsDefined("groups") {
		cfg.Groups = file.Groups
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks group definitions.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if g.Code == "" {
			return fmt.Errorf("group %d: missing code", i)
		}
		if seen[g.Code] {
			return fmt.Errorf("group %s defined twice", g.Code)
		}
		seen[g.Code] = true
		if len(g.Members) == 0 {
			return fmt.Errorf("group %s: no members", g.Code)
		}
	}
	return nil
}

// LoadDotEnv loads environment variables from the given files (default
// ".env"). Missing files are ignored; variables already set are kept.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// GetEnv retrieves an environment variable or returns a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ConfigureLogging sets the global logrus level and formatter.
func ConfigureLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}
