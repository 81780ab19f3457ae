// Package repo binds C1–C5 into the single facade spec.md §6 describes as
// "exposed to external callers", plus the ambient config/CLI/async layers
// SPEC_FULL.md §6 adds around it. Repository open/init layout enumeration
// is named out of scope for the core proper (spec.md §1); this package is
// the thin collaborator that owns it so the core components never need to
// know how a repository's on-disk layout came to exist.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/imgrepo/imgrepo/internal/storagemode"
)

// Config is the on-disk repository config, loaded from config.yaml at the
// repo root (SPEC_FULL.md §6 "Config"). It fixes the storage mode chosen at
// creation time (spec.md §3 "immutable thereafter") and the parent-repo
// chain used by the devino hardlink cache (spec.md §9 "Parent-repo chain").
type Config struct {
	Mode    string   `yaml:"mode"`
	Parents []string `yaml:"parents,omitempty"`
}

func (c Config) mode() (storagemode.Mode, error) {
	return storagemode.Parse(c.Mode)
}

func configPath(root string) string {
	return filepath.Join(root, "config.yaml")
}

func loadConfig(root string) (Config, error) {
	data, err := os.ReadFile(configPath(root))
	if err != nil {
		return Config{}, fmt.Errorf("repo: read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("repo: parse config: %w", err)
	}
	return c, nil
}

func saveConfig(root string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("repo: encode config: %w", err)
	}
	if err := os.WriteFile(configPath(root), data, 0o644); err != nil {
		return fmt.Errorf("repo: write config: %w", err)
	}
	return nil
}
