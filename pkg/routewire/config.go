// Package routewire boots annotated controllers: it discovers @Route and @DI
// annotations in controller doc comments, registers one shared service per
// controller in a container and mounts their routes on a web.Router.
//
// Expected usage:
//
//	reg := routewire.NewRegistry()
//	reg.Register(controller.NewHomeController)
//
//	c := container.New()
//	router := web.NewRouter(adapters.NewDefaultEchoAdapter(), c, web.WithCallables(reg))
//
//	_, err := routewire.Boot(ctx, routewire.Config{
//		Paths:          []string{"./internal/controller"},
//		CacheDirectory: "./var/cache",
//	}, reg, c, router)
package routewire

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/toyz/routewire/internal/errors"
)

// Config controls discovery and caching
type Config struct {
	// Paths are the directories searched for controllers. A trailing "/..."
	// is accepted; the search is always recursive.
	Paths []string `toml:"paths"`

	// CacheDirectory holds the metadata snapshot. Empty disables caching and
	// every boot scans Paths.
	CacheDirectory string `toml:"cache_directory"`

	// Debug forces a rescan and snapshot rewrite on every boot.
	Debug bool `toml:"debug"`

	// Verbose enables progress output during boot.
	Verbose bool `toml:"verbose"`
}

// LoadConfig reads a TOML configuration file. Relative paths are resolved
// against the directory of the file; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.WrapConfigurationError(path, "load", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.ConfigurationError(path, fmt.Sprintf("unknown keys: %s", strings.Join(keys, ", "))).
			WithSuggestion("supported keys are paths, cache_directory, debug and verbose")
	}

	base := filepath.Dir(path)
	for i, p := range cfg.Paths {
		cfg.Paths[i] = resolve(base, p)
	}
	if cfg.CacheDirectory != "" {
		cfg.CacheDirectory = resolve(base, cfg.CacheDirectory)
	}
	return cfg, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate checks that the configuration can drive a boot. Existence of the
// paths is checked later, during discovery.
func (c Config) Validate() error {
	return c.validate(true)
}

func (c Config) validate(requirePaths bool) error {
	if requirePaths && len(c.Paths) == 0 {
		return errors.ConfigurationError("paths", "at least one controller path is required")
	}
	for _, p := range c.Paths {
		if strings.TrimSpace(p) == "" {
			return errors.ConfigurationError("paths", "paths must not be empty strings")
		}
	}
	return nil
}
