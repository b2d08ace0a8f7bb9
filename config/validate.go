package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wasmforge/wasmforge/internal/errdefs"
)

// Validate checks that the cache directory can be created and that every
// enabled module's source is well-formed, matching config.rs's Validate
// impl. It is called once at startup before the server accepts any module.
func (c *Config) Validate() error {
	if err := os.MkdirAll(c.Cache.Directory, 0o755); err != nil {
		return errdefs.Config(fmt.Errorf("cannot create cache directory %s: %w", c.Cache.Directory, err))
	}

	for _, m := range c.EnabledModules() {
		switch m.Source.Kind {
		case SourceLocal:
			if _, err := ResolveLocalPath(m.Source.Path); err != nil {
				return errdefs.Config(fmt.Errorf("module %q local path does not exist: %s", m.Name, m.Source.Path))
			}
		case SourceHTTP:
			if !strings.HasPrefix(m.Source.URL, "http://") && !strings.HasPrefix(m.Source.URL, "https://") {
				return errdefs.Config(fmt.Errorf("module %q has invalid HTTP URL: %s", m.Name, m.Source.URL))
			}
		case SourceRegistry:
			if m.Source.RegistryName == "" {
				return errdefs.Config(fmt.Errorf("module %q has empty registry name", m.Name))
			}
		default:
			return errdefs.Config(fmt.Errorf("module %q has unknown source type %q", m.Name, m.Source.Kind))
		}
	}

	return nil
}

// ResolveLocalPath resolves a (possibly relative) local module path: an
// absolute path is used as-is; a relative path is tried against the current
// working directory first, then against the directory of the default config
// path (GetConfigPath), matching config.rs's path-resolution order. A config
// file loaded from another path does not change that second directory.
func ResolveLocalPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	configDir := filepath.Dir(GetConfigPath())
	candidate := filepath.Join(configDir, path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	return "", os.ErrNotExist
}
