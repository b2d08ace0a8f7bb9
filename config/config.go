// Package config holds wasmforge's declarative configuration: the set of
// modules to load, how to cache them, and how the RPC server identifies
// itself and binds to a transport.
//
// The shape mirrors original_source/desktop-app/src/config.rs: a Config with
// server/modules/cache sections, loaded from (or created as) a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/wasmforge/wasmforge/internal/errdefs"
)

// Config is the top-level declarative document wasmforge loads at startup.
type Config struct {
	Server  ServerConfig   `toml:"server"`
	Modules []ModuleConfig `toml:"modules"`
	Cache   CacheConfig    `toml:"cache"`
}

// ServerConfig identifies the server and its default transport.
type ServerConfig struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	DefaultPort *int   `toml:"default_port,omitempty"`
	DefaultHost string `toml:"default_host"`
}

// ModuleConfig describes one guest module the manager should load.
type ModuleConfig struct {
	Name        string            `toml:"name"`
	Version     string            `toml:"version,omitempty"`
	Description string            `toml:"description,omitempty"`
	Source      ModuleSource      `toml:"source"`
	Enabled     bool              `toml:"enabled"`
	Tools       []ToolConfig      `toml:"tools,omitempty"`
	Metadata    map[string]string `toml:"metadata,omitempty"`
}

// ToolConfig overrides the auto-discovered description, schema, or security
// policy for one guest export. Name is not applied to the public tool name,
// which discovery always derives from the module and function names.
type ToolConfig struct {
	Name         string                `toml:"name"`
	Description  string                `toml:"description,omitempty"`
	FunctionName string                `toml:"function_name"`
	Parameters   map[string]any        `toml:"parameters,omitempty"`
	Security     *ToolSecurityConfig   `toml:"security,omitempty"`
}

// ToolSecurityConfig narrows the host-side policy applied to a tool.
type ToolSecurityConfig struct {
	AllowedCommands []string `toml:"allowed_commands,omitempty"`
}

// SourceKind tags which variant a ModuleSource holds.
type SourceKind string

const (
	SourceLocal    SourceKind = "local"
	SourceHTTP     SourceKind = "http"
	SourceRegistry SourceKind = "registry"
)

// ModuleSource is a tagged variant: a module's origin is exactly one of a
// local path, an HTTP URL (with optional checksum), or a reserved registry
// reference.
//
// go-toml has no native tagged-union support, so — matching the "type" tag
// convention Rust's serde uses for the same enum in config.rs — this is
// encoded as a flat struct with a Kind discriminator and the fields for all
// three variants, most left empty for any given instance.
type ModuleSource struct {
	Kind SourceKind `toml:"type" json:"type"`

	// Local
	Path string `toml:"path,omitempty" json:"path,omitempty"`

	// Http
	URL      string `toml:"url,omitempty" json:"url,omitempty"`
	Checksum string `toml:"checksum,omitempty" json:"checksum,omitempty"`

	// Registry
	RegistryName    string `toml:"name,omitempty" json:"name,omitempty"`
	RegistryVersion string `toml:"version,omitempty" json:"version,omitempty"`
}

// CacheConfig controls where downloaded module bytes are cached and for how
// long a cached HTTP-sourced module is considered fresh.
type CacheConfig struct {
	Directory string `toml:"directory"`
	MaxSizeMB uint64 `toml:"max_size_mb"`
	TTLHours  uint64 `toml:"ttl_hours"`
}

// EnabledModules returns the subset of Modules with Enabled set.
func (c *Config) EnabledModules() []ModuleConfig {
	out := make([]ModuleConfig, 0, len(c.Modules))
	for _, m := range c.Modules {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// FindModule looks up a module by its stable name.
func (c *Config) FindModule(name string) (ModuleConfig, bool) {
	for _, m := range c.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleConfig{}, false
}

// LoadFromFile parses a TOML config document from path.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.Config(fmt.Errorf("read config file %s: %w", path, err))
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errdefs.Config(fmt.Errorf("parse config file %s: %w", path, err))
	}
	return &cfg, nil
}

// SaveToFile serializes c as TOML and writes it to path, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errdefs.Config(fmt.Errorf("serialize config to TOML: %w", err))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errdefs.Config(fmt.Errorf("create config directory %s: %w", dir, err))
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errdefs.Config(fmt.Errorf("write config file %s: %w", path, err))
	}
	return nil
}

// LoadOrCreateDefault loads path if it exists, otherwise writes and returns
// DefaultConfig().
func LoadOrCreateDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadFromFile(path)
	}
	cfg := DefaultConfig()
	if err := cfg.SaveToFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}
