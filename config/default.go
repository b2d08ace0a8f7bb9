package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns the built-in configuration written on first run: a
// single local test module exposing "add" and "validate_url", matching
// original_source/desktop-app/src/config.rs's Default impl.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "wasmforge",
			Version:     "0.1.0",
			DefaultHost: "127.0.0.1",
		},
		Modules: []ModuleConfig{
			{
				Name:        "test-module",
				Version:     "0.1.0",
				Description: "Test WebAssembly module with basic functions",
				Source: ModuleSource{
					Kind: SourceLocal,
					Path: filepath.Join("test-modules", "test_module.wasm"),
				},
				Enabled: true,
				Tools: []ToolConfig{
					{
						Name:         "add",
						Description:  "Add two numbers",
						FunctionName: "add",
						Parameters: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"a": map[string]any{"type": "number"},
								"b": map[string]any{"type": "number"},
							},
							"required": []any{"a", "b"},
						},
					},
					{
						Name:         "validate_url",
						Description:  "Validate URL format",
						FunctionName: "validate_url",
						Parameters: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"url": map[string]any{"type": "string"},
							},
							"required": []any{"url"},
						},
					},
				},
			},
		},
		Cache: CacheConfig{
			Directory: defaultCacheDir(),
			MaxSizeMB: 100,
			TTLHours:  24,
		},
	}
}

// defaultCacheDir mirrors dirs::cache_dir().join("wasmforge").join("modules")
// from the original, using os.UserCacheDir as the Go-idiomatic equivalent.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "wasmforge", "modules")
}

// GetConfigPath mirrors dirs::config_dir().join("wasmforge").join("config.toml").
func GetConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "wasmforge", "config.toml")
}
