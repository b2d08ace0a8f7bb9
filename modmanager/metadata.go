package modmanager

import "github.com/wasmforge/wasmforge/config"

// Metadata is produced by the manager and persisted next to the cached bytes
// as the ".json" sidecar file. ID is the stable cache key.
type Metadata struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Checksum    string              `json:"checksum"`
	SizeBytes   uint64              `json:"size_bytes"`
	CachedAt    int64               `json:"cached_at"`
	Source      config.ModuleSource `json:"source"`
	WasmPath    string              `json:"wasm_path"`
}
