// Package modmanager materialises configured Wasm modules as bytes on disk,
// computes and records their integrity metadata, and serves those bytes to
// the execution layer on demand.
//
// Grounded on original_source/desktop-app/src/module_manager.rs.
package modmanager

import (
	"crypto/md5" //nolint:gosec // used only to derive a stable cache id from a URL, not for integrity
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/internal/errdefs"
)

// Manager resolves each module's origin to local bytes, validates and caches
// them, and tracks metadata for every successfully loaded module.
type Manager struct {
	cfg      *config.Config
	cacheDir string
	log      *logrus.Entry
	client   *http.Client

	mu     sync.RWMutex
	loaded map[string]Metadata
}

// New creates a Manager rooted at cfg.Cache.Directory, creating that
// directory if it does not already exist.
func New(cfg *config.Config, log *logrus.Logger) (*Manager, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(cfg.Cache.Directory, 0o755); err != nil {
		return nil, errdefs.Config(fmt.Errorf("create cache directory %s: %w", cfg.Cache.Directory, err))
	}
	return &Manager{
		cfg:      cfg,
		cacheDir: cfg.Cache.Directory,
		log:      log.WithField("component", "modmanager"),
		client:   &http.Client{},
		loaded:   make(map[string]Metadata),
	}, nil
}

// LoadAll iterates every enabled module, loading each independently. A
// single module's failure is logged and never aborts the batch.
func (m *Manager) LoadAll() {
	for _, mc := range m.cfg.EnabledModules() {
		meta, err := m.LoadOne(mc)
		if err != nil {
			m.log.WithField("module", mc.Name).WithError(err).Warn("failed to load module")
			continue
		}
		m.log.WithFields(logrus.Fields{"module": meta.Name, "version": meta.Version}).Info("loaded module")
		m.mu.Lock()
		m.loaded[meta.Name] = meta
		m.mu.Unlock()
	}
}

// LoadOne dispatches on mc.Source and returns the resulting metadata without
// inserting it into the loaded set (callers that want it tracked should use
// LoadAll or Reload).
func (m *Manager) LoadOne(mc config.ModuleConfig) (Metadata, error) {
	switch mc.Source.Kind {
	case config.SourceLocal:
		return m.loadLocal(mc)
	case config.SourceHTTP:
		return m.loadHTTP(mc)
	case config.SourceRegistry:
		return Metadata{}, m.loadRegistry(mc)
	default:
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf("module %q has unknown source type %q", mc.Name, mc.Source.Kind))
	}
}

func (m *Manager) loadLocal(mc config.ModuleConfig) (Metadata, error) {
	wasmPath, err := config.ResolveLocalPath(mc.Source.Path)
	if err != nil {
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf("local module file not found: %s", mc.Source.Path))
	}

	data, err := os.ReadFile(wasmPath)
	if err != nil {
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf("read module file %s: %w", wasmPath, err))
	}

	if err := validateWasmHeader(data); err != nil {
		return Metadata{}, err
	}

	version := mc.Version
	if version == "" {
		version = "unknown"
	}

	return Metadata{
		ID:          uuid.NewString(),
		Name:        mc.Name,
		Version:     version,
		Description: mc.Description,
		Checksum:    checksumHex(data),
		SizeBytes:   uint64(len(data)),
		CachedAt:    time.Now().Unix(),
		Source:      mc.Source,
		WasmPath:    wasmPath,
	}, nil
}

func (m *Manager) loadHTTP(mc config.ModuleConfig) (Metadata, error) {
	id := httpCacheID(mc.Name, mc.Source.URL, mc.Source.Checksum)
	cachedPath := m.wasmPath(id)

	if cached, err := m.loadCachedMetadata(id); err == nil {
		if _, statErr := os.Stat(cachedPath); statErr == nil && m.isCacheValid(cached) {
			m.log.WithField("module", mc.Name).Debug("using cached module")
			return cached, nil
		}
	}

	m.log.WithFields(logrus.Fields{"module": mc.Name, "url": mc.Source.URL}).Info("downloading module")
	resp, err := m.client.Get(mc.Source.URL)
	if err != nil {
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf("download module from %s: %w", mc.Source.URL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf("HTTP error downloading module: %d - %s", resp.StatusCode, mc.Source.URL))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf("read response body: %w", err))
	}

	checksum := checksumHex(data)
	if mc.Source.Checksum != "" && checksum != mc.Source.Checksum {
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf(
			"checksum mismatch for module %q: expected %s, got %s", mc.Name, mc.Source.Checksum, checksum))
	}

	if err := validateWasmHeader(data); err != nil {
		return Metadata{}, err
	}

	if err := os.WriteFile(cachedPath, data, 0o644); err != nil {
		return Metadata{}, errdefs.ModuleLoad(fmt.Errorf("cache module to %s: %w", cachedPath, err))
	}

	version := mc.Version
	if version == "" {
		version = "unknown"
	}

	meta := Metadata{
		ID:          id,
		Name:        mc.Name,
		Version:     version,
		Description: mc.Description,
		Checksum:    checksum,
		SizeBytes:   uint64(len(data)),
		CachedAt:    time.Now().Unix(),
		Source:      mc.Source,
		WasmPath:    cachedPath,
	}

	if err := m.saveCachedMetadata(meta); err != nil {
		return Metadata{}, err
	}

	return meta, nil
}

func (m *Manager) loadRegistry(mc config.ModuleConfig) error {
	return errdefs.ModuleLoad(fmt.Errorf("registry module loading not yet implemented (module %q)", mc.Name))
}

// GetBytes re-reads the cached file for an already-loaded module. Bytes are
// never retained in memory once a module has been loaded into the execution
// layer.
func (m *Manager) GetBytes(name string) ([]byte, error) {
	m.mu.RLock()
	meta, ok := m.loaded[name]
	m.mu.RUnlock()
	if !ok {
		return nil, errdefs.ModuleLoad(fmt.Errorf("module %q not loaded", name))
	}
	data, err := os.ReadFile(meta.WasmPath)
	if err != nil {
		return nil, errdefs.ModuleLoad(fmt.Errorf("read module file %s: %w", meta.WasmPath, err))
	}
	return data, nil
}

// Reload re-runs LoadOne for an already-configured module and replaces its
// entry in the loaded set on success.
func (m *Manager) Reload(name string) error {
	mc, ok := m.cfg.FindModule(name)
	if !ok {
		return errdefs.ModuleLoad(fmt.Errorf("module %q not found in configuration", name))
	}
	meta, err := m.LoadOne(mc)
	if err != nil {
		m.log.WithField("module", name).WithError(err).Warn("failed to reload module")
		return err
	}
	m.log.WithFields(logrus.Fields{"module": meta.Name, "version": meta.Version}).Info("reloaded module")
	m.mu.Lock()
	m.loaded[name] = meta
	m.mu.Unlock()
	return nil
}

// Loaded returns a snapshot of every successfully loaded module's metadata,
// keyed by module name.
func (m *Manager) Loaded() map[string]Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Metadata, len(m.loaded))
	for k, v := range m.loaded {
		out[k] = v
	}
	return out
}

// Metadata returns the metadata for one loaded module.
func (m *Manager) Metadata(name string) (Metadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.loaded[name]
	return meta, ok
}

// CleanupCache is a named placeholder: size/TTL-based cache eviction was
// never implemented in the original either, despite CacheConfig.MaxSizeMB
// existing in the schema. TODO: evict least-recently-used cache entries once
// total cache size exceeds cfg.Cache.MaxSizeMB.
func (m *Manager) CleanupCache() error {
	m.log.Debug("cache cleanup not yet implemented")
	return nil
}

func (m *Manager) wasmPath(id string) string  { return filepath.Join(m.cacheDir, id+".wasm") }
func (m *Manager) metaPath(id string) string  { return filepath.Join(m.cacheDir, id+".json") }

func (m *Manager) loadCachedMetadata(id string) (Metadata, error) {
	data, err := os.ReadFile(m.metaPath(id))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (m *Manager) saveCachedMetadata(meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errdefs.ModuleLoad(fmt.Errorf("serialize metadata: %w", err))
	}
	if err := os.WriteFile(m.metaPath(meta.ID), data, 0o644); err != nil {
		return errdefs.ModuleLoad(fmt.Errorf("write metadata to cache: %w", err))
	}
	return nil
}

func (m *Manager) isCacheValid(meta Metadata) bool {
	ttlSeconds := int64(m.cfg.Cache.TTLHours * 3600)
	return time.Now().Unix()-meta.CachedAt < ttlSeconds
}

// checksumHex computes the lowercase hex SHA-256 digest of data using
// opencontainers/go-digest, the same content-addressing primitive the
// teacher uses for image/layer identity.
func checksumHex(data []byte) string {
	return digest.FromBytes(data).Encoded()
}

// httpCacheID mirrors module_manager.rs's `{name}_{checksum-or-md5(url)}`.
func httpCacheID(name, url, checksum string) string {
	if checksum != "" {
		return name + "_" + checksum
	}
	sum := md5.Sum([]byte(url)) //nolint:gosec // cache-key derivation only
	return name + "_" + hex.EncodeToString(sum[:])
}
