package modmanager_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/modmanager"
)

// minimalWasm is the smallest valid Wasm module: just the 8-byte header.
var minimalWasm = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

func newTestManager(t *testing.T, cfg *config.Config) *modmanager.Manager {
	t.Helper()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	mgr, err := modmanager.New(cfg, log)
	assert.NilError(t, err)
	return mgr
}

func TestLoadLocalModuleTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	wasmPath := filepath.Join(dir, "mod.wasm")
	assert.NilError(t, os.WriteFile(wasmPath, minimalWasm, 0o644))

	cfg := &config.Config{Cache: config.CacheConfig{Directory: filepath.Join(dir, "cache")}}
	mgr := newTestManager(t, cfg)

	mc := config.ModuleConfig{
		Name:    "local-mod",
		Enabled: true,
		Source:  config.ModuleSource{Kind: config.SourceLocal, Path: wasmPath},
	}

	first, err := mgr.LoadOne(mc)
	assert.NilError(t, err)
	second, err := mgr.LoadOne(mc)
	assert.NilError(t, err)

	assert.Check(t, is.Equal(first.Checksum, second.Checksum))
	assert.Check(t, is.Equal(first.SizeBytes, second.SizeBytes))
	assert.Check(t, is.Equal(first.Checksum, digest.FromBytes(minimalWasm).Encoded()))
}

func TestLoadLocalModuleRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	wasmPath := filepath.Join(dir, "bad.wasm")
	assert.NilError(t, os.WriteFile(wasmPath, []byte("not wasm"), 0o644))

	cfg := &config.Config{Cache: config.CacheConfig{Directory: filepath.Join(dir, "cache")}}
	mgr := newTestManager(t, cfg)

	_, err := mgr.LoadOne(config.ModuleConfig{
		Name:    "bad",
		Enabled: true,
		Source:  config.ModuleSource{Kind: config.SourceLocal, Path: wasmPath},
	})
	assert.ErrorContains(t, err, "magic bytes")
}

func TestLoadHTTPModuleCachesAndSkipsNetworkWhenFresh(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
		w.Write(minimalWasm)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{Cache: config.CacheConfig{Directory: dir, TTLHours: 24}}
	mgr := newTestManager(t, cfg)

	mc := config.ModuleConfig{
		Name:    "http-mod",
		Enabled: true,
		Source:  config.ModuleSource{Kind: config.SourceHTTP, URL: srv.URL},
	}

	first, err := mgr.LoadOne(mc)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(hits, 1))

	second, err := mgr.LoadOne(mc)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(hits, 1), "second load within TTL must not hit the network")
	assert.Check(t, is.Equal(first.ID, second.ID))
}

func TestLoadHTTPModuleChecksumMismatchNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(minimalWasm)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{Cache: config.CacheConfig{Directory: dir, TTLHours: 24}}
	mgr := newTestManager(t, cfg)

	_, err := mgr.LoadOne(config.ModuleConfig{
		Name:    "mismatched",
		Enabled: true,
		Source: config.ModuleSource{
			Kind:     config.SourceHTTP,
			URL:      srv.URL,
			Checksum: "ff0000000000000000000000000000000000000000000000000000000000",
		},
	})
	assert.ErrorContains(t, err, "checksum mismatch")

	entries, readErr := os.ReadDir(dir)
	assert.NilError(t, readErr)
	for _, e := range entries {
		assert.Check(t, filepath.Ext(e.Name()) != ".wasm", "no .wasm file should be cached on checksum mismatch")
	}
}

func TestLoadHTTPModuleNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{Cache: config.CacheConfig{Directory: dir}}
	mgr := newTestManager(t, cfg)

	_, err := mgr.LoadOne(config.ModuleConfig{
		Name:    "missing",
		Enabled: true,
		Source:  config.ModuleSource{Kind: config.SourceHTTP, URL: srv.URL},
	})
	assert.ErrorContains(t, err, "HTTP error")
}

func TestLoadRegistryAlwaysFails(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Cache: config.CacheConfig{Directory: dir}}
	mgr := newTestManager(t, cfg)

	_, err := mgr.LoadOne(config.ModuleConfig{
		Name:    "reg",
		Enabled: true,
		Source:  config.ModuleSource{Kind: config.SourceRegistry, RegistryName: "foo"},
	})
	assert.ErrorContains(t, err, "not yet implemented")
}

func TestLoadAllNeverAbortsOnSingleFailure(t *testing.T) {
	dir := t.TempDir()
	goodPath := filepath.Join(dir, "good.wasm")
	assert.NilError(t, os.WriteFile(goodPath, minimalWasm, 0o644))

	cfg := &config.Config{
		Cache: config.CacheConfig{Directory: filepath.Join(dir, "cache")},
		Modules: []config.ModuleConfig{
			{Name: "missing", Enabled: true, Source: config.ModuleSource{Kind: config.SourceLocal, Path: "/no/such/file.wasm"}},
			{Name: "good", Enabled: true, Source: config.ModuleSource{Kind: config.SourceLocal, Path: goodPath}},
		},
	}
	mgr := newTestManager(t, cfg)
	mgr.LoadAll()

	loaded := mgr.Loaded()
	_, hasMissing := loaded["missing"]
	_, hasGood := loaded["good"]
	assert.Check(t, !hasMissing)
	assert.Check(t, hasGood)
}

func TestGetBytesRereadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	wasmPath := filepath.Join(dir, "mod.wasm")
	assert.NilError(t, os.WriteFile(wasmPath, minimalWasm, 0o644))

	cfg := &config.Config{
		Cache: config.CacheConfig{Directory: filepath.Join(dir, "cache")},
		Modules: []config.ModuleConfig{
			{Name: "m", Enabled: true, Source: config.ModuleSource{Kind: config.SourceLocal, Path: wasmPath}},
		},
	}
	mgr := newTestManager(t, cfg)
	mgr.LoadAll()

	data, err := mgr.GetBytes("m")
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(data, minimalWasm))
}
