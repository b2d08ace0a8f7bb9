// Package wasmexec compiles and instantiates cached Wasm module bytes and
// exposes the three typed calling conventions the discovery engine relies
// on, plus raw linear-memory access for the pointer/length pattern.
//
// Grounded on the wazero usage shown in
// other_examples/00b3a7be_nemoNoboru-zerverless (compile/instantiate/call
// shape, host-function-free instantiation) and
// other_examples/dbc92a5f_codefromthecrypt-bacalhau (engine-level
// compilation cache, ExportedFunction/Call, sys.ExitError handling).
package wasmexec

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmforge/wasmforge/internal/errdefs"
	"github.com/wasmforge/wasmforge/modmanager"
)

// guestInputOffset is the fixed linear-memory offset the host writes
// pointer/length input at. See Engine.CallPtrLenToI32.
const guestInputOffset = 1024

// loadedModule bundles one compiled+instantiated guest with the mutex that
// serialises every call into it. An instance, its store, and its memory are
// a single ownership unit in wazero; wazero's api.Module already owns its
// store, so the mutex here is what enforces "never invoked concurrently".
type loadedModule struct {
	metadata modmanager.Metadata
	compiled wazero.CompiledModule
	instance api.Module
	mu       sync.Mutex
}

// Engine owns the shared wazero runtime and every instantiated module.
type Engine struct {
	runtime wazero.Runtime
	log     *logrus.Entry

	mu      sync.RWMutex
	modules map[string]*loadedModule
}

// NewEngine creates an Engine with a fresh wazero runtime.
func NewEngine(ctx context.Context, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		runtime: wazero.NewRuntime(ctx),
		log:     log.WithField("component", "wasmexec"),
		modules: make(map[string]*loadedModule),
	}
}

// LoadFromManager compiles and instantiates, with no imports, every module
// currently tracked by mm. A single module's failure is logged and skipped;
// it never aborts the rest.
func (e *Engine) LoadFromManager(ctx context.Context, mm *modmanager.Manager) {
	for name, meta := range mm.Loaded() {
		if err := e.loadOne(ctx, name, meta, mm); err != nil {
			e.log.WithField("module", name).WithError(err).Warn("failed to instantiate module")
		}
	}
}

func (e *Engine) loadOne(ctx context.Context, name string, meta modmanager.Metadata, mm *modmanager.Manager) error {
	data, err := mm.GetBytes(name)
	if err != nil {
		return err
	}

	compiled, err := e.runtime.CompileModule(ctx, data)
	if err != nil {
		return errdefs.ModuleLoad(fmt.Errorf("compile module %q: %w", name, err))
	}

	cfg := wazero.NewModuleConfig().WithName(name)
	instance, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		compiled.Close(ctx)
		return errdefs.ModuleLoad(fmt.Errorf("instantiate module %q with no imports: %w", name, err))
	}

	e.mu.Lock()
	e.modules[name] = &loadedModule{metadata: meta, compiled: compiled, instance: instance}
	e.mu.Unlock()
	e.log.WithField("module", name).Info("instantiated module")
	return nil
}

// Unload closes and forgets a module's instance and compiled artifact.
func (e *Engine) Unload(ctx context.Context, name string) error {
	e.mu.Lock()
	lm, ok := e.modules[name]
	if ok {
		delete(e.modules, name)
	}
	e.mu.Unlock()
	if !ok {
		return errdefs.ModuleLoad(fmt.Errorf("module %q not loaded in execution layer", name))
	}
	lm.instance.Close(ctx)
	lm.compiled.Close(ctx)
	return nil
}

// Reload unloads (if present) and re-instantiates a module from mm's
// current bytes.
func (e *Engine) Reload(ctx context.Context, name string, mm *modmanager.Manager) error {
	_ = e.Unload(ctx, name)
	meta, ok := mm.Metadata(name)
	if !ok {
		return errdefs.ModuleLoad(fmt.Errorf("module %q not present in manager", name))
	}
	return e.loadOne(ctx, name, meta, mm)
}

func (e *Engine) module(name string) (*loadedModule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	lm, ok := e.modules[name]
	if !ok {
		return nil, errdefs.ModuleLoad(fmt.Errorf("module %q not instantiated", name))
	}
	return lm, nil
}

// ListExportedFunctions returns the names of every function-typed export of
// the named module.
func (e *Engine) ListExportedFunctions(name string) ([]string, error) {
	lm, err := e.module(name)
	if err != nil {
		return nil, err
	}
	defs := lm.compiled.ExportedFunctions()
	out := make([]string, 0, len(defs))
	for fnName := range defs {
		out = append(out, fnName)
	}
	return out, nil
}

// SignatureOf returns the FuncSignature of one exported function.
func (e *Engine) SignatureOf(moduleName, funcName string) (FuncSignature, error) {
	lm, err := e.module(moduleName)
	if err != nil {
		return FuncSignature{}, err
	}
	fn := lm.instance.ExportedFunction(funcName)
	if fn == nil {
		return FuncSignature{}, errdefs.ModuleLoad(fmt.Errorf("function %q not exported by module %q", funcName, moduleName))
	}
	return signatureOfFunc(fn), nil
}

// CallI32I32ToI32 invokes a two-I32-param, one-I32-result export.
func (e *Engine) CallI32I32ToI32(ctx context.Context, moduleName, funcName string, a, b uint32) (uint32, error) {
	lm, err := e.module(moduleName)
	if err != nil {
		return 0, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	fn := lm.instance.ExportedFunction(funcName)
	if fn == nil {
		return 0, errdefs.ModuleLoad(fmt.Errorf("function %q not exported by module %q", funcName, moduleName))
	}
	sig := signatureOfFunc(fn)
	if !isTwoI32ToI32(sig) {
		return 0, errdefs.Capability(fmt.Errorf("function %q does not match i32_i32_to_i32", funcName))
	}
	results, err := fn.Call(ctx, uint64(a), uint64(b))
	if err != nil {
		return 0, errdefs.Capability(fmt.Errorf("call %s.%s: %w", moduleName, funcName, err))
	}
	return uint32(results[0]), nil
}

// CallNoParamsToI32 invokes a zero-param, one-I32-result export.
func (e *Engine) CallNoParamsToI32(ctx context.Context, moduleName, funcName string) (uint32, error) {
	lm, err := e.module(moduleName)
	if err != nil {
		return 0, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	fn := lm.instance.ExportedFunction(funcName)
	if fn == nil {
		return 0, errdefs.ModuleLoad(fmt.Errorf("function %q not exported by module %q", funcName, moduleName))
	}
	sig := signatureOfFunc(fn)
	if !isNoParamsToI32(sig) {
		return 0, errdefs.Capability(fmt.Errorf("function %q does not match no_params_to_i32", funcName))
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return 0, errdefs.Capability(fmt.Errorf("call %s.%s: %w", moduleName, funcName, err))
	}
	return uint32(results[0]), nil
}

// CallPtrLenToI32 writes data into the module's exported "memory" at a
// fixed offset and invokes funcName with (offset, len(data)).
func (e *Engine) CallPtrLenToI32(ctx context.Context, moduleName, funcName string, data []byte) (uint32, error) {
	lm, err := e.module(moduleName)
	if err != nil {
		return 0, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	fn := lm.instance.ExportedFunction(funcName)
	if fn == nil {
		return 0, errdefs.ModuleLoad(fmt.Errorf("function %q not exported by module %q", funcName, moduleName))
	}
	sig := signatureOfFunc(fn)
	if !isTwoI32ToI32(sig) {
		return 0, errdefs.Capability(fmt.Errorf("function %q does not match ptr_len_to_i32", funcName))
	}

	mem := lm.instance.ExportedMemory("memory")
	if mem == nil {
		return 0, errdefs.Capability(fmt.Errorf("module %q exports no memory", moduleName))
	}
	if !mem.Write(guestInputOffset, data) {
		return 0, errdefs.Capability(fmt.Errorf(
			"write %d bytes at offset %d exceeds module %q's memory", len(data), guestInputOffset, moduleName))
	}

	results, err := fn.Call(ctx, uint64(guestInputOffset), uint64(len(data)))
	if err != nil {
		return 0, errdefs.Capability(fmt.Errorf("call %s.%s: %w", moduleName, funcName, err))
	}
	return uint32(results[0]), nil
}

// Close closes every instantiated module and the shared runtime.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, lm := range e.modules {
		lm.instance.Close(ctx)
		lm.compiled.Close(ctx)
		delete(e.modules, name)
	}
	return e.runtime.Close(ctx)
}
