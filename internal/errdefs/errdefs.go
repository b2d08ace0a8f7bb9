// Package errdefs defines the error kinds used across wasmforge and helpers
// for testing which kind wraps a given error.
//
// The shape follows moby/moby's errdefs package: each kind is a distinct
// unexported wrapper type implementing a small marker interface, discovered
// by walking the error's wrap chain with type assertions rather than by
// sentinel value comparison, so that wrapping an error with
// fmt.Errorf("...: %w", err) never hides its kind.
package errdefs

import "errors"

// ErrConfig marks an error fatal at startup: missing config directory that
// cannot be created, invalid TOML, or a validation failure.
type ErrConfig interface {
	WasmForgeConfig()
}

// ErrModuleLoad marks a non-fatal, per-module error: file not found, network
// error, checksum mismatch, invalid Wasm header, or compile/instantiate
// failure. The module is omitted from the loaded set; the server still
// starts.
type ErrModuleLoad interface {
	WasmForgeModuleLoad()
}

// ErrValidationRejection marks a per-request error where the guest validator
// returned 0.
type ErrValidationRejection interface {
	WasmForgeValidationRejection()
}

// ErrPolicyRejection marks a per-request error where a host policy check
// (allow-list, size cap, timeout) rejected the input.
type ErrPolicyRejection interface {
	WasmForgePolicyRejection()
}

// ErrCapability marks a per-request I/O error raised by a host capability.
type ErrCapability interface {
	WasmForgeCapability()
}

// ErrProtocol marks a per-request error: malformed RPC, unknown method, or
// missing parameters.
type ErrProtocol interface {
	WasmForgeProtocol()
}

type wrapped struct {
	error
}

func (e wrapped) Unwrap() error { return e.error }

type configErr struct{ wrapped }

func (configErr) WasmForgeConfig() {}

type moduleLoadErr struct{ wrapped }

func (moduleLoadErr) WasmForgeModuleLoad() {}

type validationRejectionErr struct{ wrapped }

func (validationRejectionErr) WasmForgeValidationRejection() {}

type policyRejectionErr struct{ wrapped }

func (policyRejectionErr) WasmForgePolicyRejection() {}

type capabilityErr struct{ wrapped }

func (capabilityErr) WasmForgeCapability() {}

type protocolErr struct{ wrapped }

func (protocolErr) WasmForgeProtocol() {}

// Config wraps err as an ErrConfig.
func Config(err error) error { return configErr{wrapped{err}} }

// ModuleLoad wraps err as an ErrModuleLoad.
func ModuleLoad(err error) error { return moduleLoadErr{wrapped{err}} }

// ValidationRejection wraps err as an ErrValidationRejection.
func ValidationRejection(err error) error { return validationRejectionErr{wrapped{err}} }

// PolicyRejection wraps err as an ErrPolicyRejection.
func PolicyRejection(err error) error { return policyRejectionErr{wrapped{err}} }

// Capability wraps err as an ErrCapability.
func Capability(err error) error { return capabilityErr{wrapped{err}} }

// Protocol wraps err as an ErrProtocol.
func Protocol(err error) error { return protocolErr{wrapped{err}} }

// IsConfig reports whether err (or anything it wraps) is an ErrConfig.
func IsConfig(err error) bool {
	_, ok := anyImplementer[ErrConfig](err)
	return ok
}

// IsModuleLoad reports whether err (or anything it wraps) is an ErrModuleLoad.
func IsModuleLoad(err error) bool {
	_, ok := anyImplementer[ErrModuleLoad](err)
	return ok
}

// IsValidationRejection reports whether err is an ErrValidationRejection.
func IsValidationRejection(err error) bool {
	_, ok := anyImplementer[ErrValidationRejection](err)
	return ok
}

// IsPolicyRejection reports whether err is an ErrPolicyRejection.
func IsPolicyRejection(err error) bool {
	_, ok := anyImplementer[ErrPolicyRejection](err)
	return ok
}

// IsCapability reports whether err is an ErrCapability.
func IsCapability(err error) bool {
	_, ok := anyImplementer[ErrCapability](err)
	return ok
}

// IsProtocol reports whether err is an ErrProtocol.
func IsProtocol(err error) bool {
	_, ok := anyImplementer[ErrProtocol](err)
	return ok
}

// anyImplementer walks err's chain (Unwrap() error, Unwrap() []error, and
// Cause() error) and returns the first error that implements T, using a
// type assertion at each step.
func anyImplementer[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if v, ok := err.(T); ok {
			return v, true
		}
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				if v, ok := anyImplementer[T](inner); ok {
					return v, true
				}
			}
			return target, false
		case interface{ Cause() error }:
			err = x.Cause()
		default:
			return target, false
		}
	}
	return target, false
}

// As is a convenience wrapper over errors.As for callers that already have a
// concrete kind in hand.
func As(err error, target any) bool { return errors.As(err, target) }
