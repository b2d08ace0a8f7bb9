package modmanager

import (
	"bytes"
	"fmt"

	"github.com/wasmforge/wasmforge/internal/errdefs"
)

var wasmMagic = []byte{0x00, 'a', 's', 'm'}
var wasmVersion1 = []byte{0x01, 0x00, 0x00, 0x00}

// validateWasmHeader checks the 8-byte Wasm header: magic bytes followed by
// version 1.
func validateWasmHeader(data []byte) error {
	if len(data) < 8 {
		return errdefs.ModuleLoad(fmt.Errorf("invalid Wasm module: too short (%d bytes)", len(data)))
	}
	if !bytes.Equal(data[0:4], wasmMagic) {
		return errdefs.ModuleLoad(fmt.Errorf("invalid Wasm module: missing magic bytes"))
	}
	if !bytes.Equal(data[4:8], wasmVersion1) {
		return errdefs.ModuleLoad(fmt.Errorf("unsupported Wasm version"))
	}
	return nil
}
