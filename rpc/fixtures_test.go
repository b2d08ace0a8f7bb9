package rpc_test

// Hand-assembled minimal Wasm module exporting "memory", "add"
// (i32_i32_to_i32), "get42" (no_params_to_i32), and "validate_url"
// (ptr_len_to_i32, always accepting). Built the same way as wasmexec's
// fixtures (no wat2wasm in this build environment).
var wasmDemoModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x0b, 0x02, 0x60,
	0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x01, 0x7f, 0x03, 0x04, 0x03,
	0x00, 0x01, 0x00, 0x05, 0x03, 0x01, 0x00, 0x01, 0x07, 0x27, 0x04, 0x06,
	0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x03, 0x61, 0x64, 0x64,
	0x00, 0x00, 0x05, 0x67, 0x65, 0x74, 0x34, 0x32, 0x00, 0x01, 0x0c, 0x76,
	0x61, 0x6c, 0x69, 0x64, 0x61, 0x74, 0x65, 0x5f, 0x75, 0x72, 0x6c, 0x00,
	0x02, 0x0a, 0x13, 0x03, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
	0x04, 0x00, 0x41, 0x2a, 0x0b, 0x04, 0x00, 0x41, 0x01, 0x0b,
}
