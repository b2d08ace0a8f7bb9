package discovery_test

// Hand-assembled minimal Wasm module exporting "add" (i32_i32_to_i32),
// "validate_url" and "process_response" (both ptr_len_to_i32,
// process_response always returning 200), "get42" (no_params_to_i32), and a
// "memory". Built the same way as wasmexec's fixtures (no wat2wasm
// available in this build environment).
var wasmMultiExportModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x0b, 0x02, 0x60,
	0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x01, 0x7f, 0x03, 0x05, 0x04,
	0x00, 0x00, 0x00, 0x01, 0x05, 0x03, 0x01, 0x00, 0x01, 0x07, 0x3a, 0x05,
	0x03, 0x61, 0x64, 0x64, 0x00, 0x00, 0x0c, 0x76, 0x61, 0x6c, 0x69, 0x64,
	0x61, 0x74, 0x65, 0x5f, 0x75, 0x72, 0x6c, 0x00, 0x01, 0x10, 0x70, 0x72,
	0x6f, 0x63, 0x65, 0x73, 0x73, 0x5f, 0x72, 0x65, 0x73, 0x70, 0x6f, 0x6e,
	0x73, 0x65, 0x00, 0x02, 0x05, 0x67, 0x65, 0x74, 0x34, 0x32, 0x00, 0x03,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x0a, 0x1c, 0x04,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, 0x07, 0x00, 0x20, 0x00,
	0x2d, 0x00, 0x00, 0x0b, 0x05, 0x00, 0x41, 0xc8, 0x01, 0x0b, 0x04, 0x00,
	0x41, 0x2a, 0x0b,
}
