package capability_test

// Hand-assembled minimal Wasm modules used by capability_test.go (no
// wat2wasm in this build environment; built instruction-by-instruction and
// cross-checked with a throwaway Python encoder).
//
// wasmAllValidatorsAccept exports "memory" plus every prepare_* validator,
// "validate_url", and "process_response", each taking (ptr i32, len i32)
// and returning i32. Every validator and validate_url return 1 (accept);
// process_response returns 200 (the only accepted legacy-fetch status).
var wasmAllValidatorsAccept = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x07, 0x01, 0x60,
	0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x03, 0x08, 0x07, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x05, 0x03, 0x01, 0x00, 0x01, 0x07, 0x96, 0x01, 0x08,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x10, 0x70, 0x72,
	0x65, 0x70, 0x61, 0x72, 0x65, 0x5f, 0x68, 0x74, 0x74, 0x70, 0x5f, 0x67,
	0x65, 0x74, 0x00, 0x00, 0x11, 0x70, 0x72, 0x65, 0x70, 0x61, 0x72, 0x65,
	0x5f, 0x66, 0x69, 0x6c, 0x65, 0x5f, 0x72, 0x65, 0x61, 0x64, 0x00, 0x01,
	0x12, 0x70, 0x72, 0x65, 0x70, 0x61, 0x72, 0x65, 0x5f, 0x66, 0x69, 0x6c,
	0x65, 0x5f, 0x77, 0x72, 0x69, 0x74, 0x65, 0x00, 0x02, 0x12, 0x70, 0x72,
	0x65, 0x70, 0x61, 0x72, 0x65, 0x5f, 0x73, 0x68, 0x65, 0x6c, 0x6c, 0x5f,
	0x65, 0x78, 0x65, 0x63, 0x00, 0x03, 0x16, 0x70, 0x72, 0x65, 0x70, 0x61,
	0x72, 0x65, 0x5f, 0x72, 0x65, 0x63, 0x6f, 0x6d, 0x6d, 0x65, 0x6e, 0x64,
	0x5f, 0x6d, 0x63, 0x70, 0x73, 0x00, 0x04, 0x0c, 0x76, 0x61, 0x6c, 0x69,
	0x64, 0x61, 0x74, 0x65, 0x5f, 0x75, 0x72, 0x6c, 0x00, 0x05, 0x10, 0x70,
	0x72, 0x6f, 0x63, 0x65, 0x73, 0x73, 0x5f, 0x72, 0x65, 0x73, 0x70, 0x6f,
	0x6e, 0x73, 0x65, 0x00, 0x06, 0x0a, 0x25, 0x07, 0x04, 0x00, 0x41, 0x01,
	0x0b, 0x04, 0x00, 0x41, 0x01, 0x0b, 0x04, 0x00, 0x41, 0x01, 0x0b, 0x04,
	0x00, 0x41, 0x01, 0x0b, 0x04, 0x00, 0x41, 0x01, 0x0b, 0x04, 0x00, 0x41,
	0x01, 0x0b, 0x05, 0x00, 0x41, 0xc8, 0x01, 0x0b,
}

// wasmAllValidatorsReject is the same export surface but every validator,
// validate_url, and process_response returns 0.
var wasmAllValidatorsReject = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x07, 0x01, 0x60,
	0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x03, 0x08, 0x07, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x05, 0x03, 0x01, 0x00, 0x01, 0x07, 0x96, 0x01, 0x08,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x10, 0x70, 0x72,
	0x65, 0x70, 0x61, 0x72, 0x65, 0x5f, 0x68, 0x74, 0x74, 0x70, 0x5f, 0x67,
	0x65, 0x74, 0x00, 0x00, 0x11, 0x70, 0x72, 0x65, 0x70, 0x61, 0x72, 0x65,
	0x5f, 0x66, 0x69, 0x6c, 0x65, 0x5f, 0x72, 0x65, 0x61, 0x64, 0x00, 0x01,
	0x12, 0x70, 0x72, 0x65, 0x70, 0x61, 0x72, 0x65, 0x5f, 0x66, 0x69, 0x6c,
	0x65, 0x5f, 0x77, 0x72, 0x69, 0x74, 0x65, 0x00, 0x02, 0x12, 0x70, 0x72,
	0x65, 0x70, 0x61, 0x72, 0x65, 0x5f, 0x73, 0x68, 0x65, 0x6c, 0x6c, 0x5f,
	0x65, 0x78, 0x65, 0x63, 0x00, 0x03, 0x16, 0x70, 0x72, 0x65, 0x70, 0x61,
	0x72, 0x65, 0x5f, 0x72, 0x65, 0x63, 0x6f, 0x6d, 0x6d, 0x65, 0x6e, 0x64,
	0x5f, 0x6d, 0x63, 0x70, 0x73, 0x00, 0x04, 0x0c, 0x76, 0x61, 0x6c, 0x69,
	0x64, 0x61, 0x74, 0x65, 0x5f, 0x75, 0x72, 0x6c, 0x00, 0x05, 0x10, 0x70,
	0x72, 0x6f, 0x63, 0x65, 0x73, 0x73, 0x5f, 0x72, 0x65, 0x73, 0x70, 0x6f,
	0x6e, 0x73, 0x65, 0x00, 0x06, 0x0a, 0x24, 0x07, 0x04, 0x00, 0x41, 0x00,
	0x0b, 0x04, 0x00, 0x41, 0x00, 0x0b, 0x04, 0x00, 0x41, 0x00, 0x0b, 0x04,
	0x00, 0x41, 0x00, 0x0b, 0x04, 0x00, 0x41, 0x00, 0x0b, 0x04, 0x00, 0x41,
	0x00, 0x0b, 0x04, 0x00, 0x41, 0x00, 0x0b,
}
