package wasmexec

import "github.com/tetratelabs/wazero/api"

// Pattern is one of the three calling conventions the discovery engine
// recognises among guest exports.
type Pattern string

const (
	PatternI32I32ToI32   Pattern = "i32_i32_to_i32"
	PatternPtrLenToI32   Pattern = "ptr_len_to_i32"
	PatternNoParamsToI32 Pattern = "no_params_to_i32"
)

// FuncSignature mirrors a Wasm function type: the value types of its
// parameters and results.
type FuncSignature struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// signatureOfFunc extracts a FuncSignature from a wazero exported function
// definition.
func signatureOfFunc(fn api.Function) FuncSignature {
	def := fn.Definition()
	return FuncSignature{
		Params:  append([]api.ValueType(nil), def.ParamTypes()...),
		Results: append([]api.ValueType(nil), def.ResultTypes()...),
	}
}

// isTwoI32ToI32 reports whether sig matches the two-I32-param,
// one-I32-result shape shared by i32_i32_to_i32 and ptr_len_to_i32.
func isTwoI32ToI32(sig FuncSignature) bool {
	return len(sig.Params) == 2 &&
		sig.Params[0] == api.ValueTypeI32 &&
		sig.Params[1] == api.ValueTypeI32 &&
		len(sig.Results) == 1 &&
		sig.Results[0] == api.ValueTypeI32
}

// isNoParamsToI32 reports whether sig takes nothing and returns one I32.
func isNoParamsToI32(sig FuncSignature) bool {
	return len(sig.Params) == 0 &&
		len(sig.Results) == 1 &&
		sig.Results[0] == api.ValueTypeI32
}

// ptrLenNames is the closed set of export names that, when their signature
// is two-I32-to-I32, are interpreted as (ptr, len) rather than (a, b). The
// host cannot distinguish the two shapes any other way.
var ptrLenNames = map[string]bool{
	"validate_url":          true,
	"process_response":      true,
	"prepare_http_get":      true,
	"prepare_file_read":     true,
	"prepare_file_write":    true,
	"prepare_shell_exec":    true,
	"prepare_recommend_mcps": true,
}

// ClassifyPattern applies the discovery engine's priority order: name-based
// ptr/len disambiguation first, then the remaining two-I32 and zero-I32
// shapes. Returns ok=false if the signature matches none of the three
// patterns. The "_" name prefix is not checked here; the discovery engine
// skips such exports before calling this.
func ClassifyPattern(name string, sig FuncSignature) (Pattern, bool) {
	if isTwoI32ToI32(sig) {
		if ptrLenNames[name] {
			return PatternPtrLenToI32, true
		}
		return PatternI32I32ToI32, true
	}
	if isNoParamsToI32(sig) {
		return PatternNoParamsToI32, true
	}
	return "", false
}
