// Package discovery turns the set of exported functions across every
// instantiated Wasm module into a table of RPC-describable tools: it
// classifies each export's signature into a calling-convention pattern,
// attaches a JSON Schema, applies the public naming rule, and synthesizes
// the composite "fetch" tool when a module exports both halves of the
// legacy two-stage fetch pair.
//
// Grounded on original_source/desktop-app/src/tool_discovery.rs.
package discovery

import (
	"strings"

	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/wasmexec"
)

// Tool is one RPC-describable unit of work, bound to a (module, function)
// export or a synthetic composite.
type Tool struct {
	Name         string
	ModuleName   string
	FunctionName string
	Description  string
	Schema       map[string]any
	Signature    wasmexec.FuncSignature
	Pattern      wasmexec.Pattern
}

// key is how tools are stored internally: "<module>::<function>", except
// the synthetic "fetch" tool which is keyed by its own name.
func key(moduleName, functionName string) string {
	return moduleName + "::" + functionName
}

// publicName applies the tool naming rule: the bare function name for the
// bundled "test-module" (kept for backwards compatibility with early
// clients), otherwise a module-qualified name with hyphens folded to
// underscores.
func publicName(moduleName, functionName string) string {
	if moduleName == "test-module" {
		return functionName
	}
	return strings.ReplaceAll(moduleName, "-", "_") + "_" + functionName
}

// tools named per the composite fetch synthesis rule and the two
// validator/processor functions it is wired to.
const (
	fnValidateURL     = "validate_url"
	fnProcessResponse = "process_response"
)

var ptrLenSchemas = map[string]map[string]any{
	"validate_url": {
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "The URL to validate"},
		},
		"required": []string{"url"},
	},
	"prepare_http_get": {
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "The URL to fetch via HTTP GET request"},
		},
		"required": []string{"url"},
	},
	"prepare_file_read": {
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "The file path to read"},
		},
		"required": []string{"path"},
	},
	"prepare_file_write": {
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "The file path to write to"},
			"content": map[string]any{"type": "string", "description": "The content to write to the file"},
		},
		"required": []string{"path", "content"},
	},
	"prepare_shell_exec": {
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string", "description": "The shell command to execute (validated by WASM and host)"},
		},
		"required": []string{"command"},
	},
	"prepare_recommend_mcps": {
		"type": "object",
		"properties": map[string]any{
			"task": map[string]any{"type": "string", "description": "Describe your task and we'll recommend suitable tools"},
		},
		"required": []string{"task"},
	},
}

var ptrLenDescriptions = map[string]string{
	"prepare_http_get":       "Fetch content from a URL using async HTTP GET with WASM validation",
	"prepare_file_read":      "Read file content with WASM path validation",
	"prepare_file_write":     "Write content to file with WASM path validation",
	"prepare_shell_exec":     "Execute a simple shell command with WASM validation",
	"prepare_recommend_mcps": "Recommend relevant MCP tools based on a task description",
}

func defaultPtrLenSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"data": map[string]any{"type": "string", "description": "Data to process"},
		},
		"required": []string{"data"},
	}
}

func i32I32Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number", "description": "First integer parameter"},
			"b": map[string]any{"type": "number", "description": "Second integer parameter"},
		},
		"required": []string{"a", "b"},
	}
}

func noParamsSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

func fetchSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "The URL to fetch"},
		},
		"required": []string{"url"},
	}
}

// namedDescriptions maps well-known function names to a friendlier
// one-liner.
var namedDescriptions = map[string]string{
	"add":                    "Add two numbers using WebAssembly",
	"subtract":               "Subtract two numbers using WebAssembly",
	"sub":                    "Subtract two numbers using WebAssembly",
	"multiply":               "Multiply two numbers using WebAssembly",
	"mul":                    "Multiply two numbers using WebAssembly",
	"divide":                 "Divide two numbers using WebAssembly",
	"div":                    "Divide two numbers using WebAssembly",
	"validate_url":           "Validate URL format using WebAssembly",
	"process_response":       "Process HTTP response using WebAssembly",
	"prepare_http_get":       "Fetch content from a URL using async HTTP GET with WASM validation",
	"prepare_file_read":      "Read file content with WASM path validation",
	"prepare_file_write":     "Write content to file with WASM path validation",
	"prepare_shell_exec":     "Execute a simple shell command with WASM validation",
	"prepare_recommend_mcps": "Recommend relevant MCP tools based on a task description",
	"hash":                   "Calculate hash of input data",
	"sha256":                 "Calculate hash of input data",
	"encrypt":                "Encrypt data using WebAssembly",
	"decrypt":                "Decrypt data using WebAssembly",
	"compress":               "Compress data using WebAssembly",
	"decompress":             "Decompress data using WebAssembly",
}

// generateDescription runs a best-effort name-based description generator,
// falling back to a substring match and finally to the caller-supplied
// default.
func generateDescription(moduleName, functionName, fallback string) string {
	desc, ok := namedDescriptions[functionName]
	if !ok {
		switch {
		case strings.Contains(functionName, "validate"):
			desc = "Validate input data using WebAssembly"
		case strings.Contains(functionName, "process"):
			desc = "Process input data using WebAssembly"
		case strings.Contains(functionName, "parse"):
			desc = "Parse input data using WebAssembly"
		case strings.Contains(functionName, "format"):
			desc = "Format input data using WebAssembly"
		default:
			desc = fallback
		}
	}
	return desc + " (from module: " + moduleName + ")"
}

// toolConfigOverride looks up a ToolConfig by the guest export it
// describes. Matching happens on function_name, mirroring
// tool_discovery.rs's `module_tools.get(function_name)`; the config's own
// tool.name is not used, neither for matching nor as the public name.
func toolConfigOverride(mc config.ModuleConfig, functionName string) (config.ToolConfig, bool) {
	for _, tc := range mc.Tools {
		if tc.FunctionName == functionName {
			return tc, true
		}
	}
	return config.ToolConfig{}, false
}
