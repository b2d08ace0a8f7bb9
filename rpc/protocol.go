// Package rpc implements the JSON-RPC 2.0 line-delimited tool-invocation
// protocol: request/response envelopes, method routing for "initialize",
// "tools/list", and "tools/call", and the pattern-based dispatch that turns
// a tool call into a wasmexec/capability invocation and a formatted text
// reply.
//
// Grounded on original_source/desktop-app/src/main.rs
// (MCPRequest/MCPResponse, handle_mcp_message, handle_tool_call).
package rpc

import "encoding/json"

// Request is one line of the JSON-RPC request stream.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one line of the JSON-RPC response stream. Result and Error
// are mutually exclusive.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeMethodNotFound = -32601
	codeServerError    = -32000
)

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ResponseError{Code: code, Message: message},
	}
}

func resultResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

// textContent wraps a reply the way every tools/call success result is
// shaped: a single text content block.
func textContent(text string) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
	}
}
