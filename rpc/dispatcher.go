package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wasmforge/wasmforge/capability"
	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/discovery"
	"github.com/wasmforge/wasmforge/internal/errdefs"
	"github.com/wasmforge/wasmforge/wasmexec"
)

// Dispatcher routes one decoded Request to the right handler. It holds no
// per-connection state; callers serialize concurrent access to the shared
// engine/table/config themselves (see the server package's transports).
type Dispatcher struct {
	engine *wasmexec.Engine
	table  *discovery.Table
	exec   *capability.Executor
	cfg    *config.Config
	log    *logrus.Entry
}

// NewDispatcher creates a Dispatcher over the given components.
func NewDispatcher(engine *wasmexec.Engine, table *discovery.Table, exec *capability.Executor, cfg *config.Config, log *logrus.Logger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		engine: engine,
		table:  table,
		exec:   exec,
		cfg:    cfg,
		log:    log.WithField("component", "rpc"),
	}
}

// Handle routes req to its method handler, never returning an error itself:
// every failure is folded into a JSON-RPC error Response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(req)
	case "tools/list":
		return d.handleToolsList(req)
	case "tools/call":
		return d.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found")
	}
}

func (d *Dispatcher) handleInitialize(req Request) Response {
	return resultResponse(req.ID, map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo": map[string]any{
			"name":    d.cfg.Server.Name,
			"version": d.cfg.Server.Version,
		},
	})
}

func (d *Dispatcher) handleToolsList(req Request) Response {
	tools := make([]map[string]any, 0, d.table.Count())
	for _, tool := range d.table.All() {
		tools = append(tools, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.Schema,
		})
	}
	return resultResponse(req.ID, map[string]any{"tools": tools})
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req Request) Response {
	text, err := d.callTool(ctx, req.Params)
	if err != nil {
		return errorResponse(req.ID, codeServerError, err.Error())
	}
	return resultResponse(req.ID, textContent(text))
}

func (d *Dispatcher) callTool(ctx context.Context, rawParams json.RawMessage) (string, error) {
	if len(rawParams) == 0 {
		return "", errdefs.Protocol(fmt.Errorf("missing parameters"))
	}
	var params toolCallParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return "", errdefs.Protocol(fmt.Errorf("decode tool call parameters: %w", err))
	}
	if params.Name == "" {
		return "", errdefs.Protocol(fmt.Errorf("missing tool name"))
	}
	if params.Arguments == nil {
		return "", errdefs.Protocol(fmt.Errorf("missing arguments"))
	}

	tool, ok := d.table.FindByName(params.Name)
	if !ok {
		return "", errdefs.Protocol(fmt.Errorf("unknown tool: %s", params.Name))
	}

	return d.invoke(ctx, tool, params.Arguments)
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing or invalid parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("missing or invalid parameter %q", key)
	}
	return s, nil
}

func numberArg(args map[string]any, key string) (int32, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing or invalid parameter %q", key)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("missing or invalid parameter %q", key)
	}
	return int32(n), nil
}

// invoke dispatches by calling-convention pattern, mirroring
// handle_tool_call's branch structure exactly, including the
// function-name-based special cases inside ptr_len_to_i32.
func (d *Dispatcher) invoke(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	switch tool.Pattern {
	case wasmexec.PatternI32I32ToI32:
		return d.invokeI32I32(ctx, tool, args)
	case wasmexec.PatternNoParamsToI32:
		return d.invokeNoParams(ctx, tool)
	case wasmexec.PatternPtrLenToI32:
		return d.invokePtrLen(ctx, tool, args)
	default:
		return "", errdefs.Protocol(fmt.Errorf("unsupported function pattern: %s", tool.Pattern))
	}
}

func (d *Dispatcher) invokeI32I32(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	a, err := numberArg(args, "a")
	if err != nil {
		return "", errdefs.Protocol(err)
	}
	b, err := numberArg(args, "b")
	if err != nil {
		return "", errdefs.Protocol(err)
	}
	result, err := d.engine.CallI32I32ToI32(ctx, tool.ModuleName, tool.FunctionName, uint32(a), uint32(b))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WASM calculation result: %d (from %s::%s)", int32(result), tool.ModuleName, tool.FunctionName), nil
}

func (d *Dispatcher) invokeNoParams(ctx context.Context, tool discovery.Tool) (string, error) {
	result, err := d.engine.CallNoParamsToI32(ctx, tool.ModuleName, tool.FunctionName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WASM result: %d (from %s::%s)", int32(result), tool.ModuleName, tool.FunctionName), nil
}

func truncatePreview(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}

func (d *Dispatcher) invokePtrLen(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	switch tool.FunctionName {
	case "validate_url":
		return d.invokeValidateURL(ctx, tool, args)
	case "prepare_http_get":
		return d.invokeHTTPGet(ctx, tool, args)
	case "prepare_file_read":
		return d.invokeFileRead(ctx, tool, args)
	case "prepare_file_write":
		return d.invokeFileWrite(ctx, tool, args)
	case "prepare_shell_exec":
		return d.invokeShellExec(ctx, tool, args)
	case "prepare_recommend_mcps":
		return d.invokeRecommend(ctx, tool, args)
	}
	if tool.Name == "fetch" {
		return d.invokeLegacyFetch(ctx, tool, args)
	}
	return d.invokeGenericPtrLen(ctx, tool, args)
}

func (d *Dispatcher) invokeValidateURL(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	url, err := stringArg(args, "url")
	if err != nil {
		return "", errdefs.Protocol(err)
	}
	result, err := d.engine.CallPtrLenToI32(ctx, tool.ModuleName, tool.FunctionName, []byte(url))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("URL validation result: %d (1=valid, 0=invalid)", result), nil
}

func (d *Dispatcher) invokeHTTPGet(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	url, err := stringArg(args, "url")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("missing URL parameter"))
	}
	content, err := d.exec.HTTPGet(ctx, tool.ModuleName, url)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("HTTP GET successful!\nURL: %s\nContent length: %d bytes\n\nContent preview (first 500 chars):\n%s",
		url, len(content), truncatePreview(content)), nil
}

func (d *Dispatcher) invokeFileRead(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("missing path parameter"))
	}
	content, err := d.exec.ReadFile(ctx, tool.ModuleName, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("File read successful!\nPath: %s\nContent length: %d bytes\n\nContent:\n%s",
		path, len(content), content), nil
}

func (d *Dispatcher) invokeFileWrite(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("missing path parameter"))
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("missing content parameter"))
	}
	result, err := d.exec.WriteFile(ctx, tool.ModuleName, path, content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("File write successful!\nPath: %s\nContent length: %d bytes\nResult: %s",
		path, len(content), result), nil
}

func (d *Dispatcher) invokeShellExec(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("missing command parameter"))
	}

	allowed := capability.DefaultAllowedCommands()
	if mc, ok := d.cfg.FindModule(tool.ModuleName); ok {
		allowed = capability.ResolveAllowedCommands(mc)
	}

	result, err := d.exec.ExecuteShell(ctx, tool.ModuleName, command, allowed)
	if err != nil {
		return "", err
	}
	return result.Format(), nil
}

func (d *Dispatcher) invokeLegacyFetch(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	url, err := stringArg(args, "url")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("missing URL parameter"))
	}
	content, err := d.exec.LegacyFetch(ctx, tool.ModuleName, url)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("URL: %s\n\nContent (first 500 chars):\n%s", url, truncatePreview(content)), nil
}

func (d *Dispatcher) invokeRecommend(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	task, err := stringArg(args, "task")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("missing task parameter"))
	}
	categories, err := d.exec.Recommend(ctx, tool.ModuleName, task, d.table)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return "", errdefs.Protocol(fmt.Errorf("encode recommendations: %w", err))
	}
	return string(out), nil
}

func (d *Dispatcher) invokeGenericPtrLen(ctx context.Context, tool discovery.Tool, args map[string]any) (string, error) {
	data, err := stringArg(args, "data")
	if err != nil {
		return "", errdefs.Protocol(err)
	}
	result, err := d.engine.CallPtrLenToI32(ctx, tool.ModuleName, tool.FunctionName, []byte(data))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WASM processing result: %d (from %s::%s)", result, tool.ModuleName, tool.FunctionName), nil
}
