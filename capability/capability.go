// Package capability implements the host-side I/O primitives gated by
// guest Wasm validation: HTTP GET, legacy two-stage fetch, file read/write,
// bounded subprocess execution, and the tool-recommendation engine.
//
// Every exported function here follows the dual-validation contract: the
// guest validator must return 1 before the host does anything, and the
// host then applies its own independent policy.
//
// Grounded on original_source/desktop-app/src/wasm_executor.rs
// (*_with_validation methods) and main.rs (handle_tool_call branch
// bodies).
package capability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"

	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/discovery"
	"github.com/wasmforge/wasmforge/internal/errdefs"
	"github.com/wasmforge/wasmforge/wasmexec"
)

const (
	userAgent           = "WasmForge/0.1.0"
	httpGetTimeout      = 30 * time.Second
	fileReadMaxBytes    = 1 << 20  // 1 MiB
	fileWriteMaxBytes   = 10 << 20 // 10 MiB
	shellExecTimeout    = 10 * time.Second
	outputTruncateBytes = 4096
)

var defaultAllowedCommands = []string{"echo", "cat", "ls", "wc", "uname"}

// DefaultAllowedCommands returns the built-in shell-exec allow-list applied
// when a module declares neither a tool security config nor metadata CSV.
func DefaultAllowedCommands() []string {
	out := make([]string, len(defaultAllowedCommands))
	copy(out, defaultAllowedCommands)
	return out
}

// Executor binds discovered tools to concrete host I/O, consulting the
// engine for guest-side validation calls.
type Executor struct {
	engine *wasmexec.Engine
	client *http.Client
	log    *logrus.Entry
}

// NewExecutor creates an Executor backed by engine. log may be nil, in
// which case the standard logger is used.
func NewExecutor(engine *wasmexec.Engine, log *logrus.Logger) *Executor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Executor{
		engine: engine,
		client: &http.Client{},
		log:    log.WithField("component", "capability"),
	}
}

func validateOne(ctx context.Context, engine *wasmexec.Engine, moduleName, validatorFunc string, input []byte) error {
	result, err := engine.CallPtrLenToI32(ctx, moduleName, validatorFunc, input)
	if err != nil {
		return errdefs.Capability(fmt.Errorf("guest validator %s.%s: %w", moduleName, validatorFunc, err))
	}
	if result != 1 {
		return errdefs.ValidationRejection(fmt.Errorf("rejected by guest validator %s.%s", moduleName, validatorFunc))
	}
	return nil
}

// HTTPGet performs the "prepare_http_get" capability: the guest validates
// the URL, then the host issues a GET with a 30-second timeout and a fixed
// User-Agent. Non-2xx responses fail.
func (e *Executor) HTTPGet(ctx context.Context, moduleName, url string) (string, error) {
	if err := validateOne(ctx, e.engine, moduleName, "prepare_http_get", []byte(url)); err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, httpGetTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("build request for %s: %w", url, err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("fetch URL %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errdefs.Capability(fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("read response body: %w", err))
	}
	e.log.WithFields(logrus.Fields{"module": moduleName, "url": url, "size": units.HumanSize(float64(len(body)))}).Debug("HTTP GET completed")
	return string(body), nil
}

// LegacyFetch performs the "fetch" composite capability: the guest
// validates the URL, the host fetches it (no timeout, for parity with
// origin behaviour), and the guest's process_response classifies the body;
// only status 200 from that call is accepted.
func (e *Executor) LegacyFetch(ctx context.Context, moduleName, url string) (string, error) {
	if err := validateOne(ctx, e.engine, moduleName, "validate_url", []byte(url)); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("build request for %s: %w", url, err))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("fetch URL %s: %w", url, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("read response body: %w", err))
	}

	status, err := e.engine.CallPtrLenToI32(ctx, moduleName, "process_response", body)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("guest process_response: %w", err))
	}
	if status != 200 {
		return "", errdefs.ValidationRejection(fmt.Errorf("guest process_response rejected with status: %d", status))
	}
	return string(body), nil
}

// ReadFile performs the "prepare_file_read" capability: the guest
// validates the path, then the host reads the file as UTF-8, rejecting
// content larger than 1 MiB.
func (e *Executor) ReadFile(ctx context.Context, moduleName, path string) (string, error) {
	if err := validateOne(ctx, e.engine, moduleName, "prepare_file_read", []byte(path)); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errdefs.Capability(fmt.Errorf("read file %s: %w", path, err))
	}
	if len(data) > fileReadMaxBytes {
		return "", errdefs.Capability(fmt.Errorf("file too large: %d bytes", len(data)))
	}
	e.log.WithFields(logrus.Fields{"module": moduleName, "path": path, "size": units.HumanSize(float64(len(data)))}).Debug("file read completed")
	return string(data), nil
}

// WriteFile performs the "prepare_file_write" capability: the guest
// validates the path, the host rejects content larger than 10 MiB, writes
// the file, and returns a success message naming the byte count.
func (e *Executor) WriteFile(ctx context.Context, moduleName, path, content string) (string, error) {
	if err := validateOne(ctx, e.engine, moduleName, "prepare_file_write", []byte(path)); err != nil {
		return "", err
	}
	if len(content) > fileWriteMaxBytes {
		return "", errdefs.Capability(fmt.Errorf("content too large: %d bytes (max 10MB)", len(content)))
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errdefs.Capability(fmt.Errorf("write file %s: %w", path, err))
	}
	e.log.WithFields(logrus.Fields{"module": moduleName, "path": path, "size": units.HumanSize(float64(len(content)))}).Debug("file write completed")
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

// ResolveAllowedCommands resolves the shell-exec allow-list: per-tool
// security config, then module metadata CSV, then the built-in defaults.
// The first non-empty list wins.
func ResolveAllowedCommands(mc config.ModuleConfig) []string {
	if tc, ok := findToolConfig(mc, "prepare_shell_exec"); ok && tc.Security != nil && len(tc.Security.AllowedCommands) > 0 {
		return tc.Security.AllowedCommands
	}
	if csv, ok := mc.Metadata["allowed_commands_csv"]; ok {
		parsed := parseCSVCommands(csv)
		if len(parsed) > 0 {
			return parsed
		}
	}
	return defaultAllowedCommands
}

func findToolConfig(mc config.ModuleConfig, functionName string) (config.ToolConfig, bool) {
	for _, tc := range mc.Tools {
		if tc.FunctionName == functionName {
			return tc, true
		}
	}
	return config.ToolConfig{}, false
}

func parseCSVCommands(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		p := strings.TrimSpace(part)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ShellExecResult is the formatted outcome of a subprocess capability call.
type ShellExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Format renders the result the way the dispatcher embeds it in a tool
// reply.
func (r ShellExecResult) Format() string {
	return fmt.Sprintf(
		"Shell execution completed.\nExit code: %d\n\nSTDOUT (truncated):\n%s\n\nSTDERR (truncated):\n%s",
		r.ExitCode, r.Stdout, r.Stderr)
}

// ExecuteShell performs the "prepare_shell_exec" capability: the guest
// validates the raw command text, the host splits on whitespace, checks
// the first token against allowedCommands, and spawns the program with the
// remaining tokens as argv — no shell interpretation — enforcing a
// 10-second wall-clock timeout and truncating stdout/stderr to 4096 bytes.
func (e *Executor) ExecuteShell(ctx context.Context, moduleName, command string, allowedCommands []string) (ShellExecResult, error) {
	if err := validateOne(ctx, e.engine, moduleName, "prepare_shell_exec", []byte(command)); err != nil {
		return ShellExecResult{}, err
	}

	tokens := strings.Fields(command)
	if len(tokens) == 0 {
		return ShellExecResult{}, errdefs.Capability(fmt.Errorf("empty command"))
	}

	program := tokens[0]
	if !contains(allowedCommands, program) {
		return ShellExecResult{}, errdefs.PolicyRejection(fmt.Errorf("command %q is not allowed", program))
	}
	e.log.WithFields(logrus.Fields{"module": moduleName, "command": program}).Debug("executing shell command")

	execCtx, cancel := context.WithTimeout(ctx, shellExecTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, program, tokens[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return ShellExecResult{}, errdefs.Capability(fmt.Errorf("command timed out after %s", shellExecTimeout))
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return ShellExecResult{}, errdefs.Capability(fmt.Errorf("spawn command %s: %w", program, runErr))
		}
	}

	return ShellExecResult{
		ExitCode: exitCode,
		Stdout:   truncate(stdout.String(), outputTruncateBytes),
		Stderr:   truncate(stderr.String(), outputTruncateBytes),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// RecommendationCategory is one grouping in a "prepare_recommend_mcps"
// reply.
type RecommendationCategory struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Methods     []MethodSummary `json:"methods"`
}

// MethodSummary is one tool surfaced inside a RecommendationCategory.
type MethodSummary struct {
	Name        string         `json:"name"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Recommend performs the "prepare_recommend_mcps" capability: the guest
// validates the task text, then the host classifies it into categories by
// keyword membership against the discovered-tools set.
func (e *Executor) Recommend(ctx context.Context, moduleName, task string, table *discovery.Table) ([]RecommendationCategory, error) {
	if err := validateOne(ctx, e.engine, moduleName, "prepare_recommend_mcps", []byte(task)); err != nil {
		return nil, err
	}

	query := strings.ToLower(task)
	hasFn := func(name string) bool {
		for _, t := range table.All() {
			if t.FunctionName == name {
				return true
			}
		}
		return false
	}
	collect := func(names ...string) []MethodSummary {
		var out []MethodSummary
		for _, t := range table.All() {
			for _, n := range names {
				if t.FunctionName == n {
					out = append(out, MethodSummary{Name: t.Name, InputSchema: t.Schema})
				}
			}
		}
		return out
	}
	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(query, w) {
				return true
			}
		}
		return false
	}

	var categories []RecommendationCategory

	if hasFn("prepare_http_get") && containsAny("download", "fetch", "http", "https", "url", "get", "retrieve", "request") {
		categories = append(categories, RecommendationCategory{
			Name:        "web_browser",
			Description: "Fetch content via HTTP GET with WASM validation",
			Methods:     collect("prepare_http_get"),
		})
	}
	if (hasFn("prepare_file_read") || hasFn("prepare_file_write")) && containsAny("save", "file", "write", "read", "open", "load", "store") {
		categories = append(categories, RecommendationCategory{
			Name:        "file_ops",
			Description: "Read and write files with WASM path validation",
			Methods:     collect("prepare_file_read", "prepare_file_write"),
		})
	}
	if hasFn("prepare_shell_exec") && containsAny("shell", "bash", "command", "execute", "run", "ls", "echo", "cat", "wc", "uname", "terminal") {
		categories = append(categories, RecommendationCategory{
			Name:        "shell_executor",
			Description: "Execute simple whitelisted shell commands with WASM validation",
			Methods:     collect("prepare_shell_exec"),
		})
	}

	if len(categories) == 0 {
		if hasFn("prepare_http_get") {
			categories = append(categories, RecommendationCategory{
				Name:        "web_browser",
				Description: "Fetch content via HTTP GET with WASM validation",
				Methods:     collect("prepare_http_get"),
			})
		}
		if hasFn("prepare_file_read") || hasFn("prepare_file_write") {
			categories = append(categories, RecommendationCategory{
				Name:        "file_ops",
				Description: "Read and write files with WASM path validation",
				Methods:     collect("prepare_file_read", "prepare_file_write"),
			})
		}
		if hasFn("prepare_shell_exec") {
			categories = append(categories, RecommendationCategory{
				Name:        "shell_executor",
				Description: "Execute simple whitelisted shell commands with WASM validation",
				Methods:     collect("prepare_shell_exec"),
			})
		}
	}

	return categories, nil
}
