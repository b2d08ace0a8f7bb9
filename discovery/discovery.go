package discovery

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/wasmexec"
)

// Table holds every discovered tool, keyed both by its internal
// "module::function" identity and discoverable by its public name.
type Table struct {
	log   *logrus.Entry
	tools map[string]Tool
}

// NewTable creates an empty Table.
func NewTable(log *logrus.Logger) *Table {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Table{
		log:   log.WithField("component", "discovery"),
		tools: make(map[string]Tool),
	}
}

// Rebuild discards every previously discovered tool and re-enumerates every
// export of every module currently instantiated in engine, using cfg for
// tool-config overrides.
func (t *Table) Rebuild(engine *wasmexec.Engine, cfg *config.Config) error {
	t.tools = make(map[string]Tool)

	for _, mc := range cfg.EnabledModules() {
		functions, err := engine.ListExportedFunctions(mc.Name)
		if err != nil {
			t.log.WithField("module", mc.Name).WithError(err).Debug("module not instantiated, skipping discovery")
			continue
		}

		if hasFunction(functions, fnValidateURL) && hasFunction(functions, fnProcessResponse) {
			t.tools["fetch"] = Tool{
				Name:         "fetch",
				ModuleName:   mc.Name,
				FunctionName: "fetch",
				Description:  "Fetch content from a URL using WASM validation and processing (from module: " + mc.Name + ")",
				Schema:       fetchSchema(),
				Signature: wasmexec.FuncSignature{
					Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
					Results: []api.ValueType{api.ValueTypeI32},
				},
				Pattern: wasmexec.PatternPtrLenToI32,
			}
		}

		for _, fn := range functions {
			if strings.HasPrefix(fn, "_") {
				continue
			}
			sig, err := engine.SignatureOf(mc.Name, fn)
			if err != nil {
				continue
			}
			tool, ok := t.analyzeFunction(mc, fn, sig)
			if !ok {
				continue
			}
			t.tools[key(mc.Name, fn)] = tool
		}
	}

	t.log.WithField("count", len(t.tools)).Info("discovered tools")
	return nil
}

func hasFunction(functions []string, name string) bool {
	for _, f := range functions {
		if f == name {
			return true
		}
	}
	return false
}

// analyzeFunction applies the priority-ordered pattern match, attaches a
// schema and description (auto-generated, then overridden by any matching
// ToolConfig), and computes the public tool name.
func (t *Table) analyzeFunction(mc config.ModuleConfig, fn string, sig wasmexec.FuncSignature) (Tool, bool) {
	pattern, ok := wasmexec.ClassifyPattern(fn, sig)
	if !ok {
		return Tool{}, false
	}

	var (
		schema      map[string]any
		description string
	)
	switch pattern {
	case wasmexec.PatternPtrLenToI32:
		if s, ok := ptrLenSchemas[fn]; ok {
			schema = s
			description = generateDescription(mc.Name, fn, ptrLenDescriptions[fn])
		} else {
			schema = defaultPtrLenSchema()
			description = generateDescription(mc.Name, fn, "Processes string data and returns an integer status")
		}
	case wasmexec.PatternI32I32ToI32:
		schema = i32I32Schema()
		description = generateDescription(mc.Name, fn, "Takes two integers and returns an integer")
	case wasmexec.PatternNoParamsToI32:
		schema = noParamsSchema()
		description = generateDescription(mc.Name, fn, "Takes no parameters and returns an integer")
	}

	if override, ok := toolConfigOverride(mc, fn); ok {
		if override.Description != "" {
			description = override.Description
		}
		if override.Parameters != nil {
			schema = override.Parameters
		}
	}

	return Tool{
		Name:         publicName(mc.Name, fn),
		ModuleName:   mc.Name,
		FunctionName: fn,
		Description:  description,
		Schema:       schema,
		Signature:    sig,
		Pattern:      pattern,
	}, true
}

// Get returns one tool by its internal "module::function" key.
func (t *Table) Get(tableKey string) (Tool, bool) {
	tool, ok := t.tools[tableKey]
	return tool, ok
}

// FindByName looks a tool up by its public name, trying an exact internal
// key match first and then scanning every tool's public Name.
func (t *Table) FindByName(name string) (Tool, bool) {
	if tool, ok := t.tools[name]; ok {
		return tool, ok
	}
	for _, tool := range t.tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return Tool{}, false
}

// All returns every discovered tool.
func (t *Table) All() []Tool {
	out := make([]Tool, 0, len(t.tools))
	for _, tool := range t.tools {
		out = append(out, tool)
	}
	return out
}

// ByModule returns every tool discovered from one module.
func (t *Table) ByModule(moduleName string) []Tool {
	var out []Tool
	for _, tool := range t.tools {
		if tool.ModuleName == moduleName {
			out = append(out, tool)
		}
	}
	return out
}

// Count returns the number of discovered tools.
func (t *Table) Count() int {
	return len(t.tools)
}

// Print logs a human-readable startup summary of every tool in t, grouped
// by module, one structured log line per module and per tool. log may be
// nil, in which case t's own logger is used.
//
// Grounded on original_source/desktop-app/src/tool_discovery.rs
// (print_discovered_tools), rendered as structured log lines rather than
// the original's box-drawing console art.
func Print(t *Table, log *logrus.Entry) {
	if log == nil {
		log = t.log
	}
	if len(t.tools) == 0 {
		log.Info("no tools discovered")
		return
	}

	byModule := make(map[string][]Tool)
	var moduleNames []string
	for _, tool := range t.All() {
		if _, ok := byModule[tool.ModuleName]; !ok {
			moduleNames = append(moduleNames, tool.ModuleName)
		}
		byModule[tool.ModuleName] = append(byModule[tool.ModuleName], tool)
	}
	sort.Strings(moduleNames)

	for _, moduleName := range moduleNames {
		tools := byModule[moduleName]
		sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
		log.WithFields(logrus.Fields{"module": moduleName, "tools": len(tools)}).Info("module tools")
		for _, tool := range tools {
			log.WithFields(logrus.Fields{
				"module":      moduleName,
				"tool":        tool.Name,
				"pattern":     tool.Pattern,
				"description": tool.Description,
			}).Info("discovered tool")
		}
	}
	log.WithField("total", len(t.tools)).Info("discovered tools summary")
}
