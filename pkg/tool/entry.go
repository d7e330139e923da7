package tool

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// entryConfig is the HCL shape of a tool.hcl file
type entryConfig struct {
	Handler  string    `hcl:"handler,optional"`
	Command  string    `hcl:"command,optional"`
	Args     []string  `hcl:"args,optional"`
	Settings cty.Value `hcl:"settings,optional"`
}

// Entry is a decoded entry-point file
type Entry struct {
	ID        string
	Path      string
	Dir       string
	ConfigDir string // resolved from the layout, may not exist
	Handler   string
	Command   string
	Args      []string
	Settings  map[string]any
}

// Declared reports whether the entry names something that can render
func (e *Entry) Declared() bool {
	return e.Handler != "" || e.Command != ""
}

// EntryVars are the variables visible to expressions in tool.hcl
type EntryVars struct {
	ToolID    string
	ToolDir   string
	ConfigDir string
}

func (v EntryVars) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"tool_id":    cty.StringVal(v.ToolID),
			"tool_dir":   cty.StringVal(v.ToolDir),
			"config_dir": cty.StringVal(v.ConfigDir),
		},
	}
}

// ParseEntry parses and decodes the entry-point file at path.
// Every returned error is a syntax or decoding problem in the file.
func ParseEntry(path string, vars EntryVars) (*Entry, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
	}

	var cfg entryConfig
	diags = gohcl.DecodeBody(file.Body, vars.evalContext(), &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", path, diags.Error())
	}

	settings, err := decodeSettings(cfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings in %s: %w", path, err)
	}

	return &Entry{
		ID:        vars.ToolID,
		Path:      path,
		Dir:       vars.ToolDir,
		ConfigDir: vars.ConfigDir,
		Handler:   cfg.Handler,
		Command:   cfg.Command,
		Args:      cfg.Args,
		Settings:  settings,
	}, nil
}

// decodeSettings converts the settings object into plain Go values
func decodeSettings(v cty.Value) (map[string]any, error) {
	if v.IsNull() {
		return map[string]any{}, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("settings contain unknown values")
	}

	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("settings must be an object, got %s", ty.FriendlyName())
	}

	data, err := ctyjson.Marshal(v, ty)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	settings := map[string]any{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to convert settings: %w", err)
	}
	return settings, nil
}

// SettingString returns a string setting or fallback when absent
func (e *Entry) SettingString(key, fallback string) string {
	if v, ok := e.Settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
