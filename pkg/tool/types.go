package tool

import (
	"time"
)

// State represents the lifecycle state of a tool in the loader
type State string

const (
	StateUnloaded      State = "unloaded"
	StateLoading       State = "loading"
	StateLoaded        State = "loaded"
	StateLoadFailed    State = "load_failed"
	StateRunning       State = "running"
	StateIdle          State = "idle"
	StateRuntimeFailed State = "runtime_failed"
)

const (
	// DefaultEntryPoint is the entry-point file every tool directory must contain
	DefaultEntryPoint = "tool.hcl"

	// DefaultMetadataFile is the optional display metadata file
	DefaultMetadataFile = "tool.meta.yaml"

	// DefaultConfigDir is the optional per-tool configuration directory
	DefaultConfigDir = "config"

	DefaultIcon    = "🔧"
	DefaultVersion = "1.0.0"
	DefaultAuthor  = "unknown"
)

// Descriptor describes one discovered tool for catalog display
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Version     string `json:"version"`
	Author      string `json:"author"`

	Dir          string `json:"dir"`
	EntryPath    string `json:"entry_path"`
	MetadataPath string `json:"metadata_path,omitempty"` // empty when the tool has no metadata file
	ConfigDir    string `json:"config_dir,omitempty"`    // empty when the tool has no config directory

	// Warnings carries non-fatal metadata problems; defaults were substituted for them
	Warnings []string `json:"warnings,omitempty"`
}

// Metadata is the parsed content of a tool.meta.yaml file.
// Nil fields were absent or rejected during validation.
type Metadata struct {
	Name        *string
	Description *string
	Icon        *string
	Version     *string
	Author      *string
}

// StructureReport is the result of validating a tool directory layout
type StructureReport struct {
	DirectoryExists  bool `json:"directory_exists"`
	EntryPointExists bool `json:"entry_point_exists"`
	MetadataExists   bool `json:"metadata_exists"`
	ValidID          bool `json:"valid_id"`
	HasEntryFunction bool `json:"has_entry_function"`
}

// Layout names the files that make up a tool directory
type Layout struct {
	EntryPoint   string
	MetadataFile string
	ConfigDir    string
}

// DefaultLayout returns the standard tool directory layout
func DefaultLayout() Layout {
	return Layout{
		EntryPoint:   DefaultEntryPoint,
		MetadataFile: DefaultMetadataFile,
		ConfigDir:    DefaultConfigDir,
	}
}

func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.EntryPoint == "" {
		l.EntryPoint = d.EntryPoint
	}
	if l.MetadataFile == "" {
		l.MetadataFile = d.MetadataFile
	}
	if l.ConfigDir == "" {
		l.ConfigDir = d.ConfigDir
	}
	return l
}

// HandleInfo is a read-only snapshot of a cached handle
type HandleInfo struct {
	ID           string
	State        State
	Runtime      string
	LoadedAt     time.Time
	LastReloadAt *time.Time
	RunCount     int
	ErrorCount   int
	LastError    error
}

// RunResult reports the outcome of a Run or Reload call
type RunResult struct {
	ID       string
	OK       bool
	State    State
	Err      *Error
	Duration time.Duration
}

// Message returns the user-visible summary of the result
func (r RunResult) Message() string {
	if r.OK {
		return "tool " + r.ID + " finished"
	}
	if r.Err == nil {
		return "tool " + r.ID + " failed"
	}
	return r.Err.Error()
}

// Trace returns the full diagnostic trace, if one was captured.
// Hosts should only show it when the user asks for it.
func (r RunResult) Trace() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Trace
}
