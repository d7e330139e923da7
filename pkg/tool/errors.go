package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID is returned when a tool identifier contains characters outside [A-Za-z0-9_]
	ErrInvalidID = errors.New("invalid tool id")

	// ErrNotFound is returned when no tool directory or entry-point file exists for an id
	ErrNotFound = errors.New("tool not found")

	// ErrLoadFailed is returned when the entry-point file cannot be parsed, resolved or initialized
	ErrLoadFailed = errors.New("tool failed to load")

	// ErrMissingEntryPoint is returned when a loaded tool does not expose a renderer
	ErrMissingEntryPoint = errors.New("tool has no render entry point")

	// ErrRuntimeFailed is returned when a tool's render call returns an error or panics
	ErrRuntimeFailed = errors.New("tool failed while running")

	// ErrMetadataInvalid marks a malformed metadata file. It is only reported as a descriptor warning.
	ErrMetadataInvalid = errors.New("invalid tool metadata")
)

// Kind classifies a tool error
type Kind string

const (
	KindInvalidID         Kind = "InvalidId"
	KindNotFound          Kind = "NotFound"
	KindLoadFailed        Kind = "LoadFailed"
	KindMissingEntryPoint Kind = "MissingEntryPoint"
	KindRuntimeFailed     Kind = "RuntimeFailed"
	KindMetadataInvalid   Kind = "MetadataInvalid"
)

// Stage identifies where a load failed
type Stage string

const (
	StageParse   Stage = "parse"
	StageResolve Stage = "resolve"
	StageInit    Stage = "init"
)

var kindSentinels = map[Kind]error{
	KindInvalidID:         ErrInvalidID,
	KindNotFound:          ErrNotFound,
	KindLoadFailed:        ErrLoadFailed,
	KindMissingEntryPoint: ErrMissingEntryPoint,
	KindRuntimeFailed:     ErrRuntimeFailed,
	KindMetadataInvalid:   ErrMetadataInvalid,
}

// Error is a classified tool failure
type Error struct {
	Kind  Kind
	ID    string
	Stage Stage // set for LoadFailed only
	Err   error

	// Trace is the diagnostic detail (panic stack or full error chain)
	Trace string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("tool %q: %s", e.ID, kindSentinels[e.Kind])
	if e.Stage != "" {
		msg += " (" + string(e.Stage) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

func newError(kind Kind, id string, err error) *Error {
	return &Error{Kind: kind, ID: id, Err: err}
}

func loadError(id string, stage Stage, err error) *Error {
	return &Error{Kind: KindLoadFailed, ID: id, Stage: stage, Err: err}
}

// AsError extracts a *Error from err's chain
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
