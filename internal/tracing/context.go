package tracing

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// RunIDKey is the context key for the ID of a single tool run
	RunIDKey ContextKey = "run_id"
	// ToolIDKey is the context key for the running tool
	ToolIDKey ContextKey = "tool_id"
	// CommandKey is the context key for the CLI command that started the work
	CommandKey ContextKey = "command"
)

// TraceContext holds tracing information
type TraceContext struct {
	TraceID string
	RunID   string
	ToolID  string
	Command string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewRunID generates a new run ID
func NewRunID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithToolID adds a tool ID to the context
func WithToolID(ctx context.Context, toolID string) context.Context {
	return context.WithValue(ctx, ToolIDKey, toolID)
}

// WithCommand adds the CLI command name to the context
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, CommandKey, command)
}

func getString(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

// GetRunID retrieves the run ID from the context
func GetRunID(ctx context.Context) string {
	return getString(ctx, RunIDKey)
}

// GetToolID retrieves the tool ID from the context
func GetToolID(ctx context.Context) string {
	return getString(ctx, ToolIDKey)
}

// GetCommand retrieves the CLI command name from the context
func GetCommand(ctx context.Context) string {
	return getString(ctx, CommandKey)
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID: GetTraceID(ctx),
		RunID:   GetRunID(ctx),
		ToolID:  GetToolID(ctx),
		Command: GetCommand(ctx),
	}
}

// NewContext creates a new context with tracing information
func NewContext(ctx context.Context, tc *TraceContext) context.Context {
	if tc.TraceID != "" {
		ctx = WithTraceID(ctx, tc.TraceID)
	}
	if tc.RunID != "" {
		ctx = WithRunID(ctx, tc.RunID)
	}
	if tc.ToolID != "" {
		ctx = WithToolID(ctx, tc.ToolID)
	}
	if tc.Command != "" {
		ctx = WithCommand(ctx, tc.Command)
	}
	return ctx
}

// NewCommandContext starts a trace for one CLI invocation
func NewCommandContext(ctx context.Context, command string) context.Context {
	ctx = WithTraceID(ctx, NewTraceID())
	return WithCommand(ctx, command)
}

// NewToolRunContext creates a context for one tool run with a fresh run ID.
// The trace ID of ctx is kept; one is generated when missing.
func NewToolRunContext(ctx context.Context, toolID string) context.Context {
	if GetTraceID(ctx) == "" {
		ctx = WithTraceID(ctx, NewTraceID())
	}
	ctx = WithRunID(ctx, NewRunID())
	return WithToolID(ctx, toolID)
}
