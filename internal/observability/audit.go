// Package observability records an append-only audit trail of tool runs
// and glossary edits.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mintutil/mint/internal/tracing"
	"github.com/mintutil/mint/pkg/tool"
)

// Event types
const (
	EventTool     = "tool"
	EventGlossary = "glossary"
)

// Event statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// AuditEvent represents a structured event for the audit log
type AuditEvent struct {
	Type      string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`            // e.g. "run", "reload", "add"
	Subject   string         `json:"subject,omitempty"` // tool id or glossary path
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	Command   string         `json:"command,omitempty"`
}

// AuditLogger writes audit events as JSON lines
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
	now    func() time.Time
}

// NewAuditLogger writes events to w
func NewAuditLogger(w io.Writer) *AuditLogger {
	return &AuditLogger{
		logger: zerolog.New(w),
		now:    time.Now,
	}
}

// NopAuditLogger discards every event
func NopAuditLogger() *AuditLogger {
	return NewAuditLogger(io.Discard)
}

// OpenAuditLog appends events to the file at path, creating it if needed
func OpenAuditLog(path string) (*AuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	a := NewAuditLogger(file)
	a.file = file
	return a, nil
}

// Record emits an audit event and mirrors it onto the active span, if any
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = a.now()
	}

	tc := tracing.FromContext(ctx)
	if event.TraceID == "" {
		event.TraceID = tc.TraceID
	}
	if event.RunID == "" {
		event.RunID = tc.RunID
	}
	if event.Command == "" {
		event.Command = tc.Command
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		if event.TraceID == "" {
			event.TraceID = span.SpanContext().TraceID().String()
		}
		span.AddEvent(event.Type+"."+event.Action, trace.WithAttributes(
			attribute.String("audit.subject", event.Subject),
			attribute.String("audit.status", event.Status),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Time("timestamp", event.Timestamp).
		Str("event_type", event.Type).
		Str("action", event.Action).
		Str("status", event.Status)

	if event.Subject != "" {
		entry.Str("subject", event.Subject)
	}
	if event.TraceID != "" {
		entry.Str("trace_id", event.TraceID)
	}
	if event.RunID != "" {
		entry.Str("run_id", event.RunID)
	}
	if event.Command != "" {
		entry.Str("command", event.Command)
	}
	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Send()
}

// Close closes the audit logger's file handle
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		return err
	}
	return nil
}

// RecordRun records the outcome of running or reloading a tool
func (a *AuditLogger) RecordRun(ctx context.Context, action string, res tool.RunResult) {
	event := AuditEvent{
		Type:    EventTool,
		Action:  action,
		Subject: res.ID,
		Status:  StatusSuccess,
		Metadata: map[string]any{
			"duration_ms": res.Duration.Milliseconds(),
			"state":       string(res.State),
		},
	}
	if !res.OK {
		event.Status = StatusFailure
		if res.Err != nil {
			event.Metadata["kind"] = string(res.Err.Kind)
			if res.Err.Stage != "" {
				event.Metadata["stage"] = string(res.Err.Stage)
			}
		}
	}
	a.Record(ctx, event)
}

// RecordGlossaryChange records an add or remove against the glossary at path
func (a *AuditLogger) RecordGlossaryChange(ctx context.Context, action, path, key string, err error) {
	event := AuditEvent{
		Type:     EventGlossary,
		Action:   action,
		Subject:  path,
		Status:   StatusSuccess,
		Metadata: map[string]any{"key": key},
	}
	if err != nil {
		event.Status = StatusFailure
		event.Metadata["error"] = err.Error()
	}
	a.Record(ctx, event)
}
