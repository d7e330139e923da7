package observability

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintutil/mint/internal/tracing"
	"github.com/mintutil/mint/pkg/tool"
)

func decodeEvents(t *testing.T, data []byte) []AuditEvent {
	t.Helper()

	var events []AuditEvent
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e AuditEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestAuditLogger_Record(t *testing.T) {
	var buf bytes.Buffer
	a := NewAuditLogger(&buf)
	a.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	ctx := tracing.NewContext(context.Background(), &tracing.TraceContext{
		TraceID: "trace-1",
		RunID:   "run-1",
		Command: "run",
	})
	a.Record(ctx, AuditEvent{
		Type:     EventTool,
		Action:   "run",
		Subject:  "podcast",
		Status:   StatusSuccess,
		Metadata: map[string]any{"files": 2},
	})

	events := decodeEvents(t, buf.Bytes())
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, EventTool, e.Type)
	assert.Equal(t, "podcast", e.Subject)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, "run", e.Command)
	assert.Equal(t, float64(2), e.Metadata["files"])
	assert.True(t, e.Timestamp.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
}

func TestAuditLogger_RecordRun(t *testing.T) {
	var buf bytes.Buffer
	a := NewAuditLogger(&buf)

	a.RecordRun(context.Background(), "run", tool.RunResult{
		ID:       "podcast",
		OK:       true,
		State:    tool.StateIdle,
		Duration: 1500 * time.Millisecond,
	})
	a.RecordRun(context.Background(), "reload", tool.RunResult{
		ID:    "broken",
		State: tool.StateLoadFailed,
		Err: &tool.Error{
			Kind:  tool.KindLoadFailed,
			ID:    "broken",
			Stage: tool.StageParse,
		},
	})

	events := decodeEvents(t, buf.Bytes())
	require.Len(t, events, 2)

	assert.Equal(t, StatusSuccess, events[0].Status)
	assert.Equal(t, float64(1500), events[0].Metadata["duration_ms"])
	assert.Equal(t, "idle", events[0].Metadata["state"])

	assert.Equal(t, "reload", events[1].Action)
	assert.Equal(t, StatusFailure, events[1].Status)
	assert.Equal(t, "LoadFailed", events[1].Metadata["kind"])
	assert.Equal(t, "parse", events[1].Metadata["stage"])
}

func TestAuditLogger_RecordGlossaryChange(t *testing.T) {
	var buf bytes.Buffer
	a := NewAuditLogger(&buf)

	a.RecordGlossaryChange(context.Background(), "add", "/tmp/glossary.json", "git hub", nil)
	a.RecordGlossaryChange(context.Background(), "remove", "/tmp/glossary.json", "missing", errors.New("glossary key not found"))

	events := decodeEvents(t, buf.Bytes())
	require.Len(t, events, 2)
	assert.Equal(t, EventGlossary, events[0].Type)
	assert.Equal(t, "git hub", events[0].Metadata["key"])
	assert.Equal(t, StatusFailure, events[1].Status)
	assert.Equal(t, "glossary key not found", events[1].Metadata["error"])
}

func TestOpenAuditLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")

	for i := 0; i < 2; i++ {
		a, err := OpenAuditLog(path)
		require.NoError(t, err)
		a.Record(context.Background(), AuditEvent{Type: EventTool, Action: "run", Status: StatusSuccess})
		require.NoError(t, a.Close())
		require.NoError(t, a.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, decodeEvents(t, data), 2)
}

func TestNopAuditLogger(t *testing.T) {
	a := NopAuditLogger()
	a.Record(context.Background(), AuditEvent{Type: EventTool})
	assert.NoError(t, a.Close())
}
