package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tributolabs/fiscalis/internal/querylog"
	"github.com/tributolabs/fiscalis/internal/store"
	"github.com/tributolabs/fiscalis/internal/types"
)

// memStore keeps the document in memory and can be told to fail updates.
type memStore struct {
	doc        types.Document
	failUpdate error
}

func (m *memStore) Read(ctx context.Context) (*types.Document, error) {
	return m.doc.Clone(), nil
}

func (m *memStore) Update(ctx context.Context, fn store.Mutator) (*types.Document, error) {
	if m.failUpdate != nil {
		return nil, m.failUpdate
	}
	fn(&m.doc)
	return m.doc.Clone(), nil
}

func (m *memStore) Close() error { return nil }

func newTestRecorder(ms *memStore) *Recorder {
	return NewRecorder(querylog.NewService(querylog.NewRepository(ms)))
}

func TestRecord_SuccessWritesOneEntry(t *testing.T) {
	ms := &memStore{}
	r := newTestRecorder(ms)

	got, err := Record(context.Background(), r, Request{
		UserID:    "u1",
		QueryType: types.QueryStateAnalysis,
		Prompt:    "state-analysis:SP:2018-2025",
		Metadata:  map[string]any{"uf": "SP"},
	}, func(ctx context.Context) (string, error) {
		return "analysis", nil
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if got != "analysis" {
		t.Errorf("Record() = %q, want operation result", got)
	}

	if len(ms.doc.QueryLogs) != 1 {
		t.Fatalf("wrote %d entries, want 1", len(ms.doc.QueryLogs))
	}
	entry := ms.doc.QueryLogs[0]
	if entry.Status != types.StatusSuccess {
		t.Errorf("Status = %s, want success", entry.Status)
	}
	if entry.UserID != "u1" || entry.QueryType != types.QueryStateAnalysis {
		t.Errorf("entry = %+v, want caller identity preserved", entry)
	}
	if entry.LatencyMs < 0 {
		t.Errorf("LatencyMs = %d, want non-negative", entry.LatencyMs)
	}
}

func TestRecord_FailureWritesErrorEntryAndReturnsOriginal(t *testing.T) {
	ms := &memStore{}
	r := newTestRecorder(ms)
	opErr := errors.New("unknown state: XX")

	_, err := Record(context.Background(), r, Request{
		UserID:    "u1",
		QueryType: types.QueryStateAnalysis,
		Prompt:    "state-analysis:XX:2018-2025",
	}, func(ctx context.Context) (string, error) {
		return "", opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("Record() error = %v, want the operation's own error", err)
	}

	if len(ms.doc.QueryLogs) != 1 {
		t.Fatalf("wrote %d entries, want 1", len(ms.doc.QueryLogs))
	}
	entry := ms.doc.QueryLogs[0]
	if entry.Status != types.StatusError {
		t.Errorf("Status = %s, want error", entry.Status)
	}
	if entry.Metadata["error"] != opErr.Error() {
		t.Errorf("Metadata[error] = %v, want %q", entry.Metadata["error"], opErr)
	}
}

func TestRecord_AuditFailureOnErrorPathKeepsOriginalError(t *testing.T) {
	ms := &memStore{failUpdate: errors.New("disk full")}
	r := newTestRecorder(ms)
	opErr := errors.New("provider exploded")

	_, err := Record(context.Background(), r, Request{
		UserID:    "u1",
		QueryType: types.QueryFreeChat,
		Prompt:    "pergunta",
	}, func(ctx context.Context) (int, error) {
		return 0, opErr
	})
	if !errors.Is(err, opErr) {
		t.Errorf("Record() error = %v, audit failure must not mask the original", err)
	}
}

func TestRecord_AuditFailureOnSuccessPathPropagates(t *testing.T) {
	ms := &memStore{failUpdate: errors.New("disk full")}
	r := newTestRecorder(ms)

	_, err := Record(context.Background(), r, Request{
		UserID:    "u1",
		QueryType: types.QueryScenarioSimulation,
		Prompt:    "simulate scenario",
	}, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err == nil {
		t.Fatal("Record() = nil error, want the audit-write failure surfaced")
	}
}

func TestRecord_MeasuresLatency(t *testing.T) {
	ms := &memStore{}
	r := newTestRecorder(ms)

	_, err := Record(context.Background(), r, Request{
		UserID:    "u1",
		QueryType: types.QueryFreeChat,
		Prompt:    "pergunta",
	}, func(ctx context.Context) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if got := ms.doc.QueryLogs[0].LatencyMs; got < 15 {
		t.Errorf("LatencyMs = %d, want at least the operation's own duration", got)
	}
}
