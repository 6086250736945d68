package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiscalis.db")
	backend, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	defer backend.Close()
	ctx := context.Background()

	if _, err := backend.Load(ctx); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("Load() on empty database error = %v, want ErrNoDocument", err)
	}

	body := []byte(`{"users":[],"queryLogs":[]}`)
	if err := backend.Save(ctx, body); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("Load() = %s, want %s", got, body)
	}

	// Second save overwrites the single row.
	updated := []byte(`{"users":[{"id":"u1"}],"queryLogs":[]}`)
	if err := backend.Save(ctx, updated); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, err = backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != string(updated) {
		t.Errorf("Load() after overwrite = %s, want %s", got, updated)
	}
}

func TestSQLiteBackend_DocumentStoreIntegration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiscalis.db")
	backend, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}

	s := NewDocumentStore(backend)
	defer s.Close()

	doc, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(doc.Users) != 0 || len(doc.QueryLogs) != 0 {
		t.Errorf("fresh document not empty: %+v", doc)
	}
}
