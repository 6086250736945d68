package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tributolabs/fiscalis/internal/store"
	"github.com/tributolabs/fiscalis/internal/types"
)

func newBackedStore(t *testing.T) store.Store {
	t.Helper()
	ds := store.NewDocumentStore(store.NewFileBackend(filepath.Join(t.TempDir(), "fiscalis.json")))
	t.Cleanup(func() { ds.Close() })
	return ds
}

func listBackups(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunOnce_WritesSnapshot(t *testing.T) {
	ds := newBackedStore(t)
	ctx := context.Background()

	_, err := ds.Update(ctx, func(doc *types.Document) {
		doc.Users = append(doc.Users, types.User{ID: "u1", Email: "admin@fiscal.local"})
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	dir := t.TempDir()
	w := NewBackupWorker(ds, dir, time.Hour, 3)
	if err := w.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	names := listBackups(t, dir)
	if len(names) != 1 {
		t.Fatalf("got %d backups, want 1", len(names))
	}
	if !strings.HasPrefix(names[0], backupPrefix) {
		t.Errorf("backup name = %s", names[0])
	}

	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var doc types.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("backup is not valid JSON: %v", err)
	}
	if len(doc.Users) != 1 || doc.Users[0].ID != "u1" {
		t.Errorf("backup document = %+v", doc)
	}
}

func TestRunOnce_PrunesOldest(t *testing.T) {
	ds := newBackedStore(t)
	dir := t.TempDir()
	w := NewBackupWorker(ds, dir, time.Hour, 2)

	for i := 0; i < 4; i++ {
		if err := w.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce() #%d error = %v", i, err)
		}
	}

	names := listBackups(t, dir)
	if len(names) != 2 {
		t.Fatalf("got %d backups after prune, want 2", len(names))
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ds := newBackedStore(t)
	w := NewBackupWorker(ds, t.TempDir(), 10*time.Millisecond, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
