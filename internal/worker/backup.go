// Package worker holds the background loops that run alongside the API
// server.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tributolabs/fiscalis/internal/store"
)

const backupPrefix = "fiscalis-backup-"

// BackupWorker periodically snapshots the document store to timestamped
// JSON files so a corrupted live document can be restored by hand.
type BackupWorker struct {
	store    store.Store
	dir      string
	interval time.Duration
	keep     int
}

// NewBackupWorker creates a backup worker writing into dir, retaining the
// newest keep snapshots.
func NewBackupWorker(s store.Store, dir string, interval time.Duration, keep int) *BackupWorker {
	return &BackupWorker{store: s, dir: dir, interval: interval, keep: keep}
}

// Run starts the backup loop. Blocks until ctx is cancelled.
//
// The first snapshot waits a full interval: the store has just been loaded
// at startup, so there is nothing new to protect yet.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("backup worker started",
		"component", "worker",
		"worker", "backup",
		"dir", w.dir,
		"interval", w.interval.String(),
		"keep", w.keep,
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("backup worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				slog.Error("backup failed",
					"component", "worker",
					"worker", "backup",
					"error", err,
				)
			}
		}
	}
}

// RunOnce writes a single snapshot and prunes old ones.
func (w *BackupWorker) RunOnce(ctx context.Context) error {
	doc, err := w.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := backupPrefix + time.Now().UTC().Format("20060102T150405.000000000Z") + ".json"
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	slog.Info("backup written",
		"component", "worker",
		"worker", "backup",
		"path", path,
		"users", len(doc.Users),
		"query_logs", len(doc.QueryLogs),
	)
	return w.prune()
}

// prune removes the oldest snapshots beyond the keep count. The timestamp
// format sorts lexicographically, so name order is age order.
func (w *BackupWorker) prune() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, ".json") {
			backups = append(backups, name)
		}
	}
	if len(backups) <= w.keep {
		return nil
	}

	sort.Strings(backups)
	for _, name := range backups[:len(backups)-w.keep] {
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil {
			return fmt.Errorf("prune backup %s: %w", name, err)
		}
	}
	return nil
}
