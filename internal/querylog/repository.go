// Package querylog persists and retrieves the audit trail of analytical
// queries. The collection is append-only, ordered most-recent-first, and
// retention-bounded.
package querylog

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tributolabs/fiscalis/internal/store"
	"github.com/tributolabs/fiscalis/internal/types"
)

// maxEntries bounds the persisted collection; oldest entries are evicted.
const maxEntries = 5000

// CreateInput carries the caller-supplied fields of a new query log.
// ID and CreatedAt are always assigned server-side.
type CreateInput struct {
	UserID    string
	QueryType types.QueryType
	Prompt    string
	Status    types.QueryStatus
	LatencyMs int64
	Metadata  map[string]any
}

// Repository is the typed accessor over the store's queryLogs collection.
type Repository struct {
	store store.Store
}

// NewRepository creates a Repository over the given store.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Create appends a new log entry at the front of the collection, trims the
// tail beyond the retention cap, and returns the created record.
func (r *Repository) Create(ctx context.Context, in CreateInput) (types.QueryLog, error) {
	entry := types.QueryLog{
		ID:        ulid.Make().String(),
		UserID:    in.UserID,
		QueryType: in.QueryType,
		Prompt:    in.Prompt,
		Status:    in.Status,
		LatencyMs: in.LatencyMs,
		CreatedAt: time.Now().UTC(),
		Metadata:  in.Metadata,
	}

	_, err := r.store.Update(ctx, func(doc *types.Document) {
		doc.QueryLogs = append([]types.QueryLog{entry}, doc.QueryLogs...)
		if len(doc.QueryLogs) > maxEntries {
			doc.QueryLogs = doc.QueryLogs[:maxEntries]
		}
	})
	if err != nil {
		return types.QueryLog{}, fmt.Errorf("create query log: %w", err)
	}
	return entry, nil
}

// ListByUser returns the user's entries, most-recent-first, up to limit.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]types.QueryLog, error) {
	doc, err := r.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}

	out := make([]types.QueryLog, 0, limit)
	for _, entry := range doc.QueryLogs {
		if entry.UserID != userID {
			continue
		}
		out = append(out, entry)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListAll returns entries across all users, most-recent-first, up to limit.
// Role gating is the route layer's job; this method does not filter.
func (r *Repository) ListAll(ctx context.Context, limit int) ([]types.QueryLog, error) {
	doc, err := r.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}

	if limit > len(doc.QueryLogs) {
		limit = len(doc.QueryLogs)
	}
	return doc.QueryLogs[:limit], nil
}

// RemoveByIDForUser deletes the entry only when both id and owner match.
// The bool collapses "not found" and "not owned" so callers cannot probe
// for other users' records.
func (r *Repository) RemoveByIDForUser(ctx context.Context, id, userID string) (bool, error) {
	removed := false

	_, err := r.store.Update(ctx, func(doc *types.Document) {
		kept := doc.QueryLogs[:0]
		for _, entry := range doc.QueryLogs {
			if entry.ID == id && entry.UserID == userID {
				removed = true
				continue
			}
			kept = append(kept, entry)
		}
		doc.QueryLogs = kept
	})
	if err != nil {
		return false, fmt.Errorf("remove query log: %w", err)
	}
	return removed, nil
}
