// Package store implements the durable document store backing all
// persistence: a single JSON document holding users and query logs,
// guarded by a serialized writer so concurrent mutations never lose
// updates, with pluggable file or SQLite backends.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tributolabs/fiscalis/internal/types"
)

// Mutator applies a synchronous mutation to the live document.
type Mutator func(doc *types.Document)

// Store exposes snapshot reads and serialized read-modify-write updates
// over the single persisted document.
type Store interface {
	Read(ctx context.Context) (*types.Document, error)
	Update(ctx context.Context, fn Mutator) (*types.Document, error)
	Close() error
}

// DocumentStore is the canonical Store implementation. All updates are
// applied one at a time under a mutex, so concurrent writers queue in
// arrival order instead of clobbering each other.
type DocumentStore struct {
	mu      sync.Mutex
	backend Backend
	doc     *types.Document
	loaded  bool
	closed  bool
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore creates a store over the given backend. The document is
// loaded lazily on first use.
func NewDocumentStore(backend Backend) *DocumentStore {
	return &DocumentStore{backend: backend}
}

// load brings the document into memory. Unreadable or invalid backing data
// is treated as absent: the store bootstraps a fresh empty document and
// persists it, rather than refusing to start. Callers must hold mu.
func (s *DocumentStore) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	data, err := s.backend.Load(ctx)
	if err == nil {
		var doc types.Document
		if jsonErr := json.Unmarshal(data, &doc); jsonErr == nil {
			if doc.Users == nil {
				doc.Users = []types.User{}
			}
			if doc.QueryLogs == nil {
				doc.QueryLogs = []types.QueryLog{}
			}
			s.doc = &doc
			s.loaded = true
			return nil
		}
		slog.Warn("store document is not valid JSON, bootstrapping fresh")
	} else if err != ErrNoDocument {
		slog.Warn("store backend unreadable, bootstrapping fresh", "error", err)
	}

	fresh := &types.Document{Users: []types.User{}, QueryLogs: []types.QueryLog{}}
	if err := s.persist(ctx, fresh); err != nil {
		return fmt.Errorf("bootstrap document: %w", err)
	}
	s.doc = fresh
	s.loaded = true
	return nil
}

func (s *DocumentStore) persist(ctx context.Context, doc *types.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("persist document: %w", err)
	}
	return nil
}

// Read returns a deep, independent snapshot of the current document.
func (s *DocumentStore) Read(ctx context.Context) (*types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s.doc.Clone(), nil
}

// Update applies fn to the live document, persists the result, and returns
// a snapshot of the post-mutation state. If persistence fails the in-memory
// document is rolled back, so the mutation is never observable without
// being durable.
func (s *DocumentStore) Update(ctx context.Context, fn Mutator) (*types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	previous := s.doc.Clone()
	fn(s.doc)

	if err := s.persist(ctx, s.doc); err != nil {
		s.doc = previous
		return nil, err
	}
	return s.doc.Clone(), nil
}

// Close releases the backend. Further operations return ErrClosed.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}
