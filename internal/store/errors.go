package store

import "errors"

// ErrNoDocument is returned by a Backend when no document has been persisted
// yet. The store treats it as a signal to bootstrap a fresh document.
var ErrNoDocument = errors.New("no document in backend")

// ErrClosed is returned for operations on a closed store.
var ErrClosed = errors.New("store is closed")
