// Package audit wraps analytical operations so every invocation, successful
// or not, leaves exactly one query log entry behind.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/tributolabs/fiscalis/internal/querylog"
	"github.com/tributolabs/fiscalis/internal/types"
)

// Recorder writes audit entries through the query service.
type Recorder struct {
	queries *querylog.Service
}

// NewRecorder creates a Recorder over the query service.
func NewRecorder(queries *querylog.Service) *Recorder {
	return &Recorder{queries: queries}
}

// Request identifies the invocation being audited. Prompt is the
// constructed prompt or an equivalent descriptor for non-AI operations.
type Request struct {
	UserID    string
	QueryType types.QueryType
	Prompt    string
	Metadata  map[string]any
}

// Record runs op and writes one audit entry with the measured latency.
//
// On success the entry carries status success; a failing audit write then
// fails the operation, since the caller was promised a durable record. On
// failure the entry carries status error with the error string in the
// metadata, and the original error is returned. An audit-write failure on
// this path is logged but never masks it.
func Record[T any](ctx context.Context, r *Recorder, req Request, op func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := op(ctx)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		meta := cloneMetadata(req.Metadata)
		meta["error"] = err.Error()
		if _, recErr := r.queries.RecordQuery(ctx, querylog.CreateInput{
			UserID:    req.UserID,
			QueryType: req.QueryType,
			Prompt:    req.Prompt,
			Status:    types.StatusError,
			LatencyMs: elapsed,
			Metadata:  meta,
		}); recErr != nil {
			slog.Error("audit write failed for failed operation",
				"query_type", req.QueryType,
				"error", recErr,
			)
		}
		return result, err
	}

	if _, recErr := r.queries.RecordQuery(ctx, querylog.CreateInput{
		UserID:    req.UserID,
		QueryType: req.QueryType,
		Prompt:    req.Prompt,
		Status:    types.StatusSuccess,
		LatencyMs: elapsed,
		Metadata:  req.Metadata,
	}); recErr != nil {
		return result, recErr
	}
	return result, nil
}

func cloneMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	return out
}
