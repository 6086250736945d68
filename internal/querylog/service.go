package querylog

import (
	"context"

	"github.com/tributolabs/fiscalis/internal/types"
)

// Service translates domain intent onto the repository. It exists so route
// wiring and the audit recorder depend on one seam instead of storage
// details.
type Service struct {
	repo *Repository
}

// NewService creates a Service over the given repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// RecordQuery persists one audit record.
func (s *Service) RecordQuery(ctx context.Context, in CreateInput) (types.QueryLog, error) {
	return s.repo.Create(ctx, in)
}

// ListUserHistory returns the caller's own history.
func (s *Service) ListUserHistory(ctx context.Context, userID string, limit int) ([]types.QueryLog, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// ListGlobalHistory returns history across all users. Admin-only; the route
// layer enforces the role before calling.
func (s *Service) ListGlobalHistory(ctx context.Context, limit int) ([]types.QueryLog, error) {
	return s.repo.ListAll(ctx, limit)
}

// DeleteUserHistoryItem removes one of the caller's own records.
func (s *Service) DeleteUserHistoryItem(ctx context.Context, id, userID string) (bool, error) {
	return s.repo.RemoveByIDForUser(ctx, id, userID)
}
