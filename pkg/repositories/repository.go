package repositories

import (
	"context"

	"github.com/cbodonnell/arena/pkg/repositories/models"
)

// DefaultListLimit bounds ListMatchResults when no limit is given
const DefaultListLimit = 50

type Repository interface {
	Close(ctx context.Context) error
	SaveMatchResult(ctx context.Context, result *models.MatchResult) error
	// GetMatchResult returns ErrNotFound when no match has the given id
	GetMatchResult(ctx context.Context, id string) (*models.MatchResult, error)
	// ListMatchResults returns the most recent matches first
	ListMatchResults(ctx context.Context, limit int) ([]*models.MatchResult, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
