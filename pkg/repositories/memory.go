package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/cbodonnell/arena/pkg/repositories/models"
)

// MemoryRepository keeps match results in memory. Results are lost on exit.
type MemoryRepository struct {
	lock    sync.RWMutex
	results map[string]*models.MatchResult
}

func NewMemoryRepository() Repository {
	return &MemoryRepository{
		results: make(map[string]*models.MatchResult),
	}
}

func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) SaveMatchResult(ctx context.Context, result *models.MatchResult) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.results[result.ID] = copyMatchResult(result)
	return nil
}

func (r *MemoryRepository) GetMatchResult(ctx context.Context, id string) (*models.MatchResult, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	result, ok := r.results[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	return copyMatchResult(result), nil
}

func (r *MemoryRepository) ListMatchResults(ctx context.Context, limit int) ([]*models.MatchResult, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	results := make([]*models.MatchResult, 0, len(r.results))
	for _, result := range r.results {
		results = append(results, copyMatchResult(result))
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].EndedAt.Equal(results[j].EndedAt) {
			return results[i].EndedAt.After(results[j].EndedAt)
		}
		return results[i].ID < results[j].ID
	})

	if limit = normalizeLimit(limit); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func copyMatchResult(result *models.MatchResult) *models.MatchResult {
	c := *result
	c.Players = append([]models.MatchPlayerResult{}, result.Players...)
	return &c
}
