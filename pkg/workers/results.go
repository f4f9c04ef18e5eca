package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/network"
	"github.com/cbodonnell/arena/pkg/repositories"
	"github.com/cbodonnell/arena/pkg/repositories/models"
	"github.com/google/uuid"
)

// DefaultSaveTimeout bounds a single repository write
const DefaultSaveTimeout = 5 * time.Second

type MatchResultWorker struct {
	repository  repositories.Repository
	resultChan  <-chan network.MatchResult
	saveTimeout time.Duration
	newID       func() string
}

type NewMatchResultWorkerOptions struct {
	Repository  repositories.Repository
	ResultChan  <-chan network.MatchResult
	SaveTimeout time.Duration
}

// NewMatchResultWorker creates a new MatchResultWorker.
// The worker saves the result of every finished match to the repository.
func NewMatchResultWorker(opts NewMatchResultWorkerOptions) *MatchResultWorker {
	saveTimeout := opts.SaveTimeout
	if saveTimeout <= 0 {
		saveTimeout = DefaultSaveTimeout
	}
	return &MatchResultWorker{
		repository:  opts.Repository,
		resultChan:  opts.ResultChan,
		saveTimeout: saveTimeout,
		newID:       func() string { return uuid.New().String() },
	}
}

func (w *MatchResultWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-w.resultChan:
			if !ok {
				return
			}
			w.saveMatchResult(ctx, result)
		}
	}
}

func (w *MatchResultWorker) saveMatchResult(ctx context.Context, result network.MatchResult) {
	ctx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()

	model := MatchResultModel(w.newID(), result)
	if err := w.repository.SaveMatchResult(ctx, model); err != nil {
		log.Error("Failed to save match result: %v", err)
		return
	}
	log.Info("Saved match %s won by %s", model.ID, model.Winner)
}

// MatchResultModel converts a match result into its stored form.
func MatchResultModel(id string, result network.MatchResult) *models.MatchResult {
	players := make([]models.MatchPlayerResult, 0, len(result.Players))
	for _, c := range result.Players {
		players = append(players, models.MatchPlayerResult{
			Username: c.Username,
			Kills:    c.Kills,
			Deaths:   c.Deaths,
		})
	}
	return &models.MatchResult{
		ID:          id,
		MapName:     result.MapName,
		Winner:      result.Winner,
		WinnerKills: result.WinnerKills,
		EndedAt:     result.EndedAt.UTC(),
		Players:     players,
	}
}
