package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"

	"github.com/rs/zerolog/log"

	"github.com/steamsync/internal/games"
	"github.com/steamsync/internal/reviews"
)

// FailureError wraps an engine failure that is not already a recognized
// domain error.
type FailureError struct {
	GameID int64
	Err    error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("failed to sync reviews for game %d: %v", e.GameID, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// Result is the caller-facing summary of one sync invocation.
type Result struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Created   int    `json:"created_count"`
	Updated   int    `json:"updated_count"`
}

// Orchestrator validates the game, serializes runs per game id, and drives
// the engine. Concurrent runs for the same game would race each other's
// removal sweep, so the per-game lock is held for the whole run.
type Orchestrator struct {
	games  *games.Service
	engine *Engine

	mu    gosync.Mutex
	locks map[int64]*gosync.Mutex
}

func NewOrchestrator(gameSvc *games.Service, engine *Engine) *Orchestrator {
	return &Orchestrator{
		games:  gameSvc,
		engine: engine,
		locks:  make(map[int64]*gosync.Mutex),
	}
}

// Execute runs a full reconciliation for gameID. Invalid-input, not-found,
// and duplicate errors pass through unchanged; everything else is wrapped
// into a FailureError carrying the cause.
func (o *Orchestrator) Execute(ctx context.Context, gameID int64) (Result, error) {
	game, err := o.games.ValidateAndGet(ctx, gameID)
	if err != nil {
		return Result{}, err
	}

	lock := o.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	log.Info().Int64("game_id", gameID).Int64("app_id", game.AppID).Msg("Starting review sync")

	sum, err := o.engine.Run(ctx, game.ID, game.AppID)
	if err != nil {
		log.Error().Int64("game_id", gameID).Err(err).Msg("Review sync failed")
		return Result{}, classify(gameID, err)
	}

	msg := fmt.Sprintf("Reviews synchronized successfully: processed %d reviews.", sum.Processed)
	log.Info().Int64("game_id", gameID).
		Int("processed", sum.Processed).Int("created", sum.Created).Int("updated", sum.Updated).
		Msg("Review sync complete")

	return Result{
		Message:   msg,
		Processed: sum.Processed,
		Created:   sum.Created,
		Updated:   sum.Updated,
	}, nil
}

func (o *Orchestrator) gameLock(gameID int64) *gosync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[gameID]
	if !ok {
		lock = &gosync.Mutex{}
		o.locks[gameID] = lock
	}
	return lock
}

func classify(gameID int64, err error) error {
	var invalid *games.InvalidIDError
	var dup *reviews.DuplicateError
	switch {
	case errors.Is(err, games.ErrNotFound),
		errors.As(err, &invalid),
		errors.As(err, &dup):
		return err
	default:
		return &FailureError{GameID: gameID, Err: err}
	}
}
