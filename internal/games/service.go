package games

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Service covers game registration, listing, and the existence check the
// sync path relies on.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// Register creates a game for the given Steam app id. The app id is unique;
// a second registration surfaces as a DuplicateError.
func (s *Service) Register(ctx context.Context, appID int64, name string) (*Game, error) {
	if appID <= 0 {
		return nil, &InvalidIDError{ID: appID}
	}

	if _, err := s.store.FindByAppID(ctx, appID); err == nil {
		return nil, &DuplicateError{AppID: appID}
	}

	g := &Game{AppID: appID, Name: name}
	if err := s.store.Create(ctx, g); err != nil {
		return nil, err
	}

	log.Info().Int64("game_id", g.ID).Int64("app_id", appID).Msg("Registered game")
	return g, nil
}

func (s *Service) List(ctx context.Context) ([]*Game, error) {
	return s.store.FindAll(ctx)
}

// ValidateAndGet rejects malformed ids before any I/O and loads the game,
// returning ErrNotFound when it does not exist.
func (s *Service) ValidateAndGet(ctx context.Context, gameID int64) (*Game, error) {
	if gameID <= 0 {
		return nil, &InvalidIDError{ID: gameID}
	}
	return s.store.FindByID(ctx, gameID)
}
