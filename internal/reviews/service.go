package reviews

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/steamsync/internal/games"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationError rejects malformed pagination parameters before any I/O.
type PaginationError struct {
	Reason string
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("invalid pagination: %s", e.Reason)
}

// Service covers the read paths over synced reviews.
type Service struct {
	store Store
	games *games.Service
}

func NewService(store Store, gameSvc *games.Service) *Service {
	return &Service{store: store, games: gameSvc}
}

// List returns one page of a game's reviews, newest first, with totals.
// Removed reviews are excluded. Zero page/pageSize select the defaults.
func (s *Service) List(ctx context.Context, gameID int64, page, pageSize int) (*PaginatedResult, error) {
	if page == 0 {
		page = defaultPage
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if err := validatePagination(page, pageSize); err != nil {
		return nil, err
	}

	if _, err := s.games.ValidateAndGet(ctx, gameID); err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	revs, err := s.store.FindByGameIDPaginated(ctx, gameID, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	total, err := s.store.CountByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	log.Debug().Int64("game_id", gameID).Int("page", page).Int("total", total).Msg("Listed reviews")

	return &PaginatedResult{
		Reviews:    revs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Get loads one review scoped to its game. Removed reviews and reviews
// belonging to another game come back as ErrNotFound.
func (s *Service) Get(ctx context.Context, gameID, reviewID int64) (*Review, error) {
	rev, err := s.store.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rev.GameID != gameID || rev.Removed {
		return nil, ErrNotFound
	}
	return rev, nil
}

func validatePagination(page, pageSize int) error {
	if page < 1 {
		return &PaginationError{Reason: "page number must be greater than 0"}
	}
	if pageSize < 1 {
		return &PaginationError{Reason: "page size must be greater than 0"}
	}
	if pageSize > maxPageSize {
		return &PaginationError{Reason: fmt.Sprintf("page size cannot exceed %d", maxPageSize)}
	}
	return nil
}
