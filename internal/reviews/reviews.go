package reviews

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("review not found")

// DuplicateError reports a create that collided with an existing steam_id.
type DuplicateError struct {
	SteamID string
	Err     error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("review already exists: %s", e.SteamID)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// Review is one upstream Steam review tied to a tracked game. SteamID is the
// upstream recommendation id and the reconciliation key; the internal ID is
// never used to join against upstream state.
type Review struct {
	ID               int64     `json:"id"`
	SteamID          string    `json:"steam_id"`
	GameID           int64     `json:"game_id"`
	AuthorSteamID    string    `json:"author_steam_id,omitempty"`
	Recommended      bool      `json:"recommended"`
	Content          string    `json:"content"`
	TimestampCreated time.Time `json:"timestamp_created"`
	TimestampUpdated time.Time `json:"timestamp_updated,omitzero"` // zero when upstream never reported an update
	Removed          bool      `json:"removed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PaginatedResult carries one page of a game's reviews plus totals.
type PaginatedResult struct {
	Reviews    []*Review `json:"reviews"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
