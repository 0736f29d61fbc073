package games

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("game not found")

// DuplicateError reports a registration colliding with an existing app id.
type DuplicateError struct {
	AppID int64
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("game already registered for app id %d", e.AppID)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// InvalidIDError rejects a malformed game identifier before any I/O happens.
type InvalidIDError struct {
	ID int64
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid game id: %d", e.ID)
}

// Game is a tracked Steam title. AppID is the Steam storefront app id and is
// unique across all games.
type Game struct {
	ID        int64     `json:"id"`
	AppID     int64     `json:"app_id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
