package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/steamsync/internal/games"
	"github.com/steamsync/internal/reviews"
	"github.com/steamsync/internal/steam"
	"github.com/steamsync/internal/sync"
)

func recordError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if werr := writeError(c, err); werr != nil {
		t.Fatalf("writeError returned %v", werr)
	}
	return rec
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid game id", &games.InvalidIDError{ID: -1}, http.StatusBadRequest},
		{"bad pagination", &reviews.PaginationError{Reason: "page size cannot exceed 100"}, http.StatusBadRequest},
		{"game missing", games.ErrNotFound, http.StatusNotFound},
		{"review missing", reviews.ErrNotFound, http.StatusNotFound},
		{"steam app missing", steam.ErrAppNotFound, http.StatusNotFound},
		{"duplicate game", &games.DuplicateError{AppID: 570}, http.StatusConflict},
		{"duplicate review", &reviews.DuplicateError{SteamID: "r1"}, http.StatusConflict},
		{"sync failure", &sync.FailureError{GameID: 1, Err: errors.New("boom")}, http.StatusInternalServerError},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := recordError(t, tc.err)
		assert.Equalf(t, tc.want, rec.Code, "case %q", tc.name)
	}
}

func TestWriteError_WrappedErrorsKeepClassification(t *testing.T) {
	wrapped := &sync.FailureError{GameID: 1, Err: games.ErrNotFound}
	// FailureError wraps its cause, so the 404 classification survives.
	rec := recordError(t, wrapped)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
