package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/steamsync/internal/games"
	"github.com/steamsync/internal/jobqueue"
	"github.com/steamsync/internal/reviews"
	"github.com/steamsync/internal/steam"
)

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterGameRequest is the payload for game registration.
type RegisterGameRequest struct {
	AppID int64  `json:"app_id"`
	Name  string `json:"name,omitempty"`
}

func (s *Server) registerGame(c echo.Context) error {
	var req RegisterGameRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	// Fill the display name from the storefront when the caller omitted it.
	if req.Name == "" {
		if details, err := s.steam.GetAppDetails(c.Request().Context(), req.AppID); err == nil {
			req.Name = details.Name
		}
	}

	game, err := s.games.Register(c.Request().Context(), req.AppID, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, game)
}

func (s *Server) listGames(c echo.Context) error {
	all, err := s.games.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, all)
}

func (s *Server) searchGames(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Query parameter q is required"})
	}

	results, err := s.steam.SearchGames(c.Request().Context(), query)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, results)
}

func (s *Server) listReviews(c echo.Context) error {
	gameID, err := pathID(c, "gameId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid game ID"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	res, err := s.reviews.List(c.Request().Context(), gameID, page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) getReview(c echo.Context) error {
	gameID, err := pathID(c, "gameId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid game ID"})
	}
	reviewID, err := pathID(c, "reviewId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid review ID"})
	}

	rev, err := s.reviews.Get(c.Request().Context(), gameID, reviewID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rev)
}

// fetchReviews runs a sync inline and returns its summary.
func (s *Server) fetchReviews(c echo.Context) error {
	gameID, err := pathID(c, "gameId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid game ID"})
	}

	log.Info().Int64("game_id", gameID).Msg("Received request to sync reviews")

	res, err := s.orchestrator.Execute(c.Request().Context(), gameID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// enqueueSync queues a sync job and returns immediately.
func (s *Server) enqueueSync(c echo.Context) error {
	gameID, err := pathID(c, "gameId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid game ID"})
	}

	// Validate before queueing so a bad id fails fast instead of in a worker.
	if _, err := s.games.ValidateAndGet(c.Request().Context(), gameID); err != nil {
		return writeError(c, err)
	}

	res, err := s.queue.EnqueueSync(c.Request().Context(), gameID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, res)
}

func (s *Server) getSyncJobStatus(c echo.Context) error {
	jobID, err := strconv.ParseInt(c.Param("jobId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid job ID"})
	}

	status, err := s.queue.GetStatus(c.Request().Context(), jobID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// writeError maps domain errors onto HTTP statuses: invalid input to 400,
// not found to 404, duplicates to 409, everything else to 500.
func writeError(c echo.Context, err error) error {
	var invalidID *games.InvalidIDError
	var pagination *reviews.PaginationError
	var gameDup *games.DuplicateError
	var reviewDup *reviews.DuplicateError

	switch {
	case errors.As(err, &invalidID), errors.As(err, &pagination):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, games.ErrNotFound),
		errors.Is(err, reviews.ErrNotFound),
		errors.Is(err, steam.ErrAppNotFound),
		errors.Is(err, jobqueue.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &gameDup), errors.As(err, &reviewDup):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Msg("Request failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
