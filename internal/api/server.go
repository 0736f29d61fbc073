package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/steamsync/internal/games"
	"github.com/steamsync/internal/jobqueue"
	"github.com/steamsync/internal/reviews"
	"github.com/steamsync/internal/steam"
	"github.com/steamsync/internal/sync"
)

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int

	games        *games.Service
	reviews      *reviews.Service
	orchestrator *sync.Orchestrator
	queue        *jobqueue.JobQueue
	steam        *steam.Client
}

// NewServer creates a new API server
func NewServer(port int, gameSvc *games.Service, reviewSvc *reviews.Service, orchestrator *sync.Orchestrator, queue *jobqueue.JobQueue, steamClient *steam.Client) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:         e,
		port:         port,
		games:        gameSvc,
		reviews:      reviewSvc,
		orchestrator: orchestrator,
		queue:        queue,
		steam:        steamClient,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// API v1 group
	v1 := s.echo.Group("/api/v1")

	// Games endpoints
	v1.POST("/games", s.registerGame)
	v1.GET("/games", s.listGames)
	v1.GET("/games/search", s.searchGames)

	// Reviews endpoints
	v1.GET("/games/:gameId/reviews", s.listReviews)
	v1.GET("/games/:gameId/reviews/:reviewId", s.getReview)
	v1.POST("/games/:gameId/reviews/fetch", s.fetchReviews)
	v1.POST("/games/:gameId/reviews/sync", s.enqueueSync)

	// Sync job polling
	v1.GET("/sync/jobs/:jobId", s.getSyncJobStatus)
}

// Start begins the API server and blocks until an interrupt arrives.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
