package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/steamsync/internal/api"
	"github.com/steamsync/internal/jobqueue"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the steamsync API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server",
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	app, err := buildApp(c.String("config"))
	if err != nil {
		return err
	}
	defer app.Close()

	queueCfg := jobqueue.DefaultQueueConfig()
	if app.cfg.Queue.MaxWorkers > 0 {
		queueCfg.MaxWorkers = app.cfg.Queue.MaxWorkers
	}

	queue, err := jobqueue.NewJobQueue(app.databaseURL, queueCfg, app.orchestrator)
	if err != nil {
		return fmt.Errorf("failed to create job queue: %w", err)
	}

	ctx := context.Background()
	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job queue: %w", err)
	}
	defer queue.Stop(ctx)

	port := app.cfg.Server.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}
	fmt.Printf("Starting steamsync API server on port %d...\n", port)

	server := api.NewServer(port, app.games, app.reviews, app.orchestrator, queue, app.steam)
	return server.Start()
}
