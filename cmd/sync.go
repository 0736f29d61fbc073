package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// SyncCommand returns the CLI command for a one-shot inline review sync.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize reviews for a tracked game and exit",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "game",
				Aliases:  []string{"g"},
				Usage:    "Internal id of the tracked game",
				Required: true,
			},
		},
		Action: runSync,
	}
}

func runSync(c *cli.Context) error {
	app, err := buildApp(c.String("config"))
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.orchestrator.Execute(c.Context, c.Int64("game"))
	if err != nil {
		return err
	}

	fmt.Println(res.Message)
	fmt.Printf("created=%d updated=%d\n", res.Created, res.Updated)
	return nil
}
