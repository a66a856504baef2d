// Package main is the entry point for the habit coach server and its
// maintenance commands.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (config file, env vars, flags)
// 2. Create dependencies (logger, database connection)
// 3. Hand off to the packages that do the work
//
// COMMANDS:
//
//	habitcoach serve                                   run the HTTP API
//	habitcoach migrate                                 apply schema migrations and exit
//	habitcoach recompute --user ID --from D --to D     rebuild streaks and daily scores
//
// Running with no command starts the server, so `go run ./cmd/habitcoach` just works.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	// Embeds the IANA timezone database so user timezones resolve even in
	// minimal containers without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/sakif/habit-coach/internal/config"
	"github.com/sakif/habit-coach/internal/logging"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/server"
)

func main() {
	root := &cli.Command{
		Name:  "habitcoach",
		Usage: "Habit streak and daily score engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars("HABITCOACH_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			recomputeCommand(),
		},
		Action: runServe,
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "habitcoach:", err)
		os.Exit(1)
	}
}

// app is what every command needs: validated config and a logger.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
}

func setup(cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return &app{cfg: cfg, logger: logger, closeLog: closeLog}, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API",
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.closeLog()

	store, err := server.OpenStore(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	// and closes the store on the way out.
	return server.New(a.cfg, store, a.logger).Start(ctx)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations and exit",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.closeLog()

			// Both stores migrate as part of opening.
			store, err := server.OpenStore(ctx, a.cfg.Database)
			if err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			a.logger.Info("migrations applied", slog.String("driver", a.cfg.Database.Driver))
			return store.Close()
		},
	}
}

func recomputeCommand() *cli.Command {
	return &cli.Command{
		Name:  "recompute",
		Usage: "Rebuild a user's streaks and daily scores for a date range",
		Description: "Use after changing habit points or active flags, or to repair " +
			"derived data. Safe to run repeatedly.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "user id"},
			&cli.StringFlag{Name: "from", Required: true, Usage: "first day, YYYY-MM-DD"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "last day, YYYY-MM-DD"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			from, err := model.ParseDate(cmd.String("from"))
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			to, err := model.ParseDate(cmd.String("to"))
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.closeLog()

			store, err := server.OpenStore(ctx, a.cfg.Database)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close()

			services := server.NewServices(store, a.cfg.Location(), a.logger)
			days, err := services.Entries.RecomputeUser(ctx, cmd.String("user"), from, to)
			if err != nil {
				return err
			}
			a.logger.Info("recompute finished",
				slog.String("user_id", cmd.String("user")),
				slog.Int("days", days),
			)
			return nil
		},
	}
}
