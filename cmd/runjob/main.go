// Command runjob runs one worker job to completion and exits, for recovery
// and backfills outside the schedule.
//
// Usage:
//
//	runjob sync [-year 2024]
//	runjob score
//	runjob reconcile -session 9472
//	runjob migrate
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"f1picks/ingestion/internal/app"
	"f1picks/ingestion/internal/config"
	"f1picks/ingestion/internal/scheduler"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	year := fs.Int("year", 0, "season to synchronize (defaults to SEASON_YEAR or the current year)")
	session := fs.Int("session", 0, "session key to reconcile")
	_ = fs.Parse(os.Args[2:])

	cfg := config.MustLoad()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if command == "migrate" {
		cfg.RunMigrations = true
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	log.Info().Msg("Validating service health...")
	if err := a.DB.Health(ctx); err != nil {
		a.Close()
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	err = run(ctx, a, command, *year, *session)
	a.Close()
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("Job failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, command string, year, session int) error {
	switch command {
	case "migrate":
		// Applied by app.New
		return nil

	case "sync":
		if year > 0 {
			a.Config.SeasonYear = year
		}
		return a.Scheduler.RunNow(ctx, scheduler.JobSync)

	case "score":
		return a.Scheduler.RunNow(ctx, scheduler.JobScore)

	case "reconcile":
		if session <= 0 {
			return fmt.Errorf("reconcile requires -session")
		}
		outcome, err := a.Ingest.ReconcileSession(ctx, session)
		if err != nil {
			return err
		}
		log.Info().Int("session_key", session).Str("outcome", string(outcome)).Msg("Reconcile finished")
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: runjob <sync|score|reconcile|migrate> [flags]")
}
