// Command rankctl is the operator CLI for the rankings pipeline.
//
// Usage:
//
//	rankctl run [--dry-run]
//	rankctl match "SA Brennan" "Brennan" --division AAAAAA
//	rankctl variants "Cy-Fair HS" --division AAAAAA
//	rankctl district "Ft. Worth Dunbar" AAAA --reference districts.yaml
//	rankctl lint
//	rankctl games import games.json
//	rankctl districts import districts.yaml
//	rankctl snapshot [--file rankings.json | --redis]
//	rankctl db migrate
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/teamarete/TBBAS/internal/config"
	"github.com/teamarete/TBBAS/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "rankctl",
		Short:         "Consensus rankings operator CLI",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(runCmd())
	root.AddCommand(matchCmd())
	root.AddCommand(variantsCmd())
	root.AddCommand(districtCmd())
	root.AddCommand(lintCmd())
	root.AddCommand(gamesCmd())
	root.AddCommand(districtsCmd())
	root.AddCommand(snapshotCmd())
	root.AddCommand(dbCmd())
	return root
}

// setupLogger writes human-readable logs to stderr so stdout stays clean
func setupLogger(verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

// withDatabase loads configuration, connects and calls fn
func withDatabase(fn func(ctx context.Context, cfg *config.Config, db *repository.Database) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return fn(ctx, cfg, db)
}
