package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/teamarete/TBBAS/internal/config"
	"github.com/teamarete/TBBAS/internal/district"
	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/repository"
)

var validate = validator.New()

func gamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Manage historical game results",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Import a JSON array of game results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			games, rejected, err := decodeGames(f)
			if err != nil {
				return err
			}
			for _, r := range rejected {
				log.Warn().Err(r).Msg("Skipping game")
			}

			return withDatabase(func(ctx context.Context, cfg *config.Config, db *repository.Database) error {
				for _, g := range games {
					if err := db.Games.Upsert(ctx, g); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d games, skipped %d\n", len(games), len(rejected))
				return nil
			})
		},
	})
	return cmd
}

// decodeGames parses an export and converts each valid row. Invalid rows are
// returned as errors alongside the games that did convert.
func decodeGames(r io.Reader) ([]*models.Game, []error, error) {
	var inputs []models.GameInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, nil, fmt.Errorf("failed to decode games: %w", err)
	}

	var games []*models.Game
	var rejected []error
	for i := range inputs {
		in := &inputs[i]
		if err := validate.Struct(in); err != nil {
			rejected = append(rejected, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		g, err := in.ToGame()
		if err != nil {
			rejected = append(rejected, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		games = append(games, g)
	}
	return games, rejected, nil
}

func districtsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "districts",
		Short: "Manage the district reference table",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Load a YAML reference list into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			entries, err := district.ParseReference(f)
			if err != nil {
				return err
			}

			return withDatabase(func(ctx context.Context, cfg *config.Config, db *repository.Database) error {
				for _, e := range entries {
					if err := db.Districts.Upsert(ctx, e); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d district entries\n", len(entries))
				return nil
			})
		},
	})
	return cmd
}

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, cfg *config.Config, db *repository.Database) error {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
				games, err := db.Games.Count(ctx)
				if err != nil {
					return err
				}
				districts, err := db.Districts.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema ready: %d games, %d district entries\n", games, districts)
				return nil
			})
		},
	})
	return cmd
}
