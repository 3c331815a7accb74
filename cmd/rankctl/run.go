package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/teamarete/TBBAS/internal/cache"
	"github.com/teamarete/TBBAS/internal/config"
	"github.com/teamarete/TBBAS/internal/pipeline"
	"github.com/teamarete/TBBAS/internal/repository"
)

func runCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and publish the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, cfg *config.Config, db *repository.Database) error {
				res := pipeline.Resources{DB: db}
				if cfg.RedisEnabled && !dryRun {
					rc, err := cache.NewRedisCache(cache.Config{
						Host:     cfg.RedisHost,
						Port:     strconv.Itoa(cfg.RedisPort),
						Password: cfg.RedisPassword,
						DB:       cfg.RedisDB,
					})
					if err != nil {
						log.Warn().Err(err).Msg("Redis unavailable - publishing to file only")
					} else {
						defer rc.Close()
						res.Cache = rc
					}
				}

				p, err := pipeline.FromConfig(cfg, res)
				if err != nil {
					return err
				}

				if dryRun {
					doc, err := p.Build(ctx)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(doc)
				}

				doc, err := p.Run(ctx, "manual")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d warnings)\n", cfg.OutputPath, len(doc.Warnings))
				for _, w := range doc.Warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", w)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the document instead of publishing it")
	return cmd
}
