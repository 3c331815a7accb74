package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamarete/TBBAS/internal/cache"
	"github.com/teamarete/TBBAS/internal/config"
	"github.com/teamarete/TBBAS/internal/models"
	"github.com/teamarete/TBBAS/internal/publish"
)

func snapshotCmd() *cobra.Command {
	var path string
	var fromRedis bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Summarize the published snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc *models.RankingDocument
			var err error
			switch {
			case fromRedis:
				doc, err = readMirror(cmd.Context())
			case path != "":
				doc, err = publish.ReadSnapshot(path)
			default:
				cfg, cerr := config.Load()
				if cerr != nil {
					return fmt.Errorf("load config: %w", cerr)
				}
				doc, err = publish.ReadSnapshot(cfg.OutputPath)
			}
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "Snapshot file (default: OUTPUT_PATH)")
	cmd.Flags().BoolVar(&fromRedis, "redis", false, "Read the redis mirror instead of the file")
	return cmd
}

func readMirror(ctx context.Context) (*models.RankingDocument, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	rc, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := rc.GetSnapshot(ctx, cfg.RedisSnapshotKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("no snapshot mirrored at %s", cfg.RedisSnapshotKey)
	}
	if err != nil {
		return nil, err
	}
	return publish.DecodeSnapshot(data)
}

// printSnapshot writes one line per division with its coverage, then the
// document warnings
func printSnapshot(w io.Writer, doc *models.RankingDocument) {
	fmt.Fprintf(w, "last updated: %s\n", doc.LastUpdated.Format(time.RFC3339))
	for _, div := range models.AllDivisions() {
		cov, ok := doc.Coverage[div]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-9s %2d/%-2d", div, cov.Published, cov.Size)
		if teams := doc.Division(div); len(teams) > 0 {
			line += "  #1 " + teams[0].CanonicalName
		}
		if cov.UnderFilled {
			line += "  under-filled"
		}
		if len(cov.MissingSources) > 0 {
			line += fmt.Sprintf("  missing %v", cov.MissingSources)
		}
		fmt.Fprintln(w, line)
	}
	for _, warning := range doc.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
