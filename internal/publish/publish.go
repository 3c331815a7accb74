// Package publish writes ranking snapshots for the front-end.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/teamarete/TBBAS/internal/metrics"
	"github.com/teamarete/TBBAS/internal/models"
)

// ErrPublish is returned when the snapshot file could not be replaced.
// The previous snapshot is left untouched in that case.
var ErrPublish = errors.New("failed to publish snapshot")

// SnapshotMirror receives a copy of every published snapshot
type SnapshotMirror interface {
	SetSnapshot(ctx context.Context, key string, data []byte) error
}

// Publisher replaces the snapshot file atomically and mirrors it
type Publisher struct {
	path      string
	mirror    SnapshotMirror
	mirrorKey string
}

// NewPublisher creates a Publisher. mirror may be nil.
func NewPublisher(path string, mirror SnapshotMirror, mirrorKey string) *Publisher {
	return &Publisher{path: path, mirror: mirror, mirrorKey: mirrorKey}
}

// Path returns the snapshot file path
func (p *Publisher) Path() string {
	return p.path
}

// Publish serializes doc and swaps it in. Readers see either the old or
// the new document, never a partial one. A mirror failure is logged only.
func (p *Publisher) Publish(ctx context.Context, doc *models.RankingDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		metrics.RecordPublish("file", "error")
		return fmt.Errorf("%w: encode: %v", ErrPublish, err)
	}

	if err := WriteFileAtomic(p.path, data); err != nil {
		metrics.RecordPublish("file", "error")
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	metrics.RecordPublish("file", "success")

	log.Info().
		Str("path", p.path).
		Int("bytes", len(data)).
		Time("last_updated", doc.LastUpdated).
		Msg("Snapshot published")

	if p.mirror != nil {
		if err := p.mirror.SetSnapshot(ctx, p.mirrorKey, data); err != nil {
			metrics.RecordPublish("redis", "error")
			log.Warn().Err(err).Str("key", p.mirrorKey).Msg("Failed to mirror snapshot to redis")
		} else {
			metrics.RecordPublish("redis", "success")
		}
	}

	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory, syncs
// it and renames it over path
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a published document
func ReadSnapshot(path string) (*models.RankingDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// DecodeSnapshot parses a published document, e.g. the redis mirror
func DecodeSnapshot(data []byte) (*models.RankingDocument, error) {
	var doc models.RankingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &doc, nil
}
