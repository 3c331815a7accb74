package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/teamarete/TBBAS/internal/models"
)

// FileLoader reads <Dir>/<source>.json exports written by the scrapers
type FileLoader struct {
	Dir string
}

// NewFileLoader creates a FileLoader rooted at dir
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

// Load reads and decodes one source's export
func (l *FileLoader) Load(ctx context.Context, source models.Source) (SourceLists, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(l.Dir, string(source)+".json")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, source, err)
	}
	defer f.Close()

	lists, err := DecodeFeed(f, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return lists, nil
}
