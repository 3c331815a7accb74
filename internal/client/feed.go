// Package client loads the scraped ranking lists of each source.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/teamarete/TBBAS/internal/models"
)

// ErrSourceUnavailable is returned when a source cannot be read at all
var ErrSourceUnavailable = errors.New("ranking source unavailable")

var validate = validator.New()

// SourceLists holds one source's raw ranking list per division
type SourceLists map[models.Division][]models.RawRecord

// Records returns the number of rows across all divisions
func (l SourceLists) Records() int {
	n := 0
	for _, rows := range l {
		n += len(rows)
	}
	return n
}

// Loader loads every division list of one source
type Loader interface {
	Load(ctx context.Context, source models.Source) (SourceLists, error)
}

// feedDocument is the scraper export shape
type feedDocument struct {
	UIL     map[string][]models.RawRecord `json:"uil"`
	Private map[string][]models.RawRecord `json:"private"`
}

// DecodeFeed reads a scraper export. Unknown divisions or divisions filed
// under the wrong tier fail the whole document; rows that fail validation
// are dropped and logged.
func DecodeFeed(r io.Reader, source models.Source) (SourceLists, error) {
	var doc feedDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s feed: %w", source, err)
	}

	lists := make(SourceLists)
	for tier, byDivision := range map[models.Tier]map[string][]models.RawRecord{
		models.TierUIL:     doc.UIL,
		models.TierPrivate: doc.Private,
	} {
		for key, rows := range byDivision {
			div, err := models.ParseDivision(key)
			if err != nil {
				return nil, fmt.Errorf("%s feed: %w", source, err)
			}
			if div.Tier() != tier {
				return nil, fmt.Errorf("%s feed: division %s listed under %s", source, div, tier)
			}
			lists[div] = ValidRecords(source, div, rows)
		}
	}

	return lists, nil
}

// ValidRecords drops rows that fail validation, keeping order
func ValidRecords(source models.Source, division models.Division, rows []models.RawRecord) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(rows))
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			log.Warn().
				Err(err).
				Str("source", string(source)).
				Str("division", string(division)).
				Int("row", i).
				Msg("Dropping invalid ranking row")
			continue
		}
		out = append(out, row)
	}
	return out
}
