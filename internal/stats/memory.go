package stats

import (
	"context"
	"strings"

	"github.com/teamarete/TBBAS/internal/models"
)

// MemoryStore is a GameResultStore over games held in memory, matching
// team names case-insensitively
type MemoryStore struct {
	byTeam map[string][]models.GameResult
}

// NewMemoryStore indexes games by both team names
func NewMemoryStore(games []*models.Game) *MemoryStore {
	s := &MemoryStore{byTeam: make(map[string][]models.GameResult)}
	for _, g := range games {
		for _, team := range []string{g.HomeTeam, g.AwayTeam} {
			if res, ok := g.ResultFor(team); ok {
				key := strings.ToLower(team)
				s.byTeam[key] = append(s.byTeam[key], res)
			}
		}
	}
	return s
}

// FindGames returns the results for the first variant with any games
func (s *MemoryStore) FindGames(ctx context.Context, variants []string) ([]models.GameResult, error) {
	for _, v := range variants {
		if results := s.byTeam[strings.ToLower(v)]; len(results) > 0 {
			return append([]models.GameResult(nil), results...), nil
		}
	}
	return nil, nil
}
