package services

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/ml"
)

// ContentScorer ranks openings by their average similarity to the user's
// favorites.
type ContentScorer struct {
	similarity *ml.SimilarityMatrix
	logger     *logrus.Logger
}

func NewContentScorer(similarity *ml.SimilarityMatrix, logger *logrus.Logger) *ContentScorer {
	return &ContentScorer{
		similarity: similarity,
		logger:     logger,
	}
}

// Score returns every opening in the matrix, favorites included, sorted by
// mean similarity to the known favorites. Favorites missing from the matrix
// are ignored; if none are known the result is NoSignal.
func (s *ContentScorer) Score(favorites []string) Signal {
	known := make([]string, 0, len(favorites))
	seen := make(map[string]bool, len(favorites))
	for _, name := range favorites {
		if seen[name] {
			continue
		}
		seen[name] = true
		if s.similarity.Has(name) {
			known = append(known, name)
		}
	}

	if len(known) == 0 {
		s.logger.WithField("favorites", favorites).Debug("No favorite opening found in similarity matrix")
		return NoSignal()
	}

	means, ok := s.similarity.ColumnMean(known)
	if !ok {
		return NoSignal()
	}

	return SignalOf(ScoreTableFrom(s.similarity.Names(), means).Sorted())
}
