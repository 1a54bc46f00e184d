package services

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/catalog"
	"github.com/temcen/chessrecs/pkg/models"
)

// BoardConverter renders a move prefix as a FEN position.
type BoardConverter interface {
	FEN(moves []string) string
}

// ResultAssembler joins blended scores with catalog metadata.
type ResultAssembler struct {
	catalog *catalog.Catalog
	board   BoardConverter
	logger  *logrus.Logger
}

func NewResultAssembler(cat *catalog.Catalog, board BoardConverter, logger *logrus.Logger) *ResultAssembler {
	return &ResultAssembler{
		catalog: cat,
		board:   board,
		logger:  logger,
	}
}

// Assemble keeps the input order. Openings missing from the catalog are
// dropped.
func (a *ResultAssembler) Assemble(results []HybridResult) []models.OpeningRecommendation {
	out := make([]models.OpeningRecommendation, 0, len(results))
	for _, r := range results {
		record, ok := a.catalog.Lookup(r.Name)
		if !ok {
			a.logger.WithField("opening", r.Name).Warn("Scored opening missing from catalog")
			continue
		}

		white, black, draw := a.catalog.WinRates(r.Name)
		out = append(out, models.OpeningRecommendation{
			OpeningName:  record.Name,
			Archetype:    record.Archetype,
			Moves:        strings.Join(record.Moves, " "),
			FEN:          a.board.FEN(record.Moves),
			HybridScore:  r.HybridScore,
			CBScore:      r.CBScore,
			CFScore:      r.CFScore,
			WinRateWhite: white,
			WinRateBlack: black,
			WinRateDraw:  draw,
		})
	}
	return out
}
