package services

import (
	"github.com/temcen/chessrecs/internal/ml"
)

// ComplexityScores holds a [0,1] difficulty estimate per opening, derived
// from the average rating of the players who play it.
type ComplexityScores struct {
	scores map[string]float64
}

// EstimateComplexity averages player ratings over every affinity row whose
// player has a known rating, then min-max normalizes across openings. When
// every opening has the same average rating, all scores are 0.5.
func EstimateComplexity(data *ml.CollaborativeData) *ComplexityScores {
	ratings := make(map[string]float64, len(data.Players))
	for _, p := range data.Players {
		ratings[p.ID] = p.Rating
	}

	type accum struct {
		sum   float64
		count int
	}
	totals := make(map[string]*accum)
	order := make([]string, 0)
	for _, a := range data.Affinities {
		rating, ok := ratings[a.PlayerID]
		if !ok {
			continue
		}
		acc, ok := totals[a.OpeningName]
		if !ok {
			acc = &accum{}
			totals[a.OpeningName] = acc
			order = append(order, a.OpeningName)
		}
		acc.sum += rating
		acc.count++
	}

	averages := make([]float64, len(order))
	for i, name := range order {
		averages[i] = totals[name].sum / float64(totals[name].count)
	}
	if !MinMax(averages) {
		for i := range averages {
			averages[i] = 0.5
		}
	}

	scores := make(map[string]float64, len(order))
	for i, name := range order {
		scores[name] = averages[i]
	}
	return &ComplexityScores{scores: scores}
}

func (c *ComplexityScores) Get(name string) (float64, bool) {
	v, ok := c.scores[name]
	return v, ok
}

func (c *ComplexityScores) Len() int {
	return len(c.scores)
}

// Adjust nudges scores toward harder openings for strong players and easier
// ones for weak players, then renormalizes so the best score is 1. Openings
// without a complexity estimate keep their score.
func (c *ComplexityScores) Adjust(table *ScoreTable, userRating, influence, ratingScale float64) *ScoreTable {
	strength := userRating/ratingScale - 0.5
	adjusted := table.Map(func(name string, score float64) float64 {
		complexity, ok := c.scores[name]
		if !ok {
			return score
		}
		return score * (1 + influence*strength*(complexity-0.5)*2)
	})
	return adjusted.NormalizeMax()
}
