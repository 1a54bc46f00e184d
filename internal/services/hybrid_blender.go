package services

import (
	"sort"
)

// Percentile scores are mapped onto this floor..1 so that the weakest
// candidate on one side still contributes something to the blend.
const percentileFloor = 0.1

// HybridResult is one blended candidate before catalog lookup.
type HybridResult struct {
	Name        string
	CBScore     float64
	CFScore     float64
	HybridScore float64
}

// HybridBlender merges content and collaborative signals.
type HybridBlender struct{}

func NewHybridBlender() *HybridBlender {
	return &HybridBlender{}
}

// Blend combines both signals with weight alpha on the content side, drops
// favorites and returns the best topN candidates.
//
// With both signals present each side is percentile-ranked over the union of
// candidates (a missing score counts as 0), mapped onto [0.1,1], blended and
// min-max rescaled. With one signal the other side is 0 and the weighted
// score is used as is.
func (b *HybridBlender) Blend(content, collaborative Signal, alpha float64, favorites []string, topN int) []HybridResult {
	var results []HybridResult

	switch {
	case !content.Present() && !collaborative.Present():
		return []HybridResult{}

	case !collaborative.Present():
		for _, e := range content.Scores().Entries() {
			results = append(results, HybridResult{
				Name:        e.Name,
				CBScore:     e.Score,
				HybridScore: alpha * e.Score,
			})
		}

	case !content.Present():
		for _, e := range collaborative.Scores().Entries() {
			results = append(results, HybridResult{
				Name:        e.Name,
				CFScore:     e.Score,
				HybridScore: (1 - alpha) * e.Score,
			})
		}

	default:
		results = blendBoth(content.Scores(), collaborative.Scores(), alpha)
	}

	exclude := make(map[string]bool, len(favorites))
	for _, f := range favorites {
		exclude[f] = true
	}

	filtered := results[:0]
	for _, r := range results {
		if !exclude[r.Name] {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].HybridScore != filtered[j].HybridScore {
			return filtered[i].HybridScore > filtered[j].HybridScore
		}
		return filtered[i].Name < filtered[j].Name
	})

	if topN > 0 && len(filtered) > topN {
		filtered = filtered[:topN]
	}
	return filtered
}

func blendBoth(content, collaborative *ScoreTable, alpha float64) []HybridResult {
	names := content.Names()
	for _, name := range collaborative.Names() {
		if _, ok := content.Get(name); !ok {
			names = append(names, name)
		}
	}

	cb := make([]float64, len(names))
	cf := make([]float64, len(names))
	for i, name := range names {
		cb[i], _ = content.Get(name)
		cf[i], _ = collaborative.Get(name)
	}

	cbPct := PercentileRank(cb)
	cfPct := PercentileRank(cf)
	Rescale(cbPct, percentileFloor, 1)
	Rescale(cfPct, percentileFloor, 1)

	hybrid := make([]float64, len(names))
	for i := range names {
		hybrid[i] = alpha*cbPct[i] + (1-alpha)*cfPct[i]
	}
	MinMax(hybrid)

	results := make([]HybridResult, len(names))
	for i, name := range names {
		results[i] = HybridResult{
			Name:        name,
			CBScore:     cbPct[i],
			CFScore:     cfPct[i],
			HybridScore: hybrid[i],
		}
	}
	return results
}
