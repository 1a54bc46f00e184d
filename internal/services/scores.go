package services

import (
	"sort"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// ScoredOpening is one row of a score table.
type ScoredOpening struct {
	Name  string  `json:"opening_name"`
	Score float64 `json:"score"`
}

// ScoreTable is an insertion-ordered mapping from opening name to score.
// Tables handed out by scorers and the prediction cache are treated as
// immutable: every transformation returns a new table.
type ScoreTable struct {
	entries []ScoredOpening
	index   map[string]int
}

func NewScoreTable(capacity int) *ScoreTable {
	return &ScoreTable{
		entries: make([]ScoredOpening, 0, capacity),
		index:   make(map[string]int, capacity),
	}
}

// ScoreTableFrom pairs names with scores positionally.
func ScoreTableFrom(names []string, scores []float64) *ScoreTable {
	t := NewScoreTable(len(names))
	for i, name := range names {
		t.Set(name, scores[i])
	}
	return t
}

// Set inserts or overwrites a score, keeping the original position on overwrite.
func (t *ScoreTable) Set(name string, score float64) {
	if i, ok := t.index[name]; ok {
		t.entries[i].Score = score
		return
	}
	t.index[name] = len(t.entries)
	t.entries = append(t.entries, ScoredOpening{Name: name, Score: score})
}

func (t *ScoreTable) Get(name string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.entries[i].Score, true
}

func (t *ScoreTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the rows in table order.
func (t *ScoreTable) Entries() []ScoredOpening {
	if t == nil {
		return nil
	}
	out := make([]ScoredOpening, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *ScoreTable) Names() []string {
	out := make([]string, t.Len())
	for i, e := range t.entries {
		out[i] = e.Name
	}
	return out
}

func (t *ScoreTable) Scores() []float64 {
	out := make([]float64, t.Len())
	for i, e := range t.entries {
		out[i] = e.Score
	}
	return out
}

// Max returns the largest score, or 0 for an empty table.
func (t *ScoreTable) Max() float64 {
	if t.Len() == 0 {
		return 0
	}
	return floats.Max(t.Scores())
}

// Map applies fn to every score.
func (t *ScoreTable) Map(fn func(name string, score float64) float64) *ScoreTable {
	out := NewScoreTable(t.Len())
	for _, e := range t.entries {
		out.Set(e.Name, fn(e.Name, e.Score))
	}
	return out
}

// NormalizeMax divides every score by the maximum. No-op if the maximum is
// not positive.
func (t *ScoreTable) NormalizeMax() *ScoreTable {
	scores := t.Scores()
	if len(scores) > 0 {
		if max := floats.Max(scores); max > 0 {
			floats.Scale(1/max, scores)
		}
	}
	return ScoreTableFrom(t.Names(), scores)
}

// Sorted orders rows by descending score, breaking ties by name.
func (t *ScoreTable) Sorted() *ScoreTable {
	entries := t.Entries()
	sortScored(entries)

	out := NewScoreTable(len(entries))
	for _, e := range entries {
		out.Set(e.Name, e.Score)
	}
	return out
}

// Top keeps the first n rows. n <= 0 keeps everything.
func (t *ScoreTable) Top(n int) *ScoreTable {
	if n <= 0 || n >= t.Len() {
		return t.Map(func(_ string, s float64) float64 { return s })
	}
	out := NewScoreTable(n)
	for _, e := range t.entries[:n] {
		out.Set(e.Name, e.Score)
	}
	return out
}

func (t *ScoreTable) MarshalJSON() ([]byte, error) {
	entries := t.Entries()
	if entries == nil {
		entries = []ScoredOpening{}
	}
	return json.Marshal(entries)
}

func (t *ScoreTable) UnmarshalJSON(data []byte) error {
	var entries []ScoredOpening
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*t = *NewScoreTable(len(entries))
	for _, e := range entries {
		t.Set(e.Name, e.Score)
	}
	return nil
}

func sortScored(entries []ScoredOpening) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
}

// Signal is a scorer's output: either a non-empty score table or no signal
// at all. The blender branches on Present, never on table length.
type Signal struct {
	scores *ScoreTable
}

// NoSignal reports that a scorer had nothing to contribute.
func NoSignal() Signal {
	return Signal{}
}

// SignalOf wraps a table; an empty table is NoSignal.
func SignalOf(t *ScoreTable) Signal {
	if t.Len() == 0 {
		return NoSignal()
	}
	return Signal{scores: t}
}

func (s Signal) Present() bool {
	return s.scores != nil
}

func (s Signal) Scores() *ScoreTable {
	return s.scores
}

// PercentileRank maps values to their fractional rank in [0,1]: the smallest
// value gets 0, the largest 1, ties share their average rank. A single value
// ranks 1.
func PercentileRank(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = 1
		return out
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	for start := 0; start < n; {
		end := start + 1
		for end < n && values[order[end]] == values[order[start]] {
			end++
		}
		// zero-based positions start..end-1 share their mean position
		avg := float64(start+end-1) / 2
		for k := start; k < end; k++ {
			out[order[k]] = avg / float64(n-1)
		}
		start = end
	}
	return out
}

// Rescale maps values in [0,1] linearly onto [lo,hi] in place.
func Rescale(values []float64, lo, hi float64) {
	floats.Scale(hi-lo, values)
	floats.AddConst(lo, values)
}

// MinMax rescales values onto [0,1] in place. Returns false, leaving values
// untouched, when all values are equal.
func MinMax(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if hi == lo {
		return false
	}
	floats.AddConst(-lo, values)
	floats.Scale(1/(hi-lo), values)
	return true
}
