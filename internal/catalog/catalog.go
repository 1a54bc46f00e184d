package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrMissingColumn is returned when a game source lacks a required column.
var ErrMissingColumn = errors.New("required column missing")

// ErrEmpty is returned when no usable games were found.
var ErrEmpty = errors.New("catalog has no games")

// Game is one deduplicated row of the raw game table.
type Game struct {
	ID          string
	OpeningName string
	OpeningPly  int
	Moves       []string
	Winner      string
}

// WinCounts tallies game outcomes for one opening.
type WinCounts struct {
	White int `json:"white"`
	Black int `json:"black"`
	Draw  int `json:"draw"`
}

func (w WinCounts) Total() int {
	return w.White + w.Black + w.Draw
}

// OpeningRecord is the catalog view of a single opening name.
type OpeningRecord struct {
	Name      string
	Archetype string
	Moves     []string
	WinCounts WinCounts
}

// Catalog is read-only once built and safe for concurrent use.
type Catalog struct {
	openings map[string]*OpeningRecord
	names    []string
	games    int
}

// NormalizeName canonicalizes an opening name so that names coming from
// artifacts, the game table and requests compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Archetype returns the family name of an opening: everything before the
// first ':', '|' or '#', trimmed.
func Archetype(name string) string {
	if i := strings.IndexAny(name, ":|#"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// OpeningMoves truncates a full game's move list to its opening prefix.
func OpeningMoves(moves []string, ply int) []string {
	if ply <= 0 {
		return []string{}
	}
	if ply > len(moves) {
		ply = len(moves)
	}
	out := make([]string, ply)
	copy(out, moves[:ply])
	return out
}

// Build creates a catalog from raw games. Rows repeating an already seen game
// id are skipped; the first game seen for an opening supplies its move prefix.
func Build(games []Game) (*Catalog, error) {
	c := &Catalog{openings: make(map[string]*OpeningRecord)}
	seen := make(map[string]struct{}, len(games))

	for _, g := range games {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}

		name := NormalizeName(g.OpeningName)
		if name == "" {
			continue
		}

		rec, ok := c.openings[name]
		if !ok {
			rec = &OpeningRecord{
				Name:      name,
				Archetype: Archetype(name),
				Moves:     OpeningMoves(g.Moves, g.OpeningPly),
			}
			c.openings[name] = rec
			c.names = append(c.names, name)
		}

		switch strings.ToLower(strings.TrimSpace(g.Winner)) {
		case "white":
			rec.WinCounts.White++
		case "black":
			rec.WinCounts.Black++
		case "draw":
			rec.WinCounts.Draw++
		}
		c.games++
	}

	if len(c.openings) == 0 {
		return nil, ErrEmpty
	}

	sort.Strings(c.names)
	return c, nil
}

// Lookup returns the record for an opening name.
func (c *Catalog) Lookup(name string) (OpeningRecord, bool) {
	rec, ok := c.openings[NormalizeName(name)]
	if !ok {
		return OpeningRecord{}, false
	}
	return *rec, true
}

// WinRates returns white, black and draw fractions for an opening. Unknown
// openings, and openings without a recognized result, yield all zeros.
func (c *Catalog) WinRates(name string) (white, black, draw float64) {
	rec, ok := c.openings[NormalizeName(name)]
	if !ok {
		return 0, 0, 0
	}
	total := float64(rec.WinCounts.Total())
	if total == 0 {
		return 0, 0, 0
	}
	return float64(rec.WinCounts.White) / total,
		float64(rec.WinCounts.Black) / total,
		float64(rec.WinCounts.Draw) / total
}

// Names returns all opening names in lexical order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Catalog) Len() int {
	return len(c.openings)
}

func (c *Catalog) GameCount() int {
	return c.games
}

func (c *Catalog) String() string {
	return fmt.Sprintf("catalog(%d openings, %d games)", len(c.openings), c.games)
}
