package ml

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/temcen/chessrecs/internal/catalog"
)

// Encoder maps raw identifiers to dense model indices. Index i corresponds
// to Classes()[i].
type Encoder struct {
	classes []string
	index   map[string]int
}

func NewEncoder(classes []string) (*Encoder, error) {
	e := &Encoder{
		classes: make([]string, len(classes)),
		index:   make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		if _, dup := e.index[c]; dup {
			return nil, fmt.Errorf("duplicate encoder class %q", c)
		}
		e.classes[i] = c
		e.index[c] = i
	}
	return e, nil
}

// Transform returns the model index of id.
func (e *Encoder) Transform(id string) (int, bool) {
	i, ok := e.index[id]
	return i, ok
}

func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *Encoder) Len() int {
	return len(e.classes)
}

// Player is a member of the reference population.
type Player struct {
	ID     string  `json:"player_id"`
	Rating float64 `json:"rating"`
}

// Affinity records that a player plays an opening.
type Affinity struct {
	PlayerID    string  `json:"player_id"`
	OpeningName string  `json:"opening_name"`
	Count       float64 `json:"count"`
}

// CollaborativeData is the read-only input of the collaborative scorer.
type CollaborativeData struct {
	Players        []Player
	Affinities     []Affinity
	PlayerEncoder  *Encoder
	OpeningEncoder *Encoder
}

type collaborativeDocument struct {
	Players        []Player   `json:"players"`
	PlayerOpenings []Affinity `json:"player_openings"`
	PlayerClasses  []string   `json:"player_classes"`
	OpeningClasses []string   `json:"opening_classes"`
}

// NewCollaborativeData assembles the data set. Players are deduplicated by
// id keeping the first rating seen.
func NewCollaborativeData(players []Player, affinities []Affinity, playerClasses, openingClasses []string) (*CollaborativeData, error) {
	playerEncoder, err := NewEncoder(playerClasses)
	if err != nil {
		return nil, fmt.Errorf("player encoder: %w", err)
	}

	normalizedOpenings := make([]string, len(openingClasses))
	for i, name := range openingClasses {
		normalizedOpenings[i] = catalog.NormalizeName(name)
	}
	openingEncoder, err := NewEncoder(normalizedOpenings)
	if err != nil {
		return nil, fmt.Errorf("opening encoder: %w", err)
	}

	seen := make(map[string]struct{}, len(players))
	unique := make([]Player, 0, len(players))
	for _, p := range players {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}

	normalized := make([]Affinity, len(affinities))
	for i, a := range affinities {
		a.OpeningName = catalog.NormalizeName(a.OpeningName)
		normalized[i] = a
	}

	return &CollaborativeData{
		Players:        unique,
		Affinities:     normalized,
		PlayerEncoder:  playerEncoder,
		OpeningEncoder: openingEncoder,
	}, nil
}

// ParseCollaborative validates and decodes a collaborative data artifact.
func ParseCollaborative(sv *SchemaValidator, raw []byte) (*CollaborativeData, error) {
	if err := sv.Validate(SchemaCollaborative, raw); err != nil {
		return nil, err
	}

	var doc collaborativeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode collaborative data: %w", err)
	}

	return NewCollaborativeData(doc.Players, doc.PlayerOpenings, doc.PlayerClasses, doc.OpeningClasses)
}
