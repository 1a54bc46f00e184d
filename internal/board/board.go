// Package board turns opening move prefixes into board diagrams.
package board

import (
	"strings"

	"github.com/notnil/chess"
)

// StartingFEN is the position before any move.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Converter produces FEN strings from algebraic move sequences.
type Converter struct{}

func NewConverter() *Converter {
	return &Converter{}
}

// FEN replays moves from the starting position. Move-number tokens such as
// "1." are skipped. Replay stops at the first token that is not a legal move
// and the position reached so far is returned.
func (c *Converter) FEN(moves []string) string {
	game := chess.NewGame()
	for _, token := range moves {
		token = strings.TrimSpace(token)
		if token == "" || strings.HasSuffix(token, ".") {
			continue
		}
		if err := game.MoveStr(token); err != nil {
			break
		}
	}
	return game.Position().String()
}
