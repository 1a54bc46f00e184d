package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConverter_FEN(t *testing.T) {
	c := NewConverter()

	testCases := []struct {
		name     string
		moves    []string
		expected string
	}{
		{
			name:     "no moves",
			moves:    nil,
			expected: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w",
		},
		{
			name:     "king's pawn",
			moves:    []string{"e4"},
			expected: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b",
		},
		{
			name:     "move numbers are skipped",
			moves:    []string{"1.", "e4", "c5", "2.", "Nf3"},
			expected: "rnbqkbnr/pp1ppppp/8/2p5/4P3/5N2/PPPP1PPP/RNBQKB1R b",
		},
		{
			name:     "stops before an illegal move",
			moves:    []string{"e4", "Ke7", "Nf3"},
			expected: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b",
		},
		{
			name:     "stops before garbage",
			moves:    []string{"d4", "???", "d5"},
			expected: "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Placement and side to move; the remaining fields are clocks and rights.
			fields := strings.Fields(c.FEN(tc.moves))
			assert.Equal(t, tc.expected, strings.Join(fields[:2], " "))
		})
	}
}

func TestConverter_StartingPosition(t *testing.T) {
	assert.Equal(t, StartingFEN, NewConverter().FEN([]string{}))
}
