// Package board implements the CoTuLenh board geometry: square indexing,
// file/rank arithmetic, algebraic notation, and the 132-bit occupancy
// primitive every other package builds on.
package board

import "fmt"

// Board geometry: 11 files (a..k) by 12 ranks (1..12).
const (
	NumFiles   = 11
	NumRanks   = 12
	NumSquares = NumFiles * NumRanks // 132
)

// Square is a board square index in [0, NumSquares), or NoSquare.
// index = rank*NumFiles + file, rank 0 is Red's back rank.
type Square int

// NoSquare represents the absence of a square (e.g. a captured commander).
const NoSquare Square = -1

// NewSquare builds a Square from a zero-based file and rank.
// Returns NoSquare if file or rank is out of range.
func NewSquare(file, rank int) Square {
	if file < 0 || file >= NumFiles || rank < 0 || rank >= NumRanks {
		return NoSquare
	}
	return Square(rank*NumFiles + file)
}

// Valid reports whether the square index falls on the board.
func (s Square) Valid() bool {
	return s >= 0 && int(s) < NumSquares
}

// File returns the zero-based file (0 = 'a').
func (s Square) File() int { return int(s) % NumFiles }

// Rank returns the zero-based rank (0 = rank '1').
func (s Square) Rank() int { return int(s) / NumFiles }

// String renders the square in algebraic notation, e.g. "a1", "k12".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+byte(s.File()), s.Rank()+1)
}

// ParseSquare parses algebraic notation (file letter a..k, rank 1..12)
// into a Square. Returns NoSquare and an error if str is malformed.
func ParseSquare(str string) (Square, error) {
	if len(str) < 2 || len(str) > 3 {
		return NoSquare, fmt.Errorf("board: malformed square %q", str)
	}
	file := int(str[0] - 'a')
	if file < 0 || file >= NumFiles {
		return NoSquare, fmt.Errorf("board: invalid file in square %q", str)
	}
	rankNum := 0
	for _, c := range str[1:] {
		if c < '0' || c > '9' {
			return NoSquare, fmt.Errorf("board: invalid rank in square %q", str)
		}
		rankNum = rankNum*10 + int(c-'0')
	}
	rank := rankNum - 1
	if rank < 0 || rank >= NumRanks {
		return NoSquare, fmt.Errorf("board: rank out of range in square %q", str)
	}
	return Square(rank*NumFiles + file), nil
}

// FilesApart returns the absolute file distance between two squares.
// Used by the move generator to reject moves that wrap across a file edge.
func FilesApart(a, b Square) int {
	d := a.File() - b.File()
	if d < 0 {
		d = -d
	}
	return d
}
