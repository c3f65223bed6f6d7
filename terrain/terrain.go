// Package terrain implements the static water/land masks that constrain
// where each CoTuLenh piece type may stand or move. Chess has no terrain
// concept for the teacher to draw on, so the masks are computed once at
// package init time the same way the teacher precomputes its attack
// tables in InitAttackTables — except terrain has no dependency on a
// running position, so no explicit InitX() call is required here.
package terrain

import "github.com/mnoyd/cotulenh/board"

// fileIndex of files a, b, c (zero-based) and d, e (for the river squares).
const (
	fileA = 0
	fileB = 1
	fileC = 2
	fileD = 3
	fileE = 4
)

// rank5, rank6 (zero-based rank 4, 5) hold the four river squares.
const (
	rank5 = 4
	rank6 = 5
)

var (
	// Water is every square navy pieces may occupy: files a-c, plus the
	// four river squares d5, e5, d6, e6.
	Water board.Bitboard
	// Land is every square non-navy pieces may occupy: files c-k.
	Land board.Bitboard
	// Mixed is Water ∩ Land: file c and the four river squares.
	Mixed board.Bitboard
)

func init() {
	for rank := 0; rank < board.NumRanks; rank++ {
		for file := fileA; file <= fileC; file++ {
			Water = Water.Set(board.NewSquare(file, rank))
		}
		for file := fileC; file < board.NumFiles; file++ {
			Land = Land.Set(board.NewSquare(file, rank))
		}
	}
	for _, file := range []int{fileD, fileE} {
		for _, rank := range []int{rank5, rank6} {
			Water = Water.Set(board.NewSquare(file, rank))
		}
	}
	Mixed = board.And(Water, Land)
}

// IsWater reports whether sq is a water square.
func IsWater(sq board.Square) bool { return Water.Test(sq) }

// IsLand reports whether sq is a land square.
func IsLand(sq board.Square) bool { return Land.Test(sq) }

// NavyPieceType is the FEN letter used for navy pieces. MaskToTerrainFor
// takes the raw letter rather than a piece.Type.
const NavyPieceType = 'n'

// MaskToTerrainFor restricts bb to the squares the given piece type letter
// ('n' for navy, any other letter for land pieces) may occupy.
func MaskToTerrainFor(pieceType byte, bb board.Bitboard) board.Bitboard {
	if pieceType == NavyPieceType {
		return board.And(bb, Water)
	}
	return board.And(bb, Land)
}
