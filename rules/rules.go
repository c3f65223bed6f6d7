// Package rules implements check, exposure, and game-termination queries
// (spec §4.I): commander lookup, attack detection, the commanders-face
// exposure rule, move legality via make/undo, checkmate/stalemate, and
// draw detection. Grounded on the teacher's game.go IsCheckmate/IsCheck
// family, which probes legality the same way: generate pseudo-legal
// moves, apply each on a scratch copy, test the resulting position, undo.
package rules

import (
	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/history"
	"github.com/mnoyd/cotulenh/movegen"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
)

// FindCommander returns the square of color's commander, or board.NoSquare
// if it has been captured. Backed directly by Position's cache rather
// than a bitboard scan, since Position already maintains it incrementally.
func FindCommander(pos *position.Position, color piece.Color) board.Square {
	return pos.CommanderSquares[color]
}

// IsSquareAttacked reports whether any pseudo-legal move generated for
// byColor lands on sq.
func IsSquareAttacked(pos *position.Position, sq board.Square, byColor piece.Color) bool {
	if sq == board.NoSquare {
		return false
	}
	saved := pos.Turn
	pos.Turn = byColor
	moves := movegen.Generate(pos, nil, board.NoSquare, piece.NoType)
	pos.Turn = saved

	for _, m := range moves {
		if m.To == sq {
			return true
		}
	}
	return false
}

// IsCheck reports whether color's commander is currently attacked.
func IsCheck(pos *position.Position, color piece.Color) bool {
	cmd := FindCommander(pos, color)
	if cmd == board.NoSquare {
		return false
	}
	return IsSquareAttacked(pos, cmd, color.Other())
}

// IsCommanderExposed implements the commanders-face rule: both commanders
// share a file or rank with no piece standing between them.
func IsCommanderExposed(pos *position.Position, color piece.Color) bool {
	mine := FindCommander(pos, color)
	theirs := FindCommander(pos, color.Other())
	if mine == board.NoSquare || theirs == board.NoSquare {
		return false
	}

	sameFile := mine.File() == theirs.File()
	sameRank := mine.Rank() == theirs.Rank()
	if !sameFile && !sameRank {
		return false
	}

	lo, hi := mine, theirs
	if lo > hi {
		lo, hi = hi, lo
	}

	var step int
	if sameFile {
		step = board.NumFiles
	} else {
		step = 1
	}
	for cur := int(lo) + step; cur < int(hi); cur += step {
		if pos.Occupied.Test(board.Square(cur)) {
			return false
		}
	}
	return true
}

// IsMoveLegal applies m on pos via the Level 1 minimal-delta tier, tests
// that the mover is neither left in check nor with an exposed commander,
// then reverts pos with the matching undo (spec §4.I: "apply minimal-delta
// (§4.J) ... revert"). This runs once per pseudo-legal move per ply, far
// more often than a user-visible make/undo, so it deliberately avoids the
// full-snapshot tier history.Tape uses for permanent moves.
func IsMoveLegal(pos *position.Position, m movegen.Move) bool {
	mover := m.Piece.Color

	info := history.MakeMoveTemporary(pos, m)
	legal := !IsCheck(pos, mover) && !IsCommanderExposed(pos, mover)
	history.UndoMoveTemporary(pos, info)

	return legal
}

// LegalMoves filters Generate's pseudo-legal output down to moves that
// pass IsMoveLegal.
func LegalMoves(pos *position.Position, cache *movegen.Cache, filterSquare board.Square, filterType piece.Type) []movegen.Move {
	pseudo := movegen.Generate(pos, cache, filterSquare, filterType)
	var legal []movegen.Move
	for _, m := range pseudo {
		if IsMoveLegal(pos, m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// IsCheckmate reports whether color is in check with no legal move.
func IsCheckmate(pos *position.Position, color piece.Color) bool {
	if !IsCheck(pos, color) {
		return false
	}
	return len(sideMoves(pos, color)) == 0
}

// IsStalemate reports whether color is not in check but has no legal move.
func IsStalemate(pos *position.Position, color piece.Color) bool {
	if IsCheck(pos, color) {
		return false
	}
	return len(sideMoves(pos, color)) == 0
}

func sideMoves(pos *position.Position, color piece.Color) []movegen.Move {
	saved := pos.Turn
	pos.Turn = color
	moves := LegalMoves(pos, nil, board.NoSquare, piece.NoType)
	pos.Turn = saved
	return moves
}

// IsFiftyMoveDraw reports whether the half-move clock has reached the
// fifty-move (100 half-move) threshold.
func IsFiftyMoveDraw(pos *position.Position) bool {
	return pos.HalfMoveClock >= 100
}

// IsThreefoldRepetition reports whether the current position key has
// occurred at least three times in pos.RepetitionCounts.
func IsThreefoldRepetition(pos *position.Position, key string) bool {
	return pos.RepetitionCounts[key] >= 3
}

// IsDraw reports whether the position is a draw by the fifty-move rule or
// threefold repetition (stalemate is reported separately via IsStalemate).
func IsDraw(pos *position.Position, key string) bool {
	return IsFiftyMoveDraw(pos) || IsThreefoldRepetition(pos, key)
}

// IsGameOver reports whether the side to move is checkmated, stalemated,
// drawn, or either commander has been captured outright.
func IsGameOver(pos *position.Position, key string) bool {
	if FindCommander(pos, piece.Red) == board.NoSquare || FindCommander(pos, piece.Blue) == board.NoSquare {
		return true
	}
	if IsDraw(pos, key) {
		return true
	}
	return IsCheckmate(pos, pos.Turn) || IsStalemate(pos, pos.Turn)
}
