// Package perft implements the move-generation-tree node counter used to
// validate movegen/rules against known node counts, grounded on the
// teacher's internal/perft.go perft/perftVerbose recursive walk (generate
// legal moves, make each on a copy, recurse, undo by discarding the copy).
// This adaptation calls through game/movegen/rules instead of the
// teacher's magic-bitboard generator, and tracks CoTuLenh's own move
// categories (deploy, stay-capture, kamikaze) in place of castling/
// en-passant/promotion.
package perft

import (
	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/history"
	"github.com/mnoyd/cotulenh/movegen"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
	"github.com/mnoyd/cotulenh/rules"
)

// Result tallies leaf nodes and move-category counts across a perft walk.
type Result struct {
	Nodes       int
	Captures    int
	StayCaptures int
	Kamikazes   int
	Deploys     int
}

// Count walks the legal-move tree from pos to depth and returns the
// number of leaf nodes reached, without per-category bookkeeping.
func Count(pos *position.Position, depth int) int {
	if depth == 0 {
		return 1
	}
	moves := rules.LegalMoves(pos, nil, board.NoSquare, piece.NoType)
	if depth == 1 {
		return len(moves)
	}
	nodes := 0
	for _, m := range moves {
		next := pos.Clone()
		applyMove(next, m)
		nodes += Count(next, depth-1)
	}
	return nodes
}

// applyMove executes m on a clone reserved for recursion: the board effect
// is delegated to history.MakeMoveTemporary (the same Level 1 tier the
// legality prober uses), and the turn is advanced the same way
// history.Tape.MakeMovePermanent does — flipped for an ordinary move, held
// for a deploy step, since the deploying side keeps moving until it commits
// the session (spec §4.F).
func applyMove(pos *position.Position, m movegen.Move) {
	history.MakeMoveTemporary(pos, m)
	if !m.Flags.Has(movegen.Deploy) {
		pos.Turn = pos.Turn.Other()
	}
}

// CountVerbose walks the same tree as Count but also tallies move
// categories at the root ply, for debugging a generator discrepancy.
func CountVerbose(pos *position.Position, depth int) Result {
	var r Result
	if depth == 0 {
		r.Nodes = 1
		return r
	}
	moves := rules.LegalMoves(pos, nil, board.NoSquare, piece.NoType)
	for _, m := range moves {
		if m.Flags.Has(movegen.Capture) {
			r.Captures++
		}
		if m.Flags.Has(movegen.StayCapture) {
			r.StayCaptures++
		}
		if m.Flags.Has(movegen.Kamikaze) {
			r.Kamikazes++
		}
		if m.Flags.Has(movegen.Deploy) {
			r.Deploys++
		}
		next := pos.Clone()
		applyMove(next, m)
		r.Nodes += Count(next, depth-1)
	}
	return r
}
