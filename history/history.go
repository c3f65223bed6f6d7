// Package history implements the two-tier make/undo discipline (spec
// §4.J): a cheap Level 1 minimal-delta tier for the legality prober and
// search, and a Level 2 full-snapshot tier for user-visible history.
// Grounded on the teacher's game.go PushMove/PopMove pattern (push an
// undo record before mutating, pop and reverse it to undo) generalized
// to two granularities instead of chess's single undo-info struct.
package history

import (
	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/movegen"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
)

// UndoInfo is the Level 1 minimal delta recorded by MakeMoveTemporary.
// captured (if any) already carries its full stack composition via
// piece.Piece.Carrying, as does the moved piece returned from
// Position.RemovePiece, so no separate stack-snapshot bookkeeping is
// needed for an ordinary move. A Deploy-flagged move additionally
// captures deployOrigin, the pre-move contents of the session's origin
// square, since peeling one piece off a multi-piece stack can't be
// reversed from the moved piece alone the way a full RemovePiece can.
type UndoInfo struct {
	move         movegen.Move
	captured     *piece.Piece
	wasHeroic    bool
	deployOrigin *piece.Piece
}

// MakeMoveTemporary executes m on pos and returns the minimal delta needed
// to reverse it. Intended for legality probing and search, where a move
// is applied and undone many times per ply.
func MakeMoveTemporary(pos *position.Position, m movegen.Move) UndoInfo {
	if m.Flags.Has(movegen.Deploy) {
		return makeDeployStepTemporary(pos, m)
	}

	info := UndoInfo{move: m, wasHeroic: m.Piece.Heroic}

	moved, _ := pos.RemovePiece(m.From)

	if m.Flags.Has(movegen.StayCapture) {
		if captured, ok := pos.RemovePiece(m.To); ok {
			info.captured = &captured
		}
		pos.PlacePiece(moved, m.From)
		return info
	}

	if m.Flags.Has(movegen.Combination) {
		pos.Stacks.AddToStack(moved, m.To)
		return info
	}

	if captured, ok := pos.RemovePiece(m.To); ok {
		info.captured = &captured
	}
	pos.PlacePiece(moved, m.To)
	return info
}

// makeDeployStepTemporary applies one deploy-session step: the moving
// piece is peeled off the stack still sitting at the session's origin
// (spec §4.F), rather than lifted off wholesale the way an ordinary move
// removes its mover, and the step is recorded against the active session
// via DeployPiece so Remaining/Deployed stay in sync.
func makeDeployStepTemporary(pos *position.Position, m movegen.Move) UndoInfo {
	info := UndoInfo{move: m, wasHeroic: m.Piece.Heroic}
	if before, ok := pos.GetPieceAt(m.From); ok {
		info.deployOrigin = &before
	}

	switch {
	case m.Flags.Has(movegen.StayCapture):
		// The piece never leaves the origin stack; only the captured
		// piece at m.To is removed.
		var captured *piece.Piece
		if c, ok := pos.RemovePiece(m.To); ok {
			captured = &c
		}
		info.captured = captured
		recordDeployStep(pos, m.Piece, m.From, captured)

	case m.Flags.Has(movegen.Combination):
		moved, err := pos.RemoveFromStack(m.From, m.Piece.Type)
		if err != nil {
			return info
		}
		moved.Heroic = m.Piece.Heroic
		pos.Stacks.AddToStack(moved, m.To)
		recordDeployStep(pos, moved, m.To, nil)

	default:
		moved, err := pos.RemoveFromStack(m.From, m.Piece.Type)
		if err != nil {
			return info
		}
		moved.Heroic = m.Piece.Heroic
		var captured *piece.Piece
		if c, ok := pos.RemovePiece(m.To); ok {
			captured = &c
		}
		info.captured = captured
		pos.PlacePiece(moved, m.To)
		recordDeployStep(pos, moved, m.To, captured)
	}
	return info
}

// recordDeployStep advances the active deploy session's Remaining/
// Deployed bookkeeping for one completed step.
func recordDeployStep(pos *position.Position, moved piece.Piece, to board.Square, captured *piece.Piece) {
	if _, active := pos.DeploySession.Active(); active {
		pos.DeploySession.DeployPiece(moved, to, captured)
	}
}

// UndoMoveTemporary reverses a move applied by MakeMoveTemporary: removes
// the mover from its destination, restores any captured piece, replaces
// the mover at its origin, and restores stack contents.
func UndoMoveTemporary(pos *position.Position, info UndoInfo) {
	m := info.move

	if m.Flags.Has(movegen.Deploy) {
		undoDeployStepTemporary(pos, info)
		return
	}

	switch {
	case m.Flags.Has(movegen.StayCapture):
		// The mover never left m.From; only the captured piece needs
		// restoring at m.To.
		if info.captured != nil {
			pos.PlacePiece(*info.captured, m.To)
		}
	case m.Flags.Has(movegen.Combination):
		moved, ok := pos.Stacks.RemoveFromStack(m.Piece.Type, m.To)
		if !ok {
			moved = m.Piece
		}
		moved.Heroic = info.wasHeroic
		pos.PlacePiece(moved, m.From)
	default:
		moved, ok := pos.RemovePiece(m.To)
		if !ok {
			moved = m.Piece
		}
		moved.Heroic = info.wasHeroic
		if info.captured != nil {
			pos.PlacePiece(*info.captured, m.To)
		}
		pos.PlacePiece(moved, m.From)
	}
}

// undoDeployStepTemporary reverses a deploy step: clears whatever the
// step placed at m.To (restoring any capture), rebuilds the origin
// square verbatim from info.deployOrigin rather than trying to re-insert
// the peeled piece back into whatever now remains there, and pops the
// step back off the session's Deployed list.
func undoDeployStepTemporary(pos *position.Position, info UndoInfo) {
	m := info.move

	switch {
	case m.Flags.Has(movegen.StayCapture):
		if info.captured != nil {
			pos.PlacePiece(*info.captured, m.To)
		}
	case m.Flags.Has(movegen.Combination):
		pos.Stacks.RemoveFromStack(m.Piece.Type, m.To)
	default:
		pos.RemovePiece(m.To)
		if info.captured != nil {
			pos.PlacePiece(*info.captured, m.To)
		}
	}

	if pos.Occupied.Test(m.From) {
		pos.RemovePiece(m.From)
	}
	if info.deployOrigin != nil {
		pos.PlacePiece(*info.deployOrigin, m.From)
	}

	pos.DeploySession.UndoLastDeploy()
}

// HistoryEntry is the Level 2 full snapshot pushed before a permanent
// move, capturing everything needed to restore the position verbatim.
type HistoryEntry struct {
	move     movegen.Move
	snapshot *position.Position
}

// Tape owns the permanent-move history for one game.
type Tape struct {
	entries []HistoryEntry
}

// NewTape returns an empty history tape.
func NewTape() *Tape { return &Tape{} }

// Len returns the number of permanent moves recorded.
func (t *Tape) Len() int { return len(t.entries) }

// MakeMovePermanent snapshots pos, pushes the pre-move snapshot onto the
// tape, then executes m (including turn and clock bookkeeping).
func (t *Tape) MakeMovePermanent(pos *position.Position, m movegen.Move) {
	snapshot := pos.Clone()
	t.entries = append(t.entries, HistoryEntry{move: m, snapshot: snapshot})

	mover := pos.Turn
	MakeMoveTemporary(pos, m)

	if m.Flags.Has(movegen.Deploy) {
		// A deploy step stays within the side's current turn (spec
		// §4.F); the turn, clocks, and move number only advance once
		// the caller commits the session.
		return
	}

	if m.Piece.Type == piece.Infantry || m.Captured != nil {
		pos.HalfMoveClock = 0
	} else {
		pos.HalfMoveClock++
	}
	if mover == piece.Blue {
		pos.FullMoveNumber++
	}
	pos.Turn = mover.Other()
}

// UndoMovePermanent pops the most recent entry and restores pos to the
// snapshot taken before that move, then recomputes air defense from the
// restored board (safer than inverting deltas across arbitrary sequences,
// per spec §4.J).
func (t *Tape) UndoMovePermanent(pos *position.Position) (movegen.Move, bool) {
	if len(t.entries) == 0 {
		return movegen.Move{}, false
	}
	last := t.entries[len(t.entries)-1]
	t.entries = t.entries[:len(t.entries)-1]

	pos.Restore(last.snapshot)

	pieces := make(map[board.Square]piece.Piece)
	for sq := board.Square(0); sq < board.NumSquares; sq++ {
		if p, ok := pos.GetPieceAt(sq); ok {
			pieces[sq] = p
		}
	}
	pos.AirDefense.RecomputeAll(pieces)

	return last.move, true
}
