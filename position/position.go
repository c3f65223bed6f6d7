// Package position implements the Position aggregate (spec §4.E): the
// piece-type and color occupancy planes, the stack manager, the
// air-defense engine, the deploy session, commander-square cache, turn,
// clocks, and the repetition counter. It follows the teacher's own
// position.go in shape (bitboard planes plus scalar game state) but
// generalizes the plane count from chess's six piece types/one occupancy
// split to CoTuLenh's eleven plus carrier stacking.
package position

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mnoyd/cotulenh/airdefense"
	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/deploy"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/stack"
	"github.com/mnoyd/cotulenh/terrain"
)

// Position is the full board-and-game-state aggregate that every other
// package (movegen, rules, history, fen, san) reads and mutates through.
type Position struct {
	// Planes[piece.PlaneIndex(t)] is the occupancy bitboard of every
	// carrier square holding a piece of type t, for either color.
	Planes [11]board.Bitboard
	// Colors[c] is the occupancy bitboard of every carrier square holding
	// a piece of color c.
	Colors [2]board.Bitboard
	// Occupied is the union of Colors[Red] and Colors[Blue].
	Occupied board.Bitboard
	// Heroic is the bitboard of carrier squares whose piece has been
	// promoted to heroic status.
	Heroic board.Bitboard

	Stacks      *stack.Manager
	AirDefense  *airdefense.Engine
	DeploySession *deploy.Manager

	// CommanderSquares[c] is the cached square of color c's commander, or
	// board.NoSquare if it has been captured or never placed.
	CommanderSquares [2]board.Square

	Turn           piece.Color
	HalfMoveClock  int
	FullMoveNumber int

	// RepetitionCounts maps a FEN-string position key to the number of
	// times it has occurred. The game façade uses the full emitted FEN,
	// clocks and move number included, as the key.
	RepetitionCounts map[string]int

	Headers  map[string]string
	Comments map[string]string

	logger *zap.Logger
}

// New returns an empty Position with no pieces placed, Red to move, and a
// no-op logger.
func New() *Position {
	p := &Position{
		Stacks:        stack.New(),
		AirDefense:    airdefense.NewEngine(),
		DeploySession: deploy.New(),
		Turn:          piece.Red,
		FullMoveNumber: 1,
		RepetitionCounts: make(map[string]int),
		Headers:        make(map[string]string),
		Comments:       make(map[string]string),
		logger:         zap.NewNop(),
	}
	p.CommanderSquares[piece.Red] = board.NoSquare
	p.CommanderSquares[piece.Blue] = board.NoSquare
	return p
}

// SetLogger installs l as the diagnostic logger used to report invariant
// failures. Passing nil restores the no-op logger.
func (pos *Position) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	pos.logger = l
}

// CanPlaceOn reports whether a piece of type t may stand on sq by terrain
// alone (spec §4.B): navy pieces require water, every other piece
// requires land.
func CanPlaceOn(t piece.Type, sq board.Square) bool {
	if t == piece.Navy {
		return terrain.IsWater(sq)
	}
	return terrain.IsLand(sq)
}

func (pos *Position) setPlane(t piece.Type, c piece.Color, heroic bool, sq board.Square) {
	idx := piece.PlaneIndex(t)
	if idx < 0 {
		pos.logger.Error("position: unknown piece type in setPlane", zap.String("type", string(t)))
		return
	}
	pos.Planes[idx] = pos.Planes[idx].Set(sq)
	pos.Colors[c] = pos.Colors[c].Set(sq)
	pos.Occupied = pos.Occupied.Set(sq)
	if heroic {
		pos.Heroic = pos.Heroic.Set(sq)
	} else {
		pos.Heroic = pos.Heroic.Clear(sq)
	}
	if t == piece.Commander {
		pos.CommanderSquares[c] = sq
	}
}

func (pos *Position) clearPlane(t piece.Type, c piece.Color, sq board.Square) {
	idx := piece.PlaneIndex(t)
	if idx < 0 {
		pos.logger.Error("position: unknown piece type in clearPlane", zap.String("type", string(t)))
		return
	}
	pos.Planes[idx] = pos.Planes[idx].Clear(sq)
	pos.Colors[c] = pos.Colors[c].Clear(sq)
	pos.Occupied = pos.Occupied.Clear(sq)
	pos.Heroic = pos.Heroic.Clear(sq)
	if t == piece.Commander && pos.CommanderSquares[c] == sq {
		pos.CommanderSquares[c] = board.NoSquare
	}
}

// PlacePiece places p (a carrier, possibly with passengers in p.Carrying)
// at sq, updating every plane, the stack manager, and the air-defense
// engine. Errors if sq is already occupied or the stack composition is
// invalid (spec §4.C).
func (pos *Position) PlacePiece(p piece.Piece, sq board.Square) error {
	if pos.Occupied.Test(sq) {
		return errPositionf("square %v is already occupied", sq)
	}
	if p.IsCarrier() || len(p.Carrying) > 0 {
		if err := pos.Stacks.CreateStack(piece.Piece{Type: p.Type, Color: p.Color, Heroic: p.Heroic}, p.Carrying, sq); err != nil {
			return err
		}
	}
	pos.setPlane(p.Type, p.Color, p.Heroic, sq)
	pos.AirDefense.AddZoneFor(p, sq)
	return nil
}

// RemovePiece removes and returns whatever stands at sq (carrier plus any
// passengers), clearing every plane and zone. ok is false if sq is empty.
func (pos *Position) RemovePiece(sq board.Square) (piece.Piece, bool) {
	if !pos.Occupied.Test(sq) {
		return piece.Piece{}, false
	}
	t, c, heroic := pos.pieceIdentityAt(sq)
	result := piece.Piece{Type: t, Color: c, Heroic: heroic}
	if data, ok := pos.Stacks.DestroyStack(sq); ok {
		result.Carrying = data.Carried
	}
	pos.clearPlane(t, c, sq)
	pos.AirDefense.RemoveZone(sq, c)
	return result, true
}

// RemoveFromStack detaches the piece of type t from whatever stands at
// origin, re-anchoring a new carrier from the remaining passengers if the
// departing piece was the carrier itself, or clearing the square entirely
// if it was the only piece there. Used by deploy-session steps, which
// peel one piece at a time off a multi-piece stack rather than lifting
// the whole thing off the board (spec §4.F).
func (pos *Position) RemoveFromStack(origin board.Square, t piece.Type) (piece.Piece, error) {
	data, ok := pos.Stacks.At(origin)
	if !ok {
		removed, ok := pos.RemovePiece(origin)
		if !ok {
			return piece.Piece{}, errPositionf("no piece at %v", origin)
		}
		if removed.Type != t {
			return piece.Piece{}, errPositionf("square %v holds %q, not %q", origin, string(removed.Type), string(t))
		}
		return removed, nil
	}

	if data.Carrier.Type != t {
		removed, ok := pos.Stacks.RemoveFromStack(t, origin)
		if !ok {
			return piece.Piece{}, errPositionf("piece %q not found in the stack at %v", string(t), origin)
		}
		return removed, nil
	}

	removed := data.Carrier
	pos.RemovePiece(origin)
	if len(data.Carried) > 0 {
		newCarrier := data.Carried[0]
		newCarrier.Carrying = data.Carried[1:]
		if err := pos.PlacePiece(newCarrier, origin); err != nil {
			return piece.Piece{}, err
		}
	}
	return removed, nil
}

// GetPieceAt returns a copy of whatever stands at sq, including any
// carried passengers. ok is false if sq is empty.
func (pos *Position) GetPieceAt(sq board.Square) (piece.Piece, bool) {
	if !pos.Occupied.Test(sq) {
		return piece.Piece{}, false
	}
	if data, ok := pos.Stacks.At(sq); ok {
		p := data.Carrier.Clone()
		carried := make([]piece.Piece, len(data.Carried))
		for i, c := range data.Carried {
			carried[i] = c.Clone()
		}
		p.Carrying = carried
		return p, true
	}
	t, c, heroic := pos.pieceIdentityAt(sq)
	return piece.Piece{Type: t, Color: c, Heroic: heroic}, true
}

// pieceIdentityAt scans the occupancy planes to recover the type/color
// pair standing at sq. Panics if Occupied disagrees with every plane,
// an internal consistency failure rather than a user-facing error (spec
// §7: "panics for invariant failures").
func (pos *Position) pieceIdentityAt(sq board.Square) (piece.Type, piece.Color, bool) {
	for _, t := range piece.AllTypes {
		idx := piece.PlaneIndex(t)
		if pos.Planes[idx].Test(sq) {
			c := piece.Red
			if pos.Colors[piece.Blue].Test(sq) {
				c = piece.Blue
			}
			return t, c, pos.Heroic.Test(sq)
		}
	}
	pos.logger.Error("position: occupied bit set with no matching plane", zap.Int("square", int(sq)))
	panic("position: occupied square has no piece-type plane set")
}

// Clone returns a deep copy of pos, aliasing none of its mutable state.
// Used as the full-snapshot tier of make/undo (spec §4.J).
func (pos *Position) Clone() *Position {
	cp := *pos
	cp.Stacks = pos.Stacks.Clone()
	cp.AirDefense = pos.AirDefense.Clone()
	cp.DeploySession = pos.DeploySession.Clone()
	cp.RepetitionCounts = make(map[string]int, len(pos.RepetitionCounts))
	for k, v := range pos.RepetitionCounts {
		cp.RepetitionCounts[k] = v
	}
	cp.Headers = make(map[string]string, len(pos.Headers))
	for k, v := range pos.Headers {
		cp.Headers[k] = v
	}
	cp.Comments = make(map[string]string, len(pos.Comments))
	for k, v := range pos.Comments {
		cp.Comments[k] = v
	}
	cp.logger = pos.logger
	return &cp
}

// Restore replaces pos's mutable state with a deep copy of snapshot's,
// without changing pos's identity (pointer). Used to undo via a
// previously captured Clone().
func (pos *Position) Restore(snapshot *Position) {
	fresh := snapshot.Clone()
	*pos = *fresh
}

func errPositionf(format string, args ...interface{}) error {
	return &PositionError{msg: fmt.Sprintf(format, args...)}
}

// PositionError reports a Position-level precondition violation (spec §7:
// "exceptions in mutators").
type PositionError struct{ msg string }

func (e *PositionError) Error() string { return "position: " + e.msg }
