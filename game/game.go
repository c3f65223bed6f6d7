// Package game implements the public façade (spec §4.K): the Game
// struct and its operations (load, move, undo, query, deploy-session
// control, headers/comments). Grounded on the teacher's game.go Game
// struct/constructor shape, generalized to functional options (the
// teacher's NewGame()/SetClock() pair). The starting FEN is New's
// argument; WithLogger is the only Option.
package game

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/deploy"
	"github.com/mnoyd/cotulenh/fen"
	"github.com/mnoyd/cotulenh/history"
	"github.com/mnoyd/cotulenh/movegen"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
	"github.com/mnoyd/cotulenh/rules"
	"github.com/mnoyd/cotulenh/san"
)

// Game is the engine's public entry point: a live position, its
// make/undo tape, and a move cache, wired together behind the
// operations spec §4.K names.
type Game struct {
	pos    *position.Position
	tape   *history.Tape
	cache  *movegen.Cache
	logger *zap.Logger
}

// Option configures a Game at construction time.
type Option func(*Game)

// WithLogger installs l as the game's diagnostic logger, also passed
// through to the underlying Position.
func WithLogger(l *zap.Logger) Option {
	return func(g *Game) {
		g.logger = l
		g.pos.SetLogger(l)
	}
}

// New returns a Game loaded from startFEN (fen.StartFEN if empty).
func New(startFEN string, opts ...Option) (*Game, error) {
	if startFEN == "" {
		startFEN = fen.StartFEN
	}
	return Load(startFEN, opts...)
}

// Load parses f and returns a Game positioned there.
func Load(f string, opts ...Option) (*Game, error) {
	pos, err := fen.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "game: load")
	}
	g := &Game{
		pos:    pos,
		tape:   history.NewTape(),
		cache:  movegen.NewCache(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Clear resets the game to an empty board, Red to move.
func (g *Game) Clear() {
	g.pos = position.New()
	g.pos.SetLogger(g.logger)
	g.tape = history.NewTape()
	g.cache.Invalidate()
}

// FEN renders the current position as an extended FEN string.
func (g *Game) FEN() string { return fen.Emit(g.pos) }

// Position exposes the live position for read-only inspection by
// tooling (board dumps, perft), without copying it.
func (g *Game) Position() *position.Position { return g.pos }

// Turn returns the color to move.
func (g *Game) Turn() piece.Color { return g.pos.Turn }

// MoveNumber returns the current full-move number.
func (g *Game) MoveNumber() int { return g.pos.FullMoveNumber }

// Get returns the piece standing at sq, if any. If t is piece.NoType the
// check is skipped; if t is given and the occupant's type doesn't match,
// ok is false.
func (g *Game) Get(sq board.Square, t piece.Type) (piece.Piece, bool) {
	p, ok := g.pos.GetPieceAt(sq)
	if !ok {
		return piece.Piece{}, false
	}
	if t != piece.NoType && p.Type != t {
		return piece.Piece{}, false
	}
	return p, true
}

// Put places p at sq. If allowCombine is true and sq already holds a
// friendly carrier with room, p is added to its stack instead of
// erroring.
func (g *Game) Put(p piece.Piece, sq board.Square, allowCombine bool) error {
	if allowCombine && g.pos.Occupied.Test(sq) {
		existing, _ := g.pos.GetPieceAt(sq)
		if existing.Color == p.Color {
			if err := g.pos.Stacks.AddToStack(p, sq); err != nil {
				return errors.Wrap(err, "game: put (combine)")
			}
			g.cache.Invalidate()
			return nil
		}
	}
	if err := g.pos.PlacePiece(p, sq); err != nil {
		return errors.Wrap(err, "game: put")
	}
	g.cache.Invalidate()
	return nil
}

// Remove removes and returns whatever stands at sq.
func (g *Game) Remove(sq board.Square) (piece.Piece, bool) {
	p, ok := g.pos.RemovePiece(sq)
	g.cache.Invalidate()
	return p, ok
}

// MovesOptions narrows the result of Moves. Square: board.NoSquare with
// PieceType: piece.NoType matches every move. The zero value does not:
// Square's zero value (0) is square a1, so callers must set Square
// explicitly to board.NoSquare whenever they do not filter by origin.
type MovesOptions struct {
	Square    board.Square
	PieceType piece.Type
}

// Moves returns every legal move for the side to move, optionally
// narrowed by opts.
func (g *Game) Moves(opts MovesOptions) []movegen.Move {
	return rules.LegalMoves(g.pos, g.cache, opts.Square, opts.PieceType)
}

// Move parses sanOrSpec as SAN text and resolves it against the current
// legal moves.
func (g *Game) Move(sanOrSpec string) (movegen.Move, error) {
	spec, err := san.Parse(sanOrSpec)
	if err != nil {
		return movegen.Move{}, err
	}
	return g.MoveSpec(spec)
}

// MoveSpec resolves a caller-built spec (spec §4.K's struct form: from,
// to, and an optional piece-type disambiguator) against the current legal
// moves and executes it as a permanent move, without ever going through
// SAN text.
func (g *Game) MoveSpec(spec san.Spec) (movegen.Move, error) {
	candidates := rules.LegalMoves(g.pos, g.cache, board.NoSquare, piece.NoType)
	m, err := san.Resolve(spec, candidates)
	if err != nil {
		return movegen.Move{}, err
	}
	g.tape.MakeMovePermanent(g.pos, m)
	g.recordRepetition()
	g.cache.Invalidate()
	return m, nil
}

// recordRepetition increments the occurrence counter for the current
// position key: the full FEN string as fen.Emit renders it, clocks and
// move number included.
func (g *Game) recordRepetition() {
	key := fen.Emit(g.pos)
	g.pos.RepetitionCounts[key]++
}

// Undo reverses the most recent permanent move.
func (g *Game) Undo() (movegen.Move, bool) {
	m, ok := g.tape.UndoMovePermanent(g.pos)
	if ok {
		g.cache.Invalidate()
	}
	return m, ok
}

// IsCheck reports whether the side to move is in check.
func (g *Game) IsCheck() bool { return rules.IsCheck(g.pos, g.pos.Turn) }

// IsCheckmate reports whether the side to move is checkmated.
func (g *Game) IsCheckmate() bool { return rules.IsCheckmate(g.pos, g.pos.Turn) }

// IsStalemate reports whether the side to move is stalemated.
func (g *Game) IsStalemate() bool { return rules.IsStalemate(g.pos, g.pos.Turn) }

// IsDraw reports whether the position is drawn by the fifty-move rule or
// threefold repetition.
func (g *Game) IsDraw() bool { return rules.IsDraw(g.pos, fen.Emit(g.pos)) }

// IsGameOver reports whether play has ended for any reason.
func (g *Game) IsGameOver() bool { return rules.IsGameOver(g.pos, fen.Emit(g.pos)) }

// StartDeploy opens a deploy session on the stack standing at sq (spec
// §4.F): sq must hold a carrier with at least one passenger, owned by the
// side to move. Once started, Moves and Move only produce Deploy-flagged
// steps originating from sq until CommitDeploySession or
// CancelDeploySession ends the session.
func (g *Game) StartDeploy(sq board.Square) error {
	p, ok := g.pos.GetPieceAt(sq)
	if !ok {
		return errors.Errorf("game: no piece at %v to deploy", sq)
	}
	if p.Color != g.pos.Turn {
		return errors.Errorf("game: %v does not belong to the side to move", sq)
	}
	if len(p.Carrying) == 0 {
		return errors.Errorf("game: %v holds no stack to deploy", sq)
	}
	carrier := piece.Piece{Type: p.Type, Color: p.Color, Heroic: p.Heroic}
	if err := g.pos.DeploySession.Initiate(sq, carrier, p.Carrying, g.pos.Turn); err != nil {
		return errors.Wrap(err, "game: start deploy session")
	}
	g.cache.Invalidate()
	return nil
}

// GetDeploySession returns the active deploy session, if any.
func (g *Game) GetDeploySession() (*deploy.Session, bool) { return g.pos.DeploySession.Active() }

// CanCommitDeploy reports whether the active deploy session has
// deployed every piece and may be committed.
func (g *Game) CanCommitDeploy() bool { return g.pos.DeploySession.CanCommit() }

// CommitDeploySession finalizes the active deploy session. If
// switchTurn is true the turn passes to the opponent.
func (g *Game) CommitDeploySession(switchTurn bool) error {
	if _, err := g.pos.DeploySession.Commit(); err != nil {
		return errors.Wrap(err, "game: commit deploy session")
	}
	if switchTurn {
		g.pos.Turn = g.pos.Turn.Other()
	}
	g.cache.Invalidate()
	return nil
}

// CancelDeploySession abandons the active session, restoring the
// original stack at its origin square.
func (g *Game) CancelDeploySession() error {
	session, active := g.pos.DeploySession.Active()
	if !active {
		return errors.New("game: no active deploy session to cancel")
	}
	origin := session.Origin

	original, err := g.pos.DeploySession.Cancel()
	if err != nil {
		return errors.Wrap(err, "game: cancel deploy session")
	}
	if len(original) == 0 {
		return nil
	}
	if g.pos.Occupied.Test(origin) {
		g.pos.RemovePiece(origin)
	}
	for _, m := range session.Deployed {
		if g.pos.Occupied.Test(m.To) {
			g.pos.RemovePiece(m.To)
		}
		if m.Captured != nil {
			g.pos.PlacePiece(*m.Captured, m.To)
		}
	}
	carrier, carried := original[0], original[1:]
	if err := g.pos.PlacePiece(piece.Piece{Type: carrier.Type, Color: carrier.Color, Heroic: carrier.Heroic, Carrying: carried}, origin); err != nil {
		return errors.Wrap(err, "game: cancel deploy session (re-place)")
	}
	g.cache.Invalidate()
	return nil
}

// ResetDeploySession is CancelDeploySession for callers that don't need
// the restored pieces' identity.
func (g *Game) ResetDeploySession() error {
	return g.CancelDeploySession()
}

// SetHeader sets a PGN-style metadata header.
func (g *Game) SetHeader(key, value string) { g.pos.Headers[key] = value }

// Header returns a previously set metadata header.
func (g *Game) Header(key string) (string, bool) {
	v, ok := g.pos.Headers[key]
	return v, ok
}

// SetComment attaches a free-text comment keyed by a FEN position string.
func (g *Game) SetComment(key, comment string) { g.pos.Comments[key] = comment }

// Comment returns a previously attached comment.
func (g *Game) Comment(key string) (string, bool) {
	v, ok := g.pos.Comments[key]
	return v, ok
}
