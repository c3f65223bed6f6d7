package game

import (
	"testing"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/movegen"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/san"
)

// pickUnambiguousMove returns a move whose (piece type, destination,
// stay-capture-ness) is not shared by any other move in moves, so its SAN
// rendering resolves back to exactly one candidate.
func pickUnambiguousMove(moves []movegen.Move) *movegen.Move {
	type key struct {
		t  piece.Type
		to board.Square
		sc bool
	}
	counts := make(map[key]int)
	for _, m := range moves {
		counts[key{m.Piece.Type, m.To, m.Flags.Has(movegen.StayCapture)}]++
	}
	for i, m := range moves {
		if counts[key{m.Piece.Type, m.To, m.Flags.Has(movegen.StayCapture)}] == 1 {
			return &moves[i]
		}
	}
	return nil
}

func TestNewLoadsStartPosition(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.Turn() != piece.Red {
		t.Fatalf("start position should have Red to move")
	}
	if g.MoveNumber() != 1 {
		t.Fatalf("start position should be move 1")
	}
	if len(g.Moves(MovesOptions{Square: board.NoSquare, PieceType: piece.NoType})) == 0 {
		t.Fatalf("start position should have legal moves")
	}
}

func TestPutGetRemove(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.Clear()
	sq, _ := board.ParseSquare("d5")
	if err := g.Put(piece.Piece{Type: piece.Tank, Color: piece.Red}, sq, false); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := g.Get(sq, piece.NoType)
	if !ok || got.Type != piece.Tank {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if _, ok := g.Remove(sq); !ok {
		t.Fatalf("Remove should report success")
	}
	if _, ok := g.Get(sq, piece.NoType); ok {
		t.Fatalf("Get should fail after Remove")
	}
}

func TestMoveAndUndoRoundTrip(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := g.FEN()

	moves := g.Moves(MovesOptions{Square: board.NoSquare, PieceType: piece.NoType})
	if len(moves) == 0 {
		t.Fatalf("expected at least one legal move")
	}
	unambiguous := pickUnambiguousMove(moves)
	if unambiguous == nil {
		t.Fatalf("expected at least one move whose (piece type, destination) pair is unique")
	}
	notation := san.Emit(*unambiguous, moves)

	if _, err := g.Move(notation); err != nil {
		t.Fatalf("Move(%q): %v", notation, err)
	}
	if g.Turn() != piece.Blue {
		t.Fatalf("turn should switch to Blue after Red's move")
	}

	if _, ok := g.Undo(); !ok {
		t.Fatalf("Undo should succeed")
	}
	if g.FEN() != before {
		t.Fatalf("FEN after undo = %q, want %q", g.FEN(), before)
	}
}

func TestIsGameOverFalseAtStart(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.IsGameOver() {
		t.Fatalf("start position should not be game over")
	}
	if g.IsCheck() {
		t.Fatalf("start position should not be check")
	}
}

func TestMoveSpecWithoutSANText(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	moves := g.Moves(MovesOptions{Square: board.NoSquare, PieceType: piece.NoType})
	if len(moves) == 0 {
		t.Fatalf("expected at least one legal move")
	}
	want := moves[0]
	spec := san.Spec{
		PieceType:   want.Piece.Type,
		From:        want.From,
		To:          want.To,
		StayCapture: want.Flags.Has(movegen.StayCapture),
		Capture:     want.Flags.Has(movegen.Capture),
	}

	got, err := g.MoveSpec(spec)
	if err != nil {
		t.Fatalf("MoveSpec(%+v): %v", spec, err)
	}
	if got.From != want.From || got.To != want.To || got.Piece.Type != want.Piece.Type {
		t.Fatalf("MoveSpec resolved to %+v, want %+v", got, want)
	}
	if g.Turn() != piece.Blue {
		t.Fatalf("turn should switch to Blue after Red's move via MoveSpec")
	}
}

func TestDeploySessionEndToEnd(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.Clear()

	origin, _ := board.ParseSquare("d5")
	tank := piece.Piece{
		Type:     piece.Tank,
		Color:    piece.Red,
		Carrying: []piece.Piece{{Type: piece.Infantry, Color: piece.Red}},
	}
	if err := g.Put(tank, origin, false); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := g.StartDeploy(origin); err != nil {
		t.Fatalf("StartDeploy: %v", err)
	}
	session, active := g.GetDeploySession()
	if !active {
		t.Fatalf("expected an active deploy session after StartDeploy")
	}
	if len(session.Remaining) != 2 {
		t.Fatalf("Remaining = %d, want 2", len(session.Remaining))
	}

	steps := 0
	for !g.CanCommitDeploy() {
		steps++
		if steps > len(session.Remaining)+2 {
			t.Fatalf("deploy session did not converge")
		}
		moves := g.Moves(MovesOptions{Square: board.NoSquare, PieceType: piece.NoType})
		if len(moves) == 0 {
			t.Fatalf("no legal deploy moves while session active")
		}
		m := moves[0]
		if !m.Flags.Has(movegen.Deploy) {
			t.Fatalf("move %+v generated while a deploy session is active should carry the Deploy flag", m)
		}
		if m.From != origin {
			t.Fatalf("deploy move should originate from %v, got %v", origin, m.From)
		}

		spec := san.Spec{
			PieceType:   m.Piece.Type,
			From:        m.From,
			To:          m.To,
			StayCapture: m.Flags.Has(movegen.StayCapture),
			Capture:     m.Flags.Has(movegen.Capture),
		}
		if _, err := g.MoveSpec(spec); err != nil {
			t.Fatalf("MoveSpec(%+v): %v", spec, err)
		}
	}

	if err := g.CommitDeploySession(true); err != nil {
		t.Fatalf("CommitDeploySession: %v", err)
	}
	if _, active := g.GetDeploySession(); active {
		t.Fatalf("expected no active deploy session after commit")
	}
	if g.Turn() != piece.Blue {
		t.Fatalf("turn should switch to Blue once the deploy session commits")
	}
}

func TestHeadersAndComments(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.SetHeader("Event", "Friendly")
	if v, ok := g.Header("Event"); !ok || v != "Friendly" {
		t.Fatalf("Header round trip failed: %v, %v", v, ok)
	}
	g.SetComment(g.FEN(), "opening")
	if v, ok := g.Comment(g.FEN()); !ok || v != "opening" {
		t.Fatalf("Comment round trip failed: %v, %v", v, ok)
	}
}
