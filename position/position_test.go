package position

import (
	"testing"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/piece"
)

func sq(t *testing.T, s string) board.Square {
	t.Helper()
	q, err := board.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return q
}

func TestPlaceGetRemoveBarePiece(t *testing.T) {
	pos := New()
	c3 := sq(t, "c3")
	tank := piece.Piece{Type: piece.Tank, Color: piece.Red}

	if err := pos.PlacePiece(tank, c3); err != nil {
		t.Fatalf("PlacePiece: %v", err)
	}
	if !pos.Occupied.Test(c3) || !pos.Colors[piece.Red].Test(c3) {
		t.Fatalf("occupancy planes not updated")
	}
	got, ok := pos.GetPieceAt(c3)
	if !ok || got.Type != piece.Tank || got.Color != piece.Red {
		t.Fatalf("GetPieceAt = %v, %v", got, ok)
	}

	removed, ok := pos.RemovePiece(c3)
	if !ok || removed.Type != piece.Tank {
		t.Fatalf("RemovePiece = %v, %v", removed, ok)
	}
	if pos.Occupied.Test(c3) {
		t.Fatalf("occupied bit must clear after removal")
	}
	if _, ok := pos.GetPieceAt(c3); ok {
		t.Fatalf("GetPieceAt should fail on an empty square")
	}
}

func TestPlaceStackAndCommanderCache(t *testing.T) {
	pos := New()
	c3 := sq(t, "c3")
	stackPiece := piece.Piece{
		Type: piece.Navy, Color: piece.Blue,
		Carrying: []piece.Piece{{Type: piece.Commander, Color: piece.Blue}},
	}
	if err := pos.PlacePiece(stackPiece, c3); err != nil {
		t.Fatalf("PlacePiece: %v", err)
	}
	if pos.CommanderSquares[piece.Blue] != board.NoSquare {
		t.Fatalf("commander inside a stack must not be cached as a top-level commander square")
	}
	got, ok := pos.GetPieceAt(c3)
	if !ok || len(got.Carrying) != 1 || got.Carrying[0].Type != piece.Commander {
		t.Fatalf("GetPieceAt on a stack = %v", got)
	}

	removed, ok := pos.RemovePiece(c3)
	if !ok || len(removed.Carrying) != 1 {
		t.Fatalf("RemovePiece should return the whole stack: %v", removed)
	}
}

func TestPlaceCommanderUpdatesCache(t *testing.T) {
	pos := New()
	a1 := sq(t, "a1")
	if err := pos.PlacePiece(piece.Piece{Type: piece.Commander, Color: piece.Red}, a1); err != nil {
		t.Fatalf("PlacePiece: %v", err)
	}
	if pos.CommanderSquares[piece.Red] != a1 {
		t.Fatalf("CommanderSquares[Red] = %v, want %v", pos.CommanderSquares[piece.Red], a1)
	}
	pos.RemovePiece(a1)
	if pos.CommanderSquares[piece.Red] != board.NoSquare {
		t.Fatalf("CommanderSquares[Red] should clear after capture")
	}
}

func TestPlacePieceRejectsOccupiedSquare(t *testing.T) {
	pos := New()
	c3 := sq(t, "c3")
	pos.PlacePiece(piece.Piece{Type: piece.Infantry, Color: piece.Red}, c3)
	if err := pos.PlacePiece(piece.Piece{Type: piece.Tank, Color: piece.Blue}, c3); err == nil {
		t.Fatalf("expected an error placing onto an occupied square")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	pos := New()
	c3 := sq(t, "c3")
	pos.PlacePiece(piece.Piece{Type: piece.Infantry, Color: piece.Red}, c3)

	cp := pos.Clone()
	cp.RemovePiece(c3)

	if !pos.Occupied.Test(c3) {
		t.Fatalf("mutating a clone must not affect the original")
	}
	if cp.Occupied.Test(c3) {
		t.Fatalf("clone did not actually remove the piece")
	}
}

func TestRestoreFromSnapshot(t *testing.T) {
	pos := New()
	c3 := sq(t, "c3")
	pos.PlacePiece(piece.Piece{Type: piece.Infantry, Color: piece.Red}, c3)
	snapshot := pos.Clone()

	pos.RemovePiece(c3)
	if pos.Occupied.Test(c3) {
		t.Fatalf("setup: piece should be removed before restore")
	}

	pos.Restore(snapshot)
	if !pos.Occupied.Test(c3) {
		t.Fatalf("Restore should bring the piece back")
	}
}

func TestCanPlaceOnRespectsTerrain(t *testing.T) {
	water := sq(t, "a1")
	land := sq(t, "k1")
	if !CanPlaceOn(piece.Navy, water) {
		t.Fatalf("navy should be placeable on water")
	}
	if CanPlaceOn(piece.Navy, land) {
		t.Fatalf("navy should not be placeable on pure land")
	}
	if CanPlaceOn(piece.Tank, water) {
		t.Fatalf("tank should not be placeable on pure water")
	}
	if !CanPlaceOn(piece.Tank, land) {
		t.Fatalf("tank should be placeable on land")
	}
}
