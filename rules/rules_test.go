package rules

import (
	"testing"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/fen"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
)

func sq(t *testing.T, s string) board.Square {
	t.Helper()
	q, err := board.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return q
}

func TestFindCommanderMissingReturnsNoSquare(t *testing.T) {
	pos := position.New()
	if FindCommander(pos, piece.Red) != board.NoSquare {
		t.Fatalf("expected NoSquare for an uncaptured but unplaced commander")
	}
}

func TestIsCheckDetectsAdjacentEnemyTank(t *testing.T) {
	pos := position.New()
	cmdSq := sq(t, "f6")
	pos.PlacePiece(piece.Piece{Type: piece.Commander, Color: piece.Red}, cmdSq)
	tankSq := sq(t, "f7")
	pos.PlacePiece(piece.Piece{Type: piece.Tank, Color: piece.Blue}, tankSq)
	pos.PlacePiece(piece.Piece{Type: piece.Commander, Color: piece.Blue}, sq(t, "k12"))

	if !IsCheck(pos, piece.Red) {
		t.Fatalf("commander adjacent to an enemy tank should be in check")
	}
}

func TestIsCommanderExposedSameFileNoBlocker(t *testing.T) {
	pos := position.New()
	pos.PlacePiece(piece.Piece{Type: piece.Commander, Color: piece.Red}, sq(t, "f1"))
	pos.PlacePiece(piece.Piece{Type: piece.Commander, Color: piece.Blue}, sq(t, "f12"))

	if !IsCommanderExposed(pos, piece.Red) {
		t.Fatalf("commanders sharing a file with nothing between them should be exposed")
	}
}

func TestIsCommanderExposedBlockedByIntervener(t *testing.T) {
	pos := position.New()
	pos.PlacePiece(piece.Piece{Type: piece.Commander, Color: piece.Red}, sq(t, "f1"))
	pos.PlacePiece(piece.Piece{Type: piece.Commander, Color: piece.Blue}, sq(t, "f12"))
	pos.PlacePiece(piece.Piece{Type: piece.Infantry, Color: piece.Red}, sq(t, "f6"))

	if IsCommanderExposed(pos, piece.Red) {
		t.Fatalf("an intervening piece should break the commanders-face rule")
	}
}

func TestStartPositionHasNoCheckAndIsNotGameOver(t *testing.T) {
	pos, err := fen.Parse(fen.StartFEN)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if IsCheck(pos, piece.Red) {
		t.Fatalf("starting position should not be check")
	}
	if IsGameOver(pos, fen.Emit(pos)) {
		t.Fatalf("starting position should not be game over")
	}
}

func TestFiftyMoveDrawThreshold(t *testing.T) {
	pos := position.New()
	pos.HalfMoveClock = 100
	if !IsFiftyMoveDraw(pos) {
		t.Fatalf("half-move clock of 100 should trigger the fifty-move draw")
	}
}

func TestThreefoldRepetition(t *testing.T) {
	pos := position.New()
	key := "some-position-key"
	pos.RepetitionCounts[key] = 3
	if !IsThreefoldRepetition(pos, key) {
		t.Fatalf("a position occurring three times should be a draw by repetition")
	}
}
