package deploy

import (
	"testing"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/piece"
)

func TestInitiateRejectsSecondSession(t *testing.T) {
	m := New()
	origin, _ := board.ParseSquare("d5")
	carrier := piece.Piece{Type: piece.Tank, Color: piece.Red}
	carried := []piece.Piece{{Type: piece.Infantry, Color: piece.Red}}

	if err := m.Initiate(origin, carrier, carried, piece.Red); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, active := m.Active(); !active {
		t.Fatalf("expected a session to be active after Initiate")
	}
	if err := m.Initiate(origin, carrier, carried, piece.Red); err == nil {
		t.Fatalf("Initiate should reject a second session while one is active")
	}
}

func TestDeployPieceMovesBetweenRemainingAndDeployed(t *testing.T) {
	m := New()
	origin, _ := board.ParseSquare("d5")
	to, _ := board.ParseSquare("d6")
	carrier := piece.Piece{Type: piece.Tank, Color: piece.Red}
	carried := []piece.Piece{{Type: piece.Infantry, Color: piece.Red}}
	if err := m.Initiate(origin, carrier, carried, piece.Red); err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	session, _ := m.Active()
	if len(session.Remaining) != 2 {
		t.Fatalf("Remaining = %d, want 2", len(session.Remaining))
	}

	if err := m.DeployPiece(carried[0], to, nil); err != nil {
		t.Fatalf("DeployPiece: %v", err)
	}
	if len(session.Remaining) != 1 {
		t.Fatalf("Remaining after one deploy = %d, want 1", len(session.Remaining))
	}
	if len(session.Deployed) != 1 {
		t.Fatalf("Deployed after one deploy = %d, want 1", len(session.Deployed))
	}
	if session.Deployed[0].To != to {
		t.Fatalf("Deployed[0].To = %v, want %v", session.Deployed[0].To, to)
	}
}

func TestDeployPieceRejectsPieceNotInRemaining(t *testing.T) {
	m := New()
	origin, _ := board.ParseSquare("d5")
	to, _ := board.ParseSquare("d6")
	carrier := piece.Piece{Type: piece.Tank, Color: piece.Red}
	if err := m.Initiate(origin, carrier, nil, piece.Red); err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	other := piece.Piece{Type: piece.Infantry, Color: piece.Red}
	if err := m.DeployPiece(other, to, nil); err == nil {
		t.Fatalf("DeployPiece should reject a piece absent from Remaining")
	}
}

func TestUndoLastDeployRestoresRemaining(t *testing.T) {
	m := New()
	origin, _ := board.ParseSquare("d5")
	to, _ := board.ParseSquare("d6")
	carrier := piece.Piece{Type: piece.Tank, Color: piece.Red}
	carried := []piece.Piece{{Type: piece.Infantry, Color: piece.Red}}
	if err := m.Initiate(origin, carrier, carried, piece.Red); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if err := m.DeployPiece(carried[0], to, nil); err != nil {
		t.Fatalf("DeployPiece: %v", err)
	}

	undone, ok := m.UndoLastDeploy()
	if !ok {
		t.Fatalf("UndoLastDeploy should succeed after one deploy")
	}
	if undone.To != to {
		t.Fatalf("undone.To = %v, want %v", undone.To, to)
	}

	session, _ := m.Active()
	if len(session.Remaining) != 2 {
		t.Fatalf("Remaining after undo = %d, want 2", len(session.Remaining))
	}
	if len(session.Deployed) != 0 {
		t.Fatalf("Deployed after undo = %d, want 0", len(session.Deployed))
	}

	if _, ok := m.UndoLastDeploy(); ok {
		t.Fatalf("UndoLastDeploy should fail with nothing deployed")
	}
}

func TestCommitRequiresEveryPieceDeployed(t *testing.T) {
	m := New()
	origin, _ := board.ParseSquare("d5")
	to, _ := board.ParseSquare("d6")
	carrier := piece.Piece{Type: piece.Tank, Color: piece.Red}
	carried := []piece.Piece{{Type: piece.Infantry, Color: piece.Red}}
	if err := m.Initiate(origin, carrier, carried, piece.Red); err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if m.CanCommit() {
		t.Fatalf("CanCommit should be false before every piece is deployed")
	}
	if _, err := m.Commit(); err == nil {
		t.Fatalf("Commit should fail while pieces remain")
	}

	if err := m.DeployPiece(carrier, origin, nil); err != nil {
		t.Fatalf("DeployPiece(carrier): %v", err)
	}
	if err := m.DeployPiece(carried[0], to, nil); err != nil {
		t.Fatalf("DeployPiece(carried): %v", err)
	}
	if !m.CanCommit() {
		t.Fatalf("CanCommit should be true once Remaining is empty")
	}

	done, err := m.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !done.IsComplete() {
		t.Fatalf("committed session should report IsComplete")
	}
	if _, active := m.Active(); active {
		t.Fatalf("manager should have no active session after Commit")
	}
}

func TestCancelReturnsOriginalStackAndClearsSession(t *testing.T) {
	m := New()
	origin, _ := board.ParseSquare("d5")
	to, _ := board.ParseSquare("d6")
	carrier := piece.Piece{Type: piece.Tank, Color: piece.Red}
	carried := []piece.Piece{{Type: piece.Infantry, Color: piece.Red}}
	if err := m.Initiate(origin, carrier, carried, piece.Red); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if err := m.DeployPiece(carried[0], to, nil); err != nil {
		t.Fatalf("DeployPiece: %v", err)
	}

	original, err := m.Cancel()
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(original) != 2 {
		t.Fatalf("Cancel returned %d pieces, want 2", len(original))
	}
	if original[0].Type != piece.Tank {
		t.Fatalf("original[0] = %v, want carrier Tank", original[0].Type)
	}
	if _, active := m.Active(); active {
		t.Fatalf("manager should have no active session after Cancel")
	}
	if _, err := m.Cancel(); err == nil {
		t.Fatalf("Cancel should fail with no active session")
	}
}

func TestCloneAndRestoreAreIndependent(t *testing.T) {
	m := New()
	origin, _ := board.ParseSquare("d5")
	to, _ := board.ParseSquare("d6")
	carrier := piece.Piece{Type: piece.Tank, Color: piece.Red}
	carried := []piece.Piece{{Type: piece.Infantry, Color: piece.Red}}
	if err := m.Initiate(origin, carrier, carried, piece.Red); err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	snapshot := m.Clone()

	if err := m.DeployPiece(carried[0], to, nil); err != nil {
		t.Fatalf("DeployPiece: %v", err)
	}
	session, _ := m.Active()
	if len(session.Remaining) != 1 {
		t.Fatalf("live Remaining = %d, want 1", len(session.Remaining))
	}

	snapshotSession, _ := snapshot.Active()
	if len(snapshotSession.Remaining) != 2 {
		t.Fatalf("snapshot mutated by a later deploy: Remaining = %d, want 2", len(snapshotSession.Remaining))
	}

	m.Restore(snapshot)
	session, _ = m.Active()
	if len(session.Remaining) != 2 {
		t.Fatalf("Remaining after Restore = %d, want 2", len(session.Remaining))
	}
	if len(session.Deployed) != 0 {
		t.Fatalf("Deployed after Restore = %d, want 0", len(session.Deployed))
	}
}
