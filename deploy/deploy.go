// Package deploy implements the deploy session state machine (spec §4.F):
// the multi-step process of disassembling a stack into its destination
// squares over the course of one side's turn. Chess has no multi-step
// turns for the teacher to model; the enum-plus-struct shape follows the
// teacher's own Result/Termination idiom in game.go.
package deploy

import (
	"github.com/pkg/errors"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/piece"
)

// Move records one completed deploy step: piece moved to a destination,
// optionally capturing a piece already there.
type Move struct {
	Piece     piece.Piece
	To        board.Square
	Captured  *piece.Piece
}

// Session is an in-progress (or just-completed) deploy session.
type Session struct {
	Origin        board.Square
	OriginalStack []piece.Piece // carrier first, then carried, as it stood at Initiate
	Turn          piece.Color
	Deployed      []Move
	Remaining     []piece.Piece
}

// Clone returns a deep copy of s so history snapshots never alias a live
// session's slices.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := &Session{Origin: s.Origin, Turn: s.Turn}
	cp.OriginalStack = clonePieces(s.OriginalStack)
	cp.Remaining = clonePieces(s.Remaining)
	cp.Deployed = make([]Move, len(s.Deployed))
	for i, m := range s.Deployed {
		nm := Move{Piece: m.Piece.Clone(), To: m.To}
		if m.Captured != nil {
			c := m.Captured.Clone()
			nm.Captured = &c
		}
		cp.Deployed[i] = nm
	}
	return cp
}

func clonePieces(ps []piece.Piece) []piece.Piece {
	if ps == nil {
		return nil
	}
	out := make([]piece.Piece, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// IsComplete reports whether every piece in the original stack has been
// deployed (Remaining is empty).
func (s *Session) IsComplete() bool { return len(s.Remaining) == 0 }

// Manager owns at most one active deploy session at a time.
type Manager struct {
	active *Session
}

// New returns a manager with no active session.
func New() *Manager { return &Manager{} }

// Active returns the current session and whether one is active.
func (m *Manager) Active() (*Session, bool) {
	return m.active, m.active != nil
}

// Initiate opens a new deploy session for the stack at origin. Errors if a
// session is already active.
func (m *Manager) Initiate(origin board.Square, carrier piece.Piece, carried []piece.Piece, turn piece.Color) error {
	if m.active != nil {
		return errors.New("deploy: a session is already active")
	}
	all := append([]piece.Piece{carrier}, carried...)
	m.active = &Session{
		Origin:        origin,
		Turn:          turn,
		OriginalStack: clonePieces(all),
		Remaining:     clonePieces(all),
	}
	return nil
}

// DeployPiece moves p (matched by type+color+heroic) from Remaining to
// Deployed, recording its destination and any capture. Errors if no
// session is active, or p is not present in Remaining.
func (m *Manager) DeployPiece(p piece.Piece, to board.Square, captured *piece.Piece) error {
	if m.active == nil {
		return errors.New("deploy: no active session")
	}
	idx := findRemaining(m.active.Remaining, p)
	if idx < 0 {
		return errors.Errorf("deploy: piece %v/%v is not in the remaining set", p.Type, p.Color)
	}
	moved := m.active.Remaining[idx]
	m.active.Remaining = append(m.active.Remaining[:idx], m.active.Remaining[idx+1:]...)

	var capturedCopy *piece.Piece
	if captured != nil {
		c := captured.Clone()
		capturedCopy = &c
	}
	m.active.Deployed = append(m.active.Deployed, Move{Piece: moved, To: to, Captured: capturedCopy})
	return nil
}

// UndoLastDeploy pops the most recently deployed piece back into
// Remaining and returns it. ok is false if no session is active or no
// piece has been deployed yet.
func (m *Manager) UndoLastDeploy() (Move, bool) {
	if m.active == nil || len(m.active.Deployed) == 0 {
		return Move{}, false
	}
	last := m.active.Deployed[len(m.active.Deployed)-1]
	m.active.Deployed = m.active.Deployed[:len(m.active.Deployed)-1]
	m.active.Remaining = append(m.active.Remaining, last.Piece)
	return last, true
}

// CanCommit reports whether every piece has been deployed.
func (m *Manager) CanCommit() bool {
	return m.active != nil && m.active.IsComplete()
}

// Commit finalizes the session and returns it, transitioning to inactive.
// Errors if no session is active or it is not yet complete.
func (m *Manager) Commit() (*Session, error) {
	if m.active == nil {
		return nil, errors.New("deploy: no active session to commit")
	}
	if !m.active.IsComplete() {
		return nil, errors.New("deploy: cannot commit while pieces remain undeployed")
	}
	done := m.active
	m.active = nil
	return done, nil
}

// Cancel abandons the session and returns the original stack contents
// so the caller can re-place them at Origin, transitioning to inactive.
// Errors if no session is active.
func (m *Manager) Cancel() ([]piece.Piece, error) {
	if m.active == nil {
		return nil, errors.New("deploy: no active session to cancel")
	}
	original := m.active.OriginalStack
	m.active = nil
	return original, nil
}

// Reset is Cancel without the return value, for callers that only care
// about returning to the inactive state.
func (m *Manager) Reset() error {
	_, err := m.Cancel()
	return err
}

// Clone returns a deep copy of the manager, used by history's full
// snapshot tier.
func (m *Manager) Clone() *Manager {
	return &Manager{active: m.active.Clone()}
}

// Restore replaces the manager's state with a previously cloned one.
func (m *Manager) Restore(snapshot *Manager) {
	m.active = snapshot.active.Clone()
}

func findRemaining(remaining []piece.Piece, p piece.Piece) int {
	for i, r := range remaining {
		if r.Type == p.Type && r.Color == p.Color && r.Heroic == p.Heroic {
			return i
		}
	}
	return -1
}
