// Package stack implements the stack manager (spec §4.C): the map of
// square to carrier+carried pieces, the carrier-occupancy bitboard, and
// the composition validator. Chess has no stacking for the teacher to
// model; the manual-switch-over-enum style of validateComposition follows
// the teacher's own preference for explicit dispatch over generic rule
// tables (spec §9, "no runtime reflection").
package stack

import (
	"github.com/pkg/errors"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/piece"
)

// MaxSize is the largest number of pieces (carrier + carried) a stack may
// hold.
const MaxSize = 4

// Data is the stack occupying one square: the carrier piece visible for
// movement/attack purposes, and its hidden passengers.
type Data struct {
	Carrier piece.Piece
	Carried []piece.Piece
}

// Size returns the total number of pieces in the stack.
func (d Data) Size() int { return 1 + len(d.Carried) }

// Manager owns every stack currently on the board and the bitboard of
// squares holding a carrier (spec §4.C).
type Manager struct {
	stacks   map[board.Square]Data
	carriers board.Bitboard
}

// New returns an empty stack manager.
func New() *Manager {
	return &Manager{stacks: make(map[board.Square]Data)}
}

// Carriers returns the bitboard of squares currently holding a stack carrier.
func (m *Manager) Carriers() board.Bitboard { return m.carriers }

// At returns the stack at sq and whether one exists.
func (m *Manager) At(sq board.Square) (Data, bool) {
	d, ok := m.stacks[sq]
	return d, ok
}

// CreateStack installs a new stack at sq. Errors if a stack already exists
// there, or if the composition is invalid.
func (m *Manager) CreateStack(carrier piece.Piece, carried []piece.Piece, sq board.Square) error {
	if _, exists := m.stacks[sq]; exists {
		return errors.Errorf("stack: a stack already exists at %v", sq)
	}
	if err := ValidateComposition(carrier, carried); err != nil {
		return err
	}
	carriedCopy := make([]piece.Piece, len(carried))
	for i, c := range carried {
		carriedCopy[i] = c.Clone()
	}
	m.stacks[sq] = Data{Carrier: carrier.Clone(), Carried: carriedCopy}
	m.carriers = m.carriers.Set(sq)
	return nil
}

// AddToStack appends p to the stack at sq. Errors if no stack exists there
// or the resulting composition would be invalid.
func (m *Manager) AddToStack(p piece.Piece, sq board.Square) error {
	d, exists := m.stacks[sq]
	if !exists {
		return errors.Errorf("stack: no stack at %v to add to", sq)
	}
	if err := ValidateAdd(d, p); err != nil {
		return err
	}
	d.Carried = append(d.Carried, p.Clone())
	m.stacks[sq] = d
	return nil
}

// RemoveFromStack removes and returns the first carried piece of type t at
// sq. Returns ok=false if no stack exists, or none of its carried pieces
// match t. The carrier itself is never removed by this operation.
func (m *Manager) RemoveFromStack(t piece.Type, sq board.Square) (p piece.Piece, ok bool) {
	d, exists := m.stacks[sq]
	if !exists {
		return piece.Piece{}, false
	}
	for i, c := range d.Carried {
		if c.Type == t {
			p = c
			d.Carried = append(d.Carried[:i], d.Carried[i+1:]...)
			m.stacks[sq] = d
			return p, true
		}
	}
	return piece.Piece{}, false
}

// DestroyStack removes and returns the entire stack at sq, clearing the
// carrier bit. Returns ok=false if no stack exists there.
func (m *Manager) DestroyStack(sq board.Square) (Data, bool) {
	d, exists := m.stacks[sq]
	if !exists {
		return Data{}, false
	}
	delete(m.stacks, sq)
	m.carriers = m.carriers.Clear(sq)
	return d, true
}

// Clone returns a deep copy of the manager, used by history's full
// snapshot tier so a restored board never aliases a later position's
// stacks.
func (m *Manager) Clone() *Manager {
	cp := New()
	for sq, d := range m.stacks {
		carried := make([]piece.Piece, len(d.Carried))
		for i, c := range d.Carried {
			carried[i] = c.Clone()
		}
		cp.stacks[sq] = Data{Carrier: d.Carrier.Clone(), Carried: carried}
	}
	cp.carriers = m.carriers
	return cp
}

// ValidateComposition reports an error if carrier+carried would violate
// any stack invariant (spec §3 "Stack"): mixed colors, size over MaxSize,
// two commanders, two headquarters, re-nesting a carrier, or infantry
// carrying infantry. An empty carried list is always accepted.
func ValidateComposition(carrier piece.Piece, carried []piece.Piece) error {
	if 1+len(carried) > MaxSize {
		return errors.Errorf("stack: size %d exceeds maximum %d", 1+len(carried), MaxSize)
	}
	if carrier.IsCarrier() {
		return errors.New("stack: carried pieces may not themselves carry (re-nesting)")
	}

	commanders, headquarters := 0, 0
	if carrier.Type == piece.Commander {
		commanders++
	}
	if carrier.Type == piece.Headquarter {
		headquarters++
	}

	for _, c := range carried {
		if c.Color != carrier.Color {
			return errors.New("stack: all pieces in a stack must share one color")
		}
		if c.IsCarrier() {
			return errors.New("stack: carried pieces may not themselves carry (re-nesting)")
		}
		if carrier.Type == piece.Infantry && c.Type == piece.Infantry {
			return errors.New("stack: infantry may not carry infantry")
		}
		if c.Type == piece.Commander {
			commanders++
		}
		if c.Type == piece.Headquarter {
			headquarters++
		}
	}
	if commanders > 1 {
		return errors.New("stack: two commanders may not coexist in one stack")
	}
	if headquarters > 1 {
		return errors.New("stack: two headquarters may not coexist in one stack")
	}
	return nil
}

// ValidateAdd reports an error if adding p to the existing stack d would
// violate any stack invariant.
func ValidateAdd(d Data, p piece.Piece) error {
	carried := make([]piece.Piece, len(d.Carried)+1)
	copy(carried, d.Carried)
	carried[len(d.Carried)] = p
	return ValidateComposition(d.Carrier, carried)
}
