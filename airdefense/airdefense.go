// Package airdefense implements the air-defense zone engine (spec §4.D):
// per-color zone maps for anti-air-capable pieces, incremental
// add/remove/move, and the air-force transit closure used to classify a
// flight path as a safe pass, a kamikaze loss, or a destroyed move.
//
// Chess has no anti-air analogue; the bit-scan-and-accumulate loop shape
// here follows the teacher's movegen.go genAttacks (iterate set bits of a
// bitboard, accumulate a result) even though the accumulated value is a
// square list rather than another bitboard.
package airdefense

import (
	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/piece"
)

// Level returns the air-defense level of a piece type (before the heroic
// bonus): anti-air and navy project level 1, missile projects level 2.
// Any other piece type has no air-defense zone (level 0).
func Level(t piece.Type, heroic bool) int {
	var base int
	switch t {
	case piece.AntiAir:
		base = 1
	case piece.Missile:
		base = 2
	case piece.Navy:
		base = 1
	default:
		return 0
	}
	if heroic {
		base++
	}
	return base
}

// zoneFor returns every on-board square within Euclidean radius level of
// sq (squared distance <= level*level), including sq itself.
func zoneFor(sq board.Square, level int) []board.Square {
	if level <= 0 {
		return nil
	}
	var zone []board.Square
	originFile, originRank := sq.File(), sq.Rank()
	for rank := 0; rank < board.NumRanks; rank++ {
		dy := rank - originRank
		for file := 0; file < board.NumFiles; file++ {
			dx := file - originFile
			if dx*dx+dy*dy <= level*level {
				zone = append(zone, board.NewSquare(file, rank))
			}
		}
	}
	return zone
}

// Engine owns the per-color air-defense zone maps and occupancy bitboards.
type Engine struct {
	zones    [2]map[board.Square][]board.Square
	occupied [2]board.Bitboard
}

// NewEngine returns an empty air-defense engine.
func NewEngine() *Engine {
	e := &Engine{}
	e.zones[piece.Red] = make(map[board.Square][]board.Square)
	e.zones[piece.Blue] = make(map[board.Square][]board.Square)
	return e
}

// OccupiedBy returns the bitboard of squares holding a friendly anti-air
// capable piece of the given color.
func (e *Engine) OccupiedBy(c piece.Color) board.Bitboard { return e.occupied[c] }

// RecomputeAll clears all state and rebuilds it from scratch given every
// piece currently on the board, keyed by the square it stands on.
func (e *Engine) RecomputeAll(pieces map[board.Square]piece.Piece) {
	e.zones[piece.Red] = make(map[board.Square][]board.Square)
	e.zones[piece.Blue] = make(map[board.Square][]board.Square)
	e.occupied = [2]board.Bitboard{}
	for sq, p := range pieces {
		e.AddZoneFor(p, sq)
	}
}

// AddZoneFor installs the zone of p standing at sq, if p projects one.
func (e *Engine) AddZoneFor(p piece.Piece, sq board.Square) {
	level := Level(p.Type, p.Heroic)
	if level == 0 {
		return
	}
	e.zones[p.Color][sq] = zoneFor(sq, level)
	e.occupied[p.Color] = e.occupied[p.Color].Set(sq)
}

// RemoveZone removes the zone anchored at sq for color c, if any.
func (e *Engine) RemoveZone(sq board.Square, c piece.Color) {
	delete(e.zones[c], sq)
	e.occupied[c] = e.occupied[c].Clear(sq)
}

// UpdateZone moves a zone from oldSq to newSq (e.g. after a move), touching
// only the one entry rather than recomputing everything.
func (e *Engine) UpdateZone(oldSq, newSq board.Square, t piece.Type, heroic bool, c piece.Color) {
	e.RemoveZone(oldSq, c)
	level := Level(t, heroic)
	if level == 0 {
		return
	}
	e.zones[c][newSq] = zoneFor(newSq, level)
	e.occupied[c] = e.occupied[c].Set(newSq)
}

// IsInZone reports whether sq is covered by any air-defense zone of
// defenderColor.
func (e *Engine) IsInZone(sq board.Square, defenderColor piece.Color) bool {
	return len(e.Influencers(sq, defenderColor)) > 0
}

// Influencers returns the squares of every defenderColor anti-air piece
// whose zone covers sq.
func (e *Engine) Influencers(sq board.Square, defenderColor piece.Color) []board.Square {
	var result []board.Square
	for origin, zone := range e.zones[defenderColor] {
		for _, z := range zone {
			if z == sq {
				result = append(result, origin)
				break
			}
		}
	}
	return result
}

// Clone returns a deep copy of the engine, used by history's full
// snapshot tier.
func (e *Engine) Clone() *Engine {
	ce := NewEngine()
	for c := piece.Red; c <= piece.Blue; c++ {
		for sq, zone := range e.zones[c] {
			zc := make([]board.Square, len(zone))
			copy(zc, zone)
			ce.zones[c][sq] = zc
		}
	}
	ce.occupied = e.occupied
	return ce
}

// TransitResult classifies the outcome of an air-force step along a path.
type TransitResult int

const (
	// SafePass means the path so far crosses no enemy air-defense zone.
	SafePass TransitResult = iota
	// Kamikaze means the path enters exactly one enemy zone and has not
	// yet left it: the move is legal but the air force piece is lost on
	// arrival.
	Kamikaze
	// Destroyed means the path has crossed into a second zone, or
	// re-entered the first zone after leaving it: the move is illegal.
	Destroyed
)

// Transit is a stateful step-checker for one air-force path, tracking
// every zone-owning square encountered and whether the path has since left
// the first zone it entered (spec §4.D).
type Transit struct {
	defenderColor piece.Color
	encountered   map[board.Square]bool
	leftFirst     bool
	result        TransitResult
	latched       bool
}

// NewTransit starts a transit checker for moves made by mover against
// mover's opponent's air-defense zones.
func NewTransit(mover piece.Color) *Transit {
	return &Transit{
		defenderColor: mover.Other(),
		encountered:   make(map[board.Square]bool),
	}
}

// NextStep advances the checker to the next square along the path and
// returns the updated result. Once Destroyed is returned, the checker
// latches and keeps returning Destroyed.
func (t *Transit) NextStep(engine *Engine, sq board.Square) TransitResult {
	if t.latched {
		return Destroyed
	}

	influencers := engine.Influencers(sq, t.defenderColor)

	if len(influencers) > 0 {
		for _, origin := range influencers {
			t.encountered[origin] = true
		}
	} else if len(t.encountered) > 0 {
		t.leftFirst = true
	}

	switch {
	case len(t.encountered) == 0:
		t.result = SafePass
	case len(t.encountered) == 1 && !t.leftFirst:
		t.result = Kamikaze
	default:
		t.result = Destroyed
		t.latched = true
	}
	return t.result
}

// Result returns the checker's current classification without advancing it.
func (t *Transit) Result() TransitResult { return t.result }
