// Package movegen implements the pseudo-legal move generator (spec
// §4.H): the direction-offset scan over the per-piece movement table,
// terrain-gated landing, stay-capture discrimination, air-defense
// gating, deploy-session integration, and the move cache. Grounded on
// the teacher's movegen.go architecture (precomputed direction tables,
// flat move slice, per-piece dispatch) with the teacher's magic-bitboard
// sliding-attack lookups replaced by direction-offset scanning, since
// CoTuLenh pieces have bounded, terrain-gated, heroic-variable ranges
// rather than chess's unbounded rook/bishop slides.
package movegen

import (
	"github.com/mnoyd/cotulenh/airdefense"
	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/deploy"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
	"github.com/mnoyd/cotulenh/stack"
)

// Flag bits set on a generated Move (spec §4.H).
type Flag uint8

const (
	Capture Flag = 1 << iota
	Combination
	Deploy
	Kamikaze
	StayCapture
)

// Has reports whether f includes bit.
func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Move is one pseudo-legal (or, after §4.I filtering, legal) move.
type Move struct {
	From     board.Square
	To       board.Square
	Piece    piece.Piece
	Captured *piece.Piece
	Flags    Flag
}

// unbounded marks a move range with no fixed limit (commander's
// orthogonal slide, spec §4.H table: "∞").
const unbounded = 1 << 20

type movement struct {
	moveRange    int
	captureRange int
	diagonal     bool
	captureThrough bool
	moveThrough    bool
}

func baseMovement(t piece.Type) movement {
	switch t {
	case piece.Commander:
		return movement{moveRange: unbounded, captureRange: 1}
	case piece.Infantry:
		return movement{moveRange: 1, captureRange: 1}
	case piece.Tank:
		return movement{moveRange: 2, captureRange: 2}
	case piece.Militia:
		return movement{moveRange: 1, captureRange: 1}
	case piece.Engineer:
		return movement{moveRange: 1, captureRange: 1}
	case piece.Artillery:
		return movement{moveRange: 3, captureRange: 3, diagonal: true, captureThrough: true}
	case piece.AntiAir:
		return movement{moveRange: 1, captureRange: 1}
	case piece.Missile:
		return movement{moveRange: 2, captureRange: 2, diagonal: true, captureThrough: true}
	case piece.AirForce:
		return movement{moveRange: 4, captureRange: 4, diagonal: true, captureThrough: true, moveThrough: true}
	case piece.Navy:
		return movement{moveRange: 4, captureRange: 4, diagonal: true, captureThrough: true}
	case piece.Headquarter:
		return movement{moveRange: 0, captureRange: 0}
	default:
		return movement{}
	}
}

// movementFor applies the heroic modifier (spec §4.H: "moveRange += 1 (∞
// stays ∞), captureRange += 1, diagonal becomes enabled"; heroic
// headquarter clamps both ranges to 1).
func movementFor(t piece.Type, heroic bool) movement {
	m := baseMovement(t)
	if !heroic {
		return m
	}
	if m.moveRange != unbounded {
		m.moveRange++
	}
	m.captureRange++
	m.diagonal = true
	if t == piece.Headquarter {
		m.moveRange = 1
		m.captureRange = 1
	}
	return m
}

// orthogonal and diagonal hold the eight offsets on the linear square
// index (spec §4.H).
var orthogonal = [4]int{-board.NumFiles, 1, board.NumFiles, -1}
var diagonal = [4]int{-board.NumFiles - 1, -board.NumFiles + 1, board.NumFiles + 1, board.NumFiles - 1}

// Cache memoizes generated move vectors keyed by the position's
// occupancy fingerprint (spec §4.H "Move cache"). It is an optimization
// only; Generate never depends on a cache hit for correctness.
type Cache struct {
	entries map[cacheKey][]Move
}

type cacheKey struct {
	turn        piece.Color
	occLo, occHi, occEx    uint64
	redLo, redHi, redEx    uint64
	blueLo, blueHi, blueEx uint64
	deployDigest           uint64
	filterSquare           board.Square
	filterType             piece.Type
}

// NewCache returns an empty move cache.
func NewCache() *Cache { return &Cache{entries: make(map[cacheKey][]Move)} }

// Invalidate drops every cached entry; call after any mutation (spec
// §4.H: "Invalidated whenever the position mutates").
func (c *Cache) Invalidate() { c.entries = make(map[cacheKey][]Move) }

func deployDigest(session *deploy.Session, active bool) uint64 {
	if !active {
		return 0
	}
	var h uint64 = 1469598103934665603 // FNV offset basis
	mix := func(v uint64) { h = (h ^ v) * 1099511628211 }
	mix(uint64(session.Origin))
	for _, m := range session.Deployed {
		mix(uint64(m.Piece.Type))
		mix(uint64(m.To))
	}
	for _, r := range session.Remaining {
		mix(uint64(r.Type))
	}
	return h
}

func keyFor(pos *position.Position, filterSquare board.Square, filterType piece.Type) cacheKey {
	session, active := pos.DeploySession.Active()
	return cacheKey{
		turn:    pos.Turn,
		occLo:   pos.Occupied.Lo, occHi: pos.Occupied.Hi, occEx: pos.Occupied.Ex,
		redLo:   pos.Colors[piece.Red].Lo, redHi: pos.Colors[piece.Red].Hi, redEx: pos.Colors[piece.Red].Ex,
		blueLo:  pos.Colors[piece.Blue].Lo, blueHi: pos.Colors[piece.Blue].Hi, blueEx: pos.Colors[piece.Blue].Ex,
		deployDigest: deployDigest(session, active),
		filterSquare: filterSquare,
		filterType:   filterType,
	}
}

// Generate returns every pseudo-legal move for the side to move,
// optionally restricted to a single origin square and/or piece type
// (board.NoSquare / piece.NoType disables the corresponding filter).
// Results are served from cache when available.
func Generate(pos *position.Position, cache *Cache, filterSquare board.Square, filterType piece.Type) []Move {
	if cache != nil {
		key := keyFor(pos, filterSquare, filterType)
		if cached, ok := cache.entries[key]; ok {
			return cached
		}
		moves := generateUncached(pos, filterSquare, filterType)
		cache.entries[key] = moves
		return moves
	}
	return generateUncached(pos, filterSquare, filterType)
}

func generateUncached(pos *position.Position, filterSquare board.Square, filterType piece.Type) []Move {
	if session, active := pos.DeploySession.Active(); active {
		return generateDeployMoves(pos, session, filterSquare, filterType)
	}

	var moves []Move
	own := pos.Colors[pos.Turn]
	squares := own
	for {
		sq := squares.PopLSB()
		if sq == board.NoSquare {
			break
		}
		p, ok := pos.GetPieceAt(sq)
		if !ok {
			continue
		}
		if filterSquare != board.NoSquare && sq != filterSquare {
			continue
		}
		if filterType != piece.NoType && p.Type != filterType {
			continue
		}
		moves = append(moves, generateFrom(pos, sq, p)...)
	}
	return moves
}

// generateDeployMoves implements spec §4.H "Deploy integration": while a
// deploy session is active, only moves for pieces still in `remaining`
// are generated, each starting from the session's origin square.
func generateDeployMoves(pos *position.Position, session *deploy.Session, filterSquare board.Square, filterType piece.Type) []Move {
	var moves []Move
	if filterSquare != board.NoSquare && filterSquare != session.Origin {
		return nil
	}
	seen := make(map[piece.Type]bool)
	for _, p := range session.Remaining {
		if seen[p.Type] {
			continue
		}
		seen[p.Type] = true
		if filterType != piece.NoType && p.Type != filterType {
			continue
		}
		for _, m := range generateFrom(pos, session.Origin, p) {
			m.Flags |= Deploy
			moves = append(moves, m)
		}
	}
	return moves
}

func generateFrom(pos *position.Position, from board.Square, p piece.Piece) []Move {
	mv := movementFor(p.Type, p.Heroic)
	if mv.moveRange == 0 && mv.captureRange == 0 {
		return nil
	}

	var offsets []int
	offsets = append(offsets, orthogonal[:]...)
	if mv.diagonal {
		offsets = append(offsets, diagonal[:]...)
	}

	maxRange := mv.moveRange
	if mv.captureRange > maxRange {
		maxRange = mv.captureRange
	}
	if maxRange == unbounded {
		maxRange = board.NumSquares
	}

	diagonalSet := map[int]bool{diagonal[0]: true, diagonal[1]: true, diagonal[2]: true, diagonal[3]: true}

	var moves []Move
	for _, off := range offsets {
		isDiagonal := diagonalSet[off]
		blocked := false
		cur := from
		for step := 1; step <= maxRange; step++ {
			next := board.Square(int(cur) + off)
			if !next.Valid() || board.FilesApart(cur, next) > 1 {
				break
			}
			cur = next

			if p.Type == piece.Missile && isDiagonal && mv.moveRange-1 >= 0 && step > mv.moveRange-1 {
				break
			}

			target, occupied := pos.GetPieceAt(next)
			if !occupied {
				if !blocked && step <= mv.moveRange && position.CanPlaceOn(p.Type, next) {
					moves = append(moves, Move{From: from, To: next, Piece: p})
				}
				continue
			}

			friendly := target.Color == p.Color
			if friendly {
				if !blocked && step <= mv.moveRange && p.Type != piece.Navy {
					if stack.ValidateAdd(stack.Data{Carrier: target, Carried: target.Carrying}, stripCarrying(p)) == nil {
						moves = append(moves, Move{From: from, To: next, Piece: p, Flags: Combination})
					}
				}
			} else if step <= mv.captureRange && canCaptureAt(p, target, step, mv) {
				moves = append(moves, captureMoves(pos, from, next, p, target)...)
			}

			// Navy slides past friendlies (spec §4.H step 5); every other
			// occupant blocks the direction unless the piece moves through.
			ignoreBlock := mv.moveThrough || (p.Type == piece.Navy && friendly)
			if ignoreBlock {
				continue
			}
			blocked = true
			if !mv.captureThrough {
				break
			}
		}
	}

	if p.Type == piece.AirForce {
		moves = gateAirDefense(pos, moves)
	}
	return moves
}

func stripCarrying(p piece.Piece) piece.Piece {
	cp := p
	cp.Carrying = nil
	return cp
}

// canCaptureAt applies the range/diagonal special cases from spec §4.H's
// capture table: commander only at range 1, navy-vs-navy uses the full
// capture range, navy-vs-land uses captureRange-1.
func canCaptureAt(attacker, defender piece.Piece, step int, mv movement) bool {
	if attacker.Type == piece.Commander {
		return step == 1
	}
	if attacker.Type == piece.Navy {
		if defender.Type == piece.Navy {
			return step <= mv.captureRange
		}
		return step <= mv.captureRange-1
	}
	return step <= mv.captureRange
}

// captureMoves implements the stay-vs-normal capture discrimination
// (spec §4.H "Capture logic").
func captureMoves(pos *position.Position, from, to board.Square, attacker, defender piece.Piece) []Move {
	captured := defender
	terrainOK := position.CanPlaceOn(attacker.Type, to)

	if !terrainOK {
		return []Move{{From: from, To: to, Piece: attacker, Captured: &captured, Flags: Capture | StayCapture}}
	}

	normal := Move{From: from, To: to, Piece: attacker, Captured: &captured, Flags: Capture}
	if attacker.Type != piece.AirForce {
		return []Move{normal}
	}

	_, insideDeploy := pos.DeploySession.Active()
	if insideDeploy {
		return []Move{normal}
	}
	stay := Move{From: from, To: to, Piece: attacker, Captured: &captured, Flags: Capture | StayCapture}
	return []Move{normal, stay}
}

// gateAirDefense drops or tags air-force moves according to the §4.D
// transit checker, walking each move's path one step at a time.
func gateAirDefense(pos *position.Position, moves []Move) []Move {
	var kept []Move
	for _, m := range moves {
		result := walkTransit(pos, m.From, m.To)
		switch result {
		case airdefense.Destroyed:
			continue
		case airdefense.Kamikaze:
			m.Flags |= Kamikaze
		}
		kept = append(kept, m)
	}
	return kept
}

func walkTransit(pos *position.Position, from, to board.Square) airdefense.TransitResult {
	p, _ := pos.GetPieceAt(from)
	tr := airdefense.NewTransit(p.Color)

	fromFile, fromRank := from.File(), from.Rank()
	toFile, toRank := to.File(), to.Rank()
	dFile, dRank := sign(toFile-fromFile), sign(toRank-fromRank)
	steps := abs(toFile - fromFile)
	if abs(toRank-fromRank) > steps {
		steps = abs(toRank - fromRank)
	}

	result := airdefense.SafePass
	cur := from
	for i := 0; i < steps; i++ {
		next := board.NewSquare(cur.File()+dFile, cur.Rank()+dRank)
		if next == board.NoSquare {
			break
		}
		cur = next
		result = tr.NextStep(pos.AirDefense, cur)
	}
	return result
}

func sign(n int) int {
	if n > 0 {
		return 1
	}
	if n < 0 {
		return -1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
