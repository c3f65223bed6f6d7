// Package san implements the SAN-like move notation grammar (spec §4.K):
// normal moves, captures, and the stay-capture variant marked by `<`.
// Grounded on the teacher's san.go (Move2SAN / disambiguation-by-legal-set
// pattern), narrowed to the small grammar this engine actually needs.
package san

import (
	"fmt"
	"strings"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/movegen"
	"github.com/mnoyd/cotulenh/piece"
)

// Emit renders m in SAN: "<Upper><dest>" for a normal move, "<Upper>x<dest>"
// for a capture, and "<Upper>[<from>]<dest>" with a literal "<" before dest
// for a stay-capture (the bracketed from-square is included whenever
// another stay-capture in candidates, from a different origin, shares the
// same piece letter and destination).
func Emit(m movegen.Move, candidates []movegen.Move) string {
	letter := strings.ToUpper(string(m.Piece.Type))
	var b strings.Builder
	b.WriteString(letter)

	if m.Flags.Has(movegen.StayCapture) {
		if needsDisambiguation(m, candidates) {
			b.WriteString(m.From.String())
		}
		b.WriteString("<")
		b.WriteString(m.To.String())
		return b.String()
	}

	if m.Flags.Has(movegen.Capture) {
		b.WriteString("x")
	}
	b.WriteString(m.To.String())
	return b.String()
}

// needsDisambiguation reports whether another stay-capture candidate shares
// m's piece type and destination but has a different origin, requiring the
// bracketed from-square per spec §4.K ("...or N<d8 when unambiguous").
func needsDisambiguation(m movegen.Move, candidates []movegen.Move) bool {
	for _, c := range candidates {
		if c.From == m.From {
			continue
		}
		if c.Piece.Type == m.Piece.Type && c.To == m.To && c.Flags.Has(movegen.StayCapture) {
			return true
		}
	}
	return false
}

// ParseError reports a malformed SAN string.
type ParseError struct{ msg string }

func (e *ParseError) Error() string { return "san: " + e.msg }

func parseErrorf(format string, args ...interface{}) error {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// Spec is the parsed shape of a SAN string before it is resolved against a
// position's legal moves: piece type, optional origin (board.NoSquare if
// omitted), destination, and whether it denotes a stay-capture.
type Spec struct {
	PieceType   piece.Type
	From        board.Square
	To          board.Square
	StayCapture bool
	Capture     bool
}

// Parse decodes s into a Spec without consulting any position. Resolving a
// Spec against the legal moves of a specific side to move is the caller's
// job (spec §4.K: "move(spec) ... selects among legal moves matching those
// fields").
func Parse(s string) (Spec, error) {
	if len(s) < 2 {
		return Spec{}, parseErrorf("SAN string %q is too short", s)
	}
	t, _ := piece.TypeFromLetter(s[0])
	if t == piece.NoType {
		return Spec{}, parseErrorf("unrecognized piece letter %q in %q", s[0:1], s)
	}
	rest := s[1:]

	if idx := strings.IndexByte(rest, '<'); idx >= 0 {
		spec := Spec{PieceType: t, StayCapture: true, Capture: true, From: board.NoSquare}
		if idx > 0 {
			from, err := board.ParseSquare(rest[:idx])
			if err != nil {
				return Spec{}, parseErrorf("malformed origin square in %q: %v", s, err)
			}
			spec.From = from
		}
		to, err := board.ParseSquare(rest[idx+1:])
		if err != nil {
			return Spec{}, parseErrorf("malformed destination square in %q: %v", s, err)
		}
		spec.To = to
		return spec, nil
	}

	spec := Spec{PieceType: t, From: board.NoSquare}
	if idx := strings.IndexByte(rest, 'x'); idx >= 0 {
		spec.Capture = true
		rest = rest[:idx] + rest[idx+1:]
	}
	to, err := board.ParseSquare(rest)
	if err != nil {
		return Spec{}, parseErrorf("malformed destination square in %q: %v", s, err)
	}
	spec.To = to
	return spec, nil
}

// Resolve selects the single move within candidates matching spec. Errors
// if zero or more than one candidate matches.
func Resolve(spec Spec, candidates []movegen.Move) (movegen.Move, error) {
	var matches []movegen.Move
	for _, c := range candidates {
		if c.Piece.Type != spec.PieceType || c.To != spec.To {
			continue
		}
		if c.Flags.Has(movegen.StayCapture) != spec.StayCapture {
			continue
		}
		if spec.From != board.NoSquare && c.From != spec.From {
			continue
		}
		matches = append(matches, c)
	}
	switch len(matches) {
	case 0:
		return movegen.Move{}, parseErrorf("no legal move matches %+v", spec)
	case 1:
		return matches[0], nil
	default:
		return movegen.Move{}, parseErrorf("SAN spec %+v is ambiguous among %d candidates", spec, len(matches))
	}
}
