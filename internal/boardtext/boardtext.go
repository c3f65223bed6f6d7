// Package boardtext renders a Position as a human-readable board dump,
// for tests and the debug CLI. Grounded on the teacher's cli/cli.go
// FormatBitboard/FormatPosition (rank-major loop, one line per rank,
// a file header), regenerated for the eleven CoTuLenh piece types and
// extended with a stack/heroic annotation the teacher's orthodox-chess
// board has no need for.
package boardtext

import (
	"strconv"
	"strings"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
)

// pieceSymbols maps each piece type to its Unicode glyph, doubled up per
// color the way the teacher's 12-entry pieceSymbols table does for
// white/black; CoTuLenh has no standard glyph set, so the commander
// doubles as a king/star stand-in and the rest follow military-unit
// conventions.
var pieceSymbols = map[piece.Type][2]rune{
	piece.Commander:   {'☆', '★'},
	piece.Infantry:    {'I', 'i'},
	piece.Tank:        {'T', 't'},
	piece.Militia:     {'M', 'm'},
	piece.Engineer:    {'E', 'e'},
	piece.Artillery:   {'A', 'a'},
	piece.AntiAir:     {'G', 'g'},
	piece.Missile:     {'S', 's'},
	piece.AirForce:    {'F', 'f'},
	piece.Navy:        {'N', 'n'},
	piece.Headquarter: {'H', 'h'},
}

func symbolFor(p piece.Piece) rune {
	pair, ok := pieceSymbols[p.Type]
	if !ok {
		return '?'
	}
	if p.Color == piece.Red {
		return pair[0]
	}
	return pair[1]
}

// Format renders pos as a 12-rank, 11-file grid, rank 12 first (matching
// the FEN placement order), with heroic pieces marked '+' and stack
// carriers marked '*' (the number of passengers is not shown).
func Format(pos *position.Position) string {
	var b strings.Builder
	for rank := board.NumRanks - 1; rank >= 0; rank-- {
		b.WriteString(padRank(rank + 1))
		b.WriteString("  ")
		for file := 0; file < board.NumFiles; file++ {
			sq := board.NewSquare(file, rank)
			p, ok := pos.GetPieceAt(sq)
			if !ok {
				b.WriteString(".  ")
				continue
			}
			symbol := symbolFor(p)
			heroic := ' '
			if pos.Heroic.Test(sq) {
				heroic = '+'
			}
			b.WriteRune(symbol)
			b.WriteRune(heroic)
			if len(p.Carrying) > 0 {
				b.WriteString("*")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString("    ")
	for file := 0; file < board.NumFiles; file++ {
		b.WriteByte('a' + byte(file))
		b.WriteString("  ")
	}
	b.WriteByte('\n')
	return b.String()
}

func padRank(rank int) string {
	if rank < 10 {
		return " " + strconv.Itoa(rank)
	}
	return strconv.Itoa(rank)
}
