// Package fen implements the extended FEN codec (spec §4.G): the twelve
// rank-group placement grammar with parenthesized stacks and heroic
// prefixes, the four standard trailing fields, and the optional DEPLOY
// tail that records an in-progress deploy session. Grounded on the
// teacher's fen.go (ParseFEN/SerializeFEN, ParseBitboards/
// SerializeBitboards), generalized from chess's 8x8/six-piece grammar to
// CoTuLenh's twelve ranks, eleven piece letters, and stacking.
package fen

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/deploy"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/position"
)

// StartFEN is the default starting position (spec §6).
const StartFEN = "6c4/1n2fh1hf2/3a2s2a1/2n1gt1tg2/2ie2m2ei/11/11/2IE2M2EI/2N1GT1TG2/3A2S2A1/1N2FH1HF2/6C4 r - - 0 1"

// ParseError reports a malformed FEN string, naming the failing token or
// rank so callers can surface a precise diagnostic (spec §7 "FEN parse
// error").
type ParseError struct {
	cause error
}

func (e *ParseError) Error() string { return "fen: " + e.cause.Error() }
func (e *ParseError) Unwrap() error { return e.cause }

func parseErrorf(format string, args ...interface{}) error {
	return &ParseError{cause: errors.Errorf(format, args...)}
}

// Parse decodes a full FEN string (placement, turn, two dash fields,
// half-move clock, move number, and optional DEPLOY tail) into a fresh
// Position.
func Parse(s string) (*position.Position, error) {
	fields := strings.Fields(s)
	if len(fields) < 6 {
		return nil, parseErrorf("expected at least 6 space-separated fields, got %d", len(fields))
	}

	pos := position.New()
	if err := parsePlacement(pos, fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "r":
		pos.Turn = piece.Red
	case "b":
		pos.Turn = piece.Blue
	default:
		return nil, parseErrorf("unknown turn marker %q", fields[1])
	}
	// fields[2], fields[3] are literal dashes (castling/en-passant
	// placeholders, spec §4.G); nothing to decode.

	half, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, parseErrorf("malformed half-move clock %q", fields[4])
	}
	pos.HalfMoveClock = half

	moveNum, err := strconv.Atoi(fields[5])
	if err != nil {
		return nil, parseErrorf("malformed move number %q", fields[5])
	}
	pos.FullMoveNumber = moveNum

	if len(fields) > 6 {
		if fields[6] != "DEPLOY" {
			return nil, parseErrorf("unexpected trailing field %q", fields[6])
		}
		if len(fields) < 8 {
			return nil, parseErrorf("DEPLOY tail is missing its origin:moves payload")
		}
		if err := parseDeployTail(pos, fields[7]); err != nil {
			return nil, err
		}
	}

	return pos, nil
}

// Emit renders pos back to its FEN string. For every accepted FEN F,
// Emit applied to Parse(F)'s position == F (spec §4.G "Round-trip").
func Emit(pos *position.Position) string {
	var b strings.Builder
	b.WriteString(emitPlacement(pos))
	b.WriteByte(' ')
	if pos.Turn == piece.Red {
		b.WriteByte('r')
	} else {
		b.WriteByte('b')
	}
	b.WriteString(" - - ")
	b.WriteString(strconv.Itoa(pos.HalfMoveClock))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(pos.FullMoveNumber))

	if session, active := pos.DeploySession.Active(); active {
		b.WriteString(" DEPLOY ")
		b.WriteString(emitDeployTail(session))
	}
	return b.String()
}

// cell is the rendered content of one square: empty (nil), a single
// piece, or a stack (carrier first).
type cell []piece.Piece

func parsePlacement(pos *position.Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != board.NumRanks {
		return parseErrorf("expected %d rank groups, found %d", board.NumRanks, len(ranks))
	}
	for li, rankStr := range ranks {
		rank := board.NumRanks - 1 - li
		if err := parseRank(pos, rankStr, rank); err != nil {
			return err
		}
	}
	return nil
}

func parseRank(pos *position.Position, rankStr string, rank int) error {
	file := 0
	i := 0
	for i < len(rankStr) {
		ch := rankStr[i]
		switch {
		case ch >= '0' && ch <= '9':
			start := i
			for i < len(rankStr) && rankStr[i] >= '0' && rankStr[i] <= '9' {
				i++
			}
			n, _ := strconv.Atoi(rankStr[start:i])
			file += n

		case ch == '+':
			i++
			if i >= len(rankStr) {
				return parseErrorf("rank %d: heroic marker '+' with nothing following it", rank+1)
			}
			if rankStr[i] == '(' {
				i++
				tokens, consumed, err := parseStackBody(rankStr[i:], rank)
				if err != nil {
					return err
				}
				tokens[0].heroic = true
				i += consumed
				if err := placeCell(pos, tokens, file, rank); err != nil {
					return err
				}
				file++
			} else {
				t, color := piece.TypeFromLetter(rankStr[i])
				if t == piece.NoType {
					return parseErrorf("rank %d: unknown piece letter %q", rank+1, rankStr[i])
				}
				i++
				if err := pos.PlacePiece(piece.Piece{Type: t, Color: color, Heroic: true}, board.NewSquare(file, rank)); err != nil {
					return parseErrorf("rank %d: %v", rank+1, err)
				}
				file++
			}

		case ch == '(':
			i++
			tokens, consumed, err := parseStackBody(rankStr[i:], rank)
			if err != nil {
				return err
			}
			i += consumed
			if err := placeCell(pos, tokens, file, rank); err != nil {
				return err
			}
			file++

		case ch == ')':
			return parseErrorf("rank %d: unmatched ')'", rank+1)

		default:
			t, color := piece.TypeFromLetter(ch)
			if t == piece.NoType {
				return parseErrorf("rank %d: unknown piece letter %q", rank+1, ch)
			}
			i++
			if err := pos.PlacePiece(piece.Piece{Type: t, Color: color}, board.NewSquare(file, rank)); err != nil {
				return parseErrorf("rank %d: %v", rank+1, err)
			}
			file++
		}
	}
	if file != board.NumFiles {
		return parseErrorf("rank %d: files summed to %d, want %d", rank+1, file, board.NumFiles)
	}
	return nil
}

type stackToken struct {
	t      piece.Type
	color  piece.Color
	heroic bool
}

// parseStackBody parses the inside of a "(...)" group (the opening '('
// already consumed) and returns its tokens plus how many bytes of s were
// consumed, including the closing ')'.
func parseStackBody(s string, rank int) ([]stackToken, int, error) {
	var tokens []stackToken
	i := 0
	for {
		if i >= len(s) {
			return nil, 0, parseErrorf("rank %d: unmatched '(' (missing closing ')')", rank+1)
		}
		ch := s[i]
		switch {
		case ch == ')':
			i++
			if len(tokens) < 2 {
				return nil, 0, parseErrorf("rank %d: a stack group must hold at least 2 pieces", rank+1)
			}
			return tokens, i, nil
		case ch >= '0' && ch <= '9':
			return nil, 0, parseErrorf("rank %d: digit inside a stack group", rank+1)
		case ch == '(':
			return nil, 0, parseErrorf("rank %d: stack groups may not nest", rank+1)
		case ch == '+':
			i++
			if i >= len(s) || s[i] == ')' {
				return nil, 0, parseErrorf("rank %d: heroic marker '+' with nothing following it", rank+1)
			}
			t, color := piece.TypeFromLetter(s[i])
			if t == piece.NoType {
				return nil, 0, parseErrorf("rank %d: unknown piece letter %q", rank+1, s[i])
			}
			tokens = append(tokens, stackToken{t: t, color: color, heroic: true})
			i++
		default:
			t, color := piece.TypeFromLetter(ch)
			if t == piece.NoType {
				return nil, 0, parseErrorf("rank %d: unknown piece letter %q", rank+1, ch)
			}
			tokens = append(tokens, stackToken{t: t, color: color})
			i++
		}
	}
}

func placeCell(pos *position.Position, tokens []stackToken, file, rank int) error {
	carrier := piece.Piece{Type: tokens[0].t, Color: tokens[0].color, Heroic: tokens[0].heroic}
	carried := make([]piece.Piece, len(tokens)-1)
	for i, tok := range tokens[1:] {
		carried[i] = piece.Piece{Type: tok.t, Color: tok.color, Heroic: tok.heroic}
	}
	carrier.Carrying = carried
	if err := pos.PlacePiece(carrier, board.NewSquare(file, rank)); err != nil {
		return parseErrorf("rank %d: %v", rank+1, err)
	}
	return nil
}

func emitPlacement(pos *position.Position) string {
	grid := make([][]cell, board.NumRanks)
	for r := range grid {
		grid[r] = make([]cell, board.NumFiles)
	}
	for sq := 0; sq < board.NumSquares; sq++ {
		s := board.Square(sq)
		p, ok := pos.GetPieceAt(s)
		if !ok {
			continue
		}
		c := append(cell{{Type: p.Type, Color: p.Color, Heroic: p.Heroic}}, p.Carrying...)
		grid[s.Rank()][s.File()] = c
	}

	// A FEN placement is a snapshot of the board as it stood before the
	// active deploy session began: the origin still holds the full
	// original stack, and every square a deploy step has since touched
	// reverts to whatever stood there beforehand (spec §4.G/§8 scenario
	// 5 — the DEPLOY tail alone carries what has happened since).
	if session, active := pos.DeploySession.Active(); active {
		for _, m := range session.Deployed {
			if m.Captured != nil {
				grid[m.To.Rank()][m.To.File()] = cell{*m.Captured}
			} else {
				grid[m.To.Rank()][m.To.File()] = nil
			}
		}
		grid[session.Origin.Rank()][session.Origin.File()] = cell(session.OriginalStack)
	}

	var b strings.Builder
	for li := 0; li < board.NumRanks; li++ {
		rank := board.NumRanks - 1 - li
		if li > 0 {
			b.WriteByte('/')
		}
		b.WriteString(emitRank(grid[rank]))
	}
	return b.String()
}

func emitRank(row []cell) string {
	var b strings.Builder
	empties := 0
	flush := func() {
		if empties > 0 {
			b.WriteString(strconv.Itoa(empties))
			empties = 0
		}
	}
	for _, c := range row {
		if len(c) == 0 {
			empties++
			continue
		}
		flush()
		if len(c) == 1 {
			b.WriteString(emitPieceLetter(c[0]))
			continue
		}
		b.WriteByte('(')
		for _, p := range c {
			b.WriteString(emitPieceLetter(p))
		}
		b.WriteByte(')')
	}
	flush()
	return b.String()
}

func emitPieceLetter(p piece.Piece) string {
	letter := string(piece.Letter(p.Type, p.Color))
	if p.Heroic {
		return "+" + letter
	}
	return letter
}

func parseDeployTail(pos *position.Position, tail string) error {
	parts := strings.SplitN(tail, ":", 2)
	if len(parts) != 2 {
		return parseErrorf("DEPLOY tail %q is missing ':'", tail)
	}
	origin, err := board.ParseSquare(parts[0])
	if err != nil {
		return parseErrorf("DEPLOY tail: malformed origin square %q", parts[0])
	}

	movesStr := parts[1]
	incomplete := strings.HasSuffix(movesStr, "...")
	if incomplete {
		movesStr = strings.TrimSuffix(movesStr, "...")
	}

	// The origin still physically holds the full original stack at this
	// point in parsing; only peek it so the board stays exactly as the
	// placement text described until moves actually start leaving it
	// (spec §4.F: each deploy step alone applies its board effect).
	data, ok := pos.Stacks.At(origin)
	if !ok {
		return parseErrorf("DEPLOY tail: no stack found at origin %v", origin)
	}
	if err := pos.DeploySession.Initiate(origin, data.Carrier, data.Carried, pos.Turn); err != nil {
		return parseErrorf("DEPLOY tail: %v", err)
	}

	var tokens []string
	if movesStr != "" {
		tokens = strings.Split(movesStr, ",")
	}
	for _, tok := range tokens {
		if err := applyDeployMoveToken(pos, origin, tok); err != nil {
			return err
		}
	}

	complete := pos.DeploySession.CanCommit()
	if incomplete && complete {
		return parseErrorf("DEPLOY tail: '...' present but every piece has already been deployed")
	}
	if !incomplete && !complete {
		return parseErrorf("DEPLOY tail: '...' is required while pieces remain undeployed")
	}
	return nil
}

func applyDeployMoveToken(pos *position.Position, origin board.Square, tok string) error {
	if tok == "" {
		return parseErrorf("DEPLOY tail: empty move token")
	}
	i := 0
	t, _ := piece.TypeFromLetter(tok[i])
	if t == piece.NoType {
		return parseErrorf("DEPLOY tail: unknown piece letter in move %q", tok)
	}
	i++

	var carryLetters []byte
	if i < len(tok) && tok[i] == '(' {
		i++
		for i < len(tok) && tok[i] != ')' {
			carryLetters = append(carryLetters, tok[i])
			i++
		}
		if i >= len(tok) {
			return parseErrorf("DEPLOY tail: unmatched '(' in move %q", tok)
		}
		i++ // consume ')'
	}

	wantCapture := false
	if i < len(tok) && tok[i] == 'x' {
		wantCapture = true
		i++
	}

	if i >= len(tok) {
		return parseErrorf("DEPLOY tail: malformed move %q (missing destination)", tok)
	}
	dest, err := board.ParseSquare(tok[i:])
	if err != nil {
		return parseErrorf("DEPLOY tail: malformed destination in move %q", tok)
	}

	session, _ := pos.DeploySession.Active()
	if _, ok := popByType(&session.Remaining, t); !ok {
		return parseErrorf("DEPLOY tail: piece %q is not in the remaining set for move %q", string(t), tok)
	}
	moved, err := pos.RemoveFromStack(origin, t)
	if err != nil {
		return parseErrorf("DEPLOY tail: %v", err)
	}
	for _, lc := range carryLetters {
		ct, _ := piece.TypeFromLetter(lc)
		if ct == piece.NoType {
			return parseErrorf("DEPLOY tail: unknown carried piece letter in move %q", tok)
		}
		if _, ok := popByType(&session.Remaining, ct); !ok {
			return parseErrorf("DEPLOY tail: carried piece %q is not in the remaining set for move %q", string(ct), tok)
		}
		carried, err := pos.RemoveFromStack(origin, ct)
		if err != nil {
			return parseErrorf("DEPLOY tail: %v", err)
		}
		moved.Carrying = append(moved.Carrying, carried)
	}

	_, occupied := pos.GetPieceAt(dest)
	if occupied != wantCapture {
		return parseErrorf("DEPLOY tail: capture marker mismatch in move %q", tok)
	}
	var capturedPtr *piece.Piece
	if occupied {
		captured, _ := pos.RemovePiece(dest)
		capturedPtr = &captured
	}
	if err := pos.PlacePiece(moved, dest); err != nil {
		return parseErrorf("DEPLOY tail: %v", err)
	}
	// session.Remaining was already updated by popByType above; record the
	// deployed move directly rather than through Manager.DeployPiece, which
	// would search for an exact (type, color, heroic) match and know
	// nothing of the embedded-carry grouping a single FEN token encodes.
	session.Deployed = append(session.Deployed, deploy.Move{Piece: moved, To: dest, Captured: capturedPtr})
	return nil
}

// popByType removes and returns the first piece of type t from
// *remaining, matching by type alone (heroic/color are implied by the
// origin stack and are not separately encoded in a deploy move token).
func popByType(remaining *[]piece.Piece, t piece.Type) (piece.Piece, bool) {
	for i, p := range *remaining {
		if p.Type == t {
			cp := p
			*remaining = append((*remaining)[:i], (*remaining)[i+1:]...)
			return cp, true
		}
	}
	return piece.Piece{}, false
}

func emitDeployTail(session *deploy.Session) string {
	var b strings.Builder
	b.WriteString(session.Origin.String())
	b.WriteByte(':')
	for i, m := range session.Deployed {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strings.ToUpper(string(m.Piece.Type)))
		if len(m.Piece.Carrying) > 0 {
			b.WriteByte('(')
			for _, c := range m.Piece.Carrying {
				b.WriteString(strings.ToUpper(string(c.Type)))
			}
			b.WriteByte(')')
		}
		if m.Captured != nil {
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
	}
	if len(session.Remaining) > 0 {
		b.WriteString("...")
	}
	return b.String()
}
