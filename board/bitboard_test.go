package board

import "testing"

func TestSetTestClear(t *testing.T) {
	b := Empty
	b = b.Set(Square(42))
	if !b.Test(Square(42)) {
		t.Fatalf("expected square 42 to be set")
	}
	b = b.Clear(Square(42))
	if b.Test(Square(42)) {
		t.Fatalf("expected square 42 to be cleared")
	}
}

func TestBitwiseIdentities(t *testing.T) {
	b := Empty.Set(Square(5)).Set(Square(100)).Set(Square(131))

	if got := Not(Not(b)); got != b {
		t.Fatalf("not(not(b)) != b: got %+v want %+v", got, b)
	}
	if got := Xor(b, b); got != Empty {
		t.Fatalf("xor(b,b) != empty: got %+v", got)
	}
	if got := Or(b, Empty); got != b {
		t.Fatalf("or(b,empty) != b: got %+v want %+v", got, b)
	}
	if got := And(b, Full); got != b {
		t.Fatalf("and(b,full) != b: got %+v want %+v", got, b)
	}
}

func TestPopCount(t *testing.T) {
	b := Empty
	squares := []Square{0, 1, 63, 64, 65, 127, 128, 131}
	for _, sq := range squares {
		b = b.Set(sq)
	}
	if got := b.PopCount(); got != len(squares) {
		t.Fatalf("PopCount() = %d, want %d", got, len(squares))
	}
}

func TestLSBMSB(t *testing.T) {
	if Empty.LSB() != NoSquare || Empty.MSB() != NoSquare {
		t.Fatalf("empty bitboard must report NoSquare for LSB/MSB")
	}

	b := Empty.Set(Square(10)).Set(Square(70)).Set(Square(130))
	if got := b.LSB(); got != Square(10) {
		t.Fatalf("LSB() = %v, want 10", got)
	}
	if got := b.MSB(); got != Square(130) {
		t.Fatalf("MSB() = %v, want 130", got)
	}
}

func TestPopLSBIteratesAllMembers(t *testing.T) {
	want := map[Square]bool{3: true, 64: true, 129: true}
	b := Empty
	for sq := range want {
		b = b.Set(sq)
	}

	got := map[Square]bool{}
	for !b.IsEmpty() {
		got[b.PopLSB()] = true
	}

	if len(got) != len(want) {
		t.Fatalf("PopLSB visited %d squares, want %d", len(got), len(want))
	}
	for sq := range want {
		if !got[sq] {
			t.Errorf("PopLSB never visited square %v", sq)
		}
	}
}

func TestSquareToBitBitToSquare(t *testing.T) {
	sq := Square(77)
	if got := BitToSquare(SquareToBit(sq)); got != sq {
		t.Fatalf("BitToSquare(SquareToBit(%v)) = %v", sq, got)
	}
	if got := BitToSquare(Empty); got != NoSquare {
		t.Fatalf("BitToSquare(Empty) = %v, want NoSquare", got)
	}
	multi := Empty.Set(Square(1)).Set(Square(2))
	if got := BitToSquare(multi); got != NoSquare {
		t.Fatalf("BitToSquare(multi) = %v, want NoSquare", got)
	}
}

func TestOutOfRangeSquaresAreNoOps(t *testing.T) {
	b := Empty.Set(Square(-1)).Set(Square(NumSquares))
	if !b.IsEmpty() {
		t.Fatalf("setting out-of-range squares must be a no-op, got %+v", b)
	}
	if b.Test(Square(NumSquares)) {
		t.Fatalf("out-of-range square must read as unset")
	}
}

func TestSquareNotationRoundTrip(t *testing.T) {
	cases := []string{"a1", "k12", "d5", "e6", "c1"}
	for _, s := range cases {
		sq, err := ParseSquare(s)
		if err != nil {
			t.Fatalf("ParseSquare(%q) error: %v", s, err)
		}
		if got := sq.String(); got != s {
			t.Errorf("round-trip %q -> %v -> %q", s, sq, got)
		}
	}
}

func TestParseSquareRejectsInvalid(t *testing.T) {
	cases := []string{"", "l1", "a13", "a0", "zz"}
	for _, s := range cases {
		if _, err := ParseSquare(s); err == nil {
			t.Errorf("ParseSquare(%q) should have failed", s)
		}
	}
}

func TestFilesApart(t *testing.T) {
	a, _ := ParseSquare("a1")
	k, _ := ParseSquare("k1")
	if got := FilesApart(a, k); got != 10 {
		t.Fatalf("FilesApart(a1,k1) = %d, want 10", got)
	}
}
