package cellgrid

import "testing"

func TestGridResizeClearsContent(t *testing.T) {
	g := NewGrid(2, 2)
	var c Cell
	c.SetRune('A')
	g.Set(0, 0, c)

	g.Resize(3, 1)
	if g.Width() != 3 || g.Height() != 1 {
		t.Fatalf("got %dx%d, want 3x1", g.Width(), g.Height())
	}
	if g.At(0, 0).Rune() != 0 {
		t.Fatalf("resize left stale content, want cleared grid")
	}
}

func TestCellRuneRoundTrip(t *testing.T) {
	for _, r := range []rune{'A', '€', '好', 0x1F600} {
		var c Cell
		c.SetRune(r)
		if got := c.Rune(); got != r {
			t.Errorf("SetRune(%q) then Rune() = %q, want %q", r, got, r)
		}
	}
}

func TestLoadBytesRejectsWrongSize(t *testing.T) {
	g := NewGrid(2, 2)
	if g.LoadBytes(make([]byte, CellWireSize)) {
		t.Fatalf("LoadBytes accepted a buffer of the wrong length")
	}
}

func TestLoadBytesDecodesRowMajor(t *testing.T) {
	g := NewGrid(1, 2)
	buf := make([]byte, 2*CellWireSize)
	// Second cell: 'B', fg=(1,2,3), bg=0x0A0B0C0D.
	buf[CellWireSize+0] = 'B'
	buf[CellWireSize+4] = 1
	buf[CellWireSize+5] = 2
	buf[CellWireSize+6] = 3
	buf[CellWireSize+8] = 0x0A
	buf[CellWireSize+9] = 0x0B
	buf[CellWireSize+10] = 0x0C
	buf[CellWireSize+11] = 0x0D

	if !g.LoadBytes(buf) {
		t.Fatalf("LoadBytes rejected a correctly sized buffer")
	}
	cell := g.At(0, 1)
	if cell.Rune() != 'B' {
		t.Fatalf("got rune %q, want 'B'", cell.Rune())
	}
	if cell.Fg != (RGB{1, 2, 3}) {
		t.Fatalf("got fg %+v, want {1 2 3}", cell.Fg)
	}
	r, gC, b, a := cell.BgRGBA()
	if r != 0x0A || gC != 0x0B || b != 0x0C || a != 0x0D {
		t.Fatalf("got bg (%x %x %x %x), want (a b c d)", r, gC, b, a)
	}
}
