package terrain

import "testing"

func TestGrid(t *testing.T) {
	g := NewGrid[int16](3, 2)

	if g.Width() != 3 || g.Height() != 2 || len(g.Cells()) != 6 {
		t.Fatalf("expected 3x2 grid, got %dx%d with %d cells", g.Width(), g.Height(), len(g.Cells()))
	}

	g.Set(2, 1, 7)
	if g.At(2, 1) != 7 {
		t.Errorf("expected 7, got %d", g.At(2, 1))
	}
	if g.Cells()[5] != 7 {
		t.Errorf("expected row-major storage, got %v", g.Cells())
	}

	g.Fill(-1)
	for i, v := range g.Cells() {
		if v != -1 {
			t.Errorf("cell %d: expected -1, got %d", i, v)
		}
	}
}

func TestGrid_InBounds(t *testing.T) {
	g := NewGrid[uint8](4, 4)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if g.InBounds(p[0], p[1]) {
			t.Errorf("expected (%d,%d) out of bounds", p[0], p[1])
		}
	}
	if !g.InBounds(3, 3) {
		t.Error("expected (3,3) in bounds")
	}
}

func TestGrid_OutOfRangePanics(t *testing.T) {
	g := NewGrid[uint8](4, 4)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	g.At(4, 0)
}

func TestGrid_FillRectAndUniform(t *testing.T) {
	g := NewGrid[RGB](8, 8)
	g.fillRect(4, 4, 4, White)

	if !uniform(g, 4, 4, 4) || !uniform(g, 0, 0, 4) {
		t.Error("expected uniform blocks")
	}
	if uniform(g, 2, 2, 4) {
		t.Error("expected mixed block")
	}
	if g.At(3, 4) != (RGB{}) || g.At(4, 3) != (RGB{}) {
		t.Error("expected fillRect to stay inside its block")
	}
}
