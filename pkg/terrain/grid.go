package terrain

// Grid is a fixed-size 2-D map addressed by (x, z).
// Cells are stored row-major: index = z*width + x.
type Grid[T any] struct {
	width  int
	height int
	cells  []T
}

// NewGrid allocates a width x height grid of zero values.
func NewGrid[T any](width, height int) *Grid[T] {
	return &Grid[T]{
		width:  width,
		height: height,
		cells:  make([]T, width*height),
	}
}

// Width returns the number of columns.
func (g *Grid[T]) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid[T]) Height() int { return g.height }

// InBounds reports whether (x, z) addresses a cell.
func (g *Grid[T]) InBounds(x, z int) bool {
	return x >= 0 && z >= 0 && x < g.width && z < g.height
}

// At returns the value at (x, z). It panics if out of bounds.
func (g *Grid[T]) At(x, z int) T {
	return g.cells[g.index(x, z)]
}

// Set stores v at (x, z). It panics if out of bounds.
func (g *Grid[T]) Set(x, z int, v T) {
	g.cells[g.index(x, z)] = v
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Cells exposes the row-major backing slice.
func (g *Grid[T]) Cells() []T { return g.cells }

func (g *Grid[T]) index(x, z int) int {
	if !g.InBounds(x, z) {
		panic("terrain: grid index out of range")
	}
	return z*g.width + x
}

// fillRect broadcasts v over the size x size block starting at (x0, z0).
func (g *Grid[T]) fillRect(x0, z0, size int, v T) {
	for z := z0; z < z0+size; z++ {
		row := g.cells[z*g.width : (z+1)*g.width]
		for x := x0; x < x0+size; x++ {
			row[x] = v
		}
	}
}

// uniform reports whether every cell of the size x size block at (x0, z0)
// equals the block's first cell.
func uniform[T comparable](g *Grid[T], x0, z0, size int) bool {
	first := g.At(x0, z0)
	for z := z0; z < z0+size; z++ {
		for x := x0; x < x0+size; x++ {
			if g.At(x, z) != first {
				return false
			}
		}
	}
	return true
}
