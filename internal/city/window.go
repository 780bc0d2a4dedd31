package city

// Number is the value type a summed-area table can accumulate.
type Number interface {
	~int32 | ~float64
}

// Integral is a summed-area table over a grid-shaped field. Rectangle sums
// are O(1), which keeps the 9×9 … 31×31 neighborhood queries of the growth
// and hazard passes linear in grid size.
type Integral[T Number] struct {
	size int
	sum  []T // (size+1)², row 0 and column 0 are zero
}

// NewIntegral builds a table from value(i) for every cell index i.
func NewIntegral[T Number](size int, value func(i int) T) *Integral[T] {
	w := size + 1
	s := &Integral[T]{size: size, sum: make([]T, w*w)}
	for y := 0; y < size; y++ {
		var row T
		for x := 0; x < size; x++ {
			row += value(y*size + x)
			s.sum[(y+1)*w+x+1] = s.sum[y*w+x+1] + row
		}
	}
	return s
}

// CountOf builds a table that counts cells where match holds.
func CountOf(g *Grid, match func(Tile) bool) *Integral[int32] {
	return NewIntegral(g.Size, func(i int) int32 {
		if match(g.Tiles[i]) {
			return 1
		}
		return 0
	})
}

// Rect sums the inclusive rectangle [x0,x1]×[y0,y1], clipped to the grid.
func (s *Integral[T]) Rect(x0, y0, x1, y1 int) T {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, s.size-1), min(y1, s.size-1)
	if x0 > x1 || y0 > y1 {
		return 0
	}
	w := s.size + 1
	return s.sum[(y1+1)*w+x1+1] - s.sum[y0*w+x1+1] - s.sum[(y1+1)*w+x0] + s.sum[y0*w+x0]
}

// Around sums the Chebyshev window of radius r centered on (x, y).
func (s *Integral[T]) Around(x, y, r int) T {
	return s.Rect(x-r, y-r, x+r, y+r)
}

// Cells returns how many in-bounds cells the window of radius r around (x, y) covers.
func (s *Integral[T]) Cells(x, y, r int) int {
	x0, y0 := max(x-r, 0), max(y-r, 0)
	x1, y1 := min(x+r, s.size-1), min(y+r, s.size-1)
	if x0 > x1 || y0 > y1 {
		return 0
	}
	return (x1 - x0 + 1) * (y1 - y0 + 1)
}
