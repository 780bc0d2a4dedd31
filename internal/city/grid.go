package city

import "fmt"

// Point is a cell coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid holds the tile buffer and every per-cell auxiliary field.
// All slices have Size*Size entries indexed y*Size+x.
type Grid struct {
	Size  int    `json:"size"`
	Tiles []Tile `json:"tiles"`

	// Building stamps each placed footprint with an instance id so demolish
	// can clear exactly what was placed. 0 means "no recorded identity".
	Building []uint32 `json:"building"`
	NextID   uint32   `json:"next_id"`

	Powered   []bool    `json:"powered"`
	Watered   []bool    `json:"watered"`
	Fire      []uint8   `json:"fire"`      // 0..10
	Disease   []uint8   `json:"disease"`   // 0..10
	Pollution []uint8   `json:"pollution"` // 0..100
	Slum      []float32 `json:"slum"`      // 0..10, floored for display
}

// NewGrid allocates an empty size×size grid.
func NewGrid(size int) *Grid {
	if size <= 0 {
		size = 1
	}
	n := size * size
	return &Grid{
		Size:      size,
		Tiles:     make([]Tile, n),
		Building:  make([]uint32, n),
		NextID:    1,
		Powered:   make([]bool, n),
		Watered:   make([]bool, n),
		Fire:      make([]uint8, n),
		Disease:   make([]uint8, n),
		Pollution: make([]uint8, n),
		Slum:      make([]float32, n),
	}
}

// Validate checks that every field has Size*Size entries.
func (g *Grid) Validate() error {
	n := g.Size * g.Size
	if g.Size <= 0 {
		return fmt.Errorf("grid size %d", g.Size)
	}
	lens := map[string]int{
		"tiles":     len(g.Tiles),
		"building":  len(g.Building),
		"powered":   len(g.Powered),
		"watered":   len(g.Watered),
		"fire":      len(g.Fire),
		"disease":   len(g.Disease),
		"pollution": len(g.Pollution),
		"slum":      len(g.Slum),
	}
	for name, l := range lens {
		if l != n {
			return fmt.Errorf("field %s has %d cells, want %d", name, l, n)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := *g
	c.Tiles = append([]Tile(nil), g.Tiles...)
	c.Building = append([]uint32(nil), g.Building...)
	c.Powered = append([]bool(nil), g.Powered...)
	c.Watered = append([]bool(nil), g.Watered...)
	c.Fire = append([]uint8(nil), g.Fire...)
	c.Disease = append([]uint8(nil), g.Disease...)
	c.Pollution = append([]uint8(nil), g.Pollution...)
	c.Slum = append([]float32(nil), g.Slum...)
	return &c
}

// Index returns the buffer index of (x, y).
func (g *Grid) Index(x, y int) int { return y*g.Size + x }

// Coord is the inverse of Index.
func (g *Grid) Coord(i int) (int, int) { return i % g.Size, i / g.Size }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Size && y < g.Size
}

// At returns the tile at (x, y); out-of-bounds reads return an empty tile.
func (g *Grid) At(x, y int) Tile {
	if !g.InBounds(x, y) {
		return Tile{}
	}
	return g.Tiles[g.Index(x, y)]
}

// Set writes a single cell without touching building identity.
func (g *Grid) Set(x, y int, t Tile) {
	if g.InBounds(x, y) {
		g.Tiles[g.Index(x, y)] = t
	}
}

// Center returns the seed cell at the middle of the grid.
func (g *Grid) Center() Point { return Point{X: g.Size / 2, Y: g.Size / 2} }

var dirs4 = [4]Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// HasAdjacent reports whether any 4-neighbor of (x, y) satisfies match.
func (g *Grid) HasAdjacent(x, y int, match func(Tile) bool) bool {
	for _, d := range dirs4 {
		nx, ny := x+d.X, y+d.Y
		if g.InBounds(nx, ny) && match(g.Tiles[g.Index(nx, ny)]) {
			return true
		}
	}
	return false
}

// Neighbors4 returns the in-bounds orthogonal neighbors of index i.
func (g *Grid) Neighbors4(i int) []int {
	x, y := g.Coord(i)
	out := make([]int, 0, 4)
	for _, d := range dirs4 {
		nx, ny := x+d.X, y+d.Y
		if g.InBounds(nx, ny) {
			out = append(out, g.Index(nx, ny))
		}
	}
	return out
}

// CanPlace reports whether a k footprint anchored at (x, y) fits on empty cells.
func (g *Grid) CanPlace(x, y int, k Kind) bool {
	if k == Empty || !k.Valid() {
		return false
	}
	fp := k.Attrs().Footprint
	if !g.InBounds(x, y) || !g.InBounds(x+fp.W-1, y+fp.H-1) {
		return false
	}
	for yy := y; yy < y+fp.H; yy++ {
		for xx := x; xx < x+fp.W; xx++ {
			if !g.Tiles[g.Index(xx, yy)].IsEmpty() {
				return false
			}
		}
	}
	return true
}

// Place writes a fresh k building over its whole footprint anchored at
// (x, y). Either every cell changes or none does. It returns the new
// building id, or 0 when the footprint does not fit.
func (g *Grid) Place(x, y int, k Kind) uint32 {
	if !g.CanPlace(x, y, k) {
		return 0
	}
	id := g.NextID
	if id == 0 {
		id = 1
	}
	g.NextID = id + 1

	t := NewTile(k)
	fp := k.Attrs().Footprint
	for yy := y; yy < y+fp.H; yy++ {
		for xx := x; xx < x+fp.W; xx++ {
			i := g.Index(xx, yy)
			g.Tiles[i] = t
			g.Building[i] = id
		}
	}
	return id
}

// Remove clears the building covering (x, y) and returns its kind and the
// number of cells cleared. Empty cells clear nothing.
func (g *Grid) Remove(x, y int) (Kind, int) {
	if !g.InBounds(x, y) {
		return Empty, 0
	}
	i := g.Index(x, y)
	t := g.Tiles[i]
	if t.IsEmpty() {
		return Empty, 0
	}
	cells := g.footprintCells(x, y)
	for _, c := range cells {
		g.clearCell(c)
	}
	return t.Kind, len(cells)
}

// footprintCells resolves which cells belong to the building at (x, y).
func (g *Grid) footprintCells(x, y int) []int {
	i := g.Index(x, y)
	k := g.Tiles[i].Kind
	fp := k.Attrs().Footprint
	if fp.W == 1 && fp.H == 1 {
		return []int{i}
	}

	// Stamped buildings: collect every cell carrying the same id inside the
	// bounded window a footprint of this size can reach.
	if id := g.Building[i]; id != 0 {
		var cells []int
		for yy := y - fp.H + 1; yy <= y+fp.H-1; yy++ {
			for xx := x - fp.W + 1; xx <= x+fp.W-1; xx++ {
				if g.InBounds(xx, yy) && g.Building[g.Index(xx, yy)] == id {
					cells = append(cells, g.Index(xx, yy))
				}
			}
		}
		return cells
	}

	// Unstamped: recover the origin as the first cell in the window with no
	// same-kind neighbor above or to the left. Ambiguous when two same-kind
	// footprints touch.
	o, ok := g.unstampedOrigin(x, y, k, fp)
	if !ok {
		return []int{i}
	}
	var cells []int
	for yy := o.Y; yy < o.Y+fp.H; yy++ {
		for xx := o.X; xx < o.X+fp.W; xx++ {
			if g.InBounds(xx, yy) {
				c := g.Index(xx, yy)
				if g.Tiles[c].Kind == k && g.Building[c] == 0 {
					cells = append(cells, c)
				}
			}
		}
	}
	return cells
}

func (g *Grid) unstampedOrigin(x, y int, k Kind, fp Footprint) (Point, bool) {
	same := func(xx, yy int) bool {
		return g.InBounds(xx, yy) && g.Tiles[g.Index(xx, yy)].Kind == k && g.Building[g.Index(xx, yy)] == 0
	}
	for oy := y - fp.H + 1; oy <= y; oy++ {
		for ox := x - fp.W + 1; ox <= x; ox++ {
			if !same(ox, oy) {
				continue
			}
			if same(ox, oy-1) || same(ox-1, oy) {
				continue
			}
			return Point{X: ox, Y: oy}, true
		}
	}
	return Point{}, false
}

func (g *Grid) clearCell(i int) {
	g.Tiles[i] = Tile{}
	g.Building[i] = 0
	g.Fire[i] = 0
	g.Disease[i] = 0
	g.Slum[i] = 0
}

// IsOrigin reports whether index i is the top-left cell of its building.
// Single-cell tiles are always their own origin.
func (g *Grid) IsOrigin(i int) bool {
	t := g.Tiles[i]
	if t.IsEmpty() {
		return false
	}
	x, y := g.Coord(i)
	if id := g.Building[i]; id != 0 {
		left := x > 0 && g.Building[i-1] == id
		up := y > 0 && g.Building[i-g.Size] == id
		return !left && !up
	}
	fp := t.Kind.Attrs().Footprint
	if fp.W == 1 && fp.H == 1 {
		return true
	}
	left := x > 0 && g.Tiles[i-1].Kind == t.Kind && g.Building[i-1] == 0
	up := y > 0 && g.Tiles[i-g.Size].Kind == t.Kind && g.Building[i-g.Size] == 0
	return !left && !up
}

// Buildings lists the origin of every building in row-major order.
func (g *Grid) Buildings() []Point {
	var out []Point
	for i := range g.Tiles {
		if g.IsOrigin(i) {
			x, y := g.Coord(i)
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}

// BuildingsOf lists the origins of every k building.
func (g *Grid) BuildingsOf(k Kind) []Point {
	var out []Point
	for i, t := range g.Tiles {
		if t.Kind == k && g.IsOrigin(i) {
			x, y := g.Coord(i)
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}

// Count returns the number of cells holding k.
func (g *Grid) Count(k Kind) int {
	n := 0
	for _, t := range g.Tiles {
		if t.Kind == k {
			n++
		}
	}
	return n
}

// FindSite searches outward from c in square rings, from radius minR to
// maxR, for the first anchor where a k footprint fits.
func (g *Grid) FindSite(c Point, k Kind, minR, maxR int) (Point, bool) {
	for r := minR; r <= maxR; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				x, y := c.X+dx, c.Y+dy
				if g.CanPlace(x, y, k) {
					return Point{X: x, Y: y}, true
				}
			}
		}
	}
	return Point{}, false
}

// Manhattan returns |dx|+|dy|.
func Manhattan(a, b Point) int { return abs(a.X-b.X) + abs(a.Y-b.Y) }

// Chebyshev returns max(|dx|, |dy|).
func Chebyshev(a, b Point) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Line returns the cells on the Bresenham line from a to b, inclusive.
func Line(a, b Point) []Point {
	dx, dy := abs(b.X-a.X), abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx - dy
	x, y := a.X, a.Y
	out := make([]Point, 0, max(dx, dy)+1)
	for {
		out = append(out, Point{X: x, Y: y})
		if x == b.X && y == b.Y {
			return out
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}
