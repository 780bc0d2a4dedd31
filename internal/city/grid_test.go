package city

import "testing"

func TestPlaceSingleCell(t *testing.T) {
	g := NewGrid(16)
	id := g.Place(3, 4, Road)
	if id == 0 {
		t.Fatal("expected road placement to succeed")
	}
	if got := g.At(3, 4); got.Kind != Road {
		t.Errorf("At(3,4) = %v, want road", got)
	}
	if g.Place(3, 4, Road) != 0 {
		t.Error("placing on an occupied cell should fail")
	}
}

func TestPlaceFootprintIsAtomic(t *testing.T) {
	g := NewGrid(16)
	g.Place(6, 6, Road) // occupies one of the four police cells below

	if g.Place(5, 5, Police) != 0 {
		t.Fatal("expected 2×2 placement over an occupied cell to fail")
	}
	for _, p := range []Point{{5, 5}, {6, 5}, {5, 6}} {
		if got := g.At(p.X, p.Y); !got.IsEmpty() {
			t.Errorf("cell %v changed to %v after failed placement", p, got)
		}
	}
	if got := g.At(6, 6); got.Kind != Road {
		t.Errorf("occupying road replaced by %v", got)
	}
}

func TestPlaceOutOfBoundsFootprint(t *testing.T) {
	g := NewGrid(16)
	tests := []struct {
		name string
		x, y int
		k    Kind
	}{
		{"negative", -1, 0, Road},
		{"past edge", 16, 3, Road},
		{"footprint overhang", 14, 14, Hospital},
		{"airport overhang", 11, 0, Airport},
		{"empty kind", 2, 2, Empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if g.Place(tt.x, tt.y, tt.k) != 0 {
				t.Errorf("Place(%d,%d,%v) succeeded, want failure", tt.x, tt.y, tt.k)
			}
		})
	}
	for i, tile := range g.Tiles {
		if !tile.IsEmpty() {
			t.Fatalf("cell %d mutated: %v", i, tile)
		}
	}
}

func TestRemoveStampedBuilding(t *testing.T) {
	g := NewGrid(16)
	g.Place(2, 2, School) // 3×3
	g.Fire[g.Index(3, 3)] = 4

	k, n := g.Remove(4, 4) // bottom-right corner
	if k != School || n != 9 {
		t.Fatalf("Remove = (%v, %d), want (school, 9)", k, n)
	}
	for y := 2; y < 5; y++ {
		for x := 2; x < 5; x++ {
			if !g.At(x, y).IsEmpty() {
				t.Errorf("cell (%d,%d) still occupied", x, y)
			}
		}
	}
	if g.Fire[g.Index(3, 3)] != 0 {
		t.Error("fire level should reset on removal")
	}
}

func TestRemoveAdjacentSameKindStampedBuildings(t *testing.T) {
	g := NewGrid(16)
	g.Place(0, 0, Police)
	g.Place(2, 0, Police) // touches the first footprint

	g.Remove(2, 1)
	if g.At(0, 0).Kind != Police || g.At(1, 1).Kind != Police {
		t.Error("removing the right police cleared the left one")
	}
	if !g.At(2, 0).IsEmpty() || !g.At(3, 1).IsEmpty() {
		t.Error("right police not fully cleared")
	}
}

func TestRemoveUnstampedFallsBackToOriginScan(t *testing.T) {
	g := NewGrid(16)
	for y := 4; y < 6; y++ {
		for x := 4; x < 6; x++ {
			g.Set(x, y, Tile{Kind: Station})
		}
	}
	k, n := g.Remove(5, 5)
	if k != Station || n != 4 {
		t.Fatalf("Remove = (%v, %d), want (station, 4)", k, n)
	}
}

func TestRemoveEmptyCell(t *testing.T) {
	g := NewGrid(8)
	if k, n := g.Remove(1, 1); k != Empty || n != 0 {
		t.Errorf("Remove on empty = (%v, %d)", k, n)
	}
}

func TestBuildingsListsOrigins(t *testing.T) {
	g := NewGrid(16)
	g.Place(1, 1, PowerPlant)
	g.Place(8, 8, Road)
	g.Place(9, 8, Road)

	got := g.Buildings()
	want := []Point{{1, 1}, {8, 8}, {9, 8}}
	if len(got) != len(want) {
		t.Fatalf("Buildings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Buildings()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := NewGrid(8)
	g.Place(0, 0, Road)
	c := g.Clone()
	c.Place(1, 1, Road)
	c.Pollution[0] = 50
	if !g.At(1, 1).IsEmpty() || g.Pollution[0] != 0 {
		t.Error("mutating the clone leaked into the original")
	}
}

func TestValidate(t *testing.T) {
	g := NewGrid(8)
	if err := g.Validate(); err != nil {
		t.Fatalf("fresh grid invalid: %v", err)
	}
	g.Fire = g.Fire[:10]
	if err := g.Validate(); err == nil {
		t.Error("expected short field to fail validation")
	}
}

func TestLine(t *testing.T) {
	pts := Line(Point{0, 0}, Point{4, 2})
	if pts[0] != (Point{0, 0}) || pts[len(pts)-1] != (Point{4, 2}) {
		t.Fatalf("endpoints wrong: %v", pts)
	}
	if len(pts) != 5 {
		t.Errorf("len = %d, want 5", len(pts))
	}
}

func TestIntegralWindows(t *testing.T) {
	g := NewGrid(10)
	g.Place(5, 5, Road)
	g.Place(0, 0, Road)
	s := CountOf(g, func(t Tile) bool { return t.Kind == Road })

	if got := s.Around(5, 5, 4); got != 1 {
		t.Errorf("Around(5,5,4) = %d, want 1", got)
	}
	if got := s.Around(2, 2, 3); got != 2 {
		t.Errorf("Around(2,2,3) = %d, want 2", got)
	}
	if got := s.Rect(0, 0, 9, 9); got != 2 {
		t.Errorf("full rect = %d, want 2", got)
	}
	if got := s.Cells(0, 0, 2); got != 9 {
		t.Errorf("Cells(0,0,2) = %d, want 9", got)
	}
}

func TestFindSite(t *testing.T) {
	g := NewGrid(16)
	c := Point{X: 8, Y: 8}
	if p, ok := g.FindSite(c, Park, 0, 8); !ok || p != c {
		t.Fatalf("empty grid: got %v %v, want the center", p, ok)
	}

	g.Place(8, 8, Road)
	p, ok := g.FindSite(c, Park, 0, 8)
	if !ok || p != (Point{X: 9, Y: 7}) {
		t.Errorf("got %v %v, want (9,7)", p, ok)
	}
	if _, ok := g.FindSite(c, Park, 0, 0); ok {
		t.Error("radius 0 should only try the blocked center")
	}
}
