package engine

import (
	"testing"

	"github.com/talgya/tilecity/internal/city"
)

func TestBuildFootprintIsAtomic(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	g := s.State.Grid
	// Occupy one corner of the 2×2 police footprint anchored at (10,10).
	if !s.Build(11, 11, city.Road) {
		t.Fatal("build road")
	}
	before := s.State.Treasury

	if s.Build(10, 10, city.Police) {
		t.Fatal("police placed over a road")
	}
	if s.State.Treasury != before {
		t.Errorf("treasury changed on failed build: %d → %d", before, s.State.Treasury)
	}
	for _, p := range []city.Point{{X: 10, Y: 10}, {X: 11, Y: 10}, {X: 10, Y: 11}} {
		if k := g.At(p.X, p.Y).Kind; k != city.Empty {
			t.Errorf("cell %v = %s after failed build", p, k)
		}
	}
	if g.At(11, 11).Kind != city.Road {
		t.Error("occupied cell was overwritten")
	}
}

func TestBuildRejections(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	n := s.State.Grid.Size

	tests := []struct {
		name string
		x, y int
		kind city.Kind
	}{
		{"negative", -1, 5, city.Road},
		{"past edge", n, 5, city.Road},
		{"footprint past edge", n - 1, n - 1, city.Police},
		{"on seed station", 64, 64, city.Road},
		{"empty kind", 5, 5, city.Empty},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if s.Build(tc.x, tc.y, tc.kind) {
				t.Errorf("Build(%d,%d,%s) succeeded", tc.x, tc.y, tc.kind)
			}
		})
	}
	if s.State.Treasury != 250000 {
		t.Errorf("treasury changed: %d", s.State.Treasury)
	}
}

func TestBuildInsufficientFunds(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	s.State.Treasury = 4999
	if s.Build(10, 10, city.Station) {
		t.Error("station built with 4999 in the treasury")
	}
	s.State.Treasury = 5000
	if !s.Build(10, 10, city.Station) {
		t.Error("station should be affordable at exactly its cost")
	}
	if s.State.Treasury != 0 {
		t.Errorf("treasury = %d, want 0", s.State.Treasury)
	}
}

func TestSandboxWaivesCost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sandbox = true
	s := newTestSim(t, cfg, quiet)
	s.State.Treasury = 0
	if !s.Build(20, 20, city.Airport) {
		t.Fatal("sandbox airport failed")
	}
	if s.State.Treasury != 0 {
		t.Errorf("sandbox charged %d", -s.State.Treasury)
	}
	if s.State.Grid.Count(city.Airport) != 36 {
		t.Errorf("airport covers %d cells, want 36", s.State.Grid.Count(city.Airport))
	}
}

func TestDemolishMultiCell(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	g := s.State.Grid
	if !s.Build(20, 20, city.Hospital) {
		t.Fatal("build hospital")
	}
	if !s.Demolish(22, 21) {
		t.Fatal("demolish returned false")
	}
	if n := g.Count(city.Hospital); n != 0 {
		t.Errorf("%d hospital cells left", n)
	}
}

func TestDemolishAdjacentSameKind(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	g := s.State.Grid
	s.Build(20, 20, city.Park)
	s.Build(22, 20, city.Park)

	s.Demolish(22, 21)
	if g.Count(city.Park) != 4 {
		t.Fatalf("park cells = %d, want the left park's 4", g.Count(city.Park))
	}
	if g.At(20, 20).Kind != city.Park || g.At(21, 21).Kind != city.Park {
		t.Error("demolish removed the wrong park")
	}
}

func TestDemolishEdgeCases(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	if !s.Demolish(3, 3) {
		t.Error("demolishing an empty cell should succeed")
	}
	if s.Demolish(-1, 3) {
		t.Error("demolishing off the grid should fail")
	}
	if !s.Demolish(64, 64) || s.State.Grid.At(64, 64).Kind != city.Empty {
		t.Error("seed station should be demolishable")
	}
}

func TestApplyUsesBuildMode(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	g := s.State.Grid

	s.SetBuildMode(city.FacilityMode(city.FireStation))
	if !s.Apply(30, 30) || g.At(31, 31).Kind != city.FireStation {
		t.Fatal("facility mode did not place a fire station")
	}
	s.SetBuildMode(city.ModeResidential)
	if !s.Apply(40, 40) {
		t.Fatal("residential zoning failed")
	}
	if tile := g.At(40, 40); tile.Kind != city.Residential || tile.Level != 1 {
		t.Errorf("zoned tile = %s, want residential:1", tile)
	}
	s.SetBuildMode(city.ModeDemolish)
	if !s.Apply(30, 31) || g.At(30, 30).Kind != city.Empty {
		t.Error("demolish mode did not clear the fire station")
	}
	if s.ApplyMode(50, 50, city.BuildMode{Tool: city.ToolLandmark, Kind: city.Road}) {
		t.Error("landmark mode with a non-landmark kind should fail")
	}
}
