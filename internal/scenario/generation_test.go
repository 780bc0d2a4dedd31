package scenario

import (
	"testing"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/entropy"
	"github.com/talgya/tilecity/internal/tuning"
)

func newSim(t *testing.T, sandbox bool) *engine.Simulation {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Sandbox = sandbox
	sim, err := engine.NewSimulation(cfg, tuning.Default(), entropy.NewSeeded(3))
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

func TestGenerateLaysOutDistrict(t *testing.T) {
	sim := newSim(t, true)
	cfg := DefaultGenConfig()
	cfg.Seed = 42
	sum := Generate(sim, cfg)

	if sum.Roads == 0 || sum.Zoned == 0 {
		t.Fatalf("summary = %+v, want roads and zones", sum)
	}
	if sum.Facilities != len(starterFacilities) {
		t.Errorf("facilities = %d, want %d", sum.Facilities, len(starterFacilities))
	}

	g := sim.Grid()
	isRoad := func(t city.Tile) bool { return t.Kind == city.Road }
	zoned := 0
	for i, tile := range g.Tiles {
		if !tile.Kind.Zoned() {
			continue
		}
		zoned++
		x, y := g.Coord(i)
		if !g.HasAdjacent(x, y, isRoad) {
			t.Fatalf("zoned cell (%d,%d) has no road", x, y)
		}
		if tile.Level < 1 || tile.Level > city.MaxLevel {
			t.Fatalf("zoned cell (%d,%d) level %d", x, y, tile.Level)
		}
	}
	if zoned != sum.Zoned {
		t.Errorf("grid has %d zoned cells, summary says %d", zoned, sum.Zoned)
	}
	if g.Count(city.Road) != sum.Roads {
		t.Errorf("grid has %d roads, summary says %d", g.Count(city.Road), sum.Roads)
	}
}

func TestGenerateIsSeeded(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7
	a, b := newSim(t, true), newSim(t, true)
	Generate(a, cfg)
	Generate(b, cfg)
	for i := range a.Grid().Tiles {
		if a.Grid().Tiles[i] != b.Grid().Tiles[i] {
			t.Fatalf("cell %d differs", i)
		}
	}
}

func TestGenerateRespectsTreasury(t *testing.T) {
	sim := newSim(t, false)
	sim.State.Treasury = 1000
	cfg := DefaultGenConfig()
	cfg.Seed = 5
	sum := Generate(sim, cfg)

	if sum.Facilities != 0 {
		t.Errorf("built %d facilities with 1000 in the treasury", sum.Facilities)
	}
	if sum.Roads != 5 {
		t.Errorf("built %d roads, want 5 at 200 each", sum.Roads)
	}
	if sim.State.Treasury != 0 {
		t.Errorf("treasury = %d, want 0", sim.State.Treasury)
	}
}
