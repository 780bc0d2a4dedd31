package steward

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/talgya/tilecity/internal/api"
	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/entropy"
	"github.com/talgya/tilecity/internal/tuning"
)

func snapshotOf(g *city.Grid, status CityStatus) *CitySnapshot {
	return &CitySnapshot{Status: status, Map: CityMap{Size: g.Size, Tiles: g.Tiles}}
}

func freshGrid() *city.Grid {
	g := city.NewGrid(64)
	g.Set(32, 32, city.Tile{Kind: city.Station})
	return g
}

func decide(t *testing.T, g *city.Grid, status CityStatus, rules Rules) (Decision, *CityHealth) {
	t.Helper()
	snap := snapshotOf(g, status)
	h := Triage(snap, g, rules)
	return Decide(snap, g, h, rules), h
}

func TestDecideExtendsRoadsFirst(t *testing.T) {
	rules := DefaultRules(tuning.Default())
	d, h := decide(t, freshGrid(), CityStatus{Treasury: 250000}, rules)

	if h.Level != LevelHealthy || h.Upkeep != 100 {
		t.Errorf("health = %+v", h)
	}
	if d.Action != ActionRoad || d.Order == nil {
		t.Fatalf("decision = %+v", d)
	}
	o := d.Order
	if o.X != 32 || o.Y != 34 || *o.X2 != 32 || *o.Y2 != 39 || o.Mode != "road" {
		t.Errorf("order = %+v (%d,%d)", o, *o.X2, *o.Y2)
	}
}

func TestDecideZonesStrongestDemand(t *testing.T) {
	g := freshGrid()
	g.Set(10, 10, city.Tile{Kind: city.Road})
	status := CityStatus{Treasury: 250000}
	status.Civic.ResidentialDemand = 30
	status.Civic.CommercialDemand = 50

	d, _ := decide(t, g, status, DefaultRules(tuning.Default()))
	if d.Action != ActionZone || d.Order.Mode != "commercial" {
		t.Fatalf("decision = %+v", d)
	}
	if d.Order.X != 11 || d.Order.Y != 10 {
		t.Errorf("zoned (%d,%d), want (11,10)", d.Order.X, d.Order.Y)
	}
}

func TestDecideBuildsShortFacility(t *testing.T) {
	g := freshGrid()
	g.Set(20, 20, city.Tile{Kind: city.Residential, Level: 1})
	status := CityStatus{Treasury: 250000}
	status.Civic.WaterSupplyRate = 100

	d, h := decide(t, g, status, DefaultRules(tuning.Default()))
	if len(h.Shortfall) != 1 || h.Shortfall[0] != city.PowerPlant {
		t.Fatalf("shortfall = %v", h.Shortfall)
	}
	if d.Action != ActionBuild || d.Order.Mode != "power_plant" {
		t.Fatalf("decision = %+v", d)
	}
	if !g.CanPlace(d.Order.X, d.Order.Y, city.PowerPlant) {
		t.Errorf("site (%d,%d) does not fit a power plant", d.Order.X, d.Order.Y)
	}
}

func TestDecideHoldsWhenPoor(t *testing.T) {
	rules := DefaultRules(tuning.Default())
	d, h := decide(t, freshGrid(), CityStatus{Treasury: 10000}, rules)
	if h.Level != LevelCritical || d.Action != ActionNone {
		t.Errorf("level %s, decision %+v", h.Level, d)
	}

	// Warning level skips paid builds even when something is short.
	g := freshGrid()
	g.Set(20, 20, city.Tile{Kind: city.Residential, Level: 1})
	rules.WarningRunway = 1e12
	d, h = decide(t, g, CityStatus{Treasury: 250000}, rules)
	if h.Level != LevelWarning || d.Action != ActionNone {
		t.Errorf("level %s, decision %+v", h.Level, d)
	}

	d, _ = decide(t, freshGrid(), CityStatus{Treasury: 250000, Paused: true}, DefaultRules(tuning.Default()))
	if d.Action != ActionNone {
		t.Errorf("paused decision = %+v", d)
	}
}

func TestMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steward.json")
	if m := LoadMemory(path); len(m.Records) != 0 {
		t.Fatal("missing file should load empty")
	}

	m := &CycleMemory{}
	for i := 0; i < maxRecords+5; i++ {
		m.Record(CycleRecord{Month: uint32(i), Action: ActionZone, Applied: 1})
	}
	if len(m.Records) != maxRecords || m.Records[0].Month != 5 {
		t.Errorf("ring kept %d records starting at %d", len(m.Records), m.Records[0].Month)
	}
	if m.Stalled(stallCycles) {
		t.Error("applied orders are not a stall")
	}
	for i := 0; i < stallCycles; i++ {
		m.Record(CycleRecord{Action: ActionBuild})
	}
	if !m.Stalled(stallCycles) {
		t.Error("expected a stall after rejected orders")
	}

	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}
	if got := LoadMemory(path); len(got.Records) != maxRecords {
		t.Errorf("reloaded %d records", len(got.Records))
	}
}

func TestCycleAgainstLiveAPI(t *testing.T) {
	sim, err := engine.NewSimulation(engine.DefaultConfig(), tuning.Default(), entropy.Fixed(0.99))
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.NewEngine(sim)
	srv := httptest.NewServer((&api.Server{Eng: eng, AdminKey: "k"}).Handler())
	defer srv.Close()

	s := New(srv.URL, "k", DefaultRules(tuning.Default()))
	ctx := context.Background()

	rec, err := s.Cycle(ctx)
	if err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if rec.Action != ActionRoad || rec.Applied != 6 || rec.Treasury != 248800 {
		t.Errorf("first cycle = %+v", rec)
	}

	rec, err = s.Cycle(ctx)
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if rec.Action != ActionZone || rec.Mode != "residential" || rec.Applied != 1 {
		t.Errorf("second cycle = %+v", rec)
	}
	if got := eng.Snapshot().Grid.At(64, 65).Kind; got != city.Residential {
		t.Errorf("(64,65) = %s, want residential", got)
	}
	if len(s.Memory.Records) != 2 {
		t.Errorf("memory has %d records", len(s.Memory.Records))
	}
}

func TestCycleRejectedWithoutKey(t *testing.T) {
	sim, err := engine.NewSimulation(engine.DefaultConfig(), tuning.Default(), entropy.Fixed(0.99))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer((&api.Server{Eng: engine.NewEngine(sim), AdminKey: "k"}).Handler())
	defer srv.Close()

	s := New(srv.URL, "wrong", DefaultRules(tuning.Default()))
	if _, err := s.Cycle(context.Background()); err == nil {
		t.Fatal("expected the build to be rejected")
	}
	if len(s.Memory.Records) != 1 || s.Memory.Records[0].Applied != 0 {
		t.Errorf("memory = %+v", s.Memory.Records)
	}
}
