package engine

import (
	"math"
	"testing"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/entropy"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestInfrastructureRadii(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	g := s.State.Grid
	s.Build(10, 10, city.PowerPlant) // cells 10..13
	s.Build(80, 80, city.WaterTreatment)

	s.diffuseInfrastructure()
	if !g.Powered[g.Index(33, 13)] {
		t.Error("cell 20 east of the plant edge should be powered")
	}
	if g.Powered[g.Index(34, 13)] {
		t.Error("cell 21 east of the plant edge should not be powered")
	}
	if !g.Watered[g.Index(82, 97)] || g.Watered[g.Index(82, 98)] {
		t.Error("water radius should be 15 from the plant edge")
	}
	if s.State.Civic.PowerSupplyRate != 100 || s.State.Civic.WaterSupplyRate != 100 {
		t.Error("supply rates with no zoned tiles should be 100")
	}

	g.Tiles[g.Index(12, 20)] = city.Tile{Kind: city.Residential, Level: 1}
	g.Tiles[g.Index(120, 5)] = city.Tile{Kind: city.Residential, Level: 1}
	s.diffuseInfrastructure()
	if s.State.Civic.PowerSupplyRate != 50 || s.State.Civic.WaterSupplyRate != 0 {
		t.Errorf("supply rates = %g/%g, want 50/0", s.State.Civic.PowerSupplyRate, s.State.Civic.WaterSupplyRate)
	}

	s.Demolish(10, 10)
	s.diffuseInfrastructure()
	if g.Powered[g.Index(12, 20)] {
		t.Error("coverage should vanish with the plant")
	}
}

func TestCivicDecay(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	c := &s.State.Civic
	c.Security, c.Safety, c.Education, c.Medical = 100, 40, 20, 50
	c.Tourism, c.International = 50, 10

	s.aggregateCivic()
	if !near(c.Security, 94) || !near(c.Safety, 40) || !near(c.Education, 22) || !near(c.Medical, 49) {
		t.Errorf("core scalars = %g %g %g %g", c.Security, c.Safety, c.Education, c.Medical)
	}
	if !near(c.Tourism, 47.5) || !near(c.International, 9.5) {
		t.Errorf("leisure scalars = %g %g", c.Tourism, c.International)
	}
}

func TestFacilityEffects(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	s.Build(60, 60, city.Police)
	s.Build(20, 100, city.Airport)
	c := &s.State.Civic

	s.aggregateCivic()
	if c.Security <= 49 || c.Security > 54 {
		t.Errorf("security = %g, want the 49 baseline plus a police boost under 5", c.Security)
	}
	if !near(c.Safety, 49) {
		t.Errorf("safety = %g, want untouched 49", c.Safety)
	}
	if c.Tourism <= 0 || c.International <= c.Tourism {
		t.Errorf("airport effects tourism=%g international=%g", c.Tourism, c.International)
	}
}

func TestCoverageDeficit(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	c := &s.State.Civic
	s.State.Population = 20000
	c.Security = 40 // decay floor: stays 40 before the deficit

	s.aggregateCivic()
	// 20000 residents need 4 police stations; none are built.
	if !near(c.Security, 20) {
		t.Errorf("security = %g, want 40×(1-1×0.5)=20", c.Security)
	}

	s2 := newTestSim(t, DefaultConfig(), quiet)
	s2.State.Population = 20000
	s2.State.Civic.PowerSupplyRate = 100
	s2.Build(10, 10, city.PowerPlant)
	s2.aggregateCivic()
	// 3 plants required, 1 built: deficit 2/3.
	if want := 100 * (1 - 2.0/3*0.3); !near(s2.State.Civic.PowerSupplyRate, want) {
		t.Errorf("power supply = %g, want %g", s2.State.Civic.PowerSupplyRate, want)
	}
}

func TestSynergyPairs(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	s.Build(20, 20, city.Police)
	s.Build(24, 20, city.School)
	s.Build(29, 20, city.Hospital)
	c := &s.State.Civic

	s.applySynergies()
	if c.Security != 60 {
		t.Errorf("security = %g, want 60", c.Security)
	}
	if c.Education != 65 {
		t.Errorf("education = %g, want 50+10+5", c.Education)
	}
	if c.Medical != 55 {
		t.Errorf("medical = %g, want 55", c.Medical)
	}
}

func TestSynergyTripleAndClamp(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	// The seed station sits at (64,64).
	s.Build(70, 64, city.Police)
	s.Build(64, 70, city.School)
	c := &s.State.Civic
	c.Education = 90

	s.applySynergies()
	// Police-school pair (+10) and station triple (+8) overflow 100.
	if c.Education != 100 {
		t.Errorf("education = %g, want clamped 100", c.Education)
	}
}

func TestDemandBounds(t *testing.T) {
	s := newTestSim(t, Config{MapSize: MapSmall}, quiet)
	c := &s.State.Civic

	s.updateDemand()
	if c.ResidentialDemand != 50 || c.CommercialDemand != 20 || c.IndustrialDemand != 20 {
		t.Errorf("empty-city demand = %d/%d/%d, want 50/20/20",
			c.ResidentialDemand, c.CommercialDemand, c.IndustrialDemand)
	}

	s.State.Population = 10_000_000
	s.updateDemand()
	if c.ResidentialDemand != 100 || c.CommercialDemand != 100 {
		t.Errorf("huge-population demand = %d/%d, want capped 100", c.ResidentialDemand, c.CommercialDemand)
	}

	g := s.State.Grid
	for i := range g.Tiles {
		g.Tiles[i] = city.Tile{Kind: city.Residential, Level: 4}
	}
	s.CalculatePopulation()
	s.updateDemand()
	if c.ResidentialDemand != 0 {
		t.Errorf("full-map residential demand = %d, want 0", c.ResidentialDemand)
	}
	for _, d := range []int{c.ResidentialDemand, c.CommercialDemand, c.IndustrialDemand} {
		if d < 0 || d > 100 {
			t.Errorf("demand %d out of range", d)
		}
	}
}

func TestPenalties(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	c := &s.State.Civic
	m := &s.State.Modifiers

	c.PowerSupplyRate, c.WaterSupplyRate = 100, 100
	c.Security, c.Safety, c.Education, c.Medical = 50, 50, 50, 50
	s.derivePenalties()
	if c.GrowthPenalty != 1 || c.RevenuePenalty != 1 {
		t.Errorf("healthy city penalties = %g/%g", c.GrowthPenalty, c.RevenuePenalty)
	}
	if *m != neutralModifiers() {
		t.Errorf("healthy city modifiers = %+v", *m)
	}

	c.PowerSupplyRate, c.WaterSupplyRate = 0, 0
	c.Security, c.Safety, c.Education, c.Medical = 0, 0, 0, 20
	s.derivePenalties()
	if want := 0.6 * 0.3 * 0.5 * 0.6; !near(c.GrowthPenalty, want) {
		t.Errorf("growth penalty = %g, want %g", c.GrowthPenalty, want)
	}
	if want := 0.8 * 0.7 * 0.85; !near(c.RevenuePenalty, want) {
		t.Errorf("revenue penalty = %g, want %g", c.RevenuePenalty, want)
	}
	if m.FireAmplifier != 1.2 || m.UnwateredAmplifier != 1.2 || m.DiseaseAmplifier != 1.15 {
		t.Errorf("amplifiers = %+v", *m)
	}
	if !near(m.ServiceComfort, 0.75) {
		t.Errorf("medical comfort = %g, want 0.75", m.ServiceComfort)
	}
}

func TestComfort(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	// One station cell: green 0, transport 5, density 100, funds 100.
	if got := s.CalculateComfort(); got != 51 {
		t.Errorf("fresh comfort = %d, want 51", got)
	}
	s.State.Modifiers.PollutionComfort = 0.5
	if got := s.CalculateComfort(); got != 26 {
		t.Errorf("polluted comfort = %d, want 26", got)
	}
}

func TestComfortCountsStationTiles(t *testing.T) {
	s := newTestSim(t, DefaultConfig(), quiet)
	if !s.Build(10, 10, city.Station) {
		t.Fatal("station not built")
	}
	// Five station cells: transport 25, density 100, funds 98.
	if got := s.CalculateComfort(); got != 56 {
		t.Errorf("comfort = %d, want 56", got)
	}
}

func TestLandmarkRevenueBonus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sandbox = true
	s := newTestSim(t, cfg, quiet)
	g := s.State.Grid
	s.Build(20, 20, city.Stadium)
	g.Tiles[g.Index(30, 21)] = city.Tile{Kind: city.Commercial, Level: 2}
	g.Tiles[g.Index(120, 120)] = city.Tile{Kind: city.Commercial, Level: 4}
	s.State.Civic.RevenuePenalty = 0

	rep := s.settleLedger()
	if rep.Revenue != 1166 {
		t.Errorf("revenue = %d, want the level-2 stadium tier 1166", rep.Revenue)
	}
	if rep.Maintenance != 2000+100 {
		t.Errorf("maintenance = %d, want stadium and station upkeep 2100", rep.Maintenance)
	}
}

func TestGrowthSpawnsNextToRoads(t *testing.T) {
	s := newTestSim(t, Config{MapSize: MapSmall}, entropy.Fixed(0))
	s.Build(10, 10, city.Road)
	s.Grow()

	g := s.State.Grid
	if k := g.At(10, 9).Kind; k != city.Residential {
		t.Errorf("cell above the road = %s, want residential", k)
	}
	if g.Building[g.Index(10, 9)] == 0 {
		t.Error("spawned plot should carry a building id")
	}
}

func TestGrowthHalts(t *testing.T) {
	for name, setup := range map[string]func(*Simulation){
		"speed zero": func(s *Simulation) { s.SetGameSpeed(0) },
		"paused":     func(s *Simulation) { s.SetPaused(true) },
		"rate zero":  func(s *Simulation) { s.SetBaseRate(0) },
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestSim(t, Config{MapSize: MapSmall}, entropy.Fixed(0))
			s.Build(10, 10, city.Road)
			setup(s)
			s.Grow()
			if n := s.State.Grid.Count(city.Residential); n != 0 {
				t.Errorf("%d plots grew", n)
			}
		})
	}
}

func TestGrowthLevelsUp(t *testing.T) {
	s := newTestSim(t, Config{MapSize: MapSmall}, entropy.Fixed(0))
	g := s.State.Grid
	// Surround the plot so nothing new spawns beside it.
	i := g.Index(0, 0)
	g.Tiles[i] = city.Tile{Kind: city.Commercial, Level: 3}
	g.Tiles[g.Index(1, 0)] = city.Tile{Kind: city.Park}
	g.Tiles[g.Index(0, 1)] = city.Tile{Kind: city.Park}

	s.Grow()
	if g.Tiles[i].Level != 4 {
		t.Errorf("level = %d, want 4", g.Tiles[i].Level)
	}
	s.Grow()
	if g.Tiles[i].Level != 4 {
		t.Errorf("level = %d, must stay at max 4", g.Tiles[i].Level)
	}
}

func TestGrowthIsReproducible(t *testing.T) {
	run := func() []city.Tile {
		s := newTestSim(t, Config{MapSize: MapSmall}, entropy.NewSeeded(11))
		s.SetBaseRate(0.3)
		for x := 10; x < 50; x++ {
			s.Build(x, 32, city.Road)
		}
		for i := 0; i < 10; i++ {
			s.Grow()
		}
		return s.State.Grid.Tiles
	}
	a, b := run(), run()
	grew := 0
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs: %s vs %s", i, a[i], b[i])
		}
		if a[i].Kind == city.Residential {
			grew++
		}
	}
	if grew == 0 {
		t.Error("nothing grew")
	}
}
