package engine

import (
	"math"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/entropy"
)

// Grow runs one frame of the growth automaton. GameSpeed ≥ 1 runs
// floor(speed) passes; a fractional speed below 1 runs a single pass with
// that probability. Paused cities and speed 0 do nothing.
func (s *Simulation) Grow() {
	st := s.State
	if st.Paused || st.GameSpeed <= 0 {
		return
	}
	if st.GameSpeed < 1 {
		if entropy.Chance(s.rng, st.GameSpeed) {
			s.growPass()
		}
		return
	}
	for n := int(math.Floor(st.GameSpeed)); n > 0; n-- {
		s.growPass()
	}
}

// growPass visits every cell once in row-major order. Changes made earlier
// in the pass are visible to later cells, so a fresh building can seed
// spillover along the rest of its row.
func (s *Simulation) growPass() {
	st := s.State
	g := st.Grid
	gt := s.tuning.Growth
	rate := s.baseRate

	stations := city.CountOf(g, func(t city.Tile) bool { return t.Kind == city.Station })
	avgDemand := float64(st.Civic.ResidentialDemand+st.Civic.CommercialDemand+st.Civic.IndustrialDemand) / 3
	avgFactor := s.demandFactor(avgDemand)

	isRoad := func(t city.Tile) bool { return t.Kind == city.Road }
	isZoned := func(t city.Tile) bool { return t.Kind.Zoned() }

	for i := range g.Tiles {
		x, y := g.Coord(i)
		bias := s.centerBias(x, y)
		if stations.Around(x, y, gt.StationRadius) > 0 {
			bias *= gt.StationBoost
		}
		supply := st.Civic.GrowthPenalty
		if !g.Powered[i] {
			supply *= gt.UnpoweredFactor
		}
		if !g.Watered[i] {
			supply *= gt.UnwateredFactor
		}

		if g.Tiles[i].IsEmpty() {
			p := rate * bias * supply * avgFactor
			switch {
			case g.HasAdjacent(x, y, isRoad) && entropy.Chance(s.rng, p):
				s.spawn(i)
			case g.HasAdjacent(x, y, isZoned) && entropy.Chance(s.rng, p*gt.SpilloverFactor):
				s.spawn(i)
			}
		}

		t := g.Tiles[i]
		if t.Kind.Zoned() && t.Level < city.MaxLevel {
			p := rate * gt.LevelUpFactor * bias * supply * s.zoneDemandFactor(t.Kind)
			if entropy.Chance(s.rng, p) {
				g.Tiles[i].Level++
			}
		}
	}
}

// spawn zones a fresh residential plot. Growth-spawned plots carry their
// own building id so demolish treats each as a separate building.
func (s *Simulation) spawn(i int) {
	g := s.State.Grid
	g.Tiles[i] = city.NewTile(city.Residential)
	g.Building[i] = g.NextID
	g.NextID++
}

// centerBias favors cells near the middle of the map.
func (s *Simulation) centerBias(x, y int) float64 {
	g := s.State.Grid
	c := float64(g.Size) / 2
	dx, dy := float64(x)-c, float64(y)-c
	return math.Max(s.tuning.Growth.CenterBiasFloor, 1-math.Hypot(dx, dy)/c)
}

// demandFactor maps a 0..100 demand onto a growth multiplier.
func (s *Simulation) demandFactor(d float64) float64 {
	gt := s.tuning.Growth
	switch {
	case d > gt.HighDemand:
		return 1 + (d-gt.HighDemand)*gt.HighDemandSlope
	case d < gt.LowDemand:
		return gt.LowDemandFactor
	}
	return 1
}

func (s *Simulation) zoneDemandFactor(k city.Kind) float64 {
	c := s.State.Civic
	switch k {
	case city.Residential:
		return s.demandFactor(float64(c.ResidentialDemand))
	case city.Commercial:
		return s.demandFactor(float64(c.CommercialDemand))
	case city.Industrial:
		return s.demandFactor(float64(c.IndustrialDemand))
	}
	return 1
}
