package engine

import (
	"math"

	"github.com/talgya/tilecity/internal/city"
)

// updateDemand derives zone demand from occupancy and population. Demand
// falls as a zone fills the map and rises as the city grows, and always
// stays within [0, 100].
func (s *Simulation) updateDemand() {
	st := s.State
	g := st.Grid
	dt := s.tuning.Demand

	var counts [3]int
	for _, t := range g.Tiles {
		switch t.Kind {
		case city.Residential:
			counts[0]++
		case city.Commercial:
			counts[1]++
		case city.Industrial:
			counts[2]++
		}
	}

	total := float64(len(g.Tiles))
	ratio := float64(st.Population) / dt.PopulationScale
	demand := func(n int, base, slope float64) int {
		occupancy := float64(n) / total * 100
		d := math.Max(0, 100-occupancy*dt.OccupancyWeight) * (base + ratio*slope)
		return int(math.Round(clamp100(d)))
	}

	st.Civic.ResidentialDemand = demand(counts[0], dt.ResidentialBase, dt.ResidentialSlope)
	st.Civic.CommercialDemand = demand(counts[1], dt.BusinessBase, dt.BusinessSlope)
	st.Civic.IndustrialDemand = demand(counts[2], dt.BusinessBase, dt.BusinessSlope)
}
