package engine

import (
	"math"

	"github.com/talgya/tilecity/internal/city"
)

// CalculatePopulation sums the population yield of every zoned tile and
// stores it as the city's population.
func (s *Simulation) CalculatePopulation() int {
	total := 0
	for _, t := range s.State.Grid.Tiles {
		total += t.Population()
	}
	s.State.Population = total
	return total
}

// CalculateComfort scores the city 0..100 from green space, transit,
// density and finances, scaled by the pollution, slum and medical
// modifiers of the last monthly pass.
func (s *Simulation) CalculateComfort() int {
	st := s.State
	g := st.Grid

	// Parks and stations are counted per tile, so a larger footprint
	// weighs more.
	parks, stations, built := 0, 0, 0
	for _, t := range g.Tiles {
		if !t.IsEmpty() {
			built++
		}
		switch t.Kind {
		case city.Park:
			parks++
		case city.Station:
			stations++
		}
	}
	green := 0.0
	if built > 0 {
		green = float64(parks) / float64(built) * 100
	}
	transport := math.Min(float64(stations)*5, 100)
	density := math.Max(0, 100-float64(st.Population)/50)
	fund := 0.0
	if st.InitialTreasury > 0 {
		fund = math.Max(0, math.Min(float64(st.Treasury)/float64(st.InitialTreasury)*100, 100))
	}

	m := st.Modifiers
	score := (green + transport + density + fund) / 4
	score *= m.PollutionComfort * m.SlumComfort * m.ServiceComfort
	st.Comfort = int(math.Round(clamp100(score)))
	return st.Comfort
}
