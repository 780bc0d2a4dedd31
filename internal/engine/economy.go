package engine

import (
	"math"

	"github.com/talgya/tilecity/internal/city"
)

// settleLedger collects taxes, pays upkeep and advances the month.
// Multi-cell buildings are taxed and charged once, at their origin.
func (s *Simulation) settleLedger() MonthlyReport {
	st := s.State
	g := st.Grid
	et := s.tuning.Economy
	c := st.Civic

	var tax, upkeep int64
	var commercial []int
	for i, t := range g.Tiles {
		if t.Kind == city.Commercial {
			commercial = append(commercial, i)
		}
		if !g.IsOrigin(i) {
			continue
		}
		tax += t.Tax()
		upkeep += t.Maintenance()
	}

	revenue := float64(tax) * c.RevenuePenalty
	if c.Education >= et.EducationThreshold {
		revenue *= 1 + et.EducationBonus + (c.Education-et.EducationThreshold)*et.EducationSlope
	}
	revenue *= 1 + (c.Tourism+c.International)*et.VisitorBonus
	revenue += float64(s.landmarkBonus(city.Stadium, et.StadiumRadius, et.StadiumTiers, commercial))
	revenue += float64(s.landmarkBonus(city.Airport, et.AirportRadius, et.AirportTiers, commercial))

	maintenance := int64(math.Round(float64(upkeep) * s.difficulty.Maintenance))
	rev := int64(math.Round(revenue))

	st.Treasury += rev - maintenance
	st.Month++

	return MonthlyReport{
		Month:       st.Month,
		Revenue:     rev,
		Maintenance: maintenance,
	}
}

// landmarkBonus pays a level-tiered bonus for every commercial cell within
// Manhattan distance r of each k landmark.
func (s *Simulation) landmarkBonus(k city.Kind, r int, tiers [city.MaxLevel]int64, commercial []int) int64 {
	g := s.State.Grid
	var bonus int64
	for _, o := range g.BuildingsOf(k) {
		center := buildingCenter(o, k)
		for _, i := range commercial {
			x, y := g.Coord(i)
			if city.Manhattan(center, city.Point{X: x, Y: y}) > r {
				continue
			}
			if lvl := g.Tiles[i].Level; lvl >= 1 && lvl <= city.MaxLevel {
				bonus += tiers[lvl-1]
			}
		}
	}
	return bonus
}
