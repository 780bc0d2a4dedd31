package steward

import (
	"slices"

	"github.com/talgya/tilecity/internal/city"
)

// Crisis levels, most severe first.
const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
	LevelHealthy  = "HEALTHY"
)

// CityHealth holds derived diagnostic signals computed from a CitySnapshot.
type CityHealth struct {
	Upkeep    int64   // estimated monthly maintenance
	Runway    float64 // months of upkeep the treasury covers; 1e9 with no upkeep
	Roads     int
	Zoned     int
	Frontage  []city.Point // empty cells next to a road, nearest the center first
	Shortfall []city.Kind  // facilities whose service or supply is below threshold
	Level     string
}

// Triage computes a CityHealth from the snapshot's data.
func Triage(snap *CitySnapshot, g *city.Grid, rules Rules) *CityHealth {
	h := &CityHealth{}
	st := snap.Status

	// Footprint cells per kind approximate building counts for upkeep.
	cells := make(map[city.Kind]int)
	for _, t := range g.Tiles {
		cells[t.Kind]++
		switch {
		case t.Kind == city.Road:
			h.Roads++
		case t.Kind.Zoned():
			h.Zoned++
		}
	}
	for k, n := range cells {
		a := k.Attrs()
		area := a.Footprint.W * a.Footprint.H
		if area > 0 && a.Maintenance > 0 {
			h.Upkeep += int64((n+area-1)/area) * a.Maintenance
		}
	}
	h.Runway = 1e9
	if h.Upkeep > 0 {
		h.Runway = float64(st.Treasury) / float64(h.Upkeep)
	}

	isRoad := func(t city.Tile) bool { return t.Kind == city.Road }
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if g.At(x, y).IsEmpty() && g.HasAdjacent(x, y, isRoad) {
				h.Frontage = append(h.Frontage, city.Point{X: x, Y: y})
			}
		}
	}
	c := g.Center()
	slices.SortStableFunc(h.Frontage, func(a, b city.Point) int {
		return city.Chebyshev(a, c) - city.Chebyshev(b, c)
	})

	cv := st.Civic
	if h.Zoned > 0 {
		if cv.PowerSupplyRate < rules.SupplyThreshold {
			h.Shortfall = append(h.Shortfall, city.PowerPlant)
		}
		if cv.WaterSupplyRate < rules.SupplyThreshold {
			h.Shortfall = append(h.Shortfall, city.WaterTreatment)
		}
	}
	if st.Population > 0 {
		for _, s := range []struct {
			v float64
			k city.Kind
		}{
			{cv.Safety, city.FireStation},
			{cv.Security, city.Police},
			{cv.Medical, city.Hospital},
			{cv.Education, city.School},
		} {
			if s.v < rules.ServiceThreshold {
				h.Shortfall = append(h.Shortfall, s.k)
			}
		}
	}

	switch {
	case st.Treasury < rules.Reserve || h.Runway < rules.CriticalRunway:
		h.Level = LevelCritical
	case h.Runway < rules.WarningRunway:
		h.Level = LevelWarning
	default:
		h.Level = LevelHealthy
	}
	return h
}
