package engine

import "github.com/talgya/tilecity/internal/city"

// diffuseInfrastructure recomputes power and water coverage from scratch.
// Every plant cell covers a Euclidean disk, so a building's reach extends
// from each edge of its footprint.
func (s *Simulation) diffuseInfrastructure() {
	g := s.State.Grid
	clear(g.Powered)
	clear(g.Watered)

	it := s.tuning.Infrastructure
	for i, t := range g.Tiles {
		switch t.Kind {
		case city.PowerPlant:
			markDisk(g, g.Powered, i, it.PowerRadius)
		case city.WaterTreatment:
			markDisk(g, g.Watered, i, it.WaterRadius)
		}
	}

	zoned, powered, watered := 0, 0, 0
	for i, t := range g.Tiles {
		if !t.Kind.Zoned() {
			continue
		}
		zoned++
		if g.Powered[i] {
			powered++
		}
		if g.Watered[i] {
			watered++
		}
	}
	c := &s.State.Civic
	c.PowerSupplyRate = percent(powered, zoned, 100)
	c.WaterSupplyRate = percent(watered, zoned, 100)
}

// markDisk sets field true on every cell within Euclidean radius r of cell i.
func markDisk(g *city.Grid, field []bool, i, r int) {
	cx, cy := g.Coord(i)
	r2 := r * r
	for dy := -r; dy <= r; dy++ {
		y := cy + dy
		if y < 0 || y >= g.Size {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := cx + dx
			if x < 0 || x >= g.Size || dx*dx+dy*dy > r2 {
				continue
			}
			field[y*g.Size+x] = true
		}
	}
}

// percent returns part/whole as a percentage, or empty when whole is 0.
func percent(part, whole int, empty float64) float64 {
	if whole == 0 {
		return empty
	}
	return float64(part) / float64(whole) * 100
}
