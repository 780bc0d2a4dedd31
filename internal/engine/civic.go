package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/tuning"
)

type facilityEffect struct {
	kind   city.Kind
	radius int
	delta  [6]float64 // security, safety, education, medical, tourism, international
}

type coverageRule struct {
	kind     city.Kind
	base     int
	capacity int
}

func resolveEffects(in []tuning.Effect) []facilityEffect {
	out := make([]facilityEffect, 0, len(in))
	for _, e := range in {
		k, ok := city.ParseKind(e.Kind)
		if !ok || k == city.Empty {
			slog.Warn("ignoring facility effect for unknown kind", "kind", e.Kind)
			continue
		}
		out = append(out, facilityEffect{
			kind:   k,
			radius: e.Radius,
			delta:  [6]float64{e.Security, e.Safety, e.Education, e.Medical, e.Tourism, e.International},
		})
	}
	return out
}

func resolveCoverage(in []tuning.Coverage) []coverageRule {
	out := make([]coverageRule, 0, len(in))
	for _, c := range in {
		k, ok := city.ParseKind(c.Kind)
		if !ok || k == city.Empty {
			slog.Warn("ignoring coverage rule for unknown kind", "kind", c.Kind)
			continue
		}
		out = append(out, coverageRule{kind: k, base: c.Base, capacity: c.Capacity})
	}
	return out
}

// scalars exposes the six facility-driven civic values by position, in the
// order facilityEffect.delta uses.
func (c *Civic) scalars() [6]*float64 {
	return [6]*float64{&c.Security, &c.Safety, &c.Education, &c.Medical, &c.Tourism, &c.International}
}

// aggregateCivic decays the civic scalars, adds every facility's radius
// effect, and scales services down where facility counts fall short of
// what the population requires.
func (s *Simulation) aggregateCivic() {
	st := s.State
	g := st.Grid
	ct := s.tuning.Civic
	c := &st.Civic

	for _, v := range []*float64{&c.Security, &c.Safety, &c.Education, &c.Medical} {
		*v = ct.Floor + (*v-ct.Floor)*ct.CoreDecay
	}
	c.Tourism *= ct.LeisureDecay
	c.International *= ct.LeisureDecay

	sc := c.scalars()
	for _, e := range s.effects {
		for _, o := range g.BuildingsOf(e.kind) {
			w := radiusWeight(g, buildingCenter(o, e.kind), e.radius, ct.Falloff)
			for j, d := range e.delta {
				if d != 0 {
					*sc[j] += d * w
				}
			}
		}
	}

	if st.Population > 0 {
		for _, r := range s.coverage {
			required := max(r.base, int(math.Ceil(float64(st.Population)/float64(r.capacity))))
			have := len(g.BuildingsOf(r.kind))
			if required <= 0 || have >= required {
				continue
			}
			deficit := float64(required-have) / float64(required)
			switch r.kind {
			case city.Police:
				c.Security *= 1 - deficit*ct.ServiceScale
			case city.FireStation:
				c.Safety *= 1 - deficit*ct.ServiceScale
			case city.School:
				c.Education *= 1 - deficit*ct.ServiceScale
			case city.Hospital:
				c.Medical *= 1 - deficit*ct.ServiceScale
			case city.PowerPlant:
				c.PowerSupplyRate *= 1 - deficit*ct.SupplyScale
			case city.WaterTreatment:
				c.WaterSupplyRate *= 1 - deficit*ct.SupplyScale
			}
		}
	}

	c.clamp()
}

// buildingCenter returns the middle cell of a k footprint anchored at o.
func buildingCenter(o city.Point, k city.Kind) city.Point {
	fp := k.Attrs().Footprint
	return city.Point{X: o.X + (fp.W-1)/2, Y: o.Y + (fp.H-1)/2}
}

// radiusWeight averages the falloff 1-(d/r)*falloff over every in-bounds
// cell within Manhattan distance r of c. A facility near the map edge
// therefore counts for as much as one in the middle.
func radiusWeight(g *city.Grid, c city.Point, r int, falloff float64) float64 {
	if r <= 0 {
		return 1
	}
	var sum float64
	n := 0
	for dy := -r; dy <= r; dy++ {
		y := c.Y + dy
		if y < 0 || y >= g.Size {
			continue
		}
		span := r - abs(dy)
		for dx := -span; dx <= span; dx++ {
			x := c.X + dx
			if x < 0 || x >= g.Size {
				continue
			}
			d := abs(dx) + abs(dy)
			sum += 1 - float64(d)/float64(r)*falloff
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp100(v float64) float64 { return math.Max(0, math.Min(100, v)) }

// clamp bounds every percentage scalar to [0, 100].
func (c *Civic) clamp() {
	for _, v := range c.scalars() {
		*v = clamp100(*v)
	}
	c.PowerSupplyRate = clamp100(c.PowerSupplyRate)
	c.WaterSupplyRate = clamp100(c.WaterSupplyRate)
}
