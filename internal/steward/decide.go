package steward

import (
	"fmt"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/tuning"
)

// Actions a Decision can carry.
const (
	ActionNone  = "none"
	ActionBuild = "build"
	ActionZone  = "zone"
	ActionRoad  = "road"
)

// Rules are the thresholds the steward plans with.
type Rules struct {
	SupplyThreshold  float64 // power/water coverage % below which a plant is built
	ServiceThreshold float64 // civic scalar below which a facility is built
	Reserve          int64   // treasury the steward never spends below
	CriticalRunway   float64 // months of upkeep; below this nothing is built
	WarningRunway    float64 // months of upkeep; below this only free zoning happens
	RoadLength       int     // cells per road extension
}

// DefaultRules plans against the penalty thresholds the simulation uses.
func DefaultRules(tu tuning.Tuning) Rules {
	return Rules{
		SupplyThreshold:  tu.Penalty.SupplyThreshold,
		ServiceThreshold: tu.Penalty.ServiceThreshold,
		Reserve:          20000,
		CriticalRunway:   6,
		WarningRunway:    24,
		RoadLength:       6,
	}
}

// BuildOrder is the payload for POST /api/v1/build.
type BuildOrder struct {
	Mode string `json:"mode"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	X2   *int   `json:"x2,omitempty"`
	Y2   *int   `json:"y2,omitempty"`
}

// Decision is the steward's chosen action for one cycle.
type Decision struct {
	Action    string      `json:"action"`
	Rationale string      `json:"rationale"`
	Order     *BuildOrder `json:"order,omitempty"`
}

func none(format string, args ...any) Decision {
	return Decision{Action: ActionNone, Rationale: fmt.Sprintf(format, args...)}
}

// Decide picks at most one build: a missing facility first, then zoning
// for the strongest demand, then a road extension to open new frontage.
func Decide(snap *CitySnapshot, g *city.Grid, h *CityHealth, rules Rules) Decision {
	st := snap.Status
	if st.Paused {
		return none("city is paused")
	}
	if h.Level == LevelCritical {
		return none("treasury %d covers %.1f months of upkeep, holding", st.Treasury, h.Runway)
	}

	affordable := func(cost int64) bool { return st.Treasury-cost >= rules.Reserve }

	if h.Level == LevelHealthy {
		anchor := zoneCentroid(g)
		for _, k := range h.Shortfall {
			if !affordable(k.Attrs().Cost) {
				continue
			}
			p, ok := g.FindSite(anchor, k, 1, g.Size/2)
			if !ok {
				continue
			}
			return Decision{
				Action:    ActionBuild,
				Rationale: fmt.Sprintf("%s is short, building near (%d,%d)", k, anchor.X, anchor.Y),
				Order:     &BuildOrder{Mode: k.String(), X: p.X, Y: p.Y},
			}
		}
	}

	if k, d := strongestDemand(st.Civic); d > 0 && len(h.Frontage) > 0 {
		p := h.Frontage[0]
		return Decision{
			Action:    ActionZone,
			Rationale: fmt.Sprintf("%s demand is %d", k, d),
			Order:     &BuildOrder{Mode: k.String(), X: p.X, Y: p.Y},
		}
	}

	if h.Level != LevelHealthy || !affordable(int64(rules.RoadLength)*city.Road.Attrs().Cost) {
		return none("no demand to zone and no budget for roads")
	}
	from, to, ok := roadExtension(g, rules.RoadLength)
	if !ok {
		return none("no room to extend roads")
	}
	return Decision{
		Action:    ActionRoad,
		Rationale: fmt.Sprintf("opening frontage from (%d,%d) to (%d,%d)", from.X, from.Y, to.X, to.Y),
		Order:     &BuildOrder{Mode: city.Road.String(), X: from.X, Y: from.Y, X2: &to.X, Y2: &to.Y},
	}
}

// strongestDemand returns the zone with the highest demand. Ties go to
// residential, then commercial.
func strongestDemand(c Civic) (city.Kind, int) {
	k, d := city.Residential, c.ResidentialDemand
	if c.CommercialDemand > d {
		k, d = city.Commercial, c.CommercialDemand
	}
	if c.IndustrialDemand > d {
		k, d = city.Industrial, c.IndustrialDemand
	}
	return k, d
}

// zoneCentroid is the mean position of zoned tiles, or the map center.
func zoneCentroid(g *city.Grid) city.Point {
	var sx, sy, n int
	for i, t := range g.Tiles {
		if t.Kind.Zoned() {
			x, y := g.Coord(i)
			sx += x
			sy += y
			n++
		}
	}
	if n == 0 {
		return g.Center()
	}
	return city.Point{X: sx / n, Y: sy / n}
}

// roadExtension continues the road farthest from the center outward by n
// cells. With no roads yet it starts just below the center station.
func roadExtension(g *city.Grid, n int) (city.Point, city.Point, bool) {
	c := g.Center()
	far, best := city.Point{X: c.X, Y: c.Y + 1}, -1
	for i, t := range g.Tiles {
		if t.Kind != city.Road {
			continue
		}
		x, y := g.Coord(i)
		p := city.Point{X: x, Y: y}
		if d := city.Chebyshev(p, c); d > best {
			far, best = p, d
		}
	}

	dir := city.Point{Y: 1}
	dx, dy := far.X-c.X, far.Y-c.Y
	switch {
	case abs(dx) > abs(dy):
		dir = city.Point{X: sign(dx)}
	case dy != 0:
		dir = city.Point{Y: sign(dy)}
	}

	from := city.Point{X: far.X + dir.X, Y: far.Y + dir.Y}
	if !g.InBounds(from.X, from.Y) || !g.At(from.X, from.Y).IsEmpty() {
		return from, from, false
	}
	to := from
	for i := 1; i < n; i++ {
		next := city.Point{X: to.X + dir.X, Y: to.Y + dir.Y}
		if !g.InBounds(next.X, next.Y) || !g.At(next.X, next.Y).IsEmpty() {
			break
		}
		to = next
	}
	return from, to, true
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
