package engine

import (
	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/entropy"
)

const maxPollution = 100

// pollute sets each industrial cell's pollution from its level and decays
// everything else. Pollution does not diffuse to neighbors.
func (s *Simulation) pollute() {
	g := s.State.Grid
	pt := s.tuning.Pollution

	polluted := 0
	for i, t := range g.Tiles {
		if t.Kind == city.Industrial {
			v := int(t.Level) * int(pt.PerLevel)
			g.Pollution[i] = uint8(min(v, maxPollution))
		} else {
			g.Pollution[i] = lower(g.Pollution[i], pt.Decay)
		}
		if g.Pollution[i] > 0 {
			polluted++
		}
	}

	global := percent(polluted, len(g.Tiles), 0)
	s.State.Civic.PollutionGlobal = global
	m := &s.State.Modifiers
	switch {
	case global > pt.SeverePercent:
		m.PollutionComfort = pt.SevereComfort
	case global > pt.HighPercent:
		m.PollutionComfort = pt.HighComfort
	default:
		m.PollutionComfort = 1
	}
}

// decaySlums advances slum decay on residential cells. Slums ignite from
// nearby pollution and slums and are held back by security; a cell that
// passes the demotion threshold loses a level and starts over.
func (s *Simulation) decaySlums() {
	st := s.State
	g := st.Grid
	sl := s.tuning.Slum

	pollution := city.NewIntegral(g.Size, func(i int) float64 { return float64(g.Pollution[i]) })
	slums := city.NewIntegral(g.Size, func(i int) float64 { return float64(g.Slum[i]) })
	security := 1 - st.Civic.Security/100

	residential, affected := 0, 0
	for i, t := range g.Tiles {
		if t.Kind != city.Residential {
			g.Slum[i] = 0
			continue
		}
		residential++
		x, y := g.Coord(i)
		cells := float64(pollution.Cells(x, y, sl.Radius))
		avgP := pollution.Around(x, y, sl.Radius) / cells
		avgSlum := slums.Around(x, y, sl.Radius) / cells

		p := sl.BaseChance * (avgP / 100) * security * (1 + avgSlum/10) * st.GameSpeed
		if entropy.Chance(s.rng, p) {
			g.Slum[i] = min(g.Slum[i]+sl.Step, maxHazard)
		}
		if g.Slum[i] > sl.DemoteAbove {
			if t.Level > 1 {
				g.Tiles[i].Level--
				s.record(CategorySlum, "residential block at (%d,%d) fell to level %d", x, y, t.Level-1)
			}
			g.Slum[i] = 0
		} else {
			g.Slum[i] = max(g.Slum[i]-sl.Decay, 0)
		}
		if g.Slum[i] > 0 {
			affected++
		}
	}

	rate := percent(affected, residential, 0)
	st.Civic.SlumRateGlobal = rate
	m := &st.Modifiers
	switch {
	case rate > sl.SeverePercent:
		m.SlumComfort, m.SlumPopulation = sl.SevereComfort, sl.SeverePop
	case rate > sl.HighPercent:
		m.SlumComfort, m.SlumPopulation = sl.HighComfort, sl.HighPopulation
	default:
		m.SlumComfort, m.SlumPopulation = 1, 1
	}
}
