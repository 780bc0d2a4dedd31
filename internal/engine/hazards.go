package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/entropy"
)

const maxHazard = 10

// runHazards advances every enabled hazard subsystem. Disabled subsystems
// have their fields and global rates cleared so stale values do not leak
// into comfort or growth.
func (s *Simulation) runHazards() {
	cfg := s.State.Config
	g := s.State.Grid
	if cfg.Disasters {
		s.burn()
		s.spreadDisease()
	} else {
		clear(g.Fire)
		clear(g.Disease)
	}
	if cfg.Pollution {
		s.pollute()
	} else {
		clear(g.Pollution)
		s.State.Civic.PollutionGlobal = 0
		s.State.Modifiers.PollutionComfort = 1
	}
	if cfg.Slum {
		s.decaySlums()
	} else {
		clear(g.Slum)
		s.State.Civic.SlumRateGlobal = 0
		s.State.Modifiers.SlumComfort = 1
		s.State.Modifiers.SlumPopulation = 1
	}
}

// sampleStride thins ignition checks on large maps.
func sampleStride(size int) int { return max(1, size/64) }

// burning returns the indices whose field value is positive.
func burning(field []uint8) []int {
	var out []int
	for i, v := range field {
		if v > 0 {
			out = append(out, i)
		}
	}
	return out
}

func raise(v, step uint8) uint8 {
	if int(v)+int(step) > maxHazard {
		return maxHazard
	}
	return v + step
}

func lower(v, step uint8) uint8 {
	if step >= v {
		return 0
	}
	return v - step
}

// burn runs one month of fire: ignition, spread from fires already
// burning, destruction of anything that reached the maximum, then
// suppression or natural decay of the fires that were burning.
func (s *Simulation) burn() {
	st := s.State
	g := st.Grid
	ft := s.tuning.Fire

	for i := range g.Fire {
		if g.Tiles[i].IsEmpty() {
			g.Fire[i] = 0
		}
	}

	active := burning(g.Fire)

	p := ft.BaseChance * st.GameSpeed * s.difficulty.Disaster * st.Modifiers.FireAmplifier
	stride := sampleStride(g.Size)
	for y := 0; y < g.Size; y += stride {
		for x := 0; x < g.Size; x += stride {
			i := g.Index(x, y)
			if !g.Tiles[i].IsEmpty() && entropy.Chance(s.rng, p) {
				g.Fire[i] = raise(g.Fire[i], ft.IgniteStep)
			}
		}
	}

	for _, i := range active {
		for _, n := range g.Neighbors4(i) {
			if !g.Tiles[n].IsEmpty() && entropy.Chance(s.rng, ft.SpreadChance) {
				g.Fire[n] = raise(g.Fire[n], 1)
			}
		}
	}

	s.destroyBurnt()

	stations := city.CountOf(g, func(t city.Tile) bool { return t.Kind == city.FireStation })
	for _, i := range active {
		x, y := g.Coord(i)
		if stations.Around(x, y, ft.SuppressRadius) > 0 && entropy.Chance(s.rng, ft.SuppressChance) {
			g.Fire[i] = lower(g.Fire[i], ft.SuppressStep)
		} else {
			g.Fire[i] = lower(g.Fire[i], 1)
		}
	}
}

// destroyBurnt removes every building with a cell at the fire maximum.
func (s *Simulation) destroyBurnt() {
	st := s.State
	g := st.Grid
	penalty := s.tuning.Fire.DestroyPenalty
	for i, v := range g.Fire {
		if v < maxHazard || g.Tiles[i].IsEmpty() {
			continue
		}
		x, y := g.Coord(i)
		k, cells := g.Remove(x, y)
		st.Treasury -= penalty
		slog.Debug("building burned down",
			"kind", k.String(), "x", x, "y", y, "cells", cells,
			"penalty", humanize.Comma(penalty),
		)
		s.record(CategoryFire, "a %s at (%d,%d) burned down", k, x, y)
	}
}

// spreadDisease runs one month of disease on zoned tiles. A cell that
// reaches the maximum costs its residents and a treasury penalty, then
// recovers to zero.
func (s *Simulation) spreadDisease() {
	st := s.State
	g := st.Grid
	dt := s.tuning.Disease

	for i := range g.Disease {
		if !g.Tiles[i].Kind.Zoned() {
			g.Disease[i] = 0
		}
	}

	active := burning(g.Disease)

	density := city.CountOf(g, func(t city.Tile) bool { return t.Kind.Zoned() })
	base := dt.BaseChance * st.GameSpeed * s.difficulty.Disaster * st.Modifiers.DiseaseAmplifier
	stride := sampleStride(g.Size)
	for y := 0; y < g.Size; y += stride {
		for x := 0; x < g.Size; x += stride {
			i := g.Index(x, y)
			if !g.Tiles[i].Kind.Zoned() {
				continue
			}
			p := base * (1 + float64(density.Around(x, y, dt.DensityRadius))/dt.DensityScale)
			if !g.Watered[i] {
				p *= st.Modifiers.UnwateredAmplifier
			}
			if entropy.Chance(s.rng, p) {
				g.Disease[i] = raise(g.Disease[i], 1)
			}
		}
	}

	span := 2*dt.SpreadRadius + 1
	for _, i := range active {
		if !entropy.Chance(s.rng, dt.SpreadChance) {
			continue
		}
		x, y := g.Coord(i)
		nx := x + s.rng.Intn(span) - dt.SpreadRadius
		ny := y + s.rng.Intn(span) - dt.SpreadRadius
		if !g.InBounds(nx, ny) {
			continue
		}
		n := g.Index(nx, ny)
		if g.Tiles[n].Kind.Zoned() {
			g.Disease[n] = raise(g.Disease[n], 1)
		}
	}

	s.killInfected()

	hospitals := city.CountOf(g, func(t city.Tile) bool { return t.Kind == city.Hospital })
	for _, i := range active {
		x, y := g.Coord(i)
		if hospitals.Around(x, y, dt.HealRadius) > 0 && entropy.Chance(s.rng, dt.HealChance) {
			g.Disease[i] = lower(g.Disease[i], dt.HealStep)
		} else {
			g.Disease[i] = lower(g.Disease[i], 1)
		}
	}
}

// killInfected settles every cell at the disease maximum.
func (s *Simulation) killInfected() {
	st := s.State
	g := st.Grid
	for i, v := range g.Disease {
		if v < maxHazard {
			continue
		}
		lost := g.Tiles[i].Population()
		s.attrition += lost
		st.Treasury -= s.tuning.Disease.DeathPenalty
		g.Disease[i] = 0
		x, y := g.Coord(i)
		slog.Debug("outbreak deaths", "x", x, "y", y, "lost", lost)
		s.record(CategoryDisease, "an outbreak at (%d,%d) killed %d residents", x, y, lost)
	}
}
