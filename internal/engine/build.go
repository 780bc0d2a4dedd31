package engine

import (
	"log/slog"

	"github.com/talgya/tilecity/internal/city"
)

// Build places k with its footprint anchored at (x, y). It fails without
// mutating anything when the footprint leaves the grid, overlaps a
// non-empty cell, or costs more than the treasury holds. Sandbox cities
// build for free.
func (s *Simulation) Build(x, y int, k city.Kind) bool {
	st := s.State
	g := st.Grid
	if !g.CanPlace(x, y, k) {
		return false
	}
	cost := k.Attrs().Cost
	if !st.Config.Sandbox && cost > st.Treasury {
		return false
	}
	if g.Place(x, y, k) == 0 {
		return false
	}
	if !st.Config.Sandbox {
		st.Treasury -= cost
	}
	if k.Facility() || k.Landmark() {
		s.record(CategoryBuild, "a %s opened at (%d,%d)", k, x, y)
	}
	return true
}

// Demolish clears the whole building covering (x, y). It reports false
// only for coordinates off the grid; an empty cell is a successful no-op.
func (s *Simulation) Demolish(x, y int) bool {
	g := s.State.Grid
	if !g.InBounds(x, y) {
		return false
	}
	k, n := g.Remove(x, y)
	if n > 0 {
		slog.Debug("demolished", "kind", k.String(), "x", x, "y", y, "cells", n)
	}
	return true
}

// Apply runs the current build mode at (x, y).
func (s *Simulation) Apply(x, y int) bool {
	return s.ApplyMode(x, y, s.State.BuildMode)
}

// ApplyMode runs mode at (x, y): demolish, or place the mode's target kind.
func (s *Simulation) ApplyMode(x, y int, mode city.BuildMode) bool {
	if mode.Tool == city.ToolDemolish {
		return s.Demolish(x, y)
	}
	k, ok := mode.Target()
	if !ok {
		return false
	}
	return s.Build(x, y, k)
}
