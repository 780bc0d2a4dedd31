// Simulation ties together all city systems and runs the monthly pipeline.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/entropy"
	"github.com/talgya/tilecity/internal/tuning"
)

// Simulation owns one city's State and applies every system to it.
// It is not safe for concurrent use; Engine serializes access for hosts
// that read from other goroutines.
type Simulation struct {
	State *State

	tuning     tuning.Tuning
	rng        entropy.Source
	baseRate   float64
	difficulty tuning.Difficulty

	effects  []facilityEffect
	coverage []coverageRule

	// Recent events, trimmed to the last maxEvents.
	Events []Event

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int

	// Disease deaths recorded during the current monthly pass.
	attrition int
}

// MonthlyReport summarizes one monthly pass.
type MonthlyReport struct {
	Month        uint32 `json:"month"`
	Revenue      int64  `json:"revenue"`
	Maintenance  int64  `json:"maintenance"`
	HazardLosses int64  `json:"hazard_losses"`
	Treasury     int64  `json:"treasury"`
	Population   int    `json:"population"`
	Bankrupt     bool   `json:"bankrupt"` // treasury went negative; the city was reset
	Skipped      bool   `json:"skipped"`  // paused, nothing ran
}

// NewSimulation creates a seeded city. A nil src draws from entropy.New(cfg.Seed).
func NewSimulation(cfg Config, tu tuning.Tuning, src entropy.Source) (*Simulation, error) {
	if err := tu.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	if src == nil {
		src = entropy.New(cfg.Seed)
	}
	st, err := freshState(cfg, tu)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		tuning:     tu,
		rng:        src,
		baseRate:   tu.BaseGrowthRate,
		difficulty: tu.DifficultyFor(cfg.Difficulty),
		effects:    resolveEffects(tu.Civic.Effects),
		coverage:   resolveCoverage(tu.Civic.Coverage),
		subs:       make(map[int]chan Event),
	}
	s.replace(st)
	return s, nil
}

// Tuning returns the constants the simulation runs with.
func (s *Simulation) Tuning() tuning.Tuning { return s.tuning }

// Grid returns the live grid.
func (s *Simulation) Grid() *city.Grid { return s.State.Grid }

// replace installs st wholesale and derives the values growth reads before
// the first monthly pass.
func (s *Simulation) replace(st *State) {
	s.State = st
	s.difficulty = s.tuning.DifficultyFor(st.Config.Difficulty)
	s.updateDemand()
	s.CalculatePopulation()
}

// Reset discards the city and re-seeds it with the same configuration.
func (s *Simulation) Reset() {
	st, err := freshState(s.State.Config, s.tuning)
	if err != nil {
		// Config was validated when the current state was built.
		panic(fmt.Sprintf("reset with validated config: %v", err))
	}
	s.replace(st)
}

// Snapshot returns a deep copy of the current state.
func (s *Simulation) Snapshot() *State { return s.State.Clone() }

// Restore replaces the current state wholesale with a copy of st.
func (s *Simulation) Restore(st *State) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	c := st.Clone()
	size, _ := MapSizeFor(c.Grid.Size)
	c.Config.MapSize = size
	if c.GameSpeed < 0 {
		c.GameSpeed = 0
	}
	if c.Modifiers == (Modifiers{}) {
		c.Modifiers = neutralModifiers()
	}
	if c.Grid.NextID == 0 {
		c.Grid.NextID = 1
	}
	s.replace(c)
	return nil
}

// SetBaseRate sets the base growth probability per cell per pass.
func (s *Simulation) SetBaseRate(r float64) {
	if r < 0 {
		r = 0
	}
	s.baseRate = r
}

// BaseRate returns the current base growth rate.
func (s *Simulation) BaseRate() float64 { return s.baseRate }

// SetGameSpeed sets the growth/hazard speed scalar. 0 halts growth.
func (s *Simulation) SetGameSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	s.State.GameSpeed = v
}

// SetPaused halts or resumes Grow and MonthlyUpdate.
func (s *Simulation) SetPaused(p bool) { s.State.Paused = p }

// SetBuildMode selects what Apply places.
func (s *Simulation) SetBuildMode(m city.BuildMode) { s.State.BuildMode = m }

// MonthlyUpdate runs one tick of the monthly pipeline. The systems run in
// a fixed order; each reads what the previous ones wrote.
func (s *Simulation) MonthlyUpdate() MonthlyReport {
	st := s.State
	if st.Paused {
		return MonthlyReport{Month: st.Month, Treasury: st.Treasury, Population: st.Population, Skipped: true}
	}
	s.attrition = 0
	before := st.Treasury

	s.diffuseInfrastructure()
	s.runHazards()
	hazardLosses := before - st.Treasury

	s.aggregateCivic()
	s.applySynergies()
	s.updateDemand()
	s.derivePenalties()
	rep := s.settleLedger()
	rep.HazardLosses = hazardLosses

	if st.Treasury < 0 {
		slog.Warn("treasury exhausted, resetting city",
			"month", st.Month,
			"treasury", humanize.Comma(st.Treasury),
			"city_id", st.CityID,
		)
		rep.Bankrupt = true
		rep.Treasury = st.Treasury
		s.Reset()
		s.record(CategoryEconomy, "the city went bankrupt in month %d and was rebuilt from scratch", rep.Month)
		rep.Population = s.State.Population
		return rep
	}

	pop := s.CalculatePopulation() - s.attrition
	if pop < 0 {
		pop = 0
	}
	st.Population = int(float64(pop) * st.Modifiers.SlumPopulation)
	s.CalculateComfort()

	rep.Treasury = st.Treasury
	rep.Population = st.Population

	slog.Debug("monthly report",
		"month", rep.Month,
		"treasury", humanize.Comma(st.Treasury),
		"revenue", humanize.Comma(rep.Revenue),
		"maintenance", humanize.Comma(rep.Maintenance),
		"hazard_losses", rep.HazardLosses,
		"population", st.Population,
		"comfort", st.Comfort,
		"growth_penalty", fmt.Sprintf("%.2f", st.Civic.GrowthPenalty),
	)
	return rep
}
