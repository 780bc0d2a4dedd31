package steward

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// stallCycles is how many rejected orders in a row make the steward sit out
// a cycle.
const stallCycles = 3

// Steward runs observe → triage → decide → act cycles against one city.
type Steward struct {
	Observer *Observer
	Actor    *Actor
	Rules    Rules
	Memory   *CycleMemory
}

// New creates a steward for the API at baseURL.
func New(baseURL, adminKey string, rules Rules) *Steward {
	return &Steward{
		Observer: NewObserver(baseURL),
		Actor:    NewActor(baseURL, adminKey),
		Rules:    rules,
		Memory:   &CycleMemory{},
	}
}

// Cycle executes one observe → decide → act cycle and records it.
func (s *Steward) Cycle(ctx context.Context) (CycleRecord, error) {
	snap, err := s.Observer.Observe(ctx)
	if err != nil {
		return CycleRecord{}, fmt.Errorf("observe: %w", err)
	}
	g, err := snap.Map.Grid()
	if err != nil {
		return CycleRecord{}, fmt.Errorf("observe: %w", err)
	}

	health := Triage(snap, g, s.Rules)
	slog.Info("observation complete",
		"month", snap.Status.Month,
		"population", humanize.Comma(int64(snap.Status.Population)),
		"treasury", humanize.Comma(snap.Status.Treasury),
		"runway_months", fmt.Sprintf("%.1f", health.Runway),
		"level", health.Level,
		"shortfall", len(health.Shortfall),
	)

	decision := Decide(snap, g, health, s.Rules)
	if decision.Action != ActionNone && s.Memory.Stalled(stallCycles) {
		decision = none("last %d orders were rejected, sitting out", stallCycles)
	}
	slog.Info("decision made", "action", decision.Action, "rationale", decision.Rationale)

	rec := CycleRecord{
		Month:      snap.Status.Month,
		Action:     decision.Action,
		Treasury:   snap.Status.Treasury,
		Population: snap.Status.Population,
		Level:      health.Level,
		Rationale:  decision.Rationale,
	}
	if decision.Order != nil {
		rec.Mode = decision.Order.Mode
		res, err := s.Actor.Act(ctx, decision.Order)
		if err != nil {
			s.Memory.Record(rec)
			return rec, fmt.Errorf("act: %w", err)
		}
		rec.Applied = res.Applied
		rec.Treasury = res.Treasury
		slog.Info("order executed", "mode", res.Mode, "applied", res.Applied, "treasury", humanize.Comma(res.Treasury))
	}
	s.Memory.Record(rec)
	return rec, nil
}
