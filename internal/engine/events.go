package engine

import (
	"fmt"
	"log/slog"
)

const (
	maxEvents    = 1000
	subscriberCh = 64
)

// Event categories.
const (
	CategoryFire    = "fire"
	CategoryDisease = "disease"
	CategorySlum    = "slum"
	CategoryEconomy = "economy"
	CategoryBuild   = "build"
)

// Event is a notable occurrence in the city.
type Event struct {
	Month       uint32 `json:"month"`
	Description string `json:"description"`
	Category    string `json:"category"` // "fire", "disease", "slum", "economy", "build"
}

// record appends an event, trims the log, and fans it out to subscribers.
// Slow subscribers drop events rather than block the simulation.
func (s *Simulation) record(category, format string, args ...any) {
	e := Event{
		Month:       s.State.Month,
		Description: fmt.Sprintf(format, args...),
		Category:    category,
	}
	s.Events = append(s.Events, e)
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("event dropped for slow subscriber", "sub_id", id)
		}
	}
}

// RecentEvents returns a copy of the last n events (all when n <= 0).
func (s *Simulation) RecentEvents(n int) []Event {
	start := 0
	if n > 0 && len(s.Events) > n {
		start = len(s.Events) - n
	}
	return append([]Event(nil), s.Events[start:]...)
}

// Subscribe registers a channel that receives every new event.
func (s *Simulation) Subscribe() (int, <-chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]chan Event)
	}
	s.nextSub++
	ch := make(chan Event, subscriberCh)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch
}

// Unsubscribe closes and removes a subscription.
func (s *Simulation) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}
