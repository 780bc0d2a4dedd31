package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// maxTrackedClients triggers a sweep of expired allowances.
const maxTrackedClients = 1024

// cellBudget meters build work per client. Each client may touch limit
// cells per window: a point build costs one cell, a line one per cell it
// crosses. A single request never costs more than a full window.
type cellBudget struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*allowance
}

type allowance struct {
	used  int
	since time.Time
}

func newCellBudget(limit int, window time.Duration) *cellBudget {
	return &cellBudget{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*allowance),
	}
}

// take charges cost cells to client. When the current window cannot cover
// them it returns false and how long until the window resets.
func (b *cellBudget) take(client string, cost int) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	a, ok := b.clients[client]
	if !ok || now.Sub(a.since) >= b.window {
		if !ok && len(b.clients) >= maxTrackedClients {
			b.sweep(now)
		}
		a = &allowance{since: now}
		b.clients[client] = a
	}

	cost = min(max(cost, 1), b.limit)
	if a.used+cost > b.limit {
		return a.since.Add(b.window).Sub(now), false
	}
	a.used += cost
	return 0, true
}

func (b *cellBudget) sweep(now time.Time) {
	for c, a := range b.clients {
		if now.Sub(a.since) >= b.window {
			delete(b.clients, c)
		}
	}
}

// retryAfterSeconds rounds a wait up to whole seconds for the Retry-After
// header.
func retryAfterSeconds(wait time.Duration) int {
	s := int((wait + time.Second - 1) / time.Second)
	return max(s, 1)
}

// clientAddr identifies the caller by the first X-Forwarded-For hop, or
// the connection's host.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// cells is how many grid cells the request touches.
func (req buildRequest) cells() int {
	if req.X2 == nil || req.Y2 == nil {
		return 1
	}
	dx, dy := *req.X2-req.X, *req.Y2-req.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy) + 1
}
