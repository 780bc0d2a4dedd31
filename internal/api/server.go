// Package api provides the HTTP API for observing and steering a running city.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/persistence"
)

const (
	maxSSEConns  = 2
	maxLiveConns = 16
	sseCatchUp   = 50
)

// Server serves the HTTP API.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB // optional; save/load/slots answer 503 without it
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	RelayKey string // Bearer token for the SSE stream. Empty = streaming disabled.

	// BuildLimit caps the cells one client may build on per minute. Zero
	// uses 120.
	BuildLimit int
	builds     *cellBudget

	// Active SSE connection count (atomic).
	sseConns int32

	upgrader websocket.Upgrader
	liveMu   sync.Mutex
	live     map[int]chan []byte
	nextLive int
}

// Status is the scalar summary served by /api/v1/status and pushed on /api/v1/live.
type Status struct {
	CityID     string           `json:"city_id"`
	Month      uint32           `json:"month"`
	MapSize    engine.MapSize   `json:"map_size"`
	Difficulty string           `json:"difficulty"`
	Treasury   int64            `json:"treasury"`
	Population int              `json:"population"`
	Comfort    int              `json:"comfort"`
	Paused     bool             `json:"paused"`
	GameSpeed  float64          `json:"game_speed"`
	BaseRate   float64          `json:"base_rate"`
	BuildMode  string           `json:"build_mode"`
	Civic      engine.Civic     `json:"civic"`
	Modifiers  engine.Modifiers `json:"modifiers"`
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	limit := s.BuildLimit
	if limit <= 0 {
		limit = 120
	}
	s.builds = newCellBudget(limit, time.Minute)

	if s.upgrader.CheckOrigin == nil {
		s.upgrader = websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		}
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/slots", s.handleSlots)
	mux.HandleFunc("/api/v1/live", s.handleLive)

	// SSE streaming endpoint (GET, requires relay bearer token).
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/build", s.adminOnly(s.handleBuild))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/save", s.adminOnly(s.handleSave))
	mux.HandleFunc("/api/v1/load", s.adminOnly(s.handleLoad))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly gates POST requests behind the admin bearer token. GETs pass
// through so the same route can report current values.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no TILECITY_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !checkBearer(r, s.AdminKey) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func checkBearer(r *http.Request, key string) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == key
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) status() Status {
	var st Status
	s.Eng.Do(func(sim *engine.Simulation) {
		c := sim.State
		st = Status{
			CityID:     c.CityID,
			Month:      c.Month,
			MapSize:    c.Config.MapSize,
			Difficulty: c.Config.Difficulty,
			Treasury:   c.Treasury,
			Population: c.Population,
			Comfort:    c.Comfort,
			Paused:     c.Paused,
			GameSpeed:  c.GameSpeed,
			BaseRate:   sim.BaseRate(),
			BuildMode:  c.BuildMode.String(),
			Civic:      c.Civic,
			Modifiers:  c.Modifiers,
		}
	})
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

// mapView is the grid as served to clients. Byte fields are widened so they
// encode as numbers rather than base64.
type mapView struct {
	Size      int         `json:"size"`
	Month     uint32      `json:"month"`
	Tiles     []city.Tile `json:"tiles"`
	Powered   []bool      `json:"powered,omitempty"`
	Watered   []bool      `json:"watered,omitempty"`
	Fire      []int       `json:"fire,omitempty"`
	Disease   []int       `json:"disease,omitempty"`
	Pollution []int       `json:"pollution,omitempty"`
	Slum      []int       `json:"slum,omitempty"`
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	layers := map[string]bool{}
	if l := r.URL.Query().Get("layers"); l != "" {
		for _, name := range strings.Split(l, ",") {
			layers[strings.TrimSpace(name)] = true
		}
	}
	all := len(layers) == 0

	var v mapView
	s.Eng.Do(func(sim *engine.Simulation) {
		g := sim.Grid()
		v.Size = g.Size
		v.Month = sim.State.Month
		v.Tiles = append([]city.Tile(nil), g.Tiles...)
		if all || layers["power"] {
			v.Powered = append([]bool(nil), g.Powered...)
		}
		if all || layers["water"] {
			v.Watered = append([]bool(nil), g.Watered...)
		}
		if all || layers["fire"] {
			v.Fire = widen(g.Fire)
		}
		if all || layers["disease"] {
			v.Disease = widen(g.Disease)
		}
		if all || layers["pollution"] {
			v.Pollution = widen(g.Pollution)
		}
		if all || layers["slum"] {
			v.Slum = make([]int, len(g.Slum))
			for i, x := range g.Slum {
				v.Slum[i] = int(math.Floor(float64(x)))
			}
		}
	})
	writeJSON(w, v)
}

func widen(b []uint8) []int {
	out := make([]int, len(b))
	for i, x := range b {
		out[i] = int(x)
	}
	return out
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	// History comes from the database, newest first.
	if r.URL.Query().Get("history") != "" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		events, err := s.DB.RecentEvents(s.status().CityID, limit)
		if err != nil {
			slog.Error("event history failed", "error", err)
			http.Error(w, "event history failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
		return
	}

	events := s.Eng.Events(limit)
	if cat := r.URL.Query().Get("category"); cat != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events)
}

// buildRequest places with Mode at (X, Y), or along the line to (X2, Y2)
// when both are given.
type buildRequest struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	X2   *int   `json:"x2,omitempty"`
	Y2   *int   `json:"y2,omitempty"`
	Mode string `json:"mode"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	mode, err := city.ParseBuildMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if wait, ok := s.builds.take(clientAddr(r), req.cells()); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		http.Error(w, "build budget exceeded", http.StatusTooManyRequests)
		return
	}

	applied := 0
	switch {
	case req.X2 != nil && req.Y2 != nil:
		applied, err = s.Eng.BuildLine(req.X, req.Y, *req.X2, *req.Y2, mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	case s.Eng.Apply(req.X, req.Y, mode):
		applied = 1
	}

	st := s.status()
	writeJSON(w, map[string]any{
		"mode":     mode.String(),
		"applied":  applied,
		"treasury": st.Treasury,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed    *float64 `json:"speed"`
			BaseRate *float64 `json:"base_rate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed != nil && (*req.Speed < 0 || *req.Speed > 100) {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		if req.BaseRate != nil && (*req.BaseRate < 0 || *req.BaseRate > 1) {
			http.Error(w, "base_rate must be 0-1", http.StatusBadRequest)
			return
		}
		s.Eng.Do(func(sim *engine.Simulation) {
			if req.Speed != nil {
				sim.SetGameSpeed(*req.Speed)
			}
			if req.BaseRate != nil {
				sim.SetBaseRate(*req.BaseRate)
			}
		})
		slog.Info("speed changed", "speed", req.Speed, "base_rate", req.BaseRate)
	}

	st := s.status()
	writeJSON(w, map[string]float64{"speed": st.GameSpeed, "base_rate": st.BaseRate})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Paused bool `json:"paused"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.Eng.Do(func(sim *engine.Simulation) { sim.SetPaused(req.Paused) })
		slog.Info("pause changed", "paused", req.Paused)
	}
	writeJSON(w, map[string]bool{"paused": s.status().Paused})
}

func decodeSlot(r *http.Request) (int, error) {
	var req struct {
		Slot int `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, errors.New("invalid json")
	}
	return req.Slot, nil
}

func slotStatus(err error) int {
	switch {
	case errors.Is(err, persistence.ErrSlotRange):
		return http.StatusBadRequest
	case errors.Is(err, persistence.ErrEmptySlot):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	slots, err := s.DB.Slots()
	if err != nil {
		slog.Error("slot listing failed", "error", err)
		http.Error(w, "slot listing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, slots)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	slot, err := decodeSlot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := s.Eng.Snapshot()
	if err := s.DB.SaveSlot(slot, st); err != nil {
		slog.Error("save failed", "slot", slot, "error", err)
		http.Error(w, err.Error(), slotStatus(err))
		return
	}
	writeJSON(w, map[string]any{
		"slot":    slot,
		"month":   st.Month,
		"message": "city saved",
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	slot, err := decodeSlot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := s.DB.LoadSlot(slot)
	if err != nil {
		http.Error(w, err.Error(), slotStatus(err))
		return
	}
	if err := s.Eng.Restore(st); err != nil {
		slog.Error("restore failed", "slot", slot, "error", err)
		http.Error(w, "saved city is invalid", http.StatusUnprocessableEntity)
		return
	}
	slog.Info("city loaded", "slot", slot, "month", st.Month)
	writeJSON(w, s.status())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s.Eng.Do(func(sim *engine.Simulation) { sim.Reset() })
	slog.Info("city reset")
	writeJSON(w, s.status())
}

// handleStream serves city events over SSE.
// Requires the relay bearer token. Max 2 concurrent connections.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.RelayKey == "" {
		http.Error(w, "streaming disabled (no relay key)", http.StatusForbidden)
		return
	}
	if !checkBearer(r, s.RelayKey) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	subID, ch := s.Eng.Subscribe()
	defer s.Eng.Unsubscribe(subID)

	for _, e := range s.Eng.Events(sseCatchUp) {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", subID)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, e engine.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Category, data)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
