package persistence

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/entropy"
	"github.com/talgya/tilecity/internal/tuning"
)

func sampleState(t *testing.T) *engine.State {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.MapSize = engine.MapSmall
	cfg.Disasters = true
	sim, err := engine.NewSimulation(cfg, tuning.Default(), entropy.NewSeeded(1))
	if err != nil {
		t.Fatal(err)
	}
	sim.Build(10, 10, city.Hospital)
	sim.Build(20, 20, city.Road)
	g := sim.State.Grid
	g.Tiles[g.Index(21, 20)] = city.Tile{Kind: city.Residential, Level: 3}
	g.Fire[g.Index(20, 20)] = 4
	g.Slum[g.Index(21, 20)] = 2.5
	sim.MonthlyUpdate()
	return sim.Snapshot()
}

func sameState(t *testing.T, got, want *engine.State) {
	t.Helper()
	if got.CityID != want.CityID || got.Month != want.Month || got.Treasury != want.Treasury {
		t.Errorf("header fields: got %s/%d/%d, want %s/%d/%d",
			got.CityID, got.Month, got.Treasury, want.CityID, want.Month, want.Treasury)
	}
	if got.Config != want.Config || got.Civic != want.Civic || got.Modifiers != want.Modifiers {
		t.Error("config, civic or modifiers differ")
	}
	if got.Grid.Size != want.Grid.Size || got.Grid.NextID != want.Grid.NextID {
		t.Fatalf("grid size/next id differ")
	}
	for i := range want.Grid.Tiles {
		if got.Grid.Tiles[i] != want.Grid.Tiles[i] || got.Grid.Building[i] != want.Grid.Building[i] ||
			got.Grid.Fire[i] != want.Grid.Fire[i] || got.Grid.Slum[i] != want.Grid.Slum[i] {
			t.Fatalf("cell %d differs", i)
		}
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSlotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	st := sampleState(t)

	if err := db.SaveSlot(1, st); err != nil {
		t.Fatalf("SaveSlot: %v", err)
	}
	got, err := db.LoadSlot(1)
	if err != nil {
		t.Fatalf("LoadSlot: %v", err)
	}
	sameState(t, got, st)
}

func TestSlotErrors(t *testing.T) {
	db := openTestDB(t)
	st := sampleState(t)

	for _, slot := range []int{-1, SlotCount} {
		if err := db.SaveSlot(slot, st); !errors.Is(err, ErrSlotRange) {
			t.Errorf("SaveSlot(%d) = %v, want ErrSlotRange", slot, err)
		}
		if _, err := db.LoadSlot(slot); !errors.Is(err, ErrSlotRange) {
			t.Errorf("LoadSlot(%d) = %v, want ErrSlotRange", slot, err)
		}
	}
	if _, err := db.LoadSlot(0); !errors.Is(err, ErrEmptySlot) {
		t.Errorf("LoadSlot(empty) = %v, want ErrEmptySlot", err)
	}
}

func TestSlotsListing(t *testing.T) {
	db := openTestDB(t)
	st := sampleState(t)
	if err := db.SaveSlot(2, st); err != nil {
		t.Fatal(err)
	}

	slots, err := db.Slots()
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if len(slots) != SlotCount {
		t.Fatalf("got %d slots", len(slots))
	}
	if !slots[0].Empty || !slots[1].Empty {
		t.Error("slots 0 and 1 should be empty")
	}
	s2 := slots[2]
	if s2.Empty || s2.Treasury != st.Treasury || s2.Month != st.Month || s2.CityID != st.CityID {
		t.Errorf("slot 2 = %+v", s2)
	}
	if s2.SavedAt.IsZero() {
		t.Error("slot 2 has no timestamp")
	}

	if err := db.DeleteSlot(2); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadSlot(2); !errors.Is(err, ErrEmptySlot) {
		t.Errorf("deleted slot load = %v", err)
	}
}

func TestEventsAndSettings(t *testing.T) {
	db := openTestDB(t)
	evs := []engine.Event{
		{Month: 1, Category: engine.CategoryFire, Description: "first"},
		{Month: 2, Category: engine.CategoryDisease, Description: "second"},
	}
	if err := db.SaveEvents("c1", evs); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveEvents("c2", evs[:1]); err != nil {
		t.Fatal(err)
	}
	got, err := db.RecentEvents("c1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Description != "second" || got[0].Month != 2 {
		t.Errorf("recent events = %+v", got)
	}

	if _, ok, err := db.LoadSettings(); err != nil || ok {
		t.Errorf("fresh settings ok=%v err=%v", ok, err)
	}
	cfg := engine.Config{MapSize: engine.MapLarge, Difficulty: "hard", Slum: true}
	if err := db.SaveSettings(cfg); err != nil {
		t.Fatal(err)
	}
	loaded, ok, err := db.LoadSettings()
	if err != nil || !ok || loaded != cfg {
		t.Errorf("settings = %+v ok=%v err=%v", loaded, ok, err)
	}
}

func TestSnapshotFile(t *testing.T) {
	st := sampleState(t)
	path := filepath.Join(t.TempDir(), "nested", "city.snap.zst")
	if err := WriteSnapshot(path, st); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	sameState(t, got, st)

	var buf bytes.Buffer
	if err := EncodeState(&buf, st); err != nil {
		t.Fatal(err)
	}
	_, h, err := DecodeState(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.CityID != st.CityID || h.Size != 64 || h.Month != st.Month {
		t.Errorf("header = %+v", h)
	}
}

func TestJSONExportImport(t *testing.T) {
	st := sampleState(t)
	var buf bytes.Buffer
	if err := ExportJSON(&buf, st); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"version": "1.0.0"`) {
		t.Error("export is missing its version tag")
	}

	got, err := ImportJSON(&buf)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	sameState(t, got, st)
}

func TestJSONImportRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"no game state", `{"version":"1.0.0"}`, ErrNoGameState},
		{"bad size", `{"gameState":{"treasury":1,"month":0,"grid":{"size":100,"tiles":[]}}}`, nil},
		{"unknown kind", `{"gameState":{"treasury":1,"month":0,"grid":{"size":64,"tiles":[{"k":99}]}}}`, nil},
		{"not json", `{"gameState":`, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ImportJSON(strings.NewReader(tc.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
