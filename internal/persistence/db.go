// Package persistence provides SQLite-based save slots plus compressed
// snapshot files and JSON export for city state.
package persistence

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tilecity/internal/engine"
)

// SlotCount is the number of save slots.
const SlotCount = 3

var (
	// ErrSlotRange is returned for slot numbers outside [0, SlotCount).
	ErrSlotRange = errors.New("save slot out of range")
	// ErrEmptySlot is returned when loading a slot that holds no save.
	ErrEmptySlot = errors.New("save slot is empty")
)

// DB wraps a SQLite connection for city persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		slot INTEGER PRIMARY KEY,
		saved_at INTEGER NOT NULL,
		city_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		population INTEGER NOT NULL,
		treasury INTEGER NOT NULL,
		state BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS city_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_city ON events(city_id, month);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SlotInfo summarizes one save slot.
type SlotInfo struct {
	Slot       int       `db:"slot" json:"slot"`
	Empty      bool      `db:"-" json:"empty"`
	SavedAt    time.Time `db:"-" json:"saved_at"`
	SavedUnix  int64     `db:"saved_at" json:"-"`
	CityID     string    `db:"city_id" json:"city_id,omitempty"`
	Month      uint32    `db:"month" json:"month"`
	Population int       `db:"population" json:"population"`
	Treasury   int64     `db:"treasury" json:"treasury"`
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("%w: %d", ErrSlotRange, slot)
	}
	return nil
}

// SaveSlot writes st into slot, replacing whatever was there.
func (db *DB) SaveSlot(slot int, st *engine.State) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := EncodeState(&buf, st); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	_, err := db.conn.Exec(`INSERT OR REPLACE INTO slots
		(slot, saved_at, city_id, month, population, treasury, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		slot, time.Now().UnixMilli(), st.CityID, st.Month, st.Population, st.Treasury, buf.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	slog.Info("city saved",
		"slot", slot,
		"month", st.Month,
		"population", st.Population,
		"treasury", humanize.Comma(st.Treasury),
		"bytes", humanize.Bytes(uint64(buf.Len())),
	)
	return nil
}

// LoadSlot reads the state saved in slot.
func (db *DB) LoadSlot(slot int) (*engine.State, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	var blob []byte
	err := db.conn.Get(&blob, "SELECT state FROM slots WHERE slot = ?", slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrEmptySlot, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %d: %w", slot, err)
	}
	st, _, err := DecodeState(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decode slot %d: %w", slot, err)
	}
	return st, nil
}

// DeleteSlot clears slot. Clearing an empty slot is not an error.
func (db *DB) DeleteSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	_, err := db.conn.Exec("DELETE FROM slots WHERE slot = ?", slot)
	return err
}

// Slots returns one entry per slot, in slot order. Empty slots are marked.
func (db *DB) Slots() ([]SlotInfo, error) {
	var rows []SlotInfo
	err := db.conn.Select(&rows,
		"SELECT slot, saved_at, city_id, month, population, treasury FROM slots ORDER BY slot")
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	out := make([]SlotInfo, SlotCount)
	for i := range out {
		out[i] = SlotInfo{Slot: i, Empty: true}
	}
	for _, r := range rows {
		if r.Slot < 0 || r.Slot >= SlotCount {
			continue
		}
		r.SavedAt = time.UnixMilli(r.SavedUnix)
		out[r.Slot] = r
	}
	return out, nil
}

// SaveEvents appends events to the database under cityID.
func (db *DB) SaveEvents(cityID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (city_id, month, description, category) VALUES (?, ?, ?, ?)",
			cityID, e.Month, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events recorded for cityID,
// newest first.
func (db *DB) RecentEvents(cityID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT month, description, category FROM events WHERE city_id = ? ORDER BY id DESC LIMIT ?",
		cityID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in city metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM city_meta WHERE key = ?", key)
	return value, err
}

const settingsKey = "settings"

// SaveSettings remembers the configuration new cities start with.
func (db *DB) SaveSettings(cfg engine.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return db.SaveMeta(settingsKey, string(raw))
}

// LoadSettings returns the remembered configuration, or ok=false when none
// has been saved.
func (db *DB) LoadSettings() (cfg engine.Config, ok bool, err error) {
	raw, err := db.GetMeta(settingsKey)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.DefaultConfig(), false, nil
	}
	if err != nil {
		return cfg, false, err
	}
	cfg = engine.DefaultConfig()
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, false, fmt.Errorf("parse settings: %w", err)
	}
	return cfg, true, nil
}
