package steward

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

const maxRecords = 50

// CycleRecord captures what happened in a single steward cycle.
type CycleRecord struct {
	Month      uint32 `json:"month"`
	Action     string `json:"action"`
	Mode       string `json:"mode,omitempty"`
	Applied    int    `json:"applied"`
	Treasury   int64  `json:"treasury"`
	Population int    `json:"population"`
	Level      string `json:"level"`
	Rationale  string `json:"rationale,omitempty"`
}

// CycleMemory manages a ring of recent steward cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
}

// LoadMemory reads the memory file from disk. Returns empty memory if the
// file is missing or unreadable.
func LoadMemory(path string) *CycleMemory {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("steward memory unreadable, starting fresh", "error", err)
		}
		return &CycleMemory{}
	}
	var mem CycleMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		slog.Warn("steward memory corrupted, starting fresh", "error", err)
		return &CycleMemory{}
	}
	return &mem
}

// Save writes the memory to disk.
func (m *CycleMemory) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Stalled reports whether the last n records all failed to apply anything,
// which means the steward keeps choosing a build the city rejects.
func (m *CycleMemory) Stalled(n int) bool {
	if n <= 0 || len(m.Records) < n {
		return false
	}
	for _, r := range m.Records[len(m.Records)-n:] {
		if r.Action == ActionNone || r.Applied > 0 {
			return false
		}
	}
	return true
}
