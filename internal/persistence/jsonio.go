package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/tilecity/internal/engine"
)

// ExportVersion tags exported documents. Imports do not check it.
const ExportVersion = "1.0.0"

// Export is the JSON document written by ExportJSON.
type Export struct {
	Version    string        `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	GameState  *engine.State `json:"gameState"`
}

// ErrNoGameState is returned for import documents without a gameState.
var ErrNoGameState = errors.New("document has no gameState")

const exportSchema = `{
  "type": "object",
  "required": ["gameState"],
  "properties": {
    "version": {"type": "string"},
    "exportedAt": {"type": "string"},
    "gameState": {
      "type": "object",
      "required": ["grid", "treasury", "month"],
      "properties": {
        "city_id": {"type": "string"},
        "treasury": {"type": "integer"},
        "month": {"type": "integer", "minimum": 0},
        "population": {"type": "integer", "minimum": 0},
        "grid": {
          "type": "object",
          "required": ["size", "tiles"],
          "properties": {
            "size": {"enum": [64, 128, 256]},
            "tiles": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["k"],
                "properties": {
                  "k": {"type": "integer", "minimum": 0, "maximum": 14},
                  "l": {"type": "integer", "minimum": 0, "maximum": 4}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var importSchema = jsonschema.MustCompileString("tilecity-export.json", exportSchema)

// ExportJSON writes st wrapped in an Export envelope.
func ExportJSON(w io.Writer, st *engine.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		GameState:  st,
	})
}

// ImportJSON validates and decodes an exported document. The returned
// state still has to pass engine.State.Validate when it is restored.
func ImportJSON(r io.Reader) (*engine.State, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}
	if m, ok := doc.(map[string]any); ok && m["gameState"] == nil {
		return nil, ErrNoGameState
	}
	if err := importSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid import: %w", err)
	}

	var ex Export
	if err := json.Unmarshal(raw, &ex); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}
	return ex.GameState, nil
}
