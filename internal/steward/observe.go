// Package steward implements an autonomous mayor for a running city.
// It observes city state via the API, decides on one build per cycle with
// fixed rules, and acts via the admin build endpoint.
package steward

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/tilecity/internal/city"
)

// CitySnapshot holds all data collected during an observation cycle.
type CitySnapshot struct {
	Status CityStatus `json:"status"`
	Map    CityMap    `json:"map"`
}

// CityStatus mirrors the fields of GET /api/v1/status the steward reads.
type CityStatus struct {
	CityID     string  `json:"city_id"`
	Month      uint32  `json:"month"`
	Treasury   int64   `json:"treasury"`
	Population int     `json:"population"`
	Comfort    int     `json:"comfort"`
	Paused     bool    `json:"paused"`
	Civic      Civic   `json:"civic"`
	GameSpeed  float64 `json:"game_speed"`
}

// Civic mirrors the civic scalars in the status payload.
type Civic struct {
	Security          float64 `json:"security"`
	Safety            float64 `json:"safety"`
	Education         float64 `json:"education"`
	Medical           float64 `json:"medical"`
	PowerSupplyRate   float64 `json:"power_supply_rate"`
	WaterSupplyRate   float64 `json:"water_supply_rate"`
	ResidentialDemand int     `json:"residential_demand"`
	CommercialDemand  int     `json:"commercial_demand"`
	IndustrialDemand  int     `json:"industrial_demand"`
}

// CityMap mirrors GET /api/v1/map with only the tile layer requested.
type CityMap struct {
	Size  int         `json:"size"`
	Tiles []city.Tile `json:"tiles"`
}

// Grid rebuilds a tile-only grid from the map for site searches.
func (m CityMap) Grid() (*city.Grid, error) {
	if m.Size <= 0 || len(m.Tiles) != m.Size*m.Size {
		return nil, fmt.Errorf("map has %d tiles for size %d", len(m.Tiles), m.Size)
	}
	g := city.NewGrid(m.Size)
	copy(g.Tiles, m.Tiles)
	return g, nil
}

// Observer fetches city state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status and the tile map.
func (o *Observer) Observe(ctx context.Context) (*CitySnapshot, error) {
	snap := &CitySnapshot{}

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/map?layers=tiles", &snap.Map); err != nil {
		return nil, fmt.Errorf("fetch map: %w", err)
	}

	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
