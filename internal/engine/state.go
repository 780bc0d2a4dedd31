package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/tuning"
)

// ErrGridSize is returned for map sizes the engine does not support.
var ErrGridSize = errors.New("unsupported map size")

// MapSize names one of the fixed grid dimensions.
type MapSize string

const (
	MapSmall  MapSize = "small"  // 64×64
	MapMedium MapSize = "medium" // 128×128
	MapLarge  MapSize = "large"  // 256×256
)

// GridSize returns the side length for m.
func (m MapSize) GridSize() (int, error) {
	switch m {
	case MapSmall:
		return 64, nil
	case MapMedium, "":
		return 128, nil
	case MapLarge:
		return 256, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrGridSize, string(m))
}

// MapSizeFor returns the MapSize whose side length is n.
func MapSizeFor(n int) (MapSize, error) {
	switch n {
	case 64:
		return MapSmall, nil
	case 128:
		return MapMedium, nil
	case 256:
		return MapLarge, nil
	}
	return "", fmt.Errorf("%w: %d", ErrGridSize, n)
}

// Config is the configuration preserved across resets.
type Config struct {
	MapSize    MapSize `json:"map_size"`
	Difficulty string  `json:"difficulty"` // easy, normal, hard
	Disasters  bool    `json:"disasters"`  // fire and disease
	Pollution  bool    `json:"pollution"`
	Slum       bool    `json:"slum"`
	Sandbox    bool    `json:"sandbox"` // waives build costs
	Seed       int64   `json:"seed"`    // 0 = crypto randomness
}

// DefaultConfig returns a medium, normal-difficulty city with hazards off.
func DefaultConfig() Config {
	return Config{MapSize: MapMedium, Difficulty: "normal"}
}

// Civic holds the engine-wide scalars. All are 0..100 except the two penalties.
type Civic struct {
	Security      float64 `json:"security"`
	Safety        float64 `json:"safety"`
	Education     float64 `json:"education"`
	Medical       float64 `json:"medical"`
	Tourism       float64 `json:"tourism"`
	International float64 `json:"international"`

	PowerSupplyRate float64 `json:"power_supply_rate"`
	WaterSupplyRate float64 `json:"water_supply_rate"`
	PollutionGlobal float64 `json:"pollution_global"`
	SlumRateGlobal  float64 `json:"slum_rate_global"`

	ResidentialDemand int `json:"residential_demand"`
	CommercialDemand  int `json:"commercial_demand"`
	IndustrialDemand  int `json:"industrial_demand"`

	GrowthPenalty  float64 `json:"growth_penalty"`  // ~0.3..1.0
	RevenuePenalty float64 `json:"revenue_penalty"` // ~0.7..1.0
}

// Modifiers are derived multipliers carried from one monthly pass to the next.
type Modifiers struct {
	FireAmplifier      float64 `json:"fire_amplifier"`
	DiseaseAmplifier   float64 `json:"disease_amplifier"`
	UnwateredAmplifier float64 `json:"unwatered_amplifier"`
	ServiceComfort     float64 `json:"service_comfort"`
	PollutionComfort   float64 `json:"pollution_comfort"`
	SlumComfort        float64 `json:"slum_comfort"`
	SlumPopulation     float64 `json:"slum_population"`
}

func neutralModifiers() Modifiers {
	return Modifiers{
		FireAmplifier:      1,
		DiseaseAmplifier:   1,
		UnwateredAmplifier: 1,
		ServiceComfort:     1,
		PollutionComfort:   1,
		SlumComfort:        1,
		SlumPopulation:     1,
	}
}

// State is the complete serializable snapshot of a city.
type State struct {
	CityID string `json:"city_id"`
	Config Config `json:"config"`

	Grid      *city.Grid `json:"grid"`
	Civic     Civic      `json:"civic"`
	Modifiers Modifiers  `json:"modifiers"`

	Treasury        int64  `json:"treasury"`
	InitialTreasury int64  `json:"initial_treasury"`
	Month           uint32 `json:"month"`
	Population      int    `json:"population"`
	Comfort         int    `json:"comfort"`

	Paused    bool           `json:"paused"`
	GameSpeed float64        `json:"game_speed"`
	BuildMode city.BuildMode `json:"build_mode"`
}

// Clone returns a deep copy.
func (st *State) Clone() *State {
	c := *st
	if st.Grid != nil {
		c.Grid = st.Grid.Clone()
	}
	return &c
}

// Validate checks structural consistency of a state about to be restored.
func (st *State) Validate() error {
	if st == nil || st.Grid == nil {
		return errors.New("state has no grid")
	}
	if _, err := MapSizeFor(st.Grid.Size); err != nil {
		return err
	}
	if err := st.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	for i, t := range st.Grid.Tiles {
		if !t.Kind.Valid() {
			return fmt.Errorf("cell %d: unknown kind %d", i, t.Kind)
		}
		if t.Kind.Zoned() && (t.Level < 1 || t.Level > city.MaxLevel) {
			return fmt.Errorf("cell %d: %s level %d out of range", i, t.Kind, t.Level)
		}
	}
	return nil
}

// freshState builds the seeded initial state for cfg.
func freshState(cfg Config, tu tuning.Tuning) (*State, error) {
	n, err := cfg.MapSize.GridSize()
	if err != nil {
		return nil, err
	}
	if cfg.MapSize == "" {
		cfg.MapSize = MapMedium
	}
	diff := tu.DifficultyFor(cfg.Difficulty)

	g := city.NewGrid(n)
	c := g.Center()
	i := g.Index(c.X, c.Y)
	g.Tiles[i] = city.Tile{Kind: city.Station}
	g.Building[i] = g.NextID
	g.NextID++

	svc := tu.Civic.InitialService
	return &State{
		CityID: uuid.New().String(),
		Config: cfg,
		Grid:   g,
		Civic: Civic{
			Security:       svc,
			Safety:         svc,
			Education:      svc,
			Medical:        svc,
			GrowthPenalty:  1,
			RevenuePenalty: 1,
		},
		Modifiers:       neutralModifiers(),
		Treasury:        diff.Treasury,
		InitialTreasury: diff.Treasury,
		Comfort:         50,
		GameSpeed:       1,
		BuildMode:       city.ModeRoad,
	}, nil
}
