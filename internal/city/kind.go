// Package city provides the tile grid, building catalog, and footprint placement.
// The grid is a flat row-major buffer; every per-cell field shares its indexing.
package city

import "fmt"

// Kind identifies what occupies a grid cell.
type Kind uint8

const (
	Empty          Kind = iota
	Road                // Connects zones; spawns growth on adjacent cells
	Station             // Rail station, boosts growth in a 9×9 window
	Park                // Green space for the comfort score
	Police              // Security coverage
	FireStation         // Safety coverage and fire suppression
	Hospital            // Medical coverage and disease healing
	School              // Education coverage
	PowerPlant          // Power diffusion source
	WaterTreatment      // Water diffusion source
	Residential         // Zoned, levels 1–4
	Commercial          // Zoned, levels 1–4
	Industrial          // Zoned, levels 1–4, pollutes
	Stadium             // Landmark, tourism
	Airport             // Landmark, tourism and international trade

	kindCount
)

// MaxLevel is the highest level a zoned building can reach.
const MaxLevel = 4

// Category groups kinds the way the build toolbar does.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryRoad
	CategoryResidential
	CategoryCommercial
	CategoryIndustrial
	CategoryInfrastructure
	CategoryLandmark
)

// Footprint is the width×height rectangle a building occupies, anchored at its top-left cell.
type Footprint struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Attributes are the static properties of a kind.
type Attributes struct {
	Name        string
	Category    Category
	Cost        int64
	Maintenance int64
	Footprint   Footprint
	// Tax is the flat monthly tax for non-zoned kinds (landmarks).
	Tax int64
	// Population and LevelTax are indexed by level-1 for zoned kinds.
	Population [MaxLevel]int
	LevelTax   [MaxLevel]int64
}

var catalog = [kindCount]Attributes{
	Empty:          {Name: "empty", Footprint: Footprint{1, 1}},
	Road:           {Name: "road", Category: CategoryRoad, Cost: 200, Maintenance: 10, Footprint: Footprint{1, 1}},
	Station:        {Name: "station", Category: CategoryInfrastructure, Cost: 5000, Maintenance: 100, Footprint: Footprint{2, 2}},
	Park:           {Name: "park", Category: CategoryInfrastructure, Cost: 1000, Maintenance: 5, Footprint: Footprint{2, 2}},
	Police:         {Name: "police", Category: CategoryInfrastructure, Cost: 8000, Maintenance: 300, Footprint: Footprint{2, 2}},
	FireStation:    {Name: "fire_station", Category: CategoryInfrastructure, Cost: 7000, Maintenance: 280, Footprint: Footprint{2, 2}},
	Hospital:       {Name: "hospital", Category: CategoryInfrastructure, Cost: 10000, Maintenance: 400, Footprint: Footprint{3, 3}},
	School:         {Name: "school", Category: CategoryInfrastructure, Cost: 6000, Maintenance: 250, Footprint: Footprint{3, 3}},
	PowerPlant:     {Name: "power_plant", Category: CategoryInfrastructure, Cost: 15000, Maintenance: 600, Footprint: Footprint{4, 4}},
	WaterTreatment: {Name: "water_treatment", Category: CategoryInfrastructure, Cost: 12000, Maintenance: 500, Footprint: Footprint{3, 3}},
	Residential: {
		Name: "residential", Category: CategoryResidential, Footprint: Footprint{1, 1},
		Population: [MaxLevel]int{10, 50, 200, 500},
		LevelTax:   [MaxLevel]int64{20, 60, 150, 300},
	},
	Commercial: {
		Name: "commercial", Category: CategoryCommercial, Footprint: Footprint{1, 1},
		Population: [MaxLevel]int{5, 25, 100, 250},
		LevelTax:   [MaxLevel]int64{30, 90, 200, 400},
	},
	Industrial: {
		Name: "industrial", Category: CategoryIndustrial, Footprint: Footprint{1, 1},
		Population: [MaxLevel]int{15, 60, 220, 550},
		LevelTax:   [MaxLevel]int64{25, 75, 180, 350},
	},
	Stadium: {Name: "stadium", Category: CategoryLandmark, Cost: 50000, Maintenance: 2000, Footprint: Footprint{4, 4}, Tax: 100},
	Airport: {Name: "airport", Category: CategoryLandmark, Cost: 80000, Maintenance: 4000, Footprint: Footprint{6, 6}, Tax: 200},
}

// Attrs returns the static attributes of k. Unknown kinds report as Empty.
func (k Kind) Attrs() Attributes {
	if k >= kindCount {
		return catalog[Empty]
	}
	return catalog[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k < kindCount }

// String returns the kind's snake_case name.
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return catalog[k].Name
}

// Zoned reports whether k grows in levels and yields population and tax.
func (k Kind) Zoned() bool {
	return k == Residential || k == Commercial || k == Industrial
}

// Facility reports whether k is a civic service building.
func (k Kind) Facility() bool {
	switch k {
	case Station, Park, Police, FireStation, Hospital, School, PowerPlant, WaterTreatment:
		return true
	}
	return false
}

// Landmark reports whether k is a landmark.
func (k Kind) Landmark() bool { return k == Stadium || k == Airport }

// ParseKind resolves a kind from its name.
func ParseKind(name string) (Kind, bool) {
	for k := Kind(0); k < kindCount; k++ {
		if catalog[k].Name == name {
			return k, true
		}
	}
	return Empty, false
}

// Kinds returns every non-empty kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := Road; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Tile is the content of one grid cell.
type Tile struct {
	Kind  Kind  `json:"k"`
	Level uint8 `json:"l,omitempty"` // 1–4 for zoned kinds, 0 otherwise
}

// NewTile returns the tile a fresh placement of k produces.
func NewTile(k Kind) Tile {
	if k.Zoned() {
		return Tile{Kind: k, Level: 1}
	}
	return Tile{Kind: k}
}

// IsEmpty reports whether the tile is vacant.
func (t Tile) IsEmpty() bool { return t.Kind == Empty }

// Population returns the residents/workers the tile houses.
func (t Tile) Population() int {
	if !t.Kind.Zoned() || t.Level == 0 || t.Level > MaxLevel {
		return 0
	}
	return catalog[t.Kind].Population[t.Level-1]
}

// Tax returns the tile's base monthly tax yield.
func (t Tile) Tax() int64 {
	if t.Kind.Zoned() {
		if t.Level == 0 || t.Level > MaxLevel {
			return 0
		}
		return catalog[t.Kind].LevelTax[t.Level-1]
	}
	return t.Kind.Attrs().Tax
}

// Maintenance returns the tile kind's monthly upkeep.
func (t Tile) Maintenance() int64 { return t.Kind.Attrs().Maintenance }

// String renders a tile as "kind" or "kind:level".
func (t Tile) String() string {
	if t.Kind.Zoned() {
		return fmt.Sprintf("%s:%d", t.Kind, t.Level)
	}
	return t.Kind.String()
}
