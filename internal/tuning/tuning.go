// Package tuning holds every numeric constant the simulation consumes.
// Defaults reproduce the reference balance; a YAML file can overlay any subset.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the full set of simulation constants.
type Tuning struct {
	BaseGrowthRate float64 `yaml:"base_growth_rate"`
	FramesPerMonth int     `yaml:"frames_per_month"`

	Growth         Growth         `yaml:"growth"`
	Infrastructure Infrastructure `yaml:"infrastructure"`
	Fire           Fire           `yaml:"fire"`
	Disease        Disease        `yaml:"disease"`
	Pollution      Pollution      `yaml:"pollution"`
	Slum           Slum           `yaml:"slum"`
	Civic          Civic          `yaml:"civic"`
	Synergy        Synergy        `yaml:"synergy"`
	Demand         Demand         `yaml:"demand"`
	Penalty        Penalty        `yaml:"penalty"`
	Economy        Economy        `yaml:"economy"`

	Difficulties map[string]Difficulty `yaml:"difficulties"`
}

// Growth shapes the per-frame automaton.
type Growth struct {
	CenterBiasFloor float64 `yaml:"center_bias_floor"`
	StationRadius   int     `yaml:"station_radius"` // Chebyshev, 4 → 9×9 window
	StationBoost    float64 `yaml:"station_boost"`
	UnpoweredFactor float64 `yaml:"unpowered_factor"`
	UnwateredFactor float64 `yaml:"unwatered_factor"`
	SpilloverFactor float64 `yaml:"spillover_factor"`
	LevelUpFactor   float64 `yaml:"level_up_factor"`
	HighDemand      float64 `yaml:"high_demand"`
	HighDemandSlope float64 `yaml:"high_demand_slope"`
	LowDemand       float64 `yaml:"low_demand"`
	LowDemandFactor float64 `yaml:"low_demand_factor"`
}

// Infrastructure sets power and water coverage radii (Euclidean).
type Infrastructure struct {
	PowerRadius int `yaml:"power_radius"`
	WaterRadius int `yaml:"water_radius"`
}

// Fire controls ignition, spread and suppression.
type Fire struct {
	BaseChance     float64 `yaml:"base_chance"`
	IgniteStep     uint8   `yaml:"ignite_step"`
	SpreadChance   float64 `yaml:"spread_chance"`
	SuppressRadius int     `yaml:"suppress_radius"`
	SuppressChance float64 `yaml:"suppress_chance"`
	SuppressStep   uint8   `yaml:"suppress_step"`
	DestroyPenalty int64   `yaml:"destroy_penalty"`
}

// Disease controls outbreaks and healing.
type Disease struct {
	BaseChance    float64 `yaml:"base_chance"`
	DensityRadius int     `yaml:"density_radius"` // 4 → 9×9 window
	DensityScale  float64 `yaml:"density_scale"`
	SpreadRadius  int     `yaml:"spread_radius"`
	SpreadChance  float64 `yaml:"spread_chance"`
	HealRadius    int     `yaml:"heal_radius"`
	HealChance    float64 `yaml:"heal_chance"`
	HealStep      uint8   `yaml:"heal_step"`
	DeathPenalty  int64   `yaml:"death_penalty"`
}

// Pollution controls industrial emission and its comfort cost.
type Pollution struct {
	PerLevel      uint8   `yaml:"per_level"`
	Decay         uint8   `yaml:"decay"`
	HighPercent   float64 `yaml:"high_percent"`
	HighComfort   float64 `yaml:"high_comfort"`
	SeverePercent float64 `yaml:"severe_percent"`
	SevereComfort float64 `yaml:"severe_comfort"`
}

// Slum controls residential decay.
type Slum struct {
	Radius         int     `yaml:"radius"` // 5 → 11×11 window
	BaseChance     float64 `yaml:"base_chance"`
	Step           float32 `yaml:"step"`
	DemoteAbove    float32 `yaml:"demote_above"`
	Decay          float32 `yaml:"decay"`
	HighPercent    float64 `yaml:"high_percent"`
	HighComfort    float64 `yaml:"high_comfort"`
	HighPopulation float64 `yaml:"high_population"`
	SeverePercent  float64 `yaml:"severe_percent"`
	SevereComfort  float64 `yaml:"severe_comfort"`
	SeverePop      float64 `yaml:"severe_population"`
}

// Effect is the radius boost one facility kind applies to the civic scalars.
type Effect struct {
	Kind          string  `yaml:"kind"`
	Radius        int     `yaml:"radius"` // Manhattan
	Security      float64 `yaml:"security"`
	Safety        float64 `yaml:"safety"`
	Education     float64 `yaml:"education"`
	Medical       float64 `yaml:"medical"`
	Tourism       float64 `yaml:"tourism"`
	International float64 `yaml:"international"`
}

// Coverage is the population-scaled facility requirement for one kind.
type Coverage struct {
	Kind     string `yaml:"kind"`
	Base     int    `yaml:"base"`
	Capacity int    `yaml:"capacity"` // residents served per facility
}

// Civic controls decay, facility effects and coverage requirements.
type Civic struct {
	Floor          float64    `yaml:"floor"`
	CoreDecay      float64    `yaml:"core_decay"`
	LeisureDecay   float64    `yaml:"leisure_decay"`
	Falloff        float64    `yaml:"falloff"`
	ServiceScale   float64    `yaml:"service_scale"`
	SupplyScale    float64    `yaml:"supply_scale"`
	Effects        []Effect   `yaml:"effects"`
	Coverage       []Coverage `yaml:"coverage"`
	InitialService float64    `yaml:"initial_service"`
}

// Synergy sets facility-pair proximity bonuses.
type Synergy struct {
	PairDistance            int     `yaml:"pair_distance"`
	TripleDistance          int     `yaml:"triple_distance"`
	PoliceSchoolSecurity    float64 `yaml:"police_school_security"`
	PoliceSchoolEducation   float64 `yaml:"police_school_education"`
	SchoolHospitalEducation float64 `yaml:"school_hospital_education"`
	SchoolHospitalMedical   float64 `yaml:"school_hospital_medical"`
	TripleEducation         float64 `yaml:"triple_education"`
}

// Demand sets the zone demand curve.
type Demand struct {
	OccupancyWeight  float64 `yaml:"occupancy_weight"`
	PopulationScale  float64 `yaml:"population_scale"`
	ResidentialBase  float64 `yaml:"residential_base"`
	ResidentialSlope float64 `yaml:"residential_slope"`
	BusinessBase     float64 `yaml:"business_base"`
	BusinessSlope    float64 `yaml:"business_slope"`
}

// Penalty sets the deficit thresholds and hazard amplifiers.
type Penalty struct {
	SupplyThreshold  float64 `yaml:"supply_threshold"`
	ServiceThreshold float64 `yaml:"service_threshold"`
	HazardAmplifier  float64 `yaml:"hazard_amplifier"`  // fire on low safety, disease on unwatered cells
	MedicalAmplifier float64 `yaml:"medical_amplifier"` // disease on low medical
}

// Economy sets revenue bonuses.
type Economy struct {
	EducationThreshold float64  `yaml:"education_threshold"`
	EducationBonus     float64  `yaml:"education_bonus"`
	EducationSlope     float64  `yaml:"education_slope"`
	VisitorBonus       float64  `yaml:"visitor_bonus"`
	StadiumRadius      int      `yaml:"stadium_radius"`
	StadiumTiers       [4]int64 `yaml:"stadium_tiers"`
	AirportRadius      int      `yaml:"airport_radius"`
	AirportTiers       [4]int64 `yaml:"airport_tiers"`
}

// Difficulty fixes the starting treasury and two cost/risk multipliers.
type Difficulty struct {
	Treasury    int64   `yaml:"treasury"`
	Maintenance float64 `yaml:"maintenance"`
	Disaster    float64 `yaml:"disaster"`
}

// Default returns the reference balance.
func Default() Tuning {
	return Tuning{
		BaseGrowthRate: 0.02,
		FramesPerMonth: 20,
		Growth: Growth{
			CenterBiasFloor: 0.3,
			StationRadius:   4,
			StationBoost:    1.5,
			UnpoweredFactor: 0.6,
			UnwateredFactor: 0.3,
			SpilloverFactor: 0.2,
			LevelUpFactor:   0.4,
			HighDemand:      50,
			HighDemandSlope: 0.006,
			LowDemand:       10,
			LowDemandFactor: 0.7,
		},
		Infrastructure: Infrastructure{PowerRadius: 20, WaterRadius: 15},
		Fire: Fire{
			BaseChance:     0.001,
			IgniteStep:     2,
			SpreadChance:   0.01,
			SuppressRadius: 15,
			SuppressChance: 0.9,
			SuppressStep:   5,
			DestroyPenalty: 500,
		},
		Disease: Disease{
			BaseChance:    0.01,
			DensityRadius: 4,
			DensityScale:  10,
			SpreadRadius:  3,
			SpreadChance:  0.2,
			HealRadius:    10,
			HealChance:    0.7,
			HealStep:      3,
			DeathPenalty:  500,
		},
		Pollution: Pollution{
			PerLevel:      20,
			Decay:         2,
			HighPercent:   50,
			HighComfort:   0.98,
			SeverePercent: 80,
			SevereComfort: 0.95,
		},
		Slum: Slum{
			Radius:         5,
			BaseChance:     0.01,
			Step:           1,
			DemoteAbove:    8,
			Decay:          0.5,
			HighPercent:    10,
			HighComfort:    0.95,
			HighPopulation: 0.98,
			SeverePercent:  20,
			SevereComfort:  0.90,
			SeverePop:      0.95,
		},
		Civic: Civic{
			Floor:          40,
			CoreDecay:      0.9,
			LeisureDecay:   0.95,
			Falloff:        0.3,
			ServiceScale:   0.5,
			SupplyScale:    0.3,
			InitialService: 50,
			Effects: []Effect{
				{Kind: "police", Radius: 30, Security: 5},
				{Kind: "fire_station", Radius: 30, Safety: 5},
				{Kind: "school", Radius: 25, Education: 3},
				{Kind: "hospital", Radius: 25, Medical: 4},
				{Kind: "stadium", Radius: 40, Tourism: 5},
				{Kind: "airport", Radius: 50, Tourism: 3, International: 5},
			},
			Coverage: []Coverage{
				{Kind: "police", Base: 1, Capacity: 5000},
				{Kind: "fire_station", Base: 1, Capacity: 5000},
				{Kind: "school", Base: 1, Capacity: 4000},
				{Kind: "hospital", Base: 1, Capacity: 6000},
				{Kind: "power_plant", Base: 1, Capacity: 8000},
				{Kind: "water_treatment", Base: 1, Capacity: 8000},
			},
		},
		Synergy: Synergy{
			PairDistance:            15,
			TripleDistance:          20,
			PoliceSchoolSecurity:    10,
			PoliceSchoolEducation:   10,
			SchoolHospitalEducation: 5,
			SchoolHospitalMedical:   5,
			TripleEducation:         8,
		},
		Demand: Demand{
			OccupancyWeight:  2,
			PopulationScale:  50000,
			ResidentialBase:  0.5,
			ResidentialSlope: 0.5,
			BusinessBase:     0.2,
			BusinessSlope:    0.8,
		},
		Penalty: Penalty{
			SupplyThreshold:  50,
			ServiceThreshold: 40,
			HazardAmplifier:  1.2,
			MedicalAmplifier: 1.15,
		},
		Economy: Economy{
			EducationThreshold: 60,
			EducationBonus:     0.15,
			EducationSlope:     0.0025,
			VisitorBonus:       0.01,
			StadiumRadius:      40,
			StadiumTiers:       [4]int64{500, 1166, 2333, 3000},
			AirportRadius:      50,
			AirportTiers:       [4]int64{1000, 2333, 3666, 5000},
		},
		Difficulties: map[string]Difficulty{
			"easy":   {Treasury: 500000, Maintenance: 0.8, Disaster: 0.5},
			"normal": {Treasury: 250000, Maintenance: 1.0, Disaster: 1.0},
			"hard":   {Treasury: 150000, Maintenance: 1.25, Disaster: 1.5},
		},
	}
}

// Load reads a YAML file and overlays it onto Default().
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate rejects values the simulation cannot run with.
func (t Tuning) Validate() error {
	if t.FramesPerMonth <= 0 {
		return fmt.Errorf("frames_per_month must be positive, got %d", t.FramesPerMonth)
	}
	if t.BaseGrowthRate < 0 || t.BaseGrowthRate > 1 {
		return fmt.Errorf("base_growth_rate must be within [0,1], got %g", t.BaseGrowthRate)
	}
	if t.Demand.PopulationScale <= 0 {
		return fmt.Errorf("demand.population_scale must be positive")
	}
	if t.Disease.DensityScale <= 0 {
		return fmt.Errorf("disease.density_scale must be positive, got %g", t.Disease.DensityScale)
	}
	for name, r := range map[string]int{
		"fire.suppress_radius":   t.Fire.SuppressRadius,
		"disease.density_radius": t.Disease.DensityRadius,
		"disease.spread_radius":  t.Disease.SpreadRadius,
		"disease.heal_radius":    t.Disease.HealRadius,
	} {
		if r < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, r)
		}
	}
	for _, c := range t.Civic.Coverage {
		if c.Capacity <= 0 {
			return fmt.Errorf("coverage %s: capacity must be positive", c.Kind)
		}
	}
	for name, d := range t.Difficulties {
		if d.Maintenance < 0 || d.Disaster < 0 {
			return fmt.Errorf("difficulty %s: multipliers must be non-negative", name)
		}
	}
	return nil
}

// DifficultyFor returns the named preset, falling back to "normal".
func (t Tuning) DifficultyFor(name string) Difficulty {
	if d, ok := t.Difficulties[name]; ok {
		return d
	}
	if d, ok := t.Difficulties["normal"]; ok {
		return d
	}
	return Difficulty{Treasury: 250000, Maintenance: 1, Disaster: 1}
}
