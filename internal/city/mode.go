package city

import "fmt"

// Tool is the build toolbar category a BuildMode belongs to.
type Tool uint8

const (
	ToolRoad Tool = iota
	ToolResidential
	ToolCommercial
	ToolIndustrial
	ToolInfrastructure
	ToolLandmark
	ToolDemolish
)

// BuildMode is the player's current build selection. Kind is only
// meaningful for ToolInfrastructure and ToolLandmark, where it picks which
// facility or landmark gets placed.
type BuildMode struct {
	Tool Tool `json:"tool"`
	Kind Kind `json:"kind,omitempty"`
}

// Common modes.
var (
	ModeRoad        = BuildMode{Tool: ToolRoad}
	ModeResidential = BuildMode{Tool: ToolResidential}
	ModeCommercial  = BuildMode{Tool: ToolCommercial}
	ModeIndustrial  = BuildMode{Tool: ToolIndustrial}
	ModeDemolish    = BuildMode{Tool: ToolDemolish}
)

// FacilityMode selects a civic facility for placement.
func FacilityMode(k Kind) BuildMode { return BuildMode{Tool: ToolInfrastructure, Kind: k} }

// LandmarkMode selects a landmark for placement.
func LandmarkMode(k Kind) BuildMode { return BuildMode{Tool: ToolLandmark, Kind: k} }

// Target returns the kind this mode places. ok is false for demolish and
// for facility/landmark modes whose Kind does not belong to the tool.
func (m BuildMode) Target() (Kind, bool) {
	switch m.Tool {
	case ToolRoad:
		return Road, true
	case ToolResidential:
		return Residential, true
	case ToolCommercial:
		return Commercial, true
	case ToolIndustrial:
		return Industrial, true
	case ToolInfrastructure:
		if m.Kind.Facility() {
			return m.Kind, true
		}
		if m.Kind == Empty {
			return Station, true
		}
		return Empty, false
	case ToolLandmark:
		if m.Kind.Landmark() {
			return m.Kind, true
		}
		if m.Kind == Empty {
			return Stadium, true
		}
		return Empty, false
	case ToolDemolish:
		return Empty, false
	}
	return Empty, false
}

// String names the mode the way ParseBuildMode accepts it.
func (m BuildMode) String() string {
	switch m.Tool {
	case ToolDemolish:
		return "demolish"
	default:
		if k, ok := m.Target(); ok {
			return k.String()
		}
	}
	return fmt.Sprintf("mode(%d,%d)", m.Tool, m.Kind)
}

// ParseBuildMode resolves "demolish" or any placeable kind name.
func ParseBuildMode(name string) (BuildMode, error) {
	if name == "demolish" {
		return ModeDemolish, nil
	}
	k, ok := ParseKind(name)
	if !ok || k == Empty {
		return BuildMode{}, fmt.Errorf("unknown build mode %q", name)
	}
	return ModeFor(k), nil
}

// ModeFor returns the build mode that places k.
func ModeFor(k Kind) BuildMode {
	switch {
	case k == Road:
		return ModeRoad
	case k == Residential:
		return ModeResidential
	case k == Commercial:
		return ModeCommercial
	case k == Industrial:
		return ModeIndustrial
	case k.Landmark():
		return LandmarkMode(k)
	default:
		return FacilityMode(k)
	}
}
