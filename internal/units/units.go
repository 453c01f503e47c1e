// Package units classifies measurement units and converts quantities between
// them using stored conversion rules.
package units

// Dimension is the physical dimension a unit belongs to. Units outside the
// fixed mass/volume vocabulary are opaque: they are compared for equality
// only and never converted.
type Dimension int

const (
	DimensionNone Dimension = iota
	DimensionMass
	DimensionVolume
)

func (d Dimension) String() string {
	switch d {
	case DimensionMass:
		return "mass"
	case DimensionVolume:
		return "volume"
	default:
		return "none"
	}
}

// Canonical base units per measurable dimension. Final reports normalize
// measurable quantities to these.
const (
	BaseMassUnit   = "克"
	BaseVolumeUnit = "毫升"
)

var dimensions = map[string]Dimension{
	"克":  DimensionMass,
	"公克": DimensionMass,
	"公斤": DimensionMass,
	"g":  DimensionMass,
	"kg": DimensionMass,

	"毫升": DimensionVolume,
	"公升": DimensionVolume,
	"ml": DimensionVolume,
	"L":  DimensionVolume,
}

// Classify reports the physical dimension of a unit token. Count-like units
// (個, 包, 份, ...) classify as DimensionNone.
func Classify(unit string) Dimension {
	return dimensions[unit]
}

// BaseUnit returns the canonical base unit for a measurable dimension.
func BaseUnit(d Dimension) (string, bool) {
	switch d {
	case DimensionMass:
		return BaseMassUnit, true
	case DimensionVolume:
		return BaseVolumeUnit, true
	default:
		return "", false
	}
}

// Convertible reports whether a unit is eligible for rate-based conversion.
func Convertible(unit string) bool {
	return Classify(unit) != DimensionNone
}
