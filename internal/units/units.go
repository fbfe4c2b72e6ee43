// Package units provides shared constants and validation for the angle and
// coupling units used in reports.
package units

import "math"

// Angle unit constants
const (
	Degrees = "deg"
	Radians = "rad"
)

// Coupling unit constants
const (
	Hz  = "hz"
	KHz = "khz"
)

// ValidAngleUnits contains all valid angle unit values
var ValidAngleUnits = []string{Degrees, Radians}

// ValidCouplingUnits contains all valid coupling unit values
var ValidCouplingUnits = []string{Hz, KHz}

// IsValidAngle checks if the given unit is a valid angle unit
func IsValidAngle(unit string) bool {
	return contains(ValidAngleUnits, unit)
}

// IsValidCoupling checks if the given unit is a valid coupling unit
func IsValidCoupling(unit string) bool {
	return contains(ValidCouplingUnits, unit)
}

// GetValidAngleUnitsString returns a comma-separated string of valid angle
// units for error messages
func GetValidAngleUnitsString() string {
	return "deg, rad"
}

// GetValidCouplingUnitsString returns a comma-separated string of valid
// coupling units for error messages
func GetValidCouplingUnitsString() string {
	return "hz, khz"
}

// ConvertAngle converts an angle from degrees to the target units.
// Euler angles are computed in degrees.
func ConvertAngle(deg float64, targetUnits string) float64 {
	switch targetUnits {
	case Radians:
		return deg * math.Pi / 180
	default:
		return deg // default to degrees if unknown unit
	}
}

// ConvertCoupling converts a coupling from Hz to the target units.
func ConvertCoupling(hz float64, targetUnits string) float64 {
	switch targetUnits {
	case KHz:
		return hz / 1000
	default:
		return hz
	}
}

// Label returns the display suffix for a unit.
func Label(unit string) string {
	switch unit {
	case Degrees:
		return "°"
	case Radians:
		return "rad"
	case Hz:
		return "Hz"
	case KHz:
		return "kHz"
	default:
		return unit
	}
}

func contains(list []string, v string) bool {
	for _, u := range list {
		if u == v {
			return true
		}
	}
	return false
}
