package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		name     string
		deg      float64
		units    string
		expected float64
	}{
		{"180 deg to rad", 180, Radians, math.Pi},
		{"90 deg to rad", 90, Radians, math.Pi / 2},
		{"deg unchanged", 123.4, Degrees, 123.4},
		{"unknown units default to deg", 45, "grad", 45},
		{"zero", 0, Radians, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ConvertAngle(tt.deg, tt.units), 1e-12)
		})
	}
}

func TestConvertCoupling(t *testing.T) {
	assert.InDelta(t, 21.58519, ConvertCoupling(21585.19, KHz), 1e-12)
	assert.Equal(t, -12.5, ConvertCoupling(-12.5, Hz))
	assert.Equal(t, 7.0, ConvertCoupling(7, "unknown"))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValidAngle(Degrees))
	assert.True(t, IsValidAngle(Radians))
	assert.False(t, IsValidAngle("DEG"))
	assert.False(t, IsValidAngle(""))

	assert.True(t, IsValidCoupling(Hz))
	assert.True(t, IsValidCoupling(KHz))
	assert.False(t, IsValidCoupling("mhz"))
}

func TestValidUnitsStrings(t *testing.T) {
	assert.Equal(t, "deg, rad", GetValidAngleUnitsString())
	assert.Equal(t, "hz, khz", GetValidCouplingUnitsString())
	assert.Len(t, ValidAngleUnits, 2)
	assert.Len(t, ValidCouplingUnits, 2)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "°", Label(Degrees))
	assert.Equal(t, "rad", Label(Radians))
	assert.Equal(t, "Hz", Label(Hz))
	assert.Equal(t, "kHz", Label(KHz))
	assert.Equal(t, "x", Label("x"))
}
