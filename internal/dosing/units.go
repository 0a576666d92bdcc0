package dosing

import (
	"math"
	"strings"
)

// Unit is the unit a tank volume is entered in.
type Unit string

const (
	UnitLitres    Unit = "L"
	UnitUSGallons Unit = "US"
	UnitUKGallons Unit = "UK"
)

// Units lists the supported volume units in display order.
func Units() []Unit {
	return []Unit{UnitLitres, UnitUSGallons, UnitUKGallons}
}

// ParseUnit maps user input to a Unit. The second return value is false for
// unrecognized input.
func ParseUnit(s string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "litre", "litres", "liter", "liters":
		return UnitLitres, true
	case "us", "gal", "usgal", "us-gallons", "us_gallons":
		return UnitUSGallons, true
	case "uk", "imp", "ukgal", "uk-gallons", "uk_gallons":
		return UnitUKGallons, true
	default:
		return "", false
	}
}

// ToLitres converts volume in unit to litres. Unknown units are taken to be
// litres already.
func ToLitres(volume float64, unit Unit, c Coefficients) float64 {
	switch unit {
	case UnitUSGallons:
		return volume * c.USGallonLitres
	case UnitUKGallons:
		return volume * c.UKGallonLitres
	default:
		return volume
	}
}

// FromLitres is the inverse of ToLitres.
func FromLitres(litres float64, unit Unit, c Coefficients) float64 {
	switch unit {
	case UnitUSGallons:
		return litres / c.USGallonLitres
	case UnitUKGallons:
		return litres / c.UKGallonLitres
	default:
		return litres
	}
}

// PPMToDegrees converts a ppm (CaCO3 equivalent) reading to degrees of
// hardness. Non-positive and non-finite readings convert to 0.
func PPMToDegrees(ppm float64, c Coefficients) float64 {
	if !(ppm > 0) || math.IsInf(ppm, 0) {
		return 0
	}
	return ppm / c.PPMPerDegree
}
