package activities

import (
	"strconv"
	"strings"
)

// SemicirclesToDegrees converts the FIT native angular unit to degrees.
// 1 semicircle = 180 / 2^31 degrees.
func SemicirclesToDegrees(v int32) float64 {
	return float64(v) * 180 / (1 << 31)
}

// MsToKmh converts meters per second to kilometers per hour.
func MsToKmh(v float64) float64 {
	return v * 3.6
}

// MetersToKm converts meters to kilometers.
func MetersToKm(v float64) float64 {
	return v / 1000
}

// ParseLocaleFloat parses a numeric string that may use a comma as the
// decimal separator ("12,34"). Non-numeric or empty input yields 0.0,
// so a bad cell never pushes NaN into the aggregations.
func ParseLocaleFloat(text string) float64 {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if text == "" {
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return v
}
