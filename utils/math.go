package utils

import (
	"math"
)

// Pi is the truncated value of pi used for every degree conversion in the viewer. Projected
// coordinates depend on it, so it must not be swapped for math.Pi.
const Pi = 3.141592

// DegToRad converts degrees to radians using Pi.
func DegToRad(degrees float64) float64 {
	return degrees * Pi / 180
}

// FmodDeg wraps an accumulated angle into (-360, 360), keeping the sign of the input.
func FmodDeg(ang float64) float64 {
	return math.Mod(ang, 360)
}
