package mathutil

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Conversions between geographic (degrees), spherical (radians) and
// cartesian (unit 3-vector) coordinates. Theta is the polar angle
// measured from the north pole, phi the azimuth.

// SphericalToCartesian converts polar/azimuth angles to a unit vector
func SphericalToCartesian(theta, phi float64) []float64 {
	return []float64{
		math.Sin(theta) * math.Cos(phi),
		math.Sin(theta) * math.Sin(phi),
		math.Cos(theta),
	}
}

// CartesianToSpherical converts a unit vector to polar/azimuth angles
func CartesianToSpherical(x []float64) (theta, phi float64) {
	return math.Acos(x[2]), math.Atan2(x[1], x[0])
}

// GeographicToSpherical converts latitude/longitude in degrees to
// polar/azimuth angles in radians
func GeographicToSpherical(lat, lon float64) (theta, phi float64) {
	return (lat/-180 + 0.5) * math.Pi, (lon / 180) * math.Pi
}

// SphericalToGeographic converts polar/azimuth angles back to
// latitude/longitude in degrees
func SphericalToGeographic(theta, phi float64) (lat, lon float64) {
	return (theta/-math.Pi)*180 + 90, (phi / math.Pi) * 180
}

// GeographicToCartesian converts latitude/longitude in degrees to a
// unit vector on the sphere
func GeographicToCartesian(lat, lon float64) []float64 {
	theta, phi := GeographicToSpherical(lat, lon)
	return SphericalToCartesian(theta, phi)
}

// CartesianToGeographic converts a unit vector to latitude/longitude
func CartesianToGeographic(x []float64) (lat, lon float64) {
	theta, phi := CartesianToSpherical(x)
	return SphericalToGeographic(theta, phi)
}

// Normalize returns mu scaled to unit length
func Normalize(mu []float64) []float64 {
	out := make([]float64, len(mu))
	copy(out, mu)
	nrm := floats.Norm(out, 2)
	if nrm > 0 {
		floats.Scale(1/nrm, out)
	}
	return out
}

// VMFDensity evaluates the von Mises-Fisher density of unit vector x
// under mean direction mu and concentration kappa. The large-kappa
// branch avoids overflow in sinh.
func VMFDensity(x, mu []float64, kappa float64) float64 {
	dot := floats.Dot(x, mu)
	if kappa > 5 {
		return 0.5 * kappa / math.Pi * math.Exp(kappa*dot-kappa)
	}
	return kappa * math.Exp(kappa*dot) / (4 * math.Pi * math.Sinh(kappa))
}

// LogVMFConstant is the log normalization constant of the density
func LogVMFConstant(kappa float64) float64 {
	if kappa > 5 {
		return math.Log(0.5*kappa/math.Pi) - kappa
	}
	return math.Log(kappa / (4 * math.Pi * math.Sinh(kappa)))
}

// LogVMFDensity is the log of VMFDensity
func LogVMFDensity(x, mu []float64, kappa float64) float64 {
	return LogVMFConstant(kappa) + kappa*floats.Dot(x, mu)
}

// ProportionalVMFDensity drops the normalization constant; enough for
// the categorical draws where kappa is shared across candidates
func ProportionalVMFDensity(x, mu []float64, kappa float64) float64 {
	return math.Exp(kappa * floats.Dot(x, mu))
}
