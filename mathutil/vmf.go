package mathutil

import (
	"math"
	"math/rand"
)

// UniformSphere draws a point uniformly on the unit sphere
func UniformSphere(rng *rand.Rand) []float64 {
	z := rng.Float64()*2 - 1
	t := rng.Float64() * 2 * math.Pi
	z2 := math.Sqrt(1 - z*z)
	return []float64{z2 * math.Cos(t), z2 * math.Sin(t), z}
}

// VMF draws a unit vector from the von Mises-Fisher distribution with
// mean direction mu and concentration kappa. The height coordinate
// comes from the closed-form inverse CDF of the marginal, the azimuth
// is uniform, and the local-frame point is rotated into mu's frame.
func VMF(rng *rand.Rand, mu []float64, kappa float64) []float64 {
	theta, phi := CartesianToSpherical(mu)

	y := rng.Float64()
	w := math.Log(math.Exp(-kappa)+2*y*math.Sinh(kappa)) / kappa
	if w > 1 {
		w = 1
	} else if w < -1 {
		w = -1
	}
	v := 2 * math.Pi * rng.Float64()

	s := math.Sqrt(1 - w*w)
	local := []float64{s * math.Cos(v), s * math.Sin(v), w}
	return rotate(local, theta, phi)
}

// rotate a 3-vector around the y axis by theta and then around the z
// axis by phi (right handed frame). Maps the north pole to the unit
// vector with polar angle theta and azimuth phi.
func rotate(vec []float64, theta, phi float64) []float64 {
	st, ct := math.Sin(theta), math.Cos(theta)
	sp, cp := math.Sin(phi), math.Cos(phi)
	x, y, z := vec[0], vec[1], vec[2]
	xt := x*ct + z*st
	return []float64{
		xt*cp - y*sp,
		xt*sp + y*cp,
		-x*st + z*ct,
	}
}
