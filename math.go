package orrery

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	deg2rad = math.Pi / 180
)

// norm returns the norm of a given vector which is supposed to be 3x1.
func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Norm returns the norm of a given 3x1 vector.
func Norm(v []float64) float64 {
	return norm(v)
}

// unit returns the unit vector of a given vector.
func unit(a []float64) (b []float64) {
	n := norm(a)
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return []float64{0, 0, 0}
	}
	b = make([]float64, len(a))
	for i, val := range a {
		b[i] = val / n
	}
	return
}

// dot performs the inner product via mat64/BLAS.
func dot(a, b []float64) float64 {
	return mat64.Dot(mat64.NewVector(len(a), a), mat64.NewVector(len(b), b))
}

// cross performs the cross product.
func cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

// sub returns a-b as a new vector.
func sub(a, b []float64) []float64 {
	c := make([]float64, len(a))
	floats.SubTo(c, a, b)
	return c
}

// scaled returns s*a as a new vector.
func scaled(s float64, a []float64) []float64 {
	c := make([]float64, len(a))
	copy(c, a)
	floats.Scale(s, c)
	return c
}

// vcopy returns a copy of a, or a zero 3-vector if a is nil.
func vcopy(a []float64) []float64 {
	if a == nil {
		return []float64{0, 0, 0}
	}
	c := make([]float64, len(a))
	copy(c, a)
	return c
}

// finite returns whether every component of v is neither NaN nor infinite.
func finite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// distance returns |b-a|.
func distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// angleBetween returns the angle in radians between two unit vectors. The dot
// product is clamped to [-1, 1] so rounding never yields NaN.
func angleBetween(a, b []float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, dot(a, b))))
}

// wrapDegrees maps an angle in degrees onto [0, 360).
func wrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 { // -tiny + 360 rounds to 360
		a = 0
	}
	return a
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}
