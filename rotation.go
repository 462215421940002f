package orrery

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 rotation about the 2nd axis.
func R2(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m *mat64.Dense, v []float64) (o []float64) {
	vVec := mat64.NewVector(len(v), v)
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// PitchYawRoll returns the active rotation Rz(roll)·Ry(yaw)·Rx(pitch), i.e. pitch is
// applied first, then yaw, then roll. Angles are in degrees.
// R1, R2 and R3 are frame (passive) rotations, hence the negated angles.
func PitchYawRoll(pitch, yaw, roll float64) *mat64.Dense {
	var yx, zyx mat64.Dense
	yx.Mul(R2(-yaw*deg2rad), R1(-pitch*deg2rad))
	zyx.Mul(R3(-roll*deg2rad), &yx)
	return &zyx
}

// Incline rotates the provided vector about the X axis by i degrees.
func Incline(v []float64, i float64) []float64 {
	return MxV33(R1(-Deg2rad(i)), v)
}
