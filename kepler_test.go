package orrery

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

const (
	sunMass   = 1.989e30
	earthMass = 5.972e24
	au        = 1.496e11
)

func TestPeriapsisState(t *testing.T) {
	R, V, err := PeriapsisState(au, 0.0167, 0, sunMass, G)
	if err != nil {
		t.Fatal(err)
	}
	rp := au * (1 - 0.0167)
	if !vectorsEqual(R, []float64{rp, 0, 0}) {
		t.Fatalf("invalid periapsis position %v", R)
	}
	vp := math.Sqrt(G * sunMass * (1 + 0.0167) / rp)
	if !vectorsEqual(V, []float64{0, vp, 0}) {
		t.Fatalf("invalid periapsis velocity %v", V)
	}
	// Circular orbits move at the circular speed.
	_, V, _ = PeriapsisState(au, 0, 0, sunMass, G)
	if !floats.EqualWithinRel(norm(V), CircularSpeed(sunMass, au), 1e-12) {
		t.Fatal("circular orbit not at circular speed")
	}
}

func TestPeriapsisStateInclined(t *testing.T) {
	R, V, err := PeriapsisState(au, 0.1, 90, sunMass, G)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(R[1], 0, 1e-3) || !floats.EqualWithinAbs(R[2], 0, 1e-3) {
		t.Fatalf("the periapsis lies on the X axis: %v", R)
	}
	if !floats.EqualWithinAbs(V[1], 0, 1e-9) || V[2] <= 0 {
		t.Fatalf("a polar orbit moves along Z at periapsis: %v", V)
	}
}

func TestPeriapsisStateErrors(t *testing.T) {
	for _, tc := range [][4]float64{
		{0, 0, 0, sunMass},
		{-au, 0, 0, sunMass},
		{au, 1, 0, sunMass},
		{au, -0.1, 0, sunMass},
		{au, 0, math.NaN(), sunMass},
		{au, 0, 0, 0},
	} {
		if _, _, err := PeriapsisState(tc[0], tc[1], tc[2], tc[3], G); err == nil {
			t.Fatalf("%v should be rejected", tc)
		}
	}
	_, err := NewBodyFromOE("Earth", earthMass, 1, au, 0, 0, 0)
	if cerr := assertConfigurationError(t, err); cerr.Field != "orbit" || cerr.Subject != "Earth" {
		t.Fatalf("invalid error %s", cerr)
	}
}

func TestCircularPeriod(t *testing.T) {
	year := CircularPeriod(sunMass, earthMass, au)
	if days := year / 86400; days < 365 || days > 366 {
		t.Fatalf("one astronomical unit is reached in %f days", days)
	}
}
