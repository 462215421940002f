package orrery

import (
	"fmt"
	"math"
)

// PeriapsisState returns the position and velocity at periapsis of an orbit with
// semi-major axis a (m), eccentricity e and inclination i (degrees) about a central
// mass (kg). This is a closed-form seed (true anomaly of zero), not a Kepler solve:
// r = a(1-e) along X and v = sqrt(G·M(1+e)/(a(1-e))) along Y, both inclined about X.
func PeriapsisState(a, e, i, centralMass, g float64) (R, V []float64, err error) {
	switch {
	case !finite(a) || a <= 0:
		return nil, nil, fmt.Errorf("semi-major axis must be positive, got %g", a)
	case !finite(e) || e < 0 || e >= 1:
		return nil, nil, fmt.Errorf("eccentricity must be in [0, 1), got %g", e)
	case !finite(i):
		return nil, nil, fmt.Errorf("inclination must be finite, got %g", i)
	case !finite(centralMass) || centralMass <= 0:
		return nil, nil, fmt.Errorf("central mass must be positive, got %g", centralMass)
	}
	rp := a * (1 - e)
	vp := math.Sqrt(g * centralMass * (1 + e) / rp)
	R = Incline([]float64{rp, 0, 0}, i)
	V = Incline([]float64{0, vp, 0}, i)
	return R, V, nil
}

// NewBodyFromOE returns a new body seeded at the periapsis of the provided orbit
// around a central mass located at the origin.
func NewBodyFromOE(name string, mass, radius, a, e, i, centralMass float64, opts ...BodyOption) (*Body, error) {
	R, V, err := PeriapsisState(a, e, i, centralMass, G)
	if err != nil {
		return nil, &ConfigurationError{Subject: name, Field: "orbit", Err: err}
	}
	return NewBody(name, mass, radius, R, V, opts...)
}

// CircularSpeed returns the speed of a circular orbit of radius r about mass M.
func CircularSpeed(M, r float64) float64 {
	return math.Sqrt(G * M / r)
}

// CircularPeriod returns the period in seconds of a circular orbit of radius r about
// mass M, accounting for the orbiting mass m.
func CircularPeriod(M, m, r float64) float64 {
	return 2 * math.Pi * math.Sqrt(r*r*r/(G*(M+m)))
}
