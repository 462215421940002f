package orrery

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/gonum/floats"
)

const angleε = 1e-9

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		if !floats.EqualWithinAbsOrRel(a[i], b[i], 1e-9, 1e-9) {
			return false
		}
	}
	return true
}

// anglesEqual returns whether two angles in radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε || 2*math.Pi-diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", math.Abs(Rad2deg(diff)))
}

func assertConfigurationError(t *testing.T, err error) *ConfigurationError {
	t.Helper()
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
	return cerr
}

func newTestBody(t *testing.T, name string, mass float64, R, V []float64) *Body {
	t.Helper()
	b, err := NewBody(name, mass, 1, R, V)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// newTestRocket returns a 1000 kg rocket (100 kg of fuel) at R with a 10 kN engine
// burning 10 kg/s, heading +Z.
func newTestRocket(t *testing.T, R, V []float64) *Rocket {
	t.Helper()
	r, err := NewRocket(newTestBody(t, "rocket", 1000, R, V), nil, 1e4, 10, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}
