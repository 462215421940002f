package orrery

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/gonum/floats"
)

func TestNewRocketValidation(t *testing.T) {
	body := newTestBody(t, "r", 1000, []float64{0, 0, 0}, []float64{0, 0, 0})
	for _, tc := range []struct {
		orientation        []float64
		thrust, rate, fuel float64
		field              string
	}{
		{[]float64{0, 0}, 1, 1, 1, "orientation"},
		{nil, -1, 1, 1, "max_thrust"},
		{nil, 1, math.NaN(), 1, "fuel_burn_rate"},
		{nil, 1, 1, -1, "initial_fuel"},
		{nil, 1, 1, 1000, "initial_fuel"},
	} {
		_, err := NewRocket(body, tc.orientation, tc.thrust, tc.rate, tc.fuel, nil)
		if cerr := assertConfigurationError(t, err); cerr.Field != tc.field {
			t.Fatalf("expected field %s, got %s", tc.field, cerr.Field)
		}
	}
	if _, err := NewRocket(nil, nil, 1, 1, 1, nil); err == nil {
		t.Fatal("a rocket needs a body")
	}
}

func TestNewRocketCopiesBody(t *testing.T) {
	body := newTestBody(t, "r", 1000, []float64{1, 2, 3}, []float64{4, 5, 6})
	r, err := NewRocket(body, []float64{370, -10, 0}, 1, 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.UpdatePosition(1)
	if body.R[0] != 1 || body.trail.Len() != 0 {
		t.Fatal("the rocket shares its state with the body it was built from")
	}
	if !vectorsEqual(r.Orientation, []float64{10, 350, 0}) {
		t.Fatalf("orientation not wrapped: %v", r.Orientation)
	}
}

func TestRocketForwardVector(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	if !floats.EqualApprox(r.ForwardVector(), []float64{0, 0, 1}, 1e-12) {
		t.Fatalf("a rocket without orientation heads +Z, got %v", r.ForwardVector())
	}
	r.UpdateOrientation([]float64{0, 90, 0})
	if !floats.EqualApprox(r.ForwardVector(), []float64{1, 0, 0}, 1e-12) {
		t.Fatalf("yawing 90° heads +X, got %v", r.ForwardVector())
	}
	r.UpdateOrientation([]float64{-10, 280, 725})
	if !vectorsEqual(r.Orientation, []float64{350, 10, 5}) {
		t.Fatalf("orientation must wrap into [0, 360): %v", r.Orientation)
	}
	if !floats.EqualWithinAbs(norm(r.ForwardVector()), 1, 1e-12) {
		t.Fatal("the heading must be a unit vector")
	}
}

func TestRocketThrust(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	if r.ThrustActive() || norm(r.ThrustAcceleration()) != 0 {
		t.Fatal("a new rocket must not thrust")
	}
	r.ActivateThrust(0.5)
	if !r.ThrustActive() || !vectorsEqual(r.ThrustAcceleration(), []float64{0, 0, 5}) {
		t.Fatalf("half thrust of 10 kN on 1 t is 5 m/s^2 along +Z, got %v", r.ThrustAcceleration())
	}
	if !vectorsEqual(r.ThrustForce(), []float64{0, 0, 5000}) {
		t.Fatalf("invalid thrust force %v", r.ThrustForce())
	}
	r.ActivateThrust(3)
	if !floats.EqualWithinRel(norm(r.ThrustAcceleration()), r.MaxAcceleration(), 1e-12) {
		t.Fatal("intensity above 1 must be clamped")
	}
	r.ActivateThrust(-1)
	if norm(r.ThrustAcceleration()) != 0 {
		t.Fatal("intensity below 0 must be clamped")
	}
	r.DeactivateThrust()
	if r.ThrustActive() || norm(r.ThrustAcceleration()) != 0 {
		t.Fatal("thrust not deactivated")
	}
}

func TestRocketFuel(t *testing.T) {
	var buf bytes.Buffer
	body := newTestBody(t, "Explorer", 1000, []float64{0, 0, 0}, []float64{0, 0, 0})
	r, err := NewRocket(body, nil, 1e4, 10, 100, NewLogger(&buf, "test", "info"))
	if err != nil {
		t.Fatal(err)
	}
	// No fuel is burnt while coasting.
	r.UpdateState(10)
	if r.RemainingFuel != 100 || r.Mass != 1000 {
		t.Fatal("fuel burnt without thrusting")
	}
	r.ActivateThrust(1)
	prev := r.RemainingFuel
	for i := 0; i < 3; i++ {
		r.UpdateState(4)
		if r.RemainingFuel > prev || r.RemainingFuel < 0 {
			t.Fatalf("fuel must decrease monotonically and stay non-negative: %f -> %f", prev, r.RemainingFuel)
		}
		if !floats.EqualWithinAbs(r.Mass, 900+r.RemainingFuel, 1e-9) {
			t.Fatalf("the burnt fuel must be removed from the mass: %f", r.Mass)
		}
		prev = r.RemainingFuel
	}
	if r.RemainingFuel != 0 {
		t.Fatalf("expected an empty tank, got %f", r.RemainingFuel)
	}
	if r.ThrustActive() || norm(r.ThrustAcceleration()) != 0 {
		t.Fatal("thrust must be cut once the tank is empty")
	}
	if !strings.Contains(buf.String(), "status=depleted") {
		t.Fatalf("depletion not logged: %s", buf.String())
	}
	r.ActivateThrust(1)
	if r.ThrustActive() {
		t.Fatal("a rocket without fuel cannot thrust")
	}
}

func TestRocketTelemetry(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	r.ActivateThrust(1)
	tm := r.Telemetry()
	if tm.Name != "rocket" || tm.Mass != 1000 || tm.RemainingFuel != 100 || !tm.ThrustActive {
		t.Fatalf("invalid telemetry %+v", tm)
	}
	if s := r.Snapshot(); len(s.Orientation) != 3 {
		t.Fatal("rocket snapshots carry the orientation")
	}
	var obj Gravitating = r
	if obj.Physical() != &r.Body {
		t.Fatal("the rocket body must be the physical state")
	}
}
