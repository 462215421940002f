package orrery

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestNewController(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	if _, err := NewController(r, nil); err == nil {
		t.Fatal("a controller without destination should be rejected")
	}
	if _, err := NewController(nil, r.Physical()); err == nil {
		t.Fatal("a controller without rocket should be rejected")
	}
	dest := newTestBody(t, "dest", 1, []float64{0, 0, 0}, []float64{0, 0, 0})
	c, err := NewController(r, dest, WithGains(1, 2), WithRotationRate(3))
	if err != nil {
		t.Fatal(err)
	}
	if c.KpPosition != 1 || c.KpVelocity != 2 || c.RotationRate != 3 || c.Destination() != dest {
		t.Fatalf("options not applied: %+v", c)
	}
}

func TestControllerAtRest(t *testing.T) {
	r := newTestRocket(t, []float64{1e9, 2e9, 3e9}, []float64{10, 20, 30})
	dest := newTestBody(t, "dest", 1e20, []float64{1e9, 2e9, 3e9}, []float64{10, 20, 30})
	c, _ := NewController(r, dest)
	r.ActivateThrust(1)
	c.Step(60)
	if r.ThrustActive() {
		t.Fatal("no thrust must be issued when the rocket matches the destination")
	}
	if !vectorsEqual(r.Orientation, []float64{0, 0, 0}) {
		t.Fatalf("orientation changed: %v", r.Orientation)
	}
}

func TestControllerFullThrustAhead(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	dest := newTestBody(t, "dest", 1e20, []float64{0, 0, 1e12}, []float64{0, 0, 0})
	c, _ := NewController(r, dest)
	acc := c.DesiredAcceleration()
	if !floats.EqualWithinRel(norm(acc), r.MaxAcceleration(), 1e-12) {
		t.Fatalf("the desired acceleration must be clamped to %f, got %f", r.MaxAcceleration(), norm(acc))
	}
	c.Step(1)
	if !r.ThrustActive() {
		t.Fatal("the rocket must thrust toward a destination ahead")
	}
	if !floats.EqualApprox(r.ThrustAcceleration(), []float64{0, 0, r.MaxAcceleration()}, 1e-9) {
		t.Fatalf("expected full thrust along +Z, got %v", r.ThrustAcceleration())
	}
	if !vectorsEqual(r.Orientation, []float64{0, 0, 0}) {
		t.Fatal("an aligned rocket must not turn")
	}
}

func TestControllerSteering(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	dest := newTestBody(t, "dest", 1e20, []float64{1e12, 0, 0}, []float64{0, 0, 0})
	c, _ := NewController(r, dest)
	before := angleBetween(r.ForwardVector(), []float64{1, 0, 0})
	c.Step(2)
	// The rotation axis is +Z × +X = +Y: the yaw increases by rate·dt.
	if !vectorsEqual(r.Orientation, []float64{0, 2, 0}) {
		t.Fatalf("invalid orientation %v", r.Orientation)
	}
	after := angleBetween(r.ForwardVector(), []float64{1, 0, 0})
	if !floats.EqualWithinAbs(before-after, 2*deg2rad, 1e-9) {
		t.Fatalf("the heading error must decrease by 2°, went from %f to %f", before/deg2rad, after/deg2rad)
	}
}

func TestControllerProportionalIntensity(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	// 1e4 m away: desired velocity of 1 m/s, desired acceleration of 0.01 m/s^2.
	dest := newTestBody(t, "dest", 1e20, []float64{0, 0, 1e4}, []float64{0, 0, 0})
	c, _ := NewController(r, dest)
	c.Step(1)
	if !floats.EqualWithinRel(norm(r.ThrustAcceleration()), 0.01, 1e-9) {
		t.Fatalf("expected a thrust acceleration of 0.01 m/s^2, got %v", r.ThrustAcceleration())
	}
}

func TestControllerNoEngine(t *testing.T) {
	body := newTestBody(t, "glider", 1000, []float64{0, 0, 0}, []float64{0, 0, 0})
	r, err := NewRocket(body, nil, 0, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	dest := newTestBody(t, "dest", 1e20, []float64{0, 0, 1e12}, []float64{0, 0, 0})
	c, _ := NewController(r, dest)
	if acc := c.DesiredAcceleration(); norm(acc) != 0 || !finite(acc...) {
		t.Fatalf("a rocket without engine cannot accelerate, got %v", acc)
	}
	c.Step(1)
	if r.ThrustActive() {
		t.Fatal("a rocket without engine cannot thrust")
	}
}

func TestControllerNeverExceedsMaxAcceleration(t *testing.T) {
	r := newTestRocket(t, []float64{0, 0, 0}, []float64{0, 0, 0})
	dest := newTestBody(t, "dest", 1e20, []float64{0, 0, 0}, []float64{0, 0, 0})
	c, _ := NewController(r, dest)
	for _, d := range []float64{1, 1e3, 1e6, 1e9, 1e12} {
		dest.R = []float64{d, -d / 2, d / 3}
		dest.V = []float64{math.Sqrt(d), 0, 0}
		if n := norm(c.DesiredAcceleration()); n > r.MaxAcceleration()*(1+1e-12) {
			t.Fatalf("desired acceleration %f exceeds %f", n, r.MaxAcceleration())
		}
	}
}

func TestControllerMatchesMovingDestination(t *testing.T) {
	r := newTestRocket(t, []float64{5e9, 0, 0}, []float64{0, 0, 0})
	dest := newTestBody(t, "dest", 1e20, []float64{5e9, 0, 0}, []float64{0, 0, 10})
	c, _ := NewController(r, dest)
	// Only the relative velocity is corrected: 10 m/s behind gives 0.1 m/s^2 along +Z.
	if acc := c.DesiredAcceleration(); !floats.EqualApprox(acc, []float64{0, 0, 0.1}, 1e-12) {
		t.Fatalf("expected to catch up with the destination, got %v", acc)
	}
	r.V = []float64{0, 0, 10}
	c.Step(1)
	if r.ThrustActive() {
		t.Fatal("a rocket co-moving with its destination must coast")
	}
}
