package orrery

import (
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// forwardAxis is the heading of a rocket whose orientation is (0, 0, 0).
var forwardAxis = []float64{0, 0, 1}

// Rocket is a body which can thrust along its heading while it has fuel.
// Its mass is the dry mass plus the remaining fuel.
type Rocket struct {
	Body
	Orientation   []float64 // pitch, yaw, roll in degrees, each in [0, 360)
	MaxThrust     float64   // N
	FuelBurnRate  float64   // kg/s
	RemainingFuel float64   // kg
	thrustAcc     []float64 // m/s^2, zero when inactive
	thrustActive  bool
	logger        kitlog.Logger
}

// NewRocket returns a new rocket built around the provided body, whose mass must include
// the initial fuel.
func NewRocket(body *Body, orientation []float64, maxThrust, burnRate, fuel float64, logger kitlog.Logger) (*Rocket, error) {
	if body == nil {
		return nil, configErr("rocket", "body", "missing")
	}
	if orientation == nil {
		orientation = []float64{0, 0, 0}
	}
	if len(orientation) != 3 || !finite(orientation...) {
		return nil, configErr(body.Name, "orientation", fmt.Sprintf("expected a finite 3-vector, got %v", orientation))
	}
	switch {
	case !finite(maxThrust) || maxThrust < 0:
		return nil, configErr(body.Name, "max_thrust", fmt.Sprintf("must be non-negative, got %g", maxThrust))
	case !finite(burnRate) || burnRate < 0:
		return nil, configErr(body.Name, "fuel_burn_rate", fmt.Sprintf("must be non-negative, got %g", burnRate))
	case !finite(fuel) || fuel < 0:
		return nil, configErr(body.Name, "initial_fuel", fmt.Sprintf("must be non-negative, got %g", fuel))
	case fuel >= body.Mass:
		return nil, configErr(body.Name, "initial_fuel", fmt.Sprintf("fuel (%g kg) must be less than the total mass (%g kg)", fuel, body.Mass))
	}
	r := &Rocket{
		Body:          *body,
		Orientation:   make([]float64, 3),
		MaxThrust:     maxThrust,
		FuelBurnRate:  burnRate,
		RemainingFuel: fuel,
		thrustAcc:     []float64{0, 0, 0},
		logger:        orNop(logger),
	}
	r.R, r.V = vcopy(body.R), vcopy(body.V)
	if body.trail != nil {
		r.trail = NewTrail(body.trail.Cap())
	}
	for i, θ := range orientation {
		r.Orientation[i] = wrapDegrees(θ)
	}
	return r, nil
}

// ForwardVector returns the unit heading of the rocket: the +Z axis rotated by pitch
// (about X), then yaw (about Y), then roll (about Z).
func (r *Rocket) ForwardVector() []float64 {
	return MxV33(PitchYawRoll(r.Orientation[0], r.Orientation[1], r.Orientation[2]), forwardAxis)
}

// UpdateOrientation adds the provided angles (in degrees) to the orientation.
func (r *Rocket) UpdateOrientation(delta []float64) {
	for i := 0; i < 3 && i < len(delta); i++ {
		r.Orientation[i] = wrapDegrees(r.Orientation[i] + delta[i])
	}
}

// ActivateThrust thrusts along the heading with the provided intensity, clamped to
// [0, 1]. Without fuel, the thrust is cut instead.
func (r *Rocket) ActivateThrust(intensity float64) {
	if r.RemainingFuel <= 0 {
		r.DeactivateThrust()
		return
	}
	if !finite(intensity) {
		intensity = 0
	}
	intensity = math.Max(0, math.Min(1, intensity))
	r.thrustAcc = scaled(r.MaxThrust*intensity/r.Mass, r.ForwardVector())
	r.thrustActive = true
}

// DeactivateThrust cuts the thrust.
func (r *Rocket) DeactivateThrust() {
	r.thrustAcc = []float64{0, 0, 0}
	r.thrustActive = false
}

// UpdateState burns fuel for dt seconds while thrusting and cuts the thrust once the
// tank is empty. The burnt fuel is removed from the rocket mass.
func (r *Rocket) UpdateState(dt float64) {
	if !r.thrustActive || r.RemainingFuel <= 0 {
		r.DeactivateThrust()
		return
	}
	if dt <= 0 {
		return
	}
	burnt := math.Min(r.FuelBurnRate*dt, r.RemainingFuel)
	r.RemainingFuel -= burnt
	r.Mass -= burnt
	if r.RemainingFuel <= 0 {
		r.RemainingFuel = 0
		r.DeactivateThrust()
		level.Error(r.logger).Log("subsys", "prop", "rocket", r.Name, "fuel(kg)", 0, "mass(kg)", r.Mass, "status", "depleted")
	}
}

// ThrustAcceleration returns the current thrust acceleration in m/s^2.
func (r *Rocket) ThrustAcceleration() []float64 {
	return vcopy(r.thrustAcc)
}

// ThrustForce returns the current thrust force in N.
func (r *Rocket) ThrustForce() []float64 {
	return scaled(r.Mass, r.thrustAcc)
}

// ThrustActive returns whether the rocket is currently thrusting.
func (r *Rocket) ThrustActive() bool {
	return r.thrustActive
}

// MaxAcceleration returns the largest thrust acceleration the rocket can currently produce.
func (r *Rocket) MaxAcceleration() float64 {
	return r.MaxThrust / r.Mass
}

// Snapshot implements the Gravitating interface.
func (r *Rocket) Snapshot() BodySnapshot {
	s := r.Body.Snapshot()
	s.Orientation = vcopy(r.Orientation)
	return s
}

// RocketTelemetry is the read-only rocket state exposed to the outer layers.
type RocketTelemetry struct {
	Name          string
	Mass          float64
	RemainingFuel float64
	ThrustActive  bool
	Orientation   []float64
	Heading       []float64
}

// Telemetry returns the current telemetry of the rocket.
func (r *Rocket) Telemetry() RocketTelemetry {
	return RocketTelemetry{
		Name:          r.Name,
		Mass:          r.Mass,
		RemainingFuel: r.RemainingFuel,
		ThrustActive:  r.thrustActive,
		Orientation:   vcopy(r.Orientation),
		Heading:       r.ForwardVector(),
	}
}

// String implements the Stringer interface.
func (r *Rocket) String() string {
	return fmt.Sprintf("%s fuel=%.3f kg thrusting=%v", r.Body.String(), r.RemainingFuel, r.thrustActive)
}
