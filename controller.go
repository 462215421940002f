package orrery

import (
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

const (
	// DefaultKpPosition is the proportional gain from position error to desired velocity (1/s).
	DefaultKpPosition = 1e-4
	// DefaultKpVelocity is the proportional gain from velocity error to desired acceleration (1/s).
	DefaultKpVelocity = 1e-2
	// DefaultRotationRate is the slew rate of the controller in degrees per second.
	DefaultRotationRate = 1.0
)

// Controller is a closed-loop proportional autopilot: the position error sets a
// desired velocity, whose error sets a desired acceleration, which the rocket follows by
// slewing toward it and thrusting proportionally. It has no internal state.
type Controller struct {
	KpPosition   float64
	KpVelocity   float64
	RotationRate float64 // deg/s
	rocket       *Rocket
	destination  *Body
	logger       kitlog.Logger
}

// ControllerOption customizes a controller.
type ControllerOption func(*Controller)

// WithGains sets the position and velocity gains.
func WithGains(kpPosition, kpVelocity float64) ControllerOption {
	return func(c *Controller) {
		c.KpPosition = kpPosition
		c.KpVelocity = kpVelocity
	}
}

// WithRotationRate sets the slew rate in degrees per second.
func WithRotationRate(rate float64) ControllerOption {
	return func(c *Controller) { c.RotationRate = rate }
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l kitlog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = orNop(l) }
}

// NewController returns a controller flying the rocket toward the destination.
func NewController(rocket *Rocket, destination *Body, opts ...ControllerOption) (*Controller, error) {
	if rocket == nil {
		return nil, configErr("controller", "rocket", "missing")
	}
	if destination == nil {
		return nil, configErr(rocket.Name, "destination", "the controller requires a destination")
	}
	c := &Controller{
		KpPosition:   DefaultKpPosition,
		KpVelocity:   DefaultKpVelocity,
		RotationRate: DefaultRotationRate,
		rocket:       rocket,
		destination:  destination,
		logger:       kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Destination returns the body the controller flies to.
func (c *Controller) Destination() *Body {
	return c.destination
}

// DesiredAcceleration returns the acceleration the rocket should produce, limited to
// what its engine can deliver at its current mass. Velocities are matched relative to
// the destination, which keeps moving along its own orbit.
func (c *Controller) DesiredAcceleration() []float64 {
	posErr := sub(c.destination.R, c.rocket.R)
	velErr := sub(scaled(c.KpPosition, posErr), sub(c.rocket.V, c.destination.V))
	acc := scaled(c.KpVelocity, velErr)
	maxAcc := c.rocket.MaxAcceleration()
	if n := norm(acc); n > maxAcc {
		if maxAcc == 0 {
			return []float64{0, 0, 0}
		}
		acc = scaled(maxAcc/n, acc)
	}
	return acc
}

// Step runs the control loop once.
func (c *Controller) Step(dt float64) {
	acc := c.DesiredAcceleration()
	mag := norm(acc)
	heading := c.rocket.ForwardVector()
	desired := heading
	if mag > 0 {
		desired = scaled(1/mag, acc)
	}
	θ := c.steer(heading, desired, dt)

	maxAcc := c.rocket.MaxAcceleration()
	if mag == 0 || maxAcc == 0 {
		c.rocket.DeactivateThrust()
		level.Debug(c.logger).Log("subsys", "guidance", "status", "coast", "heading_error(deg)", Rad2deg(θ))
		return
	}
	intensity := mag / maxAcc
	c.rocket.ActivateThrust(intensity)
	level.Debug(c.logger).Log("subsys", "guidance", "status", "thrust", "intensity", intensity, "heading_error(deg)", Rad2deg(θ))
}

// steer slews the rocket toward the desired heading at the configured rate and returns
// the heading error in radians. Parallel or anti-parallel headings have no unique
// rotation axis and are left untouched.
func (c *Controller) steer(heading, desired []float64, dt float64) float64 {
	θ := angleBetween(heading, desired)
	axis := cross(heading, desired)
	if norm(axis) > 0 {
		c.rocket.UpdateOrientation(scaled(c.RotationRate*dt, unit(axis)))
	}
	return θ
}
