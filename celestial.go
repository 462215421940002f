package orrery

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// G is the universal gravitational constant in m^3 kg^-1 s^-2.
	G = 6.67430e-11
)

// DefaultColor is used for bodies whose color is not specified.
var DefaultColor = colorful.Color{R: 200 / 255., G: 200 / 255., B: 1}

// Gravitating is anything the engine can advance: plain bodies and rockets.
type Gravitating interface {
	Physical() *Body
	Snapshot() BodySnapshot
}

// Body defines a gravitating point mass (planet, star, moon...).
// Note: the name is not required to be unique, use the ID to tell bodies apart.
type Body struct {
	ID            uuid.UUID
	Name          string
	Mass          float64   // kg
	R             []float64 // position in m
	V             []float64 // velocity in m/s
	Radius        float64   // m, only used for rendering and tolerances
	Color         colorful.Color
	ScaleFactor   float64
	RotationRate  float64 // deg/s about the body's own axis
	RotationAngle float64 // deg in [0, 360)
	trail         *Trail
}

// BodyOption customizes a body at construction.
type BodyOption func(*Body)

// WithColor sets the rendering color.
func WithColor(c colorful.Color) BodyOption {
	return func(b *Body) { b.Color = c }
}

// WithScaleFactor sets the rendering scale factor.
func WithScaleFactor(f float64) BodyOption {
	return func(b *Body) { b.ScaleFactor = f }
}

// WithSpinRate sets the spin rate in degrees per second.
func WithSpinRate(rate float64) BodyOption {
	return func(b *Body) { b.RotationRate = rate }
}

// WithTrailLength sets the maximum number of trail points.
func WithTrailLength(n int) BodyOption {
	return func(b *Body) { b.trail = NewTrail(n) }
}

// NewBody returns a new body from its position and velocity.
func NewBody(name string, mass, radius float64, R, V []float64, opts ...BodyOption) (*Body, error) {
	if !finite(mass) || mass <= 0 {
		return nil, configErr(name, "mass", fmt.Sprintf("must be finite and positive, got %g", mass))
	}
	if !finite(radius) || radius < 0 {
		return nil, configErr(name, "radius", fmt.Sprintf("must be finite and non-negative, got %g", radius))
	}
	if len(R) != 3 || !finite(R...) {
		return nil, configErr(name, "position", fmt.Sprintf("expected a finite 3-vector, got %v", R))
	}
	if len(V) != 3 || !finite(V...) {
		return nil, configErr(name, "velocity", fmt.Sprintf("expected a finite 3-vector, got %v", V))
	}
	b := &Body{
		ID:          uuid.New(),
		Name:        name,
		Mass:        mass,
		R:           vcopy(R),
		V:           vcopy(V),
		Radius:      radius,
		Color:       DefaultColor,
		ScaleFactor: 1,
		trail:       NewTrail(DefaultTrailLength),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Physical implements the Gravitating interface.
func (b *Body) Physical() *Body {
	return b
}

// String implements the Stringer interface.
func (b *Body) String() string {
	return fmt.Sprintf("%s (m=%g kg) R=%v V=%v", b.Name, b.Mass, b.R, b.V)
}

// GravitationalForce returns the force in N exerted by other onto b.
// Coincident bodies exert no force on each other.
func (b *Body) GravitationalForce(other *Body, g float64) []float64 {
	rVec := sub(other.R, b.R)
	r := norm(rVec)
	if r == 0 {
		return []float64{0, 0, 0}
	}
	return scaled(g*b.Mass*other.Mass/(r*r*r), rVec)
}

// ApplyForce changes the velocity of b as if F (in N) were applied during dt seconds.
func (b *Body) ApplyForce(F []float64, dt float64) {
	for i := 0; i < 3; i++ {
		b.V[i] += F[i] / b.Mass * dt
	}
}

// ApplyGravity applies the gravitational pull of other onto b for dt seconds.
// Only b is changed; the engine handles the reaction on other.
func (b *Body) ApplyGravity(other *Body, g, dt float64) {
	b.ApplyForce(b.GravitationalForce(other, g), dt)
}

// UpdatePosition integrates the position from the current velocity and records
// the new position in the trail.
func (b *Body) UpdatePosition(dt float64) {
	for i := 0; i < 3; i++ {
		b.R[i] += b.V[i] * dt
	}
	if b.trail != nil {
		b.trail.Push(b.R)
	}
}

// UpdateRotation spins the body about its own axis.
func (b *Body) UpdateRotation(dt float64) {
	b.RotationAngle = wrapDegrees(b.RotationAngle + b.RotationRate*dt)
}

// Trail returns the past positions, oldest first.
func (b *Body) Trail() [][]float64 {
	if b.trail == nil {
		return nil
	}
	return b.trail.Points()
}

// BodySnapshot is a read-only copy of a body for renderers and exporters.
type BodySnapshot struct {
	ID            uuid.UUID
	Name          string
	R, V          []float64
	Orientation   []float64 // nil for anything but rockets
	Radius        float64
	ScaleFactor   float64
	RotationAngle float64
	Color         colorful.Color
	Trail         [][]float64
}

// Snapshot implements the Gravitating interface.
func (b *Body) Snapshot() BodySnapshot {
	return BodySnapshot{
		ID:            b.ID,
		Name:          b.Name,
		R:             vcopy(b.R),
		V:             vcopy(b.V),
		Radius:        b.Radius,
		ScaleFactor:   b.ScaleFactor,
		RotationAngle: b.RotationAngle,
		Color:         b.Color,
		Trail:         b.Trail(),
	}
}
