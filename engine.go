package orrery

import (
	"fmt"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gonum/floats"
	"golang.org/x/sync/errgroup"
)

// thruster is implemented by objects which add their own acceleration on top of gravity.
type thruster interface {
	UpdateState(dt float64)
	ThrustAcceleration() []float64
}

// Engine advances a set of bodies under their mutual Newtonian gravity.
// It does not own the bodies: they are provided on every call to Advance.
type Engine struct {
	G       float64 // gravitational constant
	workers int
	logger  kitlog.Logger
	metrics *Metrics
}

// EngineOption customizes an engine.
type EngineOption func(*Engine)

// WithWorkers accumulates the gravitational forces on up to n goroutines. The
// integration itself always runs serially.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) { e.workers = n }
}

// WithEngineLogger sets the logger of the engine.
func WithEngineLogger(l kitlog.Logger) EngineOption {
	return func(e *Engine) { e.logger = orNop(l) }
}

// WithMetrics records the engine activity in m.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine returns a new engine using the provided gravitational constant.
func NewEngine(g float64, opts ...EngineOption) (*Engine, error) {
	if !finite(g) || g <= 0 {
		return nil, configErr("engine", "G", fmt.Sprintf("must be finite and positive, got %g", g))
	}
	e := &Engine{G: g, workers: 1, logger: kitlog.NewNopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Advance moves every object forward by dt seconds with a semi-implicit Euler step:
// all forces are computed from the current positions before any velocity changes,
// then each object integrates its velocity and then its position.
// Rockets burn fuel and add their thrust acceleration during the step.
func (e *Engine) Advance(objects []Gravitating, dt float64) {
	if !finite(dt) || dt < 0 {
		level.Warn(e.logger).Log("subsys", "physics", "message", "ignoring invalid time step", "dt", dt)
		return
	}
	start := time.Now()
	bodies := make([]*Body, len(objects))
	for i, obj := range objects {
		bodies[i] = obj.Physical()
	}
	forces := e.Forces(bodies)
	for i, obj := range objects {
		b := bodies[i]
		acc := scaled(1/b.Mass, forces[i])
		if t, ok := obj.(thruster); ok {
			t.UpdateState(dt)
			floats.Add(acc, t.ThrustAcceleration())
		}
		for k := 0; k < 3; k++ {
			b.V[k] += acc[k] * dt
		}
		b.UpdatePosition(dt)
		b.UpdateRotation(dt)
	}
	e.metrics.observeAdvance(time.Since(start))
}

// Forces returns the net gravitational force on each body. Each pair is computed once
// and applied with opposite signs, unless the engine has several workers, in which
// case every body accumulates its own force independently.
func (e *Engine) Forces(bodies []*Body) [][]float64 {
	forces := make([][]float64, len(bodies))
	for i := range forces {
		forces[i] = []float64{0, 0, 0}
	}
	if e.workers > 1 && len(bodies) > 2 {
		e.parallelForces(bodies, forces)
		return forces
	}
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			F := bodies[i].GravitationalForce(bodies[j], e.G)
			floats.Add(forces[i], F)
			floats.Sub(forces[j], F)
		}
	}
	return forces
}

func (e *Engine) parallelForces(bodies []*Body, forces [][]float64) {
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range bodies {
		i := i
		g.Go(func() error {
			for j := range bodies {
				if j != i {
					floats.Add(forces[i], bodies[i].GravitationalForce(bodies[j], e.G))
				}
			}
			return nil
		})
	}
	g.Wait() // Never errors.
}

// TotalEnergy returns the kinetic plus gravitational potential energy in J.
func (e *Engine) TotalEnergy(objects []Gravitating) float64 {
	energy := 0.
	for i, obj := range objects {
		b := obj.Physical()
		energy += 0.5 * b.Mass * dot(b.V, b.V)
		for _, other := range objects[i+1:] {
			o := other.Physical()
			if r := distance(b.R, o.R); r > 0 {
				energy -= e.G * b.Mass * o.Mass / r
			}
		}
	}
	return energy
}

// TotalMomentum returns the linear momentum of the system in kg·m/s.
func (e *Engine) TotalMomentum(objects []Gravitating) []float64 {
	p := []float64{0, 0, 0}
	for _, obj := range objects {
		b := obj.Physical()
		floats.AddScaled(p, b.Mass, b.V)
	}
	return p
}
