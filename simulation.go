package orrery

import (
	"context"
	"fmt"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/time/rate"
)

// Autopilot issues the rocket commands of one tick.
type Autopilot interface {
	Step(dt float64)
}

// Commands are the manual inputs of one tick. Thrust and orientation commands are
// ignored while the autopilot is engaged.
type Commands struct {
	ActivateThrust   *float64  // intensity in [0, 1]
	DeactivateThrust bool      // takes precedence over ActivateThrust
	Orientation      []float64 // pitch, yaw, roll increments in degrees
	ToggleAutopilot  bool
	TogglePause      bool
}

// Simulation drives a scene tick by tick.
type Simulation struct {
	scene       *Scene
	conf        Config
	engine      *Engine
	objects     []Gravitating
	autopilot   Autopilot // nil when the scene cannot be flown automatically
	autopilotOn bool
	paused      bool
	tick        int
	elapsed     float64 // s
	epoch       time.Time
	logger      kitlog.Logger
	metrics     *Metrics
	frames      chan Frame
	exportDone  chan error
}

// SimulationOption customizes a simulation.
type SimulationOption func(*Simulation)

// WithSimulationMetrics records the simulation activity in m.
func WithSimulationMetrics(m *Metrics) SimulationOption {
	return func(s *Simulation) { s.metrics = m }
}

// NewSimulation returns a new simulation of the scene. If the configuration requests
// an export, the frames are streamed to it until Close is called.
func NewSimulation(scene *Scene, conf *Config, logger kitlog.Logger, opts ...SimulationOption) (*Simulation, error) {
	if scene == nil {
		return nil, configErr("simulation", "scene", "missing")
	}
	if conf == nil {
		conf = DefaultConfig()
	}
	s := &Simulation{
		scene:   scene,
		conf:    *conf,
		objects: scene.Objects(),
		epoch:   scene.Epoch,
		logger:  orNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	engine, err := NewEngine(conf.Physics.G, WithWorkers(conf.Physics.Workers), WithEngineLogger(s.logger), WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	s.engine = engine
	if scene.Rocket != nil && scene.Destination != nil {
		if s.autopilot, err = s.newAutopilot(); err != nil {
			return nil, err
		}
	}
	if conf.Autopilot.Enabled {
		if s.autopilot == nil {
			return nil, configErr(scene.Name, "autopilot", "the autopilot requires a rocket with a destination")
		}
		s.autopilotOn = true
	}
	if !conf.Export.IsUseless() {
		frames := make(chan Frame, 1000)
		s.frames = frames
		s.exportDone = make(chan error, 1)
		go func() {
			s.exportDone <- StreamSnapshots(conf.Export, frames)
		}()
		s.frames <- s.frame()
	}
	return s, nil
}

func (s *Simulation) newAutopilot() (Autopilot, error) {
	rocket, dest := s.scene.Rocket, s.scene.Destination
	switch s.conf.Autopilot.Mode {
	case "navigator":
		nc := s.conf.Navigator
		return NewNavigator(rocket, dest,
			WithResolution(nc.Resolution),
			WithPlanningRadius(nc.PlanningRadius),
			WithPlanningBudget(nc.MaxPlanningTime),
			WithHeadingTolerance(nc.HeadingTolerance),
			WithTurnStep(nc.TurnStep),
			WithMaxExpansions(nc.MaxExpansions),
			WithNavigatorLogger(s.logger),
			WithNavigatorMetrics(s.metrics))
	case "controller", "":
		cc := s.conf.Controller
		return NewController(rocket, dest,
			WithGains(cc.KpPosition, cc.KpVelocity),
			WithRotationRate(cc.RotationRate),
			WithControllerLogger(s.logger))
	default:
		return nil, configErr(s.scene.Name, "autopilot.mode", fmt.Sprintf("unknown mode `%s`", s.conf.Autopilot.Mode))
	}
}

// Dt returns the default time step of a tick in seconds.
func (s *Simulation) Dt() float64 {
	if s.scene.Dt > 0 {
		return s.scene.Dt
	}
	return s.conf.Simulation.Dt
}

// Tick applies the commands, runs the autopilot if engaged and advances the scene by
// dt seconds, unless the simulation is paused.
func (s *Simulation) Tick(dt float64, cmd Commands) {
	if cmd.TogglePause {
		s.paused = !s.paused
		level.Info(s.logger).Log("subsys", "sim", "paused", s.paused)
	}
	if cmd.ToggleAutopilot {
		s.toggleAutopilot()
	}
	if s.paused {
		return
	}
	if !finite(dt) || dt < 0 {
		level.Warn(s.logger).Log("subsys", "sim", "message", "ignoring invalid time step", "dt", dt)
		return
	}
	if rocket := s.scene.Rocket; rocket != nil {
		if s.autopilotOn {
			s.autopilot.Step(dt)
		} else {
			if cmd.Orientation != nil {
				rocket.UpdateOrientation(cmd.Orientation)
			}
			if cmd.DeactivateThrust {
				rocket.DeactivateThrust()
			} else if cmd.ActivateThrust != nil {
				rocket.ActivateThrust(*cmd.ActivateThrust)
			}
		}
	}
	s.engine.Advance(s.objects, dt)
	s.tick++
	s.elapsed += dt
	s.epoch = s.epoch.Add(time.Duration(dt * float64(time.Second)))

	if s.scene.Rocket != nil {
		s.metrics.observeRocket(s.scene.Rocket.Telemetry())
	}
	if s.frames != nil {
		s.frames <- s.frame()
	}
	if every := s.conf.Simulation.StatusEvery; every > 0 && s.tick%every == 0 {
		s.LogStatus()
	}
}

func (s *Simulation) toggleAutopilot() {
	if s.autopilot == nil {
		level.Warn(s.logger).Log("subsys", "sim", "message", "no autopilot available: the rocket has no destination")
		return
	}
	s.autopilotOn = !s.autopilotOn
	if !s.autopilotOn {
		s.scene.Rocket.DeactivateThrust()
	}
	level.Info(s.logger).Log("subsys", "sim", "autopilot", s.autopilotOn, "mode", s.conf.Autopilot.Mode)
}

// AutopilotEngaged returns whether the autopilot currently flies the rocket.
func (s *Simulation) AutopilotEngaged() bool {
	return s.autopilotOn
}

// Paused returns whether the simulation is paused.
func (s *Simulation) Paused() bool {
	return s.paused
}

// Snapshots returns the current state of every object.
func (s *Simulation) Snapshots() []BodySnapshot {
	snaps := make([]BodySnapshot, len(s.objects))
	for i, obj := range s.objects {
		snaps[i] = obj.Snapshot()
	}
	return snaps
}

// Telemetry returns the rocket telemetry, if the scene has a rocket.
func (s *Simulation) Telemetry() (RocketTelemetry, bool) {
	if s.scene.Rocket == nil {
		return RocketTelemetry{}, false
	}
	return s.scene.Rocket.Telemetry(), true
}

// Elapsed returns the simulated time in seconds since the start.
func (s *Simulation) Elapsed() float64 {
	return s.elapsed
}

// Epoch returns the current simulated date.
func (s *Simulation) Epoch() time.Time {
	return s.epoch
}

// Ticks returns the number of ticks advanced so far.
func (s *Simulation) Ticks() int {
	return s.tick
}

// frame returns the exported state of the current tick. Trails are left out.
func (s *Simulation) frame() Frame {
	bodies := make([]BodySnapshot, len(s.objects))
	for i, obj := range s.objects {
		b := obj.Physical()
		bodies[i] = BodySnapshot{ID: b.ID, Name: b.Name, R: vcopy(b.R), V: vcopy(b.V)}
	}
	return Frame{Tick: s.tick, Epoch: s.epoch, Elapsed: s.elapsed, Bodies: bodies}
}

// LogStatus logs the status of the simulation and of the rocket.
func (s *Simulation) LogStatus() {
	kv := []interface{}{"subsys", "sim", "tick", s.tick, "date", s.epoch.UTC(), "elapsed(d)", s.elapsed / 86400}
	if r := s.scene.Rocket; r != nil {
		kv = append(kv, "fuel(kg)", r.RemainingFuel, "thrusting", r.ThrustActive(), "autopilot", s.autopilotOn)
		if d := s.scene.Destination; d != nil {
			kv = append(kv, "distance(km)", distance(r.R, d.R)/1e3)
		}
	}
	level.Info(s.logger).Log(kv...)
}

// Run advances the simulation by its default time step, paced at the configured frame
// rate, until ticks ticks are done (forever if ticks <= 0) or the context is done.
// The export, if any, is closed when Run returns.
func (s *Simulation) Run(ctx context.Context, ticks int) error {
	limiter := rate.NewLimiter(rate.Limit(s.conf.Simulation.FPS), 1)
	dt := s.Dt()
	s.LogStatus()
	for i := 0; ticks <= 0 || i < ticks; i++ {
		// Wait only fails once the context is done or its deadline is too close.
		if err := limiter.Wait(ctx); err != nil {
			level.Debug(s.logger).Log("subsys", "sim", "stop", err)
			break
		}
		s.Tick(dt, Commands{})
	}
	level.Info(s.logger).Log("subsys", "sim", "status", "finished", "ticks", s.tick, "elapsed(d)", s.elapsed/86400)
	s.LogStatus()
	return s.Close()
}

// Close stops the export, if any, and waits until every frame is written.
func (s *Simulation) Close() error {
	if s.frames == nil {
		return nil
	}
	close(s.frames)
	s.frames = nil
	return <-s.exportDone
}
