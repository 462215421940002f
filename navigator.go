package orrery

import (
	"fmt"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

const (
	// DefaultResolution is the size of a planning grid cell in meters.
	DefaultResolution = 1e9
	// DefaultPlanningRadius is how far ahead a single planning episode looks, in meters.
	DefaultPlanningRadius = 1e10
	// DefaultMaxPlanningTime is the wall-clock budget of a planning episode.
	DefaultMaxPlanningTime = 100 * time.Millisecond
	// DefaultHeadingTolerance is the heading error, in degrees, under which the rocket thrusts.
	DefaultHeadingTolerance = 5.0
	// DefaultTurnStep is the orientation change applied per tick while turning, in radians.
	DefaultTurnStep = 0.1
)

// PlanOutcome is the result category of a planning episode.
type PlanOutcome uint8

const (
	// PlanTrivial means the rocket is already within one cell of the destination.
	PlanTrivial PlanOutcome = iota + 1
	// PlanFound means the sub-goal was reached by the search.
	PlanFound
	// PlanPartial means the budget ran out and the path leads to the closest node found.
	PlanPartial
	// PlanNone means no usable path was produced.
	PlanNone
)

func (o PlanOutcome) String() string {
	switch o {
	case PlanTrivial:
		return "trivial"
	case PlanFound:
		return "found"
	case PlanPartial:
		return "partial"
	case PlanNone:
		return "none"
	default:
		panic(fmt.Errorf("unknown plan outcome %d", o))
	}
}

// NavState is the state of the navigator.
type NavState uint8

const (
	// NavIdle means there is no path to follow.
	NavIdle NavState = iota
	// NavFollowing means the rocket is flying along a planned path.
	NavFollowing
	// NavReplanning means the previous path is exhausted and a new one is being computed.
	NavReplanning
)

func (s NavState) String() string {
	switch s {
	case NavIdle:
		return "idle"
	case NavFollowing:
		return "following"
	case NavReplanning:
		return "replanning"
	default:
		panic(fmt.Errorf("unknown navigator state %d", s))
	}
}

// PlanResult describes one planning episode.
type PlanResult struct {
	Outcome    PlanOutcome
	Waypoints  [][]float64
	Cost       float64 // m
	SubGoal    []float64
	Expansions int
	Duration   time.Duration
}

// Navigator flies a rocket toward a destination by repeatedly planning a short grid path
// toward it with a time-bounded A* search, and following that path waypoint by waypoint.
type Navigator struct {
	Resolution       float64 // m
	PlanningRadius   float64 // m
	MaxPlanningTime  time.Duration
	HeadingTolerance float64 // deg
	TurnStep         float64 // rad, added to the Euler angles per tick while turning
	MaxExpansions    int     // 0 is unbounded

	rocket      *Rocket
	destination *Body
	path        [][]float64
	cursor      int
	state       NavState
	now         func() time.Time
	logger      kitlog.Logger
	metrics     *Metrics
}

// NavigatorOption customizes a navigator.
type NavigatorOption func(*Navigator)

// WithResolution sets the grid cell size in meters.
func WithResolution(m float64) NavigatorOption {
	return func(n *Navigator) { n.Resolution = m }
}

// WithPlanningRadius sets the look-ahead of a planning episode in meters.
func WithPlanningRadius(m float64) NavigatorOption {
	return func(n *Navigator) { n.PlanningRadius = m }
}

// WithPlanningBudget sets the wall-clock budget of a planning episode.
func WithPlanningBudget(d time.Duration) NavigatorOption {
	return func(n *Navigator) { n.MaxPlanningTime = d }
}

// WithHeadingTolerance sets the heading error, in degrees, under which the rocket thrusts.
func WithHeadingTolerance(deg float64) NavigatorOption {
	return func(n *Navigator) { n.HeadingTolerance = deg }
}

// WithTurnStep sets the orientation change per tick while turning, in radians.
func WithTurnStep(step float64) NavigatorOption {
	return func(n *Navigator) { n.TurnStep = step }
}

// WithMaxExpansions bounds the number of nodes expanded per episode.
func WithMaxExpansions(max int) NavigatorOption {
	return func(n *Navigator) { n.MaxExpansions = max }
}

// WithClock replaces the wall clock used for the planning budget.
func WithClock(now func() time.Time) NavigatorOption {
	return func(n *Navigator) { n.now = now }
}

// WithNavigatorLogger sets the logger.
func WithNavigatorLogger(l kitlog.Logger) NavigatorOption {
	return func(n *Navigator) { n.logger = orNop(l) }
}

// WithNavigatorMetrics records the planning episodes in m.
func WithNavigatorMetrics(m *Metrics) NavigatorOption {
	return func(n *Navigator) { n.metrics = m }
}

// NewNavigator returns a navigator flying the rocket toward the destination.
func NewNavigator(rocket *Rocket, destination *Body, opts ...NavigatorOption) (*Navigator, error) {
	if rocket == nil {
		return nil, configErr("navigator", "rocket", "missing")
	}
	if destination == nil {
		return nil, configErr(rocket.Name, "destination", "the navigator requires a destination")
	}
	n := &Navigator{
		Resolution:       DefaultResolution,
		PlanningRadius:   DefaultPlanningRadius,
		MaxPlanningTime:  DefaultMaxPlanningTime,
		HeadingTolerance: DefaultHeadingTolerance,
		TurnStep:         DefaultTurnStep,
		rocket:           rocket,
		destination:      destination,
		now:              time.Now,
		logger:           kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	switch {
	case !finite(n.Resolution) || n.Resolution <= 0:
		return nil, configErr("navigator", "resolution", fmt.Sprintf("must be positive, got %g", n.Resolution))
	case !finite(n.PlanningRadius) || n.PlanningRadius <= 0:
		return nil, configErr("navigator", "planning_radius", fmt.Sprintf("must be positive, got %g", n.PlanningRadius))
	case n.PlanningRadius < n.Resolution:
		return nil, configErr("navigator", "planning_radius", fmt.Sprintf("must be at least the resolution %g, got %g", n.Resolution, n.PlanningRadius))
	case n.MaxPlanningTime < 0:
		return nil, configErr("navigator", "max_planning_time", fmt.Sprintf("must not be negative, got %s", n.MaxPlanningTime))
	case !finite(n.HeadingTolerance) || n.HeadingTolerance <= 0:
		return nil, configErr("navigator", "heading_tolerance", fmt.Sprintf("must be positive, got %g", n.HeadingTolerance))
	case !finite(n.TurnStep) || n.TurnStep <= 0:
		return nil, configErr("navigator", "turn_step", fmt.Sprintf("must be positive, got %g", n.TurnStep))
	}
	return n, nil
}

// Destination returns the body the navigator flies to.
func (n *Navigator) Destination() *Body {
	return n.destination
}

// State returns the current state of the navigator.
func (n *Navigator) State() NavState {
	return n.state
}

// Path returns a copy of the current path and the index of the next waypoint.
func (n *Navigator) Path() ([][]float64, int) {
	path := make([][]float64, len(n.path))
	for i, wp := range n.path {
		path[i] = vcopy(wp)
	}
	return path, n.cursor
}

// PlanIncremental plans a path from the rocket toward the destination, clipped to the
// planning radius, and makes it the current path.
func (n *Navigator) PlanIncremental() PlanResult {
	start := vcopy(n.rocket.R)
	d := distance(start, n.destination.R)
	if d < n.Resolution {
		n.path, n.cursor, n.state = nil, 0, NavIdle
		res := PlanResult{Outcome: PlanTrivial, SubGoal: vcopy(n.destination.R)}
		n.record(res)
		return res
	}
	subGoal := vcopy(n.destination.R)
	if d > n.PlanningRadius {
		subGoal = sub(n.destination.R, start)
		for i := range subGoal {
			subGoal[i] = start[i] + subGoal[i]*n.PlanningRadius/d
		}
	}

	began := time.Now()
	sr := newSearch(start, subGoal, n.Resolution, n.MaxPlanningTime, n.MaxExpansions, n.now).run()
	res := PlanResult{
		Outcome:    sr.outcome,
		Waypoints:  sr.waypoints,
		Cost:       sr.cost,
		SubGoal:    subGoal,
		Expansions: sr.expansions,
		Duration:   time.Since(began),
	}
	n.path, n.cursor = sr.waypoints, 0
	if len(n.path) > 0 {
		n.state = NavFollowing
	} else {
		n.state = NavIdle
	}
	n.record(res)
	return res
}

func (n *Navigator) record(res PlanResult) {
	n.metrics.observePlan(res.Outcome, res.Duration, res.Expansions)
	lvl := level.Debug
	if res.Outcome == PlanPartial || res.Outcome == PlanNone {
		lvl = level.Info
	}
	lvl(n.logger).Log("subsys", "nav", "rocket", n.rocket.Name, "outcome", res.Outcome, "expansions", res.Expansions, "waypoints", len(res.Waypoints), "cost(km)", res.Cost/1e3, "duration", res.Duration)
}

// ExecuteNextAction issues the commands of one tick: turn toward the next waypoint, or
// thrust at full power when the heading is close enough. A new path is planned when the
// current one is exhausted.
func (n *Navigator) ExecuteNextAction() {
	if n.cursor >= len(n.path) {
		n.state = NavReplanning
		n.PlanIncremental()
		if len(n.path) == 0 {
			n.rocket.DeactivateThrust()
			n.state = NavIdle
			return
		}
	}
	toWaypoint := sub(n.path[n.cursor], n.rocket.R)
	dist := norm(toWaypoint)
	if dist < n.Resolution {
		n.cursor++
		return
	}
	desired := scaled(1/dist, toWaypoint)
	heading := n.rocket.ForwardVector()
	θ := angleBetween(heading, desired)
	if θ < n.HeadingTolerance*deg2rad {
		n.rocket.ActivateThrust(1)
		return
	}
	n.rocket.DeactivateThrust()
	if axis := cross(heading, desired); norm(axis) > 0 {
		n.rocket.UpdateOrientation(scaled(Rad2deg(n.TurnStep), unit(axis)))
	}
}

// Step implements the Autopilot interface. The navigator does not depend on the time step.
func (n *Navigator) Step(float64) {
	n.ExecuteNextAction()
}
