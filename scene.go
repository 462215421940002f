package orrery

import (
	"fmt"
	"io"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// J2000 is the default epoch of a scene.
const J2000 = 2451545.0

// Scene is a set of bodies, optionally with a rocket, ready to be simulated.
type Scene struct {
	Name        string
	Epoch       time.Time
	Dt          float64 // s, 0 means the configured default
	Bodies      []*Body
	Rocket      *Rocket
	Destination *Body // nil without a rocket or when the rocket has no destination
}

// Objects returns everything the engine must advance: the bodies, then the rocket.
func (s *Scene) Objects() []Gravitating {
	objects := make([]Gravitating, 0, len(s.Bodies)+1)
	for _, b := range s.Bodies {
		objects = append(objects, b)
	}
	if s.Rocket != nil {
		objects = append(objects, s.Rocket)
	}
	return objects
}

// Body returns the body of that name, or nil.
func (s *Scene) Body(name string) *Body {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b
		}
	}
	return nil
}

type sceneFile struct {
	Name   string       `mapstructure:"name" validate:"required"`
	Dt     float64      `mapstructure:"dt" validate:"gte=0"`
	Bodies []bodyEntry  `mapstructure:"bodies" validate:"required,min=1,unique=Name,dive"`
	Rocket *rocketEntry `mapstructure:"rocket"`
}

type bodyEntry struct {
	Name         string    `mapstructure:"name" validate:"required"`
	Mass         float64   `mapstructure:"mass" validate:"gt=0"`
	Radius       float64   `mapstructure:"radius" validate:"gte=0"`
	Color        string    `mapstructure:"color" validate:"omitempty,hexcolor"`
	ScaleFactor  float64   `mapstructure:"scale_factor" validate:"gte=0"`
	RotationRate float64   `mapstructure:"rotation_rate"`
	TrailLength  int       `mapstructure:"trail_length" validate:"gte=0"`
	Position     []float64 `mapstructure:"position" validate:"omitempty,len=3"`
	Velocity     []float64 `mapstructure:"velocity" validate:"required_with=Position,omitempty,len=3"`
	A            float64   `mapstructure:"a" validate:"gte=0"`
	E            *float64  `mapstructure:"e" validate:"required_with=A,omitempty,gte=0,lt=1"`
	IDeg         *float64  `mapstructure:"i_deg" validate:"required_with=A"`
	CentralMass  float64   `mapstructure:"central_mass" validate:"gte=0"`
}

type rocketEntry struct {
	Name         string    `mapstructure:"name" validate:"required"`
	Mass         float64   `mapstructure:"mass" validate:"gt=0"`
	Radius       float64   `mapstructure:"radius" validate:"gte=0"`
	Color        string    `mapstructure:"color" validate:"omitempty,hexcolor"`
	TrailLength  int       `mapstructure:"trail_length" validate:"gte=0"`
	Origin       string    `mapstructure:"origin" validate:"required"`
	Offset       []float64 `mapstructure:"offset" validate:"omitempty,len=3"`
	Velocity     []float64 `mapstructure:"velocity" validate:"omitempty,len=3"`
	Orientation  []float64 `mapstructure:"orientation" validate:"omitempty,len=3"`
	MaxThrust    float64   `mapstructure:"max_thrust" validate:"gte=0"`
	FuelBurnRate float64   `mapstructure:"fuel_burn_rate" validate:"gte=0"`
	InitialFuel  float64   `mapstructure:"initial_fuel" validate:"gte=0,ltfield=Mass"`
	Destination  string    `mapstructure:"destination"`
}

// LoadScene reads a scene from a JSON, YAML or TOML file.
func LoadScene(path string, logger kitlog.Logger) (*Scene, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Subject: path, Reason: "cannot read scene", Err: err}
	}
	return readScene(v, logger)
}

// ParseScene reads a scene in the provided format ("json", "yaml" or "toml").
func ParseScene(r io.Reader, format string, logger kitlog.Logger) (*Scene, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, &ConfigurationError{Subject: "scene", Reason: "cannot parse scene", Err: err}
	}
	return readScene(v, logger)
}

func readScene(v *viper.Viper, logger kitlog.Logger) (*Scene, error) {
	logger = orNop(logger)
	var sf sceneFile
	if err := v.Unmarshal(&sf); err != nil {
		return nil, &ConfigurationError{Subject: "scene", Reason: "cannot decode scene", Err: err}
	}
	if err := validateStruct(sf.Name, &sf); err != nil {
		return nil, err
	}
	epoch, err := readEpoch(v, "epoch")
	if err != nil {
		return nil, &ConfigurationError{Subject: sf.Name, Field: "epoch", Err: err}
	}
	scene := &Scene{Name: sf.Name, Epoch: epoch, Dt: sf.Dt}
	for _, entry := range sf.Bodies {
		b, err := entry.build()
		if err != nil {
			return nil, err
		}
		scene.Bodies = append(scene.Bodies, b)
	}
	if sf.Rocket != nil {
		if err := sf.Rocket.build(scene, logger); err != nil {
			return nil, err
		}
	}
	level.Info(logger).Log("subsys", "scene", "name", scene.Name, "epoch", scene.Epoch.Format(time.RFC3339), "bodies", len(scene.Bodies), "rocket", sf.Rocket != nil)
	return scene, nil
}

// readEpoch reads a key either as a Julian ephemeris day or as a timestamp.
func readEpoch(v *viper.Viper, key string) (time.Time, error) {
	if !v.IsSet(key) {
		return julian.JDToTime(J2000), nil
	}
	if jde := v.GetFloat64(key); jde != 0 {
		return julian.JDToTime(jde), nil
	}
	dt := v.GetTime(key)
	if dt.IsZero() {
		return time.Time{}, fmt.Errorf("could not understand `%v` as a JDE or a time", v.Get(key))
	}
	return dt.UTC(), nil
}

func parseColor(subject, hex string) (colorful.Color, error) {
	if hex == "" {
		return DefaultColor, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, &ConfigurationError{Subject: subject, Field: "color", Err: err}
	}
	return c, nil
}

func trailOption(n int) BodyOption {
	if n == 0 {
		n = DefaultTrailLength
	}
	return WithTrailLength(n)
}

func (e bodyEntry) build() (*Body, error) {
	color, err := parseColor(e.Name, e.Color)
	if err != nil {
		return nil, err
	}
	opts := []BodyOption{WithColor(color), WithSpinRate(e.RotationRate), trailOption(e.TrailLength)}
	if e.ScaleFactor > 0 {
		opts = append(opts, WithScaleFactor(e.ScaleFactor))
	}
	switch {
	case e.Position != nil:
		return NewBody(e.Name, e.Mass, e.Radius, e.Position, e.Velocity, opts...)
	case e.A > 0:
		if e.CentralMass <= 0 {
			return nil, configErr(e.Name, "central_mass", "an orbit requires the mass of the central body")
		}
		return NewBodyFromOE(e.Name, e.Mass, e.Radius, e.A, *e.E, *e.IDeg, e.CentralMass, opts...)
	default:
		return nil, configErr(e.Name, "position", "either a position or orbital elements (a, e, i_deg, central_mass) are required")
	}
}

// build places the rocket at its origin body, offset by Offset and moving with the
// origin velocity plus Velocity. The destination does not change the initial state.
func (e rocketEntry) build(scene *Scene, logger kitlog.Logger) error {
	origin := scene.Body(e.Origin)
	if origin == nil {
		return configErr(e.Name, "origin", fmt.Sprintf("unknown body `%s`", e.Origin))
	}
	R, V := vcopy(origin.R), vcopy(origin.V)
	if e.Offset != nil {
		R = []float64{R[0] + e.Offset[0], R[1] + e.Offset[1], R[2] + e.Offset[2]}
	}
	if e.Velocity != nil {
		V = []float64{V[0] + e.Velocity[0], V[1] + e.Velocity[1], V[2] + e.Velocity[2]}
	}
	color, err := parseColor(e.Name, e.Color)
	if err != nil {
		return err
	}
	body, err := NewBody(e.Name, e.Mass, e.Radius, R, V, WithColor(color), trailOption(e.TrailLength))
	if err != nil {
		return err
	}
	rocket, err := NewRocket(body, e.Orientation, e.MaxThrust, e.FuelBurnRate, e.InitialFuel, logger)
	if err != nil {
		return err
	}
	scene.Rocket = rocket
	if e.Destination != "" {
		if scene.Destination = scene.Body(e.Destination); scene.Destination == nil {
			return configErr(e.Name, "destination", fmt.Sprintf("unknown body `%s`", e.Destination))
		}
	}
	return nil
}
