package orrery

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigEnv names the environment variable holding the directory of orrery.toml.
	ConfigEnv = "ORRERY_CONFIG"
	envPrefix = "ORRERY"
)

// Config is the runtime configuration of a simulation. The scene itself (bodies and
// rocket) is described separately, see LoadScene.
type Config struct {
	Physics    PhysicsConfig    `mapstructure:"physics"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Autopilot  AutopilotConfig  `mapstructure:"autopilot"`
	Controller ControllerConfig `mapstructure:"controller"`
	Navigator  NavigatorConfig  `mapstructure:"navigator"`
	Export     ExportConfig     `mapstructure:"export"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PhysicsConfig configures the engine.
type PhysicsConfig struct {
	G       float64 `mapstructure:"g" validate:"gt=0"`
	Workers int     `mapstructure:"workers" validate:"gte=1"`
}

// SimulationConfig configures the pacing of the simulation.
type SimulationConfig struct {
	Dt          float64 `mapstructure:"dt" validate:"gt=0"`           // simulated seconds per tick
	FPS         float64 `mapstructure:"fps" validate:"gt=0"`          // ticks per wall-clock second in Run
	StatusEvery int     `mapstructure:"status_every" validate:"gte=0"` // ticks between status logs, 0 disables them
}

// AutopilotConfig selects the autopilot.
type AutopilotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Mode    string `mapstructure:"mode" validate:"oneof=controller navigator"`
}

// ControllerConfig holds the gains of the proportional autopilot.
type ControllerConfig struct {
	KpPosition   float64 `mapstructure:"kp_position" validate:"gte=0"`
	KpVelocity   float64 `mapstructure:"kp_velocity" validate:"gte=0"`
	RotationRate float64 `mapstructure:"rotation_rate" validate:"gt=0"`
}

// NavigatorConfig holds the parameters of the path planner.
type NavigatorConfig struct {
	Resolution       float64       `mapstructure:"resolution" validate:"gt=0"`
	PlanningRadius   float64       `mapstructure:"planning_radius" validate:"gt=0,gtefield=Resolution"`
	MaxPlanningTime  time.Duration `mapstructure:"max_planning_time" validate:"gte=0"`
	HeadingTolerance float64       `mapstructure:"heading_tolerance" validate:"gt=0,lt=180"`
	TurnStep         float64       `mapstructure:"turn_step" validate:"gt=0"`
	MaxExpansions    int           `mapstructure:"max_expansions" validate:"gte=0"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("physics.g", G)
	v.SetDefault("physics.workers", 1)
	v.SetDefault("simulation.dt", 3600.)
	v.SetDefault("simulation.fps", 60.)
	v.SetDefault("simulation.status_every", 600)
	v.SetDefault("autopilot.enabled", false)
	v.SetDefault("autopilot.mode", "controller")
	v.SetDefault("controller.kp_position", DefaultKpPosition)
	v.SetDefault("controller.kp_velocity", DefaultKpVelocity)
	v.SetDefault("controller.rotation_rate", DefaultRotationRate)
	v.SetDefault("navigator.resolution", DefaultResolution)
	v.SetDefault("navigator.planning_radius", DefaultPlanningRadius)
	v.SetDefault("navigator.max_planning_time", DefaultMaxPlanningTime)
	v.SetDefault("navigator.heading_tolerance", DefaultHeadingTolerance)
	v.SetDefault("navigator.turn_step", DefaultTurnStep)
	v.SetDefault("navigator.max_expansions", 0)
	v.SetDefault("export.dir", "")
	v.SetDefault("export.filename", "")
	v.SetDefault("export.every", 1)
	v.SetDefault("logging.level", "info")
}

// DefaultConfig returns the configuration used when no file nor environment is provided.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		panic(fmt.Errorf("invalid default configuration: %s", err))
	}
	return &conf
}

// LoadConfig reads the configuration from, in increasing priority, the defaults, the
// configuration file and the ORRERY_ prefixed environment variables (a .env file is
// loaded first if present). If path is empty, orrery.toml is looked for in the
// directory named by ORRERY_CONFIG and in the working directory, and may be missing.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("orrery")
		v.SetConfigType("toml")
		if dir := os.Getenv(ConfigEnv); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigurationError{Subject: "config", Reason: "cannot read configuration file", Err: err}
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, &ConfigurationError{Subject: "config", Reason: "cannot decode configuration", Err: err}
	}
	if err := validateStruct("config", &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

var validate = validator.New()

// validateStruct checks the validate tags of i and reports every failing field.
func validateStruct(subject string, i interface{}) error {
	err := validate.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ConfigurationError{Subject: subject, Err: err}
	}
	fields := make([]string, len(verrs))
	messages := make([]string, len(verrs))
	for i, e := range verrs {
		fields[i] = e.Namespace()
		messages[i] = fmt.Sprintf("field '%s' failed validation: %s (value: '%v')", e.Namespace(), validationTag(e), e.Value())
	}
	return &ConfigurationError{
		Subject: subject,
		Field:   strings.Join(fields, ", "),
		Reason:  strings.Join(messages, "; "),
	}
}

func validationTag(e validator.FieldError) string {
	if e.Param() == "" {
		return e.Tag()
	}
	return e.Tag() + "=" + e.Param()
}
