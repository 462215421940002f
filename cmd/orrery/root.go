package main

import (
	"path/filepath"
	"strings"

	orrery "github.com/EduardoFockinkSilva/exploracao-espacial"
	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
)

var (
	scenePath  string
	configPath string
	logLevel   string
)

// NewRootCommand creates the root command of the CLI.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orrery",
		Short: "orrery simulates a planetary system and flies a rocket through it",
		Long: `orrery advances a scene of gravitating bodies with an N-body engine, and
optionally flies a rocket to a destination body with a proportional autopilot or a
time-bounded A* navigator.

Examples:
  orrery run --scene scenes/solar.json --ticks 8760
  orrery run --scene scenes/solar.json --autopilot navigator --export earth-mars
  orrery plan --scene scenes/solar.json`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&scenePath, "scene", "", "scene file (JSON, YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default: orrery.toml in $"+orrery.ConfigEnv+" or the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides the configuration")
	_ = rootCmd.MarkPersistentFlagRequired("scene")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewPlanCommand())
	return rootCmd
}

// load reads the configuration and the scene shared by every command.
func load(cmd *cobra.Command) (*orrery.Config, *orrery.Scene, kitlog.Logger, error) {
	conf, err := orrery.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if logLevel != "" {
		conf.Logging.Level = logLevel
	}
	name := strings.TrimSuffix(filepath.Base(scenePath), filepath.Ext(scenePath))
	logger := orrery.NewLogger(cmd.ErrOrStderr(), name, conf.Logging.Level)
	scene, err := orrery.LoadScene(scenePath, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return conf, scene, logger, nil
}
