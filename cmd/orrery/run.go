package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	orrery "github.com/EduardoFockinkSilva/exploracao-espacial"
	"github.com/go-kit/kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the command running a scene.
func NewRunCommand() *cobra.Command {
	var (
		ticks       int
		autopilot   string
		export      string
		exportDir   string
		exportEvery int
		metricsAddr string
		fps         float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scene",
		Long: `Run advances the scene at the configured frame rate until the number of ticks
is reached or the process is interrupted. With --autopilot, the rocket is flown to its
destination from the first tick.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, scene, logger, err := load(cmd)
			if err != nil {
				return err
			}
			if autopilot != "" {
				conf.Autopilot.Enabled = true
				conf.Autopilot.Mode = autopilot
			}
			if export != "" {
				conf.Export.Filename = export
				conf.Export.Dir = exportDir
				conf.Export.Every = exportEvery
			}
			if fps > 0 {
				conf.Simulation.FPS = fps
			}

			reg := prometheus.NewRegistry()
			metrics, err := orrery.NewMetrics(reg)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						level.Error(logger).Log("subsys", "metrics", "addr", metricsAddr, "err", err)
					}
				}()
				defer srv.Close()
			}

			sim, err := orrery.NewSimulation(scene, conf, logger, orrery.WithSimulationMetrics(metrics))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return sim.Run(ctx, ticks)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 0, "number of ticks to run, 0 runs until interrupted")
	cmd.Flags().StringVar(&autopilot, "autopilot", "", "engage the autopilot from the start (controller or navigator)")
	cmd.Flags().StringVar(&export, "export", "", "export the frames to a CSV file of that name")
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory of the exported file")
	cmd.Flags().IntVar(&exportEvery, "export-every", 1, "export one frame out of this many")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().Float64Var(&fps, "fps", 0, "ticks per second, overrides the configuration")
	return cmd
}
