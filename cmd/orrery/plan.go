package main

import (
	"fmt"

	orrery "github.com/EduardoFockinkSilva/exploracao-espacial"
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the command printing one planning episode of the navigator.
func NewPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Plan the next leg of the rocket toward its destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, scene, logger, err := load(cmd)
			if err != nil {
				return err
			}
			if scene.Rocket == nil || scene.Destination == nil {
				return fmt.Errorf("scene `%s` has no rocket with a destination", scene.Name)
			}
			nc := conf.Navigator
			nav, err := orrery.NewNavigator(scene.Rocket, scene.Destination,
				orrery.WithResolution(nc.Resolution),
				orrery.WithPlanningRadius(nc.PlanningRadius),
				orrery.WithPlanningBudget(nc.MaxPlanningTime),
				orrery.WithHeadingTolerance(nc.HeadingTolerance),
				orrery.WithTurnStep(nc.TurnStep),
				orrery.WithMaxExpansions(nc.MaxExpansions),
				orrery.WithNavigatorLogger(logger))
			if err != nil {
				return err
			}
			res := nav.PlanIncremental()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s -> %s: %s (%d expansions in %s)\n", scene.Rocket.Name, scene.Destination.Name, res.Outcome, res.Expansions, res.Duration)
			fmt.Fprintf(out, "sub-goal: %v\ncost: %.3f km\n", res.SubGoal, res.Cost/1e3)
			for i, wp := range res.Waypoints {
				fmt.Fprintf(out, "%3d: %v\n", i, wp)
			}
			return nil
		},
	}
}
