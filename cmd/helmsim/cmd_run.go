// cmd/helmsim/cmd_run.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-helm/pkg/engine"
	"github.com/opd-ai/go-helm/pkg/logging"
)

var (
	runScriptPath string
	runLimit      time.Duration
	runStep       time.Duration
	runRealtime   bool
	runTelemetry  time.Duration
	runJSON       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation headless",
	Long: `Run the simulation without a display, feeding it scripted orders.

The script is a YAML list of timed entries:

  - at: 0s
    kind: FULL_AHEAD
    duration: 5s
  - at: 500ms
    kind: HALF_LEFT
    duration: 2s
    preparation: 1s
  - at: 9s
    clear: true

By default the run advances in fixed steps as fast as possible; --realtime
paces it against the wall clock.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runScriptPath, "script", "s", "", "YAML order script")
	runCmd.Flags().DurationVarP(&runLimit, "duration", "d", 30*time.Second, "Game time to simulate")
	runCmd.Flags().DurationVar(&runStep, "step", 0, "Frame step (default from config)")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "Pace the run against the wall clock")
	runCmd.Flags().DurationVar(&runTelemetry, "telemetry", time.Second, "Game time between telemetry lines (0 disables)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the final state as JSON")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	var script []ScriptEntry
	if runScriptPath != "" {
		var err error
		script, err = LoadScript(runScriptPath)
		if err != nil {
			return logging.WrapError(err, "load script %q", runScriptPath)
		}
	}

	step := runStep
	if step <= 0 {
		step = cfg.Loop.FrameStep()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithRunID(ctx, logger, "")
	runLogger := logging.FromContext(ctx)

	sim, err := engine.NewSimulation(cfg, engine.WithLogger(*runLogger))
	if err != nil {
		return logging.WrapError(err, "create simulation")
	}

	runLogger.Info().
		Int("script_entries", len(script)).
		Dur("limit", runLimit).
		Dur("step", step).
		Bool("realtime", runRealtime).
		Msg("starting run")

	r := newRunner(sim, script, runOptions{
		Limit:           runLimit,
		Step:            step,
		Realtime:        runRealtime,
		TelemetryEvery:  runTelemetry,
		DefaultDuration: cfg.Orders.DefaultDuration(),
	}, *runLogger)

	state, err := r.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		runLogger.Info().Msg("run interrupted")
	}

	return printSummary(cmd.OutOrStdout(), state, runJSON)
}

func printSummary(w io.Writer, state *engine.State, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	fmt.Fprintf(w, "status:    %s\n", state.Status)
	fmt.Fprintf(w, "game time: %v\n", state.GameTime)
	fmt.Fprintf(w, "position:  (%.1f, %.1f)\n", state.Vessel.Position.X, state.Vessel.Position.Y)
	fmt.Fprintf(w, "heading:   %.1f°\n", state.Vessel.Heading)
	fmt.Fprintf(w, "speed:     %.1f\n", state.Vessel.Speed)
	fmt.Fprintf(w, "orders:    %s", state.Orders.Phase)
	if state.Orders.Current != "" {
		fmt.Fprintf(w, " %s (%.0f%%)", state.Orders.Current, state.Orders.Progress*100)
	}
	fmt.Fprintln(w)
	if state.Status == engine.StatusWon.String() {
		fmt.Fprintf(w, "target reached after %v\n", state.Elapsed)
	}
	if len(state.Orders.Queued) > 0 {
		fmt.Fprintf(w, "queued:    %v\n", state.Orders.Queued)
	}
	return nil
}
