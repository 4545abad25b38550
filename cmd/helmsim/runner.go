// cmd/helmsim/runner.go
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opd-ai/go-helm/pkg/clock"
	"github.com/opd-ai/go-helm/pkg/command"
	"github.com/opd-ai/go-helm/pkg/engine"
	"github.com/opd-ai/go-helm/pkg/event"
)

// runOptions controls how a run is driven
type runOptions struct {
	Limit           time.Duration // game time after which the run stops
	Step            time.Duration // fixed frame step, also the real-time tick
	Realtime        bool
	TelemetryEvery  time.Duration // 0 disables periodic telemetry
	DefaultDuration time.Duration // used by entries without a duration
}

// runner feeds a script into a simulation frame by frame
type runner struct {
	sim     *engine.Simulation
	script  []ScriptEntry
	opts    runOptions
	logger  zerolog.Logger
	next    int
	lastLog time.Duration
}

func newRunner(sim *engine.Simulation, script []ScriptEntry, opts runOptions, logger zerolog.Logger) *runner {
	return &runner{
		sim:    sim,
		script: script,
		opts:   opts,
		logger: logger,
	}
}

// Run steps the simulation until the limit, a win, or ctx is cancelled
func (r *runner) Run(ctx context.Context) (*engine.State, error) {
	subs := r.subscribe()
	defer func() {
		for _, s := range subs {
			s.Cancel()
		}
	}()

	r.sim.Start()

	var ticker *time.Ticker
	var wall *clock.Wall
	var last time.Duration
	if r.opts.Realtime {
		ticker = time.NewTicker(r.opts.Step)
		defer ticker.Stop()
		wall = clock.NewWall()
	}

	for r.sim.GameTime() < r.opts.Limit && r.sim.GetStatus() != engine.StatusWon {
		r.dispatch()

		dt := r.opts.Step
		if r.opts.Realtime {
			select {
			case <-ctx.Done():
				return r.sim.GetState(), ctx.Err()
			case <-ticker.C:
			}
			now := wall.Now()
			dt = now - last
			last = now
		} else if err := ctx.Err(); err != nil {
			return r.sim.GetState(), err
		}

		r.sim.Step(dt)
		r.telemetry()
	}

	return r.sim.GetState(), nil
}

// dispatch submits every script entry whose time has come
func (r *runner) dispatch() {
	now := r.sim.GameTime()
	for r.next < len(r.script) && r.script[r.next].At <= now {
		entry := r.script[r.next]
		r.next++

		if entry.Clear {
			r.sim.ClearOrders()
			continue
		}

		duration := entry.Duration
		if duration == 0 {
			duration = r.opts.DefaultDuration
		}

		var err error
		if entry.Preparation != nil {
			err = r.sim.Submit(command.NewCommand(*entry.Kind, duration, *entry.Preparation))
		} else {
			_, err = r.sim.SubmitOrder(*entry.Kind, duration)
		}
		if err != nil {
			r.logger.Warn().Err(err).Stringer("entry", entry).Msg("scripted order rejected")
		}
	}
}

func (r *runner) telemetry() {
	if r.opts.TelemetryEvery <= 0 {
		return
	}
	now := r.sim.GameTime()
	if now-r.lastLog < r.opts.TelemetryEvery {
		return
	}
	r.lastLog = now

	state := r.sim.GetState()
	r.logger.Info().
		Dur("game_time", state.GameTime).
		Float64("x", state.Vessel.Position.X).
		Float64("y", state.Vessel.Position.Y).
		Float64("heading", state.Vessel.Heading).
		Float64("speed", state.Vessel.Speed).
		Str("phase", state.Orders.Phase).
		Str("order", state.Orders.Current).
		Float64("progress", state.Orders.Progress).
		Msg("telemetry")
}

// subscribe logs every simulation event
func (r *runner) subscribe() []*event.Subscription {
	types := []event.Type{
		event.OrderSubmitted, event.OrderRejected, event.OrderPreparing,
		event.OrderExecuting, event.OrderCompleted, event.OrdersCleared,
		event.SimulationStarted, event.SimulationReset,
		event.SimulationPaused, event.SimulationResumed, event.TargetReached,
	}

	subs := make([]*event.Subscription, 0, len(types))
	for _, t := range types {
		subs = append(subs, r.sim.EventBus.Subscribe(t, r.logEvent))
	}
	return subs
}

func (r *runner) logEvent(e event.Event) {
	entry := r.logger.Info().Str("event", string(e.GetType()))
	switch ev := e.(type) {
	case *event.OrderEvent:
		if ev.Kind != "" {
			entry = entry.Str("command_id", ev.CommandID).Str("kind", ev.Kind)
		}
		if ev.Reason != "" {
			entry = entry.Str("reason", ev.Reason)
		}
		entry = entry.Dur("at", ev.At)
	case *event.TargetEvent:
		entry = entry.Dur("elapsed", ev.Elapsed)
	}
	entry.Msg("simulation event")
}
