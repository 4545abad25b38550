package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/opd-ai/go-helm/pkg/clock"
	"github.com/opd-ai/go-helm/pkg/entity"
	"github.com/opd-ai/go-helm/pkg/event"
	"github.com/opd-ai/go-helm/pkg/physics"
)

const frame = 16 * time.Millisecond

// harness drives a scheduler and a real vessel the way the frame loop does
type harness struct {
	t         *testing.T
	clock     *clock.Manual
	vessel    *entity.Vessel
	scheduler *Scheduler
	bus       *event.Bus
	events    []*event.OrderEvent
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		clock: clock.NewManual(0),
		bus:   event.NewEventBus(),
	}
	h.vessel = entity.NewVessel(physics.Vector2D{X: 400, Y: 520}, entity.DefaultVesselStats(), h.clock)

	record := func(e event.Event) {
		h.events = append(h.events, e.(*event.OrderEvent))
	}
	for _, typ := range []event.Type{
		event.OrderSubmitted, event.OrderRejected, event.OrderPreparing,
		event.OrderExecuting, event.OrderCompleted, event.OrdersCleared,
	} {
		h.bus.Subscribe(typ, record)
	}

	opts = append([]Option{WithEventBus(h.bus)}, opts...)
	s, err := NewScheduler(h.vessel, h.clock, opts...)
	require.NoError(t, err)
	h.scheduler = s
	return h
}

// step runs one frame: advance time, tick the scheduler, then move the vessel
func (h *harness) step() {
	h.clock.Advance(frame)
	h.scheduler.Tick()
	h.vessel.Update(frame)
}

func (h *harness) runUntil(t time.Duration) {
	for h.clock.Now() < t {
		h.step()
	}
}

func (h *harness) eventsOf(typ event.Type) []*event.OrderEvent {
	var out []*event.OrderEvent
	for _, e := range h.events {
		if e.GetType() == typ {
			out = append(out, e)
		}
	}
	return out
}

// fakeVessel lets tests decide when an order ends
type fakeVessel struct {
	received []entity.OrderKind
	active   bool
	progress float64
}

func (f *fakeVessel) ReceiveOrder(kind entity.OrderKind, _ time.Duration) {
	f.received = append(f.received, kind)
	f.active = true
}

func (f *fakeVessel) HasActiveOrder() bool   { return f.active }
func (f *fakeVessel) OrderProgress() float64 { return f.progress }

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "PREPARING", Preparing.String())
	assert.Equal(t, "EXECUTING", Executing.String())
	assert.Equal(t, "UNKNOWN", Phase(9).String())
}

func TestNewSchedulerDefaults(t *testing.T) {
	s, err := NewScheduler(&fakeVessel{}, clock.NewManual(0))
	require.NoError(t, err)

	assert.Equal(t, Idle, s.Phase())
	assert.Equal(t, DefaultPreparation, s.Preparation())
	assert.Equal(t, 0, s.QueueLen())
	assert.Equal(t, 0.0, s.Progress())
	_, ok := s.PeekActive()
	assert.False(t, ok)
}

func TestNewSchedulerNegativePreparation(t *testing.T) {
	s, err := NewScheduler(&fakeVessel{}, clock.NewManual(0), WithPreparation(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), s.Preparation())
}

func TestSubmitStartsPreparingImmediately(t *testing.T) {
	h := newHarness(t)

	cmd, err := h.scheduler.SubmitOrder(entity.FullAhead, 3*time.Second)
	require.NoError(t, err)

	assert.Equal(t, Preparing, h.scheduler.Phase())
	assert.Equal(t, 0, h.scheduler.QueueLen())
	assert.Equal(t, DefaultPreparation, cmd.Preparation)

	kind, ok := h.scheduler.PeekActive()
	require.True(t, ok)
	assert.Equal(t, entity.FullAhead, kind)

	current, ok := h.scheduler.Current()
	require.True(t, ok)
	assert.Equal(t, cmd.ID, current.ID)

	assert.False(t, h.vessel.HasActiveOrder(), "no effect before preparation ends")
	assert.Equal(t, 0.0, h.vessel.TargetSpeed)
}

func TestSubmitRejectsInvalidOrders(t *testing.T) {
	h := newHarness(t)
	_, err := h.scheduler.SubmitOrder(entity.HalfAhead, time.Second)
	require.NoError(t, err)
	_, err = h.scheduler.SubmitOrder(entity.HalfLeft, time.Second)
	require.NoError(t, err)

	tests := []struct {
		name string
		cmd  Command
	}{
		{"zero duration", NewCommand(entity.FullAhead, 0, time.Second)},
		{"negative duration", NewCommand(entity.FullAhead, -time.Second, time.Second)},
		{"negative preparation", NewCommand(entity.FullAhead, time.Second, -time.Second)},
		{"unknown kind", NewCommand(entity.OrderKind(-1), time.Second, time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.scheduler.Queued()
			err := h.scheduler.Submit(tt.cmd)
			assert.ErrorIs(t, err, ErrInvalidOrder)
			assert.Equal(t, before, h.scheduler.Queued(), "queue must be unchanged")
			assert.Equal(t, Preparing, h.scheduler.Phase())
		})
	}

	rejected := h.eventsOf(event.OrderRejected)
	require.Len(t, rejected, len(tests))
	assert.NotEmpty(t, rejected[0].Reason)
}

func TestRejectedOrderWhileIdleStaysIdle(t *testing.T) {
	h := newHarness(t)

	_, err := h.scheduler.SubmitOrder(entity.Stop, 0)
	assert.ErrorIs(t, err, ErrInvalidOrder)
	assert.Equal(t, Idle, h.scheduler.Phase())
	assert.Empty(t, h.eventsOf(event.OrderSubmitted))
}

func TestFullAheadTimeline(t *testing.T) {
	h := newHarness(t)
	_, err := h.scheduler.SubmitOrder(entity.FullAhead, 3*time.Second)
	require.NoError(t, err)

	maxSpeed := h.vessel.Stats.MaxSpeed
	for h.clock.Now() < 6*time.Second {
		h.step()
		now := h.clock.Now()
		phase := h.scheduler.Phase()

		switch {
		case now < 2*time.Second:
			require.Equal(t, Preparing, phase, "at %v", now)
			require.Equal(t, 0.0, h.vessel.TargetSpeed, "at %v", now)
		case now < 5*time.Second:
			require.Equal(t, Executing, phase, "at %v", now)
			require.Equal(t, maxSpeed, h.vessel.TargetSpeed, "at %v", now)
		case now >= 5*time.Second+2*frame:
			require.Equal(t, Idle, phase, "at %v", now)
		}
	}

	executing := h.eventsOf(event.OrderExecuting)
	require.Len(t, executing, 1)
	assert.Equal(t, 2*time.Second, executing[0].At)

	completed := h.eventsOf(event.OrderCompleted)
	require.Len(t, completed, 1)
	assert.InDelta(t, float64(5*time.Second), float64(completed[0].At), float64(2*frame))
}

func TestQueuedOrderWaitsForFullCycle(t *testing.T) {
	h := newHarness(t)
	left, err := h.scheduler.SubmitOrder(entity.FullLeft, 3*time.Second)
	require.NoError(t, err)

	h.runUntil(500 * time.Millisecond)
	require.Equal(t, Preparing, h.scheduler.Phase())

	ahead, err := h.scheduler.SubmitOrder(entity.FullAhead, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []entity.OrderKind{entity.FullAhead}, h.scheduler.Queued())

	var sawIdle bool
	for h.clock.Now() < 12*time.Second {
		h.step()
		if h.scheduler.Phase() == Idle && h.clock.Now() < 10*time.Second {
			sawIdle = true
		}
	}
	assert.False(t, sawIdle, "no idle frame between queued orders")

	preparing := h.eventsOf(event.OrderPreparing)
	executing := h.eventsOf(event.OrderExecuting)
	completed := h.eventsOf(event.OrderCompleted)
	require.Len(t, preparing, 2)
	require.Len(t, executing, 2)
	require.Len(t, completed, 2)

	assert.Equal(t, left.ID, executing[0].CommandID)
	assert.Equal(t, ahead.ID, executing[1].CommandID)

	// The second order starts preparing in the same tick the first completes
	assert.Equal(t, completed[0].At, preparing[1].At)
	assert.Equal(t, left.ID, completed[0].CommandID)
	assert.GreaterOrEqual(t, preparing[1].At, 5*time.Second)
	assert.Equal(t, preparing[1].At+2*time.Second, executing[1].At)
}

func TestTurnExpiryStopsRotationImmediately(t *testing.T) {
	h := newHarness(t, WithPreparation(0))
	_, err := h.scheduler.SubmitOrder(entity.FullLeft, time.Second)
	require.NoError(t, err)

	h.step()
	require.Equal(t, Executing, h.scheduler.Phase())
	assert.Less(t, h.vessel.AngularVelocity, 0.0)

	for h.vessel.HasActiveOrder() {
		require.NotEqual(t, 0.0, h.vessel.AngularVelocity)
		h.step()
	}
	assert.Equal(t, 0.0, h.vessel.AngularVelocity)
}

func TestClearDuringPreparation(t *testing.T) {
	h := newHarness(t)
	_, err := h.scheduler.SubmitOrder(entity.FullRight, 3*time.Second)
	require.NoError(t, err)
	_, err = h.scheduler.SubmitOrder(entity.FullAhead, 3*time.Second)
	require.NoError(t, err)

	h.runUntil(time.Second)
	require.Equal(t, Preparing, h.scheduler.Phase())
	position := h.vessel.Position
	rotation := h.vessel.Rotation

	h.scheduler.Clear()

	assert.Equal(t, Idle, h.scheduler.Phase())
	assert.Equal(t, 0, h.scheduler.QueueLen())
	assert.Equal(t, 0.0, h.scheduler.Progress())
	_, ok := h.scheduler.PeekActive()
	assert.False(t, ok)

	h.runUntil(8 * time.Second)

	assert.Equal(t, Idle, h.scheduler.Phase())
	assert.Empty(t, h.eventsOf(event.OrderExecuting))
	assert.Len(t, h.eventsOf(event.OrdersCleared), 1)
	assert.False(t, h.vessel.HasActiveOrder())
	assert.Equal(t, 0.0, h.vessel.TargetSpeed)
	assert.Equal(t, 0.0, h.vessel.AngularVelocity)
	assert.Equal(t, position, h.vessel.Position)
	assert.Equal(t, rotation, h.vessel.Rotation)
}

func TestClearWhileExecutingLeavesOrderRunning(t *testing.T) {
	h := newHarness(t, WithPreparation(0))
	_, err := h.scheduler.SubmitOrder(entity.HalfAhead, 2*time.Second)
	require.NoError(t, err)
	h.step()
	require.Equal(t, Executing, h.scheduler.Phase())

	h.scheduler.Clear()
	assert.Equal(t, Idle, h.scheduler.Phase())
	assert.True(t, h.vessel.HasActiveOrder())

	h.runUntil(3 * time.Second)
	assert.False(t, h.vessel.HasActiveOrder())
	assert.Equal(t, Idle, h.scheduler.Phase())
}

func TestSchedulerProcessesInFIFOOrder(t *testing.T) {
	h := newHarness(t, WithPreparation(100*time.Millisecond))

	kinds := []entity.OrderKind{
		entity.HalfAhead, entity.FullLeft, entity.FullAhead, entity.HalfRight,
		entity.Stop, entity.HalfLeft, entity.FullRight, entity.FullAhead,
	}
	var ids []string
	for i, kind := range kinds {
		cmd, err := h.scheduler.SubmitOrder(kind, time.Duration(200+50*i)*time.Millisecond)
		require.NoError(t, err)
		ids = append(ids, cmd.ID)
	}

	h.runUntil(10 * time.Second)
	require.Equal(t, Idle, h.scheduler.Phase())

	var executed []string
	for _, e := range h.eventsOf(event.OrderExecuting) {
		executed = append(executed, e.CommandID)
	}
	assert.Equal(t, ids, executed, "each command executes once, in submission order")
	assert.Len(t, h.eventsOf(event.OrderCompleted), len(kinds))
}

func TestIdleImpliesEmptyQueue(t *testing.T) {
	h := newHarness(t, WithPreparation(48*time.Millisecond))
	for i := 0; i < 5; i++ {
		_, err := h.scheduler.SubmitOrder(entity.AllOrderKinds()[i], 80*time.Millisecond)
		require.NoError(t, err)
	}

	for h.clock.Now() < 3*time.Second {
		h.step()
		if h.scheduler.Phase() == Idle {
			require.Equal(t, 0, h.scheduler.QueueLen(), "at %v", h.clock.Now())
			_, ok := h.scheduler.PeekActive()
			require.False(t, ok)
		} else {
			_, ok := h.scheduler.PeekActive()
			require.True(t, ok)
		}
	}
}

func TestTickAdvancesOnePhase(t *testing.T) {
	v := &fakeVessel{}
	s, err := NewScheduler(v, clock.NewManual(0), WithPreparation(0))
	require.NoError(t, err)

	_, err = s.SubmitOrder(entity.FullAhead, time.Second)
	require.NoError(t, err)
	_, err = s.SubmitOrder(entity.HalfLeft, time.Second)
	require.NoError(t, err)
	require.Equal(t, Preparing, s.Phase())

	s.Tick()
	assert.Equal(t, Executing, s.Phase())
	assert.Equal(t, []entity.OrderKind{entity.FullAhead}, v.received)

	// Still running
	s.Tick()
	assert.Equal(t, Executing, s.Phase())

	// Completion chains straight into preparing the next command
	v.active = false
	s.Tick()
	assert.Equal(t, Preparing, s.Phase())
	kind, _ := s.PeekActive()
	assert.Equal(t, entity.HalfLeft, kind)
	assert.Len(t, v.received, 1, "the next command is not applied in the same tick")

	s.Tick()
	assert.Equal(t, Executing, s.Phase())
	assert.Equal(t, []entity.OrderKind{entity.FullAhead, entity.HalfLeft}, v.received)

	v.active = false
	s.Tick()
	assert.Equal(t, Idle, s.Phase())
}

func TestProgress(t *testing.T) {
	clk := clock.NewManual(0)
	v := &fakeVessel{}
	s, err := NewScheduler(v, clk, WithPreparation(2*time.Second))
	require.NoError(t, err)

	_, err = s.SubmitOrder(entity.FullAhead, time.Second)
	require.NoError(t, err)

	clk.Advance(500 * time.Millisecond)
	assert.InDelta(t, 0.25, s.Progress(), 1e-9)

	clk.Advance(time.Second)
	assert.InDelta(t, 0.75, s.Progress(), 1e-9)

	// Clock anomaly clamps instead of going negative
	clk.Set(-time.Second)
	assert.Equal(t, 0.0, s.Progress())

	clk.Set(3 * time.Second)
	assert.Equal(t, 1.0, s.Progress())

	s.Tick()
	require.Equal(t, Executing, s.Phase())
	v.progress = 0.4
	assert.Equal(t, 0.4, s.Progress())
}

func TestPreparationHoldsThroughClockAnomaly(t *testing.T) {
	clk := clock.NewManual(time.Minute)
	v := &fakeVessel{}
	s, err := NewScheduler(v, clk, WithPreparation(time.Second))
	require.NoError(t, err)

	_, err = s.SubmitOrder(entity.Stop, time.Second)
	require.NoError(t, err)

	clk.Set(0)
	s.Tick()
	assert.Equal(t, Preparing, s.Phase())
	assert.Empty(t, v.received)
}

func TestEventSequence(t *testing.T) {
	h := newHarness(t, WithPreparation(32*time.Millisecond))
	cmd, err := h.scheduler.SubmitOrder(entity.HalfAhead, 64*time.Millisecond)
	require.NoError(t, err)

	h.runUntil(time.Second)

	var types []event.Type
	for _, e := range h.events {
		types = append(types, e.GetType())
		assert.Equal(t, cmd.ID, e.CommandID)
		assert.Equal(t, "HALF_AHEAD", e.Kind)
	}
	assert.Equal(t, []event.Type{
		event.OrderSubmitted,
		event.OrderPreparing,
		event.OrderExecuting,
		event.OrderCompleted,
	}, types)
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	h := newHarness(t, WithMeter(provider.Meter("test")), WithPreparation(0))

	_, err := h.scheduler.SubmitOrder(entity.FullAhead, 50*time.Millisecond)
	require.NoError(t, err)
	_, err = h.scheduler.SubmitOrder(entity.FullLeft, 50*time.Millisecond)
	require.NoError(t, err)
	_, err = h.scheduler.SubmitOrder(entity.Stop, 0)
	require.Error(t, err)

	h.step()
	h.scheduler.Clear()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(2), sumCounter(t, rm, "helm.orders.submitted"))
	assert.Equal(t, int64(1), sumCounter(t, rm, "helm.orders.rejected"))
	assert.Equal(t, int64(1), sumCounter(t, rm, "helm.orders.executed"))
	assert.Equal(t, int64(1), sumCounter(t, rm, "helm.orders.cleared"))
}

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}
