// pkg/engine/simulation.go
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/opd-ai/go-helm/pkg/clock"
	"github.com/opd-ai/go-helm/pkg/command"
	"github.com/opd-ai/go-helm/pkg/config"
	"github.com/opd-ai/go-helm/pkg/entity"
	"github.com/opd-ai/go-helm/pkg/event"
	"github.com/opd-ai/go-helm/pkg/physics"
)

// ErrNotPlaying is returned when orders are submitted to a paused or finished run
var ErrNotPlaying = errors.New("simulation is not playing")

// Status is the simulation's run state
type Status int

const (
	StatusPlaying Status = iota
	StatusWon
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "PLAYING"
	case StatusWon:
		return "WON"
	case StatusPaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// WinCondition decides when a run is over
type WinCondition interface {
	Reached(sim *Simulation) bool
}

// TargetContact wins when the vessel touches the target
type TargetContact struct{}

// Reached implements WinCondition
func (TargetContact) Reached(sim *Simulation) bool {
	return sim.Target.Reached(sim.Vessel)
}

// Simulation drives the vessel, its order scheduler and the target through a
// fixed per-frame pipeline. All methods are safe for concurrent use. Event
// handlers run with the simulation locked and must not call back into it.
type Simulation struct {
	Config   *config.SimConfig
	Vessel   *entity.Vessel
	Target   *entity.Target
	EventBus *event.Bus
	Arena    physics.Rect

	Status      Status
	CurrentTick uint64
	Elapsed     time.Duration // game time when the target was reached

	CustomWinCondition WinCondition // replaces TargetContact when set

	lock       sync.Mutex
	clock      *clock.Manual
	scheduler  *command.Scheduler
	world      *ecs.World
	frameDelta time.Duration
	logger     zerolog.Logger
}

// Option configures a Simulation
type Option func(*options)

type options struct {
	logger zerolog.Logger
	meter  metric.Meter
	bus    *event.Bus
	win    WinCondition
}

// WithLogger sets the logger for the simulation and its scheduler
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMeter records scheduler metrics on m
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithEventBus publishes on bus instead of a private one
func WithEventBus(bus *event.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithWinCondition replaces the target contact check
func WithWinCondition(w WinCondition) Option {
	return func(o *options) { o.win = w }
}

// NewSimulation lays out the arena, vessel and target described by cfg
func NewSimulation(cfg *config.SimConfig, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = event.NewEventBus()
	}

	sim := &Simulation{
		Config:             cfg,
		EventBus:           o.bus,
		Arena:              physics.NewRectFromCorner(0, 0, cfg.Arena.Width, cfg.Arena.Height),
		Status:             StatusPlaying,
		CustomWinCondition: o.win,
		clock:              clock.NewManual(0),
		logger:             o.logger.With().Str("component", "simulation").Logger(),
	}

	sim.Vessel = entity.NewVessel(sim.vesselStart(), cfg.Vessel.Stats(), sim.clock)
	bounds := sim.Arena.Inset(
		cfg.Arena.Margin+cfg.Vessel.Width/2,
		cfg.Arena.Margin+cfg.Vessel.Height/2,
	)
	sim.Vessel.Bounds = &bounds

	sim.Target = entity.NewTarget(sim.targetStart(), cfg.Target.Radius, cfg.Target.Speed, sim.Arena)

	scheduler, err := command.NewScheduler(sim.Vessel, sim.clock,
		command.WithEventBus(o.bus),
		command.WithLogger(o.logger),
		command.WithMeter(o.meter),
		command.WithPreparation(cfg.Orders.Preparation()),
	)
	if err != nil {
		return nil, err
	}
	sim.scheduler = scheduler
	sim.world = newWorld(sim)

	return sim, nil
}

func (s *Simulation) vesselStart() physics.Vector2D {
	return physics.Vector2D{
		X: s.Config.Arena.Width / 2,
		Y: s.Config.Arena.Height - s.Config.Vessel.StartOffset,
	}
}

func (s *Simulation) targetStart() physics.Vector2D {
	return physics.Vector2D{
		X: s.Config.Arena.Width / 2,
		Y: s.Config.Target.Offset,
	}
}

// Start announces the beginning of a run
func (s *Simulation) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.Status = StatusPlaying
	s.logger.Info().
		Float64("vessel_x", s.Vessel.Position.X).
		Float64("vessel_y", s.Vessel.Position.Y).
		Msg("simulation started")
	s.EventBus.Publish(&event.BaseEvent{
		EventType: event.SimulationStarted,
		Source:    s,
	})
}

// Step advances the simulation by dt. Negative steps count as zero and steps
// longer than the configured maximum are capped. Paused and finished runs do
// not advance.
func (s *Simulation) Step(dt time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Status != StatusPlaying {
		return
	}

	if dt < 0 {
		dt = 0
	}
	if limit := s.Config.Loop.MaxFrameStep(); dt > limit {
		dt = limit
	}

	s.clock.Advance(dt)
	s.frameDelta = dt
	s.world.Update(seconds(dt))
	s.CurrentTick++
}

// checkWinCondition is called by the arena system with the lock held
func (s *Simulation) checkWinCondition() {
	if s.Status != StatusPlaying {
		return
	}

	var win WinCondition = TargetContact{}
	if s.CustomWinCondition != nil {
		win = s.CustomWinCondition
	}
	if !win.Reached(s) {
		return
	}

	s.Status = StatusWon
	s.Elapsed = s.clock.Now()
	s.logger.Info().Dur("elapsed", s.Elapsed).Msg("target reached")
	s.EventBus.Publish(event.NewTargetEvent(s, s.Vessel.GetID(), s.Elapsed))
}

// Pause freezes a playing simulation
func (s *Simulation) Pause() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Status != StatusPlaying {
		return
	}
	s.Status = StatusPaused
	s.logger.Info().Dur("game_time", s.clock.Now()).Msg("simulation paused")
	s.EventBus.Publish(&event.BaseEvent{EventType: event.SimulationPaused, Source: s})
}

// Resume continues a paused simulation
func (s *Simulation) Resume() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Status != StatusPaused {
		return
	}
	s.Status = StatusPlaying
	s.logger.Info().Dur("game_time", s.clock.Now()).Msg("simulation resumed")
	s.EventBus.Publish(&event.BaseEvent{EventType: event.SimulationResumed, Source: s})
}

// Reset puts the vessel and target back at their start positions, drops all
// orders and restarts game time.
func (s *Simulation) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.scheduler.Clear()
	s.clock.Set(0)
	s.Vessel.Reset(s.vesselStart())
	s.Target.Reset(s.targetStart())

	s.Status = StatusPlaying
	s.Elapsed = 0
	s.CurrentTick = 0
	s.frameDelta = 0

	s.logger.Info().Msg("simulation reset")
	s.EventBus.Publish(&event.BaseEvent{EventType: event.SimulationReset, Source: s})
}

// SubmitOrder queues an order with the configured preparation delay
func (s *Simulation) SubmitOrder(kind entity.OrderKind, duration time.Duration) (command.Command, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Status == StatusWon {
		return command.Command{}, ErrNotPlaying
	}
	return s.scheduler.SubmitOrder(kind, duration)
}

// Submit queues a fully specified command
func (s *Simulation) Submit(cmd command.Command) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Status == StatusWon {
		return ErrNotPlaying
	}
	return s.scheduler.Submit(cmd)
}

// ClearOrders drops every queued and preparing order
func (s *Simulation) ClearOrders() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.scheduler.Clear()
}

// CurrentOrderKind returns the kind of the order preparing or executing
func (s *Simulation) CurrentOrderKind() (entity.OrderKind, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.scheduler.PeekActive()
}

// OrderProgress returns the scheduler's progress for the current order
func (s *Simulation) OrderProgress() float64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.scheduler.Progress()
}

// SchedulerPhase returns the scheduler's state
func (s *Simulation) SchedulerPhase() command.Phase {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.scheduler.Phase()
}

// QueuedOrders lists orders waiting behind the current one
func (s *Simulation) QueuedOrders() []entity.OrderKind {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.scheduler.Queued()
}

// GameTime returns simulated time since the run started
func (s *Simulation) GameTime() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.clock.Now()
}

// GetStatus returns the run state
func (s *Simulation) GetStatus() Status {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.Status
}
