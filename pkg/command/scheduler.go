package command

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/opd-ai/go-helm/pkg/clock"
	"github.com/opd-ai/go-helm/pkg/entity"
	"github.com/opd-ai/go-helm/pkg/event"
)

// DefaultPreparation is the delay applied by SubmitOrder unless overridden
const DefaultPreparation = 2 * time.Second

// Phase is the scheduler's state
type Phase int

const (
	// Idle means nothing is preparing or executing and the queue is empty
	Idle Phase = iota
	// Preparing means the current command is waiting out its preparation delay
	Preparing
	// Executing means the current command's order is in effect on the vessel
	Executing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Preparing:
		return "PREPARING"
	case Executing:
		return "EXECUTING"
	default:
		return "UNKNOWN"
	}
}

// Vessel is what the scheduler drives. It applies orders and reports whether
// the last one is still running.
type Vessel interface {
	ReceiveOrder(kind entity.OrderKind, duration time.Duration)
	HasActiveOrder() bool
	OrderProgress() float64
}

type queued struct {
	cmd         Command
	submittedAt time.Duration
}

// Scheduler holds a FIFO of commands and moves them through
// IDLE -> PREPARING -> EXECUTING -> IDLE one at a time.
// It is not safe for concurrent use; submit and tick from the same goroutine.
type Scheduler struct {
	vessel      Vessel
	clock       clock.Source
	bus         *event.Bus
	logger      zerolog.Logger
	metrics     *metrics
	preparation time.Duration

	queue            []queued
	current          *Command
	phase            Phase
	preparationStart time.Duration
}

// Option configures a Scheduler
type Option func(*schedulerConfig)

type schedulerConfig struct {
	bus         *event.Bus
	logger      zerolog.Logger
	meter       metric.Meter
	preparation time.Duration
}

// WithEventBus publishes every transition on bus
func WithEventBus(bus *event.Bus) Option {
	return func(c *schedulerConfig) { c.bus = bus }
}

// WithLogger sets the logger used for transition traces
func WithLogger(logger zerolog.Logger) Option {
	return func(c *schedulerConfig) { c.logger = logger }
}

// WithMeter records scheduler metrics on m instead of the global meter
func WithMeter(m metric.Meter) Option {
	return func(c *schedulerConfig) { c.meter = m }
}

// WithPreparation sets the preparation delay used by SubmitOrder
func WithPreparation(d time.Duration) Option {
	return func(c *schedulerConfig) { c.preparation = d }
}

// NewScheduler creates an idle scheduler driving vessel
func NewScheduler(vessel Vessel, source clock.Source, opts ...Option) (*Scheduler, error) {
	cfg := schedulerConfig{
		logger:      zerolog.Nop(),
		preparation: DefaultPreparation,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.preparation < 0 {
		cfg.preparation = 0
	}

	m, err := newMetrics(cfg.meter)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		vessel:      vessel,
		clock:       source,
		bus:         cfg.bus,
		logger:      cfg.logger.With().Str("component", "order_scheduler").Logger(),
		metrics:     m,
		preparation: cfg.preparation,
		phase:       Idle,
	}, nil
}

// SubmitOrder queues an order with the scheduler's preparation delay
func (s *Scheduler) SubmitOrder(kind entity.OrderKind, duration time.Duration) (Command, error) {
	cmd := NewCommand(kind, duration, s.preparation)
	return cmd, s.Submit(cmd)
}

// Submit appends cmd to the queue. When the scheduler is idle the command
// starts preparing before Submit returns. An invalid command is rejected with
// an error wrapping ErrInvalidOrder and the queue is left untouched.
func (s *Scheduler) Submit(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		s.metrics.recordRejected(cmd)
		s.logger.Debug().Err(err).Str("command_id", cmd.ID).Msg("order rejected")
		if s.bus != nil {
			ev := s.orderEvent(event.OrderRejected, cmd)
			ev.Reason = err.Error()
			s.bus.Publish(ev)
		}
		return err
	}

	s.queue = append(s.queue, queued{cmd: cmd, submittedAt: s.clock.Now()})
	s.metrics.queued.Store(int64(len(s.queue)))
	s.metrics.recordSubmitted(cmd)
	s.logger.Debug().
		Str("command_id", cmd.ID).
		Stringer("kind", cmd.Kind).
		Dur("duration", cmd.Duration).
		Dur("preparation", cmd.Preparation).
		Int("queue_len", len(s.queue)).
		Msg("order submitted")
	s.publish(event.OrderSubmitted, cmd)

	if s.phase == Idle {
		s.startNext()
	}
	return nil
}

// Tick advances the state machine by at most one phase. Completing an order
// and starting the next queued one count as a single advance.
func (s *Scheduler) Tick() {
	switch s.phase {
	case Idle:
		s.startNext()
	case Preparing:
		if clock.Elapsed(s.clock, s.preparationStart) >= s.current.Preparation {
			s.execute()
		}
	case Executing:
		if !s.vessel.HasActiveOrder() {
			s.complete()
			s.startNext()
		}
	}
}

// startNext moves the head of the queue into preparation
func (s *Scheduler) startNext() {
	if len(s.queue) == 0 {
		return
	}

	next := s.queue[0]
	s.queue[0] = queued{}
	s.queue = s.queue[1:]
	s.metrics.queued.Store(int64(len(s.queue)))

	now := s.clock.Now()
	cmd := next.cmd
	s.current = &cmd
	s.phase = Preparing
	s.preparationStart = now

	wait := now - next.submittedAt
	if wait < 0 {
		wait = 0
	}
	s.metrics.recordQueueWait(cmd, wait)
	s.logger.Debug().
		Str("command_id", cmd.ID).
		Stringer("kind", cmd.Kind).
		Dur("queue_wait", wait).
		Msg("order preparing")
	s.publish(event.OrderPreparing, cmd)
}

// execute applies the current command to the vessel
func (s *Scheduler) execute() {
	cmd := *s.current
	s.vessel.ReceiveOrder(cmd.Kind, cmd.Duration)
	s.phase = Executing

	s.metrics.recordExecuted(cmd)
	s.logger.Debug().
		Str("command_id", cmd.ID).
		Stringer("kind", cmd.Kind).
		Msg("order executing")
	s.publish(event.OrderExecuting, cmd)
}

// complete retires the current command once the vessel has expired its order
func (s *Scheduler) complete() {
	cmd := *s.current
	s.current = nil
	s.phase = Idle

	s.logger.Debug().
		Str("command_id", cmd.ID).
		Stringer("kind", cmd.Kind).
		Msg("order completed")
	s.publish(event.OrderCompleted, cmd)
}

// Clear drops every queued command and abandons the current one. A command
// still preparing never reaches the vessel; an order already executing keeps
// running on the vessel until it expires.
func (s *Scheduler) Clear() {
	dropped := len(s.queue)
	for _, q := range s.queue {
		s.metrics.recordCleared(q.cmd)
	}
	if s.current != nil && s.phase == Preparing {
		s.metrics.recordCleared(*s.current)
		dropped++
	}

	s.queue = nil
	s.current = nil
	s.phase = Idle
	s.metrics.queued.Store(0)

	s.logger.Debug().Int("dropped", dropped).Msg("orders cleared")
	if s.bus != nil {
		ev := event.NewOrderEvent(event.OrdersCleared, s, "", "", 0, 0, s.clock.Now())
		s.bus.Publish(ev)
	}
}

// Phase returns the current state
func (s *Scheduler) Phase() Phase {
	return s.phase
}

// PeekActive returns the kind of the command preparing or executing
func (s *Scheduler) PeekActive() (entity.OrderKind, bool) {
	if s.current == nil {
		return 0, false
	}
	return s.current.Kind, true
}

// Current returns the command preparing or executing
func (s *Scheduler) Current() (Command, bool) {
	if s.current == nil {
		return Command{}, false
	}
	return *s.current, true
}

// Progress reports how far along the current command is, in [0, 1]: the
// preparation fraction while preparing, the vessel's order progress while
// executing, and 0 when idle.
func (s *Scheduler) Progress() float64 {
	switch s.phase {
	case Preparing:
		if s.current.Preparation <= 0 {
			return 1
		}
		p := float64(clock.Elapsed(s.clock, s.preparationStart)) / float64(s.current.Preparation)
		if p > 1 {
			return 1
		}
		return p
	case Executing:
		return s.vessel.OrderProgress()
	default:
		return 0
	}
}

// Queued lists the kinds waiting behind the current command, oldest first
func (s *Scheduler) Queued() []entity.OrderKind {
	kinds := make([]entity.OrderKind, len(s.queue))
	for i, q := range s.queue {
		kinds[i] = q.cmd.Kind
	}
	return kinds
}

// QueueLen returns the number of commands waiting behind the current one
func (s *Scheduler) QueueLen() int {
	return len(s.queue)
}

// Preparation returns the delay SubmitOrder applies
func (s *Scheduler) Preparation() time.Duration {
	return s.preparation
}

func (s *Scheduler) orderEvent(t event.Type, cmd Command) *event.OrderEvent {
	return event.NewOrderEvent(t, s, cmd.ID, cmd.Kind.String(), cmd.Duration, cmd.Preparation, s.clock.Now())
}

func (s *Scheduler) publish(t event.Type, cmd Command) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(s.orderEvent(t, cmd))
}
