// pkg/engine/state.go
package engine

import (
	"time"

	"github.com/opd-ai/go-helm/pkg/physics"
)

// State is a consistent snapshot of a simulation for observers
type State struct {
	Tick     uint64        `json:"tick"`
	GameTime time.Duration `json:"gameTime"`
	Status   string        `json:"status"`
	Elapsed  time.Duration `json:"elapsed,omitempty"` // set once the target is reached
	Vessel   VesselState   `json:"vessel"`
	Target   TargetState   `json:"target"`
	Orders   OrderState    `json:"orders"`
}

// VesselState holds the vessel's observable motion
type VesselState struct {
	Position        physics.Vector2D `json:"position"`
	Velocity        physics.Vector2D `json:"velocity"`
	Rotation        float64          `json:"rotation"`
	Heading         float64          `json:"heading"`
	Speed           float64          `json:"speed"`
	TargetSpeed     float64          `json:"targetSpeed"`
	AngularVelocity float64          `json:"angularVelocity"`
}

// TargetState holds the target's position
type TargetState struct {
	Position physics.Vector2D `json:"position"`
	Radius   float64          `json:"radius"`
}

// OrderState describes the scheduler
type OrderState struct {
	Phase    string   `json:"phase"`
	Current  string   `json:"current,omitempty"`
	Progress float64  `json:"progress"`
	Queued   []string `json:"queued,omitempty"`
}

// GetState returns a snapshot of the simulation
func (s *Simulation) GetState() *State {
	s.lock.Lock()
	defer s.lock.Unlock()

	v := s.Vessel
	state := &State{
		Tick:     s.CurrentTick,
		GameTime: s.clock.Now(),
		Status:   s.Status.String(),
		Elapsed:  s.Elapsed,
		Vessel: VesselState{
			Position:        v.Position,
			Velocity:        v.Velocity,
			Rotation:        v.Rotation,
			Heading:         v.Heading(),
			Speed:           v.CurrentSpeed,
			TargetSpeed:     v.TargetSpeed,
			AngularVelocity: v.AngularVelocity,
		},
		Target: TargetState{
			Position: s.Target.Position,
			Radius:   s.Target.Radius,
		},
		Orders: OrderState{
			Phase:    s.scheduler.Phase().String(),
			Progress: s.scheduler.Progress(),
		},
	}

	if kind, ok := s.scheduler.PeekActive(); ok {
		state.Orders.Current = kind.String()
	}
	for _, kind := range s.scheduler.Queued() {
		state.Orders.Queued = append(state.Orders.Queued, kind.String())
	}
	return state
}
