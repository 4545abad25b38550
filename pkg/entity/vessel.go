// pkg/entity/vessel.go
package entity

import (
	"math"
	"time"

	"github.com/opd-ai/go-helm/pkg/clock"
	"github.com/opd-ai/go-helm/pkg/physics"
)

// VesselStats contains the handling characteristics of a vessel
type VesselStats struct {
	Width                float64 // bounding extent across the beam
	Height               float64 // bounding extent along the keel
	MaxSpeed             float64 // units per second
	Acceleration         float64 // units per second squared, applies to both ramp up and down
	MaxAngularVelocity   float64 // radians per second
	AngularDamping       float64 // exponential decay rate per second
	AngularSnapThreshold float64 // radians per second
}

// DefaultVesselStats returns the stock handling characteristics
func DefaultVesselStats() VesselStats {
	return VesselStats{
		Width:                60,
		Height:               30,
		MaxSpeed:             100,
		Acceleration:         40,
		MaxAngularVelocity:   math.Pi / 4,
		AngularDamping:       3,
		AngularSnapThreshold: 0.001,
	}
}

// Vessel is a remotely commanded boat. It owns its motion state and is the
// only writer of it: orders arrive through ReceiveOrder and everything else
// changes inside Update.
type Vessel struct {
	BaseEntity
	Stats           VesselStats
	AngularVelocity float64 // radians per second, positive turns right
	CurrentSpeed    float64
	TargetSpeed     float64
	ActiveOrder     *Order

	// Bounds limits where the vessel's center may go. Nil means unbounded.
	Bounds *physics.Rect

	clock clock.Source
}

// NewVessel creates a stopped vessel pointing up the screen
func NewVessel(position physics.Vector2D, stats VesselStats, source clock.Source) *Vessel {
	return &Vessel{
		BaseEntity: NewBaseEntity(position, math.Max(stats.Width, stats.Height)/2),
		Stats:      stats,
		clock:      source,
	}
}

// ReceiveOrder puts an order into effect immediately, replacing any active
// one. Throttle orders set the target speed; helm orders set the angular
// velocity outright.
func (v *Vessel) ReceiveOrder(kind OrderKind, duration time.Duration) {
	v.ActiveOrder = &Order{
		Kind:      kind,
		Duration:  duration,
		StartTime: v.clock.Now(),
	}

	switch {
	case kind.IsSpeed():
		v.TargetSpeed = kind.SpeedFraction() * v.Stats.MaxSpeed
	case kind.IsTurn():
		v.AngularVelocity = physics.ClampAbs(
			kind.TurnFraction()*v.Stats.MaxAngularVelocity,
			v.Stats.MaxAngularVelocity,
		)
	}
}

// Update advances the motion state by dt
func (v *Vessel) Update(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	seconds := dt.Seconds()

	v.expireOrder()

	v.CurrentSpeed = physics.Approach(v.CurrentSpeed, v.TargetSpeed, v.Stats.Acceleration*seconds)

	v.Rotation = physics.NormalizeAngle(v.Rotation + v.AngularVelocity*seconds)
	if !v.turnActive() {
		v.AngularVelocity = physics.Damp(
			v.AngularVelocity,
			v.Stats.AngularDamping,
			seconds,
			v.Stats.AngularSnapThreshold,
		)
	}

	v.Velocity = physics.Forward(v.Rotation, v.CurrentSpeed)
	v.BaseEntity.Update(dt)

	if v.Bounds != nil {
		v.Position = v.Bounds.Clamp(v.Position)
	}
}

// expireOrder clears the active order once it has run its duration. A helm
// order stops the turn outright when it ends.
func (v *Vessel) expireOrder() {
	if v.ActiveOrder == nil || !v.ActiveOrder.Expired(v.clock.Now()) {
		return
	}
	if v.ActiveOrder.Kind.IsTurn() {
		v.AngularVelocity = 0
	}
	v.ActiveOrder = nil
}

func (v *Vessel) turnActive() bool {
	return v.ActiveOrder != nil && v.ActiveOrder.Kind.IsTurn()
}

// HasActiveOrder reports whether an order was still in effect at the last Update
func (v *Vessel) HasActiveOrder() bool {
	return v.ActiveOrder != nil
}

// OrderProgress returns how far the active order has run, in [0, 1]
func (v *Vessel) OrderProgress() float64 {
	if v.ActiveOrder == nil {
		return 0
	}
	return v.ActiveOrder.Progress(v.clock.Now())
}

// CurrentOrderKind returns the kind of the active order, if any
func (v *Vessel) CurrentOrderKind() (OrderKind, bool) {
	if v.ActiveOrder == nil {
		return 0, false
	}
	return v.ActiveOrder.Kind, true
}

// Reset stops the vessel at position pointing up the screen and drops any
// active order.
func (v *Vessel) Reset(position physics.Vector2D) {
	v.Position = position
	v.Velocity = physics.Vector2D{}
	v.Rotation = 0
	v.AngularVelocity = 0
	v.CurrentSpeed = 0
	v.TargetSpeed = 0
	v.ActiveOrder = nil
}

// Heading returns the rotation in degrees, clockwise from screen-up
func (v *Vessel) Heading() float64 {
	return v.Rotation * 180 / math.Pi
}
