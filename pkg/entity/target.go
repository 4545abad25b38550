// pkg/entity/target.go
package entity

import (
	"time"

	"github.com/opd-ai/go-helm/pkg/physics"
)

// Target is the destination buoy. It drifts back and forth across its patrol
// area, turning around when its edge meets the area's edge.
type Target struct {
	BaseEntity
	Speed     float64
	Direction float64 // +1 moving right, -1 moving left
	Patrol    physics.Rect
}

// NewTarget creates a target patrolling horizontally inside patrol
func NewTarget(position physics.Vector2D, radius, speed float64, patrol physics.Rect) *Target {
	return &Target{
		BaseEntity: NewBaseEntity(position, radius),
		Speed:      speed,
		Direction:  1,
		Patrol:     patrol,
	}
}

// Update moves the target along its patrol line
func (t *Target) Update(dt time.Duration) {
	t.Velocity = physics.Vector2D{X: t.Speed * t.Direction}
	t.BaseEntity.Update(dt)

	lo, hi := t.Patrol.Min(), t.Patrol.Max()
	switch {
	case t.Position.X+t.Radius >= hi.X:
		t.Direction = -1
		t.Position.X = hi.X - t.Radius
	case t.Position.X-t.Radius <= lo.X:
		t.Direction = 1
		t.Position.X = lo.X + t.Radius
	}
}

// Reached reports whether the vessel's bounding circle overlaps the target
func (t *Target) Reached(v *Vessel) bool {
	return t.GetCollider().Collides(v.GetCollider())
}

// Reset moves the target back to position heading right
func (t *Target) Reset(position physics.Vector2D) {
	t.Position = position
	t.Velocity = physics.Vector2D{}
	t.Direction = 1
}
