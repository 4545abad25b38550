// pkg/entity/entity.go
package entity

import (
	"time"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-helm/pkg/physics"
)

// Entity is the base interface for simulated objects
type Entity interface {
	GetID() uint64
	GetPosition() physics.Vector2D
	GetCollider() physics.Circle
	Update(dt time.Duration)
}

// BaseEntity contains common functionality for all entities. Identity comes
// from the embedded ecs.BasicEntity so entities can be handed to ecs systems.
type BaseEntity struct {
	ecs.BasicEntity
	Position physics.Vector2D
	Velocity physics.Vector2D
	Rotation float64 // radians, clockwise from screen-up
	Radius   float64
}

// NewBaseEntity creates a BaseEntity with a fresh ecs identity
func NewBaseEntity(position physics.Vector2D, radius float64) BaseEntity {
	return BaseEntity{
		BasicEntity: ecs.NewBasic(),
		Position:    position,
		Radius:      radius,
	}
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() uint64 {
	return e.BasicEntity.ID()
}

// GetPosition returns the entity's position
func (e *BaseEntity) GetPosition() physics.Vector2D {
	return e.Position
}

// GetCollider returns the entity's collision shape
func (e *BaseEntity) GetCollider() physics.Circle {
	return physics.Circle{
		Center: e.Position,
		Radius: e.Radius,
	}
}

// Update integrates position from velocity over dt
func (e *BaseEntity) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	e.Position = e.Position.Add(e.Velocity.Scale(dt.Seconds()))
}
