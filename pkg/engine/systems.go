// pkg/engine/systems.go
package engine

import (
	"time"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-helm/pkg/entity"
)

// System priorities. The world runs higher priorities first, which gives the
// per-frame order: scheduler, vessel, target, win check.
const (
	orderPriority  = 30
	motionPriority = 20
	patrolPriority = 10
	arenaPriority  = 0
)

// orderSystem ticks the order scheduler once per frame
type orderSystem struct {
	sim *Simulation
}

func (s *orderSystem) Priority() int { return orderPriority }

func (s *orderSystem) Update(float32) {
	s.sim.scheduler.Tick()
}

func (s *orderSystem) Remove(ecs.BasicEntity) {}

// movementSystem integrates a set of entities by the simulation's frame step.
// The float32 delta from the world is ignored in favour of the exact step.
type movementSystem struct {
	sim      *Simulation
	priority int
	entities []entity.Entity
}

func (s *movementSystem) Priority() int { return s.priority }

func (s *movementSystem) Add(e entity.Entity) {
	s.entities = append(s.entities, e)
}

func (s *movementSystem) Update(float32) {
	dt := s.sim.frameDelta
	for _, e := range s.entities {
		e.Update(dt)
	}
}

func (s *movementSystem) Remove(basic ecs.BasicEntity) {
	for i, e := range s.entities {
		if e.GetID() == basic.ID() {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			return
		}
	}
}

// arenaSystem checks the win condition after everything has moved
type arenaSystem struct {
	sim *Simulation
}

func (s *arenaSystem) Priority() int { return arenaPriority }

func (s *arenaSystem) Update(float32) {
	s.sim.checkWinCondition()
}

func (s *arenaSystem) Remove(ecs.BasicEntity) {}

// newWorld assembles the per-frame pipeline for sim
func newWorld(sim *Simulation) *ecs.World {
	motion := &movementSystem{sim: sim, priority: motionPriority}
	motion.Add(sim.Vessel)

	patrol := &movementSystem{sim: sim, priority: patrolPriority}
	patrol.Add(sim.Target)

	world := &ecs.World{}
	world.AddSystem(&orderSystem{sim: sim})
	world.AddSystem(motion)
	world.AddSystem(patrol)
	world.AddSystem(&arenaSystem{sim: sim})
	return world
}

func seconds(d time.Duration) float32 {
	return float32(d.Seconds())
}
