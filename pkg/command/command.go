// Package command queues operator orders and feeds them to a vessel one at a
// time, each after a preparation delay.
package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opd-ai/go-helm/pkg/entity"
)

// ErrInvalidOrder is returned when a command cannot be accepted
var ErrInvalidOrder = errors.New("invalid order")

// Command is an operator request that has not yet taken effect
type Command struct {
	ID          string
	Kind        entity.OrderKind
	Duration    time.Duration // how long the order stays in effect once applied
	Preparation time.Duration // delay between acceptance and application
}

// NewCommand creates a command with a fresh ID
func NewCommand(kind entity.OrderKind, duration, preparation time.Duration) Command {
	return Command{
		ID:          uuid.NewString(),
		Kind:        kind,
		Duration:    duration,
		Preparation: preparation,
	}
}

// Validate reports why a command cannot be queued, wrapping ErrInvalidOrder
func (c Command) Validate() error {
	switch {
	case !c.Kind.Valid():
		return fmt.Errorf("unknown order kind %d: %w", int(c.Kind), ErrInvalidOrder)
	case c.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %v: %w", c.Duration, ErrInvalidOrder)
	case c.Preparation < 0:
		return fmt.Errorf("preparation must not be negative, got %v: %w", c.Preparation, ErrInvalidOrder)
	}
	return nil
}

func (c Command) String() string {
	return fmt.Sprintf("%s for %v after %v", c.Kind, c.Duration, c.Preparation)
}
