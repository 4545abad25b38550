// pkg/entity/order.go
package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownOrderKind is returned when parsing an unrecognised order name.
var ErrUnknownOrderKind = errors.New("unknown order kind")

// OrderKind enumerates the helm and throttle orders a vessel accepts
type OrderKind int

const (
	Stop OrderKind = iota
	HalfAhead
	FullAhead
	HalfLeft
	FullLeft
	HalfRight
	FullRight
)

var orderKindNames = [...]string{
	Stop:      "STOP",
	HalfAhead: "HALF_AHEAD",
	FullAhead: "FULL_AHEAD",
	HalfLeft:  "HALF_LEFT",
	FullLeft:  "FULL_LEFT",
	HalfRight: "HALF_RIGHT",
	FullRight: "FULL_RIGHT",
}

// Older order names still accepted by ParseOrderKind.
var orderKindAliases = map[string]OrderKind{
	"NO_SPEED":   Stop,
	"HALF_SPEED": HalfAhead,
	"FULL_SPEED": FullAhead,
}

// AllOrderKinds lists every order kind in declaration order.
func AllOrderKinds() []OrderKind {
	return []OrderKind{Stop, HalfAhead, FullAhead, HalfLeft, FullLeft, HalfRight, FullRight}
}

// String returns the canonical order name
func (k OrderKind) String() string {
	if k.Valid() {
		return orderKindNames[k]
	}
	return fmt.Sprintf("OrderKind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds
func (k OrderKind) Valid() bool {
	return k >= Stop && k <= FullRight
}

// IsTurn reports whether k is a helm order
func (k OrderKind) IsTurn() bool {
	switch k {
	case HalfLeft, FullLeft, HalfRight, FullRight:
		return true
	}
	return false
}

// IsSpeed reports whether k is a throttle order
func (k OrderKind) IsSpeed() bool {
	switch k {
	case Stop, HalfAhead, FullAhead:
		return true
	}
	return false
}

// SpeedFraction is the share of maximum speed a throttle order asks for.
func (k OrderKind) SpeedFraction() float64 {
	switch k {
	case HalfAhead:
		return 0.5
	case FullAhead:
		return 1
	default:
		return 0
	}
}

// TurnFraction is the signed share of maximum angular velocity a helm order
// asks for. Right (clockwise) is positive.
func (k OrderKind) TurnFraction() float64 {
	switch k {
	case HalfLeft:
		return -0.5
	case FullLeft:
		return -1
	case HalfRight:
		return 0.5
	case FullRight:
		return 1
	default:
		return 0
	}
}

// ParseOrderKind converts an order name to an OrderKind, ignoring case.
func ParseOrderKind(s string) (OrderKind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	for k, n := range orderKindNames {
		if n == name {
			return OrderKind(k), nil
		}
	}
	if k, ok := orderKindAliases[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrderKind, s)
}

// MarshalText implements encoding.TextMarshaler
func (k OrderKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrderKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *OrderKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Order is the instruction currently in effect on a vessel
type Order struct {
	Kind      OrderKind
	Duration  time.Duration
	StartTime time.Duration
}

// Elapsed returns how long the order has been in effect at now, never negative.
func (o Order) Elapsed(now time.Duration) time.Duration {
	if now < o.StartTime {
		return 0
	}
	return now - o.StartTime
}

// Expired reports whether the order has run its full duration at now.
func (o Order) Expired(now time.Duration) bool {
	return o.Elapsed(now) >= o.Duration
}

// Progress returns elapsed/duration clamped to [0, 1].
func (o Order) Progress(now time.Duration) float64 {
	if o.Duration <= 0 {
		return 1
	}
	p := float64(o.Elapsed(now)) / float64(o.Duration)
	if p > 1 {
		return 1
	}
	return p
}
