package physics

import "math"

// FullTurn is one revolution in radians.
const FullTurn = 2 * math.Pi

// NormalizeAngle wraps an angle into [0, 2π).
func NormalizeAngle(angle float64) float64 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	a := math.Mod(angle, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	// math.Mod of a tiny negative value can round back up to exactly 2π.
	if a >= FullTurn {
		a = 0
	}
	return a
}

// Approach moves current toward target by at most maxDelta and never past it.
func Approach(current, target, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return current
	}
	if current < target {
		return math.Min(current+maxDelta, target)
	}
	if current > target {
		return math.Max(current-maxDelta, target)
	}
	return current
}

// Damp applies exponential decay value·e^(−rate·dt) and snaps results whose
// magnitude falls below threshold to zero.
func Damp(value, rate, dt, threshold float64) float64 {
	if dt > 0 && rate > 0 {
		value *= math.Exp(-rate * dt)
	}
	if math.Abs(value) < threshold {
		return 0
	}
	return value
}

// ClampAbs limits value to [-limit, limit].
func ClampAbs(value, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, value))
}
