// pkg/physics/vector.go
package physics

import "math"

// Vector2D is a 2D vector in arena coordinates (x right, y down).
type Vector2D struct {
	X float64
	Y float64
}

// Add returns the sum of two vectors
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X + other.X,
		Y: v.Y + other.Y,
	}
}

// Sub returns the difference between two vectors
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X - other.X,
		Y: v.Y - other.Y,
	}
}

// Scale multiplies the vector by a scalar value
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D{
		X: v.X * factor,
		Y: v.Y * factor,
	}
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance returns the distance between two points
func (v Vector2D) Distance(other Vector2D) float64 {
	return v.Sub(other).Length()
}

// Forward returns the heading vector for rotation scaled by magnitude.
// Rotation 0 points up the screen (negative Y) and grows clockwise, so a
// rotation of π/2 points along positive X.
func Forward(rotation float64, magnitude float64) Vector2D {
	return Vector2D{
		X: magnitude * math.Sin(rotation),
		Y: -magnitude * math.Cos(rotation),
	}
}
