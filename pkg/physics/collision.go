// pkg/physics/collision.go
package physics

import "math"

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Collides checks if two circles are overlapping. Touching circles do not collide.
func (c Circle) Collides(other Circle) bool {
	return c.Center.Distance(other.Center) < c.Radius+other.Radius
}

// Rect represents a rectangular area around its center
type Rect struct {
	Center Vector2D
	Width  float64
	Height float64
}

// NewRectFromCorner builds a Rect from its top-left corner and size.
func NewRectFromCorner(x, y, width, height float64) Rect {
	return Rect{
		Center: Vector2D{X: x + width/2, Y: y + height/2},
		Width:  width,
		Height: height,
	}
}

// Min returns the top-left corner.
func (r Rect) Min() Vector2D {
	return Vector2D{X: r.Center.X - r.Width/2, Y: r.Center.Y - r.Height/2}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Vector2D {
	return Vector2D{X: r.Center.X + r.Width/2, Y: r.Center.Y + r.Height/2}
}

// Contains reports whether point lies inside the rect, edges included.
func (r Rect) Contains(point Vector2D) bool {
	lo, hi := r.Min(), r.Max()
	return point.X >= lo.X && point.X <= hi.X &&
		point.Y >= lo.Y && point.Y <= hi.Y
}

// Clamp returns the point nearest to p that lies inside the rect.
func (r Rect) Clamp(p Vector2D) Vector2D {
	lo, hi := r.Min(), r.Max()
	return Vector2D{
		X: math.Max(lo.X, math.Min(hi.X, p.X)),
		Y: math.Max(lo.Y, math.Min(hi.Y, p.Y)),
	}
}

// Inset shrinks the rect by dx on the left and right and dy on the top and
// bottom. A rect inset past zero collapses onto its center.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{
		Center: r.Center,
		Width:  math.Max(0, r.Width-2*dx),
		Height: math.Max(0, r.Height-2*dy),
	}
}
