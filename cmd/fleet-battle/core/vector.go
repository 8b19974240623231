package core

import "math"

// epsilon is the floor applied to distances before any division so that
// coincident positions never produce NaN directions.
const epsilon = 0.001

// Vector2 represents a 2D position or direction in open-space coordinates.
type Vector2 struct {
	X, Y float64
}

func (v Vector2) Add(other Vector2) Vector2 {
	return Vector2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vector2) Sub(other Vector2) Vector2 {
	return Vector2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

func (v Vector2) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vector2) Normalize() Vector2 {
	mag := v.Magnitude()
	if mag < epsilon {
		return Vector2{}
	}
	return v.Scale(1.0 / mag)
}

func (v Vector2) DistanceTo(other Vector2) float64 {
	return v.Sub(other).Magnitude()
}

// Perpendicular returns the vector rotated 90 degrees counter-clockwise.
func (v Vector2) Perpendicular() Vector2 {
	return Vector2{X: -v.Y, Y: v.X}
}

// Bearing returns the world-frame angle of the vector in degrees.
func (v Vector2) Bearing() float64 {
	return math.Atan2(v.Y, v.X) * 180.0 / math.Pi
}

// HeadingVector returns the unit vector pointing along a heading in degrees.
func HeadingVector(deg float64) Vector2 {
	rad := deg * math.Pi / 180.0
	return Vector2{X: math.Cos(rad), Y: math.Sin(rad)}
}

// NormalizeAngle wraps an angle in degrees into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	wrapped := math.Mod(deg+180.0, 360.0)
	if wrapped < 0 {
		wrapped += 360.0
	}
	result := wrapped - 180.0
	if result == -180.0 {
		return 180.0
	}
	return result
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
