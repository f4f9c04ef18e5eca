package kinematic

// This package includes the small amount of 2D vector math the arena needs.

import (
	"math"
)

// Vector is a 2D vector in world pixels.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

// FromAngle returns the unit vector pointing at angle degrees,
// measured counter-clockwise from the positive X axis.
func FromAngle(degrees float64) Vector {
	r := Radians(degrees)
	return Vector{X: math.Cos(r), Y: math.Sin(r)}
}

// Rotate rotates v around the origin by degrees.
func (v Vector) Rotate(degrees float64) Vector {
	r := Radians(degrees)
	sin, cos := math.Sin(r), math.Cos(r)
	return Vector{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Angle returns the direction of v in degrees.
func (v Vector) Angle() float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Displacement returns the displacement of an object given its velocity and time.
func Displacement(velocity Vector, time float64) Vector {
	return velocity.Scale(time)
}
