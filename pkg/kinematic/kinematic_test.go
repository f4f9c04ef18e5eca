package kinematic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromAngle(t *testing.T) {
	v := FromAngle(90)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, 1, v.Y, 1e-9)
}

func TestVector_Rotate(t *testing.T) {
	v := Vector{X: 16, Y: 16}.Rotate(90)
	assert.InDelta(t, -16, v.X, 1e-9)
	assert.InDelta(t, 16, v.Y, 1e-9)
}

func TestVector_Angle(t *testing.T) {
	assert.InDelta(t, 80, FromAngle(80).Angle(), 1e-9)
	assert.InDelta(t, -45, Vector{X: 1, Y: -1}.Angle(), 1e-9)
}

func TestDisplacement(t *testing.T) {
	assert.Equal(t, Vector{X: 5, Y: -2.5}, Displacement(Vector{X: 10, Y: -5}, 0.5))
}
