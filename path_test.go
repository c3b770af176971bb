package guraffic

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveEndpointsAreClamped(t *testing.T) {

	points := []mgl64.Vec3{{0, 0, 0}, {1, 2, 0}, {3, 2, 1}, {4, 0, 0}, {6, 1, -2}, {8, 0, 0}}
	curve, err := NewCurve(3, points...)
	require.NoError(t, err)

	assertVec(t, points[0], curve.Point(0))
	assertVec(t, points[len(points)-1], curve.Point(1))
	assertVec(t, points[0], curve.Point(-3))
	assertVec(t, points[len(points)-1], curve.Point(7))

	// The clamped curve leaves its first point heading towards the second.
	d := curve.Derivative(0).Normalize()
	assertVec(t, points[1].Sub(points[0]).Normalize(), d)

}

func TestCubicCurveIsBezier(t *testing.T) {

	p := []mgl64.Vec3{{0, 0, 0}, {0, 4, 0}, {4, 4, 0}, {4, 0, 0}}
	curve, err := NewCurve(3, p...)
	require.NoError(t, err)

	mid := p[0].Add(p[1].Mul(3)).Add(p[2].Mul(3)).Add(p[3]).Mul(1.0 / 8)
	assertVec(t, mid, curve.Point(0.5))
	assertVec(t, p[1].Sub(p[0]).Mul(3), curve.Derivative(0))

}

func TestLinearCurve(t *testing.T) {

	curve, err := NewCurve(1, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, 0})
	require.NoError(t, err)

	assertVec(t, mgl64.Vec3{5, 0, 0}, curve.Point(0.5))
	assertVec(t, mgl64.Vec3{10, 0, 0}, curve.Derivative(0.3))
	assert.InDelta(t, 10, curve.Length(8), 1e-9)

}

func TestCurveValidation(t *testing.T) {

	_, err := NewCurve(3, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedFile)

	_, err = NewCurve(0, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedFile)

	_, err = NewCurve(1, mgl64.Vec3{}, mgl64.Vec3{1, 0, math.Inf(1)})
	assert.ErrorIs(t, err, ErrNonFinite)

}

func TestPathFollower(t *testing.T) {

	g := NewGraph()
	h := newEntity(t, g, "Dino")
	tail := newEntity(t, g, "Tail", WithParent(h), WithPosition(mgl64.Vec3{0, 0, -1}))

	curve, err := NewCurve(1, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{20, 0, 0})
	require.NoError(t, err)

	follower := NewPathFollower(g, h, curve)
	follower.Period = 10

	require.NoError(t, follower.Update(2.5))
	assert.InDelta(t, 0.25, follower.Progress(), 1e-9)
	assertVec(t, mgl64.Vec3{5, 0, 0}, g.Position(h))

	// Local +Z follows the curve, and the tail trails behind.
	assertVec(t, mgl64.Vec3{1, 0, 0}, g.Rotation(h).Rotate(mgl64.Vec3{0, 0, 1}))
	assertVec(t, mgl64.Vec3{0, 1, 0}, g.Up(h))
	assertVec(t, mgl64.Vec3{4, 0, 0}, g.WorldPosition(tail))

	// Laps wrap around.
	require.NoError(t, follower.Update(10))
	assert.InDelta(t, 0.25, follower.Progress(), 1e-9)

	g.Destroy(h)
	assert.ErrorIs(t, follower.Update(1), ErrUnknownEntity)

}
