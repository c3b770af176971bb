package guraffic

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestQuaternionMatrixRoundTrip(t *testing.T) {

	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {

		axis := mgl64.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5}.Add(mgl64.Vec3{0.01, 0, 0})
		q := QuatFromAxisAngle(axis, (rng.Float64()*2-1)*math.Pi)

		back := QuatFromMatrix(RotationFromQuaternion(q))
		assert.True(t, QuatsEquivalent(q, back, 1e-9), "rotation %d didn't survive a round trip through a matrix", i)

		identity := q.Mul(q.Conjugate())
		assert.True(t, QuatsEquivalent(mgl64.QuatIdent(), identity, 1e-12))
		assert.True(t, MatricesApproxEqual(mgl64.Ident4(), q.Mat4().Mul4(q.Conjugate().Mat4()), 1e-9))

	}

}

func TestSlerpEndpointsAreExact(t *testing.T) {

	a := QuatFromEuler(mgl64.Vec3{10, 20, 30})
	b := QuatFromEuler(mgl64.Vec3{-100, 5, 0})

	assert.Equal(t, a, Slerp(a, b, 0))
	assert.Equal(t, b, Slerp(a, b, 1))
	assert.Equal(t, a, Slerp(a, b, -2))
	assert.Equal(t, b, Slerp(a, b, 3))

}

func TestSlerpTakesShortestArc(t *testing.T) {

	a := mgl64.QuatIdent()
	b := QuatFromAxisAngle(WorldUp, mgl64.DegToRad(90))

	// -b is the same rotation; halfway should still be a 45 degree turn rather than the long way around.
	half := Slerp(a, b.Scale(-1), 0.5)
	assert.True(t, QuatsEquivalent(QuatFromAxisAngle(WorldUp, mgl64.DegToRad(45)), half, 1e-9))
	assert.InDelta(t, 1, half.Len(), 1e-12)

}

func TestEulerRoundTrip(t *testing.T) {

	cases := []mgl64.Vec3{
		{0, 0, 0},
		{90, 0, 0},
		{-45, 30, 10},
		{170, -80, 45},
		{0, 0, -120},
	}

	for _, euler := range cases {
		back := EulerFromQuat(QuatFromEuler(euler))
		for i := range euler {
			assert.InDelta(t, euler[i], back[i], 1e-6, "euler %v came back as %v", euler, back)
		}
	}

	// At the pitch singularity, roll folds into yaw but the rotation is unchanged.
	locked := QuatFromEuler(mgl64.Vec3{30, 90, 20})
	folded := EulerFromQuat(locked)
	assert.InDelta(t, 90, folded[1], 1e-5)
	assert.Zero(t, folded[2])
	assert.True(t, QuatsEquivalent(locked, QuatFromEuler(folded), 1e-9))

}

func TestEulerOrder(t *testing.T) {
	// Yaw turns an unrotated entity's forwards from -Z towards -X.
	q := QuatFromEuler(mgl64.Vec3{90, 0, 0})
	f := q.Rotate(WorldForward)
	assert.InDelta(t, -1, f[0], 1e-12)

	// Pitch is applied before yaw, so it tilts about the entity's own right axis.
	q = QuatFromEuler(mgl64.Vec3{90, 45, 0})
	f = q.Rotate(WorldForward)
	assert.InDelta(t, 0, f[2], 1e-12)
	assert.Greater(t, f[1], 0.0)
}
