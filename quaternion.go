package guraffic

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axes used throughout guraffic. The world is Y-up, and an unrotated entity faces down -Z.
var (
	WorldUp      = mgl64.Vec3{0, 1, 0}
	WorldRight   = mgl64.Vec3{1, 0, 0}
	WorldForward = mgl64.Vec3{0, 0, -1}
)

// Slerp spherically interpolates between two rotations along the shortest arc. A percent of 0 or less returns a
// exactly, and a percent of 1 or more returns b exactly.
func Slerp(a, b mgl64.Quat, percent float64) mgl64.Quat {

	if percent <= 0 {
		return a
	} else if percent >= 1 {
		return b
	}

	// q and -q are the same rotation; pick the one on a's side so we don't go the long way around.
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}

	return mgl64.QuatSlerp(a, b, percent).Normalize()

}

// QuatFromAxisAngle returns a rotation of angle radians about the provided axis. The axis doesn't need to be
// normalized, but it can't be zero-length.
func QuatFromAxisAngle(axis mgl64.Vec3, angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, axis.Normalize())
}

// QuatFromMatrix returns the rotation held in the upper 3x3 of a (scale-free) transform.
func QuatFromMatrix(m mgl64.Mat4) mgl64.Quat {
	return mgl64.Mat4ToQuat(m).Normalize()
}

// QuatFromEuler returns a rotation from yaw (about Y), pitch (about X), and roll (about Z) angles in degrees,
// applied in Y * X * Z order (roll first, yaw last). This is the order the inspector displays.
func QuatFromEuler(euler mgl64.Vec3) mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(euler[0]), WorldUp)
	pitch := mgl64.QuatRotate(mgl64.DegToRad(euler[1]), WorldRight)
	roll := mgl64.QuatRotate(mgl64.DegToRad(euler[2]), mgl64.Vec3{0, 0, 1})
	return yaw.Mul(pitch).Mul(roll).Normalize()
}

// EulerFromQuat is the inverse of QuatFromEuler, returning {yaw, pitch, roll} in degrees. Pitch is kept within
// [-90, 90]; at exactly +/-90 degrees of pitch, roll is folded into yaw and reported as 0.
func EulerFromQuat(q mgl64.Quat) mgl64.Vec3 {

	m := q.Normalize().Mat4()

	sinPitch := -m.At(1, 2)
	sinPitch = math.Max(-1, math.Min(1, sinPitch))
	pitch := math.Asin(sinPitch)

	var yaw, roll float64

	if math.Abs(sinPitch) < 1-1e-9 {
		yaw = math.Atan2(m.At(0, 2), m.At(2, 2))
		roll = math.Atan2(m.At(1, 0), m.At(1, 1))
	} else {
		yaw = math.Atan2(-m.At(2, 0), m.At(0, 0))
		roll = 0
	}

	return mgl64.Vec3{mgl64.RadToDeg(yaw), mgl64.RadToDeg(pitch), mgl64.RadToDeg(roll)}

}

// QuatsEquivalent returns whether a and b represent the same rotation (within epsilon), treating q and -q as equal.
func QuatsEquivalent(a, b mgl64.Quat, epsilon float64) bool {
	return math.Abs(math.Abs(a.Normalize().Dot(b.Normalize()))-1) <= epsilon
}

func quatFinite(q mgl64.Quat) bool {
	return !math.IsNaN(q.W) && !math.IsInf(q.W, 0) && vecFinite(q.V)
}
