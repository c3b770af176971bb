package guraffic

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Matrices in guraffic are mgl64.Mat4 values: column-major storage, column vectors. A point p is transformed
// as M * p, translation lives in the fourth column, and in a product A * B the transform B is applied first.

// Translation returns a matrix that moves points by the provided offset.
func Translation(offset mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(offset[0], offset[1], offset[2])
}

// Scale returns a matrix that scales uniformly by s on all three axes. Note that a scale of 0 is a real (singular)
// scale and is not interpreted as "unscaled".
func Scale(s float64) mgl64.Mat4 {
	return mgl64.Scale3D(s, s, s)
}

// ScaleVec returns a matrix that scales by each component of the provided vector.
func ScaleVec(s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Scale3D(s[0], s[1], s[2])
}

// RotationFromQuaternion returns the rotation represented by the (unit) quaternion, embedded in a 4x4 identity.
func RotationFromQuaternion(q mgl64.Quat) mgl64.Mat4 {
	return q.Mat4()
}

// Compose multiplies the provided matrices in order, so Compose(A, B, C) = A * B * C; C is applied to points first.
// Compose with no arguments returns the identity.
func Compose(matrices ...mgl64.Mat4) mgl64.Mat4 {
	out := mgl64.Ident4()
	for _, m := range matrices {
		out = out.Mul4(m)
	}
	return out
}

// LocalPose builds Translation(position) * ScaleVec(scale) * RotationFromQuaternion(rotation): rotation is applied
// first, then scale, then translation.
func LocalPose(position, scale mgl64.Vec3, rotation mgl64.Quat) mgl64.Mat4 {

	// Built directly rather than through three 4x4 products; the columns of R scaled by s, then t in the last column.

	r := rotation.Mat4()

	var out mgl64.Mat4
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			out[col*4+row] = r[col*4+row] * scale[row]
		}
	}
	out[12] = position[0]
	out[13] = position[1]
	out[14] = position[2]
	out[15] = 1

	return out

}

// RigidInverse returns the inverse of Translation(t) * RotationFromQuaternion(q), which is
// Rotation(conjugate(q)) * Translation(-t). It's cheaper and more stable than a general inverse, and it's what
// cameras use for their view matrix.
func RigidInverse(t mgl64.Vec3, q mgl64.Quat) mgl64.Mat4 {
	inv := q.Conjugate().Mat4()
	rt := q.Conjugate().Rotate(t)
	inv[12] = -rt[0]
	inv[13] = -rt[1]
	inv[14] = -rt[2]
	return inv
}

// TranslationOf returns the translation column of a transform.
func TranslationOf(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of the provided model matrix, used to transform
// normals. A singular model matrix (such as one scaled to 0) yields the zero matrix.
func NormalMatrix(model mgl64.Mat4) mgl64.Mat3 {
	m3 := model.Mat3()
	if math.Abs(m3.Det()) < 1e-12 {
		return mgl64.Mat3{}
	}
	return m3.Inv().Transpose()
}

// MatricesApproxEqual returns whether every element of a and b is within epsilon of each other.
func MatricesApproxEqual(a, b mgl64.Mat4, epsilon float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

func vecFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
