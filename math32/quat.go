// Copyright 2019 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// with modifications needed to suit Cogent Core functionality.

package math32

// Quat is a quaternion used to represent a 3D rotation, with X, Y, Z as the
// imaginary (vector) part and W as the real (scalar) part.
type Quat struct {
	X float32
	Y float32
	Z float32
	W float32
}

// QuatIdentity returns the identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// SetIdentity sets q to the identity quaternion.
func (q *Quat) SetIdentity() {
	q.X, q.Y, q.Z, q.W = 0, 0, 0, 1
}

// IsNil returns true if q is the zero quaternion (not a valid rotation).
func (q Quat) IsNil() bool {
	return q.X == 0 && q.Y == 0 && q.Z == 0 && q.W == 0
}

// NewQuatAxisAngle returns the quaternion representing a rotation of angle
// radians about the given (will be normalized) axis.
func NewQuatAxisAngle(axis Vector3, angle float32) Quat {
	var q Quat
	q.SetFromAxisAngle(axis, angle)
	return q
}

// SetFromAxisAngle sets q to represent a rotation of angle radians about axis.
func (q *Quat) SetFromAxisAngle(axis Vector3, angle float32) {
	a := axis.Normal()
	s, c := Sincos(angle / 2)
	q.X = a.X * s
	q.Y = a.Y * s
	q.Z = a.Z * s
	q.W = c
}

// NewQuatEuler returns the quaternion for the given intrinsic XYZ Euler
// angles in radians (pitch=X, yaw=Y, roll=Z).
func NewQuatEuler(euler Vector3) Quat {
	var q Quat
	q.SetFromEuler(euler)
	return q
}

// SetFromEuler sets q from intrinsic XYZ Euler angles in radians.
func (q *Quat) SetFromEuler(euler Vector3) {
	sx, cx := Sincos(euler.X / 2)
	sy, cy := Sincos(euler.Y / 2)
	sz, cz := Sincos(euler.Z / 2)

	q.X = sx*cy*cz + cx*sy*sz
	q.Y = cx*sy*cz - sx*cy*sz
	q.Z = cx*cy*sz + sx*sy*cz
	q.W = cx*cy*cz - sx*sy*sz
}

// ToEuler returns q's rotation as intrinsic XYZ Euler angles in radians.
func (q Quat) ToEuler() Vector3 {
	// Derived from the rotation matrix R = Rx*Ry*Rz that SetFromEuler
	// builds, so this inverts SetFromEuler away from gimbal lock.
	x, y, z, w := q.X, q.Y, q.Z, q.W

	sinxCosy := 2 * (w*x - y*z)
	cosxCosy := 1 - 2*(x*x+y*y)
	ex := Atan2(sinxCosy, cosxCosy)

	sinY := 2 * (w*y + z*x)
	sinY = Clamp(sinY, -1, 1)
	ey := Asin(sinY)

	sinzCosy := 2 * (w*z - x*y)
	coszCosy := 1 - 2*(y*y+z*z)
	ez := Atan2(sinzCosy, coszCosy)

	return Vec3(ex, ey, ez)
}

// Mul returns q * other (composed rotation: apply other, then q).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		q.W*other.Y + q.Y*other.W + q.Z*other.X - q.X*other.Z,
		q.W*other.Z + q.Z*other.W + q.X*other.Y - q.Y*other.X,
		q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// SetMul sets q = q * other.
func (q *Quat) SetMul(other Quat) {
	*q = q.Mul(other)
}

// Length returns the magnitude of q.
func (q Quat) Length() float32 {
	return Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normal returns q scaled to unit length.
func (q Quat) Normal() Quat {
	l := q.Length()
	if l == 0 {
		return QuatIdentity()
	}
	inv := 1 / l
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// SetFromRotationMatrix sets q from the rotation encoded in the upper-left
// 3x3 linear part of m, assuming m has no scale or shear.
func (q *Quat) SetFromRotationMatrix(m *Matrix4) {
	m00, m01, m02 := m[0], m[4], m[8]
	m10, m11, m12 := m[1], m[5], m[9]
	m20, m21, m22 := m[2], m[6], m[10]
	trace := m00 + m11 + m22

	switch {
	case trace > 0:
		s := 0.5 / Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m21 - m12) * s
		q.Y = (m02 - m20) * s
		q.Z = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * Sqrt(1+m00-m11-m22)
		q.W = (m21 - m12) / s
		q.X = 0.25 * s
		q.Y = (m01 + m10) / s
		q.Z = (m02 + m20) / s
	case m11 > m22:
		s := 2 * Sqrt(1+m11-m00-m22)
		q.W = (m02 - m20) / s
		q.X = (m01 + m10) / s
		q.Y = 0.25 * s
		q.Z = (m12 + m21) / s
	default:
		s := 2 * Sqrt(1+m22-m00-m11)
		q.W = (m10 - m01) / s
		q.X = (m02 + m20) / s
		q.Y = (m12 + m21) / s
		q.Z = 0.25 * s
	}
}
