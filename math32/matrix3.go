// Copyright 2019 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// with modifications needed to suit Cogent Core functionality.

package math32

// Matrix3 is a 3x3 matrix of float32 values, stored in column-major order.
// Used as the normal matrix (inverse-transpose of a model matrix's linear part).
type Matrix3 [9]float32

// Identity3 returns a new identity [Matrix3].
func Identity3() Matrix3 {
	m := Matrix3{}
	m.SetIdentity()
	return m
}

// SetIdentity sets m to the identity matrix.
func (m *Matrix3) SetIdentity() {
	*m = Matrix3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// SetFromMatrix4 sets m to the upper-left 3x3 linear part of src.
func (m *Matrix3) SetFromMatrix4(src *Matrix4) {
	*m = Matrix3{
		src[0], src[1], src[2],
		src[4], src[5], src[6],
		src[8], src[9], src[10],
	}
}

// SetTranspose sets m to the transpose of other.
func (m *Matrix3) SetTranspose(other *Matrix3) {
	o := *other
	*m = Matrix3{
		o[0], o[3], o[6],
		o[1], o[4], o[7],
		o[2], o[5], o[8],
	}
}

// Determinant returns the determinant of m.
func (m Matrix3) Determinant() float32 {
	a, b, c := m[0], m[3], m[6]
	d, e, f := m[1], m[4], m[7]
	g, h, i := m[2], m[5], m[8]
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// SetInverse sets m to the inverse of other. If other is singular (or
// near-singular), m is set to the identity matrix so callers fall back to
// treating the transform as rigid rather than propagating NaNs.
func (m *Matrix3) SetInverse(other *Matrix3) {
	det := other.Determinant()
	if Abs(det) < 1e-12 {
		m.SetIdentity()
		return
	}
	o := *other
	invDet := 1 / det
	*m = Matrix3{
		(o[4]*o[8] - o[5]*o[7]) * invDet,
		(o[2]*o[7] - o[1]*o[8]) * invDet,
		(o[1]*o[5] - o[2]*o[4]) * invDet,
		(o[5]*o[6] - o[3]*o[8]) * invDet,
		(o[0]*o[8] - o[2]*o[6]) * invDet,
		(o[2]*o[3] - o[0]*o[5]) * invDet,
		(o[3]*o[7] - o[4]*o[6]) * invDet,
		(o[1]*o[6] - o[0]*o[7]) * invDet,
		(o[0]*o[4] - o[1]*o[3]) * invDet,
	}
}

// MulVector3 returns v transformed by m.
func (m Matrix3) MulVector3(v Vector3) Vector3 {
	return Vector3{
		m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}
