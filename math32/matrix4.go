// Copyright 2019 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// with modifications needed to suit Cogent Core functionality.

package math32

// Matrix4 is a 4x4 matrix of float32 values, stored in column-major order,
// matching the convention used throughout 3D graphics (OpenGL-style layout):
// m[0..3] is the first column, m[4..7] the second, and so on.
type Matrix4 [16]float32

// Identity4 returns a new identity [Matrix4].
func Identity4() Matrix4 {
	m := Matrix4{}
	m.SetIdentity()
	return m
}

// SetIdentity sets m to the identity matrix.
func (m *Matrix4) SetIdentity() {
	*m = Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// CopyFrom sets m to a copy of other.
func (m *Matrix4) CopyFrom(other *Matrix4) {
	*m = *other
}

// SetMul sets m = m * other.
func (m *Matrix4) SetMul(other *Matrix4) {
	m.MulMatrices(m, other)
}

// Mul returns m * other as a new matrix.
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var r Matrix4
	r.MulMatrices(&m, &other)
	return r
}

// MulMatrices sets m = a * b.
func (m *Matrix4) MulMatrices(a, b *Matrix4) {
	var r Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	*m = r
}

// SetTransform composes m from a translation, rotation quaternion, and
// nonuniform scale, in the order scale-then-rotate-then-translate.
func (m *Matrix4) SetTransform(pos Vector3, quat Quat, scale Vector3) {
	var rot Matrix4
	rot.SetFromQuat(quat)
	rot[0] *= scale.X
	rot[1] *= scale.X
	rot[2] *= scale.X
	rot[4] *= scale.Y
	rot[5] *= scale.Y
	rot[6] *= scale.Y
	rot[8] *= scale.Z
	rot[9] *= scale.Z
	rot[10] *= scale.Z
	rot[12] = pos.X
	rot[13] = pos.Y
	rot[14] = pos.Z
	*m = rot
}

// SetFromQuat sets m to the rotation matrix of unit quaternion q.
func (m *Matrix4) SetFromQuat(q Quat) {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	*m = Matrix4{
		1 - (yy + zz), xy + wz, xz - wy, 0,
		xy - wz, 1 - (xx + zz), yz + wx, 0,
		xz + wy, yz - wx, 1 - (xx + yy), 0,
		0, 0, 0, 1,
	}
}

// Decompose extracts the translation, rotation and scale components of m,
// assuming m was composed via [Matrix4.SetTransform] (no shear/perspective).
func (m Matrix4) Decompose() (pos Vector3, quat Quat, scale Vector3) {
	pos = Vec3(m[12], m[13], m[14])

	sx := Vec3(m[0], m[1], m[2]).Length()
	sy := Vec3(m[4], m[5], m[6]).Length()
	sz := Vec3(m[8], m[9], m[10]).Length()
	// Negative determinant means one axis is mirrored; attribute it to X.
	det := m.Determinant3()
	if det < 0 {
		sx = -sx
	}
	scale = Vec3(sx, sy, sz)

	var rot Matrix4
	rot.CopyFrom(&m)
	if sx != 0 {
		rot[0] /= sx
		rot[1] /= sx
		rot[2] /= sx
	}
	if sy != 0 {
		rot[4] /= sy
		rot[5] /= sy
		rot[6] /= sy
	}
	if sz != 0 {
		rot[8] /= sz
		rot[9] /= sz
		rot[10] /= sz
	}
	quat.SetFromRotationMatrix(&rot)
	return
}

// Determinant3 returns the determinant of the upper-left 3x3 linear part of m.
func (m Matrix4) Determinant3() float32 {
	a, b, c := m[0], m[4], m[8]
	d, e, f := m[1], m[5], m[9]
	g, h, i := m[2], m[6], m[10]
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// SetInverse sets m to the inverse of other. If other is singular
// (determinant exactly 0), m is set to the identity matrix instead.
func (m *Matrix4) SetInverse(other *Matrix4) {
	n := *other
	var inv Matrix4

	inv[0] = n[5]*n[10]*n[15] - n[5]*n[11]*n[14] - n[9]*n[6]*n[15] + n[9]*n[7]*n[14] + n[13]*n[6]*n[11] - n[13]*n[7]*n[10]
	inv[4] = -n[4]*n[10]*n[15] + n[4]*n[11]*n[14] + n[8]*n[6]*n[15] - n[8]*n[7]*n[14] - n[12]*n[6]*n[11] + n[12]*n[7]*n[10]
	inv[8] = n[4]*n[9]*n[15] - n[4]*n[11]*n[13] - n[8]*n[5]*n[15] + n[8]*n[7]*n[13] + n[12]*n[5]*n[11] - n[12]*n[7]*n[9]
	inv[12] = -n[4]*n[9]*n[14] + n[4]*n[10]*n[13] + n[8]*n[5]*n[14] - n[8]*n[6]*n[13] - n[12]*n[5]*n[10] + n[12]*n[6]*n[9]

	inv[1] = -n[1]*n[10]*n[15] + n[1]*n[11]*n[14] + n[9]*n[2]*n[15] - n[9]*n[3]*n[14] - n[13]*n[2]*n[11] + n[13]*n[3]*n[10]
	inv[5] = n[0]*n[10]*n[15] - n[0]*n[11]*n[14] - n[8]*n[2]*n[15] + n[8]*n[3]*n[14] + n[12]*n[2]*n[11] - n[12]*n[3]*n[10]
	inv[9] = -n[0]*n[9]*n[15] + n[0]*n[11]*n[13] + n[8]*n[1]*n[15] - n[8]*n[3]*n[13] - n[12]*n[1]*n[11] + n[12]*n[3]*n[9]
	inv[13] = n[0]*n[9]*n[14] - n[0]*n[10]*n[13] - n[8]*n[1]*n[14] + n[8]*n[2]*n[13] + n[12]*n[1]*n[10] - n[12]*n[2]*n[9]

	inv[2] = n[1]*n[6]*n[15] - n[1]*n[7]*n[14] - n[5]*n[2]*n[15] + n[5]*n[3]*n[14] + n[13]*n[2]*n[7] - n[13]*n[3]*n[6]
	inv[6] = -n[0]*n[6]*n[15] + n[0]*n[7]*n[14] + n[4]*n[2]*n[15] - n[4]*n[3]*n[14] - n[12]*n[2]*n[7] + n[12]*n[3]*n[6]
	inv[10] = n[0]*n[5]*n[15] - n[0]*n[7]*n[13] - n[4]*n[1]*n[15] + n[4]*n[3]*n[13] + n[12]*n[1]*n[7] - n[12]*n[3]*n[5]
	inv[14] = -n[0]*n[5]*n[14] + n[0]*n[6]*n[13] + n[4]*n[1]*n[14] - n[4]*n[2]*n[13] - n[12]*n[1]*n[6] + n[12]*n[2]*n[5]

	inv[3] = -n[1]*n[6]*n[11] + n[1]*n[7]*n[10] + n[5]*n[2]*n[11] - n[5]*n[3]*n[10] - n[9]*n[2]*n[7] + n[9]*n[3]*n[6]
	inv[7] = n[0]*n[6]*n[11] - n[0]*n[7]*n[10] - n[4]*n[2]*n[11] + n[4]*n[3]*n[10] + n[8]*n[2]*n[7] - n[8]*n[3]*n[6]
	inv[11] = -n[0]*n[5]*n[11] + n[0]*n[7]*n[9] + n[4]*n[1]*n[11] - n[4]*n[3]*n[9] - n[8]*n[1]*n[7] + n[8]*n[3]*n[5]
	inv[15] = n[0]*n[5]*n[10] - n[0]*n[6]*n[9] - n[4]*n[1]*n[10] + n[4]*n[2]*n[9] + n[8]*n[1]*n[6] - n[8]*n[2]*n[5]

	det := n[0]*inv[0] + n[1]*inv[4] + n[2]*inv[8] + n[3]*inv[12]
	if det == 0 {
		m.SetIdentity()
		return
	}
	invDet := 1 / det
	for i := range inv {
		inv[i] *= invDet
	}
	*m = inv
}

// SetPerspective sets m to a right-handed perspective projection matrix
// with the given vertical field of view (radians), aspect ratio (width/height),
// and near/far clip planes, mapping view-space Z to NDC [-1,1].
func (m *Matrix4) SetPerspective(fovY, aspect, near, far float32) {
	f := 1 / Tan(fovY/2)
	rangeInv := 1 / (near - far)
	*m = Matrix4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (near + far) * rangeInv, -1,
		0, 0, near * far * rangeInv * 2, 0,
	}
}

// SetOrthographic sets m to an orthographic projection matrix given the full
// width and height of the view volume and near/far clip planes.
func (m *Matrix4) SetOrthographic(width, height, near, far float32) {
	l, r := -width/2, width/2
	b, t := -height/2, height/2
	rangeInv := 1 / (far - near)
	*m = Matrix4{
		2 / (r - l), 0, 0, 0,
		0, 2 / (t - b), 0, 0,
		0, 0, -2 * rangeInv, 0,
		-(r + l) / (r - l), -(t + b) / (t - b), -(far + near) * rangeInv, 1,
	}
}

// NewLookAt returns the world transform (rotation plus translation to eye)
// for an object at eye looking toward target with the given up direction
// (standard right-handed look-at basis;
// the camera's forward axis is -Z in its own local frame).
func NewLookAt(eye, target, up Vector3) Matrix4 {
	z := eye.Sub(target).Normal()
	if z.IsNil() {
		z = Vec3(0, 0, 1)
	}
	x := up.Cross(z).Normal()
	if x.IsNil() {
		x = Vec3(1, 0, 0)
	}
	y := z.Cross(x)
	return Matrix4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		eye.X, eye.Y, eye.Z, 1,
	}
}

// SetNormalMatrix sets m (as a Matrix3) to the normal matrix (inverse
// transpose of the upper-left 3x3 linear part) of src.
func (m *Matrix3) SetNormalMatrix(src *Matrix4) {
	var lin Matrix3
	lin.SetFromMatrix4(src)
	var inv Matrix3
	inv.SetInverse(&lin)
	m.SetTranspose(&inv)
}
