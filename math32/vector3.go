// Copyright 2019 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// with modifications needed to suit Cogent Core functionality.

package math32

import "fmt"

// Vector3 is a 3D vector/point with X, Y and Z components.
type Vector3 struct {
	X float32
	Y float32
	Z float32
}

// Vec3 returns a new [Vector3] with the given x, y, z components.
func Vec3(x, y, z float32) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Vector3Scalar returns a new [Vector3] with all components set to scalar.
func Vector3Scalar(scalar float32) Vector3 {
	return Vector3{X: scalar, Y: scalar, Z: scalar}
}

// Vector3Zero is the zero vector.
var Vector3Zero = Vector3{0, 0, 0}

// Vec3Y is the unit Y vector -- the default "up" direction.
var Vec3Y = Vector3{0, 1, 0}

func (v Vector3) String() string {
	return fmt.Sprintf("(%v, %v, %v)", v.X, v.Y, v.Z)
}

// Set sets this vector's X, Y and Z components.
func (v *Vector3) Set(x, y, z float32) {
	v.X = x
	v.Y = y
	v.Z = z
}

// SetScalar sets all components of v to the same scalar value.
func (v *Vector3) SetScalar(scalar float32) {
	v.X = scalar
	v.Y = scalar
	v.Z = scalar
}

// SetDim sets v's component by dimension index.
func (v *Vector3) SetDim(dim Dims, value float32) {
	switch dim {
	case X:
		v.X = value
	case Y:
		v.Y = value
	case Z:
		v.Z = value
	default:
		panic("dim is out of range")
	}
}

// Dim returns v's component by dimension index.
func (v Vector3) Dim(dim Dims) float32 {
	switch dim {
	case X:
		return v.X
	case Y:
		return v.Y
	case Z:
		return v.Z
	default:
		panic("dim is out of range")
	}
}

// IsNil returns true if v is the zero vector.
func (v Vector3) IsNil() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// FromSlice sets v's components from array, starting at offset.
func (v *Vector3) FromSlice(array []float32, offset int) {
	v.X = array[offset]
	v.Y = array[offset+1]
	v.Z = array[offset+2]
}

// ToSlice copies v's components into array, starting at offset.
func (v Vector3) ToSlice(array []float32, offset int) {
	array[offset] = v.X
	array[offset+1] = v.Y
	array[offset+2] = v.Z
}

// SetFromMatrixPos sets v from the translation component of m.
func (v *Vector3) SetFromMatrixPos(m *Matrix4) {
	v.X = m[12]
	v.Y = m[13]
	v.Z = m[14]
}

// Basic math operations:

// Add returns the vector sum of v and other.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// AddScalar returns v with s added to each component.
func (v Vector3) AddScalar(s float32) Vector3 {
	return Vector3{v.X + s, v.Y + s, v.Z + s}
}

// SetAdd sets v += other.
func (v *Vector3) SetAdd(other Vector3) {
	v.X += other.X
	v.Y += other.Y
	v.Z += other.Z
}

// SetAddScalar sets v += s (componentwise).
func (v *Vector3) SetAddScalar(s float32) {
	v.X += s
	v.Y += s
	v.Z += s
}

// Sub returns the vector difference v - other.
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// SubScalar returns v with s subtracted from each component.
func (v Vector3) SubScalar(s float32) Vector3 {
	return Vector3{v.X - s, v.Y - s, v.Z - s}
}

// SetSub sets v -= other.
func (v *Vector3) SetSub(other Vector3) {
	v.X -= other.X
	v.Y -= other.Y
	v.Z -= other.Z
}

// SetSubScalar sets v -= s (componentwise).
func (v *Vector3) SetSubScalar(s float32) {
	v.X -= s
	v.Y -= s
	v.Z -= s
}

// Mul returns the component-wise product of v and other.
func (v Vector3) Mul(other Vector3) Vector3 {
	return Vector3{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

// MulScalar returns v scaled by s.
func (v Vector3) MulScalar(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// SetMul sets v *= other (componentwise).
func (v *Vector3) SetMul(other Vector3) {
	v.X *= other.X
	v.Y *= other.Y
	v.Z *= other.Z
}

// SetMulScalar sets v *= s.
func (v *Vector3) SetMulScalar(s float32) {
	v.X *= s
	v.Y *= s
	v.Z *= s
}

// Div returns the component-wise quotient of v and other.
func (v Vector3) Div(other Vector3) Vector3 {
	return Vector3{v.X / other.X, v.Y / other.Y, v.Z / other.Z}
}

// DivScalar returns v divided by scalar s; returns the zero vector if s==0.
func (v Vector3) DivScalar(s float32) Vector3 {
	if s != 0 {
		return v.MulScalar(1 / s)
	}
	return Vector3{}
}

// SetDivScalar sets v /= s, or zeroes v if s==0.
func (v *Vector3) SetDivScalar(s float32) {
	if s != 0 {
		v.SetMulScalar(1 / s)
	} else {
		v.Set(0, 0, 0)
	}
}

// Min returns the component-wise min of v and other.
func (v Vector3) Min(other Vector3) Vector3 {
	return Vector3{Min(v.X, other.X), Min(v.Y, other.Y), Min(v.Z, other.Z)}
}

// SetMin sets v's components to the min of v and other, componentwise.
func (v *Vector3) SetMin(other Vector3) {
	v.X = Min(v.X, other.X)
	v.Y = Min(v.Y, other.Y)
	v.Z = Min(v.Z, other.Z)
}

// Max returns the component-wise max of v and other.
func (v Vector3) Max(other Vector3) Vector3 {
	return Vector3{Max(v.X, other.X), Max(v.Y, other.Y), Max(v.Z, other.Z)}
}

// SetMax sets v's components to the max of v and other, componentwise.
func (v *Vector3) SetMax(other Vector3) {
	v.X = Max(v.X, other.X)
	v.Y = Max(v.Y, other.Y)
	v.Z = Max(v.Z, other.Z)
}

// Clamp clamps v's components to lie within [min,max], componentwise.
// Assumes min < max; behavior is undefined otherwise.
func (v *Vector3) Clamp(min, max Vector3) {
	v.X = Clamp(v.X, min.X, max.X)
	v.Y = Clamp(v.Y, min.Y, max.Y)
	v.Z = Clamp(v.Z, min.Z, max.Z)
}

// ClampScalar clamps v's components to lie within [min,max].
func (v Vector3) ClampScalar(min, max float32) Vector3 {
	return Vector3{Clamp(v.X, min, max), Clamp(v.Y, min, max), Clamp(v.Z, min, max)}
}

// Negate returns v with each component negated.
func (v Vector3) Negate() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Abs returns v with [Abs] applied componentwise.
func (v Vector3) Abs() Vector3 {
	return Vector3{Abs(v.X), Abs(v.Y), Abs(v.Z)}
}

// Floor returns v with [Floor] applied componentwise.
func (v Vector3) Floor() Vector3 {
	return Vector3{Floor(v.X), Floor(v.Y), Floor(v.Z)}
}

// Ceil returns v with [Ceil] applied componentwise.
func (v Vector3) Ceil() Vector3 {
	return Vector3{Ceil(v.X), Ceil(v.Y), Ceil(v.Z)}
}

// Distance, Normal:

// Dot returns the dot product of v and other.
func (v Vector3) Dot(other Vector3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Length returns the magnitude of v.
func (v Vector3) Length() float32 {
	return Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSquared returns the squared magnitude of v.
func (v Vector3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normal returns v scaled to unit length; returns the zero vector if v is zero.
func (v Vector3) Normal() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return v.DivScalar(l)
}

// SetNormal normalizes v in place.
func (v *Vector3) SetNormal() {
	l := v.Length()
	if l == 0 {
		return
	}
	v.SetDivScalar(l)
}

// DistTo returns the distance from v to other.
func (v Vector3) DistTo(other Vector3) float32 {
	return v.Sub(other).Length()
}

// Cross returns the cross product v × other.
func (v Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Lerp returns the linear interpolation between v and other at alpha ∈ [0,1].
func (v Vector3) Lerp(other Vector3, alpha float32) Vector3 {
	return Vector3{
		v.X + (other.X-v.X)*alpha,
		v.Y + (other.Y-v.Y)*alpha,
		v.Z + (other.Z-v.Z)*alpha,
	}
}

// Reflect returns v reflected about the unit normal n.
func (v Vector3) Reflect(n Vector3) Vector3 {
	return v.Sub(n.MulScalar(2 * v.Dot(n)))
}

// Matrix and quaternion operations:

// MulMatrix4 returns v transformed as a point (w=1) by m, including perspective divide.
func (v Vector3) MulMatrix4(m *Matrix4) Vector3 {
	x, y, z := v.X, v.Y, v.Z
	w := m[3]*x + m[7]*y + m[11]*z + m[15]
	if w == 0 {
		w = 1
	}
	return Vector3{
		(m[0]*x + m[4]*y + m[8]*z + m[12]) / w,
		(m[1]*x + m[5]*y + m[9]*z + m[13]) / w,
		(m[2]*x + m[6]*y + m[10]*z + m[14]) / w,
	}
}

// MulMatrix3 returns v transformed by the 3x3 matrix m (no translation).
func (v Vector3) MulMatrix3(m *Matrix3) Vector3 {
	x, y, z := v.X, v.Y, v.Z
	return Vector3{
		m[0]*x + m[3]*y + m[6]*z,
		m[1]*x + m[4]*y + m[7]*z,
		m[2]*x + m[5]*y + m[8]*z,
	}
}

// MulQuat returns v rotated by unit quaternion q.
func (v Vector3) MulQuat(q Quat) Vector3 {
	ix := q.W*v.X + q.Y*v.Z - q.Z*v.Y
	iy := q.W*v.Y + q.Z*v.X - q.X*v.Z
	iz := q.W*v.Z + q.X*v.Y - q.Y*v.X
	iw := -q.X*v.X - q.Y*v.Y - q.Z*v.Z
	return Vector3{
		ix*q.W + iw*-q.X + iy*-q.Z - iz*-q.Y,
		iy*q.W + iw*-q.Y + iz*-q.X - ix*-q.Z,
		iz*q.W + iw*-q.Z + ix*-q.Y - iy*-q.X,
	}
}

// SetMulQuat sets v = v rotated by unit quaternion q.
func (v *Vector3) SetMulQuat(q Quat) {
	*v = v.MulQuat(q)
}
