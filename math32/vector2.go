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

// Dims are dimension indices for the math32 vector and matrix types.
type Dims int32

const (
	X Dims = iota
	Y
	Z
	W
)

// Vector2 is a 2D vector/point with X and Y components, used for texture
// coordinates and screen-space pixel positions.
type Vector2 struct {
	X float32
	Y float32
}

// Vec2 returns a new [Vector2] with the given x and y components.
func Vec2(x, y float32) Vector2 {
	return Vector2{X: x, Y: y}
}

// Vector2Scalar returns a new [Vector2] with both components set to scalar.
func Vector2Scalar(scalar float32) Vector2 {
	return Vector2{X: scalar, Y: scalar}
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%v, %v)", v.X, v.Y)
}

// Set sets this vector's X and Y components.
func (v *Vector2) Set(x, y float32) {
	v.X = x
	v.Y = y
}

// SetScalar sets both components to the same scalar value.
func (v *Vector2) SetScalar(scalar float32) {
	v.X = scalar
	v.Y = scalar
}

// IsNil returns true if v is the zero vector.
func (v Vector2) IsNil() bool {
	return v.X == 0 && v.Y == 0
}

// Add returns the vector sum of v and other.
func (v Vector2) Add(other Vector2) Vector2 {
	return Vector2{v.X + other.X, v.Y + other.Y}
}

// AddScalar returns v with s added to each component.
func (v Vector2) AddScalar(s float32) Vector2 {
	return Vector2{v.X + s, v.Y + s}
}

// SetAdd sets v += other.
func (v *Vector2) SetAdd(other Vector2) {
	v.X += other.X
	v.Y += other.Y
}

// Sub returns the vector difference v - other.
func (v Vector2) Sub(other Vector2) Vector2 {
	return Vector2{v.X - other.X, v.Y - other.Y}
}

// SetSub sets v -= other.
func (v *Vector2) SetSub(other Vector2) {
	v.X -= other.X
	v.Y -= other.Y
}

// Mul returns the component-wise product of v and other.
func (v Vector2) Mul(other Vector2) Vector2 {
	return Vector2{v.X * other.X, v.Y * other.Y}
}

// MulScalar returns v scaled by s.
func (v Vector2) MulScalar(s float32) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

// DivScalar returns v divided by scalar s; returns the zero vector if s==0.
func (v Vector2) DivScalar(s float32) Vector2 {
	if s != 0 {
		return v.MulScalar(1 / s)
	}
	return Vector2{}
}

// Dot returns the dot product of v and other.
func (v Vector2) Dot(other Vector2) float32 {
	return v.X*other.X + v.Y*other.Y
}

// Length returns the magnitude of v.
func (v Vector2) Length() float32 {
	return Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normal returns v scaled to unit length.
func (v Vector2) Normal() Vector2 {
	return v.DivScalar(v.Length())
}

// Lerp returns the linear interpolation between v and other at the given alpha.
func (v Vector2) Lerp(other Vector2, alpha float32) Vector2 {
	return Vector2{v.X + (other.X-v.X)*alpha, v.Y + (other.Y-v.Y)*alpha}
}

// Floor returns v with [Floor] applied componentwise.
func (v Vector2) Floor() Vector2 {
	return Vector2{Floor(v.X), Floor(v.Y)}
}

// Ceil returns v with [Ceil] applied componentwise.
func (v Vector2) Ceil() Vector2 {
	return Vector2{Ceil(v.X), Ceil(v.Y)}
}

// Clamp clamps v's components to lie within [min,max], componentwise.
func (v *Vector2) Clamp(min, max Vector2) {
	v.X = Clamp(v.X, min.X, max.X)
	v.Y = Clamp(v.Y, min.Y, max.Y)
}

// SetMin sets v's components to the min of v and other, componentwise.
func (v *Vector2) SetMin(other Vector2) {
	v.X = Min(v.X, other.X)
	v.Y = Min(v.Y, other.Y)
}

// SetMax sets v's components to the max of v and other, componentwise.
func (v *Vector2) SetMax(other Vector2) {
	v.X = Max(v.X, other.X)
	v.Y = Max(v.Y, other.Y)
}
