// Copyright 2024 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector3Basics(t *testing.T) {
	assert.Equal(t, Vector3{5, 10, 15}, Vec3(5, 10, 15))
	assert.Equal(t, Vector3{2, 2, 2}, Vector3Scalar(2))
	assert.True(t, Vector3{}.IsNil())
	assert.False(t, Vec3(1, 0, 0).IsNil())

	a := Vec3(1, 2, 3)
	b := Vec3(4, 5, 6)
	assert.Equal(t, Vec3(5, 7, 9), a.Add(b))
	assert.Equal(t, Vec3(-3, -3, -3), a.Sub(b))
	assert.Equal(t, Vec3(2, 4, 6), a.MulScalar(2))
	assert.Equal(t, float32(32), a.Dot(b))
}

func TestVector3Normal(t *testing.T) {
	v := Vec3(3, 0, 4)
	assert.Equal(t, float32(5), v.Length())
	n := v.Normal()
	assert.InDelta(t, 1, n.Length(), 1e-6)
}

func TestVector3Cross(t *testing.T) {
	x := Vec3(1, 0, 0)
	y := Vec3(0, 1, 0)
	z := x.Cross(y)
	assert.InDelta(t, 0, z.X, 1e-6)
	assert.InDelta(t, 0, z.Y, 1e-6)
	assert.InDelta(t, 1, z.Z, 1e-6)
}
