// Copyright 2024 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	assert.Equal(t, Quat{0, 0, 0, 1}, q)
	assert.False(t, q.IsNil())
	assert.True(t, Quat{}.IsNil())
}

func TestQuatAxisAngleRoundTrips(t *testing.T) {
	q := NewQuatAxisAngle(Vec3(0, 1, 0), Pi/2)
	assert.InDelta(t, 1, q.Length(), 1e-6)

	euler := q.ToEuler()
	assert.InDelta(t, Pi/2, euler.Y, 1e-4)
}

func TestQuatMulIdentity(t *testing.T) {
	q := NewQuatAxisAngle(Vec3(1, 0, 0), Pi/3)
	identity := QuatIdentity()
	assert.InDelta(t, q.X, q.Mul(identity).X, 1e-6)
	assert.InDelta(t, q.W, q.Mul(identity).W, 1e-6)
}

func TestQuatNormal(t *testing.T) {
	q := Quat{2, 0, 0, 0}
	n := q.Normal()
	assert.InDelta(t, 1, n.Length(), 1e-6)
	assert.Equal(t, QuatIdentity(), Quat{}.Normal())
}
