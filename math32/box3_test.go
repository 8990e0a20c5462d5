// Copyright 2024 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox3EmptyAndExpand(t *testing.T) {
	b := B3Empty()
	assert.True(t, b.IsEmpty())

	b.ExpandByPoint(Vec3(-1, -1, -1))
	b.ExpandByPoint(Vec3(1, 1, 1))
	assert.False(t, b.IsEmpty())
	assert.Equal(t, Vec3(0, 0, 0), b.Center())
	assert.Equal(t, Vec3(2, 2, 2), b.Size())
}

func TestBox3ContainsPoint(t *testing.T) {
	b := B3(-1, -1, -1, 1, 1, 1)
	assert.True(t, b.ContainsPoint(Vec3(0, 0, 0)))
	assert.False(t, b.ContainsPoint(Vec3(2, 0, 0)))
}

func TestBox3GetBoundingSphere(t *testing.T) {
	b := B3(-1, -1, -1, 1, 1, 1)
	sph := b.GetBoundingSphere()
	assert.Equal(t, Vec3(0, 0, 0), sph.Center)
	assert.Greater(t, sph.Radius, float32(0))
}
