// Copyright 2019 Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Sphere represents a 3D bounding sphere defined by a center point and radius.
type Sphere struct {
	Center Vector3
	Radius float32
}
