// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "github.com/cogentraster/raster3d/math32"

// Pose represents the full transform stack of a scene object: its local
// position, rotation and scale, plus the matrices derived from composing it
// with its parent (the world matrix and its normal matrix).
type Pose struct {
	// Pos is the local-space position (translation) of the object.
	Pos math32.Vector3

	// Scale is the local-space, per-axis scale factor.
	Scale math32.Vector3

	// Quat is the local-space rotation.
	Quat math32.Quat

	// Matrix is the local transform composed from Pos, Quat and Scale.
	Matrix math32.Matrix4

	// ParMatrix is the parent's WorldMatrix at the time UpdateMatrix was
	// last called, or identity for a root object.
	ParMatrix math32.Matrix4

	// WorldMatrix is ParMatrix * Matrix: this object's full object-to-world transform.
	WorldMatrix math32.Matrix4

	// NormMatrix is the inverse-transpose of the upper-left 3x3 of
	// WorldMatrix, used to transform normals correctly under non-uniform scale.
	NormMatrix math32.Matrix3
}

// Defaults sets Scale to (1,1,1) and Quat to identity; Pos stays zero.
func (p *Pose) Defaults() {
	p.Scale = math32.Vec3(1, 1, 1)
	p.Quat = math32.QuatIdentity()
}

// UpdateMatrix recomputes Matrix, WorldMatrix and NormMatrix from the
// current Pos/Quat/Scale and the given parent world matrix.
func (p *Pose) UpdateMatrix(parWorld math32.Matrix4) {
	p.Matrix.SetTransform(p.Pos, p.Quat, p.Scale)
	p.ParMatrix = parWorld
	p.WorldMatrix.MulMatrices(&parWorld, &p.Matrix)
	p.NormMatrix.SetNormalMatrix(&p.WorldMatrix)
}

// MulMatrix composes m onto this pose's local Matrix, decomposing the
// result back into Pos/Quat/Scale so subsequent UpdateMatrix calls stay
// consistent with direct matrix edits.
func (p *Pose) MulMatrix(m *math32.Matrix4) {
	var nm math32.Matrix4
	nm.MulMatrices(&p.Matrix, m)
	p.Pos, p.Quat, p.Scale = nm.Decompose()
}

// Camera holds the viewpoint used to render a [Scene]: its Pose (position
// and orientation) plus perspective or orthographic projection parameters.
type Camera struct {
	Pose

	// Target is the world point the camera looks at; LookAt uses this.
	Target math32.Vector3

	// UpDir is the nominal up direction used to orient the view.
	UpDir math32.Vector3

	// Ortho selects orthographic projection instead of the perspective default.
	Ortho bool

	// FOV is the vertical field of view in degrees, used when !Ortho.
	FOV float32

	// Aspect is the viewport width/height ratio.
	Aspect float32

	// Near and Far are the clip plane distances along the view axis.
	Near, Far float32

	// OrthoSize is the world-space vertical half-extent of the view volume,
	// used when Ortho is true (e.g., for a shadow map's light frustum).
	OrthoSize float32

	// ViewMatrix transforms world space into camera (eye) space.
	ViewMatrix math32.Matrix4

	// ProjMatrix transforms camera space into clip space.
	ProjMatrix math32.Matrix4
}

// NewCamera returns a camera with standard perspective defaults: a 45
// degree vertical FOV, near/far of 0.1/1000, placed at (0,0,5) looking down
// -Z toward the origin.
func NewCamera() *Camera {
	c := &Camera{
		Target: math32.Vec3(0, 0, 0),
		UpDir:  math32.Vec3(0, 1, 0),
		FOV:    45,
		Aspect: 1,
		Near:   0.1,
		Far:    1000,
	}
	c.Pose.Defaults()
	c.Pos = math32.Vec3(0, 0, 5)
	return c
}

// LookAt orients the camera to face target from its current Pos, with the
// given up direction, and records both on the camera.
func (c *Camera) LookAt(target, up math32.Vector3) {
	c.Target = target
	c.UpDir = up
	lookMat := math32.NewLookAt(c.Pos, target, up)
	c.Pos, c.Quat, c.Scale = lookMat.Decompose()
}

// Orbit moves the camera on a sphere centered at Target, stepping azimuth
// (around UpDir) and elevation (tilt toward/away from UpDir) by the given
// deltas in radians, then re-running LookAt so Quat stays consistent with
// the new Pos. Elevation is clamped away from the poles to avoid the
// degenerate up-vector case a pure spherical parametrization hits there.
func (c *Camera) Orbit(deltaAzimuth, deltaElevation float32) {
	offset := c.Pos.Sub(c.Target)
	radius := offset.Length()
	if radius < 1e-6 {
		return
	}
	azimuth := math32.Atan2(offset.X, offset.Z)
	elevation := math32.Asin(math32.Clamp(offset.Y/radius, -1, 1))

	azimuth += deltaAzimuth
	elevation = math32.Clamp(elevation+deltaElevation, -math32.Pi/2+0.01, math32.Pi/2-0.01)

	cosEl := math32.Cos(elevation)
	newOffset := math32.Vec3(
		radius*cosEl*math32.Sin(azimuth),
		radius*math32.Sin(elevation),
		radius*cosEl*math32.Cos(azimuth),
	)
	c.Pos = c.Target.Add(newOffset)
	c.LookAt(c.Target, c.UpDir)
}

// Zoom scales the camera's distance from Target by (1-pct): positive pct
// moves the camera closer, negative moves it farther.
func (c *Camera) Zoom(pct float32) {
	offset := c.Pos.Sub(c.Target)
	c.Pos = c.Target.Add(offset.MulScalar(1 - pct))
	c.LookAt(c.Target, c.UpDir)
}

// UpdateMatrix recomputes ViewMatrix and ProjMatrix from the camera's
// current Pose and projection parameters. The camera has no parent, so its
// world matrix is computed from identity.
func (c *Camera) UpdateMatrix() {
	c.Pose.UpdateMatrix(math32.Identity4())
	var inv math32.Matrix4
	inv.SetInverse(&c.WorldMatrix)
	c.ViewMatrix = inv
	if c.Ortho {
		h := c.OrthoSize
		c.ProjMatrix.SetOrthographic(h*c.Aspect*2, h*2, c.Near, c.Far)
	} else {
		c.ProjMatrix.SetPerspective(c.FOV*math32.DegToRadFactor, c.Aspect, c.Near, c.Far)
	}
}

// ViewProjMatrix returns ProjMatrix * ViewMatrix.
func (c *Camera) ViewProjMatrix() math32.Matrix4 {
	var vp math32.Matrix4
	vp.MulMatrices(&c.ProjMatrix, &c.ViewMatrix)
	return vp
}
