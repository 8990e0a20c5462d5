// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "github.com/cogentraster/raster3d/math32"

// Light is a tagged-variant interface over the two light kinds the shader
// understands: [DirLight] and [PointLight]. Lights are held in an ordered
// slice on the [Scene], not in the object tree.
type Light interface {
	// AsLightBase returns the [LightBase] common to every light kind.
	AsLightBase() *LightBase

	// Enabled reports whether the light currently contributes to shading.
	Enabled() bool
}

// LightBase provides the fields common to every light kind.
type LightBase struct {
	// Name identifies the light; lights may be looked up by name.
	Name string

	// On is whether the light is turned on.
	On bool

	// Color is the light's color at full intensity.
	Color math32.Vector3

	// Intensity scales Color; convenient for modulating brightness
	// independently of hue.
	Intensity float32
}

func (lb *LightBase) AsLightBase() *LightBase { return lb }
func (lb *LightBase) Enabled() bool           { return lb.On }

// Radiance returns Color*Intensity, the light's contribution before
// attenuation or shadowing.
func (lb *LightBase) Radiance() math32.Vector3 {
	return lb.Color.MulScalar(lb.Intensity)
}

// DirLight is a directional light: all rays are parallel, arriving from a
// fixed direction with no distance attenuation, like sunlight.
type DirLight struct {
	LightBase

	// Direction points from the scene toward the light (i.e., the direction
	// a surface must face to be lit head-on), not the direction light travels.
	Direction math32.Vector3
}

// NewDirLight returns a directional light with the given name, color and
// intensity, with Direction defaulting to (0,1,1) normalized: 45 degrees
// up from the horizon, toward +Z.
func NewDirLight(name string, color math32.Vector3, intensity float32) *DirLight {
	return &DirLight{
		LightBase: LightBase{Name: name, On: true, Color: color, Intensity: intensity},
		Direction: math32.Vec3(0, 1, 1).Normal(),
	}
}

// LightDir returns the unit vector from the given world point toward the
// light (equal to Direction, which does not depend on position).
func (dl *DirLight) LightDir(_ math32.Vector3) math32.Vector3 {
	return dl.Direction
}

// Attenuation is always 1 for a directional light.
func (dl *DirLight) Attenuation(_ math32.Vector3) float32 { return 1 }

// PointLight is an omnidirectional light at a world position, attenuated by
// distance via the standard constant/linear/quadratic falloff triple.
type PointLight struct {
	LightBase

	// Pos is the light's position in world space.
	Pos math32.Vector3

	// Constant, Linear and Quadratic are the attenuation coefficients in
	// 1/(Constant + Linear*d + Quadratic*d^2).
	Constant  float32
	Linear    float32
	Quadratic float32
}

// NewPointLight returns a point light with standard attenuation defaults.
func NewPointLight(name string, pos math32.Vector3, color math32.Vector3, intensity float32) *PointLight {
	return &PointLight{
		LightBase: LightBase{Name: name, On: true, Color: color, Intensity: intensity},
		Pos:       pos,
		Constant:  1,
		Linear:    0.09,
		Quadratic: 0.032,
	}
}

// LightDir returns the unit vector from p toward the light.
func (pl *PointLight) LightDir(p math32.Vector3) math32.Vector3 {
	return pl.Pos.Sub(p).Normal()
}

// Attenuation returns the distance-based attenuation factor at world point p.
func (pl *PointLight) Attenuation(p math32.Vector3) float32 {
	d := pl.Pos.DistTo(p)
	denom := pl.Constant + pl.Linear*d + pl.Quadratic*d*d
	if denom < 1e-6 {
		return 1
	}
	return 1 / denom
}

// Ambient is the scene's uniform ambient term, applied to every fragment
// regardless of light visibility.
type Ambient struct {
	Color     math32.Vector3
	Intensity float32
}

// Radiance returns Color*Intensity.
func (a Ambient) Radiance() math32.Vector3 {
	return a.Color.MulScalar(a.Intensity)
}
