// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "github.com/cogentraster/raster3d/math32"

// TextureSource tags how a fragment's base color is derived.
type TextureSource int32

const (
	// TextureNone means the material has no texture; its solid Color is used.
	TextureNone TextureSource = iota

	// TextureImage samples a [Texture] by the fragment's UV coordinates.
	TextureImage

	// TextureFaceColor uses a flat color baked per-triangle at load time,
	// active only when the engine's debug_face_colors option is set.
	TextureFaceColor

	// TextureSolidColor behaves like TextureNone but marks that the color
	// was set explicitly rather than left at the zero value.
	TextureSolidColor
)

// Material is the tagged-variant interface over the two shading models the
// shader understands: [BlinnPhongMaterial] and [PBRMaterial].
type Material interface {
	// AsMaterialBase returns the [MaterialBase] common to every material.
	AsMaterialBase() *MaterialBase
}

// MaterialBase holds the fields common to every material kind.
type MaterialBase struct {
	// Name identifies the material.
	Name string

	// Color is the base (albedo) color, used directly when no texture is bound.
	Color math32.Vector3

	// Alpha is the opacity in [0,1]; values below 1 require back-to-front
	// compositing of overlapping triangles.
	Alpha float32

	// Emissive is added to the shaded color unconditionally, independent of
	// any light.
	Emissive math32.Vector3

	// AmbientFactor scales the scene ambient term per channel, letting a
	// surface look duller or glossier under flat ambient light than its
	// diffuse response alone would suggest. Default (1,1,1) reduces to the
	// plain ambient_color*ambient_intensity term.
	AmbientFactor math32.Vector3

	// TextureSource selects where the base color for a fragment comes from.
	TextureSource TextureSource

	// TextureName names the [Texture] to sample when TextureSource is
	// TextureImage; textures are looked up by name on the [Scene].
	TextureName string

	// DoubleSided disables back-face culling for this material's triangles.
	DoubleSided bool

	// NormalIntensity scales the procedural normal perturbation the shader
	// applies in place of a normal map; 1 leaves the interpolated normal
	// untouched.
	NormalIntensity float32
}

func (mb *MaterialBase) AsMaterialBase() *MaterialBase { return mb }

// DefaultMaterialBase returns a MaterialBase with the engine's defaults:
// opaque mid-gray, full ambient response, no texture, back-face culled.
func DefaultMaterialBase(name string) MaterialBase {
	return MaterialBase{
		Name:            name,
		Color:           math32.Vec3(0.8, 0.8, 0.8),
		Alpha:           1,
		AmbientFactor:   math32.Vec3(1, 1, 1),
		TextureSource:   TextureNone,
		NormalIntensity: 1,
	}
}

// BlinnPhongMaterial is the classic ambient+diffuse+specular shading model.
type BlinnPhongMaterial struct {
	MaterialBase

	// DiffuseIntensity scales the diffuse term independent of Color.
	DiffuseIntensity float32

	// SpecularIntensity scales the specular term independent of Specular.
	SpecularIntensity float32

	// Shininess is the specular exponent: higher values produce a tighter,
	// more mirror-like highlight.
	Shininess float32

	// Specular is the specular reflectance color, usually white.
	Specular math32.Vector3
}

// NewBlinnPhongMaterial returns a Blinn-Phong material with the given name
// and base color, and reasonable specular defaults.
func NewBlinnPhongMaterial(name string, color math32.Vector3) *BlinnPhongMaterial {
	m := &BlinnPhongMaterial{
		MaterialBase:      DefaultMaterialBase(name),
		DiffuseIntensity:  1,
		SpecularIntensity: 1,
		Shininess:         32,
		Specular:          math32.Vec3(1, 1, 1),
	}
	m.Color = color
	return m
}

// PBRMaterial is a metallic-roughness physically-based material evaluated
// with a Cook-Torrance specular term (GGX distribution, Smith geometry,
// Schlick Fresnel).
type PBRMaterial struct {
	MaterialBase

	// Metallic interpolates between a dielectric (0) and a metal (1) Fresnel
	// response; metals have no diffuse term.
	Metallic float32

	// Roughness controls the GGX microfacet distribution's spread; 0 is a
	// mirror, 1 is fully diffuse-looking specular.
	Roughness float32

	// AmbientOcclusion multiplies the PBR ambient term, in [0,1].
	AmbientOcclusion float32

	// Subsurface adds a wrap-diffuse contribution approximating light
	// transmission through thin geometry, in [0,1].
	Subsurface float32

	// Anisotropy stretches the specular highlight along a surface tangent
	// when nonzero, in [-1,1]. Requires per-vertex tangents to take effect;
	// implementations without derivatives may leave it inert.
	Anisotropy float32
}

// NewPBRMaterial returns a PBR material with the given name and base color.
func NewPBRMaterial(name string, color math32.Vector3, metallic, roughness float32) *PBRMaterial {
	m := &PBRMaterial{
		MaterialBase:     DefaultMaterialBase(name),
		Metallic:         math32.Clamp(metallic, 0, 1),
		Roughness:        math32.Clamp(roughness, 0.04, 1),
		AmbientOcclusion: 1,
	}
	m.Color = color
	return m
}
