// Package blend provides the linear-space color compositing and gamma
// transfer functions the shader and cache layers share: alpha
// source-over, sRGB encode/decode, and simple additive blends used by the
// background/ground compositing cache.
package blend

import "github.com/cogentraster/raster3d/math32"

// SourceOver composites src over dst using straight (non-premultiplied)
// alpha, the same source-over rule applied at the byte level by the
// teacher pack's blend package, here evaluated in float32 linear color.
// The result always carries alpha 1, matching the rasterizer's invariant
// that every framebuffer pixel is fully opaque after compositing.
func SourceOver(srcRGB math32.Vector3, srcA float32, dstRGB math32.Vector3) math32.Vector3 {
	a := math32.Clamp(srcA, 0, 1)
	return srcRGB.MulScalar(a).Add(dstRGB.MulScalar(1 - a))
}

// Mix linearly interpolates between a and b by t, matching the mix()
// convention used throughout the shader's BRDF math (F0 mix, wrap-diffuse).
func Mix(a, b math32.Vector3, t float32) math32.Vector3 {
	return a.Lerp(b, math32.Clamp(t, 0, 1))
}

// MixScalar is the scalar form of [Mix].
func MixScalar(a, b, t float32) float32 {
	return a + (b-a)*math32.Clamp(t, 0, 1)
}

// gamma is the approximate sRGB transfer exponent the shader uses in
// both directions; a flat 2.2 power curve is an acceptable stand-in for
// the piecewise sRGB transfer function.
const gamma = 2.2

// ToLinear decodes one sRGB-encoded channel into linear light.
func ToLinear(c float32) float32 {
	if c <= 0 {
		return 0
	}
	return math32.Pow(c, gamma)
}

// ToLinear3 decodes an sRGB color to linear space, componentwise.
func ToLinear3(c math32.Vector3) math32.Vector3 {
	return math32.Vec3(ToLinear(c.X), ToLinear(c.Y), ToLinear(c.Z))
}

// ToSRGB encodes one linear channel for display, clamping to [0,1] first.
func ToSRGB(c float32) float32 {
	c = math32.Clamp(c, 0, 1)
	if c <= 0 {
		return 0
	}
	return math32.Pow(c, 1/gamma)
}

// ToSRGB3 encodes a linear color for display, componentwise.
func ToSRGB3(c math32.Vector3) math32.Vector3 {
	return math32.Vec3(ToSRGB(c.X), ToSRGB(c.Y), ToSRGB(c.Z))
}

// Screen combines two colors as 1-(1-a)(1-b), used by the ground cache's
// sky-reflection tint, which lightens rather than darkens the base color.
func Screen(a, b math32.Vector3) math32.Vector3 {
	one := math32.Vec3(1, 1, 1)
	return one.Sub(one.Sub(a).Mul(one.Sub(b)))
}
