// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"image"

	"github.com/cogentraster/raster3d/math32"
)

// WrapMode selects how out-of-[0,1] UV coordinates are handled.
type WrapMode int32

const (
	WrapRepeat WrapMode = iota
	WrapClamp
)

// Texture is the interface for all textures bound to a [Material].
type Texture interface {
	// AsTextureBase returns the [TextureBase] for this texture.
	AsTextureBase() *TextureBase

	// Sample returns the bilinearly-filtered color at UV coordinate uv,
	// with u,v wrapped or clamped per the texture's WrapU/WrapV.
	Sample(uv math32.Vector2) math32.Vector3
}

// TextureBase is the base texture implementation, backed by an [image.RGBA]
// decoded once at load time.
type TextureBase struct {
	// Name connects this texture to [MaterialBase.TextureName].
	Name string

	// RGBA is the decoded pixel data, premultiplied by nothing: straight alpha.
	RGBA *image.RGBA

	// WrapU and WrapV select the addressing mode for each axis.
	WrapU, WrapV WrapMode

	// Transparent is true if any decoded pixel has alpha < 255.
	Transparent bool
}

func (tx *TextureBase) AsTextureBase() *TextureBase { return tx }

// NewTextureBase wraps an already-decoded image as a texture, scanning it
// once to set Transparent.
func NewTextureBase(name string, img *image.RGBA) *TextureBase {
	tx := &TextureBase{Name: name, RGBA: img, WrapU: WrapRepeat, WrapV: WrapRepeat}
	tx.scanAlpha()
	return tx
}

func (tx *TextureBase) scanAlpha() {
	if tx.RGBA == nil {
		return
	}
	px := tx.RGBA.Pix
	for i := 3; i < len(px); i += 4 {
		if px[i] != 255 {
			tx.Transparent = true
			return
		}
	}
}

func wrapCoord(v float32, n int, mode WrapMode) float32 {
	if mode == WrapClamp {
		return math32.Clamp(v, 0, float32(n-1))
	}
	fn := float32(n)
	v = Mod32(v, fn)
	if v < 0 {
		v += fn
	}
	return v
}

// Mod32 is a float32 floating-point remainder, used for UV wrap addressing.
func Mod32(x, y float32) float32 {
	return math32.Mod(x, y)
}

// nextCoord returns the second bilinear tap's coordinate following c0: the
// next texel over for WrapRepeat (wrapping around to 0 at the edge), or c0
// itself clamped to the last texel for WrapClamp (no wraparound to the
// opposite edge).
func nextCoord(c0, n int, mode WrapMode) int {
	if mode == WrapClamp {
		if c0+1 > n-1 {
			return n - 1
		}
		return c0 + 1
	}
	return (c0 + 1) % n
}

// Sample returns the bilinearly-interpolated color at uv, addressing pixels
// per WrapU/WrapV. uv.Y follows image convention: 0 is the top row.
func (tx *TextureBase) Sample(uv math32.Vector2) math32.Vector3 {
	if tx.RGBA == nil {
		return math32.Vec3(1, 1, 1)
	}
	b := tx.RGBA.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return math32.Vec3(1, 1, 1)
	}
	fx := wrapCoord(uv.X*float32(w)-0.5, w, tx.WrapU)
	fy := wrapCoord(uv.Y*float32(h)-0.5, h, tx.WrapV)

	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	x1 := nextCoord(x0, w, tx.WrapU)
	y1 := nextCoord(y0, h, tx.WrapV)
	if x0 < 0 {
		x0 += w
	}
	if y0 < 0 {
		y0 += h
	}
	tx0 := fx - math32.Floor(fx)
	ty0 := fy - math32.Floor(fy)

	c00 := tx.pixelAt(b, x0, y0)
	c10 := tx.pixelAt(b, x1, y0)
	c01 := tx.pixelAt(b, x0, y1)
	c11 := tx.pixelAt(b, x1, y1)

	top := c00.Lerp(c10, tx0)
	bot := c01.Lerp(c11, tx0)
	return top.Lerp(bot, ty0)
}

func (tx *TextureBase) pixelAt(b image.Rectangle, x, y int) math32.Vector3 {
	r, g, bl, _ := tx.RGBA.At(b.Min.X+x, b.Min.Y+y).RGBA()
	return math32.Vec3(float32(r)/65535, float32(g)/65535, float32(bl)/65535)
}
