package framebuf

import (
	"fmt"
	"hash/fnv"

	"github.com/cogentraster/raster3d/blend"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

// ShadowSampler is the narrow interface the ground-shadow cache needs from
// a shadow map, kept here rather than importing the pipeline package
// (which itself imports framebuf) to avoid a cycle. Engine supplies an
// adapter over pipeline.ShadowMap.
type ShadowSampler interface {
	Visibility(p, n math32.Vector3) float32
}

// BackgroundCache holds three independently invalidated caches (sky,
// ground-base, ground-shadow) plus the composited background the
// framebuffer is cleared to at the start of every frame.
type BackgroundCache struct {
	Width, Height int

	// Sky holds the per-pixel composited sky color, valid whenever skyHash
	// matches the background's current inputs.
	Sky []math32.Vector3

	// GroundColor, GroundPoint, GroundDist and IsGround are the
	// ground-base cache: per pixel, the procedurally shaded ground color,
	// its world-space intersection point, its distance from the camera,
	// and whether the camera ray hit the ground plane at all.
	GroundColor []math32.Vector3
	GroundPoint []math32.Vector3
	GroundDist  []float32
	IsGround    []bool

	// GroundShadow is the ground-shadow cache: per ground pixel, the
	// shadow-map visibility factor at GroundPoint.
	GroundShadow []float32

	// Composite is the final per-pixel background, rebuilt whenever any
	// of the three caches below it changes; this is what
	// [Framebuffer.ClearTo] consumes.
	Composite []math32.Vector3

	skyHash, groundBaseHash, groundShadowHash uint64
	skyValid, groundBaseValid, groundShadowValid bool
	compositeValid bool
}

// NewBackgroundCache allocates a cache for the given framebuffer size,
// starting fully invalidated.
func NewBackgroundCache(width, height int) *BackgroundCache {
	n := width * height
	return &BackgroundCache{
		Width:        width,
		Height:       height,
		Sky:          make([]math32.Vector3, n),
		GroundColor:  make([]math32.Vector3, n),
		GroundPoint:  make([]math32.Vector3, n),
		GroundDist:   make([]float32, n),
		IsGround:     make([]bool, n),
		GroundShadow: make([]float32, n),
		Composite:    make([]math32.Vector3, n),
	}
}

// InvalidateSky forces the sky cache (and therefore the composite) to
// rebuild on the next call to [BackgroundCache.EnsureSky].
func (c *BackgroundCache) InvalidateSky() {
	c.skyValid = false
	c.compositeValid = false
}

// InvalidateGroundBase forces the ground-base cache to rebuild. The
// ground-shadow cache is derived from the ground-base intersection
// points, so it must rebuild too.
func (c *BackgroundCache) InvalidateGroundBase() {
	c.groundBaseValid = false
	c.groundShadowValid = false
	c.compositeValid = false
}

// InvalidateGroundShadow forces only the ground-shadow cache to rebuild,
// leaving the sky and ground-base caches untouched — the cheap path for
// an object-only animation frame.
func (c *BackgroundCache) InvalidateGroundShadow() {
	c.groundShadowValid = false
	c.compositeValid = false
}

// hashOf hashes a fixed-format rendering of its argument, used as the
// cheap content-hash fingerprint for each cache's inputs.
func hashOf(v any) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%#v", v)
	return h.Sum64()
}

type skyInputs struct {
	EnableImage    bool
	ImageName      string
	EnableGradient bool
	Top, Bottom    math32.Vector3
	Width, Height  int
}

// EnsureSky rebuilds the sky cache if bg's relevant fields have changed
// since the last build, returning true if it rebuilt (a cache miss).
func (c *BackgroundCache) EnsureSky(bg scene.Background, sc *scene.Scene) bool {
	in := skyInputs{
		EnableImage:    bg.UseImage,
		ImageName:      bg.SkyImage,
		EnableGradient: bg.EnableGradient,
		Top:            bg.SkyTop,
		Bottom:         bg.SkyBottom,
		Width:          c.Width,
		Height:         c.Height,
	}
	h := hashOf(in)
	if c.skyValid && h == c.skyHash {
		return false
	}
	c.skyHash = h
	c.skyValid = true
	c.compositeValid = false
	c.rebuildSky(bg, sc)
	return true
}

func (c *BackgroundCache) rebuildSky(bg scene.Background, sc *scene.Scene) {
	var img scene.Texture
	if bg.UseImage && bg.SkyImage != "" {
		img, _ = sc.TextureByName(bg.SkyImage)
	}

	for y := 0; y < c.Height; y++ {
		t := float32(y) / float32(maxInt(c.Height-1, 1))
		gradient := bg.SkyTop.Lerp(bg.SkyBottom, t)
		for x := 0; x < c.Width; x++ {
			idx := y*c.Width + x
			color := gradient
			if !bg.EnableGradient {
				color = bg.SkyBottom
			}
			if img != nil {
				u := float32(x) / float32(maxInt(c.Width-1, 1))
				v := 1 - t // V-flip: OBJ texcoord origin is bottom-left.
				sampled := img.Sample(math32.Vec2(u, v))
				if bg.EnableGradient {
					color = sampled.MulScalar(0.3).Add(color.MulScalar(0.7))
				} else {
					color = sampled
				}
			}
			c.Sky[idx] = color
		}
	}
}

type groundBaseInputs struct {
	CameraPos, CameraTarget, CameraUp math32.Vector3
	Ortho                             bool
	FOV, Aspect, Near, Far, OrthoSize float32
	GroundColor                       math32.Vector3
	GroundHeight                      float32
	EnableGround                      bool
	AtmosphereStrength                float32
	SkyReflectionStrength             float32
	Width, Height                     int
}

// EnsureGroundBase rebuilds the ground-base cache if the camera or
// ground-related background options changed.
func (c *BackgroundCache) EnsureGroundBase(bg scene.Background, cam *scene.Camera) bool {
	in := groundBaseInputs{
		CameraPos: cam.Pos, CameraTarget: cam.Target, CameraUp: cam.UpDir,
		Ortho: cam.Ortho, FOV: cam.FOV, Aspect: cam.Aspect, Near: cam.Near, Far: cam.Far, OrthoSize: cam.OrthoSize,
		GroundColor: bg.GroundColor, GroundHeight: bg.GroundHeight, EnableGround: bg.EnableGround,
		AtmosphereStrength: bg.AtmosphereStrength, SkyReflectionStrength: bg.SkyReflectionStrength,
		Width: c.Width, Height: c.Height,
	}
	h := hashOf(in)
	if c.groundBaseValid && h == c.groundBaseHash {
		return false
	}
	c.groundBaseHash = h
	c.groundBaseValid = true
	c.groundShadowValid = false
	c.compositeValid = false
	c.rebuildGroundBase(bg, cam)
	return true
}

func (c *BackgroundCache) rebuildGroundBase(bg scene.Background, cam *scene.Camera) {
	for i := range c.IsGround {
		c.IsGround[i] = false
	}
	if !bg.EnableGround {
		return
	}

	var invVP math32.Matrix4
	invVP.SetInverse(viewProjMatrixOf(cam))

	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			idx := y*c.Width + x
			ndcX := (float32(x)+0.5)/float32(c.Width)*2 - 1
			ndcY := 1 - (float32(y)+0.5)/float32(c.Height)*2

			near := math32.Vec3(ndcX, ndcY, -1).MulMatrix4(&invVP)
			far := math32.Vec3(ndcX, ndcY, 1).MulMatrix4(&invVP)
			dir := far.Sub(near)
			if dir.IsNil() {
				continue
			}
			dir = dir.Normal()

			if math32.Abs(dir.Y) < 1e-6 {
				continue
			}
			t := (bg.GroundHeight - near.Y) / dir.Y
			if t <= 0 {
				continue
			}

			hit := near.Add(dir.MulScalar(t))
			dist := hit.DistTo(cam.Pos)

			c.IsGround[idx] = true
			c.GroundPoint[idx] = hit
			c.GroundDist[idx] = dist
			c.GroundColor[idx] = groundColorAt(bg, hit, dist, dir)
		}
	}
}

// groundColorAt shades one ground-plane intersection: a procedural grid
// pattern, a distance-based fade, an atmospheric-haze blend toward the
// sky-bottom color, and a grazing-angle sky-reflection tint, each channel
// floored at 0.15.
func groundColorAt(bg scene.Background, hit math32.Vector3, dist float32, rayDir math32.Vector3) math32.Vector3 {
	base := bg.GroundColor

	const gridSpacing = 1.0
	const lineWidth = 0.04
	gx := math32.Mod(hit.X, gridSpacing)
	if gx < 0 {
		gx += gridSpacing
	}
	gz := math32.Mod(hit.Z, gridSpacing)
	if gz < 0 {
		gz += gridSpacing
	}
	onLine := gx < lineWidth || gx > gridSpacing-lineWidth || gz < lineWidth || gz > gridSpacing-lineWidth
	grid := base
	if onLine {
		grid = base.MulScalar(0.85)
	}

	fade := math32.Clamp(1-dist/200, 0.2, 1)
	faded := grid.MulScalar(fade)

	haze := math32.Clamp(dist/150, 0, 1) * bg.AtmosphereStrength
	hazed := faded.Lerp(bg.SkyBottom, haze)

	grazing := math32.Clamp(1-math32.Abs(rayDir.Y), 0, 1)
	reflectAmt := grazing * bg.SkyReflectionStrength
	reflected := hazed.Lerp(blend.Screen(hazed, bg.SkyTop), reflectAmt)

	return math32.Vec3(
		math32.Max(reflected.X, 0.15),
		math32.Max(reflected.Y, 0.15),
		math32.Max(reflected.Z, 0.15),
	)
}

// EnsureGroundShadow rebuilds the ground-shadow cache if the shadow map
// or the ground-base intersections it samples changed. Pass a nil
// sampler when shadow mapping is disabled, which fills full visibility.
func (c *BackgroundCache) EnsureGroundShadow(sampler ShadowSampler, lightGen uint64) bool {
	in := struct {
		LightGen uint64
		HasMap   bool
	}{lightGen, sampler != nil}
	h := hashOf(in)
	if c.groundShadowValid && h == c.groundShadowHash {
		return false
	}
	c.groundShadowHash = h
	c.groundShadowValid = true
	c.compositeValid = false
	c.rebuildGroundShadow(sampler)
	return true
}

func (c *BackgroundCache) rebuildGroundShadow(sampler ShadowSampler) {
	up := math32.Vec3(0, 1, 0)
	for i, isGround := range c.IsGround {
		if !isGround {
			c.GroundShadow[i] = 1
			continue
		}
		if sampler == nil {
			c.GroundShadow[i] = 1
			continue
		}
		c.GroundShadow[i] = sampler.Visibility(c.GroundPoint[i], up)
	}
}

// EnsureComposite rebuilds the final per-pixel background from the three
// sub-caches if any of them changed since the last call. A ground pixel's
// blend weight ef comes from how near the ground plane the pixel sits
// (closer ground dominates the sky more), then the sky is darkened in
// proportion to that weight before the two are blended.
func (c *BackgroundCache) EnsureComposite() bool {
	if c.compositeValid {
		return false
	}
	for i := range c.Composite {
		sky := c.Sky[i]
		if !c.IsGround[i] {
			c.Composite[i] = sky
			continue
		}
		groundFactor := math32.Clamp(1-c.GroundDist[i]/200, 0, 1)
		ef := math32.Min(math32.Pow(groundFactor, 0.65)*2, 0.95)
		darkSky := sky.MulScalar(math32.Max(0.8-ef*0.5, 0.1))
		shadowedGround := c.GroundColor[i].MulScalar(c.GroundShadow[i])
		c.Composite[i] = darkSky.MulScalar(1 - ef).Add(shadowedGround.MulScalar(ef))
	}
	c.compositeValid = true
	return true
}

func viewProjMatrixOf(cam *scene.Camera) *math32.Matrix4 {
	vp := cam.ViewProjMatrix()
	return &vp
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
