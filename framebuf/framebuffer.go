// Package framebuf holds the per-frame render targets: the multi-sample
// color/depth buffers the rasterizer (pipeline/raster.go) writes into
// concurrently, and the background/ground compositing cache consulted
// before every frame (see cache.go).
package framebuf

import (
	"math"
	"sync/atomic"

	"github.com/cogentraster/raster3d/math32"
)

// DepthFarSentinel is the cleared depth value: larger than any finite,
// nonnegative NDC-space depth (the far plane maps to 1.0), so a fresh
// sample always loses the first fetch-min race to a real fragment.
var DepthFarSentinel = math32.Infinity

// Framebuffer holds the color and depth render targets for one frame,
// each pixel split into Samples MSAA sub-samples. The depth buffer is an
// array of atomic uint32s holding the IEEE-754 bit pattern of the
// sample's NDC depth: since every depth value in this system is a
// nonnegative finite float (or +Inf), bit-pattern comparison agrees with
// numeric comparison, which is what makes a lock-free fetch-min possible
// (see [Framebuffer.FetchMinDepth]).
type Framebuffer struct {
	Width, Height, Samples int

	// SampleColor holds one color per (pixel, sample), row-major,
	// sample-minor: index = (y*Width+x)*Samples + s. Written
	// non-atomically; see [Framebuffer.FetchMinDepth]'s doc comment for
	// why that is safe.
	SampleColor []math32.Vector3

	// SampleDepth holds one atomic depth per (pixel, sample), same
	// indexing as SampleColor.
	SampleDepth []atomic.Uint32

	// Color is the resolved per-pixel color, written by [Framebuffer.Resolve].
	Color []math32.Vector3

	// Depth is the resolved per-pixel depth (min across samples),
	// written by [Framebuffer.Resolve].
	Depth []float32
}

// New allocates a framebuffer of the given size and MSAA sample count.
// samples below 1 are raised to 1; any other count is accepted as given,
// and one outside {1, 2, 4, 8} makes [MSAAOffsets] panic when the frame
// is rasterized. Neither config loading nor the engine checks the count.
func New(width, height, samples int) *Framebuffer {
	if samples < 1 {
		samples = 1
	}
	n := width * height * samples
	fb := &Framebuffer{
		Width:       width,
		Height:      height,
		Samples:     samples,
		SampleColor: make([]math32.Vector3, n),
		SampleDepth: make([]atomic.Uint32, n),
		Color:       make([]math32.Vector3, width*height),
		Depth:       make([]float32, width*height),
	}
	return fb
}

// SampleIndex returns the flat index of sample s of pixel (x,y).
func (fb *Framebuffer) SampleIndex(x, y, s int) int {
	return (y*fb.Width+x)*fb.Samples + s
}

// ClearTo resets every sample's depth to [DepthFarSentinel] and its color
// to background[pixel], the composited background for this frame.
func (fb *Framebuffer) ClearTo(background []math32.Vector3) {
	sentinelBits := math.Float32bits(DepthFarSentinel)
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			bg := background[y*fb.Width+x]
			base := (y*fb.Width + x) * fb.Samples
			for s := 0; s < fb.Samples; s++ {
				fb.SampleDepth[base+s].Store(sentinelBits)
				fb.SampleColor[base+s] = bg
			}
			fb.Color[y*fb.Width+x] = bg
			fb.Depth[y*fb.Width+x] = 1
		}
	}
}

// FetchMinDepth atomically lowers the depth at sample index idx to z if
// z is strictly less than the stored value, and reports whether this
// call won that race. A tie (z equal to the stored value) reports false:
// a depth tie resolves to neither fragment writing, keeping whichever
// color arrived first at that depth.
//
// Atomic discipline: only the winning call may then write
// SampleColor[idx]; that write is non-atomic, which is safe only because
// the CAS above serializes claims on this sample — the thread that most
// recently lowered the depth is, by construction, the one nearest the
// camera, matching the nearest-triangle invariant. Callers must perform
// the color write immediately after winning, with no yield point
// (channel receive, goroutine dispatch, blocking call) in between.
func (fb *Framebuffer) FetchMinDepth(idx int, z float32) bool {
	newBits := math.Float32bits(z)
	slot := &fb.SampleDepth[idx]
	for {
		oldBits := slot.Load()
		if oldBits <= newBits {
			return false
		}
		if slot.CompareAndSwap(oldBits, newBits) {
			return true
		}
	}
}

// Resolve averages each pixel's samples into Color and takes the minimum
// of its samples into Depth. The average runs over *all* Samples
// sub-samples, including ones no triangle covered (which still hold the
// background color from ClearTo), not just the covered ones — this is what
// makes a partially-covered pixel blend toward the background rather
// than fully toward the triangle color.
func (fb *Framebuffer) Resolve() {
	invS := 1 / float32(fb.Samples)
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			pix := y*fb.Width + x
			base := pix * fb.Samples
			var sum math32.Vector3
			minDepth := math32.Infinity
			for s := 0; s < fb.Samples; s++ {
				sum.SetAdd(fb.SampleColor[base+s])
				d := math.Float32frombits(fb.SampleDepth[base+s].Load())
				if d < minDepth {
					minDepth = d
				}
			}
			c := sum.MulScalar(invS)
			c.Clamp(math32.Vector3{}, math32.Vec3(1, 1, 1))
			fb.Color[pix] = c
			if minDepth > 1 {
				minDepth = 1
			}
			fb.Depth[pix] = minDepth
		}
	}
}

// MSAAOffsets returns the sub-pixel sample offsets (in pixel units,
// relative to the pixel center) for the given sample count. Panics on a
// count outside {1,2,4,8}.
func MSAAOffsets(samples int) []math32.Vector2 {
	switch samples {
	case 1:
		return []math32.Vector2{{X: 0, Y: 0}}
	case 2:
		return []math32.Vector2{
			{X: -0.25, Y: -0.25},
			{X: 0.25, Y: 0.25},
		}
	case 4:
		return []math32.Vector2{
			{X: -0.125, Y: -0.375},
			{X: 0.375, Y: -0.125},
			{X: 0.125, Y: 0.375},
			{X: -0.375, Y: 0.125},
		}
	case 8:
		// D3D-style 8x rotated-grid pattern; any equivalent
		// low-discrepancy 8-tap set works equally well.
		return []math32.Vector2{
			{X: 0.0625, Y: -0.1875},
			{X: -0.0625, Y: 0.1875},
			{X: 0.3125, Y: 0.0625},
			{X: -0.1875, Y: -0.3125},
			{X: -0.3125, Y: 0.3125},
			{X: -0.4375, Y: -0.0625},
			{X: 0.1875, Y: 0.4375},
			{X: 0.4375, Y: -0.4375},
		}
	default:
		panic("framebuf: unsupported MSAA sample count")
	}
}
