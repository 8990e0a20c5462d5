// Package engine owns the top-level render loop: it wires the scene,
// framebuffer, background cache and shadow map through the pipeline
// stages once per frame and writes the result out as PNG images.
package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cogentraster/raster3d/blend"
	"github.com/cogentraster/raster3d/framebuf"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/parallel"
	"github.com/cogentraster/raster3d/pipeline"
	"github.com/cogentraster/raster3d/scene"
)

// Options configures an [Engine] beyond what the [scene.Scene] itself carries.
type Options struct {
	Width, Height int
	MSAASamples   int
	Workers       int

	BackfaceCull    bool
	CullSmallTris   bool
	MinTriangleArea float32
	NearClip        bool
	Wireframe       bool
	UseGamma        bool
	UseZBuffer      bool

	EnableShadowMapping bool
	ShadowMapSize       int
	ShadowOptions       pipeline.ShadowOptions

	Shade pipeline.ShadeOptions

	DebugFaceColors bool

	Logger *slog.Logger
}

// DefaultOptions returns the engine defaults: 1 worker per hardware
// thread, 4x MSAA, back-face culling and near clipping on, shadow
// mapping off.
func DefaultOptions(width, height int) Options {
	return Options{
		Width: width, Height: height,
		MSAASamples:     4,
		BackfaceCull:    true,
		CullSmallTris:   true,
		MinTriangleArea: 0.00002,
		NearClip:        true,
		UseGamma:        true,
		UseZBuffer:      true,
		ShadowMapSize:   1024,
		ShadowOptions:   pipeline.DefaultShadowOptions(),
	}
}

// Engine holds everything one render loop needs across frames: the scene
// being rendered, the framebuffer and background cache sized to it, the
// shared worker pool every pipeline stage dispatches through, and the
// most recently built shadow map.
type Engine struct {
	Scene   *scene.Scene
	Options Options

	fb    *framebuf.Framebuffer
	cache *framebuf.BackgroundCache
	pool  *parallel.WorkerPool

	shadowMap   *pipeline.ShadowMap
	shadowLight *scene.DirLight
	shadowHash  uint64
	shadowGen   uint64

	logger *slog.Logger
}

// New builds an Engine for sc sized by opts, allocating the framebuffer,
// background cache and worker pool.
func New(sc *scene.Scene, opts Options) *Engine {
	if opts.MSAASamples == 0 {
		opts.MSAASamples = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Scene:   sc,
		Options: opts,
		fb:      framebuf.New(opts.Width, opts.Height, opts.MSAASamples),
		cache:   framebuf.NewBackgroundCache(opts.Width, opts.Height),
		pool:    parallel.NewWorkerPool(opts.Workers),
		logger:  logger,
	}
}

// Framebuffer returns the engine's current framebuffer. Exposed as an
// extension seam for a future double-buffered preview; the CLI path
// calls it only after RenderFrame returns.
func (e *Engine) Framebuffer() *framebuf.Framebuffer { return e.fb }

// SwapAndClear is the seam a realtime preview would use to hand off a
// completed framebuffer to a display thread and allocate a fresh one to
// render into. Not exercised by the batch CLI, which reuses fb in place.
func (e *Engine) SwapAndClear() *framebuf.Framebuffer {
	old := e.fb
	e.fb = framebuf.New(e.Options.Width, e.Options.Height, e.Options.MSAASamples)
	return old
}

// Close shuts down the engine's worker pool.
func (e *Engine) Close() {
	e.pool.Close()
}

// InvalidateSky forces the background cache's sky tier to rebuild on the
// next RenderFrame, for a caller that knows the sky inputs changed by some
// means EnsureSky's content hash won't see on its own (e.g. a settings
// reload between frames).
func (e *Engine) InvalidateSky() { e.cache.InvalidateSky() }

// InvalidateGroundBase forces the ground-base (and therefore
// ground-shadow) tier to rebuild on the next RenderFrame. A camera-orbit
// animation step calls this every frame: the camera moving changes which
// ground point each pixel ray hits, which EnsureGroundBase's own hash would
// also catch, but an explicit call lets the driver state the cheaper
// invalidation it actually needs instead.
func (e *Engine) InvalidateGroundBase() { e.cache.InvalidateGroundBase() }

// InvalidateGroundShadow forces only the ground-shadow tier to rebuild,
// leaving sky and ground-base untouched. An object-only animation step
// calls this: the object's silhouette in the shadow map changes every
// frame, but the camera and ground plane do not, so there is no reason to
// pay for the sky or ground-base rebuild too.
func (e *Engine) InvalidateGroundShadow() { e.cache.InvalidateGroundShadow() }

// shadowAdapter satisfies framebuf.ShadowSampler over a pipeline.ShadowMap,
// closing the import cycle framebuf would otherwise have with pipeline.
type shadowAdapter struct {
	sm   *pipeline.ShadowMap
	opts pipeline.ShadowOptions
}

func (a shadowAdapter) Visibility(p, n math32.Vector3) float32 {
	return a.sm.Visibility(p, n, a.opts)
}

// firstShadowLight returns the scene's first enabled directional light,
// or nil if none casts a shadow.
func firstShadowLight(sc *scene.Scene) *scene.DirLight {
	for _, l := range sc.Lights {
		if dl, ok := l.(*scene.DirLight); ok && dl.Enabled() {
			return dl
		}
	}
	return nil
}

// RenderFrame runs one full frame: rebuilds the shadow map if the shadow
// light changed, refreshes the background cache, transforms and
// assembles every object's triangles, and rasterizes them into the
// framebuffer. ctx is checked once before the frame starts and is never
// threaded into the per-pixel path.
func (e *Engine) RenderFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sc := e.Scene
	sc.Camera.Aspect = float32(e.Options.Width) / float32(e.Options.Height)
	sc.Camera.UpdateMatrix()

	for _, obj := range sc.Objects {
		obj.Pose.UpdateMatrix(math32.Identity4())
	}

	if e.Options.EnableShadowMapping {
		if light := firstShadowLight(sc); light != nil {
			h := pipeline.ShadowMapHash(sc, light, e.Options.ShadowMapSize)
			if e.shadowMap == nil || light != e.shadowLight || h != e.shadowHash {
				e.shadowMap = pipeline.BuildShadowMap(sc, light, e.Options.ShadowMapSize, e.pool)
				e.shadowLight = light
				e.shadowHash = h
				e.shadowGen++
			}
		} else {
			e.shadowMap = nil
			e.shadowLight = nil
		}
	} else {
		e.shadowMap = nil
		e.shadowLight = nil
	}

	e.cache.EnsureSky(sc.Background, sc)
	e.cache.EnsureGroundBase(sc.Background, sc.Camera)
	var sampler framebuf.ShadowSampler
	if e.shadowMap != nil {
		sampler = shadowAdapter{sm: e.shadowMap, opts: e.Options.ShadowOptions}
	}
	e.cache.EnsureGroundShadow(sampler, e.shadowGen)
	e.cache.EnsureComposite()

	e.fb.ClearTo(e.cache.Composite)

	shadeCtx := &pipeline.ShadeContext{
		Scene:       sc,
		ShadowMap:   e.shadowMap,
		ShadowLight: e.shadowLight,
		Options:     e.Options.Shade,
	}

	assembleOpts := pipeline.AssembleOptions{
		Width: e.Options.Width, Height: e.Options.Height,
		BackfaceCull: e.Options.BackfaceCull,
		CullSmall:    e.Options.CullSmallTris, MinArea: e.Options.MinTriangleArea,
		Ortho:           sc.Camera.Ortho,
		ClipNear:        e.Options.NearClip,
		DebugFaceColors: e.Options.DebugFaceColors,
	}

	var allTris []pipeline.TriangleData
	for _, obj := range sc.Objects {
		if !obj.Visible {
			continue
		}
		mesh, err := sc.MeshByName(obj.MeshName)
		if err != nil {
			e.logger.Warn("rendering object: mesh not found", "object", obj.Name, "mesh", obj.MeshName)
			continue
		}
		mat, err := sc.MaterialByName(obj.MaterialName)
		if err != nil {
			e.logger.Warn("rendering object: material not found", "object", obj.Name, "material", obj.MaterialName)
			continue
		}
		mb := mesh.AsMeshBase()
		verts := pipeline.ProcessVertices(mb.Positions, mb.Normals, mb.UVs, obj.Pose.WorldMatrix, obj.Pose.NormMatrix, sc.Camera.ViewMatrix, sc.Camera.ProjMatrix, e.Options.Width, e.Options.Height, e.pool)
		tris := pipeline.AssembleTriangles(mb.Triangles, verts, mat, assembleOpts, e.pool)
		allTris = append(allTris, tris...)
	}

	rasterOpts := pipeline.RasterOptions{
		Wireframe: e.Options.Wireframe,
		Shade:     shadeCtx,
	}
	pipeline.RasterizeTriangles(allTris, e.fb, sc.Camera.Pos, rasterOpts, e.pool)
	e.fb.Resolve()

	return nil
}

// WriteColorPNG writes the resolved color buffer to path as 8-bit sRGB
// RGBA, gamma-encoding each channel first when Options.UseGamma is set.
func (e *Engine) WriteColorPNG(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, e.fb.Width, e.fb.Height))
	for y := 0; y < e.fb.Height; y++ {
		for x := 0; x < e.fb.Width; x++ {
			c := e.fb.Color[y*e.fb.Width+x]
			if e.Options.UseGamma {
				c = blend.ToSRGB3(c)
			}
			img.SetRGBA(x, y, color.RGBA{
				R: to8(c.X), G: to8(c.Y), B: to8(c.Z), A: 255,
			})
		}
	}
	return writePNG(path, img)
}

// WriteDepthPNG writes the resolved depth buffer to path as 8-bit
// grayscale, normalized against the buffer's own observed min/max rather
// than the camera's near/far planes.
func (e *Engine) WriteDepthPNG(path string) error {
	minD, maxD := math32.Infinity, float32(0)
	for _, d := range e.fb.Depth {
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	span := maxD - minD
	if span <= 0 {
		span = 1
	}

	img := image.NewGray(image.Rect(0, 0, e.fb.Width, e.fb.Height))
	for y := 0; y < e.fb.Height; y++ {
		for x := 0; x < e.fb.Width; x++ {
			d := e.fb.Depth[y*e.fb.Width+x]
			t := math32.Clamp((d-minD)/span, 0, 1)
			img.SetGray(x, y, color.Gray{Y: to8(1 - t)})
		}
	}
	return writePNG(path, img)
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("engine: creating output dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("engine: encoding %s: %w", path, err)
	}
	return nil
}

func to8(c float32) uint8 {
	c = math32.Clamp(c, 0, 1)
	return uint8(c*255 + 0.5)
}
