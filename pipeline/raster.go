package pipeline

import (
	"github.com/cogentraster/raster3d/blend"
	"github.com/cogentraster/raster3d/framebuf"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/parallel"
)

// Strategy selects how C5 splits a frame's triangle list across the
// worker pool, chosen once per frame by [ChooseStrategy].
type Strategy int

const (
	// StrategySmallTriangleParallel gives one worker full ownership of
	// each triangle, balanced by the pool's work-stealing queues.
	StrategySmallTriangleParallel Strategy = iota

	// StrategyLargeTrianglePixelParallel splits every triangle's pixel
	// rows across the pool before moving to the next triangle.
	StrategyLargeTrianglePixelParallel

	// StrategyMixed dispatches large-triangle row jobs and small-triangle
	// whole-triangle jobs into a single pool batch, so both groups run
	// concurrently against each other.
	StrategyMixed
)

// largeTriangleAreaThreshold is the per-triangle bounding-box pixel area
// above which a triangle is treated as "large" for scheduling purposes.
const largeTriangleAreaThreshold = 256

// ChooseStrategy picks a rasterization strategy for a frame's triangle
// list: it samples the screen-space area of the first 50 triangles (or
// fewer, if the frame has fewer) to estimate the average, then picks a
// strategy from triangle count and that estimate.
func ChooseStrategy(tris []TriangleData, width, height int) Strategy {
	n := len(tris)
	if n == 0 {
		return StrategySmallTriangleParallel
	}
	sampleN := n
	if sampleN > 50 {
		sampleN = 50
	}
	var totalArea float32
	for i := 0; i < sampleN; i++ {
		totalArea += triangleBoxArea(tris[i].Screen)
	}
	avgArea := totalArea / float32(sampleN)
	viewportArea := float32(width * height)

	if n > 2000 && avgArea > 0.0005*viewportArea {
		return StrategyMixed
	}
	if avgArea > 500 || n < 100 {
		return StrategyLargeTrianglePixelParallel
	}
	return StrategySmallTriangleParallel
}

func triangleBoxArea(screen [3]math32.Vector2) float32 {
	minX, minY, maxX, maxY := boundsOf(screen)
	w := maxX - minX
	h := maxY - minY
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

func boundsOf(screen [3]math32.Vector2) (minX, minY, maxX, maxY float32) {
	minX, maxX = screen[0].X, screen[0].X
	minY, maxY = screen[0].Y, screen[0].Y
	for _, p := range screen[1:] {
		minX = math32.Min(minX, p.X)
		maxX = math32.Max(maxX, p.X)
		minY = math32.Min(minY, p.Y)
		maxY = math32.Max(maxY, p.Y)
	}
	return
}

func triangleBounds(screen [3]math32.Vector2, width, height int) (minX, minY, maxX, maxY int) {
	fMinX, fMinY, fMaxX, fMaxY := boundsOf(screen)
	minX = int(math32.Floor(fMinX))
	minY = int(math32.Floor(fMinY))
	maxX = int(math32.Ceil(fMaxX))
	maxY = int(math32.Ceil(fMaxY))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > width-1 {
		maxX = width - 1
	}
	if maxY > height-1 {
		maxY = height - 1
	}
	return
}

// barycentric evaluates the edge-function barycentric weights of point
// (px,py) against triangle (a,b,c), using the precomputed 1/signed-area.
// ok is true when the point lies inside or on the triangle, accounting
// for either winding (a back-facing, double-sided triangle has a negative
// area, and the edge values flip sign consistently with it).
func barycentric(a, b, c math32.Vector2, px, py, invArea float32) (l0, l1, l2 float32, ok bool) {
	w0 := edgeFn(b, c, px, py)
	w1 := edgeFn(c, a, px, py)
	w2 := edgeFn(a, b, px, py)
	l0 = w0 * invArea
	l1 = w1 * invArea
	l2 = w2 * invArea
	const eps = -1e-5
	ok = l0 >= eps && l1 >= eps && l2 >= eps
	return
}

func edgeFn(p0, p1 math32.Vector2, px, py float32) float32 {
	return (p1.X-p0.X)*(py-p0.Y) - (p1.Y-p0.Y)*(px-p0.X)
}

// RasterOptions groups the per-frame rasterizer settings.
type RasterOptions struct {
	Wireframe bool
	Shade     *ShadeContext
}

// RasterizeTriangles runs C5: it picks a scheduling strategy, then for
// every triangle resolves MSAA-sample coverage, the atomic depth test,
// perspective-correct attribute interpolation, the C6 shader call, and
// the alpha composite into fb's sample buffer.
func RasterizeTriangles(tris []TriangleData, fb *framebuf.Framebuffer, eye math32.Vector3, opts RasterOptions, pool *parallel.WorkerPool) {
	if len(tris) == 0 {
		return
	}
	offsets := framebuf.MSAAOffsets(fb.Samples)

	if opts.Wireframe {
		jobs := make([]func(), len(tris))
		for i := range tris {
			t := &tris[i]
			jobs[i] = func() { rasterizeWireframe(t, fb) }
		}
		pool.ExecuteAll(jobs)
		return
	}

	strategy := ChooseStrategy(tris, fb.Width, fb.Height)
	switch strategy {
	case StrategyLargeTrianglePixelParallel:
		for i := range tris {
			rasterizeRowsParallel(&tris[i], fb, offsets, eye, opts.Shade, pool)
		}
	case StrategySmallTriangleParallel:
		jobs := make([]func(), len(tris))
		for i := range tris {
			t := &tris[i]
			jobs[i] = func() { rasterizeTriangleFull(t, fb, offsets, eye, opts.Shade) }
		}
		pool.ExecuteAll(jobs)
	case StrategyMixed:
		var jobs []func()
		for i := range tris {
			t := &tris[i]
			if triangleBoxArea(t.Screen) > largeTriangleAreaThreshold {
				jobs = append(jobs, rowJobsFor(t, fb, offsets, eye, opts.Shade)...)
			} else {
				jobs = append(jobs, func() { rasterizeTriangleFull(t, fb, offsets, eye, opts.Shade) })
			}
		}
		pool.ExecuteAll(jobs)
	}
}

func rasterizeTriangleFull(td *TriangleData, fb *framebuf.Framebuffer, offsets []math32.Vector2, eye math32.Vector3, shade *ShadeContext) {
	minX, minY, maxX, maxY := triangleBounds(td.Screen, fb.Width, fb.Height)
	for y := minY; y <= maxY; y++ {
		rasterizeRow(td, fb, offsets, eye, shade, y, minX, maxX)
	}
}

func rasterizeRowsParallel(td *TriangleData, fb *framebuf.Framebuffer, offsets []math32.Vector2, eye math32.Vector3, shade *ShadeContext, pool *parallel.WorkerPool) {
	jobs := rowJobsFor(td, fb, offsets, eye, shade)
	pool.ExecuteAll(jobs)
}

func rowJobsFor(td *TriangleData, fb *framebuf.Framebuffer, offsets []math32.Vector2, eye math32.Vector3, shade *ShadeContext) []func() {
	minX, minY, maxX, maxY := triangleBounds(td.Screen, fb.Width, fb.Height)
	if minY > maxY {
		return nil
	}
	jobs := make([]func(), 0, maxY-minY+1)
	for y := minY; y <= maxY; y++ {
		row := y
		jobs = append(jobs, func() { rasterizeRow(td, fb, offsets, eye, shade, row, minX, maxX) })
	}
	return jobs
}

func rasterizeRow(td *TriangleData, fb *framebuf.Framebuffer, offsets []math32.Vector2, eye math32.Vector3, shade *ShadeContext, y, minX, maxX int) {
	if minX > maxX {
		return
	}
	a, b, c := td.Screen[0], td.Screen[1], td.Screen[2]
	area := edgeFn(a, b, c.X, c.Y)
	if area == 0 {
		return
	}
	invArea := 1 / area

	for x := minX; x <= maxX; x++ {
		for s, off := range offsets {
			px := float32(x) + 0.5 + off.X
			py := float32(y) + 0.5 + off.Y
			l0, l1, l2, ok := barycentric(a, b, c, px, py, invArea)
			if !ok {
				continue
			}
			shadeSample(td, fb, eye, shade, x, y, s, l0, l1, l2)
		}
	}
}

func shadeSample(td *TriangleData, fb *framebuf.Framebuffer, eye math32.Vector3, shade *ShadeContext, x, y, s int, l0, l1, l2 float32) {
	// A triangle's alpha is fixed at assembly time (no per-fragment alpha
	// texture is supported), so a near-fully-transparent triangle can be
	// discarded before it ever claims a depth sample, leaving depth
	// untouched for whatever surface is behind it.
	if td.Alpha <= 1.0/256 {
		return
	}

	ndcZ := l0*td.NDCZ[0] + l1*td.NDCZ[1] + l2*td.NDCZ[2]
	normalized := math32.Clamp(ndcZ*0.5+0.5, 0, 1)

	idx := fb.SampleIndex(x, y, s)
	if !fb.FetchMinDepth(idx, normalized) {
		return
	}

	p, n, uv := interpolateAttributes(td, l0, l1, l2)
	if n.IsNil() || math32.IsNaN(n.X) {
		n = td.FaceNormal
	}

	toEye := eye.Sub(p)
	viewDist := toEye.Length()
	viewDir := toEye.Normal()
	frag := Fragment{WorldPos: p, WorldNormal: n, UV: uv, ViewDir: viewDir, ViewDist: viewDist, Bary: [3]float32{l0, l1, l2}}

	color, alpha := Shade(td, frag, shade)

	// Gamma encoding is applied once at final image write time (Engine),
	// not per-sample, so overlapping fragments aren't re-encoded.
	dst := fb.SampleColor[idx]
	fb.SampleColor[idx] = blend.SourceOver(color, alpha, dst)
}

func interpolateAttributes(td *TriangleData, l0, l1, l2 float32) (p, n math32.Vector3, uv math32.Vector2) {
	if td.Ortho {
		p = weighted3(td.WorldPos, l0, l1, l2)
		n = weighted3(td.WorldNormal, l0, l1, l2).Normal()
		uv = weighted2(td.UV, l0, l1, l2)
		return
	}

	invZ0, invZ1, invZ2 := invView(td.ViewZ[0]), invView(td.ViewZ[1]), invView(td.ViewZ[2])
	wSum := l0*invZ0 + l1*invZ1 + l2*invZ2
	if wSum <= 1e-12 {
		p = weighted3(td.WorldPos, l0, l1, l2)
		n = weighted3(td.WorldNormal, l0, l1, l2).Normal()
		uv = weighted2(td.UV, l0, l1, l2)
		return
	}
	invW := 1 / wSum

	px := (l0*td.WorldPos[0].X*invZ0 + l1*td.WorldPos[1].X*invZ1 + l2*td.WorldPos[2].X*invZ2) * invW
	py := (l0*td.WorldPos[0].Y*invZ0 + l1*td.WorldPos[1].Y*invZ1 + l2*td.WorldPos[2].Y*invZ2) * invW
	pz := (l0*td.WorldPos[0].Z*invZ0 + l1*td.WorldPos[1].Z*invZ1 + l2*td.WorldPos[2].Z*invZ2) * invW
	p = math32.Vec3(px, py, pz)

	nx := (l0*td.WorldNormal[0].X*invZ0 + l1*td.WorldNormal[1].X*invZ1 + l2*td.WorldNormal[2].X*invZ2) * invW
	ny := (l0*td.WorldNormal[0].Y*invZ0 + l1*td.WorldNormal[1].Y*invZ1 + l2*td.WorldNormal[2].Y*invZ2) * invW
	nz := (l0*td.WorldNormal[0].Z*invZ0 + l1*td.WorldNormal[1].Z*invZ1 + l2*td.WorldNormal[2].Z*invZ2) * invW
	n = math32.Vec3(nx, ny, nz).Normal()

	u := (l0*td.UV[0].X*invZ0 + l1*td.UV[1].X*invZ1 + l2*td.UV[2].X*invZ2) * invW
	v := (l0*td.UV[0].Y*invZ0 + l1*td.UV[1].Y*invZ1 + l2*td.UV[2].Y*invZ2) * invW
	uv = math32.Vec2(u, v)
	return
}

func invView(z float32) float32 {
	if z < 1e-6 {
		return 1e6
	}
	return 1 / z
}

func weighted3(v [3]math32.Vector3, l0, l1, l2 float32) math32.Vector3 {
	return math32.Vec3(
		v[0].X*l0+v[1].X*l1+v[2].X*l2,
		v[0].Y*l0+v[1].Y*l1+v[2].Y*l2,
		v[0].Z*l0+v[1].Z*l1+v[2].Z*l2,
	)
}

func weighted2(v [3]math32.Vector2, l0, l1, l2 float32) math32.Vector2 {
	return math32.Vec2(
		v[0].X*l0+v[1].X*l1+v[2].X*l2,
		v[0].Y*l0+v[1].Y*l1+v[2].Y*l2,
	)
}

// rasterizeWireframe steps the three edges with a Bresenham-like DDA,
// skipping the interior, and writes plain white into every sample of the
// touched pixels that wins the depth test at the edge's interpolated depth.
func rasterizeWireframe(td *TriangleData, fb *framebuf.Framebuffer) {
	edges := [3][2]int{{0, 1}, {1, 2}, {2, 0}}
	white := math32.Vec3(1, 1, 1)
	for _, e := range edges {
		drawLine(td, fb, white, e[0], e[1])
	}
}

func drawLine(td *TriangleData, fb *framebuf.Framebuffer, color math32.Vector3, i0, i1 int) {
	p0, p1 := td.Screen[i0], td.Screen[i1]
	z0, z1 := td.NDCZ[i0], td.NDCZ[i1]

	dx := math32.Abs(p1.X - p0.X)
	dy := math32.Abs(p1.Y - p0.Y)
	steps := dx
	if dy > steps {
		steps = dy
	}
	if steps < 1 {
		steps = 1
	}
	n := int(steps)
	for i := 0; i <= n; i++ {
		t := float32(i) / float32(n)
		x := int(math32.Lerp(p0.X, p1.X, t))
		y := int(math32.Lerp(p0.Y, p1.Y, t))
		if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
			continue
		}
		z := math32.Lerp(z0, z1, t)
		normalized := math32.Clamp(z*0.5+0.5, 0, 1)
		for s := 0; s < fb.Samples; s++ {
			idx := fb.SampleIndex(x, y, s)
			if fb.FetchMinDepth(idx, normalized) {
				fb.SampleColor[idx] = color
			}
		}
	}
}
