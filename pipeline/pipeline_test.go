package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentraster/raster3d/framebuf"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/parallel"
	"github.com/cogentraster/raster3d/scene"
)

func quadVerts(z float32, width, height int, pool *parallel.WorkerPool) []VertexRecord {
	positions := []math32.Vector3{
		math32.Vec3(-10, -10, z), math32.Vec3(10, -10, z),
		math32.Vec3(10, 10, z), math32.Vec3(-10, 10, z),
	}
	normals := []math32.Vector3{
		math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1),
	}
	uvs := []math32.Vector2{math32.Vec2(0, 0), math32.Vec2(1, 0), math32.Vec2(1, 1), math32.Vec2(0, 1)}

	view := math32.Identity4()
	var proj math32.Matrix4
	proj.SetOrthographic(20, 20, 0.1, 100)
	return ProcessVertices(positions, normals, uvs, math32.Identity4(), math32.Identity3(), view, proj, width, height, pool)
}

func quadTriangles(verts []VertexRecord, mat scene.Material, width, height int, pool *parallel.WorkerPool) []TriangleData {
	tris := []scene.Triangle{{A: 0, B: 1, C: 2}, {A: 0, B: 2, C: 3}}
	opts := AssembleOptions{Width: width, Height: height, Ortho: true}
	return AssembleTriangles(tris, verts, mat, opts, pool)
}

// TestRasterizeTrianglesDepthOrdering is Scenario B: two overlapping quads
// at different depths must resolve to the nearer one everywhere, with the
// depth buffer holding that quad's exact normalized NDC depth.
func TestRasterizeTrianglesDepthOrdering(t *testing.T) {
	width, height := 16, 16
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	red := scene.NewBlinnPhongMaterial("red", math32.Vec3(1, 0, 0))
	blue := scene.NewBlinnPhongMaterial("blue", math32.Vec3(0, 0, 1))

	farZ, nearZ := float32(-10), float32(-2)
	farVerts := quadVerts(farZ, width, height, pool)
	nearVerts := quadVerts(nearZ, width, height, pool)

	var allTris []TriangleData
	allTris = append(allTris, quadTriangles(farVerts, red, width, height, pool)...)
	allTris = append(allTris, quadTriangles(nearVerts, blue, width, height, pool)...)
	require.NotEmpty(t, allTris)

	fb := framebuf.New(width, height, 1)
	fb.ClearTo(make([]math32.Vector3, width*height))

	sc := scene.NewScene("s")
	sc.Ambient = scene.Ambient{Color: math32.Vec3(1, 1, 1), Intensity: 1}
	shadeCtx := &ShadeContext{Scene: sc}
	RasterizeTriangles(allTris, fb, math32.Vec3(0, 0, 10), RasterOptions{Shade: shadeCtx}, pool)
	fb.Resolve()

	center := fb.Color[(height/2)*width+width/2]
	// The nearer (blue) quad must win the depth test at the shared center pixel.
	assert.Greater(t, center.Z, center.X, "expected the nearer blue quad to be visible, got %+v", center)

	// Project z=-2 through the same orthographic frustum quadVerts uses
	// (near=0.1, far=100) to get the exact expected normalized depth.
	var proj math32.Matrix4
	proj.SetOrthographic(20, 20, 0.1, 100)
	clipZ := math32.Vec4(0, 0, nearZ, 1).MulMatrix4(&proj)
	wantNDCZ := clipZ.Z / clipZ.W
	wantDepth := wantNDCZ*0.5 + 0.5

	for _, d := range fb.Depth {
		assert.InDelta(t, wantDepth, d, 1e-4)
	}
	assert.Equal(t, math32.Vec3(0, 0, 1), center, "fully-opaque blue quad should be exactly blue, no blending")
}

// TestRasterizeSanityTriangle is Scenario A: a single triangle rendered
// with flat ambient-only red shading against a black background must cover
// exactly its geometric footprint, at exactly NDC depth 0 (normalized 0.5),
// and leave every other pixel untouched.
func TestRasterizeSanityTriangle(t *testing.T) {
	width, height := 4, 4
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	positions := []math32.Vector3{
		math32.Vec3(-1, -1, 0), math32.Vec3(1, -1, 0), math32.Vec3(0, 1, 0),
	}
	normals := []math32.Vector3{
		math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1),
	}
	uvs := []math32.Vector2{math32.Vec2(0, 0), math32.Vec2(1, 0), math32.Vec2(0.5, 1)}

	// Identity model/view/proj puts NDC coordinates directly at the given
	// positions, so the triangle's screen footprint is exactly the
	// textbook -1..1 NDC triangle mapped onto the 4x4 grid.
	verts := ProcessVertices(positions, normals, uvs, math32.Identity4(), math32.Identity3(), math32.Identity4(), math32.Identity4(), width, height, pool)
	tris := []scene.Triangle{{A: 0, B: 1, C: 2}}
	opts := AssembleOptions{Width: width, Height: height, Ortho: true}
	td := AssembleTriangles(tris, verts, scene.NewBlinnPhongMaterial("red", math32.Vec3(1, 0, 0)), opts, pool)
	require.Len(t, td, 1)

	fb := framebuf.New(width, height, 1)
	fb.ClearTo(make([]math32.Vector3, width*height))

	sc := scene.NewScene("s")
	sc.Ambient = scene.Ambient{Color: math32.Vec3(1, 1, 1), Intensity: 1}
	shadeCtx := &ShadeContext{Scene: sc}
	RasterizeTriangles(td, fb, math32.Vec3(0, 0, 10), RasterOptions{Shade: shadeCtx}, pool)
	fb.Resolve()

	covered := [][]bool{
		{false, false, false, false},
		{false, true, true, false},
		{false, true, true, false},
		{true, true, true, true},
	}
	red := math32.Vec3(1, 0, 0)
	black := math32.Vector3{}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if covered[y][x] {
				assert.Equal(t, red, fb.Color[idx], "pixel (%d,%d) should be red", x, y)
				assert.InDelta(t, float32(0.5), fb.Depth[idx], 1e-5, "pixel (%d,%d) depth", x, y)
			} else {
				assert.Equal(t, black, fb.Color[idx], "pixel (%d,%d) should be background black", x, y)
				assert.Equal(t, float32(1), fb.Depth[idx], "pixel (%d,%d) depth should stay at the clear sentinel", x, y)
			}
		}
	}
}

// TestRasterizeMSAAPartialCoverage is Scenario C: a pixel covered by
// exactly half of its MSAA samples resolves to a color halfway between the
// triangle's color and the background, since Resolve averages over every
// sample including the uncovered ones.
func TestRasterizeMSAAPartialCoverage(t *testing.T) {
	width, height := 1, 1
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	// A vertical edge through the pixel center splits the 4x MSAA pattern's
	// two left-hand samples (x offsets -0.125, -0.375) from its two
	// right-hand samples (x offsets +0.375, +0.125): a triangle covering
	// only x>=0.5 of this 1x1 framebuffer hits exactly half the samples.
	positions := []math32.Vector3{
		math32.Vec3(0, -5, -1), math32.Vec3(5, -5, -1), math32.Vec3(5, 5, -1), math32.Vec3(0, 5, -1),
	}
	normals := []math32.Vector3{
		math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1),
	}
	uvs := make([]math32.Vector2, 4)

	var proj math32.Matrix4
	proj.SetOrthographic(1, 1, 0.1, 100)
	verts := ProcessVertices(positions, normals, uvs, math32.Identity4(), math32.Identity3(), math32.Identity4(), proj, width, height, pool)
	tris := []scene.Triangle{{A: 0, B: 1, C: 2}, {A: 0, B: 2, C: 3}}
	opts := AssembleOptions{Width: width, Height: height, Ortho: true}
	white := scene.NewBlinnPhongMaterial("white", math32.Vec3(1, 1, 1))
	td := AssembleTriangles(tris, verts, white, opts, pool)
	require.NotEmpty(t, td)

	fb := framebuf.New(width, height, 4)
	fb.ClearTo(make([]math32.Vector3, width*height))

	sc := scene.NewScene("s")
	sc.Ambient = scene.Ambient{Color: math32.Vec3(1, 1, 1), Intensity: 1}
	shadeCtx := &ShadeContext{Scene: sc}
	RasterizeTriangles(td, fb, math32.Vec3(0, 0, 10), RasterOptions{Shade: shadeCtx}, pool)
	fb.Resolve()

	got := fb.Color[0]
	assert.InDelta(t, 0.5, got.X, 1e-4)
	assert.InDelta(t, 0.5, got.Y, 1e-4)
	assert.InDelta(t, 0.5, got.Z, 1e-4)
}

// TestShadeAlphaBlendExactOutput is Scenario D: a half-transparent,
// emissive-only PBR triangle composited with source-over alpha against a
// solid blue background must land at the exact midpoint of the two colors.
func TestShadeAlphaBlendExactOutput(t *testing.T) {
	width, height := 1, 1
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	positions := []math32.Vector3{
		math32.Vec3(-5, -5, 0), math32.Vec3(5, -5, 0), math32.Vec3(0, 5, 0),
	}
	normals := []math32.Vector3{
		math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1),
	}
	uvs := make([]math32.Vector2, 3)

	verts := ProcessVertices(positions, normals, uvs, math32.Identity4(), math32.Identity3(), math32.Identity4(), math32.Identity4(), width, height, pool)
	tris := []scene.Triangle{{A: 0, B: 1, C: 2}}
	opts := AssembleOptions{Width: width, Height: height, Ortho: true}

	mat := scene.NewPBRMaterial("glass", math32.Vec3(1, 0, 0), 0, 1)
	mat.Alpha = 0.5
	mat.Emissive = math32.Vec3(1, 0, 0)
	td := AssembleTriangles(tris, verts, mat, opts, pool)
	require.Len(t, td, 1)

	fb := framebuf.New(width, height, 1)
	background := math32.Vec3(0, 0, 1)
	fb.ClearTo([]math32.Vector3{background})

	sc := scene.NewScene("s")
	sc.Ambient = scene.Ambient{} // zero ambient isolates the emissive term.
	shadeCtx := &ShadeContext{Scene: sc}
	RasterizeTriangles(td, fb, math32.Vec3(0, 0, 10), RasterOptions{Shade: shadeCtx}, pool)
	fb.Resolve()

	want := math32.Vec3(0.5, 0, 0.5)
	got := fb.Color[0]
	assert.InDelta(t, want.X, got.X, 1e-4)
	assert.InDelta(t, want.Y, got.Y, 1e-4)
	assert.InDelta(t, want.Z, got.Z, 1e-4)
}

func TestAssembleTrianglesBackfaceCulling(t *testing.T) {
	width, height := 8, 8
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	mat := scene.NewBlinnPhongMaterial("m", math32.Vec3(1, 1, 1))
	verts := quadVerts(-5, width, height, pool)

	// Screen-space Y points down, so the winding {0,1,2} of quadVerts'
	// corners has negative signed screen area: that triangle faces away.
	backTris := []scene.Triangle{{A: 0, B: 1, C: 2}}
	opts := AssembleOptions{Width: width, Height: height, Ortho: true, BackfaceCull: true}
	out := AssembleTriangles(backTris, verts, mat, opts, pool)
	assert.Empty(t, out, "backface-culled triangle should be discarded")

	opts.BackfaceCull = false
	out = AssembleTriangles(backTris, verts, mat, opts, pool)
	assert.NotEmpty(t, out, "same triangle survives with culling disabled")
}
