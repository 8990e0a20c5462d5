package pipeline

import (
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/parallel"
	"github.com/cogentraster/raster3d/scene"
)

// TriangleData is C2's output: one screen-space triangle ready for the
// rasterizer, carrying everything C5/C6 need to interpolate and shade it.
type TriangleData struct {
	Screen [3]math32.Vector2
	NDCZ   [3]float32
	ViewZ  [3]float32

	WorldPos    [3]math32.Vector3
	WorldNormal [3]math32.Vector3
	UV          [3]math32.Vector2

	// FaceNormal is the geometric normal from the world-space edges,
	// used only when a vertex normal is zero/NaN.
	FaceNormal math32.Vector3

	Material scene.Material
	Alpha    float32

	// TextureSource tags where the shader should pull the albedo from
	// for this triangle.
	TextureSource scene.TextureSource

	// FaceIndex is this triangle's position in the mesh's Triangles
	// slice, used to seed the debug FaceColor color and any deterministic
	// per-face randomization.
	FaceIndex int

	// FaceColor is the flat per-face color used when TextureSource is
	// TextureFaceColor.
	FaceColor math32.Vector3

	// BackFacing records the orientation when back-face culling is
	// disabled (the small-triangle/back-face filtering otherwise would
	// have discarded this triangle outright).
	BackFacing bool

	// Ortho is true when this triangle was projected with an orthographic
	// matrix; the rasterizer skips the perspective-correction divide when set.
	Ortho bool
}

// AssembleOptions groups the per-frame settings C2's culling decisions
// depend on.
type AssembleOptions struct {
	Width, Height int

	// BackfaceCull discards triangles with non-positive signed screen area.
	BackfaceCull bool

	// CullSmall discards triangles below MinArea as a fraction of the
	// viewport area.
	CullSmall bool
	MinArea   float32

	// Ortho marks every emitted triangle as orthographically projected
	// (disables the C5 perspective-correct interpolation divide).
	Ortho bool

	// ClipNear selects Sutherland-Hodgman near-plane clipping of any
	// triangle that crosses the near plane. On by default; with
	// RenderSettings.render.near_clip=false such a triangle is passed on
	// unclipped (only the all-outside-one-plane test can discard it), for
	// regression comparison against renderers that don't clip.
	ClipNear bool

	// DebugFaceColors tags every emitted triangle to source its albedo from
	// a deterministic per-face debug color instead of its material.
	DebugFaceColors bool
}

// AssembleTriangles runs C2 over a mesh's triangle list, producing the
// TriangleData records the rasterizer will consume. verts must be the
// output of [ProcessVertices] for the same mesh. Each source triangle may
// expand into zero, one, or two TriangleData records when ClipNear
// straddles the near plane, so the triangle list is split into one
// contiguous chunk per pool worker, each job appending to its own local
// slice, merged in chunk order once all jobs finish.
func AssembleTriangles(tris []scene.Triangle, verts []VertexRecord, mat scene.Material, opts AssembleOptions, pool *parallel.WorkerPool) []TriangleData {
	n := len(tris)
	if n == 0 {
		return nil
	}

	base := mat.AsMaterialBase()
	texSource := classifyTextureSource(base, opts.DebugFaceColors)

	partials := make([][]TriangleData, pool.Workers())

	chunk := (n + pool.Workers() - 1) / pool.Workers()
	jobs := make([]func(), 0, pool.Workers())
	for w := 0; w < pool.Workers(); w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wi := w
		s, e := start, end
		jobs = append(jobs, func() {
			var local []TriangleData
			for i := s; i < e; i++ {
				local = assembleOne(local, tris[i], i, verts, mat, base, texSource, opts)
			}
			partials[wi] = local
		})
	}
	pool.ExecuteAll(jobs)

	var total int
	for _, p := range partials {
		total += len(p)
	}
	result := make([]TriangleData, 0, total)
	for _, p := range partials {
		result = append(result, p...)
	}
	return result
}

func assembleOne(out []TriangleData, t scene.Triangle, faceIndex int, verts []VertexRecord, mat scene.Material, base *scene.MaterialBase, texSource scene.TextureSource, opts AssembleOptions) []TriangleData {
	a, b, c := verts[t.A], verts[t.B], verts[t.C]

	if clipTestDiscards(a, b, c) {
		return out
	}

	triples := [][3]VertexRecord{{a, b, c}}
	if opts.ClipNear {
		if clippedByNearPlane(a, b, c) {
			triples = ClipNearPlane([3]VertexRecord{a, b, c}, opts.Width, opts.Height)
		}
	}

	for _, tri := range triples {
		va, vb, vc := tri[0], tri[1], tri[2]
		area := signedArea(va.Screen, vb.Screen, vc.Screen)
		backFacing := area <= 0

		if opts.BackfaceCull && !base.DoubleSided && backFacing {
			continue
		}

		if opts.CullSmall {
			viewportArea := float32(opts.Width * opts.Height)
			if viewportArea > 0 && math32.Abs(area)/viewportArea < opts.MinArea {
				continue
			}
		}

		td := TriangleData{
			Screen:        [3]math32.Vector2{va.Screen, vb.Screen, vc.Screen},
			NDCZ:          [3]float32{va.NDCZ, vb.NDCZ, vc.NDCZ},
			ViewZ:         [3]float32{va.ViewZ, vb.ViewZ, vc.ViewZ},
			WorldPos:      [3]math32.Vector3{va.WorldPos, vb.WorldPos, vc.WorldPos},
			WorldNormal:   [3]math32.Vector3{va.WorldNormal, vb.WorldNormal, vc.WorldNormal},
			UV:            [3]math32.Vector2{va.UV, vb.UV, vc.UV},
			Material:      mat,
			Alpha:         base.Alpha,
			TextureSource: texSource,
			FaceIndex:     faceIndex,
			FaceColor:     t.FaceColor,
			BackFacing:    backFacing,
			Ortho:         opts.Ortho,
		}
		td.FaceNormal = faceNormal(va.WorldPos, vb.WorldPos, vc.WorldPos)
		if td.TextureSource == scene.TextureFaceColor && t.FaceColor.IsNil() {
			td.FaceColor = DebugFaceColor(faceIndex)
		}
		out = append(out, td)
	}
	return out
}

func classifyTextureSource(base *scene.MaterialBase, debugFaceColors bool) scene.TextureSource {
	if base.TextureSource == scene.TextureImage && base.TextureName != "" {
		return scene.TextureImage
	}
	if debugFaceColors {
		return scene.TextureFaceColor
	}
	return scene.TextureSolidColor
}

// clipTestDiscards implements C2 step 2's all-outside-one-plane test: a
// triangle is discarded only when every vertex lies outside the same
// clip plane (x>w, x<-w, y>w, y<-w, z>w, z<-w).
func clipTestDiscards(a, b, c VertexRecord) bool {
	outside := func(get func(VertexRecord) (float32, float32)) bool {
		for _, v := range [3]VertexRecord{a, b, c} {
			coord, w := get(v)
			if coord <= w {
				return false
			}
		}
		return true
	}
	outsideNeg := func(get func(VertexRecord) (float32, float32)) bool {
		for _, v := range [3]VertexRecord{a, b, c} {
			coord, w := get(v)
			if coord >= -w {
				return false
			}
		}
		return true
	}

	xw := func(v VertexRecord) (float32, float32) { return v.Clip.X, v.Clip.W }
	yw := func(v VertexRecord) (float32, float32) { return v.Clip.Y, v.Clip.W }
	zw := func(v VertexRecord) (float32, float32) { return v.Clip.Z, v.Clip.W }

	if outside(xw) || outsideNeg(xw) {
		return true
	}
	if outside(yw) || outsideNeg(yw) {
		return true
	}
	if outside(zw) || outsideNeg(zw) {
		return true
	}
	return false
}

// clippedByNearPlane reports whether any vertex is behind the near plane
// (w<=0 or z<-w), meaning the triangle straddles or sits entirely behind
// the camera. When ClipNear is set, assembleOne uses it to decide whether
// the triangle goes through [ClipNearPlane], which re-triangulates it
// into 0/1/2 near-plane-clipped triangles; triangles for which it
// reports false are kept as they are.
func clippedByNearPlane(a, b, c VertexRecord) bool {
	for _, v := range [3]VertexRecord{a, b, c} {
		if v.Clip.W <= 1e-6 || v.Clip.Z < -v.Clip.W {
			return true
		}
	}
	return false
}

func signedArea(a, b, c math32.Vector2) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

func faceNormal(a, b, c math32.Vector3) math32.Vector3 {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	n := e1.Cross(e2)
	if n.IsNil() {
		return math32.Vec3(0, 1, 0)
	}
	return n.Normal()
}

// DebugFaceColor returns a deterministic pseudo-random color for face
// index i, used by the TextureFaceColor debug visualization.
func DebugFaceColor(i int) math32.Vector3 {
	h := uint32(i)*2654435761 + 0x9e3779b9
	h ^= h >> 15
	h *= 0x85ebca6b
	h ^= h >> 13
	r := float32((h>>0)&0xff) / 255
	g := float32((h>>8)&0xff) / 255
	b := float32((h>>16)&0xff) / 255
	return math32.Vec3(0.2+0.8*r, 0.2+0.8*g, 0.2+0.8*b)
}
