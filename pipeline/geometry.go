// Package pipeline implements the core rendering pipeline stages:
// per-vertex geometry transform, triangle assembly and culling, the
// shadow-map pass, the parallel rasterizer, and the shader.
package pipeline

import (
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/parallel"
)

// VertexRecord is C1's output: one processed vertex ready for triangle
// assembly.
type VertexRecord struct {
	// Clip is the clip-space position (pre perspective-divide).
	Clip math32.Vector4

	// Screen is the viewport-space pixel position (post perspective-divide,
	// with screen-space Y flipped to match the top-left image origin).
	Screen math32.Vector2

	// NDCZ is the post-divide NDC depth in [-1,1] (before the [0,1]
	// normalization the framebuffer stores).
	NDCZ float32

	// ViewZ is the magnitude of the view-space depth: positive, growing
	// with distance from the camera.
	ViewZ float32

	// WorldPos is the vertex position after the model transform.
	WorldPos math32.Vector3

	// WorldNormal is the vertex normal after the normal matrix transform,
	// renormalized. Zero if the source normal was zero or produced a NaN.
	WorldNormal math32.Vector3

	// UV is the passthrough texture coordinate.
	UV math32.Vector2

	// OutsideUnitCube flags a vertex whose clip-space position, once
	// w-divided, falls outside [-1,1] on any axis. Set but not acted on
	// here; [AssembleTriangles] makes the clip/cull decision.
	OutsideUnitCube bool
}

// ProcessVertices transforms every vertex of a mesh: applies the model
// transform and the view-projection matrix, computes view-space depth,
// and carries the UV coordinate through unchanged. The work is trivially
// parallel over vertices, dispatched across pool in pool.Workers() chunks
// rather than a fresh goroutine fan-out per call.
func ProcessVertices(positions []math32.Vector3, normals []math32.Vector3, uvs []math32.Vector2, model math32.Matrix4, normalMat math32.Matrix3, view, proj math32.Matrix4, width, height int, pool *parallel.WorkerPool) []VertexRecord {
	n := len(positions)
	out := make([]VertexRecord, n)

	var viewProj math32.Matrix4
	viewProj.MulMatrices(&proj, &view)

	hasUV := len(uvs) == n

	pool.ForEachN(n, func(start, end int) {
		for i := start; i < end; i++ {
			var uv math32.Vector2
			if hasUV {
				uv = uvs[i]
			}
			out[i] = processVertex(positions[i], normals[i], uv, &model, &normalMat, &view, &viewProj, width, height)
		}
	})
	return out
}

func processVertex(pos, normal math32.Vector3, uv math32.Vector2, model *math32.Matrix4, normalMat *math32.Matrix3, view, viewProj *math32.Matrix4, width, height int) VertexRecord {
	worldV4 := math32.Vec4(pos.X, pos.Y, pos.Z, 1)
	worldPos4 := worldV4.MulMatrix4(model)
	worldPos := math32.Vec3(worldPos4.X, worldPos4.Y, worldPos4.Z)

	worldNormal := normalMat.MulVector3(normal)
	if nl := worldNormal.Length(); nl > 1e-12 && !math32.IsNaN(nl) {
		worldNormal = worldNormal.DivScalar(nl)
	} else {
		worldNormal = math32.Vector3{}
	}

	clip := worldPos4.MulMatrix4(viewProj)

	rec := VertexRecord{
		Clip:        clip,
		WorldPos:    worldPos,
		WorldNormal: worldNormal,
		UV:          uv,
	}

	viewPos4 := worldPos4.MulMatrix4(view)
	rec.ViewZ = math32.Abs(viewPos4.Z)

	if clip.W > 1e-8 {
		ndc := clip.PerspDiv()
		rec.NDCZ = ndc.Z
		rec.Screen = math32.Vec2(
			(ndc.X+1)*float32(width)/2,
			(1-ndc.Y)*float32(height)/2,
		)
		if math32.Abs(ndc.X) > 1 || math32.Abs(ndc.Y) > 1 || math32.Abs(ndc.Z) > 1 {
			rec.OutsideUnitCube = true
		}
	} else {
		// Behind the eye or on the w=0 plane: no well-defined screen
		// position. Flag it; triangle assembly's clip test discards
		// triangles with every vertex outside the frustum.
		rec.OutsideUnitCube = true
	}

	return rec
}
