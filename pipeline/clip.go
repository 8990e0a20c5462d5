package pipeline

import "github.com/cogentraster/raster3d/math32"

// ClipNearPlane does Sutherland-Hodgman clipping of a single triangle
// against the near plane (clip.Z >= -clip.W), run
// before the triangle reaches screen-space assembly. A triangle entirely
// in front of the plane is returned unchanged (as one triangle); a
// triangle straddling it is clipped into a convex polygon of 3 or 4
// vertices and fan-triangulated; a triangle entirely behind it yields no
// triangles.
//
// All per-vertex attributes are affine in clip space (they were produced
// by a linear transform of object-space coordinates), so lerping them at
// the plane-intersection parameter before the perspective divide is
// exact — only the derived NDCZ/Screen fields need recomputing
// afterward, which recomputeDerived does.
func ClipNearPlane(verts [3]VertexRecord, width, height int) [][3]VertexRecord {
	poly := []VertexRecord{verts[0], verts[1], verts[2]}
	clipped := clipPolygonNear(poly)
	if len(clipped) < 3 {
		return nil
	}
	for i := range clipped {
		recomputeDerived(&clipped[i], width, height)
	}

	out := make([][3]VertexRecord, 0, len(clipped)-2)
	for i := 1; i+1 < len(clipped); i++ {
		out = append(out, [3]VertexRecord{clipped[0], clipped[i], clipped[i+1]})
	}
	return out
}

func insideNear(v VertexRecord) bool {
	return v.Clip.Z >= -v.Clip.W
}

func lerpVertex(a, b VertexRecord, t float32) VertexRecord {
	var out VertexRecord
	out.Clip = a.Clip.Lerp(b.Clip, t)
	out.WorldPos = a.WorldPos.Lerp(b.WorldPos, t)
	out.WorldNormal = a.WorldNormal.Lerp(b.WorldNormal, t)
	out.UV = a.UV.Lerp(b.UV, t)
	out.ViewZ = a.ViewZ + (b.ViewZ-a.ViewZ)*t
	return out
}

func clipPolygonNear(poly []VertexRecord) []VertexRecord {
	if len(poly) == 0 {
		return nil
	}
	var out []VertexRecord
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		prev := poly[(i-1+n)%n]
		curIn := insideNear(cur)
		prevIn := insideNear(prev)

		if curIn {
			if !prevIn {
				out = append(out, intersectNear(prev, cur))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, intersectNear(prev, cur))
		}
	}
	return out
}

func intersectNear(a, b VertexRecord) VertexRecord {
	da := a.Clip.Z + a.Clip.W
	db := b.Clip.Z + b.Clip.W
	denom := da - db
	t := float32(0.5)
	if denom != 0 {
		t = da / denom
	}
	return lerpVertex(a, b, t)
}

func recomputeDerived(v *VertexRecord, width, height int) {
	if v.Clip.W > 1e-8 {
		ndc := v.Clip.PerspDiv()
		v.NDCZ = ndc.Z
		v.Screen = math32.Vec2(
			(ndc.X+1)*float32(width)/2,
			(1-ndc.Y)*float32(height)/2,
		)
	}
}
