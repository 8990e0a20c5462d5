package pipeline

import (
	"fmt"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/parallel"
	"github.com/cogentraster/raster3d/scene"
)

// ShadowMap is C3's output: a square depth texture produced from the
// first enabled directional light's point of view, plus the matrix that
// projects a world point into its UV/depth space.
type ShadowMap struct {
	Size int

	// Depth holds one atomic depth per texel, normalized to [0,1]
	// (NDC z * 0.5 + 0.5), the same convention the main framebuffer uses
	// so the fetch-min bit-compare trick applies here too.
	Depth []atomic.Uint32

	// LightMatrix is M_light = P_light * V_light.
	LightMatrix math32.Matrix4

	// LightDir is the direction (towards the light) the shadow map was
	// built for, needed by the bias computation at sample time.
	LightDir math32.Vector3
}

// ShadowOptions configures the test in [ShadowMap.Visibility].
type ShadowOptions struct {
	// PCF enables the 3x3 percentage-closer filter; otherwise a single
	// tap is used.
	PCF bool

	// BiasScale and BiasMin compute bias = max(BiasScale*(1-n.L), BiasMin).
	BiasScale, BiasMin float32
}

// DefaultShadowOptions returns the bias constants the prior source tuned
// by hand, kept as this implementation's defaults.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{PCF: true, BiasScale: 0.005, BiasMin: 0.0015}
}

type shadowHashObject struct {
	Mesh, Material string
	World          math32.Matrix4
	Alpha          float32
}

type shadowHashInput struct {
	LightDir math32.Vector3
	Size     int
	Objects  []shadowHashObject
}

// ShadowMapHash fingerprints everything [BuildShadowMap] reads from sc,
// light and size: the light's direction, the map's resolution, and every
// visible object's mesh/material identity and world transform (the
// triangles actually rasterized into the depth texture). Mirrors
// framebuf/cache.go's hashOf content-hash pattern so the caller can skip
// rebuilding the shadow map on frames where none of this changed, per the
// Lifecycle contract that the shadow map is recomputed only when
// shadow-relevant state changes — camera motion alone must not trigger a
// rebuild.
func ShadowMapHash(sc *scene.Scene, light *scene.DirLight, size int) uint64 {
	in := shadowHashInput{LightDir: light.Direction, Size: size}
	for _, obj := range sc.Objects {
		if !obj.Visible {
			continue
		}
		alpha := float32(1)
		if mat, err := sc.MaterialByName(obj.MaterialName); err == nil {
			alpha = mat.AsMaterialBase().Alpha
		}
		in.Objects = append(in.Objects, shadowHashObject{
			Mesh:     obj.MeshName,
			Material: obj.MaterialName,
			World:    obj.Pose.WorldMatrix,
			Alpha:    alpha,
		})
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%#v", in)
	return h.Sum64()
}

// BuildShadowMap fits an orthographic light frustum to the scene's
// bounding sphere, transforms and rasterizes every opaque triangle
// depth-only, and returns the resulting [ShadowMap].
//
// light_pos, the ortho half-extent, and near/far: light_pos = center +
// direction*radius*2 (this implementation's Light.Direction already
// points from the scene toward the light, so the eye sits on the light's
// side of the scene); half-extent = radius; near = 0.1; far =
// radius*4; up is the world X axis when the light points near-vertically
// (|direction.Y| > 0.9) to avoid a degenerate look-at, the world Y axis
// otherwise.
func BuildShadowMap(sc *scene.Scene, light *scene.DirLight, size int, pool *parallel.WorkerPool) *ShadowMap {
	sphere := sc.BoundingSphere()
	radius := sphere.Radius
	if radius < 1e-3 {
		radius = 1
	}
	center := sphere.Center

	dir := light.Direction.Normal()
	if dir.IsNil() {
		dir = math32.Vec3(0, 1, 0)
	}

	up := math32.Vec3(0, 1, 0)
	if math32.Abs(dir.Y) > 0.9 {
		up = math32.Vec3(1, 0, 0)
	}

	cam := scene.NewCamera()
	cam.Ortho = true
	cam.OrthoSize = radius
	cam.Aspect = 1
	cam.Near = 0.1
	cam.Far = radius * 4
	cam.Pos = center.Add(dir.MulScalar(radius * 2))
	cam.LookAt(center, up)
	cam.UpdateMatrix()

	sm := &ShadowMap{
		Size:        size,
		Depth:       make([]atomic.Uint32, size*size),
		LightMatrix: cam.ViewProjMatrix(),
		LightDir:    dir,
	}
	sentinelBits := math.Float32bits(1)
	for i := range sm.Depth {
		sm.Depth[i].Store(sentinelBits)
	}

	for _, obj := range sc.Objects {
		if !obj.Visible {
			continue
		}
		mesh, err := sc.MeshByName(obj.MeshName)
		if err != nil {
			continue
		}
		mat, err := sc.MaterialByName(obj.MaterialName)
		if err != nil {
			continue
		}
		if mat.AsMaterialBase().Alpha < 1 {
			continue
		}
		mb := mesh.AsMeshBase()
		verts := ProcessVertices(mb.Positions, mb.Normals, mb.UVs, obj.Pose.WorldMatrix, obj.Pose.NormMatrix, cam.ViewMatrix, cam.ProjMatrix, size, size, pool)
		tris := AssembleTriangles(mb.Triangles, verts, mat, AssembleOptions{
			Width: size, Height: size, BackfaceCull: false, Ortho: true, ClipNear: true,
		}, pool)

		jobs := make([]func(), len(tris))
		for i, td := range tris {
			t := td
			jobs[i] = func() { rasterizeDepthOnly(sm, t) }
		}
		pool.ExecuteAll(jobs)
	}

	return sm
}

func rasterizeDepthOnly(sm *ShadowMap, td TriangleData) {
	minX, minY, maxX, maxY := triangleBounds(td.Screen, sm.Size, sm.Size)
	if minX > maxX || minY > maxY {
		return
	}
	a, b, c := td.Screen[0], td.Screen[1], td.Screen[2]
	area := signedArea(a, b, c)
	if area == 0 {
		return
	}
	invArea := 1 / area

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			py := float32(y) + 0.5
			l0, l1, l2, ok := barycentric(a, b, c, px, py, invArea)
			if !ok {
				continue
			}
			ndcZ := l0*td.NDCZ[0] + l1*td.NDCZ[1] + l2*td.NDCZ[2]
			normalized := math32.Clamp(ndcZ*0.5+0.5, 0, 1)
			idx := y*sm.Size + x
			slot := &sm.Depth[idx]
			bits := math.Float32bits(normalized)
			for {
				old := slot.Load()
				if old <= bits {
					break
				}
				if slot.CompareAndSwap(old, bits) {
					break
				}
			}
		}
	}
}

// Visibility tests a world point against the shadow map: 1 means fully
// lit, 0 means fully shadowed.
func (sm *ShadowMap) Visibility(p, n math32.Vector3, opts ShadowOptions) float32 {
	if sm == nil {
		return 1
	}
	pClip := math32.Vec4(p.X, p.Y, p.Z, 1).MulMatrix4(&sm.LightMatrix)
	if pClip.W == 0 {
		return 1
	}
	ndc := pClip.PerspDiv()
	u := ndc.X*0.5 + 0.5
	v := ndc.Y*0.5 + 0.5
	zRef := math32.Clamp(ndc.Z*0.5+0.5, 0, 1)

	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 1
	}

	nDotL := n.Dot(sm.LightDir)
	bias := math32.Max(opts.BiasScale*(1-nDotL), opts.BiasMin)

	fx := u * float32(sm.Size)
	fy := (1 - v) * float32(sm.Size)

	if !opts.PCF {
		return 1 - sm.compare(int(fx), int(fy), zRef, bias)
	}

	var sum float32
	taps := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			sum += sm.compare(int(fx)+dx, int(fy)+dy, zRef, bias)
			taps++
		}
	}
	return 1 - sum/float32(taps)
}

// compare returns 1 if the texel at (x,y) is closer to the light than
// zRef-bias (meaning p is occluded from this tap), 0 otherwise.
// Out-of-bounds taps are treated as unshadowed (return 0).
func (sm *ShadowMap) compare(x, y int, zRef, bias float32) float32 {
	if x < 0 || x >= sm.Size || y < 0 || y >= sm.Size {
		return 0
	}
	stored := math.Float32frombits(sm.Depth[y*sm.Size+x].Load())
	if zRef-bias > stored {
		return 1
	}
	return 0
}
