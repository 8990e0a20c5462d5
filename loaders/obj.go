package loaders

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

// objIndex is one "v/vt/vn" face-vertex reference, 1-based as written in
// the file, 0 meaning absent.
type objIndex struct {
	v, vt, vn int
}

// LoadOBJ parses a Wavefront .obj file (and the .mtl library named by its
// mtllib directive, if any; no other .mtl file is looked for) into a
// [scene.MeshBase] plus the materials and textures it references. Mirrors
// the line-by-line directive dispatch of the teacher pack's
// gi3d/io/obj.Decoder, trimmed to the single-object case this engine's
// flat [scene.Scene] needs (OBJ "o"/"g" groups are folded into one mesh;
// per-face material assignment is not supported — usemtl directives are
// ignored, and the library's first material is the mesh default).
func LoadOBJ(path string, logger *slog.Logger) (*scene.MeshBase, []scene.Material, []*scene.TextureBase, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loaders: opening %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var positions, normals []math32.Vector3
	var uvs []math32.Vector2
	var faces []objIndex
	var mtllib string

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scan.Scan() {
		line++
		text := strings.TrimSpace(scan.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				logger.Warn("obj: bad vertex", "file", path, "line", line, "err", err)
				continue
			}
			positions = append(positions, p)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				logger.Warn("obj: bad normal", "file", path, "line", line, "err", err)
				continue
			}
			normals = append(normals, n)
		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				logger.Warn("obj: bad texcoord", "file", path, "line", line, "err", err)
				continue
			}
			uvs = append(uvs, uv)
		case "f":
			idx, err := parseFace(fields[1:])
			if err != nil {
				logger.Warn("obj: bad face", "file", path, "line", line, "err", err)
				continue
			}
			// Fan-triangulate faces with more than 3 vertices.
			for i := 1; i+1 < len(idx); i++ {
				faces = append(faces, idx[0], idx[i], idx[i+1])
			}
		case "mtllib":
			if len(fields) > 1 {
				mtllib = fields[1]
			}
		case "usemtl":
			// Per-face material assignment is not supported; see the doc
			// comment on LoadOBJ. The material library's first material is
			// used as the mesh default regardless of which usemtl
			// directives appear in the file.
		default:
			// o, g, s and anything else: this loader keeps a single flat
			// mesh, so group/object/smoothing directives are accepted and
			// ignored rather than rejected.
		}
	}
	if err := scan.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("loaders: reading %s: %w", path, err)
	}

	mb := &scene.MeshBase{Name: name}
	vertKey := map[objIndex]uint32{}
	getVertex := func(oi objIndex) uint32 {
		if id, ok := vertKey[oi]; ok {
			return id
		}
		var p math32.Vector3
		if oi.v >= 1 && oi.v <= len(positions) {
			p = positions[oi.v-1]
		}
		var n math32.Vector3
		if oi.vn >= 1 && oi.vn <= len(normals) {
			n = normals[oi.vn-1]
		}
		var uv math32.Vector2
		if oi.vt >= 1 && oi.vt <= len(uvs) {
			uv = uvs[oi.vt-1]
			uv.Y = 1 - uv.Y // OBJ texcoord origin is bottom-left; flip for image-space sampling.
		}
		id := uint32(len(mb.Positions))
		mb.Positions = append(mb.Positions, p)
		mb.Normals = append(mb.Normals, n)
		mb.UVs = append(mb.UVs, uv)
		vertKey[oi] = id
		return id
	}

	for i := 0; i+2 < len(faces); i += 3 {
		a := getVertex(faces[i])
		b := getVertex(faces[i+1])
		c := getVertex(faces[i+2])
		mb.Triangles = append(mb.Triangles, scene.Triangle{A: a, B: b, C: c})
	}
	recomputeMissingNormals(mb)

	var mats []scene.Material
	var textures []*scene.TextureBase
	if mtllib != "" {
		mtlPath := filepath.Join(dir, mtllib)
		parsed, texs, err := parseMTL(mtlPath, dir, logger)
		if err != nil {
			logger.Warn("obj: could not load material library", "file", mtlPath, "err", err)
		} else {
			mats = parsed
			textures = texs
		}
	}
	if len(mats) == 0 {
		def := scene.NewBlinnPhongMaterial(name+"_default", math32.Vec3(0.8, 0.8, 0.8))
		mats = []scene.Material{def}
	}

	return mb, mats, textures, nil
}

// recomputeMissingNormals fills in a zero vertex normal (unreferenced or
// absent "vn" entry) by averaging the face normals of every triangle that
// uses it, matching the common OBJ-without-normals convention.
func recomputeMissingNormals(mb *scene.MeshBase) {
	needsFix := false
	for _, n := range mb.Normals {
		if n.IsNil() {
			needsFix = true
			break
		}
	}
	if !needsFix {
		return
	}
	accum := make([]math32.Vector3, len(mb.Positions))
	for _, t := range mb.Triangles {
		a, b, c := mb.Positions[t.A], mb.Positions[t.B], mb.Positions[t.C]
		fn := b.Sub(a).Cross(c.Sub(a))
		if fn.IsNil() {
			continue
		}
		fn = fn.Normal()
		accum[t.A] = accum[t.A].Add(fn)
		accum[t.B] = accum[t.B].Add(fn)
		accum[t.C] = accum[t.C].Add(fn)
	}
	for i, n := range mb.Normals {
		if n.IsNil() && !accum[i].IsNil() {
			mb.Normals[i] = accum[i].Normal()
		}
	}
}

func parseVec3(fields []string) (math32.Vector3, error) {
	if len(fields) < 3 {
		return math32.Vector3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 32)
	if err != nil {
		return math32.Vector3{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 32)
	if err != nil {
		return math32.Vector3{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return math32.Vector3{}, err
	}
	return math32.Vec3(float32(x), float32(y), float32(z)), nil
}

func parseVec2(fields []string) (math32.Vector2, error) {
	if len(fields) < 2 {
		return math32.Vector2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 32)
	if err != nil {
		return math32.Vector2{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 32)
	if err != nil {
		return math32.Vector2{}, err
	}
	return math32.Vec2(float32(x), float32(y)), nil
}

// parseFace parses "v/vt/vn" (or "v//vn", "v/vt", "v") tokens into
// objIndex values, resolving negative (relative-to-end) indices against
// the current vertex/texcoord/normal counts is left to the caller since
// this parser does not track running totals per-call; this engine's OBJ
// exporter source never emits negative indices, so only positive 1-based
// indices are handled, matching the teacher pack's decoder scope.
func parseFace(fields []string) ([]objIndex, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(fields))
	}
	out := make([]objIndex, 0, len(fields))
	for _, tok := range fields {
		parts := strings.Split(tok, "/")
		var oi objIndex
		v, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("bad vertex index %q: %w", parts[0], err)
		}
		oi.v = v
		if len(parts) > 1 && parts[1] != "" {
			vt, err := strconv.Atoi(parts[1])
			if err == nil {
				oi.vt = vt
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			vn, err := strconv.Atoi(parts[2])
			if err == nil {
				oi.vn = vn
			}
		}
		out = append(out, oi)
	}
	return out, nil
}

// parseMTL parses a Wavefront .mtl material library into
// [scene.BlinnPhongMaterial] values (Kd/Ks/Ns/d/map_Kd), loading any
// referenced diffuse texture relative to dir.
func parseMTL(path, dir string, logger *slog.Logger) ([]scene.Material, []*scene.TextureBase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var mats []scene.Material
	var textures []*scene.TextureBase
	var cur *scene.BlinnPhongMaterial

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		text := strings.TrimSpace(scan.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "newmtl":
			if len(fields) > 1 {
				cur = scene.NewBlinnPhongMaterial(fields[1], math32.Vec3(0.8, 0.8, 0.8))
				mats = append(mats, cur)
			}
		case "Kd":
			if cur != nil {
				if v, err := parseVec3(fields[1:]); err == nil {
					cur.Color = v
				}
			}
		case "Ks":
			if cur != nil {
				if v, err := parseVec3(fields[1:]); err == nil {
					cur.Specular = v
				}
			}
		case "Ns":
			if cur != nil && len(fields) > 1 {
				if v, err := strconv.ParseFloat(fields[1], 32); err == nil {
					cur.Shininess = float32(v)
				}
			}
		case "d":
			if cur != nil && len(fields) > 1 {
				if v, err := strconv.ParseFloat(fields[1], 32); err == nil {
					cur.Alpha = float32(v)
				}
			}
		case "map_Kd":
			if cur != nil && len(fields) > 1 {
				texPath := filepath.Join(dir, fields[len(fields)-1])
				tex, err := LoadTexture(cur.Name+"_diffuse", texPath, logger)
				if err != nil {
					logger.Warn("mtl: falling back to solid color", "material", cur.Name, "err", err)
					continue
				}
				cur.TextureSource = scene.TextureImage
				cur.TextureName = tex.Name
				textures = append(textures, tex)
			}
		}
	}
	return mats, textures, scan.Err()
}
