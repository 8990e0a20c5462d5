package loaders

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

// LoadGLTF parses a glTF 2.0 document (embedded or .bin-referenced,
// either .gltf or binary .glb) into one [scene.MeshBase] and the
// [scene.Material] values its materials array describes,
// supplementing the OBJ-only loader spec.md names with the structured
// binary scene format the rest of the retrieved pack favors. Only the
// document's first mesh (doc.Meshes[0]) is read, with all of its
// primitives merged into the returned mesh; scenes, nodes and any further
// meshes are not read.
func LoadGLTF(path string, logger *slog.Logger) (*scene.MeshBase, []scene.Material, []*scene.TextureBase, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loaders: opening gltf %s: %w", path, err)
	}
	if len(doc.Meshes) == 0 {
		return nil, nil, nil, fmt.Errorf("loaders: %s has no meshes", path)
	}

	textures, err := loadGLTFTextures(doc, logger)
	if err != nil {
		logger.Warn("gltf: texture load failed, continuing without", "file", path, "err", err)
	}

	materials := make([]scene.Material, 0, len(doc.Materials))
	for i, gm := range doc.Materials {
		materials = append(materials, gltfMaterial(doc, i, gm, textures))
	}
	if len(materials) == 0 {
		materials = append(materials, scene.NewPBRMaterial("default", math32.Vec3(0.8, 0.8, 0.8), 0, 0.5))
	}

	mb := &scene.MeshBase{Name: doc.Meshes[0].Name}
	if mb.Name == "" {
		mb.Name = "gltf_mesh"
	}

	for _, prim := range doc.Meshes[0].Primitives {
		if err := appendPrimitive(doc, prim, mb); err != nil {
			logger.Warn("gltf: skipping primitive", "err", err)
		}
	}

	return mb, materials, textures, nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, mb *scene.MeshBase) error {
	posAcc, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posAcc], nil)
	if err != nil {
		return fmt.Errorf("reading positions: %w", err)
	}

	var normals [][3]float32
	if normAcc, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[normAcc], nil)
		if err != nil {
			return fmt.Errorf("reading normals: %w", err)
		}
	}

	var uvs [][2]float32
	if uvAcc, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvAcc], nil)
		if err != nil {
			return fmt.Errorf("reading texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	base := uint32(len(mb.Positions))
	for i, p := range positions {
		mb.Positions = append(mb.Positions, math32.Vec3(p[0], p[1], p[2]))
		if i < len(normals) {
			n := normals[i]
			mb.Normals = append(mb.Normals, math32.Vec3(n[0], n[1], n[2]))
		} else {
			mb.Normals = append(mb.Normals, math32.Vector3{})
		}
		if i < len(uvs) {
			uv := uvs[i]
			mb.UVs = append(mb.UVs, math32.Vec2(uv[0], uv[1]))
		} else {
			mb.UVs = append(mb.UVs, math32.Vector2{})
		}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		mb.Triangles = append(mb.Triangles, scene.Triangle{
			A: base + indices[i], B: base + indices[i+1], C: base + indices[i+2],
		})
	}
	return nil
}

// loadGLTFTextures decodes every image of doc stored in a bufferView into
// a [scene.TextureBase], indexed by doc.Images position. Every image
// without a bufferView (one given by a URI, external file or data URI) is
// skipped with a warning and leaves a nil entry.
func loadGLTFTextures(doc *gltf.Document, logger *slog.Logger) ([]*scene.TextureBase, error) {
	out := make([]*scene.TextureBase, len(doc.Images))
	for i, gi := range doc.Images {
		if gi.BufferView == nil {
			logger.Warn("gltf: skipping image with external URI, not supported", "index", i, "uri", gi.URI)
			continue
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*gi.BufferView])
		if err != nil {
			return out, err
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logger.Warn("gltf: could not decode embedded image", "index", i, "err", err)
			continue
		}
		name := gi.Name
		if name == "" {
			name = fmt.Sprintf("gltf_texture_%d", i)
		}
		out[i] = scene.NewTextureBase(name, toRGBA(img))
	}
	return out, nil
}

func gltfMaterial(doc *gltf.Document, i int, gm *gltf.Material, textures []*scene.TextureBase) scene.Material {
	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("gltf_material_%d", i)
	}
	pbr := gm.PBRMetallicRoughness
	base := math32.Vec3(0.8, 0.8, 0.8)
	alpha := float32(1)
	metallic := float32(0)
	roughness := float32(0.5)
	if pbr != nil {
		if pbr.BaseColorFactor != nil {
			c := *pbr.BaseColorFactor
			base = math32.Vec3(float32(c[0]), float32(c[1]), float32(c[2]))
			alpha = float32(c[3])
		}
		if pbr.MetallicFactor != nil {
			metallic = float32(*pbr.MetallicFactor)
		} else {
			metallic = 1
		}
		if pbr.RoughnessFactor != nil {
			roughness = float32(*pbr.RoughnessFactor)
		} else {
			roughness = 1
		}
	}
	mat := scene.NewPBRMaterial(name, base, metallic, roughness)
	mat.Alpha = alpha
	if em := gm.EmissiveFactor; em != [3]float64{} {
		mat.Emissive = math32.Vec3(float32(em[0]), float32(em[1]), float32(em[2]))
	}
	if pbr != nil && pbr.BaseColorTexture != nil {
		if tex := resolveTexture(doc, pbr.BaseColorTexture.Index, textures); tex != nil {
			mat.TextureSource = scene.TextureImage
			mat.TextureName = tex.Name
		}
	}
	return mat
}

// resolveTexture follows a glTF texture reference (an index into
// doc.Textures) to its source image and returns the already-decoded
// [scene.TextureBase] for that image, or nil if the texture has no
// image source or it failed to decode.
func resolveTexture(doc *gltf.Document, texIndex int, textures []*scene.TextureBase) *scene.TextureBase {
	if texIndex >= len(doc.Textures) {
		return nil
	}
	src := doc.Textures[texIndex].Source
	if src == nil || int(*src) >= len(textures) {
		return nil
	}
	return textures[*src]
}
