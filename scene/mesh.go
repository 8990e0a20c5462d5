// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "github.com/cogentraster/raster3d/math32"

// Mesh is the interface satisfied by the geometry bound to a [SceneObject].
// Only indexed triangle meshes are supported.
type Mesh interface {
	// AsMeshBase returns the [MeshBase] holding this mesh's core data.
	AsMeshBase() *MeshBase
}

// Triangle holds one triangle's three vertex indices into a [MeshBase]'s
// flat attribute arrays.
type Triangle struct {
	A, B, C uint32

	// FaceColor is the flat per-face color used when the material's
	// TextureSource is TextureFaceColor.
	FaceColor math32.Vector3
}

// MeshBase is the concrete, loader-populated implementation of [Mesh]: flat
// per-vertex attribute arrays plus a triangle index list, the layout OBJ and
// glTF loaders both produce directly.
type MeshBase struct {
	// Name links this mesh to [SceneObject.MeshName].
	Name string

	// Positions holds one Vector3 per vertex, in object-local space.
	Positions []math32.Vector3

	// Normals holds one Vector3 per vertex, parallel to Positions.
	Normals []math32.Vector3

	// UVs holds one Vector2 per vertex, parallel to Positions.
	// Empty if the source had no texture coordinates.
	UVs []math32.Vector2

	// Colors holds one per-vertex Vector3, parallel to Positions.
	// Empty unless the source supplied per-vertex colors.
	Colors []math32.Vector3

	// Triangles is the list of indexed triangles.
	Triangles []Triangle

	// bbox is the cached object-space bounding box, computed lazily.
	bbox      math32.Box3
	bboxValid bool
}

func (mb *MeshBase) AsMeshBase() *MeshBase { return mb }

// HasUVs reports whether per-vertex texture coordinates are present.
func (mb *MeshBase) HasUVs() bool { return len(mb.UVs) == len(mb.Positions) && len(mb.UVs) > 0 }

// HasColors reports whether per-vertex colors are present.
func (mb *MeshBase) HasColors() bool {
	return len(mb.Colors) == len(mb.Positions) && len(mb.Colors) > 0
}

// BoundingBox returns the object-space axis-aligned bounding box,
// computing and caching it on first use.
func (mb *MeshBase) BoundingBox() math32.Box3 {
	if mb.bboxValid {
		return mb.bbox
	}
	bb := math32.B3Empty()
	for _, p := range mb.Positions {
		bb.ExpandByPoint(p)
	}
	mb.bbox = bb
	mb.bboxValid = true
	return bb
}

// InvalidateBounds clears the cached bounding box, forcing recomputation
// the next time BoundingBox is called; call after mutating Positions.
func (mb *MeshBase) InvalidateBounds() { mb.bboxValid = false }

// NewMeshBase returns an empty named mesh ready for a loader to populate.
func NewMeshBase(name string) *MeshBase {
	return &MeshBase{Name: name}
}

// NewPlaneMesh returns a single-quad (two-triangle) ground/plane mesh in the
// XZ plane, centered at the origin, facing +Y, with UVs spanning [0,1].
func NewPlaneMesh(name string, width, depth float32) *MeshBase {
	hw, hd := width/2, depth/2
	mb := &MeshBase{
		Name: name,
		Positions: []math32.Vector3{
			math32.Vec3(-hw, 0, -hd),
			math32.Vec3(hw, 0, -hd),
			math32.Vec3(hw, 0, hd),
			math32.Vec3(-hw, 0, hd),
		},
		Normals: []math32.Vector3{
			math32.Vec3(0, 1, 0), math32.Vec3(0, 1, 0),
			math32.Vec3(0, 1, 0), math32.Vec3(0, 1, 0),
		},
		UVs: []math32.Vector2{
			math32.Vec2(0, 0), math32.Vec2(1, 0),
			math32.Vec2(1, 1), math32.Vec2(0, 1),
		},
		Triangles: []Triangle{
			{A: 0, B: 1, C: 2},
			{A: 0, B: 2, C: 3},
		},
	}
	return mb
}
