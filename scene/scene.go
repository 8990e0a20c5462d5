// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"fmt"

	"github.com/cogentraster/raster3d/math32"
)

// Background configures the sky/ground backdrop composited behind scene
// geometry where the depth buffer records no hit.
type Background struct {
	// EnableGradient turns on the procedural vertical sky gradient between
	// SkyTop and SkyBottom. If false and UseImage is also false, the sky
	// is a solid SkyBottom fill.
	EnableGradient bool

	// SkyTop and SkyBottom are the vertical gradient endpoints for the sky.
	SkyTop, SkyBottom math32.Vector3

	// UseImage enables sampling SkyImage as the background; if
	// EnableGradient is also set, the image is blended 0.3 over the 0.7
	// gradient.
	UseImage bool

	// SkyImage, if non-empty, names a [Texture] blended 0.3/0.7 over the
	// procedural sky gradient.
	SkyImage string

	// EnableGround turns on the procedural ground plane at y=GroundHeight.
	EnableGround bool

	// GroundHeight is the world-space Y coordinate of the ground plane.
	GroundHeight float32

	// GroundColor is the base color of the procedural ground plane fill.
	GroundColor math32.Vector3

	// AtmosphereStrength and SkyReflectionStrength modulate the ground-color
	// heuristics that tint the ground by the sky above it.
	AtmosphereStrength   float32
	SkyReflectionStrength float32
}

// DefaultBackground returns a plain blue-sky-over-grey-ground backdrop.
func DefaultBackground() Background {
	return Background{
		EnableGradient:        true,
		SkyTop:                math32.Vec3(0.4, 0.6, 0.9),
		SkyBottom:             math32.Vec3(0.8, 0.85, 0.9),
		EnableGround:          true,
		GroundHeight:          0,
		GroundColor:           math32.Vec3(0.5, 0.5, 0.5),
		AtmosphereStrength:    0.3,
		SkyReflectionStrength: 0.2,
	}
}

// Scene holds the full renderable world: the named collections of meshes,
// materials and textures; the flat list of object instances that reference
// them by name; the lights; the camera; and the backdrop. Collections are
// kept both as a map, for lookup, and an ordered key slice, so iteration
// order (and therefore any name-collision diagnostics) is deterministic.
type Scene struct {
	Name string

	Meshes     map[string]Mesh
	meshOrder  []string
	Materials  map[string]Material
	matOrder   []string
	Textures   map[string]Texture
	texOrder   []string

	Objects []*SceneObject

	Lights  []Light
	Ambient Ambient

	Camera *Camera

	Background Background
}

// NewScene returns an empty scene with a default camera, ambient term and backdrop.
func NewScene(name string) *Scene {
	return &Scene{
		Name:       name,
		Meshes:     map[string]Mesh{},
		Materials:  map[string]Material{},
		Textures:   map[string]Texture{},
		Camera:     NewCamera(),
		Ambient:    Ambient{Color: math32.Vec3(1, 1, 1), Intensity: 0.1},
		Background: DefaultBackground(),
	}
}

// SetMesh adds or replaces a mesh under its own name.
func (sc *Scene) SetMesh(m Mesh) {
	name := m.AsMeshBase().Name
	if _, exists := sc.Meshes[name]; !exists {
		sc.meshOrder = append(sc.meshOrder, name)
	}
	sc.Meshes[name] = m
}

// MeshByName looks up a mesh, returning an error if not found.
func (sc *Scene) MeshByName(name string) (Mesh, error) {
	m, ok := sc.Meshes[name]
	if !ok {
		return nil, fmt.Errorf("scene %q: mesh %q not found", sc.Name, name)
	}
	return m, nil
}

// SetMaterial adds or replaces a material under its own name.
func (sc *Scene) SetMaterial(m Material) {
	name := m.AsMaterialBase().Name
	if _, exists := sc.Materials[name]; !exists {
		sc.matOrder = append(sc.matOrder, name)
	}
	sc.Materials[name] = m
}

// MaterialByName looks up a material, returning an error if not found.
func (sc *Scene) MaterialByName(name string) (Material, error) {
	m, ok := sc.Materials[name]
	if !ok {
		return nil, fmt.Errorf("scene %q: material %q not found", sc.Name, name)
	}
	return m, nil
}

// SetTexture adds or replaces a texture under its own name.
func (sc *Scene) SetTexture(t Texture) {
	name := t.AsTextureBase().Name
	if _, exists := sc.Textures[name]; !exists {
		sc.texOrder = append(sc.texOrder, name)
	}
	sc.Textures[name] = t
}

// TextureByName looks up a texture, returning an error if not found.
func (sc *Scene) TextureByName(name string) (Texture, error) {
	t, ok := sc.Textures[name]
	if !ok {
		return nil, fmt.Errorf("scene %q: texture %q not found", sc.Name, name)
	}
	return t, nil
}

// AddObject appends an object to the scene.
func (sc *Scene) AddObject(o *SceneObject) {
	sc.Objects = append(sc.Objects, o)
}

// AddLight appends a light to the scene.
func (sc *Scene) AddLight(l Light) {
	sc.Lights = append(sc.Lights, l)
}

// Validate checks that every object's MeshName and MaterialName resolve,
// returning the first error found.
func (sc *Scene) Validate() error {
	for _, o := range sc.Objects {
		if !o.Visible {
			continue
		}
		if _, err := sc.MeshByName(o.MeshName); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		if _, err := sc.MaterialByName(o.MaterialName); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
	}
	return nil
}

// BoundingSphere returns a world-space sphere enclosing every visible
// object's transformed bounding box; used to size the shadow-map light
// frustum to the scene's actual extent.
func (sc *Scene) BoundingSphere() math32.Sphere {
	bb := math32.B3Empty()
	for _, o := range sc.Objects {
		if !o.Visible {
			continue
		}
		mesh, err := sc.MeshByName(o.MeshName)
		if err != nil {
			continue
		}
		mb := mesh.AsMeshBase()
		local := mb.BoundingBox()
		world := local.MulMatrix4(&o.Pose.WorldMatrix)
		bb.ExpandByBox(world)
	}
	if bb.IsEmpty() {
		return math32.Sphere{}
	}
	return bb.GetBoundingSphere()
}
