// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "github.com/cogentraster/raster3d/math32"

// SceneObject is one renderable instance in a [Scene]: a mesh placed in the
// world by a [Pose] and shaded with a material. Scenes are flat lists of
// SceneObjects; there is no parent/child hierarchy, matching the scope of
// what the rasterizer needs to transform and shade.
type SceneObject struct {
	// Name identifies the object, mainly for diagnostics.
	Name string

	// MeshName names the [Mesh] on the [Scene] that provides this object's geometry.
	MeshName string

	// MaterialName names the [Material] on the [Scene] that shades this object.
	MaterialName string

	// Pose is the object's local-to-world transform.
	Pose Pose

	// Visible controls whether the object is submitted to the pipeline at all.
	Visible bool
}

// NewSceneObject returns an object at the identity pose, visible by default.
func NewSceneObject(name, meshName, materialName string) *SceneObject {
	o := &SceneObject{Name: name, MeshName: meshName, MaterialName: materialName, Visible: true}
	o.Pose.Defaults()
	return o
}

// SetPos sets the object's local position.
func (o *SceneObject) SetPos(p math32.Vector3) *SceneObject {
	o.Pose.Pos = p
	return o
}

// SetScale sets the object's local scale.
func (o *SceneObject) SetScale(s math32.Vector3) *SceneObject {
	o.Pose.Scale = s
	return o
}

// SetRotation sets the object's local rotation.
func (o *SceneObject) SetRotation(q math32.Quat) *SceneObject {
	o.Pose.Quat = q
	return o
}
