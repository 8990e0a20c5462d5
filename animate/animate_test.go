package animate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentraster/raster3d/config"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

func TestParseKind(t *testing.T) {
	assert.Equal(t, CameraOrbit, ParseKind("CameraOrbit"))
	assert.Equal(t, CameraOrbit, ParseKind("cameraorbit"))
	assert.Equal(t, ObjectLocalRotation, ParseKind("ObjectLocalRotation"))
	assert.Equal(t, None, ParseKind("None"))
	assert.Equal(t, None, ParseKind(""))
	assert.Equal(t, None, ParseKind("garbage"))
}

func TestNewNoneDriverIsNoop(t *testing.T) {
	d, err := New(config.AnimationSettings{AnimationType: "None"}, nil)
	require.NoError(t, err)

	sc := scene.NewScene("s")
	before := *sc.Camera
	d.Step(sc)
	assert.Equal(t, before, *sc.Camera)
}

func TestNewRejectsUnknownAxis(t *testing.T) {
	_, err := New(config.AnimationSettings{AnimationType: "ObjectLocalRotation", RotationAxis: "W"}, nil)
	assert.Error(t, err)
}

func TestNewRejectsZeroCustomAxis(t *testing.T) {
	_, err := New(config.AnimationSettings{
		AnimationType: "ObjectLocalRotation",
		RotationAxis:  "Custom",
	}, nil)
	assert.Error(t, err)
}

func TestCameraOrbitStepMovesCamera(t *testing.T) {
	sc := scene.NewScene("s")
	sc.Camera.Pos = math32.Vec3(0, 0, 5)
	sc.Camera.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))

	d, err := New(config.AnimationSettings{
		AnimationType: "CameraOrbit",
		FPS:           30,
		RotationSpeed: 30,
	}, nil)
	require.NoError(t, err)

	start := sc.Camera.Pos
	for i := 0; i < 10; i++ {
		d.Step(sc)
	}
	assert.NotEqual(t, start, sc.Camera.Pos)
	// Orbit never changes the camera's distance from its target.
	assert.InDelta(t, 5, sc.Camera.Pos.Sub(sc.Camera.Target).Length(), 1e-2)
}

func TestObjectLocalRotationStepRotatesObject(t *testing.T) {
	sc := scene.NewScene("s")
	obj := scene.NewSceneObject("obj", "mesh", "mat")
	sc.AddObject(obj)

	d, err := New(config.AnimationSettings{
		AnimationType: "ObjectLocalRotation",
		RotationAxis:  "Y",
		FPS:           30,
		RotationSpeed: 90,
	}, obj)
	require.NoError(t, err)

	identity := math32.QuatIdentity()
	assert.Equal(t, identity, obj.Pose.Quat)
	for i := 0; i < 30; i++ {
		d.Step(sc)
	}
	assert.NotEqual(t, identity, obj.Pose.Quat)
}

func TestStepOnNilDriverIsSafe(t *testing.T) {
	var d *Driver
	assert.NotPanics(t, func() { d.Step(scene.NewScene("s")) })
}
