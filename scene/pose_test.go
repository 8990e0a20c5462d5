package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cogentraster/raster3d/math32"
)

func TestPoseDefaults(t *testing.T) {
	var p Pose
	p.Defaults()
	assert.Equal(t, math32.Vec3(1, 1, 1), p.Scale)
	assert.Equal(t, math32.QuatIdentity(), p.Quat)
}

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, math32.Vec3(0, 0, 5), c.Pos)
	assert.Equal(t, float32(45), c.FOV)
	assert.False(t, c.Ortho)
}

func TestCameraLookAt(t *testing.T) {
	c := NewCamera()
	c.Pos = math32.Vec3(0, 0, 5)
	c.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))
	assert.Equal(t, math32.Vec3(0, 0, 0), c.Target)
	assert.InDelta(t, 5, c.Pos.Length(), 1e-4)
}

func TestCameraOrbitPreservesRadius(t *testing.T) {
	c := NewCamera()
	c.Pos = math32.Vec3(0, 0, 5)
	c.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))

	c.Orbit(math32.Pi/2, 0)

	dist := c.Pos.Sub(c.Target).Length()
	assert.InDelta(t, 5, dist, 1e-3)
	// A quarter turn around Y should swing the camera from +Z toward +X.
	assert.InDelta(t, 5, c.Pos.X, 1e-2)
	assert.InDelta(t, 0, c.Pos.Z, 1e-2)
}

func TestCameraOrbitClampsElevation(t *testing.T) {
	c := NewCamera()
	c.Pos = math32.Vec3(0, 0, 5)
	c.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))

	for i := 0; i < 10; i++ {
		c.Orbit(0, math32.Pi/4)
	}

	dist := c.Pos.Sub(c.Target).Length()
	assert.InDelta(t, 5, dist, 1e-2)
	assert.Less(t, c.Pos.Y, float32(5))
}

func TestCameraOrbitDegenerateRadius(t *testing.T) {
	c := NewCamera()
	c.Pos = c.Target
	before := c.Pos
	c.Orbit(1, 1)
	assert.Equal(t, before, c.Pos)
}

func TestCameraZoom(t *testing.T) {
	c := NewCamera()
	c.Pos = math32.Vec3(0, 0, 10)
	c.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))

	c.Zoom(0.5)
	assert.InDelta(t, 5, c.Pos.Sub(c.Target).Length(), 1e-3)
}

func TestCameraUpdateMatrixPerspective(t *testing.T) {
	c := NewCamera()
	c.Aspect = 16.0 / 9.0
	c.UpdateMatrix()
	assert.NotEqual(t, math32.Matrix4{}, c.ProjMatrix)

	vp := c.ViewProjMatrix()
	assert.NotEqual(t, math32.Matrix4{}, vp)
}
