package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/parallel"
	"github.com/cogentraster/raster3d/scene"
)

// TestShadowMapVisibility is Scenario E: a flat occluder sitting above a
// ground plane, lit from directly overhead, must shadow the ground point
// beneath it but leave a point far away fully lit; disabling shadow
// mapping (a nil map) must leave both points fully lit.
func TestShadowMapVisibility(t *testing.T) {
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	sc := scene.NewScene("s")
	sc.SetMesh(scene.NewPlaneMesh("ground", 30, 30))
	sc.SetMesh(scene.NewPlaneMesh("occluder", 2, 2))
	sc.SetMaterial(scene.NewBlinnPhongMaterial("mat", math32.Vec3(1, 1, 1)))

	ground := scene.NewSceneObject("ground", "ground", "mat")
	ground.Pose.UpdateMatrix(math32.Identity4())
	sc.AddObject(ground)

	occluder := scene.NewSceneObject("occluder", "occluder", "mat").SetPos(math32.Vec3(0, 2, 0))
	occluder.Pose.UpdateMatrix(math32.Identity4())
	sc.AddObject(occluder)

	light := scene.NewDirLight("sun", math32.Vec3(1, 1, 1), 1)
	light.Direction = math32.Vec3(0, 1, 0) // light sits above the scene, shining straight down.

	sm := BuildShadowMap(sc, light, 64, pool)
	require.NotNil(t, sm)

	opts := DefaultShadowOptions()
	up := math32.Vec3(0, 1, 0)

	underOccluder := sm.Visibility(math32.Vec3(0, 0, 0), up, opts)
	assert.InDelta(t, float32(0), underOccluder, 0.05, "ground point under the occluder should be shadowed")

	farAway := sm.Visibility(math32.Vec3(10, 0, 0), up, opts)
	assert.InDelta(t, float32(1), farAway, 1e-4, "ground point far from the occluder should be fully lit")

	var disabled *ShadowMap
	assert.Equal(t, float32(1), disabled.Visibility(math32.Vec3(0, 0, 0), up, opts), "a nil shadow map means shadow mapping is off, so every point is lit")
	assert.Equal(t, float32(1), disabled.Visibility(math32.Vec3(10, 0, 0), up, opts))
}
