package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

func triangleScene() *scene.Scene {
	sc := scene.NewScene("smoke")

	mb := scene.NewMeshBase("tri")
	mb.Positions = []math32.Vector3{
		math32.Vec3(-1, -1, 0),
		math32.Vec3(1, -1, 0),
		math32.Vec3(0, 1, 0),
	}
	mb.Normals = []math32.Vector3{
		math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1), math32.Vec3(0, 0, 1),
	}
	mb.UVs = []math32.Vector2{math32.Vec2(0, 0), math32.Vec2(1, 0), math32.Vec2(0.5, 1)}
	mb.Triangles = []scene.Triangle{{A: 0, B: 1, C: 2}}
	sc.SetMesh(mb)

	mat := scene.NewBlinnPhongMaterial("mat", math32.Vec3(0.8, 0.2, 0.2))
	sc.SetMaterial(mat)

	obj := scene.NewSceneObject("obj", "tri", "mat")
	sc.AddObject(obj)

	sc.AddLight(scene.NewDirLight("sun", math32.Vec3(1, 1, 1), 1))

	sc.Camera.Pos = math32.Vec3(0, 0, 5)
	sc.Camera.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))

	return sc
}

func TestRenderFrameProducesNonEmptyFramebuffer(t *testing.T) {
	sc := triangleScene()
	require.NoError(t, sc.Validate())

	opts := DefaultOptions(64, 64)
	opts.Workers = 1
	eng := New(sc, opts)
	defer eng.Close()

	require.NoError(t, eng.RenderFrame(context.Background()))

	fb := eng.Framebuffer()
	assert.Equal(t, 64, fb.Width)
	assert.Equal(t, 64, fb.Height)
}

func TestRenderFrameRespectsCanceledContext(t *testing.T) {
	sc := triangleScene()
	opts := DefaultOptions(16, 16)
	opts.Workers = 1
	eng := New(sc, opts)
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, eng.RenderFrame(ctx))
}

func TestWriteColorAndDepthPNG(t *testing.T) {
	sc := triangleScene()
	opts := DefaultOptions(32, 32)
	opts.Workers = 1
	eng := New(sc, opts)
	defer eng.Close()

	require.NoError(t, eng.RenderFrame(context.Background()))

	dir := t.TempDir()
	colorPath := filepath.Join(dir, "color.png")
	depthPath := filepath.Join(dir, "depth.png")
	require.NoError(t, eng.WriteColorPNG(colorPath))
	require.NoError(t, eng.WriteDepthPNG(depthPath))

	for _, p := range []string{colorPath, depthPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
