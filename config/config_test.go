package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	rs := Default()
	assert.Equal(t, 800, rs.Render.Width)
	assert.Equal(t, 600, rs.Render.Height)
	assert.Equal(t, "perspective", rs.Render.Projection)
	assert.True(t, rs.Render.UseZBuffer)
	assert.Equal(t, "None", rs.Animation.AnimationType)
	assert.Len(t, rs.Lighting.Lights, 1)
}

func TestObjectSettingsScaleVec(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want [3]float64
	}{
		{"nil defaults to uniform one", nil, [3]float64{1, 1, 1}},
		{"uniform float", 2.5, [3]float64{2.5, 2.5, 2.5}},
		{"uniform int64", int64(3), [3]float64{3, 3, 3}},
		{"vector", []any{1.0, 2.0, 3.0}, [3]float64{1, 2, 3}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			settings := ObjectSettings{Scale: c.in}
			assert.Equal(t, c.want, settings.ScaleVec())
		})
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	data := []byte(`
[files]
obj_path = "model.obj"

[render]
width = 1920
height = 1080

[camera]
from = [0, 2, 8]
fov = 60

[object]
scale = 2.0
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	rs, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "model.obj", rs.Files.ObjPath)
	assert.Equal(t, 1920, rs.Render.Width)
	assert.Equal(t, 1080, rs.Render.Height)
	// Untouched defaults should survive the overlay.
	assert.True(t, rs.Render.UseZBuffer)
	assert.Equal(t, "perspective", rs.Render.Projection)
	assert.Equal(t, [3]float64{0, 2, 8}, rs.Camera.From)
	assert.Equal(t, float64(60), rs.Camera.FOV)
	assert.Equal(t, [3]float64{2, 2, 2}, rs.Object.ScaleVec())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadBadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
