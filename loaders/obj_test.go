package loaders

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `
# a simple quad, no normals
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOBJTriangulatesQuadAndFillsNormals(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.obj", quadOBJ)

	mb, mats, _, err := LoadOBJ(path, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "quad", mb.Name)
	assert.Len(t, mb.Positions, 4)
	assert.Len(t, mb.Triangles, 2)
	require.Len(t, mats, 1)

	for _, n := range mb.Normals {
		assert.False(t, n.IsNil(), "expected recomputed normal")
	}
}

func TestLoadOBJMissingFile(t *testing.T) {
	_, _, _, err := LoadOBJ(filepath.Join(t.TempDir(), "nope.obj"), slog.Default())
	assert.Error(t, err)
}

const mtlOBJ = `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
mtllib quad.mtl
usemtl red
`

const quadMTL = `
newmtl red
Kd 0.9 0.1 0.1
d 1.0
`

func TestLoadOBJWithMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quad.mtl", quadMTL)
	path := writeFile(t, dir, "quad.obj", mtlOBJ)

	mb, mats, _, err := LoadOBJ(path, slog.Default())
	require.NoError(t, err)
	require.Len(t, mb.Triangles, 1)
	require.Len(t, mats, 1)
	assert.Equal(t, "red", mats[0].AsMaterialBase().Name)
}
