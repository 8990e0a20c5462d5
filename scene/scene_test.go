package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentraster/raster3d/math32"
)

func TestNewSceneDefaults(t *testing.T) {
	sc := NewScene("test")
	assert.Equal(t, "test", sc.Name)
	assert.NotNil(t, sc.Camera)
	assert.Empty(t, sc.Objects)
	assert.Equal(t, float32(0.1), sc.Ambient.Intensity)
	assert.True(t, sc.Background.EnableGradient)
}

func TestSceneSetAndLookup(t *testing.T) {
	sc := NewScene("test")
	mb := NewMeshBase("cube")
	sc.SetMesh(mb)
	mat := NewBlinnPhongMaterial("mat", math32.Vec3(1, 0, 0))
	sc.SetMaterial(mat)
	tex := NewTextureBase("tex", nil)
	sc.SetTexture(tex)

	m, err := sc.MeshByName("cube")
	require.NoError(t, err)
	assert.Equal(t, mb, m)

	mt, err := sc.MaterialByName("mat")
	require.NoError(t, err)
	assert.Equal(t, mat, mt)

	tx, err := sc.TextureByName("tex")
	require.NoError(t, err)
	assert.Equal(t, tex, tx)

	_, err = sc.MeshByName("missing")
	assert.Error(t, err)
}

func TestSceneValidate(t *testing.T) {
	sc := NewScene("test")
	sc.SetMesh(NewMeshBase("cube"))
	sc.SetMaterial(NewBlinnPhongMaterial("mat", math32.Vec3(1, 1, 1)))

	obj := NewSceneObject("obj", "cube", "mat")
	sc.AddObject(obj)
	assert.NoError(t, sc.Validate())

	bad := NewSceneObject("bad", "missing_mesh", "mat")
	sc.AddObject(bad)
	assert.Error(t, sc.Validate())

	bad.Visible = false
	assert.NoError(t, sc.Validate())
}

func TestSceneBoundingSphere(t *testing.T) {
	sc := NewScene("test")
	mb := NewPlaneMesh("plane", 2, 2)
	sc.SetMesh(mb)
	sc.SetMaterial(NewBlinnPhongMaterial("mat", math32.Vec3(1, 1, 1)))

	obj := NewSceneObject("obj", "plane", "mat")
	obj.Pose.UpdateMatrix(math32.Identity4())
	sc.AddObject(obj)

	sph := sc.BoundingSphere()
	assert.Greater(t, sph.Radius, float32(0))
}

func TestSceneBoundingSphereEmpty(t *testing.T) {
	sc := NewScene("empty")
	sph := sc.BoundingSphere()
	assert.Equal(t, math32.Sphere{}, sph)
}
