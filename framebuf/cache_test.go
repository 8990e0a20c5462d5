package framebuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

// fakeShadowSampler stands in for a real pipeline.ShadowMap, returning a
// fixed visibility so the test can control EnsureGroundShadow's content
// hash independently of any actual shadow-map geometry.
type fakeShadowSampler struct {
	visibility float32
}

func (f *fakeShadowSampler) Visibility(p, n math32.Vector3) float32 {
	return f.visibility
}

// TestBackgroundCacheHitsAndMisses is Scenario F: moving only the object
// between two frames, with the camera held fixed, must hit the sky and
// ground-base caches and miss only the ground-shadow cache.
func TestBackgroundCacheHitsAndMisses(t *testing.T) {
	width, height := 8, 8
	bg := scene.DefaultBackground()
	cam := scene.NewCamera()
	cam.Pos = math32.Vec3(0, 5, 10)
	cam.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))
	cam.UpdateMatrix()

	sampler := &fakeShadowSampler{visibility: 1}

	c := NewBackgroundCache(width, height)
	assert.True(t, c.EnsureSky(bg, scene.NewScene("s")), "first build must be a miss")
	assert.True(t, c.EnsureGroundBase(bg, cam), "first build must be a miss")
	assert.True(t, c.EnsureGroundShadow(sampler, 1), "first build must be a miss")
	assert.True(t, c.EnsureComposite())

	firstComposite := append([]math32.Vector3(nil), c.Composite...)

	// Frame 2: same camera, same background, only the shadow-casting
	// object moved (modeled as the caller passing a new light/shadow
	// generation counter to EnsureGroundShadow).
	assert.False(t, c.EnsureSky(bg, scene.NewScene("s")), "sky inputs did not change, so this must be a cache hit")
	assert.False(t, c.EnsureGroundBase(bg, cam), "camera did not move, so this must be a cache hit")
	assert.True(t, c.EnsureGroundShadow(sampler, 2), "shadow generation changed, so this must be a cache miss")
	assert.True(t, c.EnsureComposite(), "a ground-shadow miss must force the composite to rebuild")

	// Clearing every cache and rebuilding from scratch with the same
	// inputs (camera unmoved, shadow generation back to the original
	// fixed visibility) must reproduce the exact first-frame output.
	fresh := NewBackgroundCache(width, height)
	require.True(t, fresh.EnsureSky(bg, scene.NewScene("s")))
	require.True(t, fresh.EnsureGroundBase(bg, cam))
	require.True(t, fresh.EnsureGroundShadow(sampler, 1))
	require.True(t, fresh.EnsureComposite())

	require.Len(t, fresh.Composite, len(firstComposite))
	for i := range firstComposite {
		assert.Equal(t, firstComposite[i], fresh.Composite[i], "pixel %d should match the first frame exactly", i)
	}
}
