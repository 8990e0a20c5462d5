package loaders

import (
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadTextureDecodesPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.png")
	writePNG(t, path, 4, 4)

	tex, err := LoadTexture("tex", path, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "tex", tex.Name)
	assert.Equal(t, 4, tex.RGBA.Bounds().Dx())
	assert.Equal(t, 4, tex.RGBA.Bounds().Dy())
}

func TestLoadTextureDownsamplesOversizedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	writePNG(t, path, MaxTextureDim+16, 8)

	tex, err := LoadTexture("big", path, slog.Default())
	require.NoError(t, err)
	assert.LessOrEqual(t, tex.RGBA.Bounds().Dx(), MaxTextureDim)
}

func TestLoadTextureMissingFile(t *testing.T) {
	_, err := LoadTexture("missing", filepath.Join(t.TempDir(), "nope.png"), slog.Default())
	assert.Error(t, err)
}

func TestToRGBAPassesThroughExistingRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	out := toRGBA(src)
	assert.Same(t, src, out)
}

func TestToRGBAConvertsOtherFormats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	out := toRGBA(src)
	r, g, b, a := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(10*257), r)
	assert.Equal(t, uint32(20*257), g)
	assert.Equal(t, uint32(30*257), b)
	assert.Equal(t, uint32(65535), a)
}

func TestSaveColorPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, SaveColorPNG(path, img))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
