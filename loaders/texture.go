// Package loaders supplies the mesh and texture loading the core
// pipeline treats as an external collaborator: OBJ+MTL and glTF mesh
// parsing, and image decode/resize for textures, producing [scene.Mesh],
// [scene.Material] and [scene.Texture] values ready to hand to a
// [scene.Scene].
package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/anthonynsimon/bild/transform"
	"github.com/cogentraster/raster3d/scene"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxTextureDim caps a loaded texture's largest side; larger images are
// downsampled with bild's bilinear resize rather than held at full
// resolution, since the shader bilinearly samples regardless.
const MaxTextureDim = 2048

// LoadTexture decodes the image at path and wraps it as a named
// [scene.Texture], logging and returning an error (not panicking) on a
// missing or undecodable file, matching the teacher's
// slog.Error("opening image", "file", fnm, "err", err) pattern at the
// call site that chooses to fall back rather than fail the frame.
func LoadTexture(name, path string, logger *slog.Logger) (*scene.TextureBase, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Error("opening image", "file", path, "err", err)
		return nil, fmt.Errorf("loaders: opening texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		logger.Error("decoding image", "file", path, "err", err)
		return nil, fmt.Errorf("loaders: decoding texture %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Dx() > MaxTextureDim || b.Dy() > MaxTextureDim {
		w, h := b.Dx(), b.Dy()
		scaleDown := func(d int) int {
			if d > MaxTextureDim {
				return MaxTextureDim
			}
			return d
		}
		img = transform.Resize(img, scaleDown(w), scaleDown(h), transform.Linear)
	}

	rgba := toRGBA(img)
	return scene.NewTextureBase(name, rgba), nil
}

// toRGBA converts any decoded image.Image into an *image.RGBA, the
// straight-alpha format [scene.TextureBase] samples from.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

// SaveColorPNG writes img to path as a PNG file. Nothing in the cmd or
// engine packages calls it; the engine's own PNG writer lives in the
// engine package.
func SaveColorPNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("loaders: creating %s: %w", path, err)
	}
	defer f.Close()
	return png.Encode(f, img)
}
