package loaders

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadGLTFMissingFile(t *testing.T) {
	_, _, _, err := LoadGLTF(filepath.Join(t.TempDir(), "nope.gltf"), slog.Default())
	assert.Error(t, err)
}
