package overlay

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/region-augment/pkg/types"
)

type pngSaver struct{}

func (pngSaver) Save(img image.Image, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return 0, png.Encode(f, img)
}

func TestDirPreviewerWritesPNG(t *testing.T) {
	dir := t.TempDir()
	p := NewDirPreviewer(dir, DefaultAlpha, 1, pngSaver{})

	err := p.Preview("sub/photo_fh.jpg", createTestImage(12, 8, 10), []types.Region{rect(1, 1, 6, 6)})
	require.NoError(t, err)

	path := filepath.Join(dir, "sub", "photo_fh.jpg.png")
	assert.Equal(t, path, p.Path("sub/photo_fh.jpg"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
}

func TestDirPreviewerKeepsSourceExtension(t *testing.T) {
	p := NewDirPreviewer("out", DefaultAlpha, 1, pngSaver{})
	assert.NotEqual(t, p.Path("a.jpg"), p.Path("a.png"))
	assert.Equal(t, filepath.Join("out", "a.png.png"), p.Path("a.png"))
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestDirPreviewerIndependentOfOrder(t *testing.T) {
	regions := []types.Region{rect(0, 0, 4, 4), rect(4, 0, 8, 4), rect(0, 4, 4, 8), rect(4, 4, 8, 8)}
	img := createTestImage(8, 8, 0)

	dirA, dirB := t.TempDir(), t.TempDir()
	a := NewDirPreviewer(dirA, 1, 99, pngSaver{})
	b := NewDirPreviewer(dirB, 1, 99, pngSaver{})

	for _, name := range []string{"x.png", "y.png"} {
		require.NoError(t, a.Preview(name, img, regions))
	}
	for _, name := range []string{"y.png", "x.png"} {
		require.NoError(t, b.Preview(name, img, regions))
	}

	for _, name := range []string{"x.png", "y.png"} {
		assert.Equal(t, readPNG(t, a.Path(name)), readPNG(t, b.Path(name)), name)
	}
}
