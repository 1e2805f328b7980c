package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with a gradient pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(128)
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor()
	img := createTestImage(40, 30)

	for _, name := range []string{"a.png", "b.jpg", "c.jpeg", "d.webp", "e.gif"} {
		path := filepath.Join(dir, name)

		n, err := p.Save(img, path)
		require.NoError(t, err, name)

		info, err := os.Stat(path)
		require.NoError(t, err, name)
		assert.Equal(t, info.Size(), n, name)

		loaded, err := p.Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, 40, loaded.Bounds().Dx(), name)
		assert.Equal(t, 30, loaded.Bounds().Dy(), name)
	}
}

func TestSaveUnsupportedFormat(t *testing.T) {
	_, err := NewProcessor().Save(createTestImage(4, 4), filepath.Join(t.TempDir(), "x.psd"))
	assert.Error(t, err)
}

func TestSaveIntoMissingDirectory(t *testing.T) {
	_, err := NewProcessor().Save(createTestImage(4, 4), filepath.Join(t.TempDir(), "nope", "x.png"))
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := NewProcessor().Load(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewProcessor().Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()

	b64, err := p.PrepareImageForModel(createTestImage(300, 100), "jpg", 150, 80)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestFiltersKeepDimensions(t *testing.T) {
	img := createTestImage(20, 10)

	for name, f := range map[string]Filter{
		"fh": FlipHorizontal(),
		"fv": FlipVertical(),
		"gs": Grayscale(),
		"gb": GaussianBlur(DefaultBlurSigma),
	} {
		out := f(img)
		assert.Equal(t, image.Rect(0, 0, 20, 10), out.Bounds(), name)
	}
}

func TestFlipHorizontalPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})

	out := FlipHorizontal()(img)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(2, 0))
}

func TestGrayscaleEqualizesChannels(t *testing.T) {
	out := Grayscale()(createTestImage(8, 8))
	c := out.NRGBAAt(5, 3)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestRotateCanvas(t *testing.T) {
	img := createTestImage(20, 10)

	out := Rotate(-90, color.Black)(img)
	assert.Equal(t, image.Rect(0, 0, 10, 20), out.Bounds())

	out = Rotate(180, color.Black)(img)
	assert.Equal(t, image.Rect(0, 0, 20, 10), out.Bounds())

	out = Rotate(-30, color.Black)(img)
	assert.Greater(t, out.Bounds().Dx(), 20)
	assert.Greater(t, out.Bounds().Dy(), 10)
}

func TestRotateClockwiseForNegativeAngle(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(2, 0, color.NRGBA{0, 255, 0, 255})

	// top-right ends up bottom-right after a clockwise quarter turn
	out := Rotate(-90, color.Black)(img)
	require.Equal(t, image.Rect(0, 0, 2, 3), out.Bounds())
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(1, 2))
}

func TestSigmaForKernel(t *testing.T) {
	assert.InDelta(t, DefaultBlurSigma, SigmaForKernel(31), 1e-9)
	assert.InDelta(t, 1.1, SigmaForKernel(5), 1e-9)
}

func BenchmarkRotate(b *testing.B) {
	img := createTestImage(640, 480)
	f := Rotate(-15, color.Black)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f(img)
	}
}
