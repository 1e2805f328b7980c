package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Options controls how derived images are encoded
type Options struct {
	JPEGQuality  int
	WebPQuality  int
	WebPLossless bool
}

// DefaultOptions returns the encoder settings used when none are given
func DefaultOptions() Options {
	return Options{
		JPEGQuality:  95,
		WebPQuality:  90,
		WebPLossless: false,
	}
}

// Processor loads and stores images on the local filesystem
type Processor struct {
	opts Options
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{opts: DefaultOptions()}
}

// NewProcessorWithOptions creates a processor with custom encoder settings
func NewProcessorWithOptions(opts Options) *Processor {
	return &Processor{opts: opts}
}

// Load loads an image from a file path with WebP support. EXIF orientation is
// deliberately not applied: annotations refer to the stored pixel grid.
// A missing file yields an error matching fs.ErrNotExist.
func (p *Processor) Load(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// Save encodes img according to the file extension of path and returns the
// number of bytes written.
func (p *Processor) Save(img image.Image, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: f}
	if err := p.Encode(cw, img, filepath.Ext(path)); err != nil {
		f.Close()
		os.Remove(path)
		return cw.n, err
	}
	if err := f.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Encode writes img in the format named by ext (".jpg", "png", ".webp", ...)
func (p *Processor) Encode(w io.Writer, img image.Image, ext string) error {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	switch ext {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: p.opts.WebPLossless, Quality: float32(p.opts.WebPQuality)})
	case "jpg", "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(p.opts.JPEGQuality))
	default:
		format, err := imaging.FormatFromExtension(ext)
		if err != nil {
			return fmt.Errorf("unsupported output format %q: %w", ext, err)
		}
		return imaging.Encode(w, img, format)
	}
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
