// Package overlay paints polygon annotations onto images for visual checks.
//
// The output is meant for humans looking at a dataset, it is never written
// back into the annotation store.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"

	"github.com/menta2k/region-augment/pkg/types"
)

// DefaultAlpha is the weight of the polygon colour in the blend
const DefaultAlpha = 0.7

// coverageThreshold marks a pixel as inside a polygon when at least half of it is covered
const coverageThreshold = 0x80

// RandomColors returns count colours with hues spaced evenly around the wheel,
// shuffled so that neighbouring regions do not get neighbouring hues.
func RandomColors(count int, bright bool, rng *rand.Rand) []color.NRGBA {
	value := 1.0
	if !bright {
		value = 0.7
	}

	colors := make([]color.NRGBA, count)
	for i := range colors {
		r, g, b := colorful.Hsv(360*float64(i)/float64(count), 1, value).RGB255()
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	rng.Shuffle(len(colors), func(i, j int) { colors[i], colors[j] = colors[j], colors[i] })
	return colors
}

// FillRegions draws every region filled with its own colour and blends the
// result onto a copy of img: out = img*(1-alpha) + layer*alpha, applied only
// where a polygon covers the pixel. The input image is left untouched.
func FillRegions(img image.Image, regions []types.Region, alpha float64, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	if len(regions) == 0 {
		return out
	}
	alpha = clamp(alpha, 0, 1)

	bounds := out.Bounds()
	layer := image.NewNRGBA(bounds)
	covered := make([]bool, bounds.Dx()*bounds.Dy())

	colors := RandomColors(len(regions), true, rng)
	for i, region := range regions {
		mask := rasterize(region.Points(), bounds.Dx(), bounds.Dy())
		if mask == nil {
			continue
		}
		c := colors[i]
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				if mask.AlphaAt(x, y).A < coverageThreshold {
					continue
				}
				layer.SetNRGBA(x, y, c)
				covered[y*bounds.Dx()+x] = true
			}
		}
	}

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if !covered[y*bounds.Dx()+x] {
				continue
			}
			i := out.PixOffset(x, y)
			j := layer.PixOffset(x, y)
			for ch := 0; ch < 3; ch++ {
				v := float64(out.Pix[i+ch])*(1-alpha) + float64(layer.Pix[j+ch])*alpha
				out.Pix[i+ch] = uint8(math.Round(clamp(v, 0, 255)))
			}
		}
	}

	return out
}

// rasterize returns the polygon coverage mask or nil for degenerate polygons
func rasterize(pts []types.Point, w, h int) *image.Alpha {
	if len(pts) < 3 || w == 0 || h == 0 {
		return nil
	}

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
