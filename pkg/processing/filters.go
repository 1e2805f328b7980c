package processing

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Filter is a pure pixel transform. The output bounds always start at (0, 0)
// and describe the canvas the derived annotations live in.
type Filter func(img image.Image) *image.NRGBA

// DefaultBlurSigma is the sigma a 31x31 Gaussian kernel resolves to when the
// sigma is derived from the kernel size.
const DefaultBlurSigma = 5.0

// SigmaForKernel derives a Gaussian sigma from an odd kernel size
func SigmaForKernel(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// FlipHorizontal mirrors the image left to right
func FlipHorizontal() Filter {
	return imaging.FlipH
}

// FlipVertical mirrors the image top to bottom
func FlipVertical() Filter {
	return imaging.FlipV
}

// Grayscale drops colour information; dimensions are unchanged
func Grayscale() Filter {
	return imaging.Grayscale
}

// GaussianBlur blurs with the given sigma; dimensions are unchanged
func GaussianBlur(sigma float64) Filter {
	return func(img image.Image) *image.NRGBA {
		return imaging.Blur(img, sigma)
	}
}

// Rotate turns the image counter-clockwise by angle degrees. The canvas grows
// to fit the whole rotated image and uncovered corners are filled with bg.
func Rotate(angle float64, bg color.Color) Filter {
	return func(img image.Image) *image.NRGBA {
		return imaging.Rotate(img, angle, bg)
	}
}
