package augment

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/menta2k/region-augment/internal/utils"
	"github.com/menta2k/region-augment/pkg/geometry"
	"github.com/menta2k/region-augment/pkg/processing"
	"github.com/menta2k/region-augment/pkg/types"
)

// Transform names the geometric change a variant applies to annotations
type Transform int

const (
	TransformNone Transform = iota
	TransformFlipHorizontal
	TransformFlipVertical
	TransformRotate
)

// Variant is one derived image kind
type Variant struct {
	Suffix    string
	Name      string
	Filter    processing.Filter
	Transform Transform
	// Angle in degrees. Regions turn by +Angle, pixels by -Angle, which is
	// the same visual direction in a y-down image frame.
	Angle float64
}

// RotationAngles are the fixed rotation variants, in degrees
var RotationAngles = []float64{15, 30, 90, 180}

// DefaultVariants returns the fixed, ordered variant list:
// fh, fv, gs, gb, r15, r30, r90, r180.
func DefaultVariants(blurSigma float64, background color.Color) []Variant {
	variants := []Variant{
		{Suffix: "fh", Name: "flip-h", Filter: processing.FlipHorizontal(), Transform: TransformFlipHorizontal},
		{Suffix: "fv", Name: "flip-v", Filter: processing.FlipVertical(), Transform: TransformFlipVertical},
		{Suffix: "gs", Name: "grayscale", Filter: processing.Grayscale()},
		{Suffix: "gb", Name: "blur", Filter: processing.GaussianBlur(blurSigma)},
	}
	for _, angle := range RotationAngles {
		variants = append(variants, Rotation(angle, background))
	}
	return variants
}

// Rotation builds a rotate-N variant
func Rotation(angle float64, background color.Color) Variant {
	return Variant{
		Suffix:    fmt.Sprintf("r%g", angle),
		Name:      fmt.Sprintf("rotate-%g", angle),
		Filter:    processing.Rotate(-angle, background),
		Transform: TransformRotate,
		Angle:     angle,
	}
}

// Suffixes lists the suffixes of the given variants in order
func Suffixes(variants []Variant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.Suffix
	}
	return out
}

// SelectVariants keeps the variants whose suffix is listed, in canonical
// order. An empty selection keeps everything.
func SelectVariants(variants []Variant, suffixes []string) ([]Variant, error) {
	if len(suffixes) == 0 {
		return variants, nil
	}

	want := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		want[strings.TrimSpace(s)] = true
	}

	var out []Variant
	for _, v := range variants {
		if want[v.Suffix] {
			out = append(out, v)
			delete(want, v.Suffix)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for s := range want {
			unknown = append(unknown, s)
		}
		return nil, fmt.Errorf("unknown variants %v (available: %s)", unknown, strings.Join(Suffixes(variants), ","))
	}
	return out, nil
}

// Regions returns the annotations of the derived image. src and dst are the
// bounds of the source image and of the filter output.
func (v Variant) Regions(regions []types.Region, src, dst image.Rectangle) []types.Region {
	switch v.Transform {
	case TransformFlipHorizontal:
		return geometry.FlipHorizontal(regions, float64(src.Dx()))
	case TransformFlipVertical:
		return geometry.FlipVertical(regions, float64(src.Dy()))
	case TransformRotate:
		center := types.Point{X: float64(src.Dx() / 2), Y: float64(src.Dy() / 2)}
		shiftX, shiftY := geometry.CanvasShift(src.Dx(), src.Dy(), dst.Dx(), dst.Dy())
		return geometry.RotateRegions(regions, center, shiftX, shiftY, v.Angle)
	default:
		out := make([]types.Region, len(regions))
		copy(out, regions)
		return out
	}
}

// DerivedKey builds the annotation key of a variant: <key>_<suffix>
func DerivedKey(key, suffix string) string {
	return key + "_" + suffix
}

// DerivedFilename inserts _<suffix> before the file extension
func DerivedFilename(filename, suffix string) string {
	return utils.InsertSuffix(filename, "_"+suffix)
}
