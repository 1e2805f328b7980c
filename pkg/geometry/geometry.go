// Package geometry recomputes polygon annotations for images that have been
// mirrored or rotated.
//
// Every function is pure: the input regions are never modified and a fresh
// slice is returned. Region kind and region attributes pass through unchanged,
// only vertex coordinates are rewritten, and the number of vertices of every
// region is preserved.
//
// Coordinates follow the image convention: x grows to the right and y grows
// downwards. A positive rotation angle therefore turns content clockwise on
// screen. Image rotation filters usually turn counter-clockwise for a positive
// angle, so callers rotate pixels by -angle and regions by +angle.
package geometry

import (
	"math"

	"github.com/menta2k/region-augment/pkg/types"
)

// FlipHorizontal mirrors every vertex across the vertical centre line of an
// image of the given width: x' = width - x.
func FlipHorizontal(regions []types.Region, width float64) []types.Region {
	out := make([]types.Region, len(regions))
	for i, r := range regions {
		xs := make([]float64, len(r.ShapeAttributes.AllPointsX))
		for j, x := range r.ShapeAttributes.AllPointsX {
			xs[j] = width - x
		}
		out[i] = withPoints(r, xs, clone(r.ShapeAttributes.AllPointsY))
	}
	return out
}

// FlipVertical mirrors every vertex across the horizontal centre line of an
// image of the given height: y' = height - y.
func FlipVertical(regions []types.Region, height float64) []types.Region {
	out := make([]types.Region, len(regions))
	for i, r := range regions {
		ys := make([]float64, len(r.ShapeAttributes.AllPointsY))
		for j, y := range r.ShapeAttributes.AllPointsY {
			ys[j] = height - y
		}
		out[i] = withPoints(r, clone(r.ShapeAttributes.AllPointsX), ys)
	}
	return out
}

// RotatePoint rotates p about origin by angle radians.
func RotatePoint(origin, p types.Point, angle float64) types.Point {
	sin, cos := math.Sincos(angle)
	return rotate(origin, p, sin, cos)
}

// RotateRegions rotates every vertex about center by angle degrees,
// translates it by (shiftX, shiftY) and truncates the result onto the integer
// pixel grid.
//
// center must be the centre of the image the regions were drawn on. The shift
// moves the rotated vertices into the frame of the rotated canvas and is
// normally newCenter - oldCenter.
func RotateRegions(regions []types.Region, center types.Point, shiftX, shiftY, angle float64) []types.Region {
	sin, cos := sincosDegrees(angle)

	out := make([]types.Region, len(regions))
	for i, r := range regions {
		pts := r.Points()
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for j, p := range pts {
			q := rotate(center, p, sin, cos)
			xs[j] = math.Trunc(q.X + shiftX)
			ys[j] = math.Trunc(q.Y + shiftY)
		}
		out[i] = withPoints(r, xs, ys)
	}
	return out
}

// Centroid returns the mean of a region's vertices
func Centroid(r types.Region) types.Point {
	pts := r.Points()
	if len(pts) == 0 {
		return types.Point{}
	}
	var c types.Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return types.Point{X: c.X / n, Y: c.Y / n}
}

// CanvasShift returns the translation between the centres of two canvases,
// using the same integer centres the pixel grid has.
func CanvasShift(oldW, oldH, newW, newH int) (float64, float64) {
	return float64(newW/2 - oldW/2), float64(newH/2 - oldH/2)
}

func rotate(origin, p types.Point, sin, cos float64) types.Point {
	dx, dy := p.X-origin.X, p.Y-origin.Y
	return types.Point{
		X: origin.X + cos*dx - sin*dy,
		Y: origin.Y + sin*dx + cos*dy,
	}
}

// sincosDegrees is exact for quarter turns so that truncation does not
// drop a pixel on values like 9.999999999999998.
func sincosDegrees(angle float64) (float64, float64) {
	if q := angle / 90; q == math.Trunc(q) {
		switch int(math.Mod(q, 4)+4) % 4 {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		case 3:
			return -1, 0
		}
	}
	return math.Sincos(angle * math.Pi / 180)
}

func withPoints(r types.Region, xs, ys []float64) types.Region {
	return types.Region{
		ShapeAttributes: types.ShapeAttributes{
			Name:       r.ShapeAttributes.Name,
			AllPointsX: xs,
			AllPointsY: ys,
		},
		RegionAttributes: r.RegionAttributes,
	}
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
