package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedRegion is returned when a region lacks the fields the transforms consume
var ErrMalformedRegion = errors.New("malformed region")

// ShapePolygon is the only region kind produced by the annotation tool
const ShapePolygon = "polygon"

// Point is a single polygon vertex in image pixel coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShapeAttributes holds the index-aligned vertex lists of a region
type ShapeAttributes struct {
	Name       string    `json:"name"`
	AllPointsX []float64 `json:"all_points_x"`
	AllPointsY []float64 `json:"all_points_y"`
}

// Region is one labelled polygon. RegionAttributes is passed through untouched.
type Region struct {
	ShapeAttributes  ShapeAttributes `json:"shape_attributes"`
	RegionAttributes json.RawMessage `json:"region_attributes"`
}

// NewPolygon builds a polygon region from a list of points
func NewPolygon(points []Point, attributes json.RawMessage) Region {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	return Region{
		ShapeAttributes: ShapeAttributes{
			Name:       ShapePolygon,
			AllPointsX: xs,
			AllPointsY: ys,
		},
		RegionAttributes: attributes,
	}
}

// Points returns the region vertices as (x, y) pairs
func (r Region) Points() []Point {
	n := min(len(r.ShapeAttributes.AllPointsX), len(r.ShapeAttributes.AllPointsY))
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{X: r.ShapeAttributes.AllPointsX[i], Y: r.ShapeAttributes.AllPointsY[i]}
	}
	return pts
}

// Validate checks that the vertex lists are present and of equal length
func (r Region) Validate() error {
	sa := r.ShapeAttributes
	if sa.Name == "" {
		return fmt.Errorf("%w: missing shape name", ErrMalformedRegion)
	}
	if sa.AllPointsX == nil || sa.AllPointsY == nil {
		return fmt.Errorf("%w: %s has no point lists", ErrMalformedRegion, sa.Name)
	}
	if len(sa.AllPointsX) != len(sa.AllPointsY) {
		return fmt.Errorf("%w: %s has %d x and %d y coordinates",
			ErrMalformedRegion, sa.Name, len(sa.AllPointsX), len(sa.AllPointsY))
	}
	return nil
}

// Record is one dataset entry. Size is carried through from the source image
// and is not recomputed for derived images unless explicitly requested.
type Record struct {
	Filename       string          `json:"filename"`
	Size           int64           `json:"size"`
	Regions        []Region        `json:"regions"`
	FileAttributes json.RawMessage `json:"file_attributes"`
}

// Dataset maps an annotation key to its record
type Dataset map[string]Record

// Clone returns a shallow copy of the map; records are values and are never mutated in place
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Keys returns the dataset keys in lexical order
func (d Dataset) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks every region of every record
func (d Dataset) Validate() error {
	for _, key := range d.Keys() {
		for i, r := range d[key].Regions {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("%s: region %d: %w", key, i, err)
			}
		}
	}
	return nil
}

// Verdict is a vision model's judgement of an overlay
type Verdict struct {
	Aligned bool     `json:"aligned"`
	Score   float64  `json:"score"`
	Issues  []string `json:"issues"`
	Summary string   `json:"summary"`
}
