package rimage

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Depth is the raw depth measurement for a single pixel, in sensor
// units. Zero means no measurement.
type Depth uint16

// MaxDepth is the largest storable depth value.
const MaxDepth = Depth(^uint16(0))

// DepthMap is a 2D grid of raw 16-bit depth measurements.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a depth map of the given dimensions with no
// measurements.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// Width returns the horizontal width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the pixel grid of the depth map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// In returns whether or not a point is within the depth map.
func (dm *DepthMap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// Get returns the depth at the given point.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.data[dm.kxy(p.X, p.Y)]
}

// GetDepth returns the depth at the given coordinates.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Set sets the depth at the given coordinates.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// NewDepthMapFromImage turns a decoded grayscale raster into a
// DepthMap. 16-bit grays are taken as-is; 8-bit grays are widened
// without rescaling since their values are already in sensor units.
func NewDepthMapFromImage(img image.Image) (*DepthMap, error) {
	bounds := img.Bounds()
	dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
	switch g := img.(type) {
	case *image.Gray16:
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, Depth(g.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
	case *image.Gray:
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, Depth(g.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
	default:
		return nil, errors.Errorf("cannot make a DepthMap from a %T, expected a grayscale image", img)
	}
	return dm, nil
}

// DepthStats summarizes the measurements in a depth map.
type DepthStats struct {
	Width, Height int
	Min, Max      Depth
	Mean, StdDev  float64
	Valid         int // pixels with a non-zero measurement
	Total         int
}

// Stats computes summary statistics over the valid (non-zero) pixels.
func (dm *DepthMap) Stats() DepthStats {
	s := DepthStats{Width: dm.width, Height: dm.height, Total: len(dm.data)}
	valid := make([]float64, 0, len(dm.data))
	for _, d := range dm.data {
		if d == 0 {
			continue
		}
		valid = append(valid, float64(d))
	}
	s.Valid = len(valid)
	if s.Valid == 0 {
		return s
	}
	s.Min = Depth(floats.Min(valid))
	s.Max = Depth(floats.Max(valid))
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	return s
}
