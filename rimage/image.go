// Package rimage defines the raster types consumed by the projection
// pipeline: an 8-bit color image and a 16-bit depth map.
package rimage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Image is a decoded 3-channel 8-bit raster. Pixels are stored in
// native red/green/blue order regardless of how the source buffer was
// laid out; constructors that accept other channel orders reorder at
// ingest.
type Image struct {
	data          []color.NRGBA
	width, height int
}

// NewImage returns a black image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{
		data:   make([]color.NRGBA, width*height),
		width:  width,
		height: height,
	}
}

func (i *Image) kxy(x, y int) int {
	return (y * i.width) + x
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds returns the pixel grid of the image.
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// Width returns the horizontal width of the image.
func (i *Image) Width() int {
	return i.width
}

// Height returns the vertical height of the image.
func (i *Image) Height() int {
	return i.height
}

// In returns whether or not a point is within the image.
func (i *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.data[i.kxy(x, y)]
}

// Get returns the color at the given point.
func (i *Image) Get(p image.Point) color.NRGBA {
	return i.data[i.kxy(p.X, p.Y)]
}

// GetXY returns the color at the given coordinates.
func (i *Image) GetXY(x, y int) color.NRGBA {
	return i.data[i.kxy(x, y)]
}

// SetXY sets the color at the given coordinates.
func (i *Image) SetXY(x, y int, c color.NRGBA) {
	i.data[i.kxy(x, y)] = c
}

func (i *Image) setFromRGB(x, y int, r, g, b uint8) {
	i.data[i.kxy(x, y)] = color.NRGBA{R: r, G: g, B: b, A: 255}
}

// ConvertImage converts any image.Image into an Image.
func ConvertImage(img image.Image) *Image {
	if ii, ok := img.(*Image); ok {
		return ii
	}
	bounds := img.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.height; y++ {
		for x := 0; x < out.width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.setFromRGB(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return out
}

// NewImageFromBGR builds an Image from a packed blue/green/red byte
// buffer, the layout handed out by OpenCV-style decoders. Channels are
// reordered to native red/green/blue here so everything downstream can
// read pixels without caring where they came from.
func NewImageFromBGR(data []byte, width, height int) (*Image, error) {
	if len(data) != width*height*3 {
		return nil, errors.Errorf("BGR buffer has %d bytes, expected %d for (%d,%d)",
			len(data), width*height*3, width, height)
	}
	out := NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			k := (y*width + x) * 3
			out.setFromRGB(x, y, data[k+2], data[k+1], data[k])
		}
	}
	return out, nil
}

// ResizeImage resamples the image to the given dimensions with
// bilinear interpolation.
func ResizeImage(img *Image, width, height int) *Image {
	if img.width == width && img.height == height {
		return img
	}
	return ConvertImage(imaging.Resize(img, width, height, imaging.Linear))
}
