package rimage

import (
	"image"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	// register the decoders frame files may arrive in.
	_ "image/jpeg"
)

// ReadImageFromFile reads a color frame from disk.
func ReadImageFromFile(path string) (*Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image from %q", path)
	}
	return ConvertImage(img), nil
}

// ReadDepthMapFromFile reads a depth frame from disk. Depth frames are
// expected to be losslessly encoded 16-bit grayscale PNGs.
func ReadDepthMapFromFile(path string) (*DepthMap, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode depth map from %q", path)
	}
	return NewDepthMapFromImage(img)
}

// WriteDepthMapToFile writes the depth map out as a 16-bit grayscale PNG.
func WriteDepthMapToFile(dm *DepthMap, path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	img := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			i := img.PixOffset(x, y)
			d := dm.GetDepth(x, y)
			img.Pix[i] = uint8(d >> 8)
			img.Pix[i+1] = uint8(d)
		}
	}
	return png.Encode(f, img)
}
