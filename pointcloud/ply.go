package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
)

// WritePLY writes the point cloud as an ascii PLY file: x/y/z float
// properties followed by red/green/blue/alpha bytes, one point per
// line in emission order. Alpha is always written as 0. Uncolored
// points are written white.
func WritePLY(cloud PointCloud, out io.Writer) error {
	w := bufio.NewWriter(out)
	_, err := fmt.Fprintf(w, "ply\n"+
		"format ascii 1.0\n"+
		"element vertex %d\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n"+
		"property uchar red\n"+
		"property uchar green\n"+
		"property uchar blue\n"+
		"property uchar alpha\n"+
		"end_header\n",
		cloud.Size())
	if err != nil {
		return err
	}
	cloud.Iterate(func(pos r3.Vector, d Data) bool {
		red, green, blue := uint8(255), uint8(255), uint8(255)
		if d != nil && d.HasColor() {
			red, green, blue = d.RGB255()
		}
		_, err = fmt.Fprintf(w, "%f %f %f %d %d %d 0\n", pos.X, pos.Y, pos.Z, red, green, blue)
		return err == nil
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

// WritePLYToFile writes the point cloud to the named PLY file.
func WritePLYToFile(cloud PointCloud, fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WritePLY(cloud, f)
}
