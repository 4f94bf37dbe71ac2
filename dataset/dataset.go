// Package dataset reads RGBD capture directories and drives the
// per-frame reconstruction pipeline.
//
// A dataset directory holds aligned, same-length sequences of color
// and depth frames plus the calibration the capture was made with:
//
//	<root>/K.txt          3x3 camera matrix, flat text
//	<root>/poses.txt      stacked 4x4 camera-to-world transforms
//	<root>/images/        color frames, one PNG per frame
//	<root>/depth_maps/    16-bit depth PNGs named like their color frame
//	<root>/point_clouds/  output, one PLY per frame
package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/dense3d/depth2cloud/transform"
)

const (
	imagesDir      = "images"
	depthMapsDir   = "depth_maps"
	pointCloudsDir = "point_clouds"
	intrinsicsFile = "K.txt"
	posesFile      = "poses.txt"
)

// Well-known depth scale factors: raw sensor value / scale = meters.
const (
	// DepthScaleTUM is the scale of the TUM RGB-D benchmark.
	DepthScaleTUM = 5000.0
	// DepthScaleMillimeters is for sensors storing millimeters
	// (HoloLens, Stray Scanner).
	DepthScaleMillimeters = 1000.0
	// DepthScaleApolloScape is the scale of the ApolloScape dataset.
	DepthScaleApolloScape = 200.0
)

// Frame is one aligned color/depth pair of a dataset.
type Frame struct {
	// Name is the frame's basename without extension; output files are
	// named after it.
	Name      string
	ImagePath string
	DepthPath string
}

// Dataset is an RGBD capture directory.
type Dataset struct {
	root string
}

// NewDataset opens a dataset directory.
func NewDataset(root string) (*Dataset, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.Errorf("dataset path %q is not a directory", root)
	}
	return &Dataset{root: root}, nil
}

// Root returns the dataset directory.
func (d *Dataset) Root() string {
	return d.root
}

// PointCloudDir returns where per-frame clouds are written.
func (d *Dataset) PointCloudDir() string {
	return filepath.Join(d.root, pointCloudsDir)
}

func sortedPNGs(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Frames lists the dataset's frame pairs in name order. Color and
// depth sequences are paired by index and must be the same length.
func (d *Dataset) Frames() ([]Frame, error) {
	imagePaths, err := sortedPNGs(filepath.Join(d.root, imagesDir))
	if err != nil {
		return nil, err
	}
	depthPaths, err := sortedPNGs(filepath.Join(d.root, depthMapsDir))
	if err != nil {
		return nil, err
	}
	if len(imagePaths) != len(depthPaths) {
		return nil, errors.Errorf("dataset %q has %d color frames but %d depth frames",
			d.root, len(imagePaths), len(depthPaths))
	}
	frames := make([]Frame, len(imagePaths))
	for i := range imagePaths {
		base := filepath.Base(imagePaths[i])
		frames[i] = Frame{
			Name:      strings.TrimSuffix(base, filepath.Ext(base)),
			ImagePath: imagePaths[i],
			DepthPath: depthPaths[i],
		}
	}
	return frames, nil
}

// IntrinsicsMatrix reads the dataset's 3x3 camera matrix.
func (d *Dataset) IntrinsicsMatrix() (*mat.Dense, error) {
	return ReadIntrinsicsFile(filepath.Join(d.root, intrinsicsFile))
}

// Poses reads the dataset's per-frame camera-to-world transforms.
func (d *Dataset) Poses() ([]*transform.CamPose, error) {
	return ReadPosesFile(filepath.Join(d.root, posesFile))
}
