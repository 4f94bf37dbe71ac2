package transform

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/dense3d/depth2cloud/pointcloud"
	"github.com/dense3d/depth2cloud/rimage"
)

// RGBDToPointCloud back-projects a registered RGB + depth frame pair
// into a colored point cloud using the camera intrinsics.
//
// Raw depth values are divided by depthScale to get meters; pixels
// with no measurement (zero depth) contribute no point, which is the
// sole validity filter. Points are emitted in row-major scan order of
// the surviving pixels, so identical inputs always produce an
// identical, identically-ordered cloud.
//
// A non-nil pose moves every point into the world frame; a nil pose
// is the explicit camera-frame branch and applies no transform at all.
func RGBDToPointCloud(
	img *rimage.Image,
	dm *rimage.DepthMap,
	params *PinholeCameraIntrinsics,
	depthScale float64,
	pose *CamPose,
) (pointcloud.PointCloud, error) {
	if img == nil {
		return nil, errors.New("no rgb channel, cannot project to pointcloud")
	}
	if dm == nil {
		return nil, errors.New("no depth channel, cannot project to pointcloud")
	}
	// The color and depth frames must cover the same pixel grid; the
	// caller is responsible for adjusting intrinsics and resampling the
	// color frame beforehand when the sensor resolutions differ.
	if img.Bounds() != dm.Bounds() {
		return nil, errors.Errorf("depth map and color dimensions don't match Depth(%d,%d) != Color(%d,%d)",
			dm.Width(), dm.Height(), img.Width(), img.Height())
	}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if params.Width != dm.Width() || params.Height != dm.Height() {
		return nil, errors.Errorf("depth map and intrinsics dimensions don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), params.Width, params.Height)
	}
	if depthScale <= 0 {
		return nil, errors.Errorf("depth scale factor must be positive, got %f", depthScale)
	}

	pc := pointcloud.NewWithPrealloc(dm.Width() * dm.Height())
	for v := 0; v < dm.Height(); v++ {
		for u := 0; u < dm.Width(); u++ {
			d := dm.GetDepth(u, v)
			if d == 0 {
				continue
			}
			z := float64(d) / depthScale
			px, py, pz := params.PixelToPoint(float64(u), float64(v), z)
			pt := r3.Vector{X: px, Y: py, Z: pz}
			if pose != nil {
				pt = pose.TransformPoint(pt)
			}
			pc.Append(pt, pointcloud.NewColoredData(img.GetXY(u, v)))
		}
	}
	return pc, nil
}

// AlignImageToDepth makes a color frame usable for projection at the
// depth grid's resolution. The depth grid is authoritative: when the
// resolutions differ the intrinsics (calibrated at the color
// resolution) are rescaled to the depth resolution and the color frame
// is resampled to match. When they already agree both are returned
// unchanged.
func AlignImageToDepth(
	img *rimage.Image,
	dm *rimage.DepthMap,
	params PinholeCameraIntrinsics,
) (*rimage.Image, PinholeCameraIntrinsics, error) {
	if err := params.CheckValid(); err != nil {
		return nil, params, err
	}
	if img.Width() != params.Width || img.Height() != params.Height {
		return nil, params, errors.Errorf("color frame and intrinsics dimensions don't match Color(%d,%d) != Intrinsics(%d,%d)",
			img.Width(), img.Height(), params.Width, params.Height)
	}
	if img.Bounds() == dm.Bounds() {
		return img, params, nil
	}
	scaled := params.ScaledTo(dm.Width(), dm.Height())
	return rimage.ResizeImage(img, dm.Width(), dm.Height()), scaled, nil
}
