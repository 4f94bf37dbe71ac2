package dataset

import (
	"context"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/dense3d/depth2cloud/pointcloud"
	"github.com/dense3d/depth2cloud/rimage"
	"github.com/dense3d/depth2cloud/transform"
	"github.com/dense3d/depth2cloud/utils"
)

// Builder converts every frame of a dataset into a colored point cloud
// file.
type Builder struct {
	// DepthScale converts raw depth values to meters (see the
	// DepthScale constants).
	DepthScale float64
	// WorldFrame selects the output coordinate frame. When set, the
	// dataset's poses.txt is loaded and each frame's cloud is expressed
	// in the world frame; otherwise no pose is applied and clouds stay
	// in their camera frame.
	WorldFrame bool
	// OutDir overrides the dataset's point_clouds directory.
	OutDir string
	// Format selects the serializer, "ply" (the default) or "pcd".
	Format string

	Logger golog.Logger
}

// Output formats understood by the builder.
const (
	FormatPLY = "ply"
	FormatPCD = "pcd"
)

// Build back-projects every frame and writes one cloud file per frame.
// Frames are processed independently across a worker group; a failing
// frame is logged and reported in the combined error without stopping
// the others.
func (b *Builder) Build(ctx context.Context, d *Dataset) error {
	if b.DepthScale <= 0 {
		return errors.Errorf("depth scale factor must be positive, got %f", b.DepthScale)
	}
	format := b.Format
	if format == "" {
		format = FormatPLY
	}
	if format != FormatPLY && format != FormatPCD {
		return errors.Errorf("unsupported output format %q, expected %q or %q", b.Format, FormatPLY, FormatPCD)
	}
	frames, err := d.Frames()
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return errors.Errorf("dataset %q has no frames", d.Root())
	}

	k, err := d.IntrinsicsMatrix()
	if err != nil {
		return err
	}

	// Camera-frame mode applies no transform at all; poses are only
	// loaded when a world-frame cloud was asked for.
	var poses []*transform.CamPose
	if b.WorldFrame {
		poses, err = d.Poses()
		if err != nil {
			return err
		}
		if len(poses) != len(frames) {
			return errors.Errorf("dataset %q has %d poses for %d frames", d.Root(), len(poses), len(frames))
		}
	}

	// The camera matrix is calibrated at the color sensor's resolution;
	// the first frame tells us what that is.
	firstImg, err := rimage.ReadImageFromFile(frames[0].ImagePath)
	if err != nil {
		return err
	}
	params, err := transform.NewPinholeCameraIntrinsicsFromMatrix(k, firstImg.Width(), firstImg.Height())
	if err != nil {
		return err
	}

	outDir := b.OutDir
	if outDir == "" {
		outDir = d.PointCloudDir()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	frameErrs := make([]error, len(frames))
	err = utils.GroupWorkParallel(
		ctx,
		len(frames),
		func(numGroups int) {
			b.Logger.Infof("building %d point clouds across %d workers", len(frames), numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				frame := frames[workNum]
				var pose *transform.CamPose
				if b.WorldFrame {
					pose = poses[workNum]
				}
				if err := b.buildFrame(frame, *params, pose, outDir, format); err != nil {
					b.Logger.Errorw("frame failed", "frame", frame.Name, "error", err)
					frameErrs[workNum] = errors.Wrapf(err, "frame %s", frame.Name)
				}
			}, nil
		},
	)
	if err != nil {
		return err
	}
	return multierr.Combine(frameErrs...)
}

func (b *Builder) buildFrame(
	frame Frame,
	params transform.PinholeCameraIntrinsics,
	pose *transform.CamPose,
	outDir, format string,
) error {
	img, err := rimage.ReadImageFromFile(frame.ImagePath)
	if err != nil {
		return err
	}
	dm, err := rimage.ReadDepthMapFromFile(frame.DepthPath)
	if err != nil {
		return err
	}
	// The depth grid is authoritative; rescale intrinsics and resample
	// color when the sensors disagree on resolution.
	img, params, err = transform.AlignImageToDepth(img, dm, params)
	if err != nil {
		return err
	}
	pc, err := transform.RGBDToPointCloud(img, dm, &params, b.DepthScale, pose)
	if err != nil {
		return err
	}
	out := filepath.Join(outDir, frame.Name+"."+format)
	if format == FormatPCD {
		err = pointcloud.WritePCDToFile(pc, out, pointcloud.PCDAscii)
	} else {
		err = pointcloud.WritePLYToFile(pc, out)
	}
	if err != nil {
		return err
	}
	b.Logger.Debugf("frame %s: %d points -> %s", frame.Name, pc.Size(), out)
	return nil
}
