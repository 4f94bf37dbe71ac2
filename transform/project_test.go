package transform

import (
	"image/color"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/dense3d/depth2cloud/pointcloud"
	"github.com/dense3d/depth2cloud/rimage"
)

func whiteImage(w, h int) *rimage.Image {
	img := rimage.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetXY(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	return img
}

func collectPoints(pc pointcloud.PointCloud) []r3.Vector {
	pts := make([]r3.Vector, 0, pc.Size())
	pc.Iterate(func(p r3.Vector, d pointcloud.Data) bool {
		pts = append(pts, p)
		return true
	})
	return pts
}

func TestRGBDToPointCloudScenario(t *testing.T) {
	// 2x2 depth [[0,1000],[2000,0]], scale 1000, unit focal lengths,
	// principal point at the origin: exactly two points survive.
	dm := rimage.NewEmptyDepthMap(2, 2)
	dm.Set(1, 0, 1000)
	dm.Set(0, 1, 2000)
	img := whiteImage(2, 2)
	params := &PinholeCameraIntrinsics{Width: 2, Height: 2, Fx: 1, Fy: 1, Ppx: 0, Ppy: 0}

	pc, err := RGBDToPointCloud(img, dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 2)

	// row-major emission order
	p0, d0 := pc.At(0)
	test.That(t, p0.X, test.ShouldAlmostEqual, 1)
	test.That(t, p0.Y, test.ShouldAlmostEqual, 0)
	test.That(t, p0.Z, test.ShouldAlmostEqual, 1)
	r, g, b := d0.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{255, 255, 255})

	p1, _ := pc.At(1)
	test.That(t, p1.X, test.ShouldAlmostEqual, 0)
	test.That(t, p1.Y, test.ShouldAlmostEqual, 2)
	test.That(t, p1.Z, test.ShouldAlmostEqual, 2)
}

func TestRGBDToPointCloudPreconditions(t *testing.T) {
	params := &PinholeCameraIntrinsics{Width: 2, Height: 2, Fx: 1, Fy: 1, Ppx: 0, Ppy: 0}
	img := whiteImage(2, 2)
	dm := rimage.NewEmptyDepthMap(2, 2)

	_, err := RGBDToPointCloud(nil, dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no rgb channel")

	_, err = RGBDToPointCloud(img, nil, params, 1000.0, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no depth channel")

	_, err = RGBDToPointCloud(whiteImage(3, 2), dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dimensions don't match")

	_, err = RGBDToPointCloud(img, dm, params, 0, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "scale factor")

	wrongGrid := &PinholeCameraIntrinsics{Width: 4, Height: 4, Fx: 1, Fy: 1, Ppx: 0, Ppy: 0}
	_, err = RGBDToPointCloud(img, dm, wrongGrid, 1000.0, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "intrinsics")
}

func TestRGBDToPointCloudEmptyDepth(t *testing.T) {
	// an all-zero depth frame is valid and yields an empty cloud
	params := &PinholeCameraIntrinsics{Width: 3, Height: 3, Fx: 1, Fy: 1, Ppx: 1, Ppy: 1}
	pc, err := RGBDToPointCloud(whiteImage(3, 3), rimage.NewEmptyDepthMap(3, 3), params, 1000.0, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 0)
}

func TestRGBDToPointCloudCount(t *testing.T) {
	// one point per strictly positive depth pixel, nothing else
	dm := rimage.NewEmptyDepthMap(4, 3)
	valid := 0
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if (x+y)%2 == 0 {
				dm.Set(x, y, rimage.Depth(100*(x+y+1)))
				valid++
			}
		}
	}
	params := &PinholeCameraIntrinsics{Width: 4, Height: 3, Fx: 2, Fy: 2, Ppx: 2, Ppy: 1.5}
	pc, err := RGBDToPointCloud(whiteImage(4, 3), dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, valid)
}

func TestRGBDToPointCloudReproject(t *testing.T) {
	// with an identity pose, every emitted point reprojects to the
	// pixel it came from
	dm := rimage.NewEmptyDepthMap(4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			dm.Set(x, y, rimage.Depth(500+100*x+37*y))
		}
	}
	params := &PinholeCameraIntrinsics{Width: 4, Height: 3, Fx: 2.5, Fy: 3.5, Ppx: 2, Ppy: 1.5}
	pc, err := RGBDToPointCloud(whiteImage(4, 3), dm, params, 1000.0, NewCamPoseIdentity())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 12)

	for i := 0; i < pc.Size(); i++ {
		p, _ := pc.At(i)
		u, v := params.PointToPixel(p.X, p.Y, p.Z)
		test.That(t, u, test.ShouldAlmostEqual, float64(i%4))
		test.That(t, v, test.ShouldAlmostEqual, float64(i/4))
	}
}

func TestRGBDToPointCloudWorldFrame(t *testing.T) {
	dm := rimage.NewEmptyDepthMap(1, 1)
	dm.Set(0, 0, 1000)
	img := whiteImage(1, 1)
	params := &PinholeCameraIntrinsics{Width: 1, Height: 1, Fx: 1, Fy: 1, Ppx: 0, Ppy: 0}

	// camera-frame branch: nil pose applies no transform
	camPC, err := RGBDToPointCloud(img, dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldBeNil)
	camPt, _ := camPC.At(0)
	test.That(t, camPt, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})

	// the identity pose leaves camera-space coordinates untouched
	idPC, err := RGBDToPointCloud(img, dm, params, 1000.0, NewCamPoseIdentity())
	test.That(t, err, test.ShouldBeNil)
	idPt, _ := idPC.At(0)
	test.That(t, idPt, test.ShouldResemble, camPt)

	// a translation pose shifts the whole cloud
	pose, err := NewCamPoseFromMat(mat.NewDense(4, 4, []float64{
		1, 0, 0, 10,
		0, 1, 0, 20,
		0, 0, 1, 30,
		0, 0, 0, 1,
	}))
	test.That(t, err, test.ShouldBeNil)
	worldPC, err := RGBDToPointCloud(img, dm, params, 1000.0, pose)
	test.That(t, err, test.ShouldBeNil)
	worldPt, _ := worldPC.At(0)
	test.That(t, worldPt, test.ShouldResemble, r3.Vector{X: 10, Y: 20, Z: 31})
}

func TestRGBDToPointCloudColorReorder(t *testing.T) {
	// a BGR source pixel (10,20,30) must come out as r=30 g=20 b=10
	img, err := rimage.NewImageFromBGR([]byte{10, 20, 30}, 1, 1)
	test.That(t, err, test.ShouldBeNil)
	dm := rimage.NewEmptyDepthMap(1, 1)
	dm.Set(0, 0, 1000)
	params := &PinholeCameraIntrinsics{Width: 1, Height: 1, Fx: 1, Fy: 1, Ppx: 0, Ppy: 0}

	pc, err := RGBDToPointCloud(img, dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldBeNil)
	_, d := pc.At(0)
	r, g, b := d.RGB255()
	test.That(t, r, test.ShouldEqual, 30)
	test.That(t, g, test.ShouldEqual, 20)
	test.That(t, b, test.ShouldEqual, 10)
}

func TestRGBDToPointCloudDeterminism(t *testing.T) {
	dm := rimage.NewEmptyDepthMap(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			dm.Set(x, y, rimage.Depth(x*1000+y*333))
		}
	}
	img := whiteImage(3, 3)
	params := &PinholeCameraIntrinsics{Width: 3, Height: 3, Fx: 1.5, Fy: 1.5, Ppx: 1, Ppy: 1}

	first, err := RGBDToPointCloud(img, dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldBeNil)
	second, err := RGBDToPointCloud(img, dm, params, 1000.0, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, collectPoints(second), test.ShouldResemble, collectPoints(first))
}

func TestAlignImageToDepth(t *testing.T) {
	params := PinholeCameraIntrinsics{Width: 4, Height: 4, Fx: 2, Fy: 2, Ppx: 2, Ppy: 2}

	// matching grids pass through untouched
	img := whiteImage(4, 4)
	dm := rimage.NewEmptyDepthMap(4, 4)
	outImg, outParams, err := AlignImageToDepth(img, dm, params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, outImg, test.ShouldEqual, img)
	test.That(t, outParams, test.ShouldResemble, params)

	// depth grid is authoritative: color resamples down, intrinsics rescale
	small := rimage.NewEmptyDepthMap(2, 2)
	outImg, outParams, err = AlignImageToDepth(img, small, params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, outImg.Width(), test.ShouldEqual, 2)
	test.That(t, outImg.Height(), test.ShouldEqual, 2)
	test.That(t, outParams.Fx, test.ShouldAlmostEqual, 1)
	test.That(t, outParams.Ppx, test.ShouldAlmostEqual, 1)

	// color frame must match the calibration resolution
	_, _, err = AlignImageToDepth(whiteImage(3, 3), small, params)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "intrinsics")
}
