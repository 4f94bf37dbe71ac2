package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

func TestCamPoseIdentity(t *testing.T) {
	pose := NewCamPoseIdentity()
	p := pose.TransformPoint(r3.Vector{X: 1, Y: -2, Z: 3})
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 1, Y: -2, Z: 3})
	test.That(t, pose.Translation(), test.ShouldResemble, r3.Vector{})
}

func TestCamPoseFromMat(t *testing.T) {
	_, err := NewCamPoseFromMat(mat.NewDense(3, 3, nil))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "4x4")

	pose, err := NewCamPoseFromMat(mat.NewDense(4, 4, []float64{
		1, 0, 0, 5,
		0, 1, 0, -1,
		0, 0, 1, 2,
		0, 0, 0, 1,
	}))
	test.That(t, err, test.ShouldBeNil)
	p := pose.TransformPoint(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 6, Y: 0, Z: 3})
	test.That(t, pose.Translation(), test.ShouldResemble, r3.Vector{X: 5, Y: -1, Z: 2})
}

func TestCamPoseFromQuaternion(t *testing.T) {
	// identity orientation, translation only
	pose, err := NewCamPoseFromQuaternion(1, 2, 3, quat.Number{Real: 1})
	test.That(t, err, test.ShouldBeNil)
	p := pose.TransformPoint(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, p.X, test.ShouldAlmostEqual, 2)
	test.That(t, p.Y, test.ShouldAlmostEqual, 3)
	test.That(t, p.Z, test.ShouldAlmostEqual, 4)

	// a non-unit quaternion is normalized before conversion
	scaled, err := NewCamPoseFromQuaternion(1, 2, 3, quat.Number{Real: 7})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(scaled.Mat(), pose.Mat(), 1e-12), test.ShouldBeTrue)

	// 90 degrees about +Z maps +X to +Y
	s := math.Sqrt(2) / 2
	rotZ, err := NewCamPoseFromQuaternion(0, 0, 0, quat.Number{Real: s, Kmag: s})
	test.That(t, err, test.ShouldBeNil)
	p = rotZ.TransformPoint(r3.Vector{X: 1})
	test.That(t, p.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, p.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, p.Z, test.ShouldAlmostEqual, 0, 1e-12)

	// rotation block of a proper quaternion stays orthonormal
	rot := rotZ.Rotation()
	var rtr mat.Dense
	rtr.Mul(rot.T(), rot)
	test.That(t, mat.EqualApprox(&rtr, mat.NewDiagDense(3, []float64{1, 1, 1}), 1e-12), test.ShouldBeTrue)

	_, err = NewCamPoseFromQuaternion(0, 0, 0, quat.Number{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "zero quaternion")
}
