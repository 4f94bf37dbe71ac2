package transform

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// CamPose is a rigid camera-to-world transform: a 4x4 homogeneous
// matrix with a 3x3 rotation block, a translation column, and a
// [0 0 0 1] bottom row. The rotation block is expected to be
// orthonormal; the kernel does not enforce that.
type CamPose struct {
	poseMat *mat.Dense
}

// NewCamPoseIdentity returns the identity pose, which leaves
// camera-space coordinates untouched.
func NewCamPoseIdentity() *CamPose {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &CamPose{poseMat: m}
}

// NewCamPoseFromMat creates a camera pose from a 4x4 homogeneous
// transform matrix.
func NewCamPoseFromMat(pose *mat.Dense) (*CamPose, error) {
	r, c := pose.Dims()
	if r != 4 || c != 4 {
		return nil, errors.Errorf("pose matrix must be 4x4, got %dx%d", r, c)
	}
	return &CamPose{poseMat: pose}, nil
}

// NewCamPoseFromQuaternion creates a camera pose from a translation
// and a unit quaternion orientation, the representation odometry logs
// store. The quaternion is normalized before conversion.
func NewCamPoseFromQuaternion(tx, ty, tz float64, q quat.Number) (*CamPose, error) {
	norm := quat.Abs(q)
	if norm == 0 {
		return nil, errors.New("cannot build a pose from a zero quaternion")
	}
	q = quat.Scale(1/norm, q)
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real

	m := mat.NewDense(4, 4, []float64{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w, tx,
		2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w, ty,
		2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y, tz,
		0, 0, 0, 1,
	})
	return &CamPose{poseMat: m}, nil
}

// Mat returns the underlying 4x4 matrix. Callers must not mutate it.
func (cp *CamPose) Mat() *mat.Dense {
	return cp.poseMat
}

// Rotation returns a copy of the 3x3 rotation block.
func (cp *CamPose) Rotation() *mat.Dense {
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, cp.poseMat.At(i, j))
		}
	}
	return rot
}

// Translation returns the translation column.
func (cp *CamPose) Translation() r3.Vector {
	return r3.Vector{X: cp.poseMat.At(0, 3), Y: cp.poseMat.At(1, 3), Z: cp.poseMat.At(2, 3)}
}

// TransformPoint applies the pose to a camera-space point, returning
// the same point expressed in the world frame.
func (cp *CamPose) TransformPoint(p r3.Vector) r3.Vector {
	m := cp.poseMat
	return r3.Vector{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}
