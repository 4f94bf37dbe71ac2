package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/dense3d/depth2cloud/transform"
)

// readMatrixFile reads every whitespace-separated float in a text
// file, the flat layout both K.txt and poses.txt use.
func readMatrixFile(path string) ([]float64, error) {
	//nolint:gosec
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(raw))
	vals := make([]float64, len(fields))
	for i, f := range fields {
		vals[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid matrix value %q in %q", f, path)
		}
	}
	return vals, nil
}

// ReadIntrinsicsFile reads a 3x3 camera matrix from a flat text file.
func ReadIntrinsicsFile(path string) (*mat.Dense, error) {
	vals, err := readMatrixFile(path)
	if err != nil {
		return nil, err
	}
	if len(vals) != 9 {
		return nil, errors.Errorf("intrinsics file %q must hold a 3x3 matrix, got %d values", path, len(vals))
	}
	return mat.NewDense(3, 3, vals), nil
}

// ReadPosesFile reads one or more stacked 4x4 row-major
// camera-to-world transforms from a flat text file.
func ReadPosesFile(path string) ([]*transform.CamPose, error) {
	vals, err := readMatrixFile(path)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 || len(vals)%16 != 0 {
		return nil, errors.Errorf("poses file %q must hold stacked 4x4 matrices, got %d values", path, len(vals))
	}
	poses := make([]*transform.CamPose, 0, len(vals)/16)
	for i := 0; i < len(vals); i += 16 {
		pose, err := transform.NewCamPoseFromMat(mat.NewDense(4, 4, vals[i:i+16]))
		if err != nil {
			return nil, err
		}
		poses = append(poses, pose)
	}
	return poses, nil
}

// WritePosesFile writes poses as one flattened 4x4 matrix per line.
func WritePosesFile(path string, poses []*transform.CamPose) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	for _, pose := range poses {
		m := pose.Mat()
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				if i != 0 || j != 0 {
					if _, err := fmt.Fprint(w, " "); err != nil {
						return err
					}
				}
				if _, err := fmt.Fprintf(w, "%.16e", m.At(i, j)); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteIntrinsicsFile writes a 3x3 camera matrix as three text lines.
func WriteIntrinsicsFile(path string, k *mat.Dense) (err error) {
	r, c := k.Dims()
	if r != 3 || c != 3 {
		return errors.Errorf("camera matrix must be 3x3, got %dx%d", r, c)
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	for i := 0; i < 3; i++ {
		if _, err := fmt.Fprintf(w, "%.16e %.16e %.16e\n", k.At(i, 0), k.At(i, 1), k.At(i, 2)); err != nil {
			return err
		}
	}
	return w.Flush()
}
