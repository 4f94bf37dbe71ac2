package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/dense3d/depth2cloud/transform"
)

var odometryColumns = []string{"x", "y", "z", "qx", "qy", "qz", "qw"}

// ReadOdometry parses an odometry CSV (translation plus unit
// quaternion per row) into camera-to-world poses. Column names are
// matched after trimming whitespace since some recorders pad them.
// frameSkip > 1 keeps every frameSkip-th pose, for datasets where
// frames were decimated after recording.
func ReadOdometry(r io.Reader, frameSkip int) ([]*transform.CamPose, error) {
	if frameSkip < 1 {
		frameSkip = 1
	}
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read odometry header")
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	idx := make([]int, len(odometryColumns))
	for i, name := range odometryColumns {
		j, ok := cols[name]
		if !ok {
			return nil, errors.Errorf("odometry file is missing column %q", name)
		}
		idx[i] = j
	}

	var poses []*transform.CamPose
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		vals := make([]float64, len(idx))
		for i, j := range idx {
			if j >= len(record) {
				return nil, errors.Errorf("odometry row %d is too short", len(poses))
			}
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid odometry value in row %d", len(poses))
			}
		}
		pose, err := transform.NewCamPoseFromQuaternion(
			vals[0], vals[1], vals[2],
			quat.Number{Real: vals[6], Imag: vals[3], Jmag: vals[4], Kmag: vals[5]},
		)
		if err != nil {
			return nil, err
		}
		poses = append(poses, pose)
	}

	if frameSkip == 1 {
		return poses, nil
	}
	kept := make([]*transform.CamPose, 0, (len(poses)+frameSkip-1)/frameSkip)
	for i := 0; i < len(poses); i += frameSkip {
		kept = append(kept, poses[i])
	}
	return kept, nil
}

// ConvertOdometryFile converts an odometry CSV into a stacked-matrix
// poses file.
func ConvertOdometryFile(inPath, outPath string, frameSkip int) error {
	//nolint:gosec
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	poses, err := ReadOdometry(f, frameSkip)
	if err != nil {
		return err
	}
	return WritePosesFile(outPath, poses)
}

// ConvertCameraMatrixCSV converts a camera_matrix.csv (three rows of
// three values, possibly preceded by a header) into an intrinsics text
// file. Non-numeric rows are skipped the way header rows are.
func ConvertCameraMatrixCSV(inPath, outPath string) error {
	//nolint:gosec
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]float64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		vals := make([]float64, 0, len(record))
		ok := true
		for _, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if ok && len(vals) == 3 {
			rows = append(rows, vals)
		}
	}
	if len(rows) != 3 {
		return errors.Errorf("camera matrix CSV %q must hold a 3x3 matrix, got %d numeric rows", inPath, len(rows))
	}
	k := mat.NewDense(3, 3, nil)
	for i, row := range rows {
		k.SetRow(i, row)
	}
	return WriteIntrinsicsFile(outPath, k)
}
