// depth2cloud converts RGBD capture datasets into per-frame colored
// point clouds.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"

	"github.com/dense3d/depth2cloud/dataset"
	"github.com/dense3d/depth2cloud/rimage"
	"github.com/dense3d/depth2cloud/utils"
)

func main() {
	var logger golog.Logger

	app := &cli.App{
		Name:  "depth2cloud",
		Usage: "build colored point clouds from aligned RGB and depth frames",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = golog.NewDebugLogger("depth2cloud")
			} else {
				logger = golog.NewDevelopmentLogger("depth2cloud")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "back-project every frame of a dataset directory into PLY point clouds",
				ArgsUsage: "<dataset-dir>",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  "scale",
						Usage: "depth scale factor (raw depth / scale = meters); 5000 for TUM, 1000 for millimeter sensors",
						Value: dataset.DepthScaleMillimeters,
					},
					&cli.BoolFlag{
						Name:  "world",
						Usage: "express clouds in the world frame using the dataset's poses.txt",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "output directory (default: <dataset-dir>/point_clouds)",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format, ply or pcd",
						Value: dataset.FormatPLY,
					},
					&cli.IntFlag{
						Name:  "jobs",
						Usage: "max number of frames processed in parallel (default: number of CPUs)",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one dataset directory, got %d args", c.NArg())
					}
					if jobs := c.Int("jobs"); jobs > 0 {
						utils.ParallelFactor = jobs
					}
					d, err := dataset.NewDataset(c.Args().First())
					if err != nil {
						return err
					}
					builder := &dataset.Builder{
						DepthScale: c.Float64("scale"),
						WorldFrame: c.Bool("world"),
						OutDir:     c.String("out"),
						Format:     c.String("format"),
						Logger:     logger,
					}
					return builder.Build(c.Context, d)
				},
			},
			{
				Name:  "convert",
				Usage: "convert recorder output into the dataset text formats",
				Subcommands: []*cli.Command{
					{
						Name:      "odometry",
						Usage:     "convert an odometry CSV (x,y,z,qx,qy,qz,qw) into a stacked poses.txt",
						ArgsUsage: "<odometry.csv> <poses.txt>",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "frame-skip",
								Usage: "keep every Nth pose, matching a decimated frame sequence",
								Value: 1,
							},
						},
						Action: func(c *cli.Context) error {
							if c.NArg() != 2 {
								return fmt.Errorf("expected input and output paths, got %d args", c.NArg())
							}
							return dataset.ConvertOdometryFile(c.Args().Get(0), c.Args().Get(1), c.Int("frame-skip"))
						},
					},
					{
						Name:      "camera-matrix",
						Usage:     "convert a camera_matrix.csv into a K.txt intrinsics file",
						ArgsUsage: "<camera_matrix.csv> <K.txt>",
						Action: func(c *cli.Context) error {
							if c.NArg() != 2 {
								return fmt.Errorf("expected input and output paths, got %d args", c.NArg())
							}
							return dataset.ConvertCameraMatrixCSV(c.Args().Get(0), c.Args().Get(1))
						},
					},
				},
			},
			{
				Name:      "depth-stats",
				Usage:     "summarize the measurements in depth map files",
				ArgsUsage: "<depth.png>...",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("expected at least one depth map file")
					}
					paths := c.Args().Slice()
					stats := make([]rimage.DepthStats, len(paths))
					fns := make([]utils.SimpleFunc, len(paths))
					for i, path := range paths {
						i, path := i, path
						fns[i] = func(ctx context.Context) error {
							dm, err := rimage.ReadDepthMapFromFile(path)
							if err != nil {
								return err
							}
							stats[i] = dm.Stats()
							return nil
						}
					}
					if err := utils.RunInParallel(c.Context, fns); err != nil {
						return err
					}
					for i, s := range stats {
						fmt.Printf("%s: %dx%d, %d/%d valid, min %d max %d mean %.2f stddev %.2f\n",
							paths[i], s.Width, s.Height, s.Valid, s.Total, s.Min, s.Max, s.Mean, s.StdDev)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}
