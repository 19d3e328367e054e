package convert

import (
	"context"
	"fmt"
	"io"
	"log"

	kerr "github.com/terrainkit/terrainkit/cmd/terrainkit/errors"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	"github.com/terrainkit/terrainkit/pkg/conversion"
	"github.com/terrainkit/terrainkit/pkg/probe"
	"github.com/terrainkit/terrainkit/pkg/subprocess"
	"github.com/terrainkit/terrainkit/pkg/toolchain"
	kpath "github.com/terrainkit/terrainkit/pkg/utils/path"
	"github.com/youta-t/flarc"
)

type Flag struct {
	DryRun bool `flag:"dry-run" alias:"n" help:"print commands to be run, instead of running them"`
}

const ARG_INPUT = "INPUT"

type Option struct {
	lookPath probe.LookPath
	runner   func(tee io.Writer) subprocess.Runner
}

func WithLookPath(l probe.LookPath) func(*Option) *Option {
	return func(o *Option) *Option {
		o.lookPath = l
		return o
	}
}

// WithRunner replaces how external tools are run, except for dry-run.
func WithRunner(r func(tee io.Writer) subprocess.Runner) func(*Option) *Option {
	return func(o *Option) *Option {
		o.runner = r
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	raster, err := NewKind(probe.Raster, options...)
	if err != nil {
		return nil, err
	}
	pointcloud, err := NewKind(probe.PointCloud, options...)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Convert elevation data into terrain tiles.",
		struct{}{},
		flarc.WithSubcommand(string(probe.Raster), raster),
		flarc.WithSubcommand(string(probe.PointCloud), pointcloud),
	)
}

var descriptions = map[probe.Kind]string{
	probe.Raster: `
Convert GeoTIFF DEMs into quantized-mesh terrain tiles.

Without INPUT, all *.tif and *.tiff in the raw data directory are used,
and merged into one raster when there are two or more.

The raster is reprojected to WGS84 (EPSG:4326), tiled by ctb-tile, and
layer.json is written in the tile output directory.

Example
-------

Convert all GeoTIFFs in the raw data directory:

	{{ .Command }}

Convert a specific file:

	{{ .Command }} ./somewhere/dem.tif

Show commands without running them:

	{{ .Command }} --dry-run
`,
	probe.PointCloud: `
Convert a LAZ/LAS point cloud into quantized-mesh terrain tiles.

Without INPUT, the first of *.laz and *.las in the raw data directory is used.
Other files are skipped; convert them one by one with INPUT.

Ground points are rasterized into a DEM with PDAL (noise is excluded). When that fails,
a plain translation to GeoTIFF is tried once. Then the DEM is reprojected and tiled
as "convert raster" does.

Example
-------

Convert the point cloud in the raw data directory:

	{{ .Command }}

Convert a specific file:

	{{ .Command }} ./somewhere/points.laz
`,
}

func NewKind(kind probe.Kind, options ...func(*Option) *Option) (flarc.Command, error) {
	return flarc.NewCommand(
		fmt.Sprintf("Convert %s elevation data into terrain tiles.", kind),
		Flag{},
		flarc.Args{
			{
				Name: ARG_INPUT, Required: false,
				Help: "input file. Default: files found in the raw data directory.",
			},
		},
		common.NewTask(Task(kind, options...)),
		flarc.WithDescription(descriptions[kind]),
	)
}

func Task(kind probe.Kind, options ...func(*Option) *Option) common.Task[Flag] {
	option := &Option{
		runner: func(tee io.Writer) subprocess.Runner {
			return subprocess.NewExec(subprocess.WithTee(tee))
		},
	}
	for _, o := range options {
		option = o(option)
	}

	return func(
		ctx context.Context,
		logger *log.Logger,
		env common.Env,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		conf := env.Config
		layout, err := conf.Paths()
		if err != nil {
			return err
		}
		situation := kerr.Situation{RawDir: layout.Raw, Runtime: conf.Runtime.Container}

		explicit := ""
		if in := cl.Args()[ARG_INPUT]; 0 < len(in) && in[0] != "" {
			explicit, err = kpath.Resolve(in[0])
			if err != nil {
				return fmt.Errorf("%w: path resolving error for '%s': %w", flarc.ErrUsage, in[0], err)
			}
		}

		popts := []probe.Option{}
		if option.lookPath != nil {
			popts = append(popts, probe.WithLookPath(option.lookPath))
		}
		strategy, err := probe.Probe(conf.Runtime.Container, popts...).Strategy(kind)
		if err != nil {
			return kerr.Explain(err, situation)
		}
		logger.Printf("tools run on: %s", strategy)

		copts := []conversion.Option{
			conversion.WithLogger(logger),
			conversion.WithTileExtension(conf.Serve.Extension),
		}
		if cl.Flags().DryRun {
			copts = append(copts,
				conversion.WithRunner(subprocess.NewDryRun(cl.Stdout())),
				conversion.AsDryRun(),
			)
		} else {
			copts = append(copts, conversion.WithRunner(option.runner(cl.Stderr())))
		}

		conv := conversion.New(layout, toolchain.New(strategy, conf.Runtime), copts...)
		report, err := conv.Run(ctx, kind, explicit)
		report.Print(cl.Stdout())
		if err != nil {
			return kerr.Explain(err, situation)
		}

		if !cl.Flags().DryRun {
			fmt.Fprintf(
				cl.Stdout(), "\nTerrain tiles are ready in %s\nServe them with: terrainkit serve\n",
				layout.Output,
			)
		}
		return nil
	}
}
