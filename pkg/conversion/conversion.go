package conversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/terrainkit/terrainkit/pkg/configs"
	xe "github.com/terrainkit/terrainkit/pkg/errors"
	"github.com/terrainkit/terrainkit/pkg/probe"
	"github.com/terrainkit/terrainkit/pkg/subprocess"
	"github.com/terrainkit/terrainkit/pkg/toolchain"
	"github.com/terrainkit/terrainkit/pkg/verify"
)

// Stage is a state of conversion. Stages advance strictly in order.
type Stage string

const (
	NotStarted           Stage = ""
	InputSelected        Stage = "INPUT_SELECTED"
	RasterProduced       Stage = "RASTER_PRODUCED"
	Reprojected          Stage = "REPROJECTED"
	Tiled                Stage = "TILED"
	LayerMetadataWritten Stage = "LAYER_METADATA_WRITTEN"
)

// names of intermediate files in processed directory.
const (
	MergedRaster      = "merged.tif"
	DEMRaster         = "dem.tif"
	ReprojectedRaster = "wgs84.tif"
	PipelineDocument  = "pipeline.json"
)

// Attempt is one way to advance a stage.
type Attempt struct {
	// Variant names the attempt, e.g. "primary" or "simplified".
	Variant string

	Invocation subprocess.Invocation

	// Prepare runs before Invocation. When it fails, the attempt fails without running Invocation.
	Prepare func() error

	// Check runs after Invocation succeeds, to confirm the artifact.
	Check func() error
}

// StepResult is an outcome of an Attempt.
type StepResult struct {
	// Stage is the stage which the attempt tried to reach.
	Stage   Stage
	Variant string
	Result  subprocess.Result

	// Err is a failure of Prepare or Check.
	Err error
}

func (s StepResult) Ok() bool {
	return s.Err == nil && s.Result.Ok()
}

// Diagnostics is the text best describing why the attempt failed.
func (s StepResult) Diagnostics() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return s.Result.Diagnostics()
}

// Report is an outcome of a conversion run.
type Report struct {
	Kind     probe.Kind
	Strategy probe.Strategy

	Inputs []string

	// Skipped are inputs found but not converted in this run.
	Skipped []string

	// Summary describes the point cloud input, if it could be read.
	Summary *toolchain.Summary

	// Raster is the single raster which reprojection started from.
	Raster string

	// Reached is the last stage reached.
	Reached Stage

	Steps []StepResult

	// Verification is the report of output directory. nil when conversion did not finish.
	Verification *verify.Report
}

// Converter orchestrates external tools to convert raw elevation data into terrain tiles.
type Converter struct {
	layout configs.Layout
	tools  toolchain.Toolchain
	runner subprocess.Runner
	logger *log.Logger

	extension      string
	checkArtifacts bool
	dryRun         bool
}

type Option func(*Converter) *Converter

func WithRunner(r subprocess.Runner) Option {
	return func(c *Converter) *Converter {
		c.runner = r
		return c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Converter) *Converter {
		c.logger = l
		return c
	}
}

// WithTileExtension sets extension of tile files counted on verification.
func WithTileExtension(ext string) Option {
	return func(c *Converter) *Converter {
		c.extension = ext
		return c
	}
}

// WithoutArtifactChecks trusts exit status of tools and skips checking files they should write.
//
// Use this with a runner which does not run tools actually.
func WithoutArtifactChecks() Option {
	return func(c *Converter) *Converter {
		c.checkArtifacts = false
		return c
	}
}

// AsDryRun makes Converter leave processed and output directories untouched.
//
// Directories are not created, and files to be prepared before tools run (pipeline document,
// removal of stale rasters) are not written. Artifact checks are skipped as WithoutArtifactChecks.
// Pair it with subprocess.DryRun.
func AsDryRun() Option {
	return func(c *Converter) *Converter {
		c.dryRun = true
		c.checkArtifacts = false
		return c
	}
}

// New returns Converter.
//
// layout should be resolved into absolute paths.
func New(layout configs.Layout, tools toolchain.Toolchain, opts ...Option) *Converter {
	c := &Converter{
		layout:         layout,
		tools:          tools,
		runner:         subprocess.NewExec(),
		logger:         log.New(io.Discard, "", 0),
		extension:      ".terrain",
		checkArtifacts: true,
	}
	for _, o := range opts {
		c = o(c)
	}
	return c
}

// Run converts input of kind into terrain tiles.
//
// explicit is the input file given by user. When it is empty, inputs are looked up in raw directory.
//
// It returns Report even on error, telling how far it went.
// Errors wrap errors.ErrMissingInput, errors.ErrSubprocess or errors.ErrVerification.
// Intermediate files are left as they are on failure.
func (c *Converter) Run(ctx context.Context, kind probe.Kind, explicit string) (Report, error) {
	report := Report{Kind: kind, Strategy: c.tools.Strategy()}

	inputs, err := SelectInputs(kind, c.layout.Raw, explicit)
	if err != nil {
		return report, err
	}
	if kind == probe.PointCloud && 1 < len(inputs) {
		report.Skipped = inputs[1:]
		inputs = inputs[:1]
		for _, s := range report.Skipped {
			c.logger.Printf("skipped: %s (point cloud is converted one file per run)", s)
		}
	}
	report.Inputs = inputs
	report.Reached = InputSelected
	for _, in := range inputs {
		c.logger.Printf("input: %s", in)
	}

	if !c.dryRun {
		for _, d := range []string{c.layout.Processed, c.layout.Output} {
			if err := os.MkdirAll(d, os.FileMode(0755)); err != nil {
				return report, xe.Wrap(err)
			}
		}
	}

	var raster string
	switch kind {
	case probe.Raster:
		raster, err = c.produceRaster(ctx, &report, inputs)
	case probe.PointCloud:
		raster, err = c.producePointCloudDEM(ctx, &report, inputs[0])
	default:
		err = fmt.Errorf("unknown kind: %s", kind)
	}
	if err != nil {
		return report, err
	}
	report.Raster = raster
	report.Reached = RasterProduced

	wgs84 := filepath.Join(c.layout.Processed, ReprojectedRaster)
	if err := c.runChain(ctx, &report, Reprojected, []Attempt{
		{
			Variant:    "gdalwarp",
			Invocation: c.tools.Warp(raster, wgs84),
			Check:      c.exists(wgs84),
		},
	}); err != nil {
		return report, err
	}
	report.Reached = Reprojected

	if err := c.runChain(ctx, &report, Tiled, []Attempt{
		{Variant: "ctb-tile", Invocation: c.tools.Tile(wgs84, c.layout.Output)},
	}); err != nil {
		return report, err
	}
	report.Reached = Tiled

	layerJSON := filepath.Join(c.layout.Output, verify.LayerDescriptor)
	if err := c.runChain(ctx, &report, LayerMetadataWritten, []Attempt{
		{
			Variant:    "ctb-tile layer",
			Invocation: c.tools.LayerMetadata(wgs84, c.layout.Output),
			Check:      c.exists(layerJSON),
		},
	}); err != nil {
		return report, err
	}
	report.Reached = LayerMetadataWritten

	if !c.checkArtifacts {
		return report, nil
	}

	v, err := verify.Verify(c.layout.Output, verify.WithExtension(c.extension))
	if err != nil {
		return report, xe.Wrap(err)
	}
	report.Verification = &v
	if !v.Success() {
		return report, fmt.Errorf("%w: %s is missing", xe.ErrVerification, layerJSON)
	}
	return report, nil
}

// produceRaster merges inputs when there are more than one.
func (c *Converter) produceRaster(ctx context.Context, report *Report, inputs []string) (string, error) {
	if len(inputs) == 1 {
		c.logger.Printf("single input, merge is skipped")
		return inputs[0], nil
	}

	merged := filepath.Join(c.layout.Processed, MergedRaster)
	err := c.runChain(ctx, report, RasterProduced, []Attempt{
		{
			Variant:    "gdal_merge",
			Invocation: c.tools.Merge(inputs, merged),
			Check:      c.exists(merged),
		},
	})
	if err != nil {
		return "", err
	}
	return merged, nil
}

// producePointCloudDEM rasterizes a point cloud, falling back to simplified translation.
func (c *Converter) producePointCloudDEM(ctx context.Context, report *Report, input string) (string, error) {
	if res := c.runner.Run(ctx, c.tools.PointCloudInfo(input)); res.Ok() {
		if s, err := toolchain.ParseSummary(res.Stdout); err == nil {
			report.Summary = &s
			c.logger.Printf("%s: %s", filepath.Base(input), s)
		} else {
			c.logger.Printf("point cloud summary is not available: %s", err)
		}
	} else {
		c.logger.Printf("point cloud summary is not available: %s", res.Diagnostics())
	}

	dem := filepath.Join(c.layout.Processed, DEMRaster)
	pipelineFile := filepath.Join(c.layout.Processed, PipelineDocument)
	inv, doc := c.tools.PointCloudPipeline(pipelineFile, input, dem)

	err := c.runChain(ctx, report, RasterProduced, []Attempt{
		{
			Variant:    "pipeline",
			Invocation: inv,
			Prepare: func() error {
				if err := removeStale(dem); err != nil {
					return err
				}
				return doc.WriteFile(pipelineFile)
			},
			Check: c.exists(dem),
		},
		{
			Variant:    "translate",
			Invocation: c.tools.PointCloudTranslate(input, dem),
			Check:      c.exists(dem),
		},
	})
	if err != nil {
		return "", err
	}
	return dem, nil
}

// runChain tries attempts in order until one of them succeeds.
func (c *Converter) runChain(ctx context.Context, report *Report, stage Stage, chain []Attempt) error {
	failures := []string{}
	for _, a := range chain {
		step := StepResult{Stage: stage, Variant: a.Variant}

		if a.Prepare != nil && !c.dryRun {
			if err := a.Prepare(); err != nil {
				step.Err = err
				step.Result = subprocess.Result{Invocation: a.Invocation, ExitCode: -1}
			}
		}
		if step.Err == nil {
			c.logger.Printf("[%s] running: %s", stage, a.Invocation)
			step.Result = c.runner.Run(ctx, a.Invocation)
			if step.Result.Ok() && a.Check != nil {
				step.Err = a.Check()
			}
		}
		report.Steps = append(report.Steps, step)

		if step.Ok() {
			c.logger.Printf("[%s] done by %s in %s", stage, a.Variant, step.Result.Duration)
			return nil
		}

		c.logger.Printf("[%s] %s failed: %s", stage, a.Variant, step.Diagnostics())
		failures = append(failures, fmt.Sprintf("%s: %s", a.Variant, step.Diagnostics()))
		if err := ctx.Err(); err != nil {
			return errors.Join(err, fmt.Errorf("%w: %s", xe.ErrSubprocess, stage))
		}
	}
	return fmt.Errorf(
		"%w: failed to reach %s: %s", xe.ErrSubprocess, stage, strings.Join(failures, "; "),
	)
}

func (c *Converter) exists(path string) func() error {
	if !c.checkArtifacts {
		return nil
	}
	return func() error {
		s, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("expected output is not written: %s", path)
		}
		if s.IsDir() {
			return fmt.Errorf("expected output is a directory: %s", path)
		}
		return nil
	}
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
