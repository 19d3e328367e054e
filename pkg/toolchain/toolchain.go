// Command lines of external geospatial tools.
//
// Argument sets are fixed so that outputs stay identical to those of the same tools run by hand:
//
//	merge:          gdal_merge.py -o OUT IN...
//	reproject:      gdalwarp -t_srs EPSG:4326 -r bilinear -of GTiff -co COMPRESS=LZW IN OUT
//	point cloud:    pdal pipeline PIPELINE --readers.las.filename=IN --writers.gdal.filename=OUT
//	simplified:     pdal translate IN OUT --writers.gdal.resolution=1.0 --writers.gdal.output_type=idw
//	tiles:          ctb-tile -f Mesh -C -N -o OUTDIR IN
//	layer metadata: ctb-tile -f Mesh -l -o OUTDIR IN
//	summary:        pdal info --summary IN
//
// Toolchain implementations differ only in how a tool is launched and how paths are seen by the tool.
package toolchain

import (
	"github.com/terrainkit/terrainkit/pkg/configs"
	"github.com/terrainkit/terrainkit/pkg/probe"
	"github.com/terrainkit/terrainkit/pkg/subprocess"
)

// executables
const (
	GDALMerge = "gdal_merge.py"
	GDALWarp  = "gdalwarp"
	PDAL      = "pdal"
	CTBTile   = "ctb-tile"
)

const (
	TargetSRS      = "EPSG:4326"
	Resampling     = "bilinear"
	RasterFormat   = "GTiff"
	Compression    = "COMPRESS=LZW"
	MeshFormat     = "Mesh"
	GridResolution = "1.0"
	Interpolation  = "idw"
)

// Toolchain builds invocations of external tools.
//
// Paths given are host paths.
type Toolchain interface {
	Strategy() probe.Strategy

	// Merge combines inputs into a single raster out.
	Merge(inputs []string, out string) subprocess.Invocation

	// Warp reprojects raster in into WGS84 raster out.
	Warp(in string, out string) subprocess.Invocation

	// PointCloudPipeline rasterizes point cloud in into DEM out with the pipeline document.
	//
	// The document should be written to pipelineFile before the invocation runs.
	PointCloudPipeline(pipelineFile string, in string, out string) (subprocess.Invocation, Pipeline)

	// PointCloudTranslate rasterizes point cloud in into DEM out with default filters.
	PointCloudTranslate(in string, out string) subprocess.Invocation

	// PointCloudInfo summarizes point cloud in as JSON.
	PointCloudInfo(in string) subprocess.Invocation

	// Tile writes quantized-mesh tiles of raster in into outdir.
	Tile(in string, outdir string) subprocess.Invocation

	// LayerMetadata writes layer.json of raster in into outdir.
	LayerMetadata(in string, outdir string) subprocess.Invocation
}

// New returns Toolchain for strategy.
func New(strategy probe.Strategy, runtime configs.Runtime) Toolchain {
	if strategy == probe.Container {
		return NewContainer(runtime.Container, runtime.Images)
	}
	return NewLocal()
}

func mergeArgs(inputs []string, out string) []string {
	return append([]string{"-o", out}, inputs...)
}

func warpArgs(in string, out string) []string {
	return []string{
		"-t_srs", TargetSRS,
		"-r", Resampling,
		"-of", RasterFormat,
		"-co", Compression,
		in, out,
	}
}

func pipelineArgs(pipelineFile string, in string, out string) []string {
	return []string{
		"pipeline", pipelineFile,
		"--readers.las.filename=" + in,
		"--writers.gdal.filename=" + out,
	}
}

func translateArgs(in string, out string) []string {
	return []string{
		"translate", in, out,
		"--writers.gdal.resolution=" + GridResolution,
		"--writers.gdal.output_type=" + Interpolation,
	}
}

func infoArgs(in string) []string {
	return []string{"info", "--summary", in}
}

func tileArgs(in string, outdir string) []string {
	return []string{"-f", MeshFormat, "-C", "-N", "-o", outdir, in}
}

func layerArgs(in string, outdir string) []string {
	return []string{"-f", MeshFormat, "-l", "-o", outdir, in}
}
