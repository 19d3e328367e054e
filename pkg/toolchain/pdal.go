package toolchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Pipeline is a PDAL pipeline document rasterizing a LAS/LAZ point cloud into a DEM.
type Pipeline struct {
	Stages []any `json:"pipeline"`
}

type ReaderLAS struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

type FilterRange struct {
	Type   string `json:"type"`
	Limits string `json:"limits"`
}

type WriterGDAL struct {
	Type       string  `json:"type"`
	Filename   string  `json:"filename"`
	OutputType string  `json:"output_type"`
	Resolution float64 `json:"resolution"`
	Radius     float64 `json:"radius"`
	GDALDriver string  `json:"gdaldriver"`
	DataType   string  `json:"data_type"`
}

// NewPipeline returns the pipeline reading in and writing DEM out.
//
// Points classified as noise (class 7) are dropped, and the rest is interpolated with IDW on 1m grid.
func NewPipeline(in string, out string) Pipeline {
	return Pipeline{
		Stages: []any{
			ReaderLAS{Type: "readers.las", Filename: in},
			FilterRange{Type: "filters.range", Limits: "Classification![7:7]"},
			WriterGDAL{
				Type:       "writers.gdal",
				Filename:   out,
				OutputType: Interpolation,
				Resolution: 1.0,
				Radius:     2.0,
				GDALDriver: RasterFormat,
				DataType:   "float32",
			},
		},
	}
}

// WriteFile writes the pipeline document as indented JSON into file.
func (p Pipeline) WriteFile(file string) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, b, os.FileMode(0644))
}

var ErrUnexpectedSummary = errors.New("unexpected pdal info summary")

// Summary is a digest of `pdal info --summary`.
type Summary struct {
	Points int64

	MinX, MinY, MaxX, MaxY float64

	// SRS is the horizontal coordinate system, if reported.
	SRS string
}

// ParseSummary reads JSON printed by `pdal info --summary`.
func ParseSummary(out string) (Summary, error) {
	if !gjson.Valid(out) {
		return Summary{}, fmt.Errorf("%w: not a json", ErrUnexpectedSummary)
	}
	s := gjson.Get(out, "summary")
	if !s.Exists() {
		return Summary{}, fmt.Errorf("%w: no summary", ErrUnexpectedSummary)
	}
	n := s.Get("num_points")
	if !n.Exists() {
		return Summary{}, fmt.Errorf("%w: no num_points", ErrUnexpectedSummary)
	}
	b := s.Get("bounds")
	return Summary{
		Points: n.Int(),
		MinX:   b.Get("minx").Float(),
		MinY:   b.Get("miny").Float(),
		MaxX:   b.Get("maxx").Float(),
		MaxY:   b.Get("maxy").Float(),
		SRS:    s.Get("srs.horizontal").String(),
	}, nil
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"%d points, bounds: (%.2f, %.2f) - (%.2f, %.2f)",
		s.Points, s.MinX, s.MinY, s.MaxX, s.MaxY,
	)
}
