package download

import (
	"io"
	"math"
	"strconv"
	"text/template"

	"github.com/paulmach/orb"
	"github.com/terrainkit/terrainkit/pkg/configs"
)

const (
	LidarBCViewer = "https://governmentofbc.maps.arcgis.com/apps/MapSeries/index.html?appid=d06b37979b0c4f28b9e5f81b1f855c75"
	CDEMDataset   = "https://open.canada.ca/data/en/dataset/7f245e4d-76c2-4caa-951a-45d1d2051333"
)

// Guide is what the manual acquisition instructions are rendered from.
type Guide struct {
	Bounds configs.Bounds

	// Landmark is a place name to search in the map viewer. Optional.
	Landmark string

	// RawDir is where downloaded files should be placed.
	RawDir string

	// Next is the command to run after files are placed.
	Next string
}

// Center is the center point of the target area.
func (g Guide) Center() orb.Point {
	return g.Bounds.Bound().Center()
}

var funcs = template.FuncMap{
	"lat": func(v float64) string { return hemisphere(v, "N", "S") },
	"lon": func(v float64) string { return hemisphere(v, "E", "W") },
}

func hemisphere(v float64, pos string, neg string) string {
	h := pos
	if v < 0 {
		h = neg
	}
	return strconv.FormatFloat(math.Abs(v), 'f', 3, 64) + "°" + h
}

var guide = template.Must(template.New("guide").Funcs(funcs).Parse(
	`Target area:
  West:  {{ .Bounds.West }}
  East:  {{ .Bounds.East }}
  South: {{ .Bounds.South }}
  North: {{ .Bounds.North }}
  Center: {{ lat .Center.Lat }}, {{ lon .Center.Lon }}

Options:
  1. LidarBC map viewer (1-2m LiDAR point clouds and DEMs, manual)
  2. Canadian Digital Elevation Model (about 20m, automatic with --cdem)
     {{ .CDEM }}
  3. Provide your own GeoTIFF DEM or LAZ/LAS point cloud

RECOMMENDED: Manual Download from LidarBC
  1. Open {{ .Viewer }}
  2. Navigate to {{ lat .Center.Lat }}, {{ lon .Center.Lon }}{{ with .Landmark }} (search "{{ . }}"){{ end }}
  3. Select tiles covering the target area
  4. Download LAZ point clouds or DEM GeoTIFFs
  5. Place the files in {{ .RawDir }}
{{ with .Next }}
Then run: {{ . }}
{{ end }}`,
))

// Instructions writes the manual acquisition guide to w.
func Instructions(w io.Writer, g Guide) error {
	return guide.Execute(w, struct {
		Guide
		Viewer string
		CDEM   string
	}{
		Guide:  g,
		Viewer: LidarBCViewer,
		CDEM:   CDEMDataset,
	})
}
