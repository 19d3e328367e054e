package configs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/paulmach/orb"
	kpath "github.com/terrainkit/terrainkit/pkg/utils/path"
	"gopkg.in/yaml.v3"
)

// FileName is the name of configuration file looked up from the working directory upward.
//
// The directory holding it is the project root.
const FileName = "terrainkit.yaml"

var (
	ErrUnknownField    = errors.New("configs: unknown field")
	ErrInvalidLayout   = errors.New("configs: layout is invalid")
	ErrInvalidImage    = errors.New("configs: image is invalid")
	ErrInvalidBounds   = errors.New("configs: bounds are invalid")
	ErrInvalidServe    = errors.New("configs: serve is invalid")
	ErrInvalidDownload = errors.New("configs: download is invalid")
)

type Config struct {
	// Root is the project root. Relative paths in Layout and Serve are based on it.
	//
	// This is not read from file. It is the directory of the configuration file.
	Root string `yaml:"-"`

	Layout   Layout   `yaml:"layout"`
	Runtime  Runtime  `yaml:"runtime"`
	Serve    Serve    `yaml:"serve"`
	Download Download `yaml:"download"`
}

// Layout is the fixed directory layout of a project.
type Layout struct {
	// Raw is the directory where raw input (GeoTIFF, LAZ/LAS) is placed.
	Raw string `yaml:"raw"`

	// Processed is the directory for intermediate rasters.
	Processed string `yaml:"processed"`

	// Output is the directory where terrain tiles and layer.json are written.
	Output string `yaml:"output"`
}

func (l *Layout) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Raw       string `yaml:"raw"`
		Processed string `yaml:"processed"`
		Output    string `yaml:"output"`
	}{Raw: l.Raw, Processed: l.Processed, Output: l.Output}
	if err := decodeKnown(node, &raw); err != nil {
		return err
	}

	for k, v := range map[string]string{
		"raw": raw.Raw, "processed": raw.Processed, "output": raw.Output,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidLayout, k)
		}
	}
	if filepath.Clean(raw.Output) == filepath.Clean(raw.Processed) {
		return fmt.Errorf("%w: output and processed should differ: %s", ErrInvalidLayout, raw.Output)
	}

	l.Raw, l.Processed, l.Output = raw.Raw, raw.Processed, raw.Output
	return nil
}

// Resolve returns Layout with absolute paths, based on root.
func (l Layout) Resolve(root string) (Layout, error) {
	ret := Layout{}
	for _, p := range []struct {
		src string
		dst *string
	}{
		{l.Raw, &ret.Raw}, {l.Processed, &ret.Processed}, {l.Output, &ret.Output},
	} {
		abs, err := kpath.ResolveFrom(root, p.src)
		if err != nil {
			return Layout{}, err
		}
		*p.dst = abs
	}
	return ret, nil
}

// Images are container images per external tool.
type Images struct {
	GDAL string `yaml:"gdal"`
	PDAL string `yaml:"pdal"`
	CTB  string `yaml:"ctb"`
}

func (i *Images) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		GDAL string `yaml:"gdal"`
		PDAL string `yaml:"pdal"`
		CTB  string `yaml:"ctb"`
	}{GDAL: i.GDAL, PDAL: i.PDAL, CTB: i.CTB}
	if err := decodeKnown(node, &raw); err != nil {
		return err
	}

	for tool, ref := range map[string]string{"gdal": raw.GDAL, "pdal": raw.PDAL, "ctb": raw.CTB} {
		if _, err := name.ParseReference(ref); err != nil {
			return fmt.Errorf("%w: %s: %q: %s", ErrInvalidImage, tool, ref, err)
		}
	}

	i.GDAL, i.PDAL, i.CTB = raw.GDAL, raw.PDAL, raw.CTB
	return nil
}

type Runtime struct {
	// Container is the executable name of container runtime (e.g. "docker", "podman").
	Container string `yaml:"container"`

	Images Images `yaml:"images"`
}

type Serve struct {
	Port int `yaml:"port"`

	// Root is the directory served over HTTP.
	Root string `yaml:"root"`

	// Extension is the file extension of terrain tiles, which are served as gzip encoded.
	Extension string `yaml:"extension"`
}

func (s *Serve) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Port      int    `yaml:"port"`
		Root      string `yaml:"root"`
		Extension string `yaml:"extension"`
	}{Port: s.Port, Root: s.Root, Extension: s.Extension}
	if err := decodeKnown(node, &raw); err != nil {
		return err
	}

	if raw.Port < 0 || 65535 < raw.Port {
		return fmt.Errorf("%w: port out of range: %d", ErrInvalidServe, raw.Port)
	}
	if raw.Root == "" {
		return fmt.Errorf("%w: root is empty", ErrInvalidServe)
	}
	if !strings.HasPrefix(raw.Extension, ".") {
		return fmt.Errorf("%w: extension should start with '.': %q", ErrInvalidServe, raw.Extension)
	}

	s.Port, s.Root, s.Extension = raw.Port, raw.Root, raw.Extension
	return nil
}

// Bounds is a geographic bounding box in degrees (WGS84).
type Bounds struct {
	West  float64 `yaml:"west"`
	South float64 `yaml:"south"`
	East  float64 `yaml:"east"`
	North float64 `yaml:"north"`
}

func (b *Bounds) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		West  float64 `yaml:"west"`
		South float64 `yaml:"south"`
		East  float64 `yaml:"east"`
		North float64 `yaml:"north"`
	}{West: b.West, South: b.South, East: b.East, North: b.North}
	if err := decodeKnown(node, &raw); err != nil {
		return err
	}

	c := Bounds(raw)
	if err := c.Validate(); err != nil {
		return err
	}
	*b = c
	return nil
}

func (b Bounds) Validate() error {
	if !(b.West < b.East) {
		return fmt.Errorf("%w: west (%g) should be less than east (%g)", ErrInvalidBounds, b.West, b.East)
	}
	if !(b.South < b.North) {
		return fmt.Errorf("%w: south (%g) should be less than north (%g)", ErrInvalidBounds, b.South, b.North)
	}
	if b.West < -180 || 180 < b.East || b.South < -90 || 90 < b.North {
		return fmt.Errorf("%w: out of range: %+v", ErrInvalidBounds, b)
	}
	return nil
}

func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

type Catalog struct {
	URL     string        `yaml:"url"`
	Query   string        `yaml:"query"`
	Rows    int           `yaml:"rows"`
	Timeout time.Duration `yaml:"timeout"`
}

type Coverage struct {
	URL        string        `yaml:"url"`
	CoverageID string        `yaml:"coverage_id"`
	Filename   string        `yaml:"filename"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Download struct {
	Bounds Bounds `yaml:"bounds"`

	// Landmark is a place name in the target area, shown in manual download instructions.
	Landmark string `yaml:"landmark"`

	Catalog  Catalog  `yaml:"catalog"`
	Coverage Coverage `yaml:"coverage"`
}

func (d *Download) UnmarshalYAML(node *yaml.Node) error {
	type plain Download
	raw := plain(*d)
	if err := decodeKnown(node, &raw); err != nil {
		return err
	}

	if raw.Catalog.Rows <= 0 {
		return fmt.Errorf("%w: catalog.rows should be positive: %d", ErrInvalidDownload, raw.Catalog.Rows)
	}
	if raw.Catalog.Timeout <= 0 || raw.Coverage.Timeout <= 0 {
		return fmt.Errorf("%w: timeouts should be positive", ErrInvalidDownload)
	}
	if raw.Coverage.Filename == "" || filepath.Base(raw.Coverage.Filename) != raw.Coverage.Filename {
		return fmt.Errorf("%w: coverage.filename should be a plain file name: %q", ErrInvalidDownload, raw.Coverage.Filename)
	}

	*d = Download(raw)
	return nil
}

var unmarshalerType = reflect.TypeOf((*yaml.Unmarshaler)(nil)).Elem()

// decodeKnown decodes node into out, rejecting keys which out does not have.
//
// node.Decode does not inherit KnownFields of the Decoder, so sections decoding themselves
// check keys here. Nested plain structs are checked too.
func decodeKnown(node *yaml.Node, out any) error {
	if err := checkKnown(node, reflect.TypeOf(out).Elem()); err != nil {
		return err
	}
	return node.Decode(out)
}

func checkKnown(node *yaml.Node, typ reflect.Type) error {
	if node.Kind != yaml.MappingNode || typ.Kind() != reflect.Struct {
		return nil
	}

	fields := map[string]reflect.Type{}
	for n := 0; n < typ.NumField(); n++ {
		f := typ.Field(n)
		if !f.IsExported() {
			continue
		}
		key, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if key == "-" {
			continue
		}
		if key == "" {
			key = strings.ToLower(f.Name)
		}
		fields[key] = f.Type
	}

	for n := 0; n+1 < len(node.Content); n += 2 {
		k, v := node.Content[n], node.Content[n+1]
		ft, ok := fields[k.Value]
		if !ok {
			return fmt.Errorf("%w: line %d: %s", ErrUnknownField, k.Line, k.Value)
		}
		if reflect.PointerTo(ft).Implements(unmarshalerType) {
			// it checks itself.
			continue
		}
		if err := checkKnown(v, ft); err != nil {
			return err
		}
	}
	return nil
}

// Default returns configuration used when no configuration file is found.
//
// root is the project root.
func Default(root string) Config {
	return Config{
		Root: root,
		Layout: Layout{
			Raw:       filepath.Join("data", "raw"),
			Processed: filepath.Join("data", "processed"),
			Output:    "terrain-tiles",
		},
		Runtime: Runtime{
			Container: "docker",
			Images: Images{
				GDAL: "osgeo/gdal:latest",
				PDAL: "pdal/pdal:latest",
				CTB:  "tumgis/ctb-quantized-mesh",
			},
		},
		Serve: Serve{
			Port:      8000,
			Root:      ".",
			Extension: ".terrain",
		},
		Download: Download{
			Bounds:   Bounds{West: -123.20, South: 49.65, East: -123.10, North: 49.72},
			Landmark: "Stawamus Chief",
			Catalog: Catalog{
				URL:     "https://catalogue.data.gov.bc.ca/api/3/action/package_search",
				Query:   "lidar dem squamish",
				Rows:    5,
				Timeout: 10 * time.Second,
			},
			Coverage: Coverage{
				URL:        "https://datacube.services.geo.ca/ows/elevation",
				CoverageID: "dtm",
				Filename:   "cdem_squamish.tif",
				Timeout:    60 * time.Second,
			},
		},
	}
}

// Load reads configuration file.
//
// Items absent in the file take default values. Root is the directory of the file.
func Load(file string) (Config, error) {
	abs, err := kpath.Resolve(file)
	if err != nil {
		return Config{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg := Default(filepath.Dir(abs))
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("%s: %w", abs, err)
	}
	return cfg, nil
}

// Find looks up FileName from directory `from` toward the filesystem root and loads it.
//
// When no file is found, it returns Default with `from` as project root.
func Find(from string) (Config, error) {
	abs, err := kpath.Resolve(from)
	if err != nil {
		return Config{}, err
	}
	if found, ok := kpath.SearchUpward(abs, FileName); ok {
		return Load(found)
	}
	return Default(abs), nil
}

// Paths is the layout resolved against the project root.
func (c Config) Paths() (Layout, error) {
	return c.Layout.Resolve(c.Root)
}

// ServeRoot is the absolute directory to be served.
func (c Config) ServeRoot() (string, error) {
	return kpath.ResolveFrom(c.Root, c.Serve.Root)
}
