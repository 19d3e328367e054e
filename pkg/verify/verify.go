package verify

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// LayerDescriptor is the name of metadata descriptor of a tileset.
const LayerDescriptor = "layer.json"

// Report is what Verify finds in a tile output directory.
type Report struct {
	Root string

	// LayerJSON is true when metadata descriptor exists.
	LayerJSON bool

	// ZoomLevels is the number of directories directly under Root.
	ZoomLevels int

	// Tiles is the number of files with tile extension, recursively.
	Tiles int

	// TotalBytes is the sum of size of all files under Root.
	TotalBytes int64

	// Layer is the content of metadata descriptor. nil when it is absent or unreadable.
	Layer *LayerInfo
}

// Success is true if and only if the metadata descriptor exists.
//
// Tile count and size never affect it.
func (r Report) Success() bool {
	return r.LayerJSON
}

// LayerInfo is a part of layer.json, for display.
type LayerInfo struct {
	Name       string
	Format     string
	Scheme     string
	Projection string
	Bounds     []float64
	Extensions []string

	// MinZoom and MaxZoom are derived from "available". -1 when unknown.
	MinZoom int
	MaxZoom int
}

type option struct {
	extension string
}

type Option func(*option) *option

// WithExtension sets the tile extension. ".terrain" by default.
func WithExtension(ext string) Option {
	return func(o *option) *option {
		o.extension = ext
		return o
	}
}

// Verify inspects tile output directory root.
//
// It returns error only when root can not be walked. A missing root is reported as a failed Report.
func Verify(root string, opts ...Option) (Report, error) {
	o := &option{extension: ".terrain"}
	for _, opt := range opts {
		o = opt(o)
	}

	report := Report{Root: root}

	descriptor := filepath.Join(root, LayerDescriptor)
	if s, err := os.Stat(descriptor); err == nil && s.Mode().IsRegular() {
		report.LayerJSON = true
		if b, err := os.ReadFile(descriptor); err == nil {
			report.Layer = parseLayer(b)
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return report, err
	}

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return report, nil
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && filepath.Dir(p) == root {
				report.ZoomLevels += 1
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasSuffix(d.Name(), o.extension) {
			report.Tiles += 1
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		report.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

func parseLayer(b []byte) *LayerInfo {
	if !gjson.ValidBytes(b) {
		return nil
	}
	doc := gjson.ParseBytes(b)

	info := &LayerInfo{
		Name:       doc.Get("name").String(),
		Format:     doc.Get("format").String(),
		Scheme:     doc.Get("scheme").String(),
		Projection: doc.Get("projection").String(),
		MinZoom:    -1,
		MaxZoom:    -1,
	}
	for _, v := range doc.Get("bounds").Array() {
		info.Bounds = append(info.Bounds, v.Float())
	}
	for _, v := range doc.Get("extensions").Array() {
		info.Extensions = append(info.Extensions, v.String())
	}

	// "available" is a list per zoom level, starting from zoom 0.
	for z, level := range doc.Get("available").Array() {
		if len(level.Array()) == 0 {
			continue
		}
		if info.MinZoom < 0 {
			info.MinZoom = z
		}
		info.MaxZoom = z
	}
	return info
}

// Print writes the report in human readable form.
func (r Report) Print(w io.Writer) {
	if !r.LayerJSON {
		fmt.Fprintf(w, "layer.json not found at %s\n", filepath.Join(r.Root, LayerDescriptor))
		return
	}
	fmt.Fprintln(w, "layer.json exists")
	if l := r.Layer; l != nil {
		fmt.Fprintf(w, "  format: %s, scheme: %s, projection: %s\n", l.Format, l.Scheme, l.Projection)
		if 0 <= l.MinZoom {
			fmt.Fprintf(w, "  zoom: %d - %d\n", l.MinZoom, l.MaxZoom)
		}
		if 0 < len(l.Extensions) {
			fmt.Fprintf(w, "  extensions: %s\n", strings.Join(l.Extensions, ", "))
		}
	}
	fmt.Fprintf(w, "found %d zoom level directories\n", r.ZoomLevels)
	fmt.Fprintf(w, "found %d terrain tiles\n", r.Tiles)
	fmt.Fprintf(w, "total size: %s\n", HumanBytes(r.TotalBytes))
}

// HumanBytes formats n bytes in MB with one decimal.
func HumanBytes(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}
