package probe

import (
	"fmt"
	"os/exec"
	"strings"

	xe "github.com/terrainkit/terrainkit/pkg/errors"
)

// executable names of local tools.
const (
	PDAL    = "pdal"
	GDAL    = "gdalwarp"
	CTBTile = "ctb-tile"
)

// LookPath finds an executable on the search path, like exec.LookPath.
type LookPath func(file string) (string, error)

// Kind is the kind of input a conversion starts from.
type Kind string

const (
	Raster     Kind = "raster"
	PointCloud Kind = "pointcloud"
)

// Strategy is how external tools are invoked.
type Strategy string

const (
	// Container runs each tool in a one-shot container via container runtime.
	Container Strategy = "container"

	// Local runs locally installed tools.
	Local Strategy = "local"
)

// Capabilities is availability of external tools on this host.
type Capabilities struct {
	// Runtime is the name of container runtime probed.
	Runtime string

	Container  bool
	PointCloud bool
	Raster     bool
	Tiler      bool

	// Found maps executable names to resolved paths of those available.
	Found map[string]string
}

type option struct {
	lookPath LookPath
}

type Option func(*option) *option

// WithLookPath replaces the executable lookup. exec.LookPath by default.
func WithLookPath(l LookPath) Option {
	return func(o *option) *option {
		o.lookPath = l
		return o
	}
}

// Probe checks availability of container runtime and each local tool.
//
// It never fails: a tool which can not be found is reported as unavailable.
func Probe(runtime string, opts ...Option) Capabilities {
	o := &option{lookPath: exec.LookPath}
	for _, opt := range opts {
		o = opt(o)
	}

	caps := Capabilities{Runtime: runtime, Found: map[string]string{}}
	has := func(name string) bool {
		if name == "" {
			return false
		}
		p, err := o.lookPath(name)
		if err != nil {
			return false
		}
		caps.Found[name] = p
		return true
	}

	caps.Container = has(runtime)
	caps.PointCloud = has(PDAL)
	caps.Raster = has(GDAL)
	caps.Tiler = has(CTBTile)
	return caps
}

// LocalSufficient tells whether local tools are enough for kind.
func (c Capabilities) LocalSufficient(kind Kind) bool {
	switch kind {
	case PointCloud:
		return c.PointCloud && c.Raster && c.Tiler
	case Raster:
		return c.Raster && c.Tiler
	default:
		return false
	}
}

// Strategy selects how to run tools for kind.
//
// Container runtime is preferred. When it is unavailable and local tools are sufficient, Local is chosen.
// Otherwise, it returns an error wrapping errors.ErrMissingDependency.
func (c Capabilities) Strategy(kind Kind) (Strategy, error) {
	if c.Container {
		return Container, nil
	}
	if c.LocalSufficient(kind) {
		return Local, nil
	}

	missing := []string{}
	if c.Runtime != "" {
		missing = append(missing, c.Runtime)
	}
	if kind == PointCloud && !c.PointCloud {
		missing = append(missing, PDAL)
	}
	if !c.Raster {
		missing = append(missing, GDAL)
	}
	if !c.Tiler {
		missing = append(missing, CTBTile)
	}
	return "", fmt.Errorf(
		"%w: %s conversion needs %s, or all of local tools. not found: %s",
		xe.ErrMissingDependency, kind, c.Runtime, strings.Join(missing, ", "),
	)
}

// Usable tells whether any of kinds can be converted on this host.
func (c Capabilities) Usable() bool {
	return c.Container || c.LocalSufficient(Raster) || c.LocalSufficient(PointCloud)
}

func (c Capabilities) String() string {
	sb := new(strings.Builder)
	line := func(label string, name string, ok bool) {
		state := "not found"
		if ok {
			state = "found"
			if p := c.Found[name]; p != "" {
				state = fmt.Sprintf("found (%s)", p)
			}
		}
		fmt.Fprintf(sb, "%-22s %-10s %s\n", label, name, state)
	}
	line("container runtime", c.Runtime, c.Container)
	line("point cloud (PDAL)", PDAL, c.PointCloud)
	line("raster (GDAL)", GDAL, c.Raster)
	line("tiler (ctb-tile)", CTBTile, c.Tiler)
	return sb.String()
}
