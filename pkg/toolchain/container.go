package toolchain

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/terrainkit/terrainkit/pkg/configs"
	"github.com/terrainkit/terrainkit/pkg/probe"
	"github.com/terrainkit/terrainkit/pkg/subprocess"
)

// mount points in containers.
const (
	OutputMount = "/data/output"
	InputMount  = "/data/input"
)

// Container launches each tool in a one-shot container.
//
// Host directories touched by a tool are bind-mounted, and paths in arguments are rewritten into the mount points.
// The directory of output is mounted at OutputMount, and other directories at InputMount (then InputMount2, ...).
type Container struct {
	runtime string
	images  configs.Images
}

var _ Toolchain = Container{}

func NewContainer(runtime string, images configs.Images) Container {
	return Container{runtime: runtime, images: images}
}

func (Container) Strategy() probe.Strategy {
	return probe.Container
}

func (c Container) Merge(inputs []string, out string) subprocess.Invocation {
	m := newMounts()
	o := m.file(out, true)
	ins := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ins = append(ins, m.file(in, false))
	}
	return c.wrap(c.images.GDAL, m, GDALMerge, mergeArgs(ins, o))
}

func (c Container) Warp(in string, out string) subprocess.Invocation {
	m := newMounts()
	o := m.file(out, true)
	i := m.file(in, false)
	return c.wrap(c.images.GDAL, m, GDALWarp, warpArgs(i, o))
}

func (c Container) PointCloudPipeline(pipelineFile string, in string, out string) (subprocess.Invocation, Pipeline) {
	m := newMounts()
	o := m.file(out, true)
	p := m.file(pipelineFile, false)
	i := m.file(in, false)
	return c.wrap(c.images.PDAL, m, PDAL, pipelineArgs(p, i, o)), NewPipeline(i, o)
}

func (c Container) PointCloudTranslate(in string, out string) subprocess.Invocation {
	m := newMounts()
	o := m.file(out, true)
	i := m.file(in, false)
	return c.wrap(c.images.PDAL, m, PDAL, translateArgs(i, o))
}

func (c Container) PointCloudInfo(in string) subprocess.Invocation {
	m := newMounts()
	i := m.file(in, false)
	return c.wrap(c.images.PDAL, m, PDAL, infoArgs(i))
}

func (c Container) Tile(in string, outdir string) subprocess.Invocation {
	m := newMounts()
	o := m.dir(outdir, true)
	i := m.file(in, false)
	return c.wrap(c.images.CTB, m, CTBTile, tileArgs(i, o))
}

func (c Container) LayerMetadata(in string, outdir string) subprocess.Invocation {
	m := newMounts()
	o := m.dir(outdir, true)
	i := m.file(in, false)
	return c.wrap(c.images.CTB, m, CTBTile, layerArgs(i, o))
}

func (c Container) wrap(image string, m *mounts, tool string, args []string) subprocess.Invocation {
	a := []string{"run", "--rm"}
	for _, b := range m.binds {
		a = append(a, "-v", b.host+":"+b.container)
	}
	a = append(a, image, tool)
	a = append(a, args...)
	return subprocess.Invocation{Program: c.runtime, Args: a}
}

type bind struct {
	host      string
	container string
}

type mounts struct {
	binds  []bind
	inputs int
}

func newMounts() *mounts {
	return &mounts{}
}

// dir mounts host directory and returns its path in container.
//
// A directory mounted already is reused.
func (m *mounts) dir(host string, output bool) string {
	host = filepath.Clean(host)
	for _, b := range m.binds {
		if b.host == host {
			return b.container
		}
	}

	var cpath string
	if output {
		cpath = OutputMount
	} else {
		m.inputs += 1
		cpath = InputMount
		if 1 < m.inputs {
			cpath = fmt.Sprintf("%s%d", InputMount, m.inputs)
		}
	}
	m.binds = append(m.binds, bind{host: host, container: cpath})
	return cpath
}

// file mounts the directory of host file and returns the file path in container.
func (m *mounts) file(host string, output bool) string {
	return path.Join(m.dir(filepath.Dir(host), output), filepath.Base(host))
}
