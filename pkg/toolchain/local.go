package toolchain

import (
	"github.com/terrainkit/terrainkit/pkg/probe"
	"github.com/terrainkit/terrainkit/pkg/subprocess"
)

// Local launches tools installed on the host.
type Local struct{}

var _ Toolchain = Local{}

func NewLocal() Local {
	return Local{}
}

func (Local) Strategy() probe.Strategy {
	return probe.Local
}

func (Local) Merge(inputs []string, out string) subprocess.Invocation {
	return subprocess.Invocation{Program: GDALMerge, Args: mergeArgs(inputs, out)}
}

func (Local) Warp(in string, out string) subprocess.Invocation {
	return subprocess.Invocation{Program: GDALWarp, Args: warpArgs(in, out)}
}

func (Local) PointCloudPipeline(pipelineFile string, in string, out string) (subprocess.Invocation, Pipeline) {
	return subprocess.Invocation{Program: PDAL, Args: pipelineArgs(pipelineFile, in, out)},
		NewPipeline(in, out)
}

func (Local) PointCloudTranslate(in string, out string) subprocess.Invocation {
	return subprocess.Invocation{Program: PDAL, Args: translateArgs(in, out)}
}

func (Local) PointCloudInfo(in string) subprocess.Invocation {
	return subprocess.Invocation{Program: PDAL, Args: infoArgs(in)}
}

func (Local) Tile(in string, outdir string) subprocess.Invocation {
	return subprocess.Invocation{Program: CTBTile, Args: tileArgs(in, outdir)}
}

func (Local) LayerMetadata(in string, outdir string) subprocess.Invocation {
	return subprocess.Invocation{Program: CTBTile, Args: layerArgs(in, outdir)}
}
