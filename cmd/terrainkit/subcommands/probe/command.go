package probe

import (
	"context"
	"fmt"
	"log"

	kerr "github.com/terrainkit/terrainkit/cmd/terrainkit/errors"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	xe "github.com/terrainkit/terrainkit/pkg/errors"
	"github.com/terrainkit/terrainkit/pkg/probe"
	"github.com/youta-t/flarc"
)

type Option struct {
	lookPath probe.LookPath
}

func WithLookPath(l probe.LookPath) func(*Option) *Option {
	return func(o *Option) *Option {
		o.lookPath = l
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Show which external tools are available.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task(option.lookPath)),
		flarc.WithDescription(`
Show which external tools are available, and how each kind of input would be converted.

The container runtime (configured as runtime.container) is preferred.
Without it, PDAL, GDAL and ctb-tile installed locally are used.

It exits with non-zero status when no kind of input can be converted.

Example
-------

	{{ .Command }}
`),
	)
}

func Task(lookPath probe.LookPath) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		env common.Env,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		opts := []probe.Option{}
		if lookPath != nil {
			opts = append(opts, probe.WithLookPath(lookPath))
		}
		caps := probe.Probe(env.Config.Runtime.Container, opts...)

		out := cl.Stdout()
		fmt.Fprint(out, caps.String())
		fmt.Fprintln(out)
		for _, kind := range []probe.Kind{probe.Raster, probe.PointCloud} {
			if s, err := caps.Strategy(kind); err != nil {
				fmt.Fprintf(out, "%-12s unavailable\n", kind)
			} else {
				fmt.Fprintf(out, "%-12s %s\n", kind, s)
			}
		}

		if !caps.Usable() {
			situation := kerr.Situation{
				RawDir: env.Config.Layout.Raw, Runtime: env.Config.Runtime.Container,
			}
			if layout, err := env.Config.Paths(); err == nil {
				situation.RawDir = layout.Raw
			}
			return kerr.Explain(
				fmt.Errorf(
					"%w: neither %s nor local tools are found",
					xe.ErrMissingDependency, env.Config.Runtime.Container,
				),
				situation,
			)
		}
		return nil
	}
}
