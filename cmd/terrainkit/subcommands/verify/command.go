package verify

import (
	"context"
	"fmt"
	"log"

	kerr "github.com/terrainkit/terrainkit/cmd/terrainkit/errors"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	xe "github.com/terrainkit/terrainkit/pkg/errors"
	"github.com/terrainkit/terrainkit/pkg/verify"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Inspect the tile output directory.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task),
		flarc.WithDescription(`
Inspect the tile output directory, and report zoom levels, tile count and total size.

It exits with non-zero status when layer.json is missing.

Example
-------

	{{ .Command }}
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	env common.Env,
	cl flarc.Commandline[struct{}],
	params []any,
) error {
	layout, err := env.Config.Paths()
	if err != nil {
		return err
	}

	report, err := verify.Verify(layout.Output, verify.WithExtension(env.Config.Serve.Extension))
	if err != nil {
		return err
	}
	report.Print(cl.Stdout())

	if !report.Success() {
		return kerr.Explain(
			fmt.Errorf("%w: %s is not found in %s", xe.ErrVerification, verify.LayerDescriptor, layout.Output),
			kerr.Situation{RawDir: layout.Raw, Runtime: env.Config.Runtime.Container},
		)
	}
	return nil
}
