package main

import (
	"context"
	"os"
	"os/signal"
	"path"

	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	subconvert "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/convert"
	subdownload "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/download"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/logger"
	subprobe "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/probe"
	subserve "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/serve"
	subverify "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/verify"
	subver "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/version"
	"github.com/terrainkit/terrainkit/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	logger := logger.Default(path.Base(os.Args[0]))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	probe := try.To(subprobe.New()).OrFatal(logger)
	download := try.To(subdownload.New()).OrFatal(logger)
	convert := try.To(subconvert.New()).OrFatal(logger)
	verify := try.To(subverify.New()).OrFatal(logger)
	serve := try.To(subserve.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	terrainkit := try.To(
		flarc.NewCommandGroup(
			"Build and serve quantized-mesh terrain tiles from LiDAR and DEM data.",
			common.DefaultCommonFlags(),
			flarc.WithSubcommand("probe", probe),
			flarc.WithSubcommand("download", download),
			flarc.WithSubcommand("convert", convert),
			flarc.WithSubcommand("verify", verify),
			flarc.WithSubcommand("serve", serve),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, terrainkit, flarc.WithHelp(true)))
}
