package download

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	"github.com/terrainkit/terrainkit/pkg/download"
	"github.com/youta-t/flarc"
)

type Flag struct {
	CDEM bool `flag:"cdem" help:"download the Canadian Digital Elevation Model (about 20m) of the target area, instead of showing instructions only"`
}

type Option struct {
	download []download.Option
}

// WithDownloadOptions passes options to catalogue and coverage clients.
func WithDownloadOptions(opts ...download.Option) func(*Option) *Option {
	return func(o *Option) *Option {
		o.download = append(o.download, opts...)
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{}
	for _, o := range options {
		option = o(option)
	}

	return flarc.NewCommand(
		"Obtain elevation data of the target area, or show how to.",
		Flag{},
		flarc.Args{},
		common.NewTask(Task(option.download...)),
		flarc.WithDescription(`
Obtain elevation data of the target area (download.bounds in terrainkit.yaml), or show how to.

High resolution LiDAR data has no bulk download API. By default, this command searches
the data catalogue and prints instructions for manual download.

With --cdem, the coverage service is asked for the lower resolution elevation model,
and the result is written in the raw data directory.

Network failures are reported and do not make this command fail.

Example
-------

Show instructions:

	{{ .Command }}

Download the elevation model:

	{{ .Command }} --cdem
`),
	)
}

func Task(opts ...download.Option) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		env common.Env,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		layout, err := env.Config.Paths()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(layout.Raw, os.FileMode(0755)); err != nil {
			return err
		}

		conf := env.Config.Download
		out := cl.Stdout()
		guide := download.Guide{
			Bounds:   conf.Bounds,
			Landmark: conf.Landmark,
			RawDir:   layout.Raw,
			Next:     "terrainkit convert pointcloud (or: terrainkit convert raster, for GeoTIFF DEMs)",
		}

		if cl.Flags().CDEM {
			opts := append([]download.Option{download.WithProgressOutput(cl.Stderr())}, opts...)
			fetched := download.NewCoverage(conf.Coverage, opts...).Fetch(ctx, conf.Bounds, layout.Raw)
			if fetched.Ok() {
				fmt.Fprintf(out, "Downloaded: %s\n\nThen run: terrainkit convert raster\n", fetched.Value)
				return nil
			}
			logger.Printf("coverage download failed: %s", fetched.Reason)
			fmt.Fprintf(out, "Could not download the elevation model. Obtain data manually.\n\n")
			return download.Instructions(out, guide)
		}

		found := download.NewCatalog(conf.Catalog, opts...).Search(ctx)
		switch {
		case !found.Ok():
			logger.Printf("catalogue search failed: %s", found.Reason)
			fmt.Fprintf(out, "Could not search the data catalogue.\n\n")
		case len(found.Value) == 0:
			fmt.Fprintf(out, "No dataset is found in the data catalogue for %q.\n\n", conf.Catalog.Query)
		default:
			fmt.Fprintf(out, "Datasets found in the data catalogue:\n")
			for _, d := range found.Value {
				fmt.Fprintf(out, "  - %s (id: %s)\n", d.Title, d.ID)
			}
			fmt.Fprintln(out)
		}

		return download.Instructions(out, guide)
	}
}
