package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	"github.com/terrainkit/terrainkit/pkg/tileserver"
	kpath "github.com/terrainkit/terrainkit/pkg/utils/path"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Port  int    `flag:"port" alias:"p" metavar:"PORT" help:"port number to listen. Default: serve.port in terrainkit.yaml (8000)"`
	Root  string `flag:"root" metavar:"DIR" help:"directory to be served. Default: serve.root in terrainkit.yaml (project root)"`
	Watch bool   `flag:"watch" help:"log when layer.json in the tile output directory is rewritten"`
}

type Option struct {
	starter func(port int) tileserver.Starter
	server  []tileserver.Option
}

func WithStarter(s func(port int) tileserver.Starter) func(*Option) *Option {
	return func(o *Option) *Option {
		o.starter = s
		return o
	}
}

func WithServerOptions(opts ...tileserver.Option) func(*Option) *Option {
	return func(o *Option) *Option {
		o.server = append(o.server, opts...)
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	return flarc.NewCommand(
		"Serve terrain tiles over HTTP.",
		Flag{},
		flarc.Args{},
		common.NewTask(Task(options...)),
		flarc.WithDescription(`
Serve files under the root directory over HTTP, for web terrain clients.

Every response allows cross-origin access.
Tiles (*.terrain) are served with "Content-Encoding: gzip", as ctb-tile writes them compressed.

Stop it with Ctrl+C.

Example
-------

	{{ .Command }}

	{{ .Command }} --port 8080 --root ./terrain-tiles --watch
`),
	)
}

func Task(options ...func(*Option) *Option) common.Task[Flag] {
	option := &Option{starter: tileserver.OnPort}
	for _, o := range options {
		option = o(option)
	}

	return func(
		ctx context.Context,
		logger *log.Logger,
		env common.Env,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		conf := env.Config
		flags := cl.Flags()

		port := conf.Serve.Port
		if flags.Port != 0 {
			port = flags.Port
		}
		if port < 0 || 65535 < port {
			return fmt.Errorf("%w: --port should be in 0-65535: %d", flarc.ErrUsage, port)
		}

		root, err := conf.ServeRoot()
		if flags.Root != "" {
			root, err = kpath.Resolve(flags.Root)
		}
		if err != nil {
			return err
		}
		if s, err := os.Stat(root); err != nil {
			return fmt.Errorf(`given root "%s" is something wrong: %w`, root, err)
		} else if !s.IsDir() {
			return fmt.Errorf(`%w: given root "%s" is not directory`, flarc.ErrUsage, root)
		}

		sopts := []tileserver.Option{
			tileserver.WithLogLevel(env.Flags.LogLevel),
			tileserver.WithExtension(conf.Serve.Extension),
		}
		if flags.Watch {
			layout, err := conf.Paths()
			if err != nil {
				return err
			}
			sopts = append(sopts, tileserver.WithTilesetWatch(layout.Output, logger))
		}
		sopts = append(sopts, option.server...)

		svr := tileserver.Start(ctx, option.starter(port), root, sopts...)
		select {
		case err := <-svr.ServerStop:
			// stopped without being asked.
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stops by error: %w", err)
			}
			return nil
		default:
		}

		fmt.Fprintf(cl.Stdout(), "Serving %s at http://localhost:%d/\n", root, svr.Port)
		fmt.Fprintf(cl.Stdout(), "Press Ctrl+C to stop.\n")

		select {
		case <-ctx.Done():
			logger.Println("server stops by interrupt signal")
			if err := <-svr.ServerStop; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stops by error: %w", err)
			}
		case err := <-svr.ServerStop:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stops by error: %w", err)
			}
			logger.Println("server stops...")
		}
		return nil
	}
}
