// Static file server for terrain tiles.
//
// Files under the root are served as they are.
// Responses carry CORS headers, and tiles are declared as gzip-encoded binaries.
package tileserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/terrainkit/terrainkit/pkg/utils/filewatch"
	"github.com/terrainkit/terrainkit/pkg/utils/retry"
	"github.com/terrainkit/terrainkit/pkg/verify"
)

var errStopped = errors.New("server stopped")

type server struct {
	silent         bool
	gracefulPeriod time.Duration
	loglevel       string
	extension      string
	watch          *watch
}

type watch struct {
	dir    string
	logger *log.Logger
}

func defaultServerConfig() server {
	return server{
		gracefulPeriod: 30 * time.Second,
		extension:      DefaultExtension,
	}
}

type Option func(*server) *server

// set graceful period for shutdown.
//
// GracefulPeriod is 30 seconds by deafult.
func WithGracefulPeriod(d time.Duration) Option {
	return func(s *server) *server {
		s.gracefulPeriod = d
		return s
	}
}

// suppress banner and listening port message.
func Silent() Option {
	return func(s *server) *server {
		s.silent = true
		return s
	}
}

// set log level of the server: debug, info, warn, error or off.
func WithLogLevel(level string) Option {
	return func(s *server) *server {
		s.loglevel = level
		return s
	}
}

// set the extension of tile files. ".terrain" by default.
func WithExtension(ext string) Option {
	return func(s *server) *server {
		s.extension = ext
		return s
	}
}

// watch tileset directory dir, and log when its layer.json is rewritten.
func WithTilesetWatch(dir string, logger *log.Logger) Option {
	return func(s *server) *server {
		s.watch = &watch{dir: dir, logger: logger}
		return s
	}
}

type Starter func(*echo.Echo) error

// start server on port number to start server.
func OnPort(p int) Starter {
	return func(e *echo.Echo) error {
		if err := e.Start(fmt.Sprintf(":%d", p)); err != nil {
			return err
		}
		return nil
	}
}

// start server on port number to start server.
//
// listen on localhost only.
func OnLocalPort(p int) Starter {
	return func(e *echo.Echo) error {
		if err := e.Start(fmt.Sprintf("localhost:%d", p)); err != nil {
			return err
		}
		return nil
	}
}

type Server struct {
	Port       int
	ServerStop <-chan error
}

// New builds echo serving files under root.
func New(root string, opts ...Option) *echo.Echo {
	conf := defaultServerConfig()
	for _, opt := range opts {
		conf = *opt(&conf)
	}
	return build(root, conf)
}

func build(root string, conf server) *echo.Echo {
	e := echo.New()
	if conf.silent {
		e.HideBanner = true
		e.HidePort = true
	}
	SetLevel(e, conf.loglevel)

	e.Use(LogHandlerFunc, Headers(conf.extension))

	e.OPTIONS("/*", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.Match(
		[]string{http.MethodGet, http.MethodHead}, "/*",
		func(c echo.Context) error { return echo.ErrNotFound },
		middleware.StaticWithConfig(middleware.StaticConfig{
			Root:   root,
			Browse: true,
		}),
	)
	return e
}

// start server serving files under root.
//
// # Params
//
// - ctx context.Context: context to be used for server.
// To stop the server, cancel this context.
//
// - starter Starter: starter to be used for server.
//
// - root string: directory to be served.
//
// - opts ...Option: options to configure server.
func Start(ctx context.Context, starter Starter, root string, opts ...Option) Server {
	conf := defaultServerConfig()
	for _, opt := range opts {
		conf = *opt(&conf)
	}

	e := build(root, conf)
	closeServer := func() func() {
		o := sync.Once{}
		return func() {
			o.Do(func() {
				if 0 < conf.gracefulPeriod {
					_ctx, _cancel := context.WithTimeout(context.Background(), conf.gracefulPeriod)
					defer _cancel()
					e.Shutdown(_ctx) // try to shutdown gracefully
				}
				e.Close() // close forcefully
			})
		}
	}()
	go func() {
		<-ctx.Done()
		closeServer()
	}()

	if w := conf.watch; w != nil {
		watchTileset(ctx, w)
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- starter(e)
	}()

	var stopped *error
	port, _ := retry.Blocking[int](
		ctx, retry.StaticBackoff(50*time.Millisecond),
		func() (int, error) {
			if addr := e.ListenerAddr(); addr != nil {
				return addr.(*net.TCPAddr).Port, nil
			}
			select {
			case err := <-ch:
				// starter has returned without listening.
				stopped = &err
				return 0, errStopped
			default:
				return 0, retry.ErrRetry
			}
		},
	)

	if stopped != nil {
		stop := make(chan error, 1)
		stop <- *stopped
		close(stop)
		return Server{ServerStop: stop}
	}
	return Server{Port: port, ServerStop: ch}
}

func watchTileset(ctx context.Context, w *watch) {
	changes, err := filewatch.Changes(ctx, w.dir, filewatch.Named(verify.LayerDescriptor))
	if err != nil {
		w.logger.Printf("tileset is not watched: %s", err)
		return
	}
	go func() {
		for c := range changes {
			w.logger.Printf("tileset is updated (%s %s). clients should reload.", c.Op, c.Path)
		}
	}()
}
