package probe_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	kerr "github.com/terrainkit/terrainkit/cmd/terrainkit/errors"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/internal/commandline"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/logger"
	probe_cmd "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/probe"
	"github.com/terrainkit/terrainkit/pkg/configs"
	xe "github.com/terrainkit/terrainkit/pkg/errors"
)

func lookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestProbeCommand(t *testing.T) {
	type When struct {
		found []string
	}
	type Then struct {
		err      error
		hint     []string
		contains []string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			testee := probe_cmd.Task(lookPath(when.found...))

			cl, stdout := commandline.Capture("terrainkit probe", struct{}{}, nil)
			err := testee(
				context.Background(), logger.Null(),
				common.Env{Config: configs.Default(t.TempDir())},
				cl, []any{},
			)

			if !errors.Is(err, then.err) {
				t.Errorf("err: (actual, expected) = (%v, %v)", err, then.err)
			}
			if 0 < len(then.hint) {
				var cerr kerr.CUIError
				if !errors.As(err, &cerr) {
					t.Fatalf("error has no hint: %v", err)
				}
				for _, want := range then.hint {
					if !strings.Contains(cerr.Hint(), want) {
						t.Errorf("%q is not in hint:\n%s", want, cerr.Hint())
					}
				}
			}
			for _, want := range then.contains {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("%q is not in:\n%s", want, stdout.String())
				}
			}
		}
	}

	t.Run("when docker is found, both kinds use container", theory(
		When{found: []string{"docker"}},
		Then{contains: []string{"found (/usr/bin/docker)", "raster       container", "pointcloud   container"}},
	))
	t.Run("when only GDAL and ctb-tile are found, raster is local and point cloud is unavailable", theory(
		When{found: []string{"gdalwarp", "ctb-tile"}},
		Then{contains: []string{"raster       local", "pointcloud   unavailable"}},
	))
	t.Run("when nothing is found, it fails with missing dependency", theory(
		When{},
		Then{
			err:      xe.ErrMissingDependency,
			hint:     []string{"Install docker", "PDAL, GDAL and ctb-tile"},
			contains: []string{"raster       unavailable", "pointcloud   unavailable"},
		},
	))
}
