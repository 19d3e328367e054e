package convert_test

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	kerr "github.com/terrainkit/terrainkit/cmd/terrainkit/errors"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	convert_cmd "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/convert"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/internal/commandline"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/logger"
	"github.com/terrainkit/terrainkit/internal/testutils/runner"
	"github.com/terrainkit/terrainkit/pkg/configs"
	xe "github.com/terrainkit/terrainkit/pkg/errors"
	"github.com/terrainkit/terrainkit/pkg/probe"
	"github.com/terrainkit/terrainkit/pkg/subprocess"
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

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{}, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConvertCommand(t *testing.T) {
	type When struct {
		kind     probe.Kind
		found    []string
		rawFiles []string
		input    string
		dryRun   bool
		respond  func(subprocess.Invocation) subprocess.Result
	}
	type Then struct {
		err      error
		hint     string
		programs []string
		contains []string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			root := t.TempDir()
			conf := configs.Default(root)
			for _, f := range when.rawFiles {
				touch(t, filepath.Join(root, "data", "raw", f))
			}

			scripted := &runner.Scripted{Respond: when.respond}
			testee := convert_cmd.Task(
				when.kind,
				convert_cmd.WithLookPath(lookPath(when.found...)),
				convert_cmd.WithRunner(func(io.Writer) subprocess.Runner { return scripted }),
			)

			args := map[string][]string{}
			if when.input != "" {
				args[convert_cmd.ARG_INPUT] = []string{when.input}
			}
			stdout := new(strings.Builder)
			err := testee(
				context.Background(), logger.Null(),
				common.Env{Config: conf},
				commandline.MockCommandline[convert_cmd.Flag]{
					Fullname_: "terrainkit convert " + string(when.kind),
					Stdout_:   stdout,
					Stderr_:   io.Discard,
					Flags_:    convert_cmd.Flag{DryRun: when.dryRun},
					Args_:     args,
				},
				[]any{},
			)

			if !errors.Is(err, then.err) {
				t.Errorf("err: (actual, expected) = (%v, %v)", err, then.err)
			}
			if then.hint != "" {
				var cerr kerr.CUIError
				if !errors.As(err, &cerr) {
					t.Fatalf("error is not for operator: %v", err)
				}
				if !strings.Contains(cerr.Hint(), then.hint) {
					t.Errorf("hint %q does not contain %q", cerr.Hint(), then.hint)
				}
			}

			got := scripted.Programs()
			if then.programs == nil {
				then.programs = []string{}
			}
			if strings.Join(got, ",") != strings.Join(then.programs, ",") {
				t.Errorf("programs: (actual, expected) = (%v, %v)", got, then.programs)
			}
			for _, want := range then.contains {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("%q is not in:\n%s", want, stdout.String())
				}
			}
		}
	}

	t.Run("when no tools are found, it fails with missing dependency before any work", theory(
		When{kind: probe.PointCloud, found: []string{"gdalwarp", "ctb-tile"}, rawFiles: []string{"a.laz"}},
		Then{err: xe.ErrMissingDependency, hint: "terrainkit probe"},
	))
	t.Run("when no input is found, it fails with missing input", theory(
		When{kind: probe.Raster, found: []string{"docker"}},
		Then{err: xe.ErrMissingInput, hint: filepath.Join("data", "raw")},
	))
	t.Run("when a tool fails, it reports subprocess failure", theory(
		When{
			kind: probe.Raster, found: []string{"gdalwarp", "ctb-tile"}, rawFiles: []string{"dem.tif"},
			respond: func(inv subprocess.Invocation) subprocess.Result {
				if inv.Program == "gdalwarp" {
					return runner.Failed("ERROR 4: dem.tif: No such file or directory")
				}
				return subprocess.Result{}
			},
		},
		Then{
			err: xe.ErrSubprocess, hint: "--dry-run",
			programs: []string{"gdalwarp"},
			contains: []string{"[FAILED] REPROJECTED", "No such file or directory", "reached: RASTER_PRODUCED"},
		},
	))
	t.Run("when dry-run, it prints commands without running tools", theory(
		When{kind: probe.Raster, found: []string{"docker"}, rawFiles: []string{"a.tif", "b.tif"}, dryRun: true},
		Then{
			contains: []string{
				"docker run --rm",
				"gdal_merge.py",
				"gdalwarp",
				"ctb-tile",
				"reached: LAYER_METADATA_WRITTEN",
			},
		},
	))
	t.Run("when explicit input does not exist, it fails with missing input", theory(
		When{
			kind: probe.PointCloud, found: []string{"docker"}, rawFiles: []string{"a.laz"},
			input: "given.laz", dryRun: true,
		},
		Then{
			err: xe.ErrMissingInput,
		},
	))
}
