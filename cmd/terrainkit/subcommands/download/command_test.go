package download_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/common"
	download_cmd "github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/download"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/internal/commandline"
	"github.com/terrainkit/terrainkit/cmd/terrainkit/subcommands/logger"
	"github.com/terrainkit/terrainkit/pkg/configs"
	"github.com/terrainkit/terrainkit/pkg/download"
)

func TestDownloadCommand(t *testing.T) {
	type When struct {
		cdem    bool
		status  int
		body    string
		offline bool
	}
	type Then struct {
		contains []string
		written  bool
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if when.cdem {
					w.Header().Set("Content-Type", "image/tiff")
				}
				w.WriteHeader(when.status)
				io.WriteString(w, when.body)
			}))
			url := svr.URL
			if when.offline {
				svr.Close()
			} else {
				defer svr.Close()
			}

			root := t.TempDir()
			conf := configs.Default(root)
			conf.Download.Catalog.URL = url
			conf.Download.Coverage.URL = url

			stdout := new(strings.Builder)
			testee := download_cmd.Task(download.WithProgressOutput(io.Discard))
			err := testee(
				context.Background(), logger.Null(),
				common.Env{Config: conf},
				commandline.MockCommandline[download_cmd.Flag]{
					Fullname_: "terrainkit download",
					Stdout_:   stdout,
					Stderr_:   io.Discard,
					Flags_:    download_cmd.Flag{CDEM: when.cdem},
				},
				[]any{},
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for _, want := range then.contains {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("%q is not in:\n%s", want, stdout.String())
				}
			}

			raw := filepath.Join(root, "data", "raw")
			if _, err := os.Stat(raw); err != nil {
				t.Errorf("raw directory should be created: %v", err)
			}
			_, err = os.Stat(filepath.Join(raw, conf.Download.Coverage.Filename))
			if written := err == nil; written != then.written {
				t.Errorf("written: (actual, expected) = (%v, %v)", written, then.written)
			}
		}
	}

	t.Run("when catalogue has datasets, it lists them and shows instructions", theory(
		When{
			status: http.StatusOK,
			body:   `{"success": true, "result": {"results": [{"id": "x1", "title": "Squamish LiDAR"}]}}`,
		},
		Then{contains: []string{"Squamish LiDAR (id: x1)", "RECOMMENDED: Manual Download from LidarBC", "Then run: terrainkit convert pointcloud"}},
	))
	t.Run("when catalogue fails, it still shows instructions", theory(
		When{status: http.StatusInternalServerError},
		Then{contains: []string{"Could not search the data catalogue.", "RECOMMENDED: Manual Download from LidarBC"}},
	))
	t.Run("when catalogue is unreachable, it still shows instructions", theory(
		When{offline: true},
		Then{contains: []string{"Could not search the data catalogue.", "RECOMMENDED: Manual Download from LidarBC"}},
	))
	t.Run("when --cdem succeeds, it writes the coverage in raw dir", theory(
		When{cdem: true, status: http.StatusOK, body: "II*\x00"},
		Then{contains: []string{"Downloaded: ", "Then run: terrainkit convert raster"}, written: true},
	))
	t.Run("when --cdem fails, it falls back to instructions", theory(
		When{cdem: true, status: http.StatusBadRequest, body: "bad request"},
		Then{contains: []string{"Could not download the elevation model.", "RECOMMENDED: Manual Download from LidarBC"}},
	))
}
