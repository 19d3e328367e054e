package download_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	ctxutil "github.com/terrainkit/terrainkit/internal/testutils/context"
	"github.com/terrainkit/terrainkit/pkg/configs"
	"github.com/terrainkit/terrainkit/pkg/download"
)

func TestCatalog_Search(t *testing.T) {
	type When struct {
		status int
		body   string
	}
	type Then struct {
		ok       bool
		datasets []download.Dataset
		reason   error
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			var gotQuery map[string][]string
			svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query()
				w.WriteHeader(when.status)
				io.WriteString(w, when.body)
			}))
			defer svr.Close()

			ctx, cancel := ctxutil.WithTest(context.Background(), t)
			defer cancel()

			testee := download.NewCatalog(configs.Catalog{
				URL: svr.URL + "/api/3/action/package_search", Query: "lidar dem squamish", Rows: 5, Timeout: time.Second,
			})
			got := testee.Search(ctx)

			if got.Ok() != then.ok {
				t.Fatalf("ok: (actual, expected) = (%v, %v): reason = %v", got.Ok(), then.ok, got.Reason)
			}
			if then.reason != nil && !errors.Is(got.Reason, then.reason) {
				t.Errorf("reason: (actual, expected) = (%v, %v)", got.Reason, then.reason)
			}
			if diff := cmp.Diff(then.datasets, got.Value); diff != "" {
				t.Errorf("datasets (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(
				map[string][]string{"q": {"lidar dem squamish"}, "rows": {"5"}}, gotQuery,
			); diff != "" {
				t.Errorf("query (-want +got):\n%s", diff)
			}
		}
	}

	t.Run("when the catalogue returns results, it should list titles and ids", theory(
		When{
			status: http.StatusOK,
			body: `{"success": true, "result": {"count": 2, "results": [
				{"id": "abc-1", "title": "LidarBC Squamish 2019"},
				{"id": "abc-2"}
			]}}`,
		},
		Then{
			ok: true,
			datasets: []download.Dataset{
				{ID: "abc-1", Title: "LidarBC Squamish 2019"},
				{ID: "abc-2", Title: "Unknown"},
			},
		},
	))
	t.Run("when the catalogue finds nothing, it should succeed with empty list", theory(
		When{status: http.StatusOK, body: `{"success": true, "result": {"count": 0, "results": []}}`},
		Then{ok: true, datasets: []download.Dataset{}},
	))
	t.Run("when the catalogue responds non-2xx, it should fail with status", theory(
		When{status: http.StatusServiceUnavailable, body: "maintenance"},
		Then{reason: download.ErrUnexpectedStatus},
	))
	t.Run("when the catalogue responds not a json, it should fail", theory(
		When{status: http.StatusOK, body: "<html></html>"},
		Then{reason: download.ErrUnexpectedResponse},
	))
	t.Run("when the catalogue reports unsuccess, it should fail", theory(
		When{status: http.StatusOK, body: `{"success": false, "error": {"message": "bad query"}}`},
		Then{reason: download.ErrUnexpectedResponse},
	))
}

func TestCatalog_Search_Unreachable(t *testing.T) {
	svr := httptest.NewServer(http.NotFoundHandler())
	url := svr.URL
	svr.Close()

	testee := download.NewCatalog(configs.Catalog{URL: url, Query: "q", Rows: 1, Timeout: time.Second})
	got := testee.Search(context.Background())
	if got.Ok() {
		t.Fatalf("unexpected success: %+v", got.Value)
	}
}

func TestCatalog_Search_Timeout(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		io.WriteString(w, `{"success": true, "result": {"results": []}}`)
	}))
	defer svr.Close()

	testee := download.NewCatalog(configs.Catalog{
		URL: svr.URL, Query: "q", Rows: 1, Timeout: 100 * time.Millisecond,
	})

	began := time.Now()
	got := testee.Search(context.Background())
	if got.Ok() {
		t.Fatalf("unexpected success: %+v", got.Value)
	}
	if !errors.Is(got.Reason, context.DeadlineExceeded) {
		t.Errorf("reason: (actual, expected) = (%v, %v)", got.Reason, context.DeadlineExceeded)
	}
	if elapsed := time.Since(began); 3*time.Second < elapsed {
		t.Errorf("search does not give up in time: %v", elapsed)
	}
}

func TestCoverage_Request(t *testing.T) {
	testee := download.NewCoverage(configs.Coverage{
		URL: "https://example.com/ows/elevation", CoverageID: "dtm", Filename: "dem.tif", Timeout: time.Second,
	})
	got, err := testee.Request(configs.Bounds{West: -123.20, South: 49.65, East: -123.10, North: 49.72})
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodGet, got, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{
		"service":    {"WCS"},
		"version":    {"2.0.1"},
		"request":    {"GetCoverage"},
		"CoverageId": {"dtm"},
		"subset":     {"Long(-123.2,-123.1)", "Lat(49.65,49.72)"},
		"format":     {"image/tiff"},
	}
	if diff := cmp.Diff(want, map[string][]string(req.URL.Query())); diff != "" {
		t.Errorf("query (-want +got):\n%s", diff)
	}
	if req.URL.Path != "/ows/elevation" {
		t.Errorf("unexpected path: %s", req.URL.Path)
	}
}

func TestCoverage_Fetch(t *testing.T) {
	bounds := configs.Bounds{West: -123.20, South: 49.65, East: -123.10, North: 49.72}

	type When struct {
		status        int
		contentType   string
		contentLength string
		body          string
	}
	type Then struct {
		ok      bool
		content string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", when.contentType)
				if when.contentLength != "" {
					w.Header().Set("Content-Length", when.contentLength)
				}
				w.WriteHeader(when.status)
				io.WriteString(w, when.body)
			}))
			defer svr.Close()

			ctx, cancel := ctxutil.WithTest(context.Background(), t)
			defer cancel()

			raw := filepath.Join(t.TempDir(), "data", "raw")
			progress := new(strings.Builder)
			testee := download.NewCoverage(
				configs.Coverage{URL: svr.URL, CoverageID: "dtm", Filename: "cdem.tif", Timeout: time.Second},
				download.WithProgressOutput(progress),
			)

			got := testee.Fetch(ctx, bounds, raw)
			if got.Ok() != then.ok {
				t.Fatalf("ok: (actual, expected) = (%v, %v): reason = %v", got.Ok(), then.ok, got.Reason)
			}

			dest := filepath.Join(raw, "cdem.tif")
			if !then.ok {
				if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
					t.Errorf("file should not be left: %v", err)
				}
				if _, err := os.Stat(dest + ".part"); !errors.Is(err, os.ErrNotExist) {
					t.Errorf("partial file should not be left: %v", err)
				}
				return
			}

			if got.Value != dest {
				t.Errorf("path: (actual, expected) = (%s, %s)", got.Value, dest)
			}
			content, err := os.ReadFile(dest)
			if err != nil {
				t.Fatal(err)
			}
			if string(content) != then.content {
				t.Errorf("content: (actual, expected) = (%q, %q)", content, then.content)
			}
		}
	}

	t.Run("when the service returns a tiff, it should be written in raw dir", theory(
		When{status: http.StatusOK, contentType: "image/tiff", body: "II*\x00 fake tiff"},
		Then{ok: true, content: "II*\x00 fake tiff"},
	))
	t.Run("when the service responds non-2xx, it should fail without file", theory(
		When{status: http.StatusBadRequest, contentType: "text/plain", body: "bad subset"},
		Then{ok: false},
	))
	t.Run("when the transfer is cut short, it should fail without file", theory(
		When{status: http.StatusOK, contentType: "image/tiff", contentLength: "100", body: "II*"},
		Then{ok: false},
	))
	t.Run("when the service returns an exception report, it should fail without file", theory(
		When{
			status: http.StatusOK, contentType: "application/xml",
			body: `<ows:ExceptionReport><ows:Exception exceptionCode="NoSuchCoverage"/></ows:ExceptionReport>`,
		},
		Then{ok: false},
	))
}

func TestInstructions(t *testing.T) {
	sb := new(strings.Builder)
	err := download.Instructions(sb, download.Guide{
		Bounds:   configs.Bounds{West: -123.20, South: 49.65, East: -123.10, North: 49.72},
		Landmark: "Stawamus Chief",
		RawDir:   "/p/data/raw",
		Next:     "terrainkit convert pointcloud",
	})
	if err != nil {
		t.Fatal(err)
	}
	got := sb.String()
	for _, want := range []string{
		"West:  -123.2",
		"North: 49.72",
		"49.685°N, 123.150°W",
		`(search "Stawamus Chief")`,
		download.LidarBCViewer,
		download.CDEMDataset,
		"Place the files in /p/data/raw",
		"Then run: terrainkit convert pointcloud",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("%q is not in:\n%s", want, got)
		}
	}
}

func TestInstructions_WithoutOptionals(t *testing.T) {
	sb := new(strings.Builder)
	if err := download.Instructions(sb, download.Guide{
		Bounds: configs.Bounds{West: 10, South: -20, East: 12, North: -18},
		RawDir: "raw",
	}); err != nil {
		t.Fatal(err)
	}
	got := sb.String()
	if !strings.Contains(got, "19.000°S, 11.000°E") {
		t.Errorf("center is not in:\n%s", got)
	}
	if strings.Contains(got, "search") || strings.Contains(got, "Then run") {
		t.Errorf("optional parts should be omitted:\n%s", got)
	}
}
