package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/terrainkit/terrainkit/pkg/configs"
)

// Coverage fetches a raster from an OGC Web Coverage Service (WCS 2.0.1 GetCoverage).
type Coverage struct {
	config configs.Coverage
	opt    *option
}

func NewCoverage(config configs.Coverage, opts ...Option) *Coverage {
	return &Coverage{config: config, opt: options(opts)}
}

// Request builds GetCoverage URL for bounds.
func (c *Coverage) Request(bounds configs.Bounds) (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", err
	}
	deg := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

	q := u.Query()
	q.Set("service", "WCS")
	q.Set("version", "2.0.1")
	q.Set("request", "GetCoverage")
	q.Set("CoverageId", c.config.CoverageID)
	q.Add("subset", fmt.Sprintf("Long(%s,%s)", deg(bounds.West), deg(bounds.East)))
	q.Add("subset", fmt.Sprintf("Lat(%s,%s)", deg(bounds.South), deg(bounds.North)))
	q.Set("format", "image/tiff")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

const noBar pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{with string . "suffix"}} {{.}}{{end}}`

// Fetch downloads the coverage of bounds into directory dir, streaming response body into a file.
//
// On success, Value is the path of written file.
// A partially written file is removed on failure.
func (c *Coverage) Fetch(ctx context.Context, bounds configs.Bounds, dir string) Result[string] {
	ctx, cancel := context.WithTimeout(ctx, timeoutOr(c.config.Timeout, 60*time.Second))
	defer cancel()

	target, err := c.Request(bounds)
	if err != nil {
		return Failed[string](err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Failed[string](err)
	}

	resp, err := c.opt.httpclient.Do(req)
	if err != nil {
		return Failed[string](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		return Failed[string](statusError(resp))
	}
	// WCS servers may report exceptions as XML documents.
	if ctype := resp.Header.Get("Content-Type"); strings.Contains(ctype, "xml") {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Failed[string](fmt.Errorf("%w: %s: %s", ErrUnexpectedResponse, ctype, excerpt))
	}

	if err := os.MkdirAll(dir, os.FileMode(0755)); err != nil {
		return Failed[string](err)
	}
	dest := filepath.Join(dir, c.config.Filename)
	part := dest + ".part"

	if err := c.stream(resp, part, dest); err != nil {
		os.Remove(part)
		return Failed[string](err)
	}
	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return Failed[string](err)
	}
	return Succeeded(dest)
}

func (c *Coverage) stream(resp *http.Response, part string, dest string) error {
	f, err := os.OpenFile(part, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(0644))
	if err != nil {
		return err
	}
	defer f.Close()

	bar := noBar.New(int(resp.ContentLength))
	bar.Set(pb.Bytes, true)
	bar.SetWriter(c.opt.progress)
	bar.Set("prefix", fmt.Sprintf("Downloading to %s:", filepath.Base(dest)))
	bar.Start()
	defer bar.Finish()

	w := bar.NewProxyWriter(f)
	if _, err := io.Copy(w, resp.Body); err != nil {
		return err
	}
	return nil
}
