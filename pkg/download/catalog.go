package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terrainkit/terrainkit/pkg/configs"
	"github.com/tidwall/gjson"
)

// Dataset is an entry found in a data catalogue.
type Dataset struct {
	ID    string
	Title string
}

// Catalog searches a CKAN data catalogue (package_search action).
type Catalog struct {
	config configs.Catalog
	opt    *option
}

func NewCatalog(config configs.Catalog, opts ...Option) *Catalog {
	return &Catalog{config: config, opt: options(opts)}
}

// Search looks up datasets by configured keywords.
//
// An empty list is a success: the catalogue answered that it has nothing.
func (c *Catalog) Search(ctx context.Context) Result[[]Dataset] {
	ctx, cancel := context.WithTimeout(ctx, timeoutOr(c.config.Timeout, 10*time.Second))
	defer cancel()

	u, err := url.Parse(c.config.URL)
	if err != nil {
		return Failed[[]Dataset](err)
	}
	q := u.Query()
	q.Set("q", c.config.Query)
	q.Set("rows", strconv.Itoa(c.config.Rows))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Failed[[]Dataset](err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.opt.httpclient.Do(req)
	if err != nil {
		return Failed[[]Dataset](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		return Failed[[]Dataset](statusError(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failed[[]Dataset](err)
	}
	if !gjson.ValidBytes(body) {
		return Failed[[]Dataset](fmt.Errorf("%w: not a json", ErrUnexpectedResponse))
	}
	doc := gjson.ParseBytes(body)
	if s := doc.Get("success"); s.Exists() && !s.Bool() {
		return Failed[[]Dataset](fmt.Errorf(
			"%w: %s", ErrUnexpectedResponse, doc.Get("error.message").String(),
		))
	}

	found := []Dataset{}
	for _, r := range doc.Get("result.results").Array() {
		d := Dataset{ID: r.Get("id").String(), Title: r.Get("title").String()}
		if d.Title == "" {
			d.Title = "Unknown"
		}
		if d.ID == "" {
			d.ID = "N/A"
		}
		found = append(found, d)
	}
	return Succeeded(found)
}
