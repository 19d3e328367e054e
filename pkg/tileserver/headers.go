package tileserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DefaultExtension is the extension of quantized-mesh tiles.
//
// ctb-tile writes them gzip-compressed without a ".gz" suffix.
const DefaultExtension = ".terrain"

// TileHeaders returns response headers for a request to urlpath.
//
// CORS headers are always included.
// When urlpath ends with ext, headers declaring a gzip-encoded binary body are included too.
func TileHeaders(urlpath string, ext string) http.Header {
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
	if ext != "" && strings.HasSuffix(urlpath, ext) {
		h.Set(echo.HeaderContentEncoding, "gzip")
		h.Set(echo.HeaderContentType, echo.MIMEOctetStream)
	}
	return h
}

// Headers is a middleware setting TileHeaders before the handler runs.
//
// Preflight (OPTIONS) responses get CORS headers only.
func Headers(ext string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			tileExt := ext
			if req.Method == http.MethodOptions {
				tileExt = ""
			}

			header := c.Response().Header()
			for k, vs := range TileHeaders(req.URL.Path, tileExt) {
				header[k] = vs
			}
			return next(c)
		}
	}
}
