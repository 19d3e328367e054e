package tileserver

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc logs each request and its response with latency.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		BEGIN := time.Now()
		c.Logger().Debugf("< request @[%s] %s %s", BEGIN.Format(time.RFC3339), meth, path)

		err := next(c)
		if err != nil {
			// let status be decided before it is logged.
			c.Error(err)
		}

		END := time.Now()
		c.Logger().Infof(
			"> %d %s %s (%d bytes) in %v",
			c.Response().Status, meth, path, c.Response().Size, END.Sub(BEGIN),
		)
		return nil
	}
}

// LogLevel parses log level name.
//
// Known names are debug, info, warn, error and off. Empty means warn.
func LogLevel(name string) (log.Lvl, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return log.DEBUG, true
	case "info":
		return log.INFO, true
	case "warn", "":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	default:
		return log.WARN, false
	}
}

// SetLevel sets log level of e. Unknown names fall back to warn.
func SetLevel(e *echo.Echo, name string) {
	lvl, ok := LogLevel(name)
	e.Logger.SetLevel(lvl)
	if !ok {
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", name)
	}
}
