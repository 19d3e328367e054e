// Best-effort acquisition of elevation data.
//
// Network failures are not errors here: they are Results with Reason, and callers decide to log and go on.
package download

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var (
	ErrUnexpectedStatus   = errors.New("unexpected status")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// Result is an outcome of best-effort network operation.
type Result[T any] struct {
	// Value is valid only when Reason is nil.
	Value T

	// Reason is why the operation failed. nil on success.
	Reason error
}

func Succeeded[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Failed[T any](reason error) Result[T] {
	return Result[T]{Reason: reason}
}

func (r Result[T]) Ok() bool {
	return r.Reason == nil
}

type option struct {
	httpclient *http.Client
	progress   io.Writer
}

type Option func(*option) *option

// WithHTTPClient replaces http client. Timeouts are applied per request via context regardless.
func WithHTTPClient(c *http.Client) Option {
	return func(o *option) *option {
		o.httpclient = c
		return o
	}
}

// WithProgressOutput sets where download progress is drawn. os.Stderr by default.
func WithProgressOutput(w io.Writer) Option {
	return func(o *option) *option {
		o.progress = w
		return o
	}
}

func options(opts []Option) *option {
	o := &option{httpclient: http.DefaultClient, progress: os.Stderr}
	for _, opt := range opts {
		o = opt(o)
	}
	return o
}

// statusError builds reason for non-2xx response.
func statusError(resp *http.Response) error {
	excerpt := make([]byte, 256)
	n, _ := io.ReadFull(resp.Body, excerpt)
	if 0 < n {
		return fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status, excerpt[:n])
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
}

func timeoutOr(d time.Duration, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
