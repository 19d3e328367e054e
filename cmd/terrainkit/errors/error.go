package errors

import (
	"errors"
	"fmt"
	"strings"

	xe "github.com/terrainkit/terrainkit/pkg/errors"
)

type Verbose interface {
	Verbose() string
}

// CUIError is an error to be shown to operators, with a hint what to do next.
type CUIError interface {
	error
	Verbose
	Hint() string
}

type cuierror struct {
	summary string
	hint    string
	verbose string
	base    error
}

func (ce *cuierror) Unwrap() error {
	return ce.base
}

func (ce *cuierror) Error() string {
	message := ce.summary
	if ce.base != nil {
		message += ": " + ce.base.Error()
	}
	if ce.hint != "" {
		message += "\n\n" + ce.hint
	}
	return message
}

func (ce *cuierror) Hint() string {
	return ce.hint
}

func (ce *cuierror) Verbose() string {
	message := []string{ce.Error()}
	if ce.verbose != "" {
		message = append(message, " ("+ce.verbose+") ")
	}

	switch base := ce.base.(type) {
	case nil:
		// no-op
	case Verbose:
		message = append(message, "caused by: ", base.Verbose())
	default:
		message = append(message, "caused by: ", fmt.Sprintf("%+v", base))
	}
	return strings.Join(message, "\n")
}

type CuiErrorOption func(cerr *cuierror) *cuierror

func NewCuiError(summary string, options ...CuiErrorOption) CUIError {
	err := &cuierror{summary: summary}
	for _, o := range options {
		err = o(err)
	}
	return err
}

func WithVerbose(verbose string) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.verbose = verbose
		return cerr
	}
}

func WithHint(format string, args ...any) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.hint = fmt.Sprintf(format, args...)
		return cerr
	}
}

func WithCause(err error) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.base = err
		return cerr
	}
}

// Situation is what the operator is working with, used to suggest next steps.
type Situation struct {
	// RawDir is where raw input is looked up.
	RawDir string

	// Runtime is the name of container runtime command.
	Runtime string
}

// Explain converts err into CUIError with a hint for its kind.
//
// nil and errors without known kind are returned as they are.
func Explain(err error, s Situation) error {
	var cerr CUIError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &cerr):
		return err
	case errors.Is(err, xe.ErrMissingDependency):
		return NewCuiError(
			"no usable tool set", WithCause(err),
			WithHint(
				"Install %s (recommended), or PDAL, GDAL and ctb-tile locally.\nRun `terrainkit probe` to see what is found.",
				s.Runtime,
			),
		)
	case errors.Is(err, xe.ErrMissingInput):
		return NewCuiError(
			"no input", WithCause(err),
			WithHint(
				"Place input files in %s, or pass a file as INPUT.\nRun `terrainkit download` for how to obtain elevation data.",
				s.RawDir,
			),
		)
	case errors.Is(err, xe.ErrSubprocess):
		return NewCuiError(
			"conversion failed", WithCause(err),
			WithHint("Intermediate files are left for inspection. Rerun with --dry-run to see the commands."),
		)
	case errors.Is(err, xe.ErrVerification):
		return NewCuiError(
			"tileset is incomplete", WithCause(err),
			WithHint("Run `terrainkit convert` again to regenerate the tileset."),
		)
	default:
		return err
	}
}
