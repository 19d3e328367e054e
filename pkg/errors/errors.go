// Error values shared by terrainkit packages.
//
// Sentinels classify failures so that callers can branch with errors.Is:
//
//	ErrMissingDependency: no usable tool set on this host.
//	ErrMissingInput: no input file could be selected.
//	ErrSubprocess: an external tool exited unsuccessfully.
//	ErrVerification: the output tree lacks its metadata descriptor.
//
// Wrap and WrapWithNote annotate an error with the location where it was wrapped.
// When you read message of such errors, replace
//
//	s/<-/\n/
//
// and it gives you "stacks" of where you marks.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrMissingInput      = errors.New("missing input")
	ErrSubprocess        = errors.New("subprocess failed")
	ErrVerification      = errors.New("verification failed")
)

type ErrWithCaller struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *ErrWithCaller) File() string {
	return e.file
}

func (e *ErrWithCaller) Line() int {
	return e.line
}

func (e *ErrWithCaller) Error() string {
	if e.note == "" {
		return fmt.Sprintf(`@ %s "%s" l%d <- %s`, e.funcname, e.file, e.line, e.err.Error())
	}
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err.Error())
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

func New(text string) error {
	return wrap("", errors.New(text), 1)
}

func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return wrap("", err, 1)
}

func WrapWithNote(note string, err error) error {
	if err == nil {
		return nil
	}
	return wrap(note, err, 1)
}

func wrap(note string, err error, depth int) error {
	pc, file, line, ok := runtime.Caller(depth + 1)
	funcname := "(unknown func)"
	if !ok {
		file = "?"
		line = -1
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcname = fn.Name()
	}

	return &ErrWithCaller{
		funcname: funcname,
		file:     file,
		line:     line,
		note:     note,
		err:      err,
	}
}

// Kind names the class of err by the first sentinel it wraps.
//
// It returns "" for errors out of the taxonomy.
func Kind(err error) string {
	for _, s := range []error{
		ErrMissingDependency, ErrMissingInput, ErrSubprocess, ErrVerification,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return ""
}

// Cause strips caller annotations and returns the innermost message.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, "<- "); 0 <= i {
		return msg[i+len("<- "):]
	}
	return msg
}
