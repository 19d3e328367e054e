package commandline

import (
	"io"
	"strings"

	"github.com/youta-t/flarc"
)

// MockCommandline is a flarc.Commandline with fixed flags, arguments and streams.
type MockCommandline[T any] struct {
	Fullname_ string

	Stdin_  io.Reader
	Stdout_ io.Writer
	Stderr_ io.Writer

	Flags_ T
	Args_  map[string][]string
}

var _ flarc.Commandline[struct{}] = &MockCommandline[struct{}]{}

func (t MockCommandline[T]) Fullname() string {
	return t.Fullname_
}

func (t MockCommandline[T]) Stdin() io.Reader {
	return t.Stdin_
}

func (t MockCommandline[T]) Stdout() io.Writer {
	return t.Stdout_
}

func (t MockCommandline[T]) Stderr() io.Writer {
	return t.Stderr_
}

func (t MockCommandline[T]) Flags() T {
	return t.Flags_
}

func (t MockCommandline[T]) Args() map[string][]string {
	if t.Args_ == nil {
		return map[string][]string{}
	}
	return t.Args_
}

// Capture returns MockCommandline whose stdout is recorded into the returned builder.
//
// Stdin is empty and stderr is discarded.
func Capture[T any](fullname string, flags T, args map[string][]string) (MockCommandline[T], *strings.Builder) {
	stdout := new(strings.Builder)
	return MockCommandline[T]{
		Fullname_: fullname,
		Stdin_:    strings.NewReader(""),
		Stdout_:   stdout,
		Stderr_:   io.Discard,
		Flags_:    flags,
		Args_:     args,
	}, stdout
}
