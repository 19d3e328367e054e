package subprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Invocation is a command line of an external tool.
type Invocation struct {
	Program string
	Args    []string
}

func (i Invocation) String() string {
	words := make([]string, 0, len(i.Args)+1)
	for _, w := range append([]string{i.Program}, i.Args...) {
		if w == "" || strings.ContainsAny(w, " \t\"'") {
			w = fmt.Sprintf("%q", w)
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// Result is an outcome of an Invocation.
//
// A tool exiting with non-zero status is not an error of Run; it is a Result with that ExitCode.
type Result struct {
	Invocation Invocation

	// ExitCode is the exit status. -1 when the process could not be started or was killed.
	ExitCode int

	Stdout string
	Stderr string

	Duration time.Duration

	// Err is set when the process could not be started or waited.
	Err error
}

func (r Result) Ok() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Diagnostics is the text best describing why the invocation failed.
func (r Result) Diagnostics() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Stdout); s != "" {
		return s
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return fmt.Sprintf("exit status %d", r.ExitCode)
}

// Runner runs an external tool to its end.
type Runner interface {
	Run(ctx context.Context, inv Invocation) Result
}

// Exec runs invocations as child processes.
type Exec struct {
	tee io.Writer
}

type ExecOption func(*Exec) *Exec

// WithTee copies output of child processes into w as they are produced.
func WithTee(w io.Writer) ExecOption {
	return func(e *Exec) *Exec {
		e.tee = w
		return e
	}
}

func NewExec(opts ...ExecOption) *Exec {
	e := &Exec{}
	for _, o := range opts {
		e = o(e)
	}
	return e
}

func (e *Exec) Run(ctx context.Context, inv Invocation) Result {
	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	if e.tee != nil {
		cmd.Stdout = io.MultiWriter(stdout, e.tee)
		cmd.Stderr = io.MultiWriter(stderr, e.tee)
	} else {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
	}

	begin := time.Now()
	err := cmd.Run()
	res := Result{
		Invocation: inv,
		ExitCode:   0,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		Duration:   time.Since(begin),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if ctx.Err() != nil {
				res.Err = ctx.Err()
			}
		} else {
			res.ExitCode = -1
			res.Err = err
		}
	}
	return res
}

// DryRun records invocations without running them, and reports all of them as succeeded.
type DryRun struct {
	out io.Writer

	mu          sync.Mutex
	invocations []Invocation
}

// NewDryRun returns DryRun printing each invocation into out. out can be nil.
func NewDryRun(out io.Writer) *DryRun {
	return &DryRun{out: out}
}

func (d *DryRun) Run(ctx context.Context, inv Invocation) Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invocations = append(d.invocations, inv)
	if d.out != nil {
		fmt.Fprintln(d.out, inv.String())
	}
	return Result{Invocation: inv}
}

// Invocations returns what have been requested so far.
func (d *DryRun) Invocations() []Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Invocation{}, d.invocations...)
}
