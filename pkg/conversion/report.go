package conversion

import (
	"fmt"
	"io"
	"path/filepath"
)

// Print writes the report in human readable form.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "kind: %s, strategy: %s\n", r.Kind, r.Strategy)
	for _, in := range r.Inputs {
		fmt.Fprintf(w, "  input: %s\n", in)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s\n", s)
	}
	if r.Summary != nil {
		fmt.Fprintf(w, "  point cloud: %s\n", r.Summary)
	}

	for _, s := range r.Steps {
		state := "ok"
		if !s.Ok() {
			state = "FAILED"
		}
		fmt.Fprintf(w, "  [%s] %-22s %-14s %s (%s)\n", state, s.Stage, s.Variant, s.Result.Invocation.Program, s.Result.Duration)
		if !s.Ok() {
			fmt.Fprintf(w, "      %s\n", s.Diagnostics())
		}
	}

	reached := r.Reached
	if reached == NotStarted {
		reached = "(nothing)"
	}
	fmt.Fprintf(w, "reached: %s\n", reached)
	if r.Raster != "" {
		fmt.Fprintf(w, "raster: %s\n", filepath.Base(r.Raster))
	}
	if r.Verification != nil {
		r.Verification.Print(w)
	}
}
