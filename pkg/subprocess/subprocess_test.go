package subprocess_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/terrainkit/terrainkit/pkg/subprocess"
)

func TestInvocation_String(t *testing.T) {
	inv := subprocess.Invocation{
		Program: "gdalwarp",
		Args:    []string{"-t_srs", "EPSG:4326", "/path with space/in.tif", ""},
	}
	want := `gdalwarp -t_srs EPSG:4326 "/path with space/in.tif" ""`
	if got := inv.String(); got != want {
		t.Errorf("(actual, expected) = (%s, %s)", got, want)
	}
}

func TestResult_Diagnostics(t *testing.T) {
	type When struct {
		result subprocess.Result
	}
	type Then struct {
		diagnostics string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			if got := when.result.Diagnostics(); got != then.diagnostics {
				t.Errorf("(actual, expected) = (%q, %q)", got, then.diagnostics)
			}
		}
	}

	t.Run("when stderr has content, it should be stderr", theory(
		When{result: subprocess.Result{ExitCode: 1, Stdout: "progress", Stderr: " ERROR 4: no such file \n"}},
		Then{diagnostics: "ERROR 4: no such file"},
	))
	t.Run("when only stdout has content, it should be stdout", theory(
		When{result: subprocess.Result{ExitCode: 1, Stdout: "failed"}},
		Then{diagnostics: "failed"},
	))
	t.Run("when nothing is written, it should tell exit status", theory(
		When{result: subprocess.Result{ExitCode: 3}},
		Then{diagnostics: "exit status 3"},
	))
}

func TestExec(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}

	t.Run("when the tool succeeds, it should capture output", func(t *testing.T) {
		tee := new(strings.Builder)
		res := subprocess.NewExec(subprocess.WithTee(tee)).Run(
			context.Background(),
			subprocess.Invocation{Program: sh, Args: []string{"-c", "echo out; echo err 1>&2"}},
		)
		if !res.Ok() {
			t.Fatalf("unexpected failure: %+v", res)
		}
		if res.Stdout != "out\n" || res.Stderr != "err\n" {
			t.Errorf("unexpected output: stdout=%q stderr=%q", res.Stdout, res.Stderr)
		}
		if !strings.Contains(tee.String(), "out") || !strings.Contains(tee.String(), "err") {
			t.Errorf("output is not teed: %q", tee.String())
		}
	})

	t.Run("when the tool exits non-zero, it should be result with exit code", func(t *testing.T) {
		res := subprocess.NewExec().Run(
			context.Background(),
			subprocess.Invocation{Program: sh, Args: []string{"-c", "exit 7"}},
		)
		if res.Ok() || res.ExitCode != 7 || res.Err != nil {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("when the tool does not exist, it should be result with error", func(t *testing.T) {
		res := subprocess.NewExec().Run(
			context.Background(),
			subprocess.Invocation{Program: "terrainkit-no-such-tool"},
		)
		if res.Ok() || res.ExitCode != -1 || res.Err == nil {
			t.Errorf("unexpected result: %+v", res)
		}
	})
}

func TestDryRun(t *testing.T) {
	out := new(strings.Builder)
	testee := subprocess.NewDryRun(out)

	invs := []subprocess.Invocation{
		{Program: "pdal", Args: []string{"info", "--summary", "a.laz"}},
		{Program: "ctb-tile", Args: []string{"-l"}},
	}
	for _, inv := range invs {
		if res := testee.Run(context.Background(), inv); !res.Ok() {
			t.Errorf("dry run should succeed: %+v", res)
		}
	}

	if diff := cmp.Diff(invs, testee.Invocations()); diff != "" {
		t.Errorf("invocations (-want +got):\n%s", diff)
	}
	if out.String() != "pdal info --summary a.laz\nctb-tile -l\n" {
		t.Errorf("unexpected print: %q", out.String())
	}
}
