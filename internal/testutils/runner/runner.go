package runner

import (
	"context"
	"sync"

	"github.com/terrainkit/terrainkit/pkg/subprocess"
)

// Scripted is a subprocess.Runner answering with Respond instead of running tools.
type Scripted struct {
	Respond func(inv subprocess.Invocation) subprocess.Result

	mu    sync.Mutex
	calls []subprocess.Invocation
}

var _ subprocess.Runner = &Scripted{}

func (s *Scripted) Run(ctx context.Context, inv subprocess.Invocation) subprocess.Result {
	s.mu.Lock()
	s.calls = append(s.calls, inv)
	s.mu.Unlock()

	if s.Respond == nil {
		return subprocess.Result{Invocation: inv}
	}
	res := s.Respond(inv)
	res.Invocation = inv
	return res
}

// Calls returns invocations requested so far.
func (s *Scripted) Calls() []subprocess.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]subprocess.Invocation{}, s.calls...)
}

// Programs returns the first words of invocations requested so far.
func (s *Scripted) Programs() []string {
	ret := []string{}
	for _, c := range s.Calls() {
		ret = append(ret, c.Program)
	}
	return ret
}

// Failed is a result of a tool exiting with code 1 and stderr.
func Failed(stderr string) subprocess.Result {
	return subprocess.Result{ExitCode: 1, Stderr: stderr}
}
