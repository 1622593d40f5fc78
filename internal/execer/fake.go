package execer

import (
	"context"
	"strings"
)

// Call records one invocation seen by a FakeRunner.
type Call struct {
	Command string
	Args    []string
}

// String renders the call as it would appear on a shell command line.
func (c Call) String() string {
	return strings.Join(append([]string{c.Command}, c.Args...), " ")
}

// stub pairs a command-line prefix with a canned response.
type stub struct {
	prefix string
	result Result
	err    error
}

// FakeRunner is a scriptable Runner for tests. Stubs are matched by
// command-line prefix, longest match first; unmatched commands succeed
// with empty output.
type FakeRunner struct {
	Calls []Call
	stubs []stub
}

// Stub registers a canned result for any command line starting with
// prefix.
func (f *FakeRunner) Stub(prefix string, result Result, err error) {
	f.stubs = append(f.stubs, stub{prefix: prefix, result: result, err: err})
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, command string, args ...string) (Result, error) {
	call := Call{Command: command, Args: args}
	f.Calls = append(f.Calls, call)

	line := call.String()
	var best *stub
	for i := range f.stubs {
		s := &f.stubs[i]
		if strings.HasPrefix(line, s.prefix) {
			if best == nil || len(s.prefix) > len(best.prefix) {
				best = s
			}
		}
	}
	if best != nil {
		return best.result, best.err
	}
	return Result{}, nil
}

// CommandLines returns every recorded call as a command line.
func (f *FakeRunner) CommandLines() []string {
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.String()
	}
	return lines
}

var _ Runner = (*FakeRunner)(nil)
