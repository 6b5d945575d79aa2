// Package hostexectest provides a scripted hostexec.Runner for tests.
package hostexectest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
)

// Call records one invocation seen by the fake.
type Call struct {
	Command string
	Stdin   string
	Stream  bool
}

// Response is what the fake answers for a matched command.
type Response struct {
	Result hostexec.Result
	Err    error
}

// OK answers with exit status zero and the given stdout.
func OK(stdout string) Response {
	return Response{Result: hostexec.Result{Stdout: stdout}}
}

// Exit answers with the given exit status and stderr.
func Exit(code int, stderr string) Response {
	return Response{Result: hostexec.Result{ExitCode: code, Stderr: stderr}}
}

// Error answers as if the command could not be started.
func Error(err error) Response {
	return Response{Result: hostexec.Result{ExitCode: -1}, Err: err}
}

// Runner answers commands from a script. Each command owns a queue of
// responses consumed in order; the last response repeats once the queue is
// drained. Unscripted commands receive Fallback.
type Runner struct {
	mu       sync.Mutex
	scripts  map[string][]Response
	calls    []Call
	Fallback Response
}

// New creates a Runner whose unscripted commands exit 127.
func New() *Runner {
	return &Runner{
		scripts:  make(map[string][]Response),
		Fallback: Exit(127, "command not scripted"),
	}
}

// On scripts the responses for an exact command line.
func (r *Runner) On(command string, responses ...Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[command] = append(r.scripts[command], responses...)
	return r
}

// Set replaces whatever was scripted for command.
func (r *Runner) Set(command string, responses ...Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[command] = append([]Response(nil), responses...)
	return r
}

// Run implements hostexec.Runner.
func (r *Runner) Run(ctx context.Context, command string, opts ...hostexec.Option) (hostexec.Result, error) {
	var ro hostexec.RunOptions
	for _, opt := range opts {
		opt(&ro)
	}

	call := Call{Command: command, Stream: ro.Stream}
	if ro.Stdin != nil {
		data, _ := io.ReadAll(ro.Stdin)
		call.Stdin = string(data)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)

	if err := ctx.Err(); err != nil {
		return hostexec.Result{ExitCode: -1}, err
	}

	queue, ok := r.scripts[command]
	if !ok || len(queue) == 0 {
		return r.Fallback.Result, r.Fallback.Err
	}
	resp := queue[0]
	if len(queue) > 1 {
		r.scripts[command] = queue[1:]
	}
	return resp.Result, resp.Err
}

// Calls returns every recorded invocation in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Commands returns the recorded command lines in order.
func (r *Runner) Commands() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Command
	}
	return out
}

// Ran reports whether a command containing fragment was executed.
func (r *Runner) Ran(fragment string) bool {
	for _, c := range r.Commands() {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

var _ hostexec.Runner = (*Runner)(nil)
