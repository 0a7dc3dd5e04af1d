package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Fake is a scripted Runner for tests. Responses are matched against the
// space-joined command line by prefix; unmatched commands succeed with no
// output. All executed command lines are recorded in order.
type Fake struct {
	mu        sync.Mutex
	calls     []string
	stdins    map[string]string // command prefix -> captured stdin
	responses []fakeResponse
}

type fakeResponse struct {
	prefix string
	stdout string
	err    error
}

// NewFake returns an empty Fake runner.
func NewFake() *Fake {
	return &Fake{stdins: make(map[string]string)}
}

// Respond scripts stdout and error for any command line starting with prefix.
// Later registrations win over earlier ones.
func (f *Fake) Respond(prefix, stdout string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{prefix: prefix, stdout: stdout, err: err})
}

// Fail scripts a failure for any command line starting with prefix.
func (f *Fake) Fail(prefix, message string) {
	f.Respond(prefix, "", fmt.Errorf("%s", message))
}

// Calls returns the recorded command lines.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many recorded command lines start with prefix.
func (f *Fake) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Stdin returns the stdin captured for the first recorded command line
// starting with prefix.
func (f *Fake) Stdin(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p, in := range f.stdins {
		if strings.HasPrefix(p, prefix) {
			return in
		}
	}
	return ""
}

func (f *Fake) lookup(line string) fakeResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, line)
	for i := len(f.responses) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.responses[i].prefix) {
			return f.responses[i]
		}
	}
	return fakeResponse{}
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) error {
	resp := f.lookup(commandLine(name, args))
	return resp.err
}

func (f *Fake) Output(ctx context.Context, name string, args ...string) (string, error) {
	resp := f.lookup(commandLine(name, args))
	return resp.stdout, resp.err
}

func (f *Fake) RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	line := commandLine(name, args)
	resp := f.lookup(line)
	data, _ := io.ReadAll(stdin)
	f.mu.Lock()
	f.stdins[line] = string(data)
	f.mu.Unlock()
	return resp.err
}

func (f *Fake) RunWithStdout(ctx context.Context, stdout io.Writer, name string, args ...string) error {
	resp := f.lookup(commandLine(name, args))
	if resp.err != nil {
		return resp.err
	}
	_, err := io.WriteString(stdout, resp.stdout)
	return err
}
