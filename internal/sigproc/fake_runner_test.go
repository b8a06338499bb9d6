package sigproc

import (
	"context"
	"strings"
)

// fakeRunner records invocations and replays canned outputs keyed by tool
// name.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []fakeCall
}

type fakeCall struct {
	dir  string
	name string
	args []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) CombinedOutput(_ context.Context, dir, name string, args ...string) (string, error) {
	f.calls = append(f.calls, fakeCall{dir: dir, name: name, args: args})
	return f.outputs[name], f.errs[name]
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	_, err := f.CombinedOutput(ctx, dir, name, args...)
	return err
}

func (f *fakeRunner) lastArgs() string {
	if len(f.calls) == 0 {
		return ""
	}
	return strings.Join(f.calls[len(f.calls)-1].args, " ")
}
