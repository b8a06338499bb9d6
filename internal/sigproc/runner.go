// Package sigproc wraps the external signal-processing tools the pipeline
// shells out to: the header metadata query and the dispersion-smearing
// estimator. All process execution goes through the Runner interface so the
// orchestration logic never touches os/exec directly and tests can
// substitute fakes.
package sigproc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external tool and reports its output.
type Runner interface {
	// CombinedOutput runs the named tool with args, in dir when dir is
	// non-empty, and returns its combined stdout+stderr. A non-zero exit
	// returns the output collected so far together with the error.
	CombinedOutput(ctx context.Context, dir, name string, args ...string) (string, error)

	// Run runs the named tool, discarding its output.
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs tools as subordinate processes.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Compile-time interface check.
var _ Runner = (*ExecRunner)(nil)

// CombinedOutput runs the tool and returns combined stdout+stderr.
func (r *ExecRunner) CombinedOutput(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("%s %s: %w: %s",
			name, strings.Join(args, " "), err, strings.TrimSpace(buf.String()))
	}
	return buf.String(), nil
}

// Run runs the tool, discarding output on success. Stderr is included in
// the error on failure.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	_, err := r.CombinedOutput(ctx, dir, name, args...)
	return err
}
