package extraction

import (
	"fmt"
	"os"
)

// workspace is a scoped temporary directory exclusively owned by one
// extraction attempt. The extraction tool runs inside it and drops its
// archive there; Release removes the directory and everything in it.
// Workspaces are never reused across candidates.
type workspace struct {
	dir string
}

// newWorkspace creates a fresh workspace under parent (empty = system temp
// dir).
func newWorkspace(parent string) (*workspace, error) {
	dir, err := os.MkdirTemp(parent, "candpipe-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

// Release removes the workspace directory and its contents. Safe to call
// more than once.
func (w *workspace) Release() error {
	return os.RemoveAll(w.dir)
}
