package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"prankweb-sync/internal/registry"
)

const errorLogName = "error.log"

// releasePolicy states what happens to a workspace directory when the entry
// is done with it: removed after a clean publication, retained for diagnosis
// after any failure.
type releasePolicy int

const (
	removeWorkspace releasePolicy = iota
	retainWorkspace
)

// workspace is the per-entry scratch directory used during conversion.
type workspace struct {
	dir string
}

// openWorkspace creates (or reuses) the scratch directory for a code.
func openWorkspace(root, code string) (*workspace, error) {
	dir := filepath.Join(root, registry.CanonicalCode(code))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create working directory %s: %w", dir, err)
	}
	return &workspace{dir: dir}, nil
}

// Path returns the location of a file inside the workspace.
func (w *workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release finishes the workspace lifecycle under the given policy.
func (w *workspace) Release(policy releasePolicy) error {
	if policy == removeWorkspace {
		return os.RemoveAll(w.dir)
	}
	return nil
}

// WriteErrorLog records raw failure text next to the inputs that caused it.
func (w *workspace) WriteErrorLog(text string) error {
	return os.WriteFile(w.Path(errorLogName), []byte(text+"\n"), 0o644)
}
