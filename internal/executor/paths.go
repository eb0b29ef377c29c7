package executor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// PathError reports an operation path that resolves outside the workspace
// root.
type PathError struct {
	Path string
	Root string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q escapes workspace root %q", e.Path, e.Root)
}

// resolve joins a slash-style operation path onto the root and rejects
// anything that escapes it.
func (e *Executor) resolve(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", errors.New("operation path is empty")
	}
	target := filepath.Join(e.root, filepath.FromSlash(cleaned))
	if !withinRoot(e.root, target) {
		return "", &PathError{Path: raw, Root: e.root}
	}
	return target, nil
}

func withinRoot(root, target string) bool {
	rootAbs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(filepath.Clean(target))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
