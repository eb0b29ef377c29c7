package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/diff"
	"scribe/internal/parser"
	"scribe/internal/patch"
)

func writeWorkspaceFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readWorkspaceFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestExecutor_CreateWritesNestedFile(t *testing.T) {
	root := t.TempDir()
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpCreate, Path: "pkg/util/helper.go", Content: "package util\n"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.False(t, results[0].Overwrote)
	assert.NotNil(t, results[0].Preview)
	assert.Equal(t, "package util\n", readWorkspaceFile(t, root, "pkg/util/helper.go"))
}

func TestExecutor_CreateOverExistingNotesOverwrite(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "notes.txt", "old\n")
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpCreate, Path: "notes.txt", Content: "new\n"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.True(t, results[0].Overwrote)
	assert.Equal(t, "new\n", readWorkspaceFile(t, root, "notes.txt"))
}

func TestExecutor_AppendInsertsSeamNewline(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "log.txt", "first")
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpAppend, Path: "log.txt", Content: "second\n"},
	})

	require.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "first\nsecond\n", readWorkspaceFile(t, root, "log.txt"))
}

func TestExecutor_AppendToMissingFileCreatesIt(t *testing.T) {
	root := t.TempDir()
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpAppend, Path: "fresh.txt", Content: "hello\n"},
	})

	require.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "hello\n", readWorkspaceFile(t, root, "fresh.txt"))
}

func TestExecutor_PrependInsertsSeamNewline(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "main.go", "package main\n")
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpPrepend, Path: "main.go", Content: "// Command main."},
	})

	require.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "// Command main.\npackage main\n", readWorkspaceFile(t, root, "main.go"))
}

func TestExecutor_EditAppliesSearchReplace(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "config.go", "const retries = 3\nconst timeout = 10\n")
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpEdit, Path: "config.go", Search: "const retries = 3", Replace: "const retries = 5"},
	})

	require.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "const retries = 5\nconst timeout = 10\n", readWorkspaceFile(t, root, "config.go"))
	require.NotNil(t, results[0].Preview)
	assert.Equal(t, 1, results[0].Preview.Added)
	assert.Equal(t, 1, results[0].Preview.Deleted)
}

func TestExecutor_EditNoMatchLeavesFileUntouched(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "config.go", "const retries = 3\n")
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpEdit, Path: "config.go", Search: "const retries = 99", Replace: "const retries = 5"},
	})

	require.Equal(t, StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, patch.ErrNoMatch)
	assert.Equal(t, "const retries = 3\n", readWorkspaceFile(t, root, "config.go"))
}

func TestExecutor_EditMissingFileFails(t *testing.T) {
	exec := New(t.TempDir())

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpEdit, Path: "ghost.go", Search: "a", Replace: "b"},
	})

	require.Equal(t, StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, os.ErrNotExist)
}

func TestExecutor_DeleteRemovesFile(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "stale.txt", "bye\n")
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpDelete, Path: "stale.txt"},
	})

	require.Equal(t, StatusApplied, results[0].Status)
	_, err := os.Stat(filepath.Join(root, "stale.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExecutor_DeleteMissingFileFails(t *testing.T) {
	exec := New(t.TempDir())

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpDelete, Path: "ghost.txt"},
	})

	require.Equal(t, StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, os.ErrNotExist)
}

func TestExecutor_ReadLoadsContent(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "data.txt", "payload\n")
	exec := New(root, WithDryRun(true))

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpRead, Path: "data.txt"},
	})

	// Reads execute even in dry-run mode; they mutate nothing.
	require.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "payload\n", results[0].Content)
}

func TestExecutor_DryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "keep.txt", "original\n")
	exec := New(root, WithDryRun(true))

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpCreate, Path: "new.txt", Content: "content\n"},
		{Type: parser.OpDelete, Path: "keep.txt"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusPlanned, results[0].Status)
	assert.Equal(t, StatusPlanned, results[1].Status)
	assert.NotNil(t, results[0].Preview)

	_, err := os.Stat(filepath.Join(root, "new.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "original\n", readWorkspaceFile(t, root, "keep.txt"))
}

func TestExecutor_PathEscapeFails(t *testing.T) {
	root := t.TempDir()
	exec := New(root)

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpCreate, Path: "../outside.txt", Content: "nope\n"},
		{Type: parser.OpCreate, Path: "inside.txt", Content: "ok\n"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusFailed, results[0].Status)
	var pathErr *PathError
	assert.ErrorAs(t, results[0].Err, &pathErr)
	_, err := os.Stat(filepath.Join(root, "..", "outside.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	// One bad path does not stop the rest.
	assert.Equal(t, StatusApplied, results[1].Status)
}

func TestExecutor_SameFileOperationsKeepOrder(t *testing.T) {
	root := t.TempDir()
	exec := New(root, WithWorkers(8))

	ops := []parser.Operation{
		{Type: parser.OpCreate, Path: "journal.txt", Content: "one\n"},
		{Type: parser.OpCreate, Path: "other-a.txt", Content: "a\n"},
		{Type: parser.OpAppend, Path: "journal.txt", Content: "two\n"},
		{Type: parser.OpCreate, Path: "other-b.txt", Content: "b\n"},
		{Type: parser.OpAppend, Path: "journal.txt", Content: "three\n"},
	}
	results := exec.Run(context.Background(), ops)

	require.Len(t, results, len(ops))
	for i, res := range results {
		assert.Equal(t, StatusApplied, res.Status, "op %d", i)
		assert.Equal(t, ops[i].Path, res.Op.Path, "results must keep input order")
	}
	assert.Equal(t, "one\ntwo\nthree\n", readWorkspaceFile(t, root, "journal.txt"))
}

func TestExecutor_ManyFilesConcurrently(t *testing.T) {
	root := t.TempDir()
	exec := New(root, WithWorkers(4))

	var ops []parser.Operation
	for i := 0; i < 20; i++ {
		ops = append(ops, parser.Operation{
			Type:    parser.OpCreate,
			Path:    fmt.Sprintf("files/f%02d.txt", i),
			Content: fmt.Sprintf("file %d\n", i),
		})
	}
	results := exec.Run(context.Background(), ops)

	require.Len(t, results, 20)
	for i, res := range results {
		require.Equal(t, StatusApplied, res.Status)
		assert.Equal(t, fmt.Sprintf("file %d\n", i), readWorkspaceFile(t, root, res.Op.Path))
	}
}

func TestExecutor_ConfirmSkip(t *testing.T) {
	root := t.TempDir()
	exec := New(root, WithConfirm(func(parser.Operation, *diff.Preview) Decision {
		return DecisionSkip
	}))

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpCreate, Path: "denied.txt", Content: "x\n"},
	})

	require.Equal(t, StatusSkipped, results[0].Status)
	assert.NoError(t, results[0].Err)
	_, err := os.Stat(filepath.Join(root, "denied.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExecutor_ConfirmAbortSkipsRemaining(t *testing.T) {
	root := t.TempDir()
	calls := 0
	exec := New(root, WithConfirm(func(parser.Operation, *diff.Preview) Decision {
		calls++
		if calls == 1 {
			return DecisionApply
		}
		return DecisionAbort
	}))

	results := exec.Run(context.Background(), []parser.Operation{
		{Type: parser.OpCreate, Path: "first.txt", Content: "1\n"},
		{Type: parser.OpCreate, Path: "second.txt", Content: "2\n"},
		{Type: parser.OpCreate, Path: "third.txt", Content: "3\n"},
	})

	require.Len(t, results, 3)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.ErrorIs(t, results[1].Err, ErrAborted)
	assert.Equal(t, StatusSkipped, results[2].Status)
	assert.ErrorIs(t, results[2].Err, ErrAborted)

	assert.Equal(t, "1\n", readWorkspaceFile(t, root, "first.txt"))
	_, err := os.Stat(filepath.Join(root, "second.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	// The confirm callback never sees operations after the abort.
	assert.Equal(t, 2, calls)
}

func TestExecutor_CanceledContextSkipsEverything(t *testing.T) {
	root := t.TempDir()
	exec := New(root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := exec.Run(ctx, []parser.Operation{
		{Type: parser.OpCreate, Path: "never.txt", Content: "x\n"},
	})

	require.Equal(t, StatusSkipped, results[0].Status)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	_, err := os.Stat(filepath.Join(root, "never.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSeamHelpers(t *testing.T) {
	assert.Equal(t, "top\nbody\n", seamPrepend("top", "body\n"))
	assert.Equal(t, "top\nbody\n", seamPrepend("top\n", "body\n"))
	assert.Equal(t, "top", seamPrepend("top", ""))
	assert.Equal(t, "body\ntail", seamAppend("body", "tail"))
	assert.Equal(t, "body\ntail", seamAppend("body\n", "tail"))
	assert.Equal(t, "tail", seamAppend("", "tail"))
}

func TestWithinRoot(t *testing.T) {
	root := t.TempDir()
	assert.True(t, withinRoot(root, filepath.Join(root, "a", "b.txt")))
	assert.True(t, withinRoot(root, root))
	assert.False(t, withinRoot(root, filepath.Join(root, "..", "escape.txt")))
	assert.False(t, withinRoot(root, filepath.Dir(root)))
}
