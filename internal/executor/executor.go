// Package executor materializes canonical file operations against a
// workspace root. Operations touching different files run concurrently;
// operations on the same file run sequentially in input order.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"scribe/internal/diff"
	"scribe/internal/logging"
	"scribe/internal/parser"
	"scribe/internal/patch"
)

const defaultWorkers = 4

// Status classifies the outcome of a single operation.
type Status string

const (
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusPlanned Status = "planned"
)

// Decision is a confirm callback's verdict for one mutating operation.
type Decision int

const (
	DecisionApply Decision = iota
	DecisionSkip
	DecisionAbort
)

// ConfirmFunc is consulted before each mutating write. Returning
// DecisionAbort skips the current operation and everything after it.
type ConfirmFunc func(op parser.Operation, preview *diff.Preview) Decision

// ErrAborted marks operations skipped because a confirm callback aborted
// the run.
var ErrAborted = errors.New("run aborted")

// OpResult records what happened to one operation.
type OpResult struct {
	Op          parser.Operation
	Status      Status
	Err         error
	Preview     *diff.Preview
	Content     string // file content, populated for read operations
	BytesBefore int
	BytesAfter  int
	Overwrote   bool
}

// Executor applies operations inside a workspace root.
type Executor struct {
	root     string
	workers  int
	dryRun   bool
	confirm  ConfirmFunc
	renderer *diff.Renderer
	logger   logging.Logger

	aborted atomic.Bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers caps how many file groups run concurrently.
func WithWorkers(n int) Option {
	return func(e *Executor) { e.workers = n }
}

// WithDryRun computes previews and outcomes without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

// WithConfirm installs an interactive gate before each mutating write.
// Confirmation forces sequential execution so prompts cannot overlap.
func WithConfirm(fn ConfirmFunc) Option {
	return func(e *Executor) { e.confirm = fn }
}

// WithRenderer replaces the preview renderer.
func WithRenderer(r *diff.Renderer) Option {
	return func(e *Executor) { e.renderer = r }
}

// WithLogger attaches a logger for per-operation diagnostics.
func WithLogger(lg logging.Logger) Option {
	return func(e *Executor) { e.logger = lg }
}

// New builds an Executor rooted at root.
func New(root string, opts ...Option) *Executor {
	e := &Executor{
		root:    root,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.root == "" {
		e.root = "."
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if e.confirm != nil {
		e.workers = 1
	}
	if e.renderer == nil {
		e.renderer = diff.NewRenderer(false, 0)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// Run executes every operation and returns one result per input, in input
// order. Failures are recorded on the result rather than stopping the run.
func (e *Executor) Run(ctx context.Context, ops []parser.Operation) []OpResult {
	results := make([]OpResult, len(ops))

	// Group by path so same-file operations keep their relative order
	// while distinct files proceed in parallel.
	groups := make(map[string][]int, len(ops))
	order := make([]string, 0, len(ops))
	for i, op := range ops {
		if _, seen := groups[op.Path]; !seen {
			order = append(order, op.Path)
		}
		groups[op.Path] = append(groups[op.Path], i)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, path := range order {
		indices := groups[path]
		g.Go(func() error {
			for _, i := range indices {
				results[i] = e.execute(ctx, ops[i])
			}
			return nil // Don't fail the whole group
		})
	}
	_ = g.Wait()
	return results
}

func (e *Executor) execute(ctx context.Context, op parser.Operation) OpResult {
	res := OpResult{Op: op, Status: StatusFailed}
	if err := ctx.Err(); err != nil {
		res.Status = StatusSkipped
		res.Err = err
		return res
	}
	if e.aborted.Load() {
		res.Status = StatusSkipped
		res.Err = ErrAborted
		return res
	}

	target, err := e.resolve(op.Path)
	if err != nil {
		res.Err = err
		e.logger.Warn("rejected %s %s: %v", op.Type, op.Path, err)
		return res
	}

	if op.Type == parser.OpRead {
		data, err := os.ReadFile(target)
		if err != nil {
			res.Err = fmt.Errorf("read %s: %w", op.Path, err)
			return res
		}
		res.Content = string(data)
		res.BytesBefore = len(data)
		res.BytesAfter = len(data)
		res.Status = StatusApplied
		return res
	}

	before, exists, err := readCurrent(target)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", op.Path, err)
		return res
	}

	after, err := nextContent(op, before, exists)
	if err != nil {
		res.Err = err
		e.logger.Warn("%s %s failed: %v", op.Type, op.Path, err)
		return res
	}

	res.BytesBefore = len(before)
	res.BytesAfter = len(after)
	res.Overwrote = exists && (op.Type == parser.OpCreate || op.Type == parser.OpWriteFull)
	res.Preview = e.renderer.Render(op.Path, before, after)

	if e.confirm != nil {
		switch e.confirm(op, res.Preview) {
		case DecisionSkip:
			res.Status = StatusSkipped
			return res
		case DecisionAbort:
			e.aborted.Store(true)
			res.Status = StatusSkipped
			res.Err = ErrAborted
			return res
		}
	}

	if e.dryRun {
		res.Status = StatusPlanned
		return res
	}

	if op.Type == parser.OpDelete {
		if err := os.Remove(target); err != nil {
			res.Err = fmt.Errorf("delete %s: %w", op.Path, err)
			return res
		}
	} else {
		if dir := filepath.Dir(target); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				res.Err = fmt.Errorf("create directories for %s: %w", op.Path, err)
				return res
			}
		}
		if err := os.WriteFile(target, []byte(after), 0o644); err != nil {
			res.Err = fmt.Errorf("write %s: %w", op.Path, err)
			return res
		}
	}

	res.Status = StatusApplied
	e.logger.Debug("%s %s: %s", op.Type, op.Path, res.Preview.Summary())
	return res
}

// nextContent computes the post-operation file content for mutating types.
func nextContent(op parser.Operation, before string, exists bool) (string, error) {
	switch op.Type {
	case parser.OpCreate, parser.OpWriteFull:
		return op.Content, nil
	case parser.OpPrepend:
		return seamPrepend(op.Content, before), nil
	case parser.OpAppend:
		return seamAppend(before, op.Content), nil
	case parser.OpEdit, parser.OpReplace:
		if !exists {
			return "", fmt.Errorf("edit %s: %w", op.Path, os.ErrNotExist)
		}
		applied, err := patch.Apply(before, op.Payload())
		if err != nil {
			return "", fmt.Errorf("edit %s: %w", op.Path, err)
		}
		return applied.Content, nil
	case parser.OpDelete:
		if !exists {
			return "", fmt.Errorf("delete %s: %w", op.Path, os.ErrNotExist)
		}
		return "", nil
	default:
		return "", fmt.Errorf("unsupported operation type %q", op.Type)
	}
}

// seamPrepend puts content ahead of original, inserting a newline at the
// seam when content does not already end with one.
func seamPrepend(content, original string) string {
	if original == "" {
		return content
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + original
}

// seamAppend puts content after original, inserting a newline at the seam
// when original does not already end with one.
func seamAppend(original, content string) string {
	if original == "" {
		return content
	}
	if !strings.HasSuffix(original, "\n") {
		original += "\n"
	}
	return original + content
}

func readCurrent(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}
