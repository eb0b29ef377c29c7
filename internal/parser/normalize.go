package parser

import "strings"

// Normalize applies the canonical pipeline to extracted operations: dedup
// first, then write_full precedence, then per-path edit merging. Order
// matters; each stage sees the previous stage's output.
func Normalize(ops []Operation) []Operation {
	ops = dedupe(ops)
	ops = applyWriteFullPrecedence(ops)
	ops = mergePathEdits(ops)
	return ops
}

// dedupe collapses operations with identical identity, keeping the earliest.
func dedupe(ops []Operation) []Operation {
	seen := make(map[string]bool, len(ops))
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		key := op.identity()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, op)
	}
	return out
}

// applyWriteFullPrecedence drops every non-write_full operation on a path
// that also has a write_full: a full rewrite supersedes piecemeal changes.
func applyWriteFullPrecedence(ops []Operation) []Operation {
	full := make(map[string]bool)
	for _, op := range ops {
		if op.Type == OpWriteFull {
			full[op.Path] = true
		}
	}
	if len(full) == 0 {
		return ops
	}
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if full[op.Path] && op.Type != OpWriteFull {
			continue
		}
		out = append(out, op)
	}
	return out
}

// mergePathEdits combines two or more edit/replace operations on one path
// into a single edit whose content stacks each SEARCH/REPLACE block in
// original relative order, so the patch engine applies them as one pass.
func mergePathEdits(ops []Operation) []Operation {
	counts := make(map[string]int)
	for _, op := range ops {
		if op.EditLike() {
			counts[op.Path]++
		}
	}

	merged := make(map[string]bool)
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if !op.EditLike() || counts[op.Path] < 2 {
			out = append(out, op)
			continue
		}
		if merged[op.Path] {
			continue
		}
		merged[op.Path] = true
		out = append(out, mergeEditsFor(ops, op.Path))
	}
	return out
}

func mergeEditsFor(ops []Operation, path string) Operation {
	result := Operation{Type: OpEdit, Path: path}
	var blocks []string
	for _, op := range ops {
		if op.Path != path || !op.EditLike() {
			continue
		}
		if result.Description == "" {
			result.Description = op.Description
		}
		blocks = append(blocks, op.Payload())
	}
	result.Content = strings.Join(blocks, "\n")
	return result
}

func trimmed(s string) string { return strings.TrimSpace(s) }
