package parser

import "scribe/internal/patch"

// OpType identifies a canonical file operation.
type OpType string

const (
	OpCreate    OpType = "create"
	OpEdit      OpType = "edit"
	OpDelete    OpType = "delete"
	OpRead      OpType = "read"
	OpPrepend   OpType = "prepend"
	OpAppend    OpType = "append"
	OpWriteFull OpType = "write_full"
	OpReplace   OpType = "replace"
)

// bracketTypes are the types the bracket wire format may declare. The two
// invoke types (write_full, replace) never appear in TYPE: headers.
var bracketTypes = map[OpType]bool{
	OpCreate:  true,
	OpEdit:    true,
	OpDelete:  true,
	OpRead:    true,
	OpPrepend: true,
	OpAppend:  true,
}

// Operation is one canonical file-level change instruction. Immutable once
// returned by ParseFileOperations.
type Operation struct {
	Type        OpType `json:"type"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	Search      string `json:"search,omitempty"`
	Replace     string `json:"replace,omitempty"`
}

// Mutating reports whether executing the operation writes to the workspace.
func (op Operation) Mutating() bool {
	return op.Type != OpRead
}

// EditLike reports whether the operation patches existing content rather
// than supplying it whole.
func (op Operation) EditLike() bool {
	return op.Type == OpEdit || op.Type == OpReplace
}

// Payload returns the diff payload for an edit-like operation: the content
// itself when it already stacks SEARCH/REPLACE blocks (merged operations),
// otherwise one block built from the Search/Replace fields.
func (op Operation) Payload() string {
	if op.Content != "" && patch.ContainsBlock(op.Content) {
		return op.Content
	}
	return patch.FormatBlock(op.Search, op.Replace)
}

// identity is the dedup key: type, path, and whitespace-trimmed bodies.
func (op Operation) identity() string {
	return string(op.Type) + "\x00" + op.Path + "\x00" +
		trimmed(op.Content) + "\x00" + trimmed(op.Search) + "\x00" + trimmed(op.Replace)
}
