package model

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PatchDialect selects how a write body is interpreted.
type PatchDialect string

const (
	// DialectReplace means the body is the full new file contents.
	DialectReplace PatchDialect = "replace"
	// DialectStandardDiff means the body is a unified diff.
	DialectStandardDiff PatchDialect = "standard-diff"
	// DialectSearchReplace means the body is one or more SEARCH/REPLACE blocks.
	DialectSearchReplace PatchDialect = "search-replace"
)

// ParseDialect decodes a dialect token. An empty value defaults to replace.
func ParseDialect(value string) (PatchDialect, error) {
	switch value {
	case "":
		return DialectReplace, nil
	case string(DialectReplace), string(DialectStandardDiff), string(DialectSearchReplace):
		return PatchDialect(value), nil
	}
	return "", &ApplyError{Kind: ErrUnknownDialect, Path: value}
}

// OpKind tags a FileOperation variant.
type OpKind int

const (
	OpWrite OpKind = iota
	OpDelete
	OpRename
)

func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	case OpRename:
		return "rename"
	}
	return "unknown"
}

// FileOperation is one parsed directive: a write, a delete, or a rename.
// Path, Content and Dialect are set for writes, Path for deletes,
// From/To for renames.
type FileOperation struct {
	Kind    OpKind
	Path    string
	Content string
	Dialect PatchDialect
	From    string
	To      string
}

// Write builds a write operation.
func Write(path, content string, dialect PatchDialect) FileOperation {
	return FileOperation{Kind: OpWrite, Path: path, Content: content, Dialect: dialect}
}

// Delete builds a delete operation.
func Delete(path string) FileOperation {
	return FileOperation{Kind: OpDelete, Path: path}
}

// Rename builds a rename operation.
func Rename(from, to string) FileOperation {
	return FileOperation{Kind: OpRename, From: from, To: to}
}

// Target is the path the operation acts on (From for renames).
func (op FileOperation) Target() string {
	if op.Kind == OpRename {
		return op.From
	}
	return op.Path
}

// CommitMessage carries gitCommitMsg, which models emit either as a single
// scalar or as a list of lines.
type CommitMessage []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (m *CommitMessage) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*m = CommitMessage{s}
		return nil
	case yaml.SequenceNode:
		var lines []string
		if err := node.Decode(&lines); err != nil {
			return err
		}
		*m = CommitMessage(lines)
		return nil
	}
	return fmt.Errorf("gitCommitMsg: expected string or list, got yaml kind %d", node.Kind)
}

// Control is the trailing metadata block of a response.
// Unknown fields are tolerated for forward compatibility.
type Control struct {
	ProjectID     string           `yaml:"projectId"`
	UUID          string           `yaml:"uuid"`
	ChangeSummary []map[string]any `yaml:"changeSummary"`
	GitCommitMsg  CommitMessage    `yaml:"gitCommitMsg"`
	PromptSummary string           `yaml:"promptSummary"`
}

// Validate checks the required fields. The UUID must be well-formed.
func (c *Control) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("control: projectId is required")
	}
	if c.UUID == "" {
		return fmt.Errorf("control: uuid is required")
	}
	if _, err := uuid.Parse(c.UUID); err != nil {
		return fmt.Errorf("control: invalid uuid %q: %w", c.UUID, err)
	}
	return nil
}

// ParsedResponse is the envelope produced by parsing one raw response.
// Operations are in the textual order of their blocks.
type ParsedResponse struct {
	Control    Control
	Operations []FileOperation
	Reasoning  []string
}

// FileState is the state of one tracked path: file contents, or the absence
// of a file at a path the snapshot still tracks.
type FileState struct {
	Content string
	Absent  bool
}

// Snapshot maps paths to file states. A path missing from the map is
// unknown; a path mapped to an absent state is tracked but has no file.
type Snapshot map[string]FileState

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Present reports whether path currently holds content.
func (s Snapshot) Present(path string) bool {
	st, ok := s[path]
	return ok && !st.Absent
}

// LineDelta is the per-file add/remove accounting used by the UI.
type LineDelta struct {
	Added      int
	Removed    int
	Difference int
}

// Summary holds the results of one run for display.
type Summary struct {
	Created   []string
	Modified  []string
	Deleted   []string
	Renamed   []string
	Failed    []string
	Deltas    map[string]LineDelta
	Previews  map[string]string
	CommitMsg []string
	Message   string
}
