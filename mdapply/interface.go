package mdapply

import (
	"github.com/sokinpui/mdapply/internal/applier"
	"github.com/sokinpui/mdapply/internal/linediff"
	"github.com/sokinpui/mdapply/internal/parser"
	"github.com/sokinpui/mdapply/internal/planner"
	"github.com/sokinpui/mdapply/model"
)

// ParseResponse extracts the control block, file operations and
// reasoning lines from a raw model response. It returns nil when no
// control block is found or no block yields a valid operation.
func ParseResponse(raw string) *model.ParsedResponse {
	return parser.Parse(raw)
}

// ApplyOperations runs the parsed operations over a snapshot and returns
// the new snapshot. The input snapshot is never mutated; on error no
// snapshot is returned.
func ApplyOperations(ops []model.FileOperation, originals model.Snapshot) (model.Snapshot, error) {
	working := originals.Clone()
	groups, _, err := planner.Plan(ops, working)
	if err != nil {
		return nil, err
	}
	if err := applier.Apply(working, groups); err != nil {
		return nil, err
	}
	return working, nil
}

// LineChanges reports the per-file add/remove counts an operation
// produced, given the snapshots before and after application.
func LineChanges(op model.FileOperation, originals, news model.Snapshot) model.LineDelta {
	return linediff.Changes(op, originals, news)
}
