// Package applier runs per-file operation chains over a snapshot.
package applier

import (
	"golang.org/x/sync/errgroup"

	"github.com/sokinpui/mdapply/internal/patcher"
	"github.com/sokinpui/mdapply/internal/planner"
	"github.com/sokinpui/mdapply/model"
)

// Apply processes every group's op chain and commits the results into
// working. Groups target distinct paths, so they run in parallel; on any
// error nothing is committed and the first retained error is returned.
func Apply(working model.Snapshot, groups []planner.FileGroup) error {
	results := make([]model.FileState, len(groups))

	var g errgroup.Group
	for i, group := range groups {
		initial, ok := working[group.Path]
		if !ok {
			initial = model.FileState{Absent: true}
		}
		g.Go(func() error {
			final, err := runChain(group.Path, initial, group.Ops)
			if err != nil {
				return err
			}
			results[i] = final
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, group := range groups {
		working[group.Path] = results[i]
	}
	return nil
}

// runChain folds one file's operations over its initial state.
func runChain(path string, current model.FileState, ops []model.FileOperation) (model.FileState, error) {
	for _, op := range ops {
		switch op.Kind {
		case model.OpDelete:
			if current.Absent {
				return current, &model.ApplyError{Kind: model.ErrCannotDeleteMissing, Path: path}
			}
			current = model.FileState{Absent: true}

		case model.OpWrite:
			switch op.Dialect {
			case model.DialectReplace:
				current = model.FileState{Content: op.Content}

			case model.DialectStandardDiff:
				patched, err := patcher.ApplyStandardDiff(current.Content, op.Content)
				if err != nil {
					return current, &model.ApplyError{Kind: model.ErrPatchFailed, Path: path, Err: err}
				}
				current = model.FileState{Content: patched}

			case model.DialectSearchReplace:
				if current.Absent {
					return current, &model.ApplyError{Kind: model.ErrSearchReplaceOnNewFile, Path: path}
				}
				patched, err := patcher.ApplySearchReplace(current.Content, op.Content)
				if err != nil {
					return current, &model.ApplyError{Kind: model.ErrPatchFailed, Path: path, Err: err}
				}
				current = model.FileState{Content: patched}
			}
		}
	}
	return current, nil
}
