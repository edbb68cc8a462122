// Package mdapply orchestrates the full workflow: read a pasted model
// response, parse it into file operations, apply them to a snapshot of
// the working tree, and commit the result.
package mdapply

import (
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sort"

	"github.com/sokinpui/mdapply/cli"
	"github.com/sokinpui/mdapply/internal/config"
	"github.com/sokinpui/mdapply/internal/editor"
	"github.com/sokinpui/mdapply/internal/fs"
	"github.com/sokinpui/mdapply/internal/preview"
	"github.com/sokinpui/mdapply/internal/source"
	"github.com/sokinpui/mdapply/internal/state"
	"github.com/sokinpui/mdapply/model"
)

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	fileCfg        *config.Config
	stateManager   *state.Manager
	pathResolver   *fs.PathResolver
	sourceProvider *source.Provider
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	stateManager, err := state.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}

	fileCfg, err := config.Load(filepath.Dir(stateManager.StateDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lookupDirs := cfg.LookupDirs
	if len(lookupDirs) == 0 {
		lookupDirs = fileCfg.LookupDirs
	}

	return &App{
		cfg:            cfg,
		fileCfg:        fileCfg,
		stateManager:   stateManager,
		pathResolver:   fs.NewPathResolver(lookupDirs),
		sourceProvider: source.New(),
	}, nil
}

// Execute runs the application logic selected by the flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Revert:
		return a.revertLastRun()
	case a.cfg.Redo:
		return a.redoLastRun()
	default:
		return a.processContent()
	}
}

// processContent parses the source, applies the operations to a snapshot
// of the tree, and commits the result.
func (a *App) processContent() (model.Summary, error) {
	content, err := a.sourceProvider.GetContent()
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}

	parsed := ParseResponse(content)
	if parsed == nil {
		return model.Summary{Message: "No valid directives found. Nothing to do."}, nil
	}

	originals := fs.LoadSnapshot(parsed.Operations, a.pathResolver)
	result, err := ApplyOperations(parsed.Operations, originals)
	if err != nil {
		return model.Summary{}, err
	}

	summary := a.buildSummary(parsed, originals, result)

	if a.cfg.DryRun {
		summary.Message = "Dry run. No files were written."
		return summary, nil
	}

	ts, backupDir, trashDir := a.stateManager.NewRun()
	commit, err := fs.Commit(originals, result, a.pathResolver, backupDir, trashDir)
	if err != nil {
		return model.Summary{}, err
	}
	a.stateManager.Write(ts, commit.Actions)

	if !a.cfg.NoEditorSync && *a.fileCfg.EditorSync {
		a.syncEditor(commit)
	}

	return summary, nil
}

// buildSummary categorizes the snapshot difference and attaches line
// deltas, previews and commit metadata.
func (a *App) buildSummary(parsed *model.ParsedResponse, originals, result model.Snapshot) model.Summary {
	summary := model.Summary{
		Deltas:    make(map[string]model.LineDelta),
		CommitMsg: parsed.Control.GitCommitMsg,
	}

	withPreview := a.cfg.Preview || *a.fileCfg.Preview

	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		st := result[path]
		orig, had := originals[path]
		hadFile := had && !orig.Absent

		switch {
		case st.Absent && hadFile:
			summary.Deleted = append(summary.Deleted, path)
			summary.Deltas[path] = LineChanges(model.Delete(path), originals, result)

		case !st.Absent && !hadFile:
			summary.Created = append(summary.Created, path)
			summary.Deltas[path] = LineChanges(model.Write(path, "", model.DialectReplace), originals, result)
			if withPreview {
				a.addPreview(&summary, path, "", st.Content)
			}

		case !st.Absent && hadFile && st.Content != orig.Content:
			summary.Modified = append(summary.Modified, path)
			summary.Deltas[path] = LineChanges(model.Write(path, "", model.DialectReplace), originals, result)
			if withPreview {
				a.addPreview(&summary, path, orig.Content, st.Content)
			}
		}
	}

	for _, op := range parsed.Operations {
		if op.Kind == model.OpRename {
			summary.Renamed = append(summary.Renamed, fmt.Sprintf("%s → %s", op.From, op.To))
		}
	}
	return summary
}

func (a *App) addPreview(summary *model.Summary, path, oldContent, newContent string) {
	if summary.Previews == nil {
		summary.Previews = make(map[string]string)
	}
	if p := preview.Render(oldContent, newContent); p != "" {
		summary.Previews[path] = p
	}
}

// syncEditor reloads the touched files in a listening Neovim instance.
func (a *App) syncEditor(commit fs.CommitResult) {
	manager, err := editor.Connect()
	if err != nil || manager == nil {
		return
	}
	defer manager.Close()

	var paths []string
	for _, action := range commit.Actions {
		if action.Action != "delete" {
			paths = append(paths, action.Abs)
		}
	}
	manager.Reload(paths)
}

// revertLastRun undoes the most recent apply.
func (a *App) revertLastRun() (model.Summary, error) {
	reverted, failed, ok := a.stateManager.Undo()
	if !ok {
		return model.Summary{Message: "No run to revert."}, nil
	}
	return model.Summary{
		Modified: reverted,
		Failed:   failed,
		Message:  "Reverted last run.",
	}, nil
}

// redoLastRun re-applies the most recently reverted run.
func (a *App) redoLastRun() (model.Summary, error) {
	redone, failed, ok := a.stateManager.Redo()
	if !ok {
		return model.Summary{Message: "No run to redo."}, nil
	}
	return model.Summary{
		Modified: redone,
		Failed:   failed,
		Message:  "Redid last reverted run.",
	}, nil
}
