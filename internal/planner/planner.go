// Package planner turns a parsed operation list into per-file op chains:
// renames run first and rewrite later paths, stale paths are repaired by
// suffix matching, and the remainder is grouped by final path.
package planner

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sokinpui/mdapply/internal/logging"
	"github.com/sokinpui/mdapply/model"
)

// FileGroup is the ordered op chain for one final path.
type FileGroup struct {
	Path string
	Ops  []model.FileOperation
}

// Plan executes renames against working (which the caller owns and must
// have cloned), remaps the remaining operations through the resulting
// path-rewrite map, repairs stale paths, and groups by final path in
// envelope order.
func Plan(ops []model.FileOperation, working model.Snapshot) ([]FileGroup, []model.FileOperation, error) {
	var renames, others []model.FileOperation
	for _, op := range ops {
		if op.Kind == model.OpRename {
			renames = append(renames, op)
		} else {
			others = append(others, op)
		}
	}

	rewrite := make(map[string]string)
	for _, r := range renames {
		prev, ok := working[r.From]
		if !ok {
			return nil, nil, &model.ApplyError{Kind: model.ErrCannotRenameMissing, Path: r.From}
		}
		working[r.From] = model.FileState{Absent: true}
		working[r.To] = prev

		// Keep the map transitively closed: anything that already points
		// at the old name now points at the new one.
		for from, to := range rewrite {
			if to == r.From {
				rewrite[from] = r.To
			}
		}
		rewrite[r.From] = r.To
	}

	groups := make(map[string]*FileGroup)
	var order []string
	for _, op := range others {
		path := op.Path
		if to, ok := rewrite[path]; ok {
			path = to
		}
		path = repairPath(path, op, working)

		g, ok := groups[path]
		if !ok {
			g = &FileGroup{Path: path}
			groups[path] = g
			order = append(order, path)
		}
		op.Path = path
		g.Ops = append(g.Ops, op)
	}

	out := make([]FileGroup, 0, len(order))
	for _, path := range order {
		out = append(out, *groups[path])
	}
	return out, renames, nil
}

// repairPath reattaches a patch or delete to an existing snapshot path
// when the author used a short or stale one. A replace write is exempt:
// replacing at a new path is a legitimate creation.
func repairPath(path string, op model.FileOperation, snap model.Snapshot) string {
	if op.Kind == model.OpWrite && op.Dialect == model.DialectReplace {
		return path
	}
	if _, ok := snap[path]; ok {
		return path
	}

	base := basename(path)
	var candidates []string
	for key := range snap {
		if basename(key) == base {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return path
	}
	if len(candidates) == 1 {
		logging.Get().Debug("repaired path",
			zap.String("from", path), zap.String("to", candidates[0]))
		return candidates[0]
	}

	best, bestScore, unique := "", -1, false
	for _, c := range candidates {
		score := suffixScore(c, path)
		switch {
		case score > bestScore:
			best, bestScore, unique = c, score, true
		case score == bestScore:
			unique = false
		}
	}
	if !unique {
		// Ambiguous; leave the path so the applier surfaces the original
		// error.
		return path
	}
	logging.Get().Debug("repaired path",
		zap.String("from", path), zap.String("to", best))
	return best
}

// basename is the final path segment, with backslashes treated as
// separators for comparison only.
func basename(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// suffixScore counts how many trailing path segments of a and b match.
func suffixScore(a, b string) int {
	as := strings.Split(strings.ReplaceAll(a, "\\", "/"), "/")
	bs := strings.Split(strings.ReplaceAll(b, "\\", "/"), "/")
	score := 0
	for i, j := len(as)-1, len(bs)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if as[i] != bs[j] {
			break
		}
		score++
	}
	return score
}
