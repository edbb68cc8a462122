// Package linediff computes per-file add/remove counts for UI display.
package linediff

import (
	"strings"

	"github.com/sokinpui/mdapply/model"
)

// Changes reports the line delta an operation produced, given the
// snapshots before and after application.
func Changes(op model.FileOperation, originals, news model.Snapshot) model.LineDelta {
	switch op.Kind {
	case model.OpRename:
		return model.LineDelta{}

	case model.OpDelete:
		removed := 0
		if originals.Present(op.Path) {
			removed = len(splitLines(originals[op.Path].Content))
		}
		return delta(0, removed)

	case model.OpWrite:
		oldContent, oldOK := fileContent(originals, op.Path)
		newContent, newOK := fileContent(news, op.Path)

		if oldOK && newOK && oldContent == newContent {
			return model.LineDelta{}
		}
		if !oldOK || oldContent == "" {
			if !newOK || newContent == "" {
				return model.LineDelta{}
			}
			return delta(len(splitLines(newContent)), 0)
		}
		if !newOK || newContent == "" {
			return delta(0, len(splitLines(oldContent)))
		}

		oldLines := splitLines(oldContent)
		newLines := splitLines(newContent)
		l := lcsLength(oldLines, newLines)
		return delta(len(newLines)-l, len(oldLines)-l)
	}
	return model.LineDelta{}
}

func delta(added, removed int) model.LineDelta {
	return model.LineDelta{Added: added, Removed: removed, Difference: added + removed}
}

func fileContent(snap model.Snapshot, path string) (string, bool) {
	st, ok := snap[path]
	if !ok || st.Absent {
		return "", false
	}
	return st.Content, true
}

// splitLines splits on \n. A trailing newline yields a trailing empty
// line; that is intentional and matches the accounting downstream.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// lcsLength is the longest-common-subsequence length over line arrays,
// computed with the two-row table. The shorter sequence goes on the
// inner axis for memory locality: O(m*n) time, O(min(m,n)) space.
func lcsLength(a, b []string) int {
	if len(b) > len(a) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
