// Package preview renders short colorized diffs for the run summary.
package preview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const contextLines = 2

var (
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

var dmp = func() *diffmatchpatch.DiffMatchPatch {
	d := diffmatchpatch.New()
	d.DiffTimeout = 0
	return d
}()

// Render produces a compact line diff between two versions of a file.
// Unchanged runs are elided down to a little context.
func Render(oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}

	// Line-level reduction avoids newline boundary artifacts when the
	// char diff is mapped back to lines.
	a, b, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	for _, d := range diffs {
		lines := splitDiffLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				out.WriteString(addStyle.Render("+ " + line))
				out.WriteByte('\n')
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range lines {
				out.WriteString(removeStyle.Render("- " + line))
				out.WriteByte('\n')
			}
		case diffmatchpatch.DiffEqual:
			for _, line := range elide(lines) {
				out.WriteString(faintStyle.Render("  " + line))
				out.WriteByte('\n')
			}
		}
	}
	return strings.TrimRight(out.String(), "\n")
}

func splitDiffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// elide keeps a little context around changes and replaces the middle of
// a long unchanged run with an ellipsis marker.
func elide(lines []string) []string {
	if len(lines) <= 2*contextLines+1 {
		return lines
	}
	out := make([]string, 0, 2*contextLines+1)
	out = append(out, lines[:contextLines]...)
	out = append(out, "⋯")
	out = append(out, lines[len(lines)-contextLines:]...)
	return out
}
