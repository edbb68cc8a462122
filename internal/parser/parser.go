// Package parser recovers a control block and a set of file operations
// from free-form model output. Parsing is lossy by design: a candidate
// block that fails to classify is evidence of reasoning, not an error.
package parser

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sokinpui/mdapply/internal/logging"
	"github.com/sokinpui/mdapply/model"
)

// Parse extracts the control block, the file operations and the reasoning
// lines from raw text. It returns nil when no control block is found or
// when no block yields a valid operation.
func Parse(raw string) *model.ParsedResponse {
	control, residual, ok := extractMetadata(raw)
	if !ok {
		logging.Get().Debug("no control block found")
		return nil
	}

	blocks := scanBlocks(residual)
	hints := blockHints(residual, len(blocks))

	var (
		ops       []model.FileOperation
		spans     [][2]int
		usedHints = make(map[string]struct{})
	)
	for i, b := range blocks {
		hint := ""
		if hints != nil {
			hint = hints[i]
		}
		op, usedHint := classify(b, hint)
		if op == nil {
			logging.Get().Debug("dropped block",
				zap.String("header", b.Header),
				zap.Int("offset", b.Start))
			continue
		}
		ops = append(ops, *op)
		spans = append(spans, [2]int{b.Start, b.End})
		if usedHint {
			usedHints[hint] = struct{}{}
		}
	}
	if len(ops) == 0 {
		return nil
	}

	return &model.ParsedResponse{
		Control:    control,
		Operations: ops,
		Reasoning:  reasoningLines(residual, spans, usedHints),
	}
}

// reasoningLines reconstructs the reasoning text: the residual with every
// classified block excised, split into non-empty trimmed lines. Hint
// lines that supplied a path are part of the directive and are dropped
// as well.
func reasoningLines(residual string, spans [][2]int, usedHints map[string]struct{}) []string {
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(residual[prev:s[0]])
		prev = s[1]
	}
	b.WriteString(residual[prev:])

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isUsedHintLine(line, usedHints) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// isUsedHintLine reports whether a line carries a backtick-quoted path
// that was consumed as a block's hint.
func isUsedHintLine(line string, usedHints map[string]struct{}) bool {
	for hint := range usedHints {
		if strings.Contains(line, "`"+hint+"`") {
			return true
		}
	}
	return false
}
