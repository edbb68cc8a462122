package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sokinpui/mdapply/internal/logging"
	"github.com/sokinpui/mdapply/model"
)

// tailWindow is how many trailing lines are scanned for a bare control
// block. The window keeps a projectId mention in prose from matching.
const tailWindow = 20

// yamlFenceRegex finds fenced regions whose info string is yaml or yml.
var yamlFenceRegex = regexp.MustCompile(
	"(?mi)^```[ \t]*ya?ml[ \t]*\n" +
		"(?s:(?P<body>.*?))" +
		"^[ \t]*```[ \t]*$")

// extractMetadata recovers the trailing control block from raw text.
// It tries the last fenced YAML region first, then a bare YAML tail
// anchored by projectId:. Parse and validation failures fall through
// silently; ok is false only when both strategies fail.
func extractMetadata(raw string) (control model.Control, residual string, ok bool) {
	if c, rest, found := lastFencedControl(raw); found {
		return c, rest, true
	}
	if c, rest, found := bareTailControl(raw); found {
		return c, rest, true
	}
	return model.Control{}, raw, false
}

func lastFencedControl(raw string) (model.Control, string, bool) {
	matches := yamlFenceRegex.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return model.Control{}, "", false
	}

	bodyIdx := yamlFenceRegex.SubexpIndex("body")
	m := matches[len(matches)-1]
	body := raw[m[2*bodyIdx]:m[2*bodyIdx+1]]

	control, err := decodeControl(body)
	if err != nil {
		logging.Get().Debug("last fenced yaml block rejected", zap.Error(err))
		return model.Control{}, "", false
	}

	residual := strings.TrimSpace(raw[:m[0]] + raw[m[1]:])
	return control, residual, true
}

func bareTailControl(raw string) (model.Control, string, bool) {
	trimmed := strings.TrimSpace(raw)
	lines := strings.Split(trimmed, "\n")

	first := len(lines) - tailWindow
	if first < 0 {
		first = 0
	}

	for i := first; i < len(lines); i++ {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), "projectId:") {
			continue
		}
		tail := strings.Join(lines[i:], "\n")
		control, err := decodeControl(tail)
		if err != nil {
			logging.Get().Debug("bare control tail rejected", zap.Error(err))
			continue
		}
		residual := strings.TrimSpace(strings.Join(lines[:i], "\n"))
		return control, residual, true
	}
	return model.Control{}, "", false
}

func decodeControl(text string) (model.Control, error) {
	var control model.Control
	if err := yaml.Unmarshal([]byte(text), &control); err != nil {
		return model.Control{}, err
	}
	if err := control.Validate(); err != nil {
		return model.Control{}, err
	}
	return control, nil
}
