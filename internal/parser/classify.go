package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sokinpui/mdapply/internal/logging"
	"github.com/sokinpui/mdapply/model"
)

const (
	renameHeader   = "rename-file"
	deleteSentinel = "//TODO: delete this file"
)

// headerSpec is the result of parsing one header line.
type headerSpec struct {
	path     string
	dialect  model.PatchDialect
	explicit bool
	quoted   bool
}

// classify turns one scanned block into a file operation, or nil when the
// block is not a directive. hint is the paragraph preceding the block, if
// any; usedHint reports whether the path came from it.
func classify(b rawBlock, hint string) (op *model.FileOperation, usedHint bool) {
	header := normalizeHeader(b.Header)
	body := b.Body

	if header == renameHeader {
		return parseRename(body), false
	}

	spec, ok := parseHeader(header)
	if !ok && header != "" {
		// An explicit but unknown strategy rejects the block.
		logging.Get().Debug("block header rejected", zap.String("header", header))
		return nil, false
	}

	if spec.path == "" {
		spec, body, ok = recoverFromBodyLine(body)
		if !ok {
			spec, ok = recoverFromHint(hint)
			if !ok {
				return nil, false
			}
			usedHint = true
		}
	}

	if strings.TrimSpace(body) == deleteSentinel {
		d := model.Delete(spec.path)
		return &d, usedHint
	}

	dialect := spec.dialect
	if !spec.explicit {
		dialect = inferDialect(body)
	}

	if dialect == model.DialectReplace {
		body = stripOneLeadingNewline(body)
	}

	w := model.Write(spec.path, body, dialect)
	return &w, usedHint
}

// normalizeHeader trims the header and strips a slash-slash comment
// marker, keeping only the text after the first "//".
func normalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	if i := strings.Index(h, "//"); i >= 0 {
		h = strings.TrimSpace(h[i+2:])
	}
	return h
}

// parseHeader applies the header grammar: a quoted or unquoted path
// followed by an optional strategy token. When the grammar fails, the
// fallback splits on whitespace and accepts an unquoted path with spaces.
func parseHeader(h string) (headerSpec, bool) {
	if h == "" {
		return headerSpec{dialect: model.DialectReplace}, false
	}

	if strings.HasPrefix(h, `"`) {
		if end := strings.Index(h[1:], `"`); end > 0 {
			path := h[1 : 1+end]
			rest := strings.TrimSpace(h[2+end:])
			if rest == "" {
				return headerSpec{path: path, dialect: model.DialectReplace, quoted: true}, true
			}
			dialect, err := model.ParseDialect(rest)
			if err != nil {
				// The token sits in strategy position; an unknown
				// strategy rejects the block.
				logging.Get().Debug("unknown strategy", zap.Error(err))
				return headerSpec{}, false
			}
			return headerSpec{path: path, dialect: dialect, explicit: true, quoted: true}, true
		}
	}

	fields := strings.Fields(h)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if dialect, err := model.ParseDialect(last); err == nil {
			path := strings.TrimSpace(h[:len(h)-len(last)])
			return headerSpec{path: path, dialect: dialect, explicit: true}, true
		}
		// Not a strategy token: the whole header is a path with spaces.
	}
	return headerSpec{path: h, dialect: model.DialectReplace}, true
}

// recoverFromBodyLine recovers a path from a leading comment line of the
// body, for blocks whose fence line carries only a language tag. The
// consumed line's newline stays on the body so replace normalisation
// strips it. Unquoted paths with spaces are rejected here: they are how
// prose comments (and the delete sentinel) are told apart from paths.
func recoverFromBodyLine(body string) (headerSpec, string, bool) {
	line := body
	rest := ""
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		line = body[:i]
		rest = body[i:]
	}

	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return headerSpec{}, body, false
	}

	spec, ok := parseHeader(normalizeHeader(trimmed))
	if !ok || spec.path == "" {
		return headerSpec{}, body, false
	}
	if !spec.quoted && strings.ContainsAny(spec.path, " \t") {
		return headerSpec{}, body, false
	}
	return spec, rest, true
}

// recoverFromHint accepts the code-span path recovered from the
// paragraph preceding the block. Paths with spaces are rejected so a
// quoted command is not mistaken for one.
func recoverFromHint(hint string) (headerSpec, bool) {
	if hint == "" || strings.Contains(hint, " ") {
		return headerSpec{}, false
	}
	return headerSpec{path: hint, dialect: model.DialectReplace}, true
}

// parseRename decodes a rename body: a JSON object with exactly the
// fields from and to, both non-empty.
func parseRename(body string) *model.FileOperation {
	var spec struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(body))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		logging.Get().Debug("rename block rejected", zap.Error(err))
		return nil
	}
	if spec.From == "" || spec.To == "" {
		return nil
	}
	op := model.Rename(spec.From, spec.To)
	return &op
}

// inferDialect guesses the dialect of a body with no explicit strategy.
func inferDialect(body string) model.PatchDialect {
	b := stripOneLeadingNewline(body)
	if (strings.HasPrefix(b, "<<<<<<< SEARCH") || strings.Contains(b, "\n<<<<<<< SEARCH")) &&
		strings.Contains(b, ">>>>>>> REPLACE") {
		return model.DialectSearchReplace
	}
	if strings.HasPrefix(b, "--- ") && strings.Contains(b, "+++ ") && strings.Contains(b, "@@") {
		return model.DialectStandardDiff
	}
	return model.DialectReplace
}

// stripOneLeadingNewline removes at most one leading CRLF or LF.
// Trailing newlines are meaningful and always preserved.
func stripOneLeadingNewline(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	if strings.HasPrefix(s, "\n") {
		return s[1:]
	}
	return s
}
