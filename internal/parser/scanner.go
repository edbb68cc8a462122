package parser

import (
	"regexp"
	"strings"
)

// rawBlock is one fenced code region of the residual text.
type rawBlock struct {
	// Start and End delimit the whole fenced region in the source,
	// opening fence through closing fence.
	Start int
	End   int
	// Info is the language token of the opening fence, Header the rest of
	// the opening line. Body is the raw content between the fences with
	// newlines preserved.
	Info   string
	Header string
	Body   string
}

// blockRegex finds fenced code regions in a single pass. Matches are
// disjoint and in source order.
var blockRegex = regexp.MustCompile(
	"(?m)^```(?P<open>[^\n]*)\n" +
		"(?P<body>(?s:.*?))" +
		"^[ \t]*```[ \t]*$")

// scanBlocks yields every fenced code region of text.
func scanBlocks(text string) []rawBlock {
	matches := blockRegex.FindAllStringSubmatchIndex(text, -1)
	blocks := make([]rawBlock, 0, len(matches))

	openIdx := blockRegex.SubexpIndex("open")
	bodyIdx := blockRegex.SubexpIndex("body")

	for _, m := range matches {
		open := text[m[2*openIdx]:m[2*openIdx+1]]
		body := text[m[2*bodyIdx]:m[2*bodyIdx+1]]
		info, header := splitOpenLine(open)
		blocks = append(blocks, rawBlock{
			Start:  m[0],
			End:    m[1],
			Info:   info,
			Header: header,
			Body:   body,
		})
	}
	return blocks
}

// splitOpenLine separates the info token from the header on an opening
// fence line. The separator is the first whitespace or the first "//",
// whichever comes first, so both "ts // path" and "ts// path" work.
func splitOpenLine(open string) (info, header string) {
	open = strings.TrimSpace(open)
	if open == "" {
		return "", ""
	}
	if strings.HasPrefix(open, `"`) {
		// A quoted path has no info token in front of it.
		return "", open
	}

	slash := strings.Index(open, "//")
	ws := strings.IndexAny(open, " \t")

	if slash == 0 {
		return "", open
	}
	if slash >= 0 && (ws < 0 || slash < ws) {
		return open[:slash], open[slash:]
	}
	if ws >= 0 {
		return open[:ws], strings.TrimSpace(open[ws:])
	}

	// A single token: a path-like or quoted token is a header, anything
	// else is a bare language tag.
	if strings.ContainsAny(open, "/.\\\"") || open == renameHeader {
		return "", open
	}
	return open, ""
}
