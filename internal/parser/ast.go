package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// blockHints walks the markdown AST of the residual text and collects,
// for each fenced code block, the backtick-quoted path in the paragraph
// immediately preceding it, if any. The result is aligned by block order
// with the scanner's output; when the AST and the scanner disagree on
// the number of blocks, no hints are used.
func blockHints(source string, want int) []string {
	var hints []string
	src := []byte(source)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		hint := ""
		if prev := fenced.PreviousSibling(); prev != nil {
			if p, ok := prev.(*ast.Paragraph); ok {
				hint = firstCodeSpan(p, src)
			}
		}
		hints = append(hints, hint)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil
	}
	if len(hints) != want {
		return nil
	}
	return hints
}

// firstCodeSpan returns the text of the first inline code span of a
// paragraph, the teacher's convention for naming the file a block
// belongs to.
func firstCodeSpan(p *ast.Paragraph, src []byte) string {
	for c := p.FirstChild(); c != nil; c = c.NextSibling() {
		if cs, ok := c.(*ast.CodeSpan); ok {
			return strings.TrimSpace(string(cs.Text(src)))
		}
	}
	return ""
}
