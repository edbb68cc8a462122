package parser

import (
	"strings"
	"testing"

	"github.com/sokinpui/mdapply/model"
)

const (
	testUUID    = "123e4567-e89b-12d3-a456-426614174000"
	testControl = "```yaml\nprojectId: demo\nuuid: " + testUUID + "\n```"
)

func TestHeaderGrammar(t *testing.T) {
	cases := []struct {
		header  string
		path    string
		dialect model.PatchDialect
	}{
		{"src/a.ts", "src/a.ts", model.DialectReplace},
		{"src/a.ts standard-diff", "src/a.ts", model.DialectStandardDiff},
		{`"my file.ts"`, "my file.ts", model.DialectReplace},
		{`"my file.ts" search-replace`, "my file.ts", model.DialectSearchReplace},
		{"my file.ts", "my file.ts", model.DialectReplace},
		{"my file.ts search-replace", "my file.ts", model.DialectSearchReplace},
		{"// src/a.ts", "src/a.ts", model.DialectReplace},
		{`ts // "src/a.ts" standard-diff`, "src/a.ts", model.DialectStandardDiff},
	}

	for _, c := range cases {
		spec, ok := parseHeader(normalizeHeader(c.header))
		if !ok {
			t.Errorf("header %q: rejected", c.header)
			continue
		}
		if spec.path != c.path {
			t.Errorf("header %q: path = %q, want %q", c.header, spec.path, c.path)
		}
		if spec.dialect != c.dialect {
			t.Errorf("header %q: dialect = %q, want %q", c.header, spec.dialect, c.dialect)
		}
	}
}

func TestHeaderUnknownStrategyRejected(t *testing.T) {
	if _, ok := parseHeader(`"my file.ts" sideways-merge`); ok {
		t.Error("quoted path with unknown strategy should be rejected")
	}
}

func TestParseSingleYamlControl(t *testing.T) {
	raw := "Here is the change.\n\n```ts src/a.ts\nconst x = 1;\n```\n\n" + testControl + "\n"
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	if parsed.Control.ProjectID != "demo" {
		t.Errorf("projectId = %q, want demo", parsed.Control.ProjectID)
	}
	if parsed.Control.UUID != testUUID {
		t.Errorf("uuid = %q", parsed.Control.UUID)
	}
	if len(parsed.Operations) != 1 {
		t.Fatalf("got %d operations, want 1", len(parsed.Operations))
	}
	op := parsed.Operations[0]
	if op.Kind != model.OpWrite || op.Path != "src/a.ts" || op.Dialect != model.DialectReplace {
		t.Errorf("unexpected operation: %+v", op)
	}
	if op.Content != "const x = 1;\n" {
		t.Errorf("content = %q", op.Content)
	}
	if len(parsed.Reasoning) != 1 || parsed.Reasoning[0] != "Here is the change." {
		t.Errorf("reasoning = %q", parsed.Reasoning)
	}
}

func TestParsePathOnBodyCommentLine(t *testing.T) {
	// The leading newline consumed with the comment line is stripped by
	// replace normalisation; the trailing newline stays.
	raw := "```ts\n// src/a.ts\nconst x = 1;\n```\n\n" + testControl
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	op := parsed.Operations[0]
	if op.Path != "src/a.ts" {
		t.Errorf("path = %q, want src/a.ts", op.Path)
	}
	if op.Content != "const x = 1;\n" {
		t.Errorf("content = %q, want %q", op.Content, "const x = 1;\n")
	}
}

func TestParseLastYamlBlockWins(t *testing.T) {
	invalid := "```yaml\nprojectId: demo\n```" // no uuid
	raw := invalid + "\n\n```ts a.ts\nx\n```\n\n" + testControl
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	if parsed.Control.UUID != testUUID {
		t.Errorf("expected the trailing block to win, got uuid %q", parsed.Control.UUID)
	}
}

func TestParseOnlyEarlierYamlValid(t *testing.T) {
	// Strategy 1 tries only the last fenced yaml block; an earlier valid
	// one is ignored, and the invalid tail has no bare projectId anchor
	// once the fence is in the way.
	raw := testControl + "\n\n```ts a.ts\nx\n```\n\n```yaml\nnot: a control block\n```"
	if parsed := Parse(raw); parsed != nil {
		t.Errorf("expected nil, got control %+v", parsed.Control)
	}
}

func TestParseBareTailControl(t *testing.T) {
	raw := "```ts a.ts\nx\n```\n\nprojectId: demo\nuuid: " + testUUID
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	if parsed.Control.ProjectID != "demo" {
		t.Errorf("projectId = %q", parsed.Control.ProjectID)
	}
	if len(parsed.Operations) != 1 {
		t.Errorf("got %d operations", len(parsed.Operations))
	}
}

func TestParseNoControlBlock(t *testing.T) {
	if parsed := Parse("```ts a.ts\nx\n```\n"); parsed != nil {
		t.Error("expected nil without a control block")
	}
}

func TestParseNoValidOperations(t *testing.T) {
	raw := "```\njust a snippet with no path\n```\n\n" + testControl
	if parsed := Parse(raw); parsed != nil {
		t.Errorf("expected nil, got %d operations", len(parsed.Operations))
	}
}

func TestParseRenameBlock(t *testing.T) {
	raw := "```json rename-file\n{\"from\":\"a.ts\",\"to\":\"b.ts\"}\n```\n\n" + testControl
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	op := parsed.Operations[0]
	if op.Kind != model.OpRename || op.From != "a.ts" || op.To != "b.ts" {
		t.Errorf("unexpected operation: %+v", op)
	}
}

func TestParseRenameBadJSONDropped(t *testing.T) {
	raw := "```json rename-file\n{\"from\":\"a.ts\"}\n```\n\n```ts b.ts\nx\n```\n\n" + testControl
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	if len(parsed.Operations) != 1 || parsed.Operations[0].Kind != model.OpWrite {
		t.Errorf("bad rename body should be dropped, got %+v", parsed.Operations)
	}
}

func TestParseDeleteSentinel(t *testing.T) {
	raw := "```ts src/old.ts\n//TODO: delete this file\n```\n\n" + testControl
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	op := parsed.Operations[0]
	if op.Kind != model.OpDelete || op.Path != "src/old.ts" {
		t.Errorf("unexpected operation: %+v", op)
	}
}

func TestParseOperationsKeepTextualOrder(t *testing.T) {
	raw := "```ts one.ts\n1\n```\n\n```ts two.ts\n2\n```\n\n```ts three.ts\n3\n```\n\n" + testControl
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	var got []string
	for _, op := range parsed.Operations {
		got = append(got, op.Path)
	}
	want := []string{"one.ts", "two.ts", "three.ts"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestParseHintPathRecovery(t *testing.T) {
	raw := "Update `src/util.ts` as follows:\n\n```\nexport const n = 2;\n```\n\n" + testControl
	parsed := Parse(raw)
	if parsed == nil {
		t.Fatal("Parse returned nil")
	}
	op := parsed.Operations[0]
	if op.Path != "src/util.ts" {
		t.Errorf("path = %q, want src/util.ts", op.Path)
	}
	for _, line := range parsed.Reasoning {
		if strings.Contains(line, "src/util.ts") {
			t.Errorf("used hint line leaked into reasoning: %q", line)
		}
	}
}

func TestInferDialect(t *testing.T) {
	cases := []struct {
		body string
		want model.PatchDialect
	}{
		{"plain content\n", model.DialectReplace},
		{"--- a/x.ts\n+++ b/x.ts\n@@ -1 +1 @@\n-a\n+b\n", model.DialectStandardDiff},
		{"<<<<<<< SEARCH\nold\n=======\nnew\n>>>>>>> REPLACE\n", model.DialectSearchReplace},
		{"intro\n<<<<<<< SEARCH\nold\n=======\nnew\n>>>>>>> REPLACE\n", model.DialectSearchReplace},
	}
	for _, c := range cases {
		if got := inferDialect(c.body); got != c.want {
			t.Errorf("inferDialect(%q) = %q, want %q", c.body, got, c.want)
		}
	}
}

func TestControlUnknownFieldsTolerated(t *testing.T) {
	raw := "```ts a.ts\nx\n```\n\n```yaml\nprojectId: demo\nuuid: " + testUUID + "\nexperimental: true\n```"
	if parsed := Parse(raw); parsed == nil {
		t.Error("unknown control fields should be tolerated")
	}
}

func TestControlRejectsBadUUID(t *testing.T) {
	raw := "```ts a.ts\nx\n```\n\n```yaml\nprojectId: demo\nuuid: not-a-uuid\n```"
	if parsed := Parse(raw); parsed != nil {
		t.Error("a malformed uuid should invalidate the control block")
	}
}

func TestControlCommitMessageForms(t *testing.T) {
	scalar := "```ts a.ts\nx\n```\n\n```yaml\nprojectId: demo\nuuid: " + testUUID + "\ngitCommitMsg: fix parser\n```"
	parsed := Parse(scalar)
	if parsed == nil || len(parsed.Control.GitCommitMsg) != 1 || parsed.Control.GitCommitMsg[0] != "fix parser" {
		t.Errorf("scalar commit message: %+v", parsed)
	}

	list := "```ts a.ts\nx\n```\n\n```yaml\nprojectId: demo\nuuid: " + testUUID + "\ngitCommitMsg:\n  - fix parser\n  - second line\n```"
	parsed = Parse(list)
	if parsed == nil || len(parsed.Control.GitCommitMsg) != 2 {
		t.Errorf("list commit message: %+v", parsed)
	}
}
