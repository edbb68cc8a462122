package planner

import (
	"testing"

	"github.com/sokinpui/mdapply/model"
)

func snapOf(paths ...string) model.Snapshot {
	s := make(model.Snapshot)
	for _, p := range paths {
		s[p] = model.FileState{Content: p + " content\n"}
	}
	return s
}

func TestPlanRenameMissingFails(t *testing.T) {
	_, _, err := Plan([]model.FileOperation{model.Rename("gone.ts", "b.ts")}, snapOf())
	applyErr, ok := err.(*model.ApplyError)
	if !ok || applyErr.Kind != model.ErrCannotRenameMissing {
		t.Fatalf("err = %v, want CannotRenameMissing", err)
	}
}

func TestPlanRenameMovesState(t *testing.T) {
	working := snapOf("a.ts")
	_, renames, err := Plan([]model.FileOperation{model.Rename("a.ts", "b.ts")}, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(renames) != 1 {
		t.Fatalf("got %d renames", len(renames))
	}
	if st := working["a.ts"]; !st.Absent {
		t.Error("a.ts should be absent after the rename")
	}
	if st := working["b.ts"]; st.Absent || st.Content != "a.ts content\n" {
		t.Errorf("b.ts state = %+v", working["b.ts"])
	}
}

func TestPlanPathAliasing(t *testing.T) {
	// A rename followed by a write to the old path must target the new
	// path.
	working := snapOf("a.ts")
	ops := []model.FileOperation{
		model.Rename("a.ts", "b.ts"),
		model.Write("a.ts", "new\n", model.DialectReplace),
	}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || groups[0].Path != "b.ts" {
		t.Fatalf("groups = %+v, want one group for b.ts", groups)
	}
	if groups[0].Ops[0].Path != "b.ts" {
		t.Errorf("op path not remapped: %+v", groups[0].Ops[0])
	}
}

func TestPlanTransitiveRenames(t *testing.T) {
	working := snapOf("a.ts")
	ops := []model.FileOperation{
		model.Rename("a.ts", "b.ts"),
		model.Rename("b.ts", "c.ts"),
		model.Write("a.ts", "new\n", model.DialectReplace),
	}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || groups[0].Path != "c.ts" {
		t.Fatalf("write should land on c.ts, got %+v", groups)
	}
}

func TestRepairUniqueBasename(t *testing.T) {
	working := snapOf("src/deep/util.ts")
	ops := []model.FileOperation{
		model.Write("util.ts", "<<<<<<< SEARCH\nx\n=======\ny\n>>>>>>> REPLACE\n", model.DialectSearchReplace),
	}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Path != "src/deep/util.ts" {
		t.Errorf("path = %q, want src/deep/util.ts", groups[0].Path)
	}
}

func TestRepairSuffixScore(t *testing.T) {
	working := snapOf("src/foo/util.ts", "lib/bar/util.ts")
	ops := []model.FileOperation{model.Delete("bar/util.ts")}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Path != "lib/bar/util.ts" {
		t.Errorf("path = %q, want lib/bar/util.ts", groups[0].Path)
	}
}

func TestRepairTieLeavesPath(t *testing.T) {
	working := snapOf("src/foo.ts", "lib/foo.ts")
	ops := []model.FileOperation{model.Delete("foo.ts")}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Path != "foo.ts" {
		t.Errorf("ambiguous repair should leave the path, got %q", groups[0].Path)
	}
}

func TestRepairSkipsReplaceWrites(t *testing.T) {
	// A replace on a new path is a legitimate creation.
	working := snapOf("src/new.ts")
	ops := []model.FileOperation{model.Write("new.ts", "x\n", model.DialectReplace)}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Path != "new.ts" {
		t.Errorf("replace write should not be repaired, got %q", groups[0].Path)
	}
}

func TestRepairBackslashNormalization(t *testing.T) {
	working := snapOf("src/deep/util.ts")
	ops := []model.FileOperation{model.Delete(`deep\util.ts`)}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Path != "src/deep/util.ts" {
		t.Errorf("path = %q, want src/deep/util.ts", groups[0].Path)
	}
}

func TestPlanGroupsPreserveOrder(t *testing.T) {
	working := snapOf("a.ts", "b.ts")
	ops := []model.FileOperation{
		model.Write("a.ts", "1\n", model.DialectReplace),
		model.Write("b.ts", "2\n", model.DialectReplace),
		model.Write("a.ts", "3\n", model.DialectReplace),
	}
	groups, _, err := Plan(ops, working)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups", len(groups))
	}
	if groups[0].Path != "a.ts" || len(groups[0].Ops) != 2 {
		t.Errorf("group a.ts = %+v", groups[0])
	}
	if groups[0].Ops[1].Content != "3\n" {
		t.Errorf("within-file op order lost: %+v", groups[0].Ops)
	}
}
