package difftext

import "testing"

func TestComputeDiffPureAddition(t *testing.T) {
	old := "a\nb\nc\n"
	new := "a\nb\nc\nd\n"
	fd := ComputeDiff("f.ts", "f.ts", old, new)
	if !fd.HasChanges() {
		t.Fatal("expected changes to be detected")
	}
	if len(fd.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(fd.Hunks))
	}
	if fd.Hunks[0].Shape() != RegionPureAddition {
		t.Errorf("expected pure addition, got %v", fd.Hunks[0].Shape())
	}
}

func TestComputeDiffPureRemoval(t *testing.T) {
	old := "a\nb\nc\n"
	new := "a\nc\n"
	fd := ComputeDiff("f.ts", "f.ts", old, new)
	if fd.Hunks[0].Shape() != RegionPureRemoval {
		t.Errorf("expected pure removal, got %v", fd.Hunks[0].Shape())
	}
}

func TestComputeDiffModification(t *testing.T) {
	old := `"strict": false` + "\n"
	new := `"strict": true` + "\n"
	fd := ComputeDiff("tsconfig.json", "tsconfig.json", old, new)
	if fd.Hunks[0].Shape() != RegionModification {
		t.Errorf("expected modification, got %v", fd.Hunks[0].Shape())
	}
}

func TestComputeDiffNoChanges(t *testing.T) {
	content := "a\nb\nc\n"
	fd := ComputeDiff("f.ts", "f.ts", content, content)
	if fd.HasChanges() {
		t.Error("expected no changes for identical content")
	}
}

func TestEngineCachesIdenticalPairs(t *testing.T) {
	e := NewEngine()
	first := e.ComputeDiff("a.ts", "a.ts", "x\n", "y\n")
	second := e.ComputeDiff("b.ts", "b.ts", "x\n", "y\n")
	if len(first.Hunks) != len(second.Hunks) {
		t.Error("expected cached result to have same hunk count")
	}
	if second.OldPath != "b.ts" {
		t.Error("expected cached result to carry the new call's paths")
	}
}
