package rulestore

import (
	"path/filepath"
	"testing"

	"neurolint/internal/rule"
)

func newStrictModeRule(t *testing.T) *rule.Rule {
	t.Helper()
	r, err := rule.NewRegexRule(`"strict"\s*:\s*false`, "g")
	if err != nil {
		t.Fatalf("NewRegexRule: %v", err)
	}
	r.Description = "Enable TypeScript strict mode"
	r.Category = rule.CategoryTSConfigStrict
	r.Confidence = 0.92
	r.Layer = 1
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: `"strict": true`}
	return r
}

func TestAddPersistsAndLoadRestores(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learned-rules.json")

	s := New(path)
	isNew, err := s.Add(newStrictModeRule(t))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !isNew {
		t.Fatal("expected first add to be new")
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	all := reloaded.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 rule after reload, got %d", len(all))
	}
	if all[0].Description != "Enable TypeScript strict mode" {
		t.Errorf("unexpected description after reload: %q", all[0].Description)
	}
}

func TestAddDeduplicatesAndBumpsConfidence(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "learned-rules.json"))

	first, _ := s.Add(newStrictModeRule(t))
	second, _ := s.Add(newStrictModeRule(t))
	if !first {
		t.Fatal("expected first insert to report new")
	}
	if second {
		t.Fatal("expected reobservation to report not-new")
	}

	all := s.All()
	if len(all) != 1 {
		t.Fatalf("expected dedup to keep a single rule, got %d", len(all))
	}
	if all[0].Frequency != 2 {
		t.Errorf("expected frequency bumped to 2, got %d", all[0].Frequency)
	}
	if all[0].Confidence <= 0.92 {
		t.Errorf("expected confidence bumped above 0.92, got %f", all[0].Confidence)
	}
}

func TestApplySubstitutesAtOrAboveThreshold(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "learned-rules.json"))
	if _, err := s.Add(newStrictModeRule(t)); err != nil {
		t.Fatal(err)
	}

	text := `{"compilerOptions": {"strict": false}}`
	out, applied := s.Apply(text, 0)
	if len(applied) != 1 {
		t.Fatalf("expected 1 applied rule, got %d: %v", len(applied), applied)
	}
	if out != `{"compilerOptions": {"strict": true}}` {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestApplySkipsRulesBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "learned-rules.json"))
	low := newStrictModeRule(t)
	low.Confidence = 0.5
	if _, err := s.Add(low); err != nil {
		t.Fatal(err)
	}

	text := `{"strict": false}`
	out, applied := s.Apply(text, 0.70)
	if len(applied) != 0 {
		t.Errorf("expected no rules applied below threshold, got %v", applied)
	}
	if out != text {
		t.Errorf("expected text unchanged, got %q", out)
	}
}

func TestApplyContinuesAfterPanickingRule(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "learned-rules.json"))

	panicky, _ := rule.NewRegexRule("BAD", "")
	panicky.Description = "Panics during substitution"
	panicky.Category = rule.CategoryExpression
	panicky.Confidence = 0.9
	panicky.Replacement = rule.Replacement{Fn: func(string) string { panic("boom") }}
	s.Add(panicky)
	s.Add(newStrictModeRule(t))

	text := `BAD "strict": false`
	out, applied := s.Apply(text, 0)
	if len(applied) != 1 || applied[0] != "Enable TypeScript strict mode" {
		t.Errorf("expected only the well-behaved rule to apply, got %v", applied)
	}
	if out != `BAD "strict": true` {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDeleteRemovesRule(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "learned-rules.json"))
	s.Add(newStrictModeRule(t))

	id := s.All()[0].ID
	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(s.All()) != 0 {
		t.Error("expected rule to be removed")
	}
	if err := s.Delete(id); err == nil {
		t.Error("expected error deleting already-deleted id")
	}
}

func TestEditUpdatesRuleAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learned-rules.json")
	s := New(path)
	s.Add(newStrictModeRule(t))
	id := s.All()[0].ID

	err := s.Edit(id, func(r *rule.Rule) {
		r.Confidence = 0.80
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	reloaded := New(path)
	reloaded.Load()
	if reloaded.All()[0].Confidence != 0.80 {
		t.Errorf("expected edited confidence to persist, got %f", reloaded.All()[0].Confidence)
	}
}

func TestResetClearsAllRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learned-rules.json")
	s := New(path)
	s.Add(newStrictModeRule(t))

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(s.All()) != 0 {
		t.Error("expected no rules after reset")
	}

	reloaded := New(path)
	reloaded.Load()
	if len(reloaded.All()) != 0 {
		t.Error("expected reset to persist as an empty rule set")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "learned-rules.json"))
	s.Add(newStrictModeRule(t))

	exportPath := filepath.Join(dir, "exported.json")
	if err := s.Export(exportPath); err != nil {
		t.Fatalf("Export: %v", err)
	}

	other := New(filepath.Join(dir, "other-learned-rules.json"))
	if err := other.Import(exportPath); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(other.All()) != 1 {
		t.Fatalf("expected imported rule set to have 1 rule, got %d", len(other.All()))
	}
	if other.All()[0].Description != "Enable TypeScript strict mode" {
		t.Errorf("unexpected imported description: %q", other.All()[0].Description)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("expected missing file to be a no-op, got %v", err)
	}
	if len(s.All()) != 0 {
		t.Error("expected empty rule set")
	}
}
