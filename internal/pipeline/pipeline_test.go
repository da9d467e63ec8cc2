package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"neurolint/internal/backup"
)

// upperLayer is a trivial test Layer that replaces "old" with "new".
type upperLayer struct{ id int }

func (l upperLayer) ID() int   { return l.id }
func (l upperLayer) Name() string { return "test-layer" }
func (l upperLayer) Transform(text string, opts Options, filePath string, previous []LayerResult) LayerResult {
	if text == "" {
		return EmptyInputResult(l.id)
	}
	if !contains(text, "old") {
		return LayerResult{Success: true, Code: text, OriginalCode: text, LayerID: l.id}
	}
	newText := replaceAll(text, "old", "new")
	return LayerResult{
		Success:      true,
		Code:         newText,
		OriginalCode: text,
		ChangeCount:  1,
		LayerID:      l.id,
		Changes:      []Change{{Kind: ChangeApply, Description: "replaced old with new"}},
	}
}

func contains(s, sub string) bool    { return len(s) >= len(sub) && indexOf(s, sub) >= 0 }
func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
func replaceAll(s, old, new string) string {
	out := ""
	for i := 0; i < len(s); {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			out += new
			i += len(old)
		} else {
			out += string(s[i])
			i++
		}
	}
	return out
}

func newTestPipeline(t *testing.T, dryRun bool) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	backups, err := backup.New(filepath.Join(dir, "backups"), backup.DefaultRetention)
	if err != nil {
		t.Fatalf("backup.New: %v", err)
	}
	p := New([]Layer{upperLayer{id: 1}}, backups, Options{DryRun: dryRun})
	return p, dir
}

func TestRunFileAppliesLayerAndWrites(t *testing.T) {
	p, dir := newTestPipeline(t, false)
	target := filepath.Join(dir, "f.ts")
	os.WriteFile(target, []byte("let x = old;\n"), 0644)

	report, err := p.Run(target)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Files) != 1 {
		t.Fatalf("expected 1 file report, got %d", len(report.Files))
	}
	if report.Files[0].TotalChanges != 1 {
		t.Errorf("expected 1 change, got %d", report.Files[0].TotalChanges)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "let x = new;\n" {
		t.Errorf("expected file to be rewritten, got %q", string(data))
	}
}

func TestDryRunLeavesFileUnchanged(t *testing.T) {
	p, dir := newTestPipeline(t, true)
	target := filepath.Join(dir, "f.ts")
	original := "let x = old;\n"
	os.WriteFile(target, []byte(original), 0644)

	report, err := p.Run(target)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Files[0].TotalChanges != 1 {
		t.Errorf("expected dry-run to still report 1 change, got %d", report.Files[0].TotalChanges)
	}
	data, _ := os.ReadFile(target)
	if string(data) != original {
		t.Errorf("expected dry-run to leave file byte-identical, got %q", string(data))
	}
}

func TestEmptyFileYieldsEmptyResult(t *testing.T) {
	p, dir := newTestPipeline(t, false)
	target := filepath.Join(dir, "empty.ts")
	os.WriteFile(target, []byte(""), 0644)

	report, err := p.Run(target)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Files[0].LayerResults) != 1 || report.Files[0].LayerResults[0].Success {
		t.Errorf("expected single unsuccessful empty result, got %+v", report.Files[0].LayerResults)
	}
}

func TestRunErrorsOnMissingTarget(t *testing.T) {
	p, dir := newTestPipeline(t, false)
	target := filepath.Join(dir, "missing.ts")

	report, err := p.Run(target)
	if err == nil {
		t.Fatal("expected Run to error on a missing target path")
	}
	_ = report
}

func TestDirectoryTargetCollectsSourceFiles(t *testing.T) {
	p, dir := newTestPipeline(t, false)
	os.WriteFile(filepath.Join(dir, "a.ts"), []byte("old\n"), 0644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("old\n"), 0644)
	os.MkdirAll(filepath.Join(dir, "node_modules"), 0755)
	os.WriteFile(filepath.Join(dir, "node_modules", "c.ts"), []byte("old\n"), 0644)

	report, err := p.Run(dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Files) != 1 {
		t.Fatalf("expected only a.ts to be collected, got %d files", len(report.Files))
	}
}
