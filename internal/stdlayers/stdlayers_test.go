package stdlayers

import (
	"testing"

	"neurolint/internal/pipeline"
)

func TestTSConfigStrictLayerRewritesAndReportsChange(t *testing.T) {
	l := TSConfigStrictLayer()
	before := `{"compilerOptions":{"strict":false}}`
	result := l.Transform(before, pipeline.Options{}, "tsconfig.json", nil)

	if !result.Success || result.ChangeCount != 1 {
		t.Fatalf("expected successful change, got %+v", result)
	}
	if result.OriginalCode != before {
		t.Error("expected original_code to equal input text unmodified")
	}
	want := `{"compilerOptions":{"strict": true}}`
	if result.Code != want {
		t.Errorf("got %q, want %q", result.Code, want)
	}
}

func TestRegexLayerNoMatchReportsNoChange(t *testing.T) {
	l := TSConfigStrictLayer()
	before := `{"compilerOptions":{"strict":true}}`
	result := l.Transform(before, pipeline.Options{}, "tsconfig.json", nil)
	if result.ChangeCount != 0 || result.Code != before {
		t.Errorf("expected no-op on already-strict input, got %+v", result)
	}
}

func TestNoopLayerAlwaysPassesThrough(t *testing.T) {
	l := NewNoopLayer(2, "placeholder")
	before := "const x = 1;"
	result := l.Transform(before, pipeline.Options{}, "f.ts", nil)
	if result.ChangeCount != 0 || result.Code != before {
		t.Errorf("expected pass-through, got %+v", result)
	}
}

func TestEmptyInputYieldsEmptyResult(t *testing.T) {
	l := TSConfigStrictLayer()
	result := l.Transform("", pipeline.Options{}, "f.ts", nil)
	if result.Success {
		t.Error("expected success=false for empty input")
	}
	if len(result.Results) != 1 || result.Results[0].Kind != pipeline.EventEmpty {
		t.Errorf("expected single empty event, got %+v", result.Results)
	}
}
