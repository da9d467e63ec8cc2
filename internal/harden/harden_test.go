package harden

import (
	"strings"
	"testing"

	"neurolint/internal/pipeline"
	"neurolint/internal/rule"
)

func TestIsServerActionTopLevelDirective(t *testing.T) {
	src := "'use server';\n\nexport function deleteUser(id) {}\n"
	if !IsServerAction("actions.ts", src) {
		t.Fatal("expected top-level 'use server' directive to be detected")
	}
}

func TestIsServerActionFunctionDirective(t *testing.T) {
	src := `export async function deleteUser(id) {
  'use server';
  return id;
}`
	if !IsServerAction("actions.ts", src) {
		t.Fatal("expected function-level 'use server' directive to be detected")
	}
}

func TestIsServerActionFalseWithoutDirective(t *testing.T) {
	src := `export function helper(id) { return id; }`
	if IsServerAction("helper.ts", src) {
		t.Fatal("did not expect a plain function to be detected as a server action")
	}
}

func TestAnalyzeFindsDangerousCalls(t *testing.T) {
	src := `'use server';
export function run(cmd) {
  exec("rm file");
}`
	findings, recs := Analyze("actions.ts", src)
	if len(findings) == 0 {
		t.Fatal("expected at least one finding for exec() call")
	}
	foundCritical := false
	for _, f := range findings {
		if f.Severity == rule.SeverityCritical && strings.Contains(f.SignatureID, "exec") {
			foundCritical = true
		}
	}
	if !foundCritical {
		t.Errorf("expected a critical finding for exec, got %+v", findings)
	}
	if len(recs) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	if recs[0].Action != ActionRemoveDangerousCalls || !recs[0].AutoFixable {
		t.Errorf("expected REMOVE_DANGEROUS_CALLS auto-fixable recommendation first, got %+v", recs[0])
	}
}

// TestQuarantineNeutralizesCall exercises the happy-path neutralization.
func TestQuarantineNeutralizesCall(t *testing.T) {
	src := `'use server';
export function run(cmd) {
  exec("rm file");
}`
	newCode, success, reverted, transforms := Harden("actions.ts", src)
	if !success || reverted {
		t.Fatalf("expected successful hardening, got success=%v reverted=%v", success, reverted)
	}
	if !strings.Contains(newCode, quarantineMarker) {
		t.Errorf("expected %s marker in output, got: %s", quarantineMarker, newCode)
	}
	if !strings.Contains(newCode, "'exec'") {
		t.Errorf("expected function name 'exec' in output, got: %s", newCode)
	}
	if len(transforms) != 1 || transforms[0].FunctionName != "exec" {
		t.Errorf("expected one transformation for exec, got %+v", transforms)
	}
	if len(newCode) < len(src)/2 {
		t.Errorf("expected output at least 50%% of original length")
	}
}

// TestQuarantineRevertsOnOversizedShrink: a file
// whose hardening would remove >50% of the text must be rejected verbatim.
func TestQuarantineRevertsOnOversizedShrink(t *testing.T) {
	longArg := strings.Repeat("x", 800)
	src := "'use server';\nexec(\"" + longArg + "\");\n"
	_, success, reverted, _ := Harden("actions.ts", src)
	if success || !reverted {
		t.Fatalf("expected hardening to be rejected and reverted, got success=%v reverted=%v", success, reverted)
	}
}

func TestQuarantineNoOpWhenNoDangerousCalls(t *testing.T) {
	src := "'use server';\nexport function run(id) { return id; }\n"
	newCode, success, reverted, transforms := Harden("actions.ts", src)
	if !success || reverted {
		t.Fatalf("expected success with no changes, got success=%v reverted=%v", success, reverted)
	}
	if newCode != src {
		t.Errorf("expected unchanged output, got: %s", newCode)
	}
	if len(transforms) != 0 {
		t.Errorf("expected no transformations, got %+v", transforms)
	}
}

func TestLayerSkipsMutationWithoutQuarantine(t *testing.T) {
	l := New()
	src := `'use server';
export function run(cmd) {
  exec("rm file");
}`
	result := l.Transform(src, pipeline.Options{Quarantine: false}, "actions.ts", nil)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Code != src {
		t.Error("expected no mutation when quarantine is disabled")
	}
	if result.ChangeCount != 0 {
		t.Errorf("expected change_count 0, got %d", result.ChangeCount)
	}
	if len(result.SecurityFindings) == 0 {
		t.Error("expected security findings even without quarantine")
	}
}

func TestLayerHardensUnderQuarantine(t *testing.T) {
	l := New()
	src := `'use server';
export function run(cmd) {
  exec("rm file");
}`
	result := l.Transform(src, pipeline.Options{Quarantine: true}, "actions.ts", nil)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.ChangeCount != 1 {
		t.Errorf("expected change_count 1, got %d", result.ChangeCount)
	}
	if result.OriginalCode != src {
		t.Error("expected original_code to equal input verbatim")
	}
}

func TestLayerIgnoresNonServerActionFiles(t *testing.T) {
	l := New()
	src := `export function run(cmd) { exec("rm file"); }`
	result := l.Transform(src, pipeline.Options{Quarantine: true}, "plain.ts", nil)
	if !result.Success || result.ChangeCount != 0 || result.Code != src {
		t.Errorf("expected non-server-action file to pass through unchanged, got %+v", result)
	}
}

func TestLayerEmptyInput(t *testing.T) {
	l := New()
	result := l.Transform("", pipeline.Options{}, "actions.ts", nil)
	if result.Success {
		t.Error("expected success=false for empty input")
	}
	if len(result.Results) != 1 || result.Results[0].Kind != pipeline.EventEmpty {
		t.Errorf("expected a single empty event, got %+v", result.Results)
	}
}
