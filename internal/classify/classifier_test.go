package classify

import (
	"testing"

	"neurolint/internal/rule"
)

func TestClassifyJSXKeyPropIsCritical(t *testing.T) {
	score := Classify(Candidate{
		PatternSrc: `key={item.id}`,
		Category:   rule.CategoryJSXKeyProp,
		Shape:      DiffPureAddition,
	})
	if score != 0.95 {
		t.Errorf("expected clamped 0.95, got %f", score)
	}
}

func TestClassifyPenalizesDeepNesting(t *testing.T) {
	shallow := Classify(Candidate{PatternSrc: "x", Category: rule.CategoryImport, NestingDepth: 2})
	deep := Classify(Candidate{PatternSrc: "x", Category: rule.CategoryImport, NestingDepth: 11})
	if deep >= shallow {
		t.Errorf("expected deep nesting to reduce confidence: shallow=%f deep=%f", shallow, deep)
	}
}

func TestClassifyNeverBelowFloor(t *testing.T) {
	score := Classify(Candidate{
		PatternSrc:   "a very long pattern source that exceeds fifty characters in length for sure",
		Category:     rule.CategoryExpression,
		Shape:        DiffModification,
		NestingDepth: 20,
	})
	if score < 0.50 {
		t.Errorf("expected floor of 0.50, got %f", score)
	}
}

func TestValidateRejectsShortDescription(t *testing.T) {
	err := Validate("fix", `foo`, true, rule.CategoryImport, 0.8)
	if err == nil {
		t.Fatal("expected error for short description")
	}
}

func TestValidateRejectsOverlyBroadPattern(t *testing.T) {
	err := Validate("Adds missing import", `^`, true, rule.CategoryImport, 0.8)
	if err == nil {
		t.Fatal("expected error for overly broad pattern")
	}
}

func TestValidateRejectsInvalidRegex(t *testing.T) {
	err := Validate("Adds missing import", `(unterminated`, true, rule.CategoryImport, 0.8)
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestValidateAcceptsGoodCandidate(t *testing.T) {
	err := Validate("Enable TypeScript strict mode", `"strict"\s*:\s*false`, true, rule.CategoryTSConfigStrict, 0.9)
	if err != nil {
		t.Fatalf("expected valid candidate to pass, got %v", err)
	}
}
