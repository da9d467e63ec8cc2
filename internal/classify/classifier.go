// Package classify implements the Pattern Classifier:
// it assigns a category and computes a confidence score for a candidate
// rule, and validates candidates before they are accepted into the Rule
// Store.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"neurolint/internal/logging"
	"neurolint/internal/rule"
)

// DiffShape describes how a candidate's underlying diff region changed,
// feeding the confidence formula's addition/removal/modification term.
type DiffShape int

const (
	DiffModification DiffShape = iota
	DiffPureAddition
	DiffPureRemoval
)

// Candidate is a not-yet-validated rule proposed by an extractor.
type Candidate struct {
	Description string
	PatternSrc  string // regex source, or structural descriptor text
	Category    rule.Category
	Shape       DiffShape
	NestingDepth int // structural complexity of the matched region
}

// baseWeight returns the category's base confidence band midpoint.
//
// tsconfig-strict is pulled out of the Configuration band into the
// critical band: a learned strict-mode rule must land at confidence
// >=0.90, which the plain Configuration weight (0.78) can never reach
// on a modification shape. Tightening type-checking is a safety-relevant
// change in the same way a missing key prop or a security finding is,
// so it gets the same base weight as those categories.
func baseWeight(c rule.Category) float64 {
	switch c {
	case rule.CategoryJSXKeyProp, rule.CategorySecurity, rule.CategoryTSConfigStrict:
		return 0.95
	case rule.CategoryJSXComponent, rule.CategoryAccessibility:
		return 0.88
	case rule.CategoryImport, rule.CategoryTSConfigJSX,
		rule.CategoryTSConfigTarget, rule.CategoryTSConfigModule, rule.CategoryNextTurbopack,
		rule.CategoryNextImages, rule.CategoryNextDeprecated, rule.CategoryPackageScripts,
		rule.CategoryPackageAddDep, rule.CategoryPackageUpdateDep:
		return 0.78
	case rule.CategoryComponentConversion, rule.CategoryReact19ForwardRef,
		rule.CategoryReact19Refs, rule.CategoryComponentProps:
		return 0.85
	default: // generic: export, function, expression
		return 0.65
	}
}

// overlyBroadAnchors are regex sources the classifier rejects outright
// as overly broad.
var overlyBroadAnchors = []string{`^$`, `^`, `$`, `.*`, `.+`}

// Classify computes a confidence score in [0.50, 0.95] for a candidate,
// applying the scoring steps in order.
func Classify(c Candidate) float64 {
	score := baseWeight(c.Category)

	switch c.Shape {
	case DiffPureAddition, DiffPureRemoval:
		score += 0.10
	case DiffModification:
		// no adjustment
	}

	if c.NestingDepth > 10 {
		score -= 0.15
	} else if c.NestingDepth > 5 {
		score -= 0.10
	}

	if len(c.PatternSrc) < 50 {
		score += 0.05
	}

	if score < 0.50 {
		score = 0.50
	}
	if score > 0.95 {
		score = 0.95
	}
	return score
}

// Validate checks that a candidate rule satisfies the store's
// acceptance criteria before it may be registered into the Rule Store.
func Validate(description string, patternSrc string, isRegex bool, category rule.Category, confidence float64) error {
	if len(description) < 5 {
		return fmt.Errorf("classify: description must be at least 5 chars, got %q", description)
	}
	if category == "" {
		return fmt.Errorf("classify: category must be set")
	}
	if confidence < 0.50 || confidence > 1.00 {
		return fmt.Errorf("classify: confidence %f out of range [0.50, 1.00]", confidence)
	}
	if patternSrc == "" {
		return fmt.Errorf("classify: pattern must not be empty")
	}

	if isRegex {
		if _, err := regexp.Compile(patternSrc); err != nil {
			return fmt.Errorf("classify: invalid regex pattern: %w", err)
		}
		for _, anchor := range overlyBroadAnchors {
			if strings.TrimSpace(patternSrc) == anchor {
				return fmt.Errorf("classify: pattern %q is overly broad", patternSrc)
			}
		}
	}

	logging.ExtractDebug("candidate validated: category=%s confidence=%.2f", category, confidence)
	return nil
}
