package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"neurolint/internal/classify"
	"neurolint/internal/rule"
)

// IsComponentTarget detects a JSX/TSX file by extension.
func IsComponentTarget(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jsx" || ext == ".tsx"
}

var (
	jsxTagOpen   = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9]*)\b([^>]*?)(/?)>`)
	importLineRe = regexp.MustCompile(`^\s*import .*from\s+['"][^'"]+['"];?\s*$`)
)

// Component extracts candidate rules from a before/after pair of JSX/TSX
// source: HTML-to-component renames, added key props
// inside .map() children, added aria-*/alt attributes, forwardRef-to-ref
// migrations, new imports required by component conversions, and a
// hook-gated 'use client' directive addition.
func Component(path, before, after string) []*rule.Rule {
	var rules []*rule.Rule
	rules = append(rules, keyPropAdditions(before, after)...)
	rules = append(rules, accessibilityAttributeAdditions(before, after)...)
	rules = append(rules, htmlToComponentRenames(before, after)...)
	rules = append(rules, forwardRefMigrations(before, after)...)
	rules = append(rules, newComponentImports(before, after)...)
	rules = append(rules, useClientDirectiveAdditions(before, after)...)
	return rules
}

// reactHookCallRe recognizes the conventional React hook call shape
// (useState(...), useEffect(...), a custom useFoo(...)) used to gate the
// 'use client' directive rule below on actual hook usage.
var reactHookCallRe = regexp.MustCompile(`\buse[A-Z]\w*\s*\(`)

// useClientDirective reports the trimmed 'use client' directive line at
// the very top of text, or "" if text doesn't open with one.
func useClientDirective(text string) string {
	line := strings.TrimSpace(firstNonEmptyLine(text))
	line = strings.TrimSuffix(line, ";")
	if line == `'use client'` || line == `"use client"` {
		return firstNonEmptyLine(text)
	}
	return ""
}

// useClientDirectiveAdditions detects a leading 'use client' directive
// added to a file that uses React hooks: the
// learned rule's pattern is the exact pre-existing anchor line (commonly
// the first import), so applying it to an unrelated, hook-free file
// simply never matches: the gate on hook usage lives both in whether the
// rule is learned at all and in what it can possibly match.
func useClientDirectiveAdditions(before, after string) []*rule.Rule {
	if useClientDirective(before) != "" || useClientDirective(after) == "" {
		return nil
	}
	if !reactHookCallRe.MatchString(before) {
		return nil
	}
	anchor := firstNonEmptyLine(before)
	if anchor == "" {
		return nil
	}

	description := "Add 'use client' directive to hook-using component"
	patternSrc := regexp.QuoteMeta(anchor)
	score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: rule.CategoryComponentConversion, Shape: classify.DiffPureAddition})
	if classify.Validate(description, patternSrc, true, rule.CategoryComponentConversion, score) != nil {
		return nil
	}
	r, err := rule.NewRegexRule(patternSrc, "")
	if err != nil {
		return nil
	}
	r.Description = description
	r.Category = rule.CategoryComponentConversion
	r.Confidence = score
	r.Layer = 7
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: "'use client';\n" + anchor}
	return []*rule.Rule{r}
}

// keyPropAdditions pairs up JSX opening-tag lines that gained a `key=`
// attribute between before and after, matched by tag name and remaining
// attribute text.
func keyPropAdditions(before, after string) []*rule.Rule {
	beforeTags := tagLinesWithout(before, "key=")
	afterTags := tagLinesWith(after, "key=")

	var rules []*rule.Rule
	for tag, beforeLine := range beforeTags {
		afterLine, ok := afterTags[tag]
		if !ok {
			continue
		}
		description := fmt.Sprintf("Add missing key prop to <%s> inside .map()", tag)
		patternSrc := regexp.QuoteMeta(beforeLine)
		score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: rule.CategoryJSXKeyProp, Shape: classify.DiffModification})
		if classify.Validate(description, patternSrc, true, rule.CategoryJSXKeyProp, score) != nil {
			continue
		}
		r, err := rule.NewRegexRule(patternSrc, "")
		if err != nil {
			continue
		}
		r.Description = description
		r.Category = rule.CategoryJSXKeyProp
		r.Confidence = score
		r.Layer = 7
		r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: afterLine}
		rules = append(rules, r)
	}
	return rules
}

// accessibilityAttributeAdditions finds tags that gained an aria-* or alt
// attribute.
func accessibilityAttributeAdditions(before, after string) []*rule.Rule {
	var rules []*rule.Rule
	for _, attr := range []string{"aria-label=", "aria-hidden=", "alt="} {
		beforeTags := tagLinesWithout(before, attr)
		afterTags := tagLinesWith(after, attr)
		for tag, beforeLine := range beforeTags {
			afterLine, ok := afterTags[tag]
			if !ok || beforeLine == afterLine {
				continue
			}
			description := fmt.Sprintf("Add %s attribute to <%s>", strings.TrimSuffix(attr, "="), tag)
			patternSrc := regexp.QuoteMeta(beforeLine)
			score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: rule.CategoryAccessibility, Shape: classify.DiffModification})
			if classify.Validate(description, patternSrc, true, rule.CategoryAccessibility, score) != nil {
				continue
			}
			r, err := rule.NewRegexRule(patternSrc, "")
			if err != nil {
				continue
			}
			r.Description = description
			r.Category = rule.CategoryAccessibility
			r.Confidence = score
			r.Layer = 7
			r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: afterLine}
			rules = append(rules, r)
		}
	}
	return rules
}

// htmlToComponentRenames detects a lowercase HTML tag replaced by a
// PascalCase component tag carrying the same attribute text.
func htmlToComponentRenames(before, after string) []*rule.Rule {
	beforeMatches := jsxTagOpen.FindAllStringSubmatch(before, -1)
	afterMatches := jsxTagOpen.FindAllStringSubmatch(after, -1)
	if len(beforeMatches) == 0 || len(afterMatches) == 0 {
		return nil
	}

	var rules []*rule.Rule
	for i, bm := range beforeMatches {
		if i >= len(afterMatches) {
			break
		}
		am := afterMatches[i]
		beforeTag, afterTag := bm[1], am[1]
		if beforeTag == afterTag || !isLowerTag(beforeTag) || !isPascalTag(afterTag) {
			continue
		}
		if bm[2] != am[2] {
			continue // attributes changed too; not a pure rename
		}
		description := fmt.Sprintf("Convert <%s> to <%s> component", beforeTag, afterTag)
		patternSrc := fmt.Sprintf(`<%s\b`, regexp.QuoteMeta(beforeTag))
		score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: rule.CategoryComponentConversion, Shape: classify.DiffModification})
		if classify.Validate(description, patternSrc, true, rule.CategoryComponentConversion, score) != nil {
			continue
		}
		r, err := rule.NewRegexRule(patternSrc, "g")
		if err != nil {
			continue
		}
		r.Description = description
		r.Category = rule.CategoryComponentConversion
		r.Confidence = score
		r.Layer = 7
		r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: "<" + afterTag}
		rules = append(rules, r)
	}
	return rules
}

// forwardRefMigrations detects a forwardRef(...) wrapper removed in favor
// of direct ref prop usage (React 19's ref-as-prop).
func forwardRefMigrations(before, after string) []*rule.Rule {
	if !strings.Contains(before, "forwardRef(") || strings.Contains(after, "forwardRef(") {
		return nil
	}
	description := "Migrate forwardRef component to direct ref prop"
	patternSrc := `forwardRef\(`
	score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: rule.CategoryReact19ForwardRef, Shape: classify.DiffPureRemoval})
	if classify.Validate(description, patternSrc, true, rule.CategoryReact19ForwardRef, score) != nil {
		return nil
	}
	r, err := rule.NewRegexRule(patternSrc, "")
	if err != nil {
		return nil
	}
	r.Description = description
	r.Category = rule.CategoryReact19ForwardRef
	r.Confidence = score
	r.Layer = 7
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: ""}
	return []*rule.Rule{r}
}

// newComponentImports detects import lines present only in after.
func newComponentImports(before, after string) []*rule.Rule {
	beforeImports := importSet(before)
	var rules []*rule.Rule
	for _, line := range strings.Split(after, "\n") {
		if !importLineRe.MatchString(line) || beforeImports[line] {
			continue
		}
		description := "Add import required by component conversion"
		anchor := firstNonEmptyLine(before)
		if anchor == "" {
			continue
		}
		patternSrc := regexp.QuoteMeta(anchor)
		score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: rule.CategoryImport, Shape: classify.DiffPureAddition})
		if classify.Validate(description, patternSrc, true, rule.CategoryImport, score) != nil {
			continue
		}
		r, err := rule.NewRegexRule(patternSrc, "")
		if err != nil {
			continue
		}
		r.Description = description
		r.Category = rule.CategoryImport
		r.Confidence = score
		r.Layer = 7
		r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: strings.TrimRight(line, " \t") + "\n" + anchor}
		r.RequiredImport = parseRequiredImport(line)
		rules = append(rules, r)
	}
	return rules
}

func importSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		if importLineRe.MatchString(line) {
			set[line] = true
		}
	}
	return set
}

var importSpecifierRe = regexp.MustCompile(`from\s+['"]([^'"]+)['"]`)

func parseRequiredImport(line string) *rule.RequiredImport {
	m := importSpecifierRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return &rule.RequiredImport{Module: m[1], Specifier: strings.TrimSpace(line)}
}

// tagLinesWithout/tagLinesWith index lines containing a JSX opening tag
// by tag name, for lines that lack/have the given attribute substring.
func tagLinesWithout(text, attr string) map[string]string {
	return tagLinesFiltered(text, attr, false)
}

func tagLinesWith(text, attr string) map[string]string {
	return tagLinesFiltered(text, attr, true)
}

func tagLinesFiltered(text, attr string, want bool) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		m := jsxTagOpen.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		has := strings.Contains(line, attr)
		if has == want {
			out[m[1]] = line
		}
	}
	return out
}

func isLowerTag(tag string) bool {
	return len(tag) > 0 && tag[0] >= 'a' && tag[0] <= 'z'
}

func isPascalTag(tag string) bool {
	return len(tag) > 0 && tag[0] >= 'A' && tag[0] <= 'Z'
}
