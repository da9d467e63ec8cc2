package extract

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"neurolint/internal/classify"
	"neurolint/internal/logging"
	"neurolint/internal/rule"
)

// IsConfigTarget detects a configuration file by content signature:
// tsconfig's compilerOptions, package.json's top-level
// scripts/dependencies, or a next.config file (detected by basename,
// since next.config.js is a CommonJS/ESM module rather than pure JSON).
func IsConfigTarget(path, before, after string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(base, "next.config") {
		return true
	}
	combined := before + "\n" + after
	return strings.Contains(combined, `"compilerOptions"`) ||
		strings.Contains(combined, `"scripts"`) ||
		strings.Contains(combined, `"dependencies"`)
}

var (
	jsonLineComment  = regexp.MustCompile(`//[^\n]*`)
	jsonBlockComment = regexp.MustCompile(`/\*[\s\S]*?\*/`)
)

// stripJSONComments removes // and /* */ comments so JSONC content
// (JSON-with-comments) can be parsed by encoding/json.
func stripJSONComments(s string) string {
	s = jsonBlockComment.ReplaceAllString(s, "")
	s = jsonLineComment.ReplaceAllString(s, "")
	return s
}

func parseJSONC(s string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(stripJSONComments(s)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// tsconfigScalarKeys maps a compilerOptions scalar key to the category a
// change to it should be classified under.
var tsconfigScalarKeys = map[string]rule.Category{
	"strict": rule.CategoryTSConfigStrict,
	"jsx":    rule.CategoryTSConfigJSX,
	"target": rule.CategoryTSConfigTarget,
	"module": rule.CategoryTSConfigModule,
}

// Config extracts candidate rules from a before/after pair of
// configuration file content.
func Config(path, before, after string) []*rule.Rule {
	var rules []*rule.Rule

	beforeObj, beforeErr := parseJSONC(before)
	afterObj, afterErr := parseJSONC(after)
	if beforeErr == nil && afterErr == nil {
		rules = append(rules, tsconfigScalarChanges(beforeObj, afterObj)...)
		rules = append(rules, packageJSONChanges(beforeObj, afterObj)...)
	} else {
		logging.ExtractDebug("extract: config JSON parse failed for %s: before=%v after=%v", path, beforeErr, afterErr)
	}

	rules = append(rules, configBlockAdditions(before, after)...)
	rules = append(rules, deprecatedFlagRemovals(before, after)...)
	return rules
}

func tsconfigScalarChanges(before, after map[string]interface{}) []*rule.Rule {
	beforeOpts, _ := before["compilerOptions"].(map[string]interface{})
	afterOpts, _ := after["compilerOptions"].(map[string]interface{})
	if beforeOpts == nil || afterOpts == nil {
		return nil
	}

	var rules []*rule.Rule
	for key, category := range tsconfigScalarKeys {
		oldVal, oldOK := beforeOpts[key]
		newVal, newOK := afterOpts[key]
		if !oldOK || !newOK || fmt.Sprint(oldVal) == fmt.Sprint(newVal) {
			continue
		}
		r := buildScalarRule(key, oldVal, newVal, category)
		if r != nil {
			rules = append(rules, r)
		}
	}
	return rules
}

func buildScalarRule(key string, oldVal, newVal interface{}, category rule.Category) *rule.Rule {
	oldLit := jsonScalarLiteral(oldVal)
	newLit := jsonScalarLiteral(newVal)
	patternSrc := fmt.Sprintf(`"%s"\s*:\s*%s`, regexp.QuoteMeta(key), regexp.QuoteMeta(oldLit))
	replacement := fmt.Sprintf(`"%s": %s`, key, newLit)
	description := describeScalarChange(key, newVal)

	score := classify.Classify(classify.Candidate{
		PatternSrc: patternSrc,
		Category:   category,
		Shape:      classify.DiffModification,
	})
	if err := classify.Validate(description, patternSrc, true, category, score); err != nil {
		return nil
	}

	r, err := rule.NewRegexRule(patternSrc, "g")
	if err != nil {
		return nil
	}
	r.Description = description
	r.Category = category
	r.Confidence = score
	r.Layer = 7
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: replacement}
	return r
}

func jsonScalarLiteral(v interface{}) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprint(val)
	}
}

func describeScalarChange(key string, newVal interface{}) string {
	switch key {
	case "strict":
		if b, ok := newVal.(bool); ok && b {
			return "Enable TypeScript strict mode"
		}
		return "Disable TypeScript strict mode"
	case "jsx":
		return fmt.Sprintf("Update TypeScript JSX transform to %v", newVal)
	case "target":
		return fmt.Sprintf("Update TypeScript compilation target to %v", newVal)
	case "module":
		return fmt.Sprintf("Update TypeScript module setting to %v", newVal)
	default:
		return fmt.Sprintf("Update %s to %v", key, newVal)
	}
}

// packageJSONChanges detects new package.json scripts and added/updated
// dependencies.
func packageJSONChanges(before, after map[string]interface{}) []*rule.Rule {
	var rules []*rule.Rule
	rules = append(rules, packageObjectAdditions(before, after, "scripts", rule.CategoryPackageScripts, "Add npm script")...)
	rules = append(rules, packageDependencyChanges(before, after, "dependencies")...)
	rules = append(rules, packageDependencyChanges(before, after, "devDependencies")...)
	return rules
}

func packageObjectAdditions(before, after map[string]interface{}, key string, category rule.Category, verb string) []*rule.Rule {
	beforeMap, _ := before[key].(map[string]interface{})
	afterMap, _ := after[key].(map[string]interface{})
	if afterMap == nil {
		return nil
	}
	var rules []*rule.Rule
	for name, val := range afterMap {
		if _, existed := beforeMap[name]; existed {
			continue
		}
		valStr := fmt.Sprint(val)
		patternSrc := fmt.Sprintf(`"%s"\s*:\s*"%s"`, regexp.QuoteMeta(name), regexp.QuoteMeta(valStr))
		description := fmt.Sprintf("%s %q", verb, name)
		score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: category, Shape: classify.DiffPureAddition})
		if classify.Validate(description, patternSrc, true, category, score) != nil {
			continue
		}
		r, err := rule.NewRegexRule(patternSrc, "g")
		if err != nil {
			continue
		}
		r.Description = description
		r.Category = category
		r.Confidence = score
		r.Layer = 7
		r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: fmt.Sprintf(`"%s": "%s"`, name, valStr)}
		rules = append(rules, r)
	}
	return rules
}

func packageDependencyChanges(before, after map[string]interface{}, key string) []*rule.Rule {
	beforeMap, _ := before[key].(map[string]interface{})
	afterMap, _ := after[key].(map[string]interface{})
	if afterMap == nil {
		return nil
	}
	var rules []*rule.Rule
	for name, val := range afterMap {
		category := rule.CategoryPackageAddDep
		oldVal, existed := beforeMap[name]
		valStr := fmt.Sprint(val)
		var description string
		var patternSrc, replacement string
		if !existed {
			description = fmt.Sprintf("Add dependency %q", name)
			patternSrc = fmt.Sprintf(`"%s"\s*:\s*"%s"`, regexp.QuoteMeta(name), regexp.QuoteMeta(valStr))
			replacement = fmt.Sprintf(`"%s": "%s"`, name, valStr)
		} else if fmt.Sprint(oldVal) != valStr {
			category = rule.CategoryPackageUpdateDep
			description = fmt.Sprintf("Update dependency %q to %s", name, valStr)
			patternSrc = fmt.Sprintf(`"%s"\s*:\s*"%s"`, regexp.QuoteMeta(name), regexp.QuoteMeta(fmt.Sprint(oldVal)))
			replacement = fmt.Sprintf(`"%s": "%s"`, name, valStr)
		} else {
			continue
		}

		shape := classify.DiffPureAddition
		if existed {
			shape = classify.DiffModification
		}
		score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: category, Shape: shape})
		if classify.Validate(description, patternSrc, true, category, score) != nil {
			continue
		}
		r, err := rule.NewRegexRule(patternSrc, "g")
		if err != nil {
			continue
		}
		r.Description = description
		r.Category = category
		r.Confidence = score
		r.Layer = 7
		r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: replacement}
		rules = append(rules, r)
	}
	return rules
}

// configBlockAdditions detects whole-block additions recognizable by
// keyword (Turbopack config, Next.js image remote patterns) that the
// scalar-field comparison above cannot see because they appear in
// next.config's JS object literal, not JSON compilerOptions.
func configBlockAdditions(before, after string) []*rule.Rule {
	var rules []*rule.Rule
	if !strings.Contains(before, "turbopack") && strings.Contains(after, "turbopack") {
		rules = appendAnchoredAddition(rules, before, after, "turbopack", rule.CategoryNextTurbopack, "Add Turbopack configuration")
	}
	if !hasAny(before, "remotePatterns", "images:") && hasAny(after, "remotePatterns", "images:") {
		rules = appendAnchoredAddition(rules, before, after, "images", rule.CategoryNextImages, "Add remote image patterns configuration")
	}
	return rules
}

// appendAnchoredAddition builds a rule that, when applied to a file
// containing the same anchor line as `before`, appends the newly added
// block after it, the regex-rule analogue of an AST "insert sibling"
// edit for the Generic Extractor's additive shapes.
func appendAnchoredAddition(rules []*rule.Rule, before, after, keyword string, category rule.Category, description string) []*rule.Rule {
	anchor := firstNonEmptyLine(before)
	if anchor == "" {
		return rules
	}
	addedBlock := linesContaining(after, keyword)
	if addedBlock == "" {
		return rules
	}
	patternSrc := regexp.QuoteMeta(anchor)
	replacement := anchor + "\n" + addedBlock

	score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: category, Shape: classify.DiffPureAddition})
	if classify.Validate(description, patternSrc, true, category, score) != nil {
		return rules
	}
	r, err := rule.NewRegexRule(patternSrc, "")
	if err != nil {
		return rules
	}
	r.Description = description
	r.Category = category
	r.Confidence = score
	r.Layer = 7
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: replacement}
	return append(rules, r)
}

// deprecatedFlagRemovals detects the removal of known-deprecated Next.js
// configuration flags.
var deprecatedNextFlags = []string{"swcMinify", "experimental.appDir", "target:"}

func deprecatedFlagRemovals(before, after string) []*rule.Rule {
	var rules []*rule.Rule
	for _, flag := range deprecatedNextFlags {
		if strings.Contains(before, flag) && !strings.Contains(after, flag) {
			line := lineContaining(before, flag)
			if line == "" {
				continue
			}
			description := fmt.Sprintf("Remove deprecated Next.js flag %q", flag)
			patternSrc := regexp.QuoteMeta(line) + `\n?`
			category := rule.CategoryNextDeprecated
			score := classify.Classify(classify.Candidate{PatternSrc: patternSrc, Category: category, Shape: classify.DiffPureRemoval})
			if classify.Validate(description, patternSrc, true, category, score) != nil {
				continue
			}
			r, err := rule.NewRegexRule(patternSrc, "")
			if err != nil {
				continue
			}
			r.Description = description
			r.Category = category
			r.Confidence = score
			r.Layer = 7
			r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: ""}
			rules = append(rules, r)
		}
	}
	return rules
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func lineContaining(s, sub string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, sub) {
			return line
		}
	}
	return ""
}

func linesContaining(s, sub string) string {
	var out []string
	record := false
	depth := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, sub) {
			record = true
		}
		if record {
			out = append(out, line)
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth <= 0 && len(out) > 1 {
				break
			}
		}
	}
	return strings.Join(out, "\n")
}
