package adaptive

import (
	"fmt"
	"regexp"
	"strings"

	"neurolint/internal/pipeline"
	"neurolint/internal/rule"
)

// securitySignature is one row of the Security Rule Synthesizer's
// dispatch table.
type securitySignature struct {
	keywords    []string
	description string
	pattern     string
	flags       string
	replacement string
}

var securityDispatch = []securitySignature{
	{
		keywords:    []string{"eval"},
		description: "Remove eval() call",
		pattern:     `\beval\s*\([^)]+\)`,
		replacement: `/* SECURITY: eval() removed */`,
	},
	{
		keywords:    []string{"dangerouslysetinnerhtml"},
		description: "Remove dangerouslySetInnerHTML usage",
		pattern:     `dangerouslySetInnerHTML\s*=\s*\{\s*\{[^}]+\}\s*\}`,
		replacement: `/* SECURITY: removed */`,
	},
	{
		keywords:    []string{"innerhtml"},
		description: "Replace innerHTML assignment with textContent",
		pattern:     `\.innerHTML\s*=\s*[^;]+`,
		replacement: `.textContent = /* SECURITY: innerHTML replaced */`,
	},
	{
		keywords:    []string{"hardcoded"},
		description: "Move hardcoded secret to an environment variable",
		pattern:     `(password|secret|key|token|apikey|api_key)\s*[:=]\s*['"][^'"]+['"]`,
		flags:       "i",
		replacement: `$1: process.env.$1 /* SECURITY: moved to env var */`,
	},
	{
		keywords:    []string{"exec", "command injection"},
		description: "Remove child_process exec call",
		pattern:     `child_process\.(exec|execSync)\s*\([^)]+\)`,
		replacement: `/* SECURITY: exec removed */`,
	},
	{
		keywords:    []string{"sql", "sql injection"},
		description: "Use parameterized queries instead of a template-literal query",
		pattern:     "`[^`]*\\$\\{[^}]+\\}[^`]*`",
		replacement: `/* SECURITY: use parameterized queries */`,
	},
}

// SynthesizeSecurityRules derives rules from security findings: only findings of
// severity critical or high become rules, dispatched by case-insensitive
// substring match of signature_id/description against the keyword table.
// A finding that matches no keyword but carries a short match/context
// still yields a generic, lower-confidence rule.
func SynthesizeSecurityRules(findings []pipeline.Finding) []*rule.Rule {
	var rules []*rule.Rule
	for _, f := range findings {
		if f.Severity != rule.SeverityCritical && f.Severity != rule.SeverityHigh {
			continue
		}
		haystack := strings.ToLower(f.SignatureID + " " + f.Description)

		matched := false
		for _, sig := range securityDispatch {
			if !matchesAny(haystack, sig.keywords) {
				continue
			}
			r, err := rule.NewRegexRule(sig.pattern, sig.flags)
			if err != nil {
				continue
			}
			r.Description = sig.description
			r.Category = rule.CategorySecurity
			r.Confidence = 0.95
			r.Layer = LayerID
			r.SecurityRelated = true
			r.Severity = f.Severity
			r.SignatureID = f.SignatureID
			kind := rule.ReplacementLiteral
			if strings.Contains(sig.replacement, "$") {
				kind = rule.ReplacementTemplate
			}
			r.Replacement = rule.Replacement{Kind: kind, Value: sig.replacement}
			rules = append(rules, r)
			matched = true
			break
		}

		if matched {
			continue
		}

		if r := genericContextRule(f); r != nil {
			rules = append(rules, r)
		}
	}
	return rules
}

func matchesAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// genericContextRule derives a lower-confidence rule straight from a
// finding's captured match/context text when no keyword in the dispatch
// table applies.
func genericContextRule(f pipeline.Finding) *rule.Rule {
	text := f.Match
	if text == "" {
		text = f.Context
	}
	if len(text) < 5 || len(text) > 200 {
		return nil
	}

	r, err := rule.NewRegexRule(regexp.QuoteMeta(text), "")
	if err != nil {
		return nil
	}
	r.Description = fmt.Sprintf("Flag security-sensitive pattern: %s", f.Description)
	r.Category = rule.CategorySecurity
	r.Confidence = 0.85
	r.Layer = LayerID
	r.SecurityRelated = true
	r.Severity = f.Severity
	r.SignatureID = f.SignatureID
	r.Replacement = rule.Replacement{Kind: rule.ReplacementLiteral, Value: "/* SECURITY: review required */"}
	return r
}
