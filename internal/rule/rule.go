// Package rule defines the persisted transformation rule.
//
// A Rule is modeled as a sum type over its pattern (Regex or Structural)
// and its replacement (Literal string or Template with capture refs), so
// the same Rule Store can hold both cheap regex rules and AST-derived
// structural rules, with the classifier and applier dispatching on
// variant rather than forcing everything through one representation.
package rule

import (
	"fmt"
	"regexp"
	"strings"
)

// Category is one of the closed set of rule categories.
type Category string

const (
	CategoryTSConfigStrict      Category = "tsconfig-strict"
	CategoryTSConfigJSX         Category = "tsconfig-jsx"
	CategoryTSConfigTarget      Category = "tsconfig-target"
	CategoryTSConfigModule      Category = "tsconfig-module"
	CategoryNextTurbopack       Category = "nextjs-turbopack"
	CategoryNextImages          Category = "nextjs-images"
	CategoryNextDeprecated      Category = "nextjs-deprecated"
	CategoryPackageScripts      Category = "package-scripts"
	CategoryPackageAddDep       Category = "package-add-dep"
	CategoryPackageUpdateDep    Category = "package-update-dep"
	CategoryComponentConversion Category = "component-conversion"
	CategoryJSXKeyProp          Category = "jsx-key-prop"
	CategoryAccessibility       Category = "accessibility"
	CategoryReact19ForwardRef   Category = "react19-forwardRef"
	CategoryReact19Refs         Category = "react19-refs"
	CategoryComponentProps      Category = "component-props"
	CategoryImport              Category = "import"
	CategoryExport              Category = "export"
	CategoryJSXComponent        Category = "jsx-component"
	CategoryFunction            Category = "function"
	CategoryExpression          Category = "expression"
	CategorySecurity            Category = "security"
)

// Severity classifies security-related rules and findings.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// RequiredImport names a module/specifier a transformation depends on.
type RequiredImport struct {
	Module    string `json:"module"`
	Specifier string `json:"specifier"`
}

// ReplacementKind distinguishes a literal substitution from a template
// that may reference regex capture groups (e.g. "$1: process.env.$1").
type ReplacementKind string

const (
	ReplacementLiteral  ReplacementKind = "literal"
	ReplacementTemplate ReplacementKind = "template"
)

// Replacement is a tagged variant of a rule's substitution value.
// Fn, when set, is an in-memory-only closure replacement:
// it is never serialized and is dropped on Store.Save unless Value also
// holds an equivalent template string.
type Replacement struct {
	Kind  ReplacementKind           `json:"kind"`
	Value string                    `json:"value"`
	Fn    func(match string) string `json:"-"`
}

// Apply computes the replacement text for a single match.
func (r Replacement) Apply(match string) string {
	if r.Fn != nil {
		return r.Fn(match)
	}
	return r.Value
}

// PatternKind distinguishes a regex pattern from a structural AST matcher.
type PatternKind string

const (
	PatternRegex      PatternKind = "regex"
	PatternStructural PatternKind = "structural"
)

// StructuralMatcher describes an AST-shape match for a Structural rule,
// e.g. "call_expression with callee console.log" or "jsx_element missing
// key attribute inside .map() callback". NodeType is the tree-sitter node
// type to match; Descriptor is a short human-readable constraint. The
// matcher is stored and persisted only: no extractor produces one and
// Store.Apply skips structural rules.
type StructuralMatcher struct {
	NodeType   string `json:"node_type"`
	Descriptor string `json:"descriptor"`
}

// Rule is a persisted transformation.
type Rule struct {
	// ID is an in-memory identifier assigned by the Rule Store on load or
	// add (derived from the pattern's textual form). It is not part of the
	// persisted shape, which identifies rules by pattern uniqueness
	// rather than an explicit id field.
	ID          string      `json:"-"`
	PatternKind PatternKind `json:"pattern_kind"`

	// Regex variant fields.
	RegexSource string         `json:"regex_source,omitempty"`
	RegexFlags  string         `json:"regex_flags,omitempty"`
	compiled    *regexp.Regexp `json:"-"`

	// Structural variant field.
	Structural *StructuralMatcher `json:"structural,omitempty"`

	Replacement Replacement `json:"replacement"`

	Description string   `json:"description"`
	Category    Category `json:"category"`
	Layer       int      `json:"layer"`
	Confidence  float64  `json:"confidence"`
	Frequency   int      `json:"frequency"`

	RequiredImport  *RequiredImport `json:"required_import,omitempty"`
	SecurityRelated bool            `json:"security_related,omitempty"`
	Severity        Severity        `json:"severity,omitempty"`
	SignatureID     string          `json:"signature_id,omitempty"`
}

// NewRegexRule builds and compiles a regex-backed rule. flags follows Go's
// RE2 inline flag syntax convention used at persistence time, e.g. "gi"
// maps to the (?i) case-insensitive inline flag; "g" (global) has no RE2
// equivalent since Go's regexp already replaces all matches by default.
func NewRegexRule(source, flags string) (*Rule, error) {
	r := &Rule{PatternKind: PatternRegex, RegexSource: source, RegexFlags: flags}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// compile builds the Go regexp for a Regex-kind rule from RegexSource/Flags.
func (r *Rule) compile() error {
	pattern := r.RegexSource
	if strings.Contains(r.RegexFlags, "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("rule: invalid regex %q: %w", r.RegexSource, err)
	}
	r.compiled = re
	return nil
}

// Compiled returns the compiled regexp for a Regex-kind rule, compiling it
// lazily if it was populated by unmarshalling rather than NewRegexRule.
func (r *Rule) Compiled() (*regexp.Regexp, error) {
	if r.PatternKind != PatternRegex {
		return nil, fmt.Errorf("rule: %s is not a regex rule", r.ID)
	}
	if r.compiled == nil {
		if err := r.compile(); err != nil {
			return nil, err
		}
	}
	return r.compiled, nil
}

// PatternText returns the textual form of the rule's pattern used for
// duplicate detection: no two persisted rules share the same form.
func (r *Rule) PatternText() string {
	if r.PatternKind == PatternStructural && r.Structural != nil {
		return r.Structural.NodeType + "|" + r.Structural.Descriptor
	}
	return PersistedPattern(r.RegexSource, r.RegexFlags)
}

// PersistedPattern renders a regex pattern/flags pair in the `/body/flags`
// form used by the persistence file.
func PersistedPattern(source, flags string) string {
	return "/" + source + "/" + flags
}

// ParsePersistedPattern parses a `/body/flags` string back into its parts.
// Returns an error if the string is not delimited by leading/trailing '/'.
func ParsePersistedPattern(s string) (source, flags string, err error) {
	if len(s) < 2 || s[0] != '/' {
		return "", "", fmt.Errorf("rule: malformed persisted pattern %q", s)
	}
	lastSlash := strings.LastIndex(s, "/")
	if lastSlash <= 0 {
		return "", "", fmt.Errorf("rule: malformed persisted pattern %q", s)
	}
	return s[1:lastSlash], s[lastSlash+1:], nil
}

// BumpObservation increments frequency and boosts confidence by +0.05
// capped at 0.95.
func (r *Rule) BumpObservation() {
	r.Frequency++
	r.Confidence += 0.05
	if r.Confidence > 0.95 {
		r.Confidence = 0.95
	}
}
