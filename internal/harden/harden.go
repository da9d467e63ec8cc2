// Package harden implements the Server-Action Hardening layer ("Layer 8
// code"): AST-based detection of server-action files,
// always-on analysis emitting security findings and recommendations, and
// a conservative, fail-safe rewrite of dangerous call sites gated behind
// an explicit quarantine opt-in.
package harden

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"neurolint/internal/astutil"
	"neurolint/internal/logging"
	"neurolint/internal/pipeline"
	"neurolint/internal/rule"
)

// LayerID identifies the Server-Action Hardening layer ("Layer 8").
const LayerID = 8

// quarantineMarker is the literal embedded in every neutralized call's replacement.
const quarantineMarker = "[NEUROLINT-QUARANTINE]"

// dangerousNames are free functions or member properties whose call sites
// are neutralized under quarantine.
var dangerousNames = map[string]bool{
	"eval": true, "exec": true, "execSync": true,
	"spawn": true, "spawnSync": true,
	"execFile": true, "execFileSync": true,
	"Function": true,
}

// Layer wraps the hardening component as a pipeline.Layer so it can be
// slotted into the Transformation Pipeline alongside every other layer.
type Layer struct{}

// New builds the Server-Action Hardening layer.
func New() *Layer { return &Layer{} }

func (l *Layer) ID() int      { return LayerID }
func (l *Layer) Name() string { return "harden" }

// Transform implements pipeline.Layer. Analysis always
// runs for detected server-action files; mutation only happens when
// opts.Quarantine is true.
func (l *Layer) Transform(text string, opts pipeline.Options, filePath string, previous []pipeline.LayerResult) pipeline.LayerResult {
	if text == "" {
		return pipeline.EmptyInputResult(LayerID)
	}

	if !IsServerAction(filePath, text) {
		return pipeline.LayerResult{Success: true, Code: text, OriginalCode: text, LayerID: LayerID}
	}

	findings, _ := Analyze(filePath, text)

	if !opts.Quarantine {
		logging.HardenDebug("%s: server action detected, quarantine disabled, skipping mutation", filePath)
		return pipeline.LayerResult{
			Success:          true,
			Code:             text,
			OriginalCode:     text,
			LayerID:          LayerID,
			SecurityFindings: findings,
			Results:          []pipeline.Event{{Kind: pipeline.EventApply, Detail: "skipped: quarantine disabled"}},
		}
	}

	newCode, success, reverted, transforms := Harden(filePath, text)
	if !success {
		logging.HardenWarn("%s: hardening reverted", filePath)
		return pipeline.LayerResult{
			Success:          true,
			Code:             text,
			OriginalCode:     text,
			LayerID:          LayerID,
			SecurityFindings: findings,
			Results:          []pipeline.Event{{Kind: pipeline.EventApply, Detail: fmt.Sprintf("reverted=%v", reverted)}},
		}
	}

	var changes []pipeline.Change
	for _, t := range transforms {
		changes = append(changes, pipeline.Change{
			Kind:        pipeline.ChangeHarden,
			Description: fmt.Sprintf("Neutralized dangerous call to %s", t.FunctionName),
			Line:        t.Line,
		})
	}

	return pipeline.LayerResult{
		Success:          true,
		Code:             newCode,
		OriginalCode:     text,
		ChangeCount:      len(transforms),
		LayerID:          LayerID,
		Changes:          changes,
		SecurityFindings: findings,
		Results:          []pipeline.Event{{Kind: pipeline.EventApply, Detail: "hardened"}},
	}
}

// directiveString returns the unquoted literal value of n if n is a
// "string" node, or "" otherwise.
func directiveString(n *sitter.Node, source []byte) string {
	if n == nil || n.Type() != "string" {
		return ""
	}
	text := astutil.Text(n, source)
	if len(text) < 2 {
		return ""
	}
	return text[1 : len(text)-1]
}

// firstStatementDirective reports the directive string of block's first
// statement, if that statement is a bare string-literal expression
// statement (the directive-prologue shape tree-sitter's JS/TS grammars
// represent with no dedicated directive node).
func firstStatementDirective(block *sitter.Node, source []byte) string {
	if block == nil || block.NamedChildCount() == 0 {
		return ""
	}
	first := block.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	return directiveString(first.NamedChild(0), source)
}

var functionLikeTypes = map[string]bool{
	"function_declaration": true, "function": true, "arrow_function": true,
	"generator_function": true, "generator_function_declaration": true,
	"method_definition": true,
}

// IsServerAction reports whether src is a server-action file: a top-level directive
// literal equal to "use server", OR any function/arrow-function body
// carrying that directive as its first statement, OR (fallback) the
// file's very first top-level statement being that string verbatim.
func IsServerAction(path string, source string) bool {
	tree, err := astutil.Parse(path, []byte(source))
	if err != nil {
		return false
	}
	defer tree.Close()

	root := tree.Root()
	if root == nil {
		return false
	}

	if firstStatementDirective(root, tree.Source) == "use server" {
		return true
	}

	found := false
	astutil.Walk(root, func(n *sitter.Node) bool {
		if found || !functionLikeTypes[n.Type()] {
			return !found
		}
		body := n.ChildByFieldName("body")
		if body != nil && body.Type() == "statement_block" && firstStatementDirective(body, tree.Source) == "use server" {
			found = true
		}
		return !found
	})
	return found
}

// Recommendation groups hardening guidance by action.
type ActionKind string

const (
	ActionRemoveDangerousCalls   ActionKind = "REMOVE_DANGEROUS_CALLS"
	ActionProtectEnvVars         ActionKind = "PROTECT_ENV_VARS"
	ActionRemoveDangerousImports ActionKind = "REMOVE_DANGEROUS_IMPORTS"
)

type Recommendation struct {
	Action      ActionKind         `json:"action"`
	AutoFixable bool               `json:"auto_fixable"`
	Description string             `json:"description"`
	Findings    []pipeline.Finding `json:"findings"`
}

// callSite is one detected dangerous invocation, kept around so Harden can
// rewrite exactly the spans Analyze already found.
type callSite struct {
	node     *sitter.Node
	name     string
	severity rule.Severity
}

// Analyze walks the AST, always-on (no mutation), emitting findings and
// grouped recommendations.
func Analyze(path, source string) ([]pipeline.Finding, []Recommendation) {
	tree, err := astutil.Parse(path, []byte(source))
	if err != nil {
		return nil, nil
	}
	defer tree.Close()
	root := tree.Root()
	if root == nil {
		return nil, nil
	}

	var findings []pipeline.Finding
	var callFindings []pipeline.Finding
	var envFindings []pipeline.Finding
	var importFindings []pipeline.Finding

	for _, site := range findCallSites(root, tree.Source) {
		f := pipeline.Finding{
			SignatureID: "dangerous-call:" + site.name,
			Description: fmt.Sprintf("Call to dangerous function '%s' in a server action", site.name),
			Severity:    site.severity,
			Line:        astutil.Line(site.node),
			Match:       astutil.Text(site.node, tree.Source),
		}
		findings = append(findings, f)
		callFindings = append(callFindings, f)
	}

	astutil.Walk(root, func(n *sitter.Node) bool {
		if n.Type() != "member_expression" {
			return true
		}
		if astutil.Text(n, tree.Source) != "process.env" {
			return true
		}
		sev, ok := envContextSeverity(n, tree.Source)
		if !ok {
			return true
		}
		f := pipeline.Finding{
			SignatureID: "process-env-exposure",
			Description: "process.env referenced in a context that may leak it to the client",
			Severity:    sev,
			Line:        astutil.Line(n),
			Context:     astutil.Text(astutil.EnclosingOfType(n, "statement_block"), tree.Source),
		}
		findings = append(findings, f)
		envFindings = append(envFindings, f)
		return true
	})

	for _, n := range astutil.FindAll(root, "import_statement") {
		src := importSource(n, tree.Source)
		if src == "child_process" || src == "node:child_process" {
			f := pipeline.Finding{
				SignatureID: "dangerous-import:child_process",
				Description: "Import of child_process in a server action",
				Severity:    rule.SeverityHigh,
				Line:        astutil.Line(n),
				Match:       astutil.Text(n, tree.Source),
			}
			findings = append(findings, f)
			importFindings = append(importFindings, f)
		}
	}

	var recs []Recommendation
	if len(callFindings) > 0 {
		recs = append(recs, Recommendation{
			Action:      ActionRemoveDangerousCalls,
			AutoFixable: true,
			Description: "Neutralize dangerous call sites (auto-fixable with --quarantine)",
			Findings:    callFindings,
		})
	}
	if len(envFindings) > 0 {
		recs = append(recs, Recommendation{
			Action:      ActionProtectEnvVars,
			AutoFixable: false,
			Description: "Stop returning or spreading process.env to the client; pick named variables instead",
			Findings:    envFindings,
		})
	}
	if len(importFindings) > 0 {
		recs = append(recs, Recommendation{
			Action:      ActionRemoveDangerousImports,
			AutoFixable: false,
			Description: "Remove child_process imports from server actions exposed to client code paths",
			Findings:    importFindings,
		})
	}
	return findings, recs
}

// findCallSites collects every call_expression and new_expression whose
// callee resolves to a dangerousNames member.
func findCallSites(root *sitter.Node, source []byte) []callSite {
	var sites []callSite
	astutil.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "call_expression":
			name := astutil.CalleeName(n, source)
			short := lastSegment(name)
			if dangerousNames[short] {
				sites = append(sites, callSite{node: n, name: short, severity: rule.SeverityCritical})
			}
		case "new_expression":
			ctor := n.ChildByFieldName("constructor")
			if ctor != nil && astutil.Text(ctor, source) == "Function" {
				sites = append(sites, callSite{node: n, name: "Function", severity: rule.SeverityCritical})
			}
		}
		return true
	})
	return sites
}

func lastSegment(calleeText string) string {
	if i := strings.LastIndex(calleeText, "."); i >= 0 {
		return calleeText[i+1:]
	}
	return calleeText
}

// envContextSeverity classifies how process.env is being used at n,
// a return value (critical), spread into an object
// (critical), or an argument to JSON.stringify (high).
func envContextSeverity(n *sitter.Node, source []byte) (rule.Severity, bool) {
	parent := n.Parent()
	if parent == nil {
		return "", false
	}
	switch parent.Type() {
	case "return_statement":
		return rule.SeverityCritical, true
	case "spread_element":
		if gp := parent.Parent(); gp != nil && gp.Type() == "object" {
			return rule.SeverityCritical, true
		}
	case "arguments":
		if call := parent.Parent(); call != nil && call.Type() == "call_expression" {
			if astutil.CalleeName(call, source) == "JSON.stringify" {
				return rule.SeverityHigh, true
			}
		}
	}
	return "", false
}

// importSource extracts the quoted module specifier of an import_statement.
func importSource(n *sitter.Node, source []byte) string {
	src := n.ChildByFieldName("source")
	return directiveString(src, source)
}
