// Package adaptive implements the Adaptive Pattern-Learning layer
// ("Layer 7"): it derives new transformation rules from
// prior layers' diffs and from security findings, registers them into
// the Rule Store, and reapplies previously learned rules to the current
// text under a confidence gate.
package adaptive

import (
	"regexp"
	"strings"

	"neurolint/internal/extract"
	"neurolint/internal/logging"
	"neurolint/internal/pipeline"
	"neurolint/internal/rulestore"
)

// LayerID identifies the Adaptive Layer in results and backups.
const LayerID = 7

// inlineStyleRe flags inline style objects the advisory pass reports on
// but never rewrites.
var inlineStyleRe = regexp.MustCompile(`style=\{\{[^}]*\}\}`)
var consoleCallRe = regexp.MustCompile(`console\.(log|warn|debug|info)\s*\([^)]*\)`)

// Layer is the Adaptive Layer. It wraps a Rule Store shared across the
// pipeline invocation.
type Layer struct {
	Store *rulestore.Store
}

// New builds the Adaptive Layer over an already-loaded Rule Store.
func New(store *rulestore.Store) *Layer {
	return &Layer{Store: store}
}

func (l *Layer) ID() int      { return LayerID }
func (l *Layer) Name() string { return "adaptive" }

// Transform implements pipeline.Layer. It first learns from `previous`
// (other layers' results so far this invocation), then applies the
// (possibly just-grown) Rule Store to text.
func (l *Layer) Transform(text string, opts pipeline.Options, filePath string, previous []pipeline.LayerResult) pipeline.LayerResult {
	if text == "" {
		return pipeline.EmptyInputResult(LayerID)
	}

	learned := l.learn(filePath, previous)

	threshold := opts.ConfidenceThreshold
	newText, applied := l.Store.Apply(text, threshold)

	var changes []pipeline.Change
	for _, desc := range applied {
		changes = append(changes, pipeline.Change{Kind: pipeline.ChangeApply, Description: desc})
	}
	for _, desc := range learned {
		changes = append(changes, pipeline.Change{Kind: pipeline.ChangeLearn, Description: desc})
	}
	changes = append(changes, advisorySuggestions(newText)...)

	return pipeline.LayerResult{
		Success:      true,
		Code:         newText,
		OriginalCode: text,
		ChangeCount:  len(applied),
		LayerID:      LayerID,
		Changes:      changes,
		Results:      []pipeline.Event{{Kind: pipeline.EventApply, Detail: "ruleStore.apply"}},
	}
}

// learn implements the Learning protocol: for each prior
// result with success=true and (change_count>0 or security findings),
// invoke the extractor dispatch and/or the Security Rule Synthesizer, and
// register returned rules into the Rule Store. Returns a human-readable
// description per newly registered rule for the changes[] log.
func (l *Layer) learn(filePath string, previous []pipeline.LayerResult) []string {
	var descriptions []string
	for _, prior := range previous {
		if !prior.Success {
			continue
		}
		if prior.ChangeCount > 0 {
			candidates := extract.Extract(filePath, prior.OriginalCode, prior.Code)
			for _, r := range candidates {
				r.Layer = prior.LayerID
				isNew, err := l.Store.Add(r)
				if err != nil {
					logging.AdaptiveWarn("failed to register learned rule: %v", err)
					continue
				}
				if isNew {
					descriptions = append(descriptions, r.Description)
				}
			}
		}
		if len(prior.SecurityFindings) > 0 {
			for _, r := range SynthesizeSecurityRules(prior.SecurityFindings) {
				isNew, err := l.Store.Add(r)
				if err != nil {
					logging.AdaptiveWarn("failed to register synthesized security rule: %v", err)
					continue
				}
				if isNew {
					descriptions = append(descriptions, r.Description)
				}
			}
		}
	}
	return descriptions
}

// advisorySuggestions emits non-mutating suggestions for patterns the
// Adaptive Layer recognizes but deliberately does not rewrite:
// surviving console.* calls and inline style objects. These are
// appended to changes[] but must never affect change_count.
func advisorySuggestions(text string) []pipeline.Change {
	var out []pipeline.Change
	for _, line := range strings.Split(text, "\n") {
		if consoleCallRe.MatchString(line) {
			out = append(out, pipeline.Change{Kind: pipeline.ChangeAdvisory, Description: "Consider removing leftover console statement"})
		}
		if inlineStyleRe.MatchString(line) {
			out = append(out, pipeline.Change{Kind: pipeline.ChangeAdvisory, Description: "Consider moving inline style object to a stylesheet"})
		}
	}
	return out
}
