// Package stdlayers provides minimal stand-ins for the individually
// named pattern-transforming layers (1 through 6), treated here as
// out-of-scope black-box collaborators: only their Layer Interface
// contract is specified, not their internals. Each of these
// satisfies pipeline.Layer so the pipeline and the Adaptive/Hardening
// layers can be exercised end-to-end without depending on real
// implementations of configuration-fixing, component-conversion,
// hydration-safety, or similar concerns.
package stdlayers

import (
	"regexp"

	"neurolint/internal/pipeline"
)

// RegexLayer is a tiny regex-substitution layer used to stand in for any
// of Layers 1-6 in tests and examples: it applies a single fixed
// pattern/replacement and reports a change only when the pattern matched.
type RegexLayer struct {
	id          int
	name        string
	pattern     *regexp.Regexp
	replacement string
	description string
}

// NewRegexLayer builds a stand-in layer identified by id/name that
// globally substitutes pattern with replacement.
func NewRegexLayer(id int, name, pattern, replacement, description string) (*RegexLayer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexLayer{id: id, name: name, pattern: re, replacement: replacement, description: description}, nil
}

func (l *RegexLayer) ID() int      { return l.id }
func (l *RegexLayer) Name() string { return l.name }

func (l *RegexLayer) Transform(text string, opts pipeline.Options, filePath string, previous []pipeline.LayerResult) pipeline.LayerResult {
	if text == "" {
		return pipeline.EmptyInputResult(l.id)
	}
	if !l.pattern.MatchString(text) {
		return pipeline.LayerResult{Success: true, Code: text, OriginalCode: text, LayerID: l.id}
	}

	newText := l.pattern.ReplaceAllString(text, l.replacement)
	return pipeline.LayerResult{
		Success:      true,
		Code:         newText,
		OriginalCode: text,
		ChangeCount:  1,
		LayerID:      l.id,
		Changes:      []pipeline.Change{{Kind: pipeline.ChangeApply, Description: l.description}},
	}
}

// TSConfigStrictLayer stands in for "Layer 1": enabling TypeScript's
// strict compiler flag.
func TSConfigStrictLayer() *RegexLayer {
	l, _ := NewRegexLayer(1, "tsconfig-strict", `"strict"\s*:\s*false`, `"strict": true`, "Enable TypeScript strict mode")
	return l
}

// NoopLayer is a pass-through stand-in for any of Layers 1-6 that always
// reports success with no change.
type NoopLayer struct {
	id   int
	name string
}

// NewNoopLayer builds a layer that always reports success with no change,
// useful as a placeholder slot in a configured layer sequence.
func NewNoopLayer(id int, name string) *NoopLayer {
	return &NoopLayer{id: id, name: name}
}

func (l *NoopLayer) ID() int      { return l.id }
func (l *NoopLayer) Name() string { return l.name }

func (l *NoopLayer) Transform(text string, opts pipeline.Options, filePath string, previous []pipeline.LayerResult) pipeline.LayerResult {
	if text == "" {
		return pipeline.EmptyInputResult(l.id)
	}
	return pipeline.LayerResult{Success: true, Code: text, OriginalCode: text, LayerID: l.id}
}
