// Package extract implements the Pattern Extractors: a
// configuration-file extractor, a component (JSX) extractor, and a
// generic extractor. The generic extractor works on line-level hunks
// from internal/difftext; no extractor builds or compares syntax trees.
// Each exposes extract(before, after) and is selected by
// file-type/content detection; only candidates that pass the Pattern
// Classifier's validation are returned. Parse failures are swallowed
// and, in debug mode only, written to the extract category's log file
// under .neurolint/logs via the logging package; nothing is written to
// stderr.
package extract

import (
	"strings"

	"neurolint/internal/rule"
)

// Extract dispatches before/after file content to the extractor selected
// by path/content signature, returning every candidate rule that passed
// classifier validation.
func Extract(path, before, after string) []*rule.Rule {
	switch {
	case IsConfigTarget(path, before, after):
		return Config(path, before, after)
	case IsComponentTarget(path):
		return Component(path, before, after)
	default:
		return Generic(path, before, after)
	}
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
