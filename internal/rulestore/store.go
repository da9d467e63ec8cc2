// Package rulestore implements the Rule Store: load,
// save, add (with dedup/reobservation), apply, delete, edit, reset,
// export, import. It is the one shared mutable resource callers may use
// concurrently: writes are serialized through a single
// mutex held around load→mutate→save so a duplicate check is atomic
// with its subsequent insert.
package rulestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"neurolint/internal/hashutil"
	"neurolint/internal/logging"
	"neurolint/internal/rule"
)

// DefaultPath is the well-known project-local persistence path.
const DefaultPath = ".neurolint/learned-rules.json"

// DefaultConfidenceThreshold is used by Apply when the caller does not
// specify one.
const DefaultConfidenceThreshold = 0.70

// document is the top-level persisted shape: {"rules": [...]}.
type document struct {
	Rules []*rule.Rule `json:"rules"`
}

// Store holds the in-memory rule set and mediates all mutation through mu.
type Store struct {
	mu   sync.Mutex
	path string

	rules     []*rule.Rule
	byPattern map[string]*rule.Rule
	byID      map[string]*rule.Rule
}

// New creates an empty Store bound to path (not yet loaded from disk).
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:      path,
		byPattern: make(map[string]*rule.Rule),
		byID:      make(map[string]*rule.Rule),
	}
}

func idFor(patternText string) string {
	return hashutil.HashBytes([]byte(patternText))[:12]
}

// Load reads rules from disk, dropping (without failing) any entry whose
// pattern cannot be reconstructed as valid.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.rules = nil
			s.byPattern = make(map[string]*rule.Rule)
			s.byID = make(map[string]*rule.Rule)
			return nil
		}
		return fmt.Errorf("rulestore: failed to read %s: %w", s.path, err)
	}

	var raw struct {
		Rules []json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("rulestore: failed to parse %s: %w", s.path, err)
	}

	rules := make([]*rule.Rule, 0, len(raw.Rules))
	byPattern := make(map[string]*rule.Rule, len(raw.Rules))
	byID := make(map[string]*rule.Rule, len(raw.Rules))
	dropped := 0
	for _, entry := range raw.Rules {
		var r rule.Rule
		if err := json.Unmarshal(entry, &r); err != nil {
			dropped++
			logging.RuleStoreDebug("dropping unreconstructable rule entry: %v", err)
			continue
		}
		r.ID = idFor(r.PatternText())
		rules = append(rules, &r)
		byPattern[r.PatternText()] = &r
		byID[r.ID] = &r
	}

	s.rules = rules
	s.byPattern = byPattern
	s.byID = byID
	logging.RuleStore("loaded %d rules from %s (%d dropped)", len(rules), s.path, dropped)
	return nil
}

// Save persists the current rule set to disk as a stable JSON document.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("rulestore: failed to create directory for %s: %w", s.path, err)
		}
	}
	doc := document{Rules: s.rules}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("rulestore: failed to marshal rules: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("rulestore: failed to write %s: %w", s.path, err)
	}
	logging.RuleStoreDebug("saved %d rules to %s", len(s.rules), s.path)
	return nil
}

// Add registers a new rule, or bumps frequency/confidence on an existing
// rule with the same pattern textual form. Returns true if a
// brand-new rule was inserted, false if an existing rule was reobserved.
// The store is flushed to disk on every mutation.
func (s *Store) Add(r *rule.Rule) (isNew bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.PatternText()
	if existing, ok := s.byPattern[key]; ok {
		existing.BumpObservation()
		logging.RuleStoreDebug("reobserved rule %s (frequency=%d confidence=%.2f)", existing.ID, existing.Frequency, existing.Confidence)
		return false, s.saveLocked()
	}

	if r.ID == "" {
		r.ID = idFor(key)
	}
	if r.Frequency == 0 {
		r.Frequency = 1
	}
	s.rules = append(s.rules, r)
	s.byPattern[key] = r
	s.byID[r.ID] = r
	logging.RuleStore("added rule %s (category=%s confidence=%.2f)", r.ID, r.Category, r.Confidence)
	return true, s.saveLocked()
}

// Apply substitutes every regex-kind rule at or above threshold against
// text, in insertion order, and returns the transformed text along with
// the descriptions of rules that matched. A rule whose substitution
// panics is skipped; the rest still apply. threshold<=0
// uses DefaultConfidenceThreshold.
//
// Structural-kind rules are skipped here: every learning path that
// feeds Apply produces regex rules, and nothing else in the repository
// applies structural rules either (the Adaptive Layer only calls Apply).
func (s *Store) Apply(text string, threshold float64) (string, []string) {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	s.mu.Lock()
	rulesSnapshot := make([]*rule.Rule, len(s.rules))
	copy(rulesSnapshot, s.rules)
	s.mu.Unlock()

	var applied []string
	current := text
	for _, r := range rulesSnapshot {
		if r.PatternKind != rule.PatternRegex {
			continue
		}
		if r.Confidence < threshold {
			continue
		}

		next, matched, err := applyOne(r, current)
		if err != nil {
			logging.RuleStoreWarn("rule %s raised during apply, skipping: %v", r.ID, err)
			continue
		}
		if matched {
			current = next
			applied = append(applied, r.Description)
		}
	}
	return current, applied
}

func applyOne(r *rule.Rule, text string) (result string, matched bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("rule panicked: %v", rec)
		}
	}()

	re, cerr := r.Compiled()
	if cerr != nil {
		return text, false, cerr
	}
	if !re.MatchString(text) {
		return text, false, nil
	}

	if r.Replacement.Fn != nil {
		return re.ReplaceAllStringFunc(text, r.Replacement.Fn), true, nil
	}
	return re.ReplaceAllString(text, r.Replacement.Value), true, nil
}

// Delete removes a rule by id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("rulestore: no rule with id %s", id)
	}
	delete(s.byID, id)
	delete(s.byPattern, r.PatternText())

	filtered := s.rules[:0]
	for _, rr := range s.rules {
		if rr.ID != id {
			filtered = append(filtered, rr)
		}
	}
	s.rules = filtered
	return s.saveLocked()
}

// Edit applies patch to the rule identified by id, then persists.
func (s *Store) Edit(id string, patch func(*rule.Rule)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("rulestore: no rule with id %s", id)
	}
	oldKey := r.PatternText()
	patch(r)
	newKey := r.PatternText()
	if newKey != oldKey {
		delete(s.byPattern, oldKey)
		s.byPattern[newKey] = r
	}
	return s.saveLocked()
}

// Reset clears every rule and persists the empty store.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
	s.byPattern = make(map[string]*rule.Rule)
	s.byID = make(map[string]*rule.Rule)
	return s.saveLocked()
}

// Export writes the current rule set to an arbitrary path.
func (s *Store) Export(path string) error {
	s.mu.Lock()
	doc := document{Rules: s.rules}
	s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("rulestore: failed to marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("rulestore: failed to write export %s: %w", path, err)
	}
	return nil
}

// Import replaces the current rule set with the contents of path, then
// persists to the store's own path.
func (s *Store) Import(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rulestore: failed to read import %s: %w", path, err)
	}

	var raw struct {
		Rules []json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("rulestore: failed to parse import %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules := make([]*rule.Rule, 0, len(raw.Rules))
	byPattern := make(map[string]*rule.Rule, len(raw.Rules))
	byID := make(map[string]*rule.Rule, len(raw.Rules))
	for _, entry := range raw.Rules {
		var r rule.Rule
		if err := json.Unmarshal(entry, &r); err != nil {
			continue
		}
		r.ID = idFor(r.PatternText())
		rules = append(rules, &r)
		byPattern[r.PatternText()] = &r
		byID[r.ID] = &r
	}
	s.rules = rules
	s.byPattern = byPattern
	s.byID = byID
	return s.saveLocked()
}

// All returns a copy of every rule currently in the store.
func (s *Store) All() []*rule.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*rule.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// CountMatching returns how many rules currently share the given pattern
// textual form.
func (s *Store) CountMatching(patternText string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPattern[patternText]; ok {
		return 1
	}
	return 0
}
