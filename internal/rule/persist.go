package rule

import "encoding/json"

// persistedRule mirrors the learned-rule persistence file shape.
// Regex rules serialize pattern as "/body/flags"; structural rules reuse
// the same field with a "{node_type}|{descriptor}" body and no flags,
// tagged by the additional pattern_kind field so a round trip can tell
// them apart.
type persistedRule struct {
	Description     string          `json:"description"`
	Pattern         string          `json:"pattern"`
	PatternKind     PatternKind     `json:"pattern_kind,omitempty"`
	Replacement     string          `json:"replacement"`
	Confidence      float64         `json:"confidence"`
	Frequency       int             `json:"frequency"`
	Layer           int             `json:"layer"`
	Category        Category        `json:"category"`
	RequiredImport  *RequiredImport `json:"required_import,omitempty"`
	SecurityRelated bool            `json:"security_related,omitempty"`
	Severity        Severity        `json:"severity,omitempty"`
	SignatureID     string          `json:"signature_id,omitempty"`
}

// MarshalJSON renders the rule into the persisted shape. Function
// replacements are dropped: only the Value survives.
func (r *Rule) MarshalJSON() ([]byte, error) {
	pr := persistedRule{
		Description:     r.Description,
		PatternKind:     r.PatternKind,
		Replacement:     r.Replacement.Value,
		Confidence:      r.Confidence,
		Frequency:       r.Frequency,
		Layer:           r.Layer,
		Category:        r.Category,
		RequiredImport:  r.RequiredImport,
		SecurityRelated: r.SecurityRelated,
		Severity:        r.Severity,
		SignatureID:     r.SignatureID,
	}
	if r.PatternKind == PatternStructural && r.Structural != nil {
		pr.Pattern = "/" + r.Structural.NodeType + "|" + r.Structural.Descriptor + "/"
	} else {
		pr.Pattern = PersistedPattern(r.RegexSource, r.RegexFlags)
	}
	return json.Marshal(pr)
}

// UnmarshalJSON parses a persisted rule. Regex rules that fail to
// reconstruct as a valid Go regexp return an error; callers (Store.Load)
// are expected to drop such entries silently.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var pr persistedRule
	if err := json.Unmarshal(data, &pr); err != nil {
		return err
	}

	r.Description = pr.Description
	r.Replacement = Replacement{Kind: ReplacementLiteral, Value: pr.Replacement}
	r.Confidence = pr.Confidence
	r.Frequency = pr.Frequency
	r.Layer = pr.Layer
	r.Category = pr.Category
	r.RequiredImport = pr.RequiredImport
	r.SecurityRelated = pr.SecurityRelated
	r.Severity = pr.Severity
	r.SignatureID = pr.SignatureID

	kind := pr.PatternKind
	if kind == "" {
		kind = PatternRegex
	}
	r.PatternKind = kind

	source, flags, err := ParsePersistedPattern(pr.Pattern)
	if err != nil {
		return err
	}

	if kind == PatternStructural {
		node, descriptor, _ := splitStructural(source)
		r.Structural = &StructuralMatcher{NodeType: node, Descriptor: descriptor}
		return nil
	}

	r.RegexSource = source
	r.RegexFlags = flags
	return r.compile()
}

func splitStructural(body string) (nodeType, descriptor string, ok bool) {
	for i := 0; i < len(body); i++ {
		if body[i] == '|' {
			return body[:i], body[i+1:], true
		}
	}
	return body, "", false
}
