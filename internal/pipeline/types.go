// Package pipeline implements the Transformation Pipeline:
// the top-level orchestrator that resolves targets, runs layers in order,
// threads prior results forward, enforces backup and rollback, and emits
// an aggregate report. It also defines the Layer interface and the shared
// LayerResult/Finding/Options types every layer (including the adaptive
// and hardening layers) is built against.
package pipeline

import "neurolint/internal/rule"

// ChangeKind tags a single entry in a LayerResult's user-visible change log.
type ChangeKind string

const (
	ChangeApply    ChangeKind = "apply"    // a stored rule matched and rewrote text
	ChangeLearn    ChangeKind = "learn"    // a new rule was derived and registered
	ChangeAdvisory ChangeKind = "advisory" // a non-mutating suggestion
	ChangeHarden   ChangeKind = "harden"   // a Layer 8 neutralization
)

// Change is one entry of a LayerResult's changes[] log.
type Change struct {
	Kind        ChangeKind `json:"kind"`
	Description string     `json:"description"`
	Line        int        `json:"line,omitempty"`
}

// EventKind tags a fine-grained lifecycle event recorded in results[].
type EventKind string

const (
	EventBackup EventKind = "backup"
	EventApply  EventKind = "apply"
	EventLearn  EventKind = "learn"
	EventWrite  EventKind = "write"
	EventEmpty  EventKind = "empty"
)

// Event is one fine-grained record in a LayerResult's results[] log.
type Event struct {
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Finding is emitted by analyzers (principally Layer 8).
type Finding struct {
	SignatureID string        `json:"signature_id"`
	Description string        `json:"description"`
	Severity    rule.Severity `json:"severity"`
	Line        int           `json:"line"`
	Column      int           `json:"column"`
	Context     string        `json:"context,omitempty"`
	Match       string        `json:"match,omitempty"`
}

// LayerResult is emitted by every layer for every file.
// ChangeCount counts only real text mutations, never advisory suggestions
//.
type LayerResult struct {
	Success          bool      `json:"success"`
	Code             string    `json:"code"`
	OriginalCode     string    `json:"original_code"`
	ChangeCount      int       `json:"change_count"`
	Results          []Event   `json:"results"`
	Changes          []Change  `json:"changes"`
	Error            string    `json:"error,omitempty"`
	LayerID          int       `json:"layer_id"`
	SecurityFindings []Finding `json:"security_findings,omitempty"`
}

// EmptyInputResult is the canonical result for empty input text: success=false with a single "empty" event, no write.
func EmptyInputResult(layerID int) LayerResult {
	return LayerResult{
		Success:      false,
		Code:         "",
		OriginalCode: "",
		LayerID:      layerID,
		Results:      []Event{{Kind: EventEmpty}},
	}
}

// Options configures a single pipeline invocation.
type Options struct {
	DryRun              bool
	Verbose             bool
	Quarantine          bool
	ConfidenceThreshold float64
}

// Layer is the contract every transformer in the pipeline satisfies
//. Implementations must not mutate text or previous; must
// write to FilePath only via the pipeline (layers themselves are pure
// text-in/text-out), and must report original_code == text unmodified.
type Layer interface {
	ID() int
	Name() string
	Transform(text string, opts Options, filePath string, previous []LayerResult) LayerResult
}
