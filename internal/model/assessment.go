package model

import "time"

// Certainty is the inclusion decision an Assessment records for a file.
type Certainty string

const (
	CertaintyInclude  Certainty = "CERTAIN_INCLUDE"
	CertaintyExclude  Certainty = "CERTAIN_EXCLUDE"
	CertaintyUncertain Certainty = "UNCERTAIN"
)

// IsValid reports whether c is one of the three enumerated certainties.
func (c Certainty) IsValid() bool {
	switch c {
	case CertaintyInclude, CertaintyExclude, CertaintyUncertain:
		return true
	default:
		return false
	}
}

// Assessment is a justified decision about whether a specific file belongs
// in the plan. The store's assessments.jsonl is append-only; later
// entries with the same FilePath supersede earlier ones.
type Assessment struct {
	// FilePath must exist on disk (validated at write time by a validation
	// caller; see the Artifact Store's strictness-by-caller-role contract).
	FilePath string `json:"file_path"`

	// Certainty is the inclusion verdict.
	Certainty Certainty `json:"certainty"`

	// Confidence is in [0,100].
	Confidence int `json:"confidence"`

	// Agent is the producer id (which reasoning agent or gate emitted this).
	Agent string `json:"agent"`

	// Detail is the justification text.
	Detail string `json:"detail,omitempty"`

	// RecordedAt is when this assessment entry was appended.
	RecordedAt time.Time `json:"recorded_at"`
}

// LatestByFile reduces an append-only assessment log to the latest entry
// per FilePath, the way the artifact store must before evaluating coverage.
func LatestByFile(entries []Assessment) map[string]Assessment {
	latest := make(map[string]Assessment, len(entries))
	for _, e := range entries {
		existing, ok := latest[e.FilePath]
		if !ok || !e.RecordedAt.Before(existing.RecordedAt) {
			latest[e.FilePath] = e
		}
	}
	return latest
}
