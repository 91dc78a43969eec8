package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FindingSource identifies what produced a Finding.
type FindingSource string

const (
	FindingSourceQGate      FindingSource = "qgate"
	FindingSourceUserReview FindingSource = "user_review"
)

// FindingSeverity classifies how serious a finding is.
type FindingSeverity string

const (
	SeverityInfo     FindingSeverity = "info"
	SeverityWarning  FindingSeverity = "warning"
	SeverityError    FindingSeverity = "error"
	SeverityCritical FindingSeverity = "critical"
)

// FindingResolution is the lifecycle state of a Finding.
type FindingResolution string

const (
	ResolutionPending           FindingResolution = "pending"
	ResolutionTakenIntoAccount  FindingResolution = "taken_into_account"
	ResolutionDismissed         FindingResolution = "dismissed"
	ResolutionDeferred          FindingResolution = "deferred"
)

// IsValid reports whether r is one of the four enumerated resolutions.
func (r FindingResolution) IsValid() bool {
	switch r {
	case ResolutionPending, ResolutionTakenIntoAccount, ResolutionDismissed, ResolutionDeferred:
		return true
	default:
		return false
	}
}

// Finding is a quality-gate or user-review observation with a resolution
// lifecycle. HashID is content-derived so that repeated identical
// findings across Q-Gate re-entries do not multiply.
type Finding struct {
	// HashID is a stable hash of (Phase, Title, FilePath, Detail), hex
	// truncated to 16 chars — a sha256+hex-truncation idiom also used for
	// collision suffixes, generalized here into a pure content-identity hash.
	HashID string `json:"hash_id"`

	// Phase is the lifecycle phase where this finding was detected.
	Phase PhaseName `json:"phase"`

	// Source identifies the producer (qgate or user_review).
	Source FindingSource `json:"source"`

	// Severity classifies how serious the finding is.
	Severity FindingSeverity `json:"severity"`

	// Title is a short summary.
	Title string `json:"title"`

	// Detail is the full explanation.
	Detail string `json:"detail,omitempty"`

	// FilePath is the affected file, if applicable.
	FilePath string `json:"file_path,omitempty"`

	// Resolution is the current lifecycle state.
	Resolution FindingResolution `json:"resolution"`

	// ResolutionDetail explains how/why the finding was resolved.
	ResolutionDetail string `json:"resolution_detail,omitempty"`

	// CreatedAt is when the finding was first recorded.
	CreatedAt time.Time `json:"created_at"`

	// ResolvedAt is when the finding's resolution was last set to a
	// non-pending value.
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// ComputeHashID derives a Finding's content-identity hash.
func ComputeHashID(phase PhaseName, title, filePath, detail string) string {
	h := sha256.New()
	h.Write([]byte(string(phase)))
	h.Write([]byte{'|'})
	h.Write([]byte(title))
	h.Write([]byte{'|'})
	h.Write([]byte(filePath))
	h.Write([]byte{'|'})
	h.Write([]byte(detail))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}

// NewFinding constructs a Finding with its HashID computed and Resolution
// initialized to pending.
func NewFinding(phase PhaseName, source FindingSource, severity FindingSeverity, title, filePath, detail string, now time.Time) Finding {
	return Finding{
		HashID:     ComputeHashID(phase, title, filePath, detail),
		Phase:      phase,
		Source:     source,
		Severity:   severity,
		Title:      title,
		Detail:     detail,
		FilePath:   filePath,
		Resolution: ResolutionPending,
		CreatedAt:  now,
	}
}

// PendingCount counts findings whose Resolution is still pending.
func PendingCount(findings []Finding) int {
	count := 0
	for _, f := range findings {
		if f.Resolution == ResolutionPending {
			count++
		}
	}
	return count
}

// DedupeByHash folds a findings log down to one entry per HashID, keeping
// the most recently updated (ResolvedAt if set, else CreatedAt) entry —
// an "add is idempotent per hash" rule.
func DedupeByHash(findings []Finding) []Finding {
	latest := make(map[string]Finding, len(findings))
	order := make([]string, 0, len(findings))
	for _, f := range findings {
		if _, seen := latest[f.HashID]; !seen {
			order = append(order, f.HashID)
		}
		existing, ok := latest[f.HashID]
		if !ok || findingTimestamp(f).After(findingTimestamp(existing)) {
			latest[f.HashID] = f
		}
	}
	out := make([]Finding, 0, len(order))
	for _, hash := range order {
		out = append(out, latest[hash])
	}
	return out
}

func findingTimestamp(f Finding) time.Time {
	if !f.ResolvedAt.IsZero() {
		return f.ResolvedAt
	}
	return f.CreatedAt
}
