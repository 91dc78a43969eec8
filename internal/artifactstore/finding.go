package artifactstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

func (s *Store) qgatePath(planID string, phase model.PhaseName) string {
	return fmt.Sprintf("%s/%s.jsonl", s.qgateDir(planID), string(phase))
}

// AppendFinding appends a finding to qgate/<phase>.jsonl if and only if no
// existing pending entry shares its HashID.
func (s *Store) AppendFinding(planID string, f model.Finding) error {
	existing, err := s.ListFindings(planID, f.Phase)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.HashID == f.HashID && e.Resolution == model.ResolutionPending {
			return nil
		}
	}

	line, err := json.Marshal(f)
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "marshal finding", err)
	}
	return appendLine(s.qgatePath(planID, f.Phase), line)
}

// ListFindings reads every finding entry recorded for phase, in file order.
func (s *Store) ListFindings(planID string, phase model.PhaseName) (findings []model.Finding, err error) {
	path := s.qgatePath(planID, phase)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "open qgate findings", err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.Finding
		if jsonErr := json.Unmarshal(line, &entry); jsonErr != nil {
			continue
		}
		findings = append(findings, entry)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "scan qgate findings", scanErr)
	}
	return findings, nil
}

// ResolveFinding appends a resolution record for hashID by writing a new
// entry carrying the updated Resolution — the findings log is append-only,
// so "updating" a finding means recording its latest state, folded down by
// model.DedupeByHash when evaluating pending-findings count.
func (s *Store) ResolveFinding(planID string, phase model.PhaseName, hashID string, resolution model.FindingResolution, detail string, resolvedAt time.Time) error {
	existing, err := s.ListFindings(planID, phase)
	if err != nil {
		return err
	}
	var found *model.Finding
	for i := range existing {
		if existing[i].HashID == hashID {
			found = &existing[i]
		}
	}
	if found == nil {
		return planerrors.Wrap(planerrors.KindNotFound, fmt.Sprintf("finding %s", hashID), nil)
	}

	updated := *found
	updated.Resolution = resolution
	updated.ResolutionDetail = detail
	updated.ResolvedAt = resolvedAt

	line, err := json.Marshal(updated)
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "marshal finding resolution", err)
	}
	return appendLine(s.qgatePath(planID, phase), line)
}

// PendingFindingCount folds phase's findings log down to one entry per
// HashID and counts those still pending.
func (s *Store) PendingFindingCount(planID string, phase model.PhaseName) (int, error) {
	entries, err := s.ListFindings(planID, phase)
	if err != nil {
		return 0, err
	}
	deduped := model.DedupeByHash(entries)
	return model.PendingCount(deduped), nil
}
