package artifactstore

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// AppendAssessment appends one entry to artifacts/assessments.jsonl. The log
// is append-only; later entries for the same file_path supersede earlier
// ones when evaluated via model.LatestByFile.
func (s *Store) AppendAssessment(planID string, a model.Assessment) error {
	line, err := json.Marshal(a)
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "marshal assessment", err)
	}
	return appendLine(s.artifactsDir(planID)+"/"+assessmentsFile, line)
}

// ListAssessments reads every assessment entry for planID, in file order.
func (s *Store) ListAssessments(planID string) (entries []model.Assessment, err error) {
	path := s.artifactsDir(planID) + "/" + assessmentsFile
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "open assessments.jsonl", err)
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
		var a model.Assessment
		if jsonErr := json.Unmarshal(line, &a); jsonErr != nil {
			continue
		}
		entries = append(entries, a)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "scan assessments.jsonl", scanErr)
	}
	return entries, nil
}
