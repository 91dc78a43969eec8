package artifactstore

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
	"github.com/cuioss/plan-marshall/internal/toon"
)

// CreatePlan creates a new plan directory with all seven phases pending and
// persists its initial status.toon. Returns ErrAlreadyExists if the plan
// directory is already present (creation is exclusive).
func (s *Store) CreatePlan(planID string, now time.Time) (*model.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidatePlanID(planID); err != nil {
		return nil, err
	}
	if s.PlanExists(planID) {
		return nil, planerrors.Wrap(planerrors.KindAlreadyExists, fmt.Sprintf("plan %q already exists", planID), nil)
	}

	if err := s.initPlanDirs(planID); err != nil {
		return nil, err
	}

	plan := model.NewPlan(planID, now)
	if err := s.writeStatusLocked(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ReadStatus loads the phase state machine snapshot for planID.
func (s *Store) ReadStatus(planID string) (*model.Plan, error) {
	path := statusPath(s, planID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, planerrors.Wrap(planerrors.KindNotFound, fmt.Sprintf("status for plan %q", planID), err)
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read status.toon", err)
	}
	doc, err := toon.Parse(string(data))
	if err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "parse status.toon", err)
	}
	return decodePlan(doc)
}

// WriteStatus persists plan's phase state machine snapshot, enforcing that at
// most one in_progress phase, current_phase equals the first non-done phase.
func (s *Store) WriteStatus(plan *model.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeStatusLocked(plan)
}

func (s *Store) writeStatusLocked(plan *model.Plan) error {
	if err := validatePlanInvariants(plan); err != nil {
		return err
	}
	doc := encodePlan(plan)
	return atomicWriteFile(statusPath(s, plan.PlanID), []byte(toon.Render(doc)))
}

// validatePlanInvariants enforces that at most one phase is in_progress, and
// current_phase equals the first phase that is not done.
func validatePlanInvariants(plan *model.Plan) error {
	inProgressCount := 0
	for _, ps := range plan.Phases {
		if ps.Status == model.PhaseStatusInProgress {
			inProgressCount++
		}
	}
	if inProgressCount > 1 {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "more than one phase is in_progress", nil)
	}

	firstNonDone := model.PhaseName("")
	for _, ps := range plan.Phases {
		if ps.Status != model.PhaseStatusDone {
			firstNonDone = ps.Name
			break
		}
	}
	if firstNonDone != "" && plan.CurrentPhase != firstNonDone {
		return planerrors.Wrap(planerrors.KindInvariantViolation,
			fmt.Sprintf("current_phase %q does not match first non-done phase %q", plan.CurrentPhase, firstNonDone), nil)
	}
	return nil
}

func statusPath(s *Store, planID string) string {
	return s.PlanDir(planID) + "/" + statusFile
}

func encodePlan(plan *model.Plan) *toon.Document {
	doc := &toon.Document{}
	doc.Set("plan_id", plan.PlanID)
	doc.Set("current_phase", string(plan.CurrentPhase))
	doc.Set("change_type", string(plan.ChangeType))
	doc.Set("recipe_key", plan.RecipeKey)
	doc.Set("created_at", plan.CreatedAt.UTC().Format(time.RFC3339))
	doc.Set("updated_at", plan.UpdatedAt.UTC().Format(time.RFC3339))
	doc.Set("domains", strings.Join(plan.Domains, ","))

	rows := make([][]string, 0, len(plan.Phases))
	for _, ps := range plan.Phases {
		rows = append(rows, []string{
			string(ps.Name),
			string(ps.Status),
			strconv.Itoa(ps.ReentryCount),
			formatTimeOrEmpty(ps.EnteredAt),
			formatTimeOrEmpty(ps.UpdatedAt),
			ps.FailureReason,
		})
	}
	doc.SetArray("phases", []string{"name", "status", "reentry_count", "entered_at", "updated_at", "failure_reason"}, rows)
	return doc
}

func decodePlan(doc *toon.Document) (*model.Plan, error) {
	plan := &model.Plan{
		PlanID:       doc.Get("plan_id"),
		CurrentPhase: model.PhaseName(doc.Get("current_phase")),
		ChangeType:   model.ChangeType(doc.Get("change_type")),
		RecipeKey:    doc.Get("recipe_key"),
	}
	if d := doc.Get("domains"); d != "" {
		plan.Domains = strings.Split(d, ",")
	}
	plan.CreatedAt = parseTimeOrZero(doc.Get("created_at"))
	plan.UpdatedAt = parseTimeOrZero(doc.Get("updated_at"))

	arr := doc.Array("phases")
	for _, row := range toon.RowsToMaps(arr) {
		reentry, _ := strconv.Atoi(row["reentry_count"])
		plan.Phases = append(plan.Phases, model.PhaseState{
			Name:          model.PhaseName(row["name"]),
			Status:        model.PhaseStatus(row["status"]),
			ReentryCount:  reentry,
			EnteredAt:     parseTimeOrZero(row["entered_at"]),
			UpdatedAt:     parseTimeOrZero(row["updated_at"]),
			FailureReason: row["failure_reason"],
		})
	}
	return plan, nil
}

func formatTimeOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ReadConfig loads the per-plan configuration (config.toon).
func (s *Store) ReadConfig(planID string) (*model.PlanConfiguration, error) {
	path := s.PlanDir(planID) + "/" + configFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.PlanConfiguration{VerificationRequired: true}, nil
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read config.toon", err)
	}
	doc, err := toon.Parse(string(data))
	if err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "parse config.toon", err)
	}
	cfg := &model.PlanConfiguration{
		Compatibility:        model.Compatibility(doc.Get("compatibility")),
		CreatePR:             doc.Get("create_pr") == "true",
		VerificationRequired: doc.Get("verification_required") != "false",
		BranchStrategy:       model.BranchStrategy(doc.Get("branch_strategy")),
	}
	if d := doc.Get("domains"); d != "" {
		cfg.Domains = strings.Split(d, ",")
	}
	return cfg, nil
}

// WriteConfig persists the per-plan configuration.
func (s *Store) WriteConfig(planID string, cfg *model.PlanConfiguration) error {
	doc := &toon.Document{}
	doc.Set("domains", strings.Join(cfg.Domains, ","))
	doc.Set("compatibility", string(cfg.Compatibility))
	doc.Set("create_pr", boolStr(cfg.CreatePR))
	doc.Set("verification_required", boolStr(cfg.VerificationRequired))
	doc.Set("branch_strategy", string(cfg.BranchStrategy))
	return atomicWriteFile(s.PlanDir(planID)+"/"+configFile, []byte(toon.Render(doc)))
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ReadReferences loads the typed reference bag (references.toon).
func (s *Store) ReadReferences(planID string) (*model.References, error) {
	path := s.PlanDir(planID) + "/" + referencesFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.References{}, nil
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read references.toon", err)
	}
	doc, err := toon.Parse(string(data))
	if err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "parse references.toon", err)
	}
	refs := &model.References{
		Branch:        doc.Get("branch"),
		IssueURL:      doc.Get("issue_url"),
		Track:         model.Track(doc.Get("track")),
		ScopeEstimate: model.ScopeEstimate(doc.Get("scope_estimate")),
		Compatibility: model.Compatibility(doc.Get("compatibility")),
	}
	if d := doc.Get("domains"); d != "" {
		refs.Domains = strings.Split(d, ",")
	}
	if d := doc.Get("affected_files"); d != "" {
		refs.AffectedFiles = strings.Split(d, ",")
	}
	if arr := doc.Array("module_mapping"); arr != nil {
		refs.ModuleMapping = make(map[string]string, len(arr.Rows))
		for _, row := range toon.RowsToMaps(arr) {
			refs.ModuleMapping[row["domain"]] = row["module"]
		}
	}
	return refs, nil
}

// WriteReferences persists the typed reference bag.
func (s *Store) WriteReferences(planID string, refs *model.References) error {
	doc := &toon.Document{}
	doc.Set("affected_files", strings.Join(refs.AffectedFiles, ","))
	doc.Set("domains", strings.Join(refs.Domains, ","))
	doc.Set("branch", refs.Branch)
	doc.Set("issue_url", refs.IssueURL)
	doc.Set("track", string(refs.Track))
	doc.Set("scope_estimate", string(refs.ScopeEstimate))
	doc.Set("compatibility", string(refs.Compatibility))

	if len(refs.ModuleMapping) > 0 {
		rows := make([][]string, 0, len(refs.ModuleMapping))
		for domain, module := range refs.ModuleMapping {
			rows = append(rows, []string{domain, module})
		}
		doc.SetArray("module_mapping", []string{"domain", "module"}, rows)
	}
	return atomicWriteFile(s.PlanDir(planID)+"/"+referencesFile, []byte(toon.Render(doc)))
}

// ListPlans returns every plan_id currently present under the store.
func (s *Store) ListPlans() ([]string, error) {
	entries, err := os.ReadDir(s.BaseDir + "/" + PlansDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "list plans directory", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// PrunePlans removes every plan whose status has reached a terminal state
// (done or failed) and whose UpdatedAt is older than cutoff: an
// age-threshold bulk cleanup over a pool of candidates, generalized from
// candidate promotion to plan retention housekeeping.
func (s *Store) PrunePlans(cutoff time.Time) (removed []string, err error) {
	ids, err := s.ListPlans()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		plan, readErr := s.ReadStatus(id)
		if readErr != nil {
			continue
		}
		if !plan.IsTerminal() || !plan.UpdatedAt.Before(cutoff) {
			continue
		}
		if rmErr := os.RemoveAll(s.PlanDir(id)); rmErr != nil {
			return removed, planerrors.Wrap(planerrors.KindInvariantViolation, "remove plan directory", rmErr)
		}
		removed = append(removed, id)
	}
	return removed, nil
}
