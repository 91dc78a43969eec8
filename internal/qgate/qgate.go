// Package qgate implements the Q-Gate Controller: the standard set of
// outline checks plus the bounded re-entry mechanism that lets a phase send
// itself back for self-correction without touching the single mandatory
// human-approval gate (outline phase only).
//
// Follows a GateChecker shape, whose Check method
// dispatches by gate kind to small standalone check functions, each
// returning a pass/fail plus explanation rather than raising.
package qgate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cuioss/plan-marshall/internal/model"
)

// MaxReentries bounds how many times a phase may be sent back for
// self-correction before the Q-Gate gives up.
const MaxReentries = 5

// Check is one standard outline check; it reports findings (empty slice
// means the check passed clean). phase and now are threaded through so a
// reported Finding carries the owning phase and a content-derived HashID.
type Check func(outline *model.SolutionOutline, refs *model.References, assessments []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding

// Checks returns the six standard outline checks in a fixed order, named
// exactly as the standard outline checks are enumerated.
func Checks() []Check {
	return []Check{
		checkRequestAlignment,
		checkAssessmentCoverage,
		checkNoMissingCoverage,
		checkNoProfileOverlap,
		checkSymmetricFileSets,
		checkExecutableVerification,
	}
}

// Run executes every standard check concurrently against phase and returns
// their findings in fixed check order, the same per-slot errgroup fan-out
// the pack's campaign/intelligence_gatherer.go uses to run independent
// checks without imposing a shared-slice race.
func Run(outline *model.SolutionOutline, refs *model.References, assessments []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding {
	checks := Checks()
	results := make([][]model.Finding, len(checks))

	eg, _ := errgroup.WithContext(context.Background())
	for i, check := range checks {
		i, check := i, check
		eg.Go(func() error {
			results[i] = check(outline, refs, assessments, phase, now)
			return nil
		})
	}
	_ = eg.Wait()

	var findings []model.Finding
	for _, slot := range results {
		findings = append(findings, slot...)
	}
	return findings
}

func checkRequestAlignment(outline *model.SolutionOutline, refs *model.References, _ []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding {
	if len(outline.Deliverables) == 0 {
		return []model.Finding{newFinding(phase, now, "solution outline has no deliverables", "", "outline must address the originating request with at least one deliverable")}
	}
	return nil
}

func checkAssessmentCoverage(outline *model.SolutionOutline, _ *model.References, assessments []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding {
	latest := model.LatestByFile(assessments)
	var findings []model.Finding
	for _, d := range outline.Deliverables {
		for _, path := range d.AffectedFiles {
			a, ok := latest[path]
			if !ok {
				findings = append(findings, newFinding(phase, now, "affected file has no assessment", path,
					fmt.Sprintf("deliverable %d (%s) claims %q with no recorded assessment", d.Number, d.Title, path)))
				continue
			}
			if a.Certainty != model.CertaintyInclude {
				findings = append(findings, newFinding(phase, now, "affected file lacks certain-include assessment", path,
					fmt.Sprintf("deliverable %d (%s) claims %q but its latest assessment is %s, not CERTAIN_INCLUDE", d.Number, d.Title, path, a.Certainty)))
			}
		}
	}
	return findings
}

func checkNoMissingCoverage(outline *model.SolutionOutline, refs *model.References, _ []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding {
	declared := make(map[string]bool)
	for _, d := range outline.Deliverables {
		for _, path := range d.AffectedFiles {
			declared[path] = true
		}
	}
	var findings []model.Finding
	for _, f := range refs.AffectedFiles {
		if !declared[f] {
			findings = append(findings, newFinding(phase, now, "affected file missing from every deliverable", f,
				fmt.Sprintf("references.affected_files includes %q but no deliverable claims it", f)))
		}
	}
	return findings
}

func checkNoProfileOverlap(outline *model.SolutionOutline, _ *model.References, _ []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding {
	type claim struct {
		path    string
		profile model.Profile
	}
	owner := make(map[claim]int) // (path, profile) -> deliverable number that already claims it
	var findings []model.Finding
	for _, d := range outline.Deliverables {
		for _, path := range d.AffectedFiles {
			for _, profile := range d.Profiles {
				key := claim{path, profile}
				if existing, ok := owner[key]; ok && existing != d.Number {
					findings = append(findings, newFinding(phase, now, "affected file claimed by multiple deliverables under one profile", path,
						fmt.Sprintf("deliverables %d and %d both claim %q under profile %s", existing, d.Number, path, profile)))
					continue
				}
				owner[key] = d.Number
			}
		}
	}
	return findings
}

func checkSymmetricFileSets(outline *model.SolutionOutline, refs *model.References, _ []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding {
	union := outline.UnionAffectedFiles()
	unionSet := make(map[string]bool, len(union))
	for _, f := range union {
		unionSet[f] = true
	}
	declared := make(map[string]bool, len(refs.AffectedFiles))
	for _, f := range refs.AffectedFiles {
		declared[f] = true
	}
	var findings []model.Finding
	for f := range unionSet {
		if !declared[f] {
			findings = append(findings, newFinding(phase, now, "deliverable affected file not recorded in references", f,
				fmt.Sprintf("%q is claimed by a deliverable but absent from references.affected_files", f)))
		}
	}
	for f := range declared {
		if !unionSet[f] {
			findings = append(findings, newFinding(phase, now, "reference affected file not claimed by any deliverable", f,
				fmt.Sprintf("%q is recorded in references.affected_files but no deliverable claims it", f)))
		}
	}
	return findings
}

func checkExecutableVerification(outline *model.SolutionOutline, _ *model.References, _ []model.Assessment, phase model.PhaseName, now time.Time) []model.Finding {
	var findings []model.Finding
	for _, d := range outline.Deliverables {
		if d.Verification.Command == "" {
			findings = append(findings, newFinding(phase, now, "deliverable has no verification command", "",
				fmt.Sprintf("deliverable %d (%s) declares no executable verification", d.Number, d.Title)))
		}
	}
	return findings
}

func newFinding(phase model.PhaseName, now time.Time, title, filePath, detail string) model.Finding {
	return model.NewFinding(phase, model.FindingSourceQGate, model.SeverityError, title, filePath, detail, now)
}
