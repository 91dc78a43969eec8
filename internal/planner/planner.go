// Package planner implements the Task Planner: the algorithm that
// expands an approved SolutionOutline's Deliverables into a dependency-DAG
// of Tasks, one per (deliverable, profile) pair, ordered intra- and
// inter-deliverable and grouped into parallel execution layers.
//
// Generalizes task-graph helpers
// here via internal/model's BuildDependencyGraph/HasCycle/TopologicalLayers,
// the same separation kept between pure graph algorithms and
// the planning code that builds the graph's inputs.
package planner

import (
	"fmt"

	"github.com/cuioss/plan-marshall/internal/capability"
	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// Plan is the planner's output: the expanded tasks plus their computed
// parallel execution layers.
type Plan struct {
	Tasks  []model.Task
	Layers [][]int
}

// Expand runs the 9-step task-planning algorithm over outline:
//  1. Walk deliverables in ascending Number order.
//  2. For each deliverable, walk its Profiles in declared order.
//  3. Only deliverables with execution_mode manual yield tasks with
//     Verification.Manual set; mixed deliverables expand like automated
//     ones and are not split into automated and manual tasks.
//  4. Each (deliverable, profile) pair becomes exactly one Task (1:N
//     deliverable-to-task expansion, never aggregated).
//  5. Resolve Skills for (deliverable.Module, profile) via the Capability
//     Resolver.
//  6. Intra-deliverable ordering: a deliverable's module_testing task always
//     depends on its own implementation task.
//  7. Inter-deliverable ordering: a task depends on the tail task of each
//     deliverable named in Depends — the module_testing task if the
//     predecessor has one, else its implementation task, else whichever
//     task was produced last for it.
//  8. Task numbers are assigned in expansion order, 1-based, never reused.
//  9. Compute parallel layers via TopologicalLayers, tie-broken by
//     deliverable number ascending (already guaranteed by expansion order
//     within a layer plus TopologicalLayers' own ascending sort).
func Expand(outline *model.SolutionOutline, project *model.ProjectConfiguration, run *model.RunConfiguration, phase model.PhaseName) (Plan, error) {
	var tasks []model.Task
	deliverableTail := make(map[int]int) // deliverable number -> its tail task number
	nextNumber := 1

	for _, d := range sortedByNumber(outline.Deliverables) {
		var implNumber, testNumber, lastNumber int
		hasImpl, hasTest := false, false

		for _, profile := range d.Profiles {
			skills, err := capability.SkillsByProfile(project, run, d.Module, profile)
			if err != nil {
				skills = nil
			}

			task := model.Task{
				Number:      nextNumber,
				Title:       fmt.Sprintf("%s: %s", profile, d.Title),
				Status:      model.TaskPending,
				Phase:       phase,
				Type:        taskTypeFor(d, profile),
				Origin:      model.OriginPlan,
				Deliverable: d.Number,
				Domain:      d.Domain,
				Profile:     profile,
				Skills:      skills,
				Description: d.Title,
				Steps:       stepsFor(d),
				Verification: model.Verification{
					Command:  d.Verification.Command,
					Criteria: d.Verification.Criteria,
					Manual:   d.ExecutionMode == model.ExecutionManual,
				},
			}

			if profile == model.ProfileModuleTesting && hasImpl {
				task.DependsOn = append(task.DependsOn, implNumber)
			}
			if profile == model.ProfileImplementation {
				implNumber = task.Number
				hasImpl = true
			}
			if profile == model.ProfileModuleTesting {
				testNumber = task.Number
				hasTest = true
			}

			for _, depNumber := range d.Depends {
				if tail, ok := deliverableTail[depNumber]; ok {
					task.DependsOn = append(task.DependsOn, tail)
				}
			}

			tasks = append(tasks, task)
			lastNumber = task.Number
			nextNumber++
		}

		tail := lastNumber
		if hasImpl {
			tail = implNumber
		}
		if hasTest {
			tail = testNumber
		}
		deliverableTail[d.Number] = tail
	}

	graph := model.BuildDependencyGraph(tasks)
	if model.HasCycle(graph) {
		return Plan{}, planerrors.New(planerrors.KindInvariantViolation, "task dependency graph contains a cycle")
	}

	return Plan{Tasks: tasks, Layers: model.TopologicalLayers(graph)}, nil
}

func taskTypeFor(d model.Deliverable, profile model.Profile) model.TaskType {
	if profile == model.ProfileModuleTesting {
		return model.TaskTypeImpl
	}
	switch d.ChangeType {
	case model.ChangeTechDebt:
		return model.TaskTypeLint
	case model.ChangeVerification:
		return model.TaskTypeSonar
	default:
		return model.TaskTypeImpl
	}
}

func stepsFor(d model.Deliverable) []model.Step {
	steps := make([]model.Step, 0, len(d.AffectedFiles))
	for _, path := range d.AffectedFiles {
		steps = append(steps, model.Step{FilePath: path, Status: model.StepPending})
	}
	return steps
}

// sortedByNumber returns deliverables ordered ascending by Number, the
// fixed intra-outline ordering step 1 of the algorithm requires.
func sortedByNumber(deliverables []model.Deliverable) []model.Deliverable {
	out := append([]model.Deliverable(nil), deliverables...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Number > out[j].Number; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
