package model

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// IsValid reports whether s is one of the four enumerated task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone, TaskBlocked:
		return true
	default:
		return false
	}
}

// TaskType classifies the kind of work a Task performs.
type TaskType string

const (
	TaskTypeImpl TaskType = "IMPL"
	TaskTypeFix  TaskType = "FIX"
	TaskTypeSonar TaskType = "SONAR"
	TaskTypePR   TaskType = "PR"
	TaskTypeLint TaskType = "LINT"
	TaskTypeSec  TaskType = "SEC"
	TaskTypeDoc  TaskType = "DOC"
)

// TaskOrigin records whether a Task came from the plan phase or from a
// verify-phase fix loop.
type TaskOrigin string

const (
	OriginPlan TaskOrigin = "plan"
	OriginFix  TaskOrigin = "fix"
)

// StepStatus is the lifecycle state of a single file-path work item within
// a Task's Steps.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepDone    StepStatus = "done"
	StepSkipped StepStatus = "skipped"
)

// Step is one ordered file-path work item with its own status.
type Step struct {
	// FilePath is the file this step operates on.
	FilePath string `json:"file_path"`

	// Status is the step's current lifecycle state.
	Status StepStatus `json:"status"`
}

// Task is a committable unit derived from a Deliverable and a Profile
//. File name convention: tasks/TASK-<NNN>.json, 3-digit
// zero-padded — the spec names two competing conventions; this implementation picks TASK-NNN.json without a type
// suffix and treats TASK-NNN-TYPE.json as a migration concern, not a
// runtime one.
type Task struct {
	// Number is stable and immutable once assigned.
	Number int `json:"number"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// Status is the task's current lifecycle state.
	Status TaskStatus `json:"status"`

	// Phase is the plan phase that created this task.
	Phase PhaseName `json:"phase"`

	// Type classifies the kind of work.
	Type TaskType `json:"type"`

	// Origin records whether this task came from planning or a fix loop.
	Origin TaskOrigin `json:"origin"`

	// Deliverable is the single deliverable number this task maps to (the
	// 1:N deliverable-to-task expansion is 1:1 per task, never aggregated).
	Deliverable int `json:"deliverable"`

	// Domain is inherited from the deliverable.
	Domain string `json:"domain"`

	// Profile is the role this task plays relative to its deliverable.
	Profile Profile `json:"profile"`

	// Skills is the resolved capability bundle for this task's
	// (module, profile) pair — opaque notations, not interpreted by the
	// core.
	Skills []string `json:"skills,omitempty"`

	// DependsOn lists other task numbers this task cannot start before.
	DependsOn []int `json:"depends_on,omitempty"`

	// Description is the free-text work description.
	Description string `json:"description,omitempty"`

	// Steps is the ordered list of file-path work items.
	Steps []Step `json:"steps"`

	// Verification is the task-level verification contract.
	Verification Verification `json:"verification"`

	// CurrentStep is a 1-based index into Steps, or 0 if not started.
	CurrentStep int `json:"current_step"`

	// VerificationPassed is true once a verification command for this task
	// has been executed to exit 0. Manual-verification tasks never set
	// this; they rely on an attested completion instead.
	VerificationPassed bool `json:"verification_passed,omitempty"`

	// Attempts counts execute-phase retries, bounded by a per-task budget
	// (default 3).
	Attempts int `json:"attempts,omitempty"`

	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the task was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// StepsComplete reports whether every step is done or skipped — half of
// what's required for marking a task done.
func (t *Task) StepsComplete() bool {
	for _, s := range t.Steps {
		if s.Status != StepDone && s.Status != StepSkipped {
			return false
		}
	}
	return true
}

// VerificationSatisfied reports whether this task has the other half of
// what's required for marking a task done: a manual-verification task is
// satisfied by attestation, every other task only by VerificationPassed.
func (t *Task) VerificationSatisfied() bool {
	return t.Verification.Manual || t.VerificationPassed
}

// FileName is the canonical on-disk file name for this task.
func (t *Task) FileName() string {
	return taskFileName(t.Number)
}

func taskFileName(number int) string {
	return fmt.Sprintf("TASK-%03d.json", number)
}

// BuildDependencyGraph builds an adjacency map of task number -> depends-on
// numbers, for cycle detection and topological layering.
func BuildDependencyGraph(tasks []Task) map[int][]int {
	graph := make(map[int][]int, len(tasks))
	for _, t := range tasks {
		graph[t.Number] = append([]int(nil), t.DependsOn...)
	}
	return graph
}

// HasCycle reports whether the dependency graph contains a cycle.
func HasCycle(graph map[int][]int) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int]int, len(graph))
	var visit func(n int) bool
	visit = func(n int) bool {
		color[n] = gray
		for _, dep := range graph[n] {
			switch color[dep] {
			case gray:
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}
	for n := range graph {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}

// TopologicalLayers groups task numbers into parallelizable layers: layer 0 contains tasks with no unresolved dependency, layer 1
// contains tasks whose dependencies are all in layer 0, and so on. Within a
// layer, callers should further sort by deliverable number ascending.
func TopologicalLayers(graph map[int][]int) [][]int {
	remaining := make(map[int][]int, len(graph))
	for n, deps := range graph {
		remaining[n] = append([]int(nil), deps...)
	}

	var layers [][]int
	for len(remaining) > 0 {
		var layer []int
		for n, deps := range remaining {
			if len(deps) == 0 {
				layer = append(layer, n)
			}
		}
		if len(layer) == 0 {
			// Cycle present; stop to avoid an infinite loop. Callers must
			// check HasCycle before relying on complete layering.
			break
		}
		sortInts(layer)
		for _, n := range layer {
			delete(remaining, n)
		}
		for n, deps := range remaining {
			remaining[n] = removeAll(deps, layer)
		}
		layers = append(layers, layer)
	}
	return layers
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func removeAll(xs []int, remove []int) []int {
	removeSet := make(map[int]bool, len(remove))
	for _, r := range remove {
		removeSet[r] = true
	}
	out := xs[:0:0]
	for _, x := range xs {
		if !removeSet[x] {
			out = append(out, x)
		}
	}
	return out
}
