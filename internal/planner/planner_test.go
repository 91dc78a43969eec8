package planner

import (
	"testing"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject() *model.ProjectConfiguration {
	return &model.ProjectConfiguration{
		Modules: []model.ModuleCapability{
			{
				Name: "billing",
				SkillsByProfile: map[model.Profile][]string{
					model.ProfileImplementation: {"go-backend"},
					model.ProfileModuleTesting:  {"go-test-writer"},
				},
			},
		},
	}
}

func testOutline() *model.SolutionOutline {
	return &model.SolutionOutline{
		PlanID: "demo",
		Deliverables: []model.Deliverable{
			{
				Number:        1,
				Title:         "Add retry wrapper",
				Module:        "billing",
				Domain:        "billing",
				Profiles:      []model.Profile{model.ProfileImplementation, model.ProfileModuleTesting},
				AffectedFiles: []string{"billing/client.go"},
				Verification:  model.Verification{Command: "go test ./billing/..."},
			},
			{
				Number:        2,
				Title:         "Wire retry config",
				Module:        "billing",
				Domain:        "billing",
				Depends:       []int{1},
				Profiles:      []model.Profile{model.ProfileImplementation},
				AffectedFiles: []string{"billing/config.go"},
				Verification:  model.Verification{Command: "go test ./billing/..."},
			},
		},
	}
}

func TestExpandProducesOneTaskPerProfile(t *testing.T) {
	plan, err := Expand(testOutline(), testProject(), &model.RunConfiguration{}, model.PhasePlan)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 3)
}

func TestExpandModuleTestingDependsOnImplementation(t *testing.T) {
	plan, err := Expand(testOutline(), testProject(), &model.RunConfiguration{}, model.PhasePlan)
	require.NoError(t, err)

	var implNumber, testNumber int
	for _, task := range plan.Tasks {
		if task.Deliverable != 1 {
			continue
		}
		if task.Profile == model.ProfileImplementation {
			implNumber = task.Number
		}
		if task.Profile == model.ProfileModuleTesting {
			testNumber = task.Number
		}
	}
	require.NotZero(t, implNumber)
	require.NotZero(t, testNumber)

	var testingTask *model.Task
	for i := range plan.Tasks {
		if plan.Tasks[i].Number == testNumber {
			testingTask = &plan.Tasks[i]
		}
	}
	require.NotNil(t, testingTask)
	assert.Contains(t, testingTask.DependsOn, implNumber)
}

func TestExpandInterDeliverableDependency(t *testing.T) {
	plan, err := Expand(testOutline(), testProject(), &model.RunConfiguration{}, model.PhasePlan)
	require.NoError(t, err)

	var deliverable1TestNumber int
	var deliverable2Task *model.Task
	for i := range plan.Tasks {
		if plan.Tasks[i].Deliverable == 1 && plan.Tasks[i].Profile == model.ProfileModuleTesting {
			deliverable1TestNumber = plan.Tasks[i].Number
		}
		if plan.Tasks[i].Deliverable == 2 {
			deliverable2Task = &plan.Tasks[i]
		}
	}
	require.NotNil(t, deliverable2Task)
	require.NotZero(t, deliverable1TestNumber)
	// Deliverable 2 depends on deliverable 1's tail task only (its
	// module_testing task), not every task deliverable 1 produced.
	assert.Equal(t, []int{deliverable1TestNumber}, deliverable2Task.DependsOn)
}

func TestExpandComputesLayers(t *testing.T) {
	plan, err := Expand(testOutline(), testProject(), &model.RunConfiguration{}, model.PhasePlan)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Layers)
	// Deliverable 2's task must be in a later layer than deliverable 1's.
	lastLayer := plan.Layers[len(plan.Layers)-1]
	var deliverable2Task int
	for _, task := range plan.Tasks {
		if task.Deliverable == 2 {
			deliverable2Task = task.Number
		}
	}
	assert.Contains(t, lastLayer, deliverable2Task)
}

func TestExpandResolvesSkills(t *testing.T) {
	plan, err := Expand(testOutline(), testProject(), &model.RunConfiguration{}, model.PhasePlan)
	require.NoError(t, err)
	for _, task := range plan.Tasks {
		if task.Profile == model.ProfileImplementation {
			assert.Equal(t, []string{"go-backend"}, task.Skills)
		}
	}
}
