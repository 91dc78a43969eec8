// Package capability implements the Capability Resolver: pure
// functions over the shared project configuration (marshal.json) and
// per-machine run configuration (run-configuration.json) that answer
// "which module, which skills, which recipe, which agent" questions
// without touching disk themselves.
//
// Follows a toolchain-selection
// functions take already-loaded config structs and apply a fixed
// precedence order rather than re-reading files per call.
package capability

import (
	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// Resolve returns the ModuleCapability named by moduleName, or NotFound.
func Resolve(project *model.ProjectConfiguration, moduleName string) (*model.ModuleCapability, error) {
	if m := project.ModuleByName(moduleName); m != nil {
		return m, nil
	}
	return nil, planerrors.New(planerrors.KindNotFound, "module not found: "+moduleName)
}

// Modules returns every module name the project declares, in declaration
// order.
func Modules(project *model.ProjectConfiguration) []string {
	names := make([]string, 0, len(project.Modules))
	for _, m := range project.Modules {
		names = append(names, m.Name)
	}
	return names
}

// SkillsByProfile resolves which skills serve (moduleName, profile),
// consulting the run configuration's ProfileMappings first. Local state
// takes precedence over project configuration only for this decision
//.
func SkillsByProfile(project *model.ProjectConfiguration, run *model.RunConfiguration, moduleName string, profile model.Profile) ([]string, error) {
	if run != nil {
		for _, pm := range run.ProfileMappings {
			if pm.Module == moduleName && pm.Profile == profile {
				return pm.Skills, nil
			}
		}
	}

	mod, err := Resolve(project, moduleName)
	if err != nil {
		return nil, err
	}
	if skills, ok := mod.SkillsByProfile[profile]; ok {
		return skills, nil
	}
	return nil, planerrors.New(planerrors.KindNotFound, "no skills mapped for profile "+string(profile)+" on module "+moduleName)
}

// ResolveRecipe returns the named recipe's deliverable templates, or
// NotFound.
func ResolveRecipe(project *model.ProjectConfiguration, key string) (*model.RecipeDefinition, error) {
	if project.Recipes == nil {
		return nil, planerrors.New(planerrors.KindNotFound, "recipe not found: "+key)
	}
	recipe, ok := project.Recipes[key]
	if !ok {
		return nil, planerrors.New(planerrors.KindNotFound, "recipe not found: "+key)
	}
	return &recipe, nil
}

// ResolveChangeTypeAgent returns the agent identifier responsible for
// producing deliverables of the given change type, or NotFound.
func ResolveChangeTypeAgent(project *model.ProjectConfiguration, changeType model.ChangeType) (string, error) {
	if project.ChangeTypeAgents == nil {
		return "", planerrors.New(planerrors.KindNotFound, "no agent mapped for change type "+string(changeType))
	}
	agent, ok := project.ChangeTypeAgents[changeType]
	if !ok {
		return "", planerrors.New(planerrors.KindNotFound, "no agent mapped for change type "+string(changeType))
	}
	return agent, nil
}

// VerificationCommand resolves the command used to verify moduleName from
// project configuration alone (run configuration never redefines
// verification commands, only skills).
func VerificationCommand(project *model.ProjectConfiguration, moduleName string) (string, error) {
	mod, err := Resolve(project, moduleName)
	if err != nil {
		return "", err
	}
	if mod.VerificationCommand == "" {
		return "", planerrors.New(planerrors.KindNotFound, "no verification command configured for module "+moduleName)
	}
	return mod.VerificationCommand, nil
}

// BranchStrategy resolves the effective branch strategy for a plan:
// the plan's own configuration if set, otherwise the project default.
func BranchStrategy(project *model.ProjectConfiguration, plan *model.PlanConfiguration) model.BranchStrategy {
	if plan != nil && plan.BranchStrategy != "" {
		return plan.BranchStrategy
	}
	return project.DefaultBranchStrategy
}
