package model

import "time"

// BranchStrategy controls how a plan's changes are committed relative to git
// branches.
type BranchStrategy string

const (
	BranchStrategyDirect   BranchStrategy = "direct"
	BranchStrategyPerPlan  BranchStrategy = "per_plan"
	BranchStrategyFeature  BranchStrategy = "feature"
)

// PlanConfiguration is the per-plan configuration entity persisted under the
// plan's own directory. It is distinct from the shared project
// configuration (marshal.json) and the per-machine run configuration
// (run-configuration.json) below.
type PlanConfiguration struct {
	// Domains restricts which domains this plan may touch; empty means no
	// restriction beyond what references.domains records.
	Domains []string `json:"domains,omitempty"`

	// Compatibility is the resolved compatibility policy for this plan.
	Compatibility Compatibility `json:"compatibility,omitempty"`

	// CreatePR controls whether finalize opens a pull request.
	CreatePR bool `json:"create_pr"`

	// VerificationRequired controls whether the verify phase may be skipped.
	VerificationRequired bool `json:"verification_required"`

	// BranchStrategy controls branch naming/lifecycle for this plan.
	BranchStrategy BranchStrategy `json:"branch_strategy,omitempty"`
}

// ProfileMapping is one local override of which skills/agent serve a given
// (module, profile) pair, recorded in run-configuration.json. Local
// state takes precedence over the shared project configuration for this
// decision only.
type ProfileMapping struct {
	Module  string   `json:"module"`
	Profile Profile  `json:"profile"`
	Skills  []string `json:"skills"`
}

// CommandTiming is the adaptive-timeout bookkeeping for one command key
//, persisted under run-configuration.json's per-command-key map.
type CommandTiming struct {
	// TimeoutSeconds is the persisted learned timeout.
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// LastExecution is when this command key last completed.
	LastExecution time.Time `json:"last_execution,omitempty"`
}

// CIState records facts about the local execution environment that the
// Capability Resolver and Command Executor consult.
type CIState struct {
	// GitPresent reports whether a git toolchain was detected locally.
	GitPresent bool `json:"git_present"`

	// AuthenticatedTools lists CLI tools confirmed to have valid credentials.
	AuthenticatedTools []string `json:"authenticated_tools,omitempty"`
}

// RunConfiguration is the per-machine, uncommitted local state layered under
// the shared project configuration. It is the only place local
// state takes precedence over project configuration, and only for
// ProfileMappings.
type RunConfiguration struct {
	// CommandTimings maps a command key (e.g. "go:test", "npm:lint") to its
	// adaptive timeout bookkeeping.
	CommandTimings map[string]CommandTiming `json:"command_timings,omitempty"`

	// AcceptableWarnings lists warning substrings this machine has chosen to
	// treat as non-blocking.
	AcceptableWarnings []string `json:"acceptable_warnings,omitempty"`

	// SkippedFiles and SkippedDirectories exclude paths from verification
	// scans on this machine.
	SkippedFiles       []string `json:"skipped_files,omitempty"`
	SkippedDirectories []string `json:"skipped_directories,omitempty"`

	// ProfileMappings overrides shared capability configuration for specific
	// (module, profile) pairs.
	ProfileMappings []ProfileMapping `json:"profile_mappings,omitempty"`

	// CI records locally detected environment facts.
	CI CIState `json:"ci"`
}

// ModuleCapability is one entry in the shared project configuration's module
// table (marshal.json), resolved by the Capability Resolver.
type ModuleCapability struct {
	// Name is the module identifier used throughout deliverables and tasks.
	Name string `json:"name"`

	// Path is the module's root path relative to the project root.
	Path string `json:"path"`

	// VerificationCommand is the default command used to verify this module.
	VerificationCommand string `json:"verification_command,omitempty"`

	// SkillsByProfile maps a Profile to the skill notations resolved for it,
	// absent a local ProfileMapping override.
	SkillsByProfile map[Profile][]string `json:"skills_by_profile,omitempty"`
}

// ProjectConfiguration is the shared, committed project configuration
//. Its wire format is pinned to JSON by spec, unlike
// the CLI's own optional local dotfile.
type ProjectConfiguration struct {
	// Modules lists every module the Capability Resolver may resolve against.
	Modules []ModuleCapability `json:"modules"`

	// Recipes maps a recipe key to the deliverable template it expands to,
	// for recipe-driven plans.
	Recipes map[string]RecipeDefinition `json:"recipes,omitempty"`

	// ChangeTypeAgents maps a ChangeType to the agent identifier responsible
	// for producing deliverables of that type.
	ChangeTypeAgents map[ChangeType]string `json:"change_type_agents,omitempty"`

	// DefaultBranchStrategy is used when a plan's own configuration omits one.
	DefaultBranchStrategy BranchStrategy `json:"default_branch_strategy,omitempty"`
}

// RecipeDefinition is one named, deterministic deliverable template a plan
// may select instead of discovery-driven outlining.
type RecipeDefinition struct {
	// Key matches the map key it is stored under in ProjectConfiguration.
	Key string `json:"key"`

	// Description is a short human-readable summary.
	Description string `json:"description,omitempty"`

	// DeliverableTemplates lists the deliverables this recipe expands into,
	// with numbers, AffectedFiles and Depends kept exactly as authored; no
	// code in this module renumbers them.
	DeliverableTemplates []Deliverable `json:"deliverable_templates"`
}

// ModuleByName returns the capability entry for name, or nil.
func (c *ProjectConfiguration) ModuleByName(name string) *ModuleCapability {
	for i := range c.Modules {
		if c.Modules[i].Name == name {
			return &c.Modules[i]
		}
	}
	return nil
}
