package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsWhenNothingSet(t *testing.T) {
	t.Setenv("PLANMARSHALL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HOME", t.TempDir())
	rc := Resolve(FlagOverrides{})
	assert.Equal(t, defaultOutput, rc.Output.Value)
	assert.Equal(t, SourceDefault, rc.Output.Source)
	assert.Equal(t, defaultBaseDir, rc.BaseDir.Value)
}

func TestResolveFlagOverridesEverything(t *testing.T) {
	dir := t.TempDir()
	projectConfig := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(projectConfig, []byte("output: yaml\nbase_dir: /project/path\n"), 0600))
	t.Setenv("PLANMARSHALL_CONFIG", projectConfig)
	t.Setenv("PLANMARSHALL_OUTPUT", "json")

	rc := Resolve(FlagOverrides{Output: "structured"})
	assert.Equal(t, "structured", rc.Output.Value)
	assert.Equal(t, SourceFlag, rc.Output.Source)
	// base_dir has no flag override, so it falls through to the project file.
	assert.Equal(t, "/project/path", rc.BaseDir.Value)
	assert.Equal(t, SourceProject, rc.BaseDir.Source)
}

func TestResolveEnvOverridesProject(t *testing.T) {
	dir := t.TempDir()
	projectConfig := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(projectConfig, []byte("output: yaml\n"), 0600))
	t.Setenv("PLANMARSHALL_CONFIG", projectConfig)
	t.Setenv("PLANMARSHALL_OUTPUT", "json")

	rc := Resolve(FlagOverrides{})
	assert.Equal(t, "json", rc.Output.Value)
	assert.Equal(t, SourceEnv, rc.Output.Source)
}
