package artifactstore

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectConfigRoundTrip(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	cfg := &model.ProjectConfiguration{
		Modules: []model.ModuleCapability{{Name: "billing", Path: "services/billing"}},
	}
	require.NoError(t, store.WriteProjectConfig(cfg))

	loaded, err := store.ReadProjectConfig()
	require.NoError(t, err)
	assert.Equal(t, "billing", loaded.Modules[0].Name)
}

func TestReadProjectConfigMissingReturnsEmpty(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	cfg, err := store.ReadProjectConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Modules)
}

func TestRunConfigRoundTrip(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	cfg := &model.RunConfiguration{AcceptableWarnings: []string{"unused variable"}}
	require.NoError(t, store.WriteRunConfig(cfg))

	loaded, err := store.ReadRunConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"unused variable"}, loaded.AcceptableWarnings)
}

func TestWriteRunConfigDropsOnLockTimeout(t *testing.T) {
	baseDir := t.TempDir()
	store := NewStore(WithBaseDir(baseDir))

	path := baseDir + "/" + runConfigFile
	require.NoError(t, os.MkdirAll(baseDir, 0700))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, syscall.Flock(int(f.Fd()), syscall.LOCK_EX))
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	var mu sync.Mutex
	var warned string
	store.WarnSink = func(message string) {
		mu.Lock()
		defer mu.Unlock()
		warned = message
	}

	start := time.Now()
	err = store.WriteRunConfig(&model.RunConfiguration{})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 7*time.Second)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, warned, "lock timeout")
}
