package artifactstore

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// runConfigLockTimeout bounds how long WriteRunConfig waits for the
// exclusive lock before dropping the update with a WARN.
const runConfigLockTimeout = 5 * time.Second

// ReadProjectConfig loads the shared, source-controlled project
// configuration (marshal.json). Its wire format is pinned to JSON, unlike
// every other per-plan artifact this store manages.
func (s *Store) ReadProjectConfig() (*model.ProjectConfiguration, error) {
	data, err := os.ReadFile(s.BaseDir + "/" + projectConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.ProjectConfiguration{}, nil
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read marshal.json", err)
	}
	var cfg model.ProjectConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "parse marshal.json", err)
	}
	return &cfg, nil
}

// WriteProjectConfig persists the shared project configuration.
func (s *Store) WriteProjectConfig(cfg *model.ProjectConfiguration) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "marshal marshal.json", err)
	}
	return atomicWriteFile(s.BaseDir+"/"+projectConfigFile, data)
}

// ReadRunConfig loads the local, per-machine run configuration
// (run-configuration.json). Absent file is a valid empty state, not an
// error, since it is never source-controlled.
func (s *Store) ReadRunConfig() (*model.RunConfiguration, error) {
	data, err := os.ReadFile(s.BaseDir + "/" + runConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.RunConfiguration{CommandTimings: make(map[string]model.CommandTiming)}, nil
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read run-configuration.json", err)
	}
	var cfg model.RunConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "parse run-configuration.json", err)
	}
	if cfg.CommandTimings == nil {
		cfg.CommandTimings = make(map[string]model.CommandTiming)
	}
	return &cfg, nil
}

// WriteRunConfig persists the local run configuration, under an exclusive
// lock since the timeout store and capability resolver both mutate it. If
// the lock cannot be acquired within runConfigLockTimeout, the update is
// dropped and reported to s.WarnSink instead of blocking the caller.
func (s *Store) WriteRunConfig(cfg *model.RunConfiguration) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "marshal run-configuration.json", err)
	}
	path := s.BaseDir + "/" + runConfigFile
	writeErr := withLockedFileTimeout(path, os.O_RDWR|os.O_CREATE, runConfigLockTimeout, func(f *os.File) error {
		// Truncate only once the lock is held, so a dropped update leaves the
		// existing file intact.
		if err := f.Truncate(0); err != nil {
			return planerrors.Wrap(planerrors.KindInvariantViolation, "truncate run-configuration.json", err)
		}
		_, err := f.Write(data)
		if err != nil {
			return planerrors.Wrap(planerrors.KindInvariantViolation, "write run-configuration.json", err)
		}
		return f.Sync()
	})
	if writeErr != nil && planerrors.Is(writeErr, planerrors.KindLockTimeout) {
		if s.WarnSink != nil {
			s.WarnSink("dropped run-configuration.json update: lock timeout after " + runConfigLockTimeout.String())
		}
		return nil
	}
	return writeErr
}
