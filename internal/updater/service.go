package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/version"
)

// Service checks for, installs and rolls back releases. A Service whose
// executable directory is not writable stays disabled and rejects every
// operation with ErrCodeDisabled.
type Service struct {
	source    Source
	backups   *backupStore
	restarter Restarter
	execPath  string
	current   string
	delay     time.Duration

	mu          sync.RWMutex
	state       State
	latest      *Release
	lastChecked *time.Time
	lastError   error

	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// NewService creates an updater. Permission problems disable the service
// instead of failing; only a broken release source is an error.
func NewService(opts Options) (*Service, error) {
	s := &Service{
		restarter: opts.Restarter,
		current:   opts.CurrentVersion,
		delay:     opts.RestartDelay,
		state:     StateIdle,
		logger:    logging.GetLogger("updater"),
	}
	if s.current == "" {
		s.current = version.Version
	}
	if s.delay <= 0 {
		s.delay = 500 * time.Millisecond
	}

	s.execPath = opts.ExecPath
	if s.execPath == "" {
		exe, err := selfupdate.ExecutablePath()
		if err != nil {
			return s.disable(fmt.Sprintf("failed to locate executable: %v", err)), nil
		}
		s.execPath = exe
	}
	if reason := checkWritable(s.execPath); reason != "" {
		return s.disable(reason), nil
	}

	s.source = opts.Source
	if s.source == nil {
		repo := opts.Repository
		if repo == "" {
			repo = DefaultRepository
		}
		src, err := NewGitHubSource(repo, opts.Prerelease)
		if err != nil {
			return nil, err
		}
		s.source = src
	}

	dir := opts.BackupDir
	if dir == "" {
		var err error
		if dir, err = defaultBackupDir(); err != nil {
			s.logger.Warn("Backups disabled", "error", err)
		}
	}
	if dir != "" {
		store, err := openBackupStore(dir)
		if err != nil {
			s.logger.Warn("Backups disabled", "error", err)
		} else {
			s.backups = store
		}
	}

	s.enabled = true
	return s, nil
}

func (s *Service) disable(reason string) *Service {
	s.logger.Warn("Update service disabled", "reason", reason)
	s.disabledReason = reason
	return s
}

func checkWritable(execPath string) string {
	resolved, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Sprintf("failed to resolve %s: %v", execPath, err)
	}
	dir := filepath.Dir(resolved)
	f, err := os.CreateTemp(dir, ".lightnode-update-*")
	if err != nil {
		return fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return ""
}

// Enabled reports whether updates can be applied.
func (s *Service) Enabled() bool {
	return s.enabled
}

// DisabledReason is empty for an enabled service.
func (s *Service) DisabledReason() string {
	return s.disabledReason
}

// Check asks the source for the latest release without downloading it.
func (s *Service) Check(ctx context.Context) (*Info, error) {
	if !s.enabled {
		return nil, newError(ErrCodeDisabled, s.disabledReason, nil)
	}
	if !s.transition(StateChecking, StateIdle, StateAvailable, StateError, StateRolledBack) {
		return nil, newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot check for updates in state %s", s.currentState()), nil)
	}

	rel, found, err := s.source.Latest(ctx, s.current)
	now := time.Now()
	s.mu.Lock()
	s.lastChecked = &now
	s.mu.Unlock()

	if err != nil {
		s.fail(err)
		return nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}
	if !found {
		err := errors.New("no releases found")
		s.fail(err)
		return nil, newError(ErrCodeNotFound, err.Error(), nil)
	}

	info := &Info{
		CurrentVersion:  s.current,
		LatestVersion:   rel.Version,
		UpdateAvailable: rel.Newer,
	}
	if !rel.Newer {
		s.transition(StateIdle)
		return info, nil
	}

	info.ReleaseNotes = rel.Notes
	info.ReleaseURL = rel.URL
	info.PublishedAt = rel.PublishedAt
	info.AssetSize = rel.AssetSize

	s.mu.Lock()
	s.latest = rel
	s.mu.Unlock()
	s.transition(StateAvailable)
	return info, nil
}

// Apply backs up the running binary and installs the latest release over
// it, checking first when no release is pending. It does not restart.
func (s *Service) Apply(ctx context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	switch s.currentState() {
	case StateIdle, StateError, StateRolledBack:
		info, err := s.Check(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "already running the latest version", nil)
		}
	}

	if !s.transition(StateDownloading, StateAvailable) {
		return newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot apply update in state %s", s.currentState()), nil)
	}

	if s.backups != nil {
		if err := s.backups.save(s.execPath, s.current); err != nil {
			s.fail(err)
			return newError(ErrCodeBackupFailed, "failed to back up current binary", err)
		}
	}

	s.transition(StateApplying)
	s.mu.RLock()
	rel := s.latest
	s.mu.RUnlock()

	if err := s.source.Install(ctx, rel, s.execPath); err != nil {
		s.fail(err)
		s.restoreAfterFailure()
		return newError(ErrCodeApplyFailed, "failed to install update", err)
	}

	s.transition(StateRestarting)
	s.logger.Info("Update installed", "from", s.current, "to", rel.Version)
	return nil
}

// Rollback reinstalls the binary saved by the last Apply. It does not restart.
func (s *Service) Rollback(_ context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}
	if s.backups == nil {
		return newError(ErrCodeNoBackup, "no backup available", nil)
	}
	ok, backupVersion := s.backups.available()
	if !ok {
		return newError(ErrCodeNoBackup, "no backup available", nil)
	}
	if s.currentState() == StateDownloading || s.currentState() == StateApplying {
		return newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot roll back in state %s", s.currentState()), nil)
	}

	if err := s.backups.restore(); err != nil {
		s.fail(err)
		return newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}
	s.transition(StateRolledBack)
	s.logger.Info("Rolled back", "version", backupVersion)
	return nil
}

// Restart asks the Restarter to restart the service and waits for the result.
func (s *Service) Restart(ctx context.Context) error {
	if s.restarter == nil {
		return newError(ErrCodeRestartFailed, "no service manager configured", nil)
	}

	s.mu.Lock()
	s.state = StateRestarting
	s.mu.Unlock()

	s.logger.Info("Restarting service")
	result, err := s.restarter.Restart(ctx)
	if err == nil && result != "done" {
		err = fmt.Errorf("restart job %s", result)
	}
	if err != nil {
		s.fail(err)
		return newError(ErrCodeRestartFailed, "failed to restart service", err)
	}
	return nil
}

// ScheduleRestart restarts after the configured delay so an HTTP response
// can be flushed first.
func (s *Service) ScheduleRestart() {
	time.AfterFunc(s.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Restart(ctx); err != nil {
			s.logger.Error("Restart failed", "error", err)
		}
	})
}

// Status returns a snapshot of the update state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		State:          s.state,
		CurrentVersion: s.current,
		LastChecked:    s.lastChecked,
	}
	if s.latest != nil {
		status.TargetVersion = s.latest.Version
	}
	if s.lastError != nil {
		status.Error = s.lastError.Error()
	}
	if s.backups != nil {
		status.BackupAvailable, status.BackupVersion = s.backups.available()
	}
	return status
}

// transition moves to next when the current state is one of from, or
// unconditionally when from is empty. It clears the last error.
func (s *Service) transition(next State, from ...State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(from) > 0 && !slices.Contains(from, s.state) {
		return false
	}
	s.logger.Debug("State transition", "from", s.state, "to", next)
	s.state = next
	s.lastError = nil
	return true
}

func (s *Service) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) fail(err error) {
	s.mu.Lock()
	s.state = StateError
	s.lastError = err
	s.mu.Unlock()
}

// restoreAfterFailure keeps lastError so Status still explains the failure.
func (s *Service) restoreAfterFailure() {
	if s.backups == nil {
		return
	}
	if ok, _ := s.backups.available(); !ok {
		return
	}
	if err := s.backups.restore(); err != nil {
		s.logger.Error("Automatic rollback failed", "error", err)
		return
	}
	s.mu.Lock()
	s.state = StateRolledBack
	s.mu.Unlock()
	s.logger.Info("Automatic rollback completed")
}
