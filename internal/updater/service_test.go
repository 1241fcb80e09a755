package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeSource serves one release and installs it by writing payload.
type fakeSource struct {
	release    *Release
	found      bool
	latestErr  error
	installErr error
	payload    string
	installs   int
}

func (f *fakeSource) Latest(context.Context, string) (*Release, bool, error) {
	return f.release, f.found, f.latestErr
}

func (f *fakeSource) Install(_ context.Context, _ *Release, execPath string) error {
	f.installs++
	if f.installErr != nil {
		// Leave a partial write behind like an interrupted download would.
		os.WriteFile(execPath, []byte("partial"), 0o755)
		return f.installErr
	}
	return os.WriteFile(execPath, []byte(f.payload), 0o755)
}

type fakeRestarter struct {
	result string
	err    error
	calls  int
}

func (f *fakeRestarter) Restart(context.Context) (string, error) {
	f.calls++
	return f.result, f.err
}

func newRelease(version string, newer bool) *Release {
	return &Release{Version: version, Notes: "notes", URL: "https://example.invalid/" + version, AssetSize: 42, Newer: newer}
}

func newTestService(t *testing.T, src Source, restarter Restarter) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	exe := filepath.Join(dir, "lightnode")
	if err := os.WriteFile(exe, []byte("v1.0.0 binary"), 0o755); err != nil {
		t.Fatal(err)
	}
	svc, err := NewService(Options{
		CurrentVersion: "v1.0.0",
		ExecPath:       exe,
		BackupDir:      filepath.Join(dir, "backup"),
		Source:         src,
		Restarter:      restarter,
	})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	if !svc.Enabled() {
		t.Fatalf("service disabled: %s", svc.DisabledReason())
	}
	return svc, exe
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func errorCode(err error) string {
	var updateErr *Error
	if errors.As(err, &updateErr) {
		return updateErr.Code
	}
	return ""
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		source    *fakeSource
		wantCode  string
		wantState State
		available bool
	}{
		{"newer release", &fakeSource{release: newRelease("v1.1.0", true), found: true}, "", StateAvailable, true},
		{"same release", &fakeSource{release: newRelease("v1.0.0", false), found: true}, "", StateIdle, false},
		{"no releases", &fakeSource{}, ErrCodeNotFound, StateError, false},
		{"source error", &fakeSource{latestErr: errors.New("rate limited")}, ErrCodeCheckFailed, StateError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.source, nil)

			info, err := svc.Check(context.Background())
			if code := errorCode(err); code != tt.wantCode {
				t.Fatalf("Check() error = %v, want code %q", err, tt.wantCode)
			}
			if err == nil && info.UpdateAvailable != tt.available {
				t.Errorf("UpdateAvailable = %v, want %v", info.UpdateAvailable, tt.available)
			}
			status := svc.Status()
			if status.State != tt.wantState {
				t.Errorf("state = %s, want %s", status.State, tt.wantState)
			}
			if status.LastChecked == nil {
				t.Error("LastChecked not recorded")
			}
		})
	}
}

func TestApplyInstallsAndBacksUp(t *testing.T) {
	src := &fakeSource{release: newRelease("v1.1.0", true), found: true, payload: "v1.1.0 binary"}
	svc, exe := newTestService(t, src, nil)

	if err := svc.Apply(context.Background()); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got := readFile(t, exe); got != "v1.1.0 binary" {
		t.Errorf("executable = %q, want new binary", got)
	}

	status := svc.Status()
	if status.State != StateRestarting || status.TargetVersion != "v1.1.0" {
		t.Errorf("status = %+v, want restarting towards v1.1.0", status)
	}
	if !status.BackupAvailable || status.BackupVersion != "v1.0.0" {
		t.Errorf("backup = %v/%q, want v1.0.0", status.BackupAvailable, status.BackupVersion)
	}

	if err := svc.Apply(context.Background()); errorCode(err) != ErrCodeInvalidState {
		t.Errorf("second Apply() error = %v, want %s", err, ErrCodeInvalidState)
	}
}

func TestApplyWithoutUpdate(t *testing.T) {
	src := &fakeSource{release: newRelease("v1.0.0", false), found: true}
	svc, _ := newTestService(t, src, nil)

	if err := svc.Apply(context.Background()); errorCode(err) != ErrCodeNoUpdate {
		t.Fatalf("Apply() error = %v, want %s", err, ErrCodeNoUpdate)
	}
	if src.installs != 0 {
		t.Errorf("Install called %d times", src.installs)
	}
}

func TestApplyFailureRestoresBinary(t *testing.T) {
	src := &fakeSource{release: newRelease("v1.1.0", true), found: true, installErr: errors.New("checksum mismatch")}
	svc, exe := newTestService(t, src, nil)

	if err := svc.Apply(context.Background()); errorCode(err) != ErrCodeApplyFailed {
		t.Fatalf("Apply() error = %v, want %s", err, ErrCodeApplyFailed)
	}
	if got := readFile(t, exe); got != "v1.0.0 binary" {
		t.Errorf("executable = %q, want original binary restored", got)
	}
	status := svc.Status()
	if status.State != StateRolledBack || status.Error == "" {
		t.Errorf("status = %+v, want rolled_back with error", status)
	}
}

func TestRollback(t *testing.T) {
	src := &fakeSource{release: newRelease("v1.1.0", true), found: true, payload: "v1.1.0 binary"}
	svc, exe := newTestService(t, src, nil)

	if err := svc.Rollback(context.Background()); errorCode(err) != ErrCodeNoBackup {
		t.Fatalf("Rollback() before Apply error = %v, want %s", err, ErrCodeNoBackup)
	}

	if err := svc.Apply(context.Background()); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if err := svc.Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	if got := readFile(t, exe); got != "v1.0.0 binary" {
		t.Errorf("executable = %q, want original binary", got)
	}
	if state := svc.Status().State; state != StateRolledBack {
		t.Errorf("state = %s, want %s", state, StateRolledBack)
	}
}

func TestBackupSurvivesReopen(t *testing.T) {
	src := &fakeSource{release: newRelease("v1.1.0", true), found: true, payload: "v1.1.0 binary"}
	svc, exe := newTestService(t, src, nil)
	if err := svc.Apply(context.Background()); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	reopened, err := NewService(Options{
		CurrentVersion: "v1.1.0",
		ExecPath:       exe,
		BackupDir:      svc.backups.dir,
		Source:         src,
	})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	if ok, v := reopened.backups.available(); !ok || v != "v1.0.0" {
		t.Errorf("reopened backup = %v/%q, want v1.0.0", ok, v)
	}
}

func TestRestart(t *testing.T) {
	tests := []struct {
		name      string
		restarter Restarter
		wantCode  string
	}{
		{"job done", &fakeRestarter{result: "done"}, ""},
		{"job failed", &fakeRestarter{result: "failed"}, ErrCodeRestartFailed},
		{"dbus error", &fakeRestarter{err: errors.New("connection closed")}, ErrCodeRestartFailed},
		{"no restarter", nil, ErrCodeRestartFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, &fakeSource{}, tt.restarter)
			err := svc.Restart(context.Background())
			if code := errorCode(err); code != tt.wantCode {
				t.Fatalf("Restart() error = %v, want code %q", err, tt.wantCode)
			}
			if fake, ok := tt.restarter.(*fakeRestarter); ok && fake.calls != 1 {
				t.Errorf("restarter called %d times, want 1", fake.calls)
			}
		})
	}
}

func TestDisabledWhenExecutableMissing(t *testing.T) {
	svc, err := NewService(Options{
		ExecPath: filepath.Join(t.TempDir(), "missing", "lightnode"),
		Source:   &fakeSource{},
	})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	if svc.Enabled() || svc.DisabledReason() == "" {
		t.Fatal("service enabled for a missing executable")
	}

	ctx := context.Background()
	if _, err := svc.Check(ctx); errorCode(err) != ErrCodeDisabled {
		t.Errorf("Check() error = %v, want %s", err, ErrCodeDisabled)
	}
	if err := svc.Apply(ctx); errorCode(err) != ErrCodeDisabled {
		t.Errorf("Apply() error = %v, want %s", err, ErrCodeDisabled)
	}
	if err := svc.Rollback(ctx); errorCode(err) != ErrCodeDisabled {
		t.Errorf("Rollback() error = %v, want %s", err, ErrCodeDisabled)
	}
}
