// Package updater replaces the running lightnode binary with a newer
// GitHub release and restarts the service.
package updater

import (
	"context"
	"time"
)

// DefaultRepository is the GitHub slug releases are fetched from.
const DefaultRepository = "smazurov/lightnode"

// State is a step of the update lifecycle.
type State string

// Update states.
const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateAvailable   State = "available"
	StateDownloading State = "downloading"
	StateApplying    State = "applying"
	StateRestarting  State = "restarting"
	StateError       State = "error"
	StateRolledBack  State = "rolled_back"
)

// Info describes the result of a release check.
type Info struct {
	CurrentVersion  string
	LatestVersion   string
	ReleaseNotes    string
	ReleaseURL      string
	PublishedAt     time.Time
	AssetSize       int
	UpdateAvailable bool
}

// Status is a snapshot of the updater.
type Status struct {
	State           State
	CurrentVersion  string
	TargetVersion   string
	Error           string
	LastChecked     *time.Time
	BackupAvailable bool
	BackupVersion   string
}

// Restarter restarts the service after the binary changed.
// *systemd.Manager satisfies it.
type Restarter interface {
	Restart(ctx context.Context) (string, error)
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Repository     string
	Prerelease     bool
	CurrentVersion string        // defaults to version.Version
	ExecPath       string        // defaults to the running executable
	BackupDir      string        // defaults to <user cache>/lightnode/backup
	Source         Source        // defaults to GitHub releases of Repository
	Restarter      Restarter     // nil makes Restart fail
	RestartDelay   time.Duration // delay used by ScheduleRestart
}
