package models

import "time"

// Update models
type UpdateCheckData struct {
	CurrentVersion  string    `json:"current_version" example:"v1.0.0" doc:"Running version"`
	LatestVersion   string    `json:"latest_version" example:"v1.1.0" doc:"Latest published version"`
	ReleaseNotes    string    `json:"release_notes,omitempty" doc:"Release notes of the latest version"`
	ReleaseURL      string    `json:"release_url,omitempty" doc:"Release page"`
	PublishedAt     time.Time `json:"published_at,omitempty" doc:"Release publication time"`
	AssetSize       int       `json:"asset_size,omitempty" example:"9437184" doc:"Download size in bytes"`
	UpdateAvailable bool      `json:"update_available" doc:"Whether the latest version is newer than the running one"`
}

type UpdateCheckResponse struct {
	Body UpdateCheckData
}

type UpdateStatusData struct {
	State           string     `json:"state" enum:"idle,checking,available,downloading,applying,restarting,error,rolled_back" example:"idle" doc:"Update state"`
	CurrentVersion  string     `json:"current_version" example:"v1.0.0" doc:"Running version"`
	TargetVersion   string     `json:"target_version,omitempty" example:"v1.1.0" doc:"Version being installed"`
	Error           string     `json:"error,omitempty" doc:"Last error"`
	LastChecked     *time.Time `json:"last_checked,omitempty" doc:"Time of the last check"`
	BackupAvailable bool       `json:"backup_available" doc:"Whether a rollback is possible"`
	BackupVersion   string     `json:"backup_version,omitempty" example:"v0.9.0" doc:"Version held by the backup"`
}

type UpdateStatusResponse struct {
	Body UpdateStatusData
}

type UpdateMessageData struct {
	Message string `json:"message" example:"Restarting..." doc:"Status message"`
}

type UpdateMessageResponse struct {
	Body UpdateMessageData
}
