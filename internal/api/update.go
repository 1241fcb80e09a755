package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/updater"
)

type updateRoute struct {
	id, method, path, summary, description string
	errors                                 []int
}

var updateRoutes = struct {
	check, status, apply, rollback, restart updateRoute
}{
	check: updateRoute{"check-updates", http.MethodGet, "/api/update/check", "Check for Updates",
		"Check whether a newer release is published without downloading it", []int{401, 404, 409, 500}},
	status: updateRoute{"get-update-status", http.MethodGet, "/api/update/status", "Update Status",
		"Get the current update state and backup availability", []int{401}},
	apply: updateRoute{"apply-update", http.MethodPost, "/api/update/apply", "Apply Update",
		"Back up the running binary, install the latest release and restart the service", []int{400, 401, 409, 500}},
	rollback: updateRoute{"rollback-update", http.MethodPost, "/api/update/rollback", "Rollback Update",
		"Reinstall the backed up binary and restart the service", []int{401, 404, 409, 500}},
	restart: updateRoute{"restart-service", http.MethodPost, "/api/update/restart", "Restart Service",
		"Restart the lightnode unit", []int{401, 500}},
}

func (r updateRoute) operation() huma.Operation {
	return huma.Operation{
		OperationID: r.id,
		Method:      r.method,
		Path:        r.path,
		Summary:     r.summary,
		Description: r.description,
		Tags:        []string{"update"},
		Errors:      r.errors,
		Security:    withAuth(),
	}
}

// registerUpdateRoutes exposes the updater. Without an updater the routes
// are absent; a disabled updater answers 503 on every route.
func (s *Server) registerUpdateRoutes() {
	svc := s.updater
	if svc == nil {
		return
	}
	if !svc.Enabled() {
		s.registerDisabledUpdateRoutes(svc.DisabledReason())
		return
	}

	huma.Register(s.api, updateRoutes.check.operation(),
		func(ctx context.Context, _ *struct{}) (*models.UpdateCheckResponse, error) {
			info, err := svc.Check(ctx)
			if err != nil {
				return nil, mapUpdateError(err)
			}
			return &models.UpdateCheckResponse{
				Body: models.UpdateCheckData{
					CurrentVersion:  info.CurrentVersion,
					LatestVersion:   info.LatestVersion,
					ReleaseNotes:    info.ReleaseNotes,
					ReleaseURL:      info.ReleaseURL,
					PublishedAt:     info.PublishedAt,
					AssetSize:       info.AssetSize,
					UpdateAvailable: info.UpdateAvailable,
				},
			}, nil
		})

	huma.Register(s.api, updateRoutes.status.operation(),
		func(_ context.Context, _ *struct{}) (*models.UpdateStatusResponse, error) {
			status := svc.Status()
			return &models.UpdateStatusResponse{
				Body: models.UpdateStatusData{
					State:           string(status.State),
					CurrentVersion:  status.CurrentVersion,
					TargetVersion:   status.TargetVersion,
					Error:           status.Error,
					LastChecked:     status.LastChecked,
					BackupAvailable: status.BackupAvailable,
					BackupVersion:   status.BackupVersion,
				},
			}, nil
		})

	huma.Register(s.api, updateRoutes.apply.operation(),
		func(ctx context.Context, _ *struct{}) (*models.UpdateMessageResponse, error) {
			if err := svc.Apply(ctx); err != nil {
				return nil, mapUpdateError(err)
			}
			svc.ScheduleRestart()
			return updateMessage("Update applied, restarting..."), nil
		})

	huma.Register(s.api, updateRoutes.rollback.operation(),
		func(ctx context.Context, _ *struct{}) (*models.UpdateMessageResponse, error) {
			if err := svc.Rollback(ctx); err != nil {
				return nil, mapUpdateError(err)
			}
			svc.ScheduleRestart()
			return updateMessage("Rollback complete, restarting..."), nil
		})

	huma.Register(s.api, updateRoutes.restart.operation(),
		func(_ context.Context, _ *struct{}) (*models.UpdateMessageResponse, error) {
			svc.ScheduleRestart()
			return updateMessage("Restarting..."), nil
		})
}

func (s *Server) registerDisabledUpdateRoutes(reason string) {
	disabled := func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, huma.Error503ServiceUnavailable("Update service disabled: " + reason)
	}
	for _, r := range []updateRoute{
		updateRoutes.check, updateRoutes.status, updateRoutes.apply, updateRoutes.rollback, updateRoutes.restart,
	} {
		op := r.operation()
		op.Errors = []int{503}
		huma.Register(s.api, op, disabled)
	}
}

func updateMessage(msg string) *models.UpdateMessageResponse {
	return &models.UpdateMessageResponse{Body: models.UpdateMessageData{Message: msg}}
}

// mapUpdateError converts updater errors to Huma HTTP errors.
func mapUpdateError(err error) error {
	var updateErr *updater.Error
	if !errors.As(err, &updateErr) {
		return huma.Error500InternalServerError(err.Error())
	}
	switch updateErr.Code {
	case updater.ErrCodeInvalidState:
		return huma.Error409Conflict(updateErr.Message)
	case updater.ErrCodeNoUpdate:
		return huma.Error400BadRequest(updateErr.Message)
	case updater.ErrCodeNotFound, updater.ErrCodeNoBackup:
		return huma.Error404NotFound(updateErr.Message)
	case updater.ErrCodeDisabled:
		return huma.Error503ServiceUnavailable(updateErr.Message)
	default:
		return huma.Error500InternalServerError(updateErr.Message)
	}
}
