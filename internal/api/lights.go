package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/metrics"
)

func (s *Server) registerLightRoutes() {
	if s.lights == nil {
		s.logger.Debug("Light controller not available, skipping light routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-lights",
		Method:      http.MethodGet,
		Path:        "/api/lights",
		Summary:     "List Lights",
		Description: "List the supported light types in priority order with their last requested state and the values last written to the hardware",
		Tags:        []string{"lights"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.LightListResponse, error) {
		types := s.lights.SupportedTypes()
		lights := make([]models.LightData, 0, len(types))
		for i, typ := range types {
			state, _ := s.lights.State(typ)
			lights = append(lights, lightData(typ, i, state))
		}
		return &models.LightListResponse{
			Body: models.LightListData{
				Lights:   lights,
				Count:    len(lights),
				Hardware: s.hardwareValues(),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-light",
		Method:      http.MethodGet,
		Path:        "/api/lights/{type}",
		Summary:     "Get Light",
		Description: "Get the last requested state of a light",
		Tags:        []string{"lights"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.LightPath) (*models.LightResponse, error) {
		typ, priority, err := s.lookup(input.Type)
		if err != nil {
			return nil, err
		}
		state, _ := s.lights.State(typ)
		return &models.LightResponse{Body: lightData(typ, priority, state)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-light",
		Method:      http.MethodPut,
		Path:        "/api/lights/{type}",
		Summary:     "Set Light",
		Description: "Request a color and flash pattern for a light. The LED shows the highest priority lit request.",
		Tags:        []string{"lights"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 422},
	}, func(_ context.Context, input *models.SetLightRequest) (*models.SetLightResponse, error) {
		typ, err := led.ParseType(input.Type)
		if err != nil {
			return nil, huma.Error404NotFound(led.LightNotSupported.String(), err)
		}

		flash, err := led.ParseFlash(input.Body.FlashMode)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("Invalid flash mode", err)
		}

		status := s.lights.SetLight(typ, led.State{
			Color:      input.Body.Color,
			FlashMode:  flash,
			FlashOnMs:  input.Body.FlashOnMs,
			FlashOffMs: input.Body.FlashOffMs,
		})
		if status == led.LightNotSupported {
			return nil, huma.Error404NotFound(status.String())
		}

		return &models.SetLightResponse{
			Body: models.SetLightData{Status: status.String()},
		}, nil
	})

	s.logger.Info("Light routes registered")
}

// lookup resolves a path name to a supported type and its priority.
func (s *Server) lookup(name string) (led.Type, int, error) {
	typ, err := led.ParseType(name)
	if err != nil {
		return 0, 0, huma.Error404NotFound(led.LightNotSupported.String(), err)
	}
	for i, supported := range s.lights.SupportedTypes() {
		if supported == typ {
			return typ, i, nil
		}
	}
	return 0, 0, huma.Error404NotFound(led.LightNotSupported.String())
}

func lightData(typ led.Type, priority int, state led.State) models.LightData {
	return models.LightData{
		Type:     typ.String(),
		Priority: priority,
		State: models.LightStateData{
			Color:      state.Color,
			FlashMode:  state.FlashMode.String(),
			FlashOnMs:  state.FlashOnMs,
			FlashOffMs: state.FlashOffMs,
		},
	}
}

// hardwareValues reports what the sysfs writer last applied to the
// dispatcher's attributes.
func (s *Server) hardwareValues() map[string]int {
	return metrics.LastValues(
		metrics.AttributeName(s.hwPaths.IndicatorBrightness),
		metrics.AttributeName(s.hwPaths.IndicatorPWM),
		metrics.AttributeName(s.hwPaths.Backlight),
	)
}
