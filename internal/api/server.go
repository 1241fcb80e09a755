package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/updater"
	"github.com/smazurov/lightnode/internal/version"
)

const authRealm = `Basic realm="Lightnode API"`

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	CORSOrigin        string
	Lights            led.Controller
	EventBus          *events.Bus
	PrometheusHandler http.Handler     // Optional Prometheus metrics handler
	Updater           *updater.Service // Optional; nil leaves /api/update/* unregistered
	LedsRoot          string           // LED class directory reported by /api/lights
}

// Server is the Huma v2 HTTP API in front of the light dispatcher.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	lights     led.Controller
	eventBus   *events.Bus
	updater    *updater.Service
	hwPaths    led.Paths
	logger     *slog.Logger
}

// NewServer creates an API server using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	if opts.CORSOrigin != "" {
		corsConfig.AllowOrigin = opts.CORSOrigin
	}
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("Lightnode API", version.String())
	config.Info.Description = "Notification, battery, attention and backlight LED control"
	// Relative server URLs work behind any host
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	eventBus := opts.EventBus
	if eventBus == nil {
		eventBus = events.New()
	}

	server := &Server{
		api:      api,
		mux:      mux,
		lights:   opts.Lights,
		eventBus: eventBus,
		updater:  opts.Updater,
		hwPaths:  led.NewPaths(opts.LedsRoot),
		logger:   logging.GetLogger("api"),
	}

	// Order matters: CORS, then logging, then auth
	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// API returns the Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Start serves HTTP on addr until Stop or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting Lightnode API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown waits for in-flight requests up to the context deadline.
// SSE streams end when their request contexts are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down API server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

// Stop closes the listener and all connections immediately.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerLightRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerUpdateRoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}

// basicAuthMiddleware enforces HTTP basic auth on operations that declare
// a security requirement. EventSource clients cannot set headers, so the
// base64 credentials are also accepted in the auth query parameter.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		user, pass, problem := credentials(ctx)
		if problem != "" {
			ctx.SetHeader("WWW-Authenticate", authRealm)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, problem)
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !userOK || !passOK {
			ctx.SetHeader("WWW-Authenticate", authRealm)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

// credentials extracts user and password. A non-empty problem describes
// why they could not be read.
func credentials(ctx huma.Context) (user, pass, problem string) {
	var encoded string
	if header := ctx.Header("Authorization"); header != "" {
		const prefix = "Basic "
		if !strings.HasPrefix(header, prefix) {
			return "", "", "Invalid authentication type"
		}
		encoded = header[len(prefix):]
	} else {
		encoded = ctx.Query("auth")
	}
	if encoded == "" {
		return "", "", "Authentication required"
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", "Invalid credentials format"
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", "Invalid credentials format"
	}
	return user, pass, ""
}
