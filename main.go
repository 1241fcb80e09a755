package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/lightnode/cmd"
	"github.com/smazurov/lightnode/internal/api"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/logging"
	lnats "github.com/smazurov/lightnode/internal/nats"
	"github.com/smazurov/lightnode/internal/systemd"
	"github.com/smazurov/lightnode/internal/updater"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CorsOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// LED settings
	LedsRoot string `help:"LED class directory" default:"/sys/class/leds" toml:"leds.root" env:"LEDS_ROOT"`

	// NATS settings
	NatsEnabled  bool   `help:"Serve light requests over NATS" default:"true" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsEmbedded bool   `help:"Run an embedded NATS server" default:"true" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NatsHost     string `help:"Embedded NATS listen host" default:"127.0.0.1" toml:"nats.host" env:"NATS_HOST"`
	NatsPort     int    `help:"Embedded NATS listen port" default:"4222" toml:"nats.port" env:"NATS_PORT"`
	NatsURL      string `help:"External NATS server URL, used when not embedded" default:"nats://127.0.0.1:4222" toml:"nats.url" env:"NATS_URL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password, empty disables auth" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update settings
	UpdateEnabled    bool   `help:"Expose self-update endpoints" default:"true" toml:"update.enabled" env:"UPDATE_ENABLED"`
	UpdateRepository string `help:"GitHub repository releases are fetched from" default:"smazurov/lightnode" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Consider prereleases" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`
	UpdateUnit       string `help:"systemd unit restarted after an update" default:"lightnode.service" toml:"update.unit" env:"UPDATE_UNIT"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLed    string `help:"LED dispatcher logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingSysfs  string `help:"Sysfs writer logging level" default:"info" toml:"logging.sysfs" env:"LOGGING_SYSFS"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP   string `help:"HTTP access logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingNats   string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
	LoggingConfig string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingUpdate string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
	LoggingMain   string `help:"Main logging level" default:"info" toml:"logging.main" env:"LOGGING_MAIN"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"led":     o.LoggingLed,
			"sysfs":   o.LoggingSysfs,
			"api":     o.LoggingAPI,
			"http":    o.LoggingHTTP,
			"nats":    o.LoggingNats,
			"config":  o.LoggingConfig,
			"updater": o.LoggingUpdate,
			"main":    o.LoggingMain,
		},
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEvent(entry))
		})

		lights := led.New(led.Config{Root: opts.LedsRoot}, logging.GetLogger("led"), eventBus)

		var unitManager *systemd.Manager
		var updateService *updater.Service
		if opts.UpdateEnabled {
			updateService, unitManager = newUpdater(opts, logger)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			CORSOrigin:        opts.CorsOrigin,
			Lights:            lights,
			EventBus:          eventBus,
			PrometheusHandler: promhttp.Handler(),
			Updater:           updateService,
			LedsRoot:          opts.LedsRoot,
		})

		natsLogger := logging.GetLogger("nats")
		var natsServer *lnats.Server
		var natsService *lnats.Service
		var natsBridge *lnats.Bridge

		watcher := config.NewConfigWatcher(opts.Config,
			func(path string) (logging.Config, error) {
				return config.LoadLoggingConfig(path), nil
			},
			logging.GetLogger("config"),
		)
		watcher.OnReload(func(cfg logging.Config) {
			logging.UpdateLevels(cfg)
			logger.Info("Logging levels reloaded", "level", cfg.Level)
		})

		notifier := systemd.NewNotifier(logger)
		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if opts.NatsEnabled {
				url := opts.NatsURL
				if opts.NatsEmbedded {
					natsServer = lnats.NewServer(lnats.ServerOptions{
						Host:   opts.NatsHost,
						Port:   opts.NatsPort,
						Logger: natsLogger,
					})
					if err := natsServer.Start(); err != nil {
						logger.Error("Failed to start embedded NATS server", "error", err)
						os.Exit(1)
					}
					url = natsServer.ClientURL()
				}

				natsService = lnats.NewService(url, lights, natsLogger)
				if err := natsService.Start(); err != nil {
					logger.Error("Failed to start NATS light service", "error", err)
					os.Exit(1)
				}

				natsBridge = lnats.NewBridge(url, eventBus, natsLogger)
				if err := natsBridge.Start(); err != nil {
					logger.Warn("Failed to start NATS state bridge", "error", err)
					natsBridge = nil
				}
			}

			if err := watcher.Start(); err != nil {
				logger.Warn("Config hot reload disabled", "path", opts.Config, "error", err)
			}

			notifier.Ready()
			notifier.Status(fmt.Sprintf("%d lights, listening on %s", len(lights.SupportedTypes()), opts.Port))
			go notifier.RunWatchdog(ctx)

			logger.Info("Starting HTTP server", "port", opts.Port)
			if err := server.Start(opts.Port); err != nil {
				logger.Error("Failed to start HTTP server", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error stopping HTTP server", "error", err)
			}

			if err := watcher.Stop(); err != nil {
				logger.Warn("Error stopping config watcher", "error", err)
			}
			if natsBridge != nil {
				natsBridge.Stop()
			}
			if natsService != nil {
				natsService.Stop()
			}
			if natsServer != nil {
				natsServer.Stop()
			}
			if unitManager != nil {
				unitManager.Close()
			}
		})
	})

	cli.Root().Use = "lightnode"
	cli.Root().Short = "LED light service for msm8916 boards"

	cli.Root().AddCommand(cmd.CreateSetCmd())
	cli.Root().AddCommand(cmd.CreateTypesCmd())
	cli.Root().AddCommand(cmd.CreateWatchCmd())
	cli.Root().AddCommand(cmd.CreateServiceCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}

// newUpdater restarts through systemd when the bus is reachable and falls
// back to SIGTERM, leaving the restart to the unit's Restart= policy.
func newUpdater(opts *Options, logger *slog.Logger) (*updater.Service, *systemd.Manager) {
	var restarter updater.Restarter = updater.SignalRestarter{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	manager, err := systemd.NewManager(ctx, opts.UpdateUnit, false)
	if err != nil {
		logger.Warn("systemd unavailable, restarts will use SIGTERM", "error", err)
		manager = nil
	} else {
		restarter = manager
	}

	svc, err := updater.NewService(updater.Options{
		Repository: opts.UpdateRepository,
		Prerelease: opts.UpdatePrerelease,
		Restarter:  restarter,
	})
	if err != nil {
		logger.Warn("Update service unavailable", "error", err)
		if manager != nil {
			manager.Close()
		}
		return nil, nil
	}
	return svc, manager
}
