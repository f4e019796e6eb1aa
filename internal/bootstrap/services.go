package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apphub/tagging-service/config"
	"github.com/apphub/tagging-service/internal/adapters/eventbus"
	"github.com/apphub/tagging-service/internal/adapters/reaper"
	schedrunner "github.com/apphub/tagging-service/internal/adapters/scheduler"
	"github.com/apphub/tagging-service/internal/adapters/tagrunner"
	"github.com/apphub/tagging-service/internal/data"
	domainjob "github.com/apphub/tagging-service/internal/domain/job"
	"github.com/apphub/tagging-service/internal/observability/statsd"
	"github.com/apphub/tagging-service/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Store     *data.JobStore
	Queue     *data.RedisQueue
	Admission *service.Admission
	Scheduler *service.Scheduler
	Pipeline  *service.Pipeline
	Notifier  *service.Notifier
	Metrics   *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the stores, clients, and domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	metrics := buildMetricsSink(cfg.Metrics, logger)

	store := data.NewJobStore(deps.DB, data.JobStoreConfig{Logger: logger})

	policy, err := domainjob.NewRetryPolicy(cfg.Queue.MaxAttempts, cfg.Queue.BackoffBase)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build retry policy: %w", err)
	}
	queue := data.NewRedisQueue(deps.RedisClient, data.RedisQueueConfig{
		Prefix: cfg.Redis.QueuePrefix,
		Policy: policy,
		Logger: logger,
	})

	collaborators := buildCollaborators(cfg, logger)

	webhookClient, err := buildWebhookClient(cfg.Webhook, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build webhook client: %w", err)
	}
	notifierOpts := service.NotifierOptions{
		Bus:     eventbus.NewPublisher(deps.RedisClient),
		Channel: cfg.Redis.EventsChannel,
		Logger:  logger,
	}
	if webhookClient != nil {
		notifierOpts.Webhook = webhookClient
	}
	notifier := service.NewNotifier(notifierOpts)

	admission := service.NewAdmission(service.AdmissionOptions{
		Queue:   queue,
		Recency: store,
		Logger:  logger,
		Metrics: metrics,
	})

	scheduler := service.NewScheduler(service.SchedulerOptions{
		Catalog: collaborators.Catalog,
		Queue:   queue,
		Recency: store,
		Logger:  logger,
		Metrics: metrics,
	})

	pipeline := service.NewPipeline(service.PipelineOptions{
		Store:    store,
		Catalog:  collaborators.Catalog,
		Explorer: collaborators.FileExplorer,
		Model:    collaborators.AIConnector,
		Checkout: collaborators.Checkout,
		Sampler: service.NewSampler(service.SamplerOptions{
			Explorer: collaborators.FileExplorer,
			Logger:   logger,
		}),
		Prompts:  service.NewPromptBuilder(service.PromptBuilderOptions{TemplatePath: cfg.Worker.PromptTemplatePath}),
		Notifier: notifier,
		Logger:   logger,
		Metrics:  metrics,
	})

	return ServiceContainer{
		Store:     store,
		Queue:     queue,
		Admission: admission,
		Scheduler: scheduler,
		Pipeline:  pipeline,
		Notifier:  notifier,
		Metrics:   metrics,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the read API server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		DB:       deps.cfg.DB,
		Redis:    deps.cfg.RedisClient,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newAdmissionBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeAdmission,
		name: "event admission",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			subscriber, err := eventbus.NewSubscriber(eventbus.SubscriberOptions{
				Client:  deps.cfg.RedisClient,
				Channel: deps.cfg.Config.Redis.EventsChannel,
				Handler: deps.cfg.Services.Admission.HandleMessage,
				Logger:  deps.logger,
			})
			if err != nil {
				return fmt.Errorf("build event subscriber: %w", err)
			}
			return subscriber.Run(ctx)
		},
	}
}

func newSchedulerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeScheduler,
		name: "backstop scheduler",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			runner, err := schedrunner.NewRunner(schedrunner.RunnerOptions{
				Scheduler: deps.cfg.Services.Scheduler,
				Interval:  deps.cfg.Config.Scheduler.Interval,
				Logger:    deps.logger,
			})
			if err != nil {
				return fmt.Errorf("build scheduler runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newWorkerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeWorker,
		name: "tagging workers",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}

			// Seal runs orphaned by the previous process before taking
			// new work.
			sweep, err := reaper.NewRunner(reaper.RunnerOptions{
				Store:  deps.cfg.Services.Store,
				Logger: deps.logger,
			})
			if err != nil {
				return fmt.Errorf("build orphan reaper: %w", err)
			}
			if err := sweep.Run(ctx); err != nil {
				return fmt.Errorf("reap orphan runs: %w", err)
			}

			runner, err := tagrunner.NewRunner(tagrunner.RunnerOptions{
				Queue:       deps.cfg.Services.Queue,
				Pipeline:    deps.cfg.Services.Pipeline,
				Concurrency: deps.cfg.Config.Worker.Concurrency,
				Logger:      deps.logger,
			})
			if err != nil {
				return fmt.Errorf("build tag runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newAdmissionBackgroundService(deps),
		newSchedulerBackgroundService(deps),
		newWorkerBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		services:    cfg.Services,
		grace:       time.Duration(cfg.Config.HTTP.ShutdownGraceSeconds) * time.Second,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	modes := []config.ServiceMode{
		config.ServiceModeHTTP,
		config.ServiceModeAdmission,
		config.ServiceModeScheduler,
		config.ServiceModeWorker,
	}

	count := 0
	for _, mode := range modes {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	services    ServiceContainer
	grace       time.Duration
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.httpServer,
			Grace:   cfg.grace,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish. Jobs still reserved when the
	// grace window lapses stay on this process's processing lists; once the
	// consumer heartbeats expire the next worker's reclaim sweep requeues
	// them and the run reaper seals their audit rows.
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.services.Queue != nil {
		if err := cfg.services.Queue.Close(); err != nil {
			cfg.logger.Warn("queue close failed", "error", err)
		}
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
