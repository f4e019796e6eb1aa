package config

import "strings"

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - services.go: Service modes, worker, scheduler, and queue settings
//   - database.go: SQLite and Redis configuration
//   - http.go: HTTP read API configuration
//   - clients.go: Catalog, file-explorer, model-service, and webhook clients
//   - observability.go: Metrics configuration
type AppConfig struct {
	// Services is a comma-delimited list of enabled service modes.
	// Valid values: http, admission, scheduler, worker, all.
	Services string `env:"SERVICES" envDefault:"all"`

	// LogLevel sets the slog level: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP read API configuration
	HTTP HTTPConfig

	// Storage configuration
	Database DatabaseConfig
	Redis    RedisConfig

	// Collaborator clients
	Catalog      CatalogConfig
	FileExplorer FileExplorerConfig
	AIConnector  AIConnectorConfig
	Webhook      WebhookConfig

	// Pipeline configuration
	Worker    WorkerConfig
	Queue     QueueConfig
	Scheduler SchedulerConfig

	// Observability configuration
	Metrics MetricsConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.HTTP.Sanitize()
	c.Database.Sanitize()
	c.Redis.Sanitize()
	c.Catalog.Sanitize()
	c.FileExplorer.Sanitize()
	c.AIConnector.Sanitize()
	c.Webhook.Sanitize()
	c.Worker.Sanitize()
	c.Queue.Sanitize()
	c.Scheduler.Sanitize()
	c.Metrics.Sanitize()
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the read API service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	return c.serviceEnabled(ServiceModeHTTP)
}

// IsAdmissionEnabled returns true if the event admission subscriber is enabled.
func (c *AppConfig) IsAdmissionEnabled() bool {
	return c.serviceEnabled(ServiceModeAdmission)
}

// IsSchedulerEnabled returns true if the backstop scheduler is enabled.
func (c *AppConfig) IsSchedulerEnabled() bool {
	return c.serviceEnabled(ServiceModeScheduler)
}

// IsWorkerEnabled returns true if the tagging worker pool is enabled.
func (c *AppConfig) IsWorkerEnabled() bool {
	return c.serviceEnabled(ServiceModeWorker)
}

func (c *AppConfig) serviceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
