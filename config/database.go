package config

import "strings"

// DatabaseConfig contains SQLite audit store configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `env:"DATABASE_PATH" envDefault:"tagging.db"`

	// RunMigrationsOnStart controls whether the application automatically
	// applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to database configuration values.
func (d *DatabaseConfig) Sanitize() {
	d.Path = strings.TrimSpace(d.Path)
	if d.Path == "" {
		d.Path = "tagging.db"
	}
}

// RedisConfig contains Redis configuration for the queue and the event bus.
type RedisConfig struct {
	// URL is a redis:// connection URL.
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// EventsChannel is the pub/sub channel the platform publishes catalog
	// events on; lifecycle events are published back to the same channel.
	EventsChannel string `env:"REDIS_EVENTS_CHANNEL" envDefault:"apphub:events"`

	// QueuePrefix namespaces every queue key.
	QueuePrefix string `env:"REDIS_QUEUE_PREFIX" envDefault:"tagging:"`
}

// Sanitize applies guardrails to Redis configuration values.
func (r *RedisConfig) Sanitize() {
	r.URL = strings.TrimSpace(r.URL)
	r.EventsChannel = strings.TrimSpace(r.EventsChannel)
	if r.EventsChannel == "" {
		r.EventsChannel = "apphub:events"
	}
	if r.QueuePrefix == "" {
		r.QueuePrefix = "tagging:"
	}
}
