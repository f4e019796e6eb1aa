package config

import "strings"

// MetricsConfig controls emission of metrics to a StatsD sink.
type MetricsConfig struct {
	Enabled bool   `env:"STATSD_ENABLED" envDefault:"false"`
	Addr    string `env:"STATSD_ADDR"    envDefault:"127.0.0.1:8125"`
	Prefix  string `env:"STATSD_PREFIX"  envDefault:"tagging"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *MetricsConfig) Sanitize() {
	c.Addr = strings.TrimSpace(c.Addr)
	c.Prefix = strings.TrimSpace(c.Prefix)
	if c.Addr == "" {
		c.Enabled = false
	}
	if c.Prefix == "" {
		c.Prefix = "tagging"
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled && c.Addr != ""
}
