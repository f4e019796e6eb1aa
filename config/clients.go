package config

import (
	"errors"
	"strings"
	"time"
)

// CatalogConfig contains repository-catalog client configuration.
type CatalogConfig struct {
	BaseURL string        `env:"CATALOG_BASE_URL"`
	Token   string        `env:"CATALOG_TOKEN"`
	Timeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to catalog client configuration values.
func (c *CatalogConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Token = strings.TrimSpace(c.Token)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the settings required for tagging work.
func (c *CatalogConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("CATALOG_BASE_URL is required")
	}
	if c.Token == "" {
		return errors.New("CATALOG_TOKEN is required")
	}
	return nil
}

// FileExplorerConfig contains file-explorer client configuration. The token
// is optional; without it file-level operations still work against open
// deployments.
type FileExplorerConfig struct {
	BaseURL string        `env:"FILE_EXPLORER_BASE_URL"`
	Token   string        `env:"FILE_EXPLORER_TOKEN"`
	Timeout time.Duration `env:"FILE_EXPLORER_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to file-explorer client configuration values.
func (c *FileExplorerConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Token = strings.TrimSpace(c.Token)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the settings required for tagging work.
func (c *FileExplorerConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("FILE_EXPLORER_BASE_URL is required")
	}
	return nil
}

// AIConnectorConfig contains model-service client configuration.
type AIConnectorConfig struct {
	BaseURL string        `env:"AI_CONNECTOR_BASE_URL"`
	Model   string        `env:"AI_CONNECTOR_MODEL"`
	Token   string        `env:"AI_CONNECTOR_TOKEN"`
	Timeout time.Duration `env:"AI_CONNECTOR_TIMEOUT" envDefault:"120s"`
}

// Sanitize applies guardrails to model-service client configuration values.
func (c *AIConnectorConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Model = strings.TrimSpace(c.Model)
	c.Token = strings.TrimSpace(c.Token)
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
}

// Validate checks the settings required for tagging work.
func (c *AIConnectorConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("AI_CONNECTOR_BASE_URL is required")
	}
	if c.Model == "" {
		return errors.New("AI_CONNECTOR_MODEL is required")
	}
	return nil
}

// WebhookConfig contains optional lifecycle webhook configuration.
type WebhookConfig struct {
	URL string `env:"WEBHOOK_URL"`

	// PayloadQuery optionally reshapes the outbound envelope with a
	// JMESPath expression before delivery.
	PayloadQuery string `env:"WEBHOOK_PAYLOAD_QUERY"`

	Timeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	RetryLimit int           `env:"WEBHOOK_RETRY_LIMIT" envDefault:"1"`
}

// Sanitize applies guardrails to webhook configuration values.
func (c *WebhookConfig) Sanitize() {
	c.URL = strings.TrimSpace(c.URL)
	c.PayloadQuery = strings.TrimSpace(c.PayloadQuery)
	if c.URL == "" {
		c.PayloadQuery = ""
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
}

// Enabled reports whether webhook delivery is configured.
func (c *WebhookConfig) Enabled() bool {
	return c.URL != ""
}
