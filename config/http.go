package config

import "fmt"

// HTTPConfig contains read API server configuration.
type HTTPConfig struct {
	// Port is the TCP port the read API binds to.
	Port int `env:"PORT" envDefault:"8080"`

	// ShutdownGraceSeconds bounds graceful shutdown of in-flight requests.
	ShutdownGraceSeconds int `env:"HTTP_SHUTDOWN_GRACE_SECONDS" envDefault:"10"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Port < 1 || h.Port > 65535 {
		h.Port = 8080
	}
	if h.ShutdownGraceSeconds < 1 {
		h.ShutdownGraceSeconds = 1
	}
}

// Addr returns the listen address for the configured port.
func (h *HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", h.Port)
}
