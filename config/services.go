package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the read API server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeAdmission runs the pub/sub event admission subscriber.
	ServiceModeAdmission ServiceMode = "admission"
	// ServiceModeScheduler runs the periodic catalog backstop.
	ServiceModeScheduler ServiceMode = "scheduler"
	// ServiceModeWorker runs the tagging worker pool.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeAll expands to every mode above in one process.
	ServiceModeAll ServiceMode = "all"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeAdmission,
		ServiceModeScheduler,
		ServiceModeWorker,
		ServiceModeAll,
	}
}

// ParseServices parses a comma-delimited string of service names and returns
// the enabled services. "all" expands to every concrete mode. It validates
// that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.ToLower(strings.TrimSpace(part))
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeAdmission, ServiceModeScheduler, ServiceModeWorker:
			services[mode] = true
		case ServiceModeAll:
			services[ServiceModeHTTP] = true
			services[ServiceModeAdmission] = true
			services[ServiceModeScheduler] = true
			services[ServiceModeWorker] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, admission, scheduler, worker, all)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains tagging worker configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines consuming the queue.
	Concurrency int `env:"TAGGING_CONCURRENCY" envDefault:"2"`

	// WorkspaceRoot is the directory that holds per-repository checkouts.
	WorkspaceRoot string `env:"WORKSPACE_ROOT" envDefault:"/tmp/tagging-workspace"`

	// PromptTemplatePath optionally overrides the embedded prompt template
	// with an absolute path to a template file.
	PromptTemplatePath string `env:"TAGGING_PROMPT_TEMPLATE_PATH"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	w.WorkspaceRoot = strings.TrimSpace(w.WorkspaceRoot)
	w.PromptTemplatePath = strings.TrimSpace(w.PromptTemplatePath)
}

// QueueConfig contains durable queue retry configuration.
type QueueConfig struct {
	// MaxAttempts is the total number of delivery attempts per job.
	MaxAttempts int `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`

	// BackoffBase is the first retry delay; subsequent delays double.
	BackoffBase time.Duration `env:"QUEUE_BACKOFF_BASE" envDefault:"500ms"`
}

// Sanitize applies guardrails to queue configuration values.
func (q *QueueConfig) Sanitize() {
	if q.MaxAttempts < 1 {
		q.MaxAttempts = 1
	}
	if q.BackoffBase < 100*time.Millisecond {
		q.BackoffBase = 100 * time.Millisecond
	}
}

// SchedulerConfig contains backstop scheduler configuration.
type SchedulerConfig struct {
	// Interval is the spacing between catalog backstop sweeps.
	Interval time.Duration `env:"TAGGING_SCHEDULER_INTERVAL" envDefault:"6h"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.Interval < time.Minute {
		s.Interval = time.Minute
	}
}
