package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/apphub/tagging-service/internal/domain/events"
	"github.com/apphub/tagging-service/internal/domain/model"
	"github.com/apphub/tagging-service/internal/observability/metrics"
	"github.com/apphub/tagging-service/internal/observability/statsd"
)

// EventRecencyWindow suppresses event-triggered enqueues for repositories
// tagged successfully within it.
const EventRecencyWindow = 12 * time.Hour

// AdmissionOptions configures an Admission service.
type AdmissionOptions struct {
	Queue   Enqueuer
	Recency RecencyReader
	Window  time.Duration
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Admission filters inbound pub/sub messages down to the repository events
// that warrant a tagging job and enqueues them behind the recency gate.
// Repository events that never enqueue are still forwarded to registered
// listeners. Malformed input is logged and dropped; the subscription always
// survives a bad message.
type Admission struct {
	queue   Enqueuer
	recency RecencyReader
	window  time.Duration
	logger  *slog.Logger
	metrics statsd.Sink

	mu        sync.RWMutex
	listeners []func(events.Normalized)
}

// NewAdmission creates an Admission service.
func NewAdmission(opts AdmissionOptions) *Admission {
	window := opts.Window
	if window <= 0 {
		window = EventRecencyWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Admission{
		queue:   opts.Queue,
		recency: opts.Recency,
		window:  window,
		logger:  logger.With("component", "admission"),
		metrics: opts.Metrics,
	}
}

// RegisterListener adds an observer for every well-formed repository event,
// including ones that do not enqueue.
func (a *Admission) RegisterListener(fn func(events.Normalized)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// HandleMessage processes one raw pub/sub message. It never returns an error
// for malformed input; only queue and store failures propagate so the
// subscriber can log them without dropping the subscription.
func (a *Admission) HandleMessage(ctx context.Context, raw []byte) error {
	event, ok := events.Parse(raw)
	if !ok {
		a.logger.WarnContext(ctx, "dropping malformed event message", "bytes", len(raw))
		metrics.EmitAdmission(a.metrics, metrics.AdmissionMalformed)
		return nil
	}
	if !event.IsRepositoryEvent() {
		return nil
	}

	a.forward(event)

	if !event.TriggersTagging() {
		a.logger.DebugContext(ctx, "repository event does not trigger tagging", "event", event.Name)
		metrics.EmitAdmission(a.metrics, metrics.AdmissionSkipped)
		return nil
	}
	if event.RepositoryID == "" {
		a.logger.DebugContext(ctx, "repository event without repository id", "event", event.Name)
		metrics.EmitAdmission(a.metrics, metrics.AdmissionMalformed)
		return nil
	}
	if !event.Ready() {
		a.logger.DebugContext(ctx, "repository not ready for tagging",
			"event", event.Name,
			"repository_id", event.RepositoryID,
			"ingest_status", event.IngestStatus)
		metrics.EmitAdmission(a.metrics, metrics.AdmissionSkipped)
		return nil
	}

	recent, err := a.recency.HasRecentSuccessfulRun(ctx, event.RepositoryID, a.window)
	if err != nil {
		metrics.EmitAdmission(a.metrics, metrics.AdmissionError)
		return err
	}
	if recent {
		a.logger.DebugContext(ctx, "suppressing enqueue, repository tagged recently",
			"repository_id", event.RepositoryID, "window", a.window.String())
		metrics.EmitAdmission(a.metrics, metrics.AdmissionSuppressed)
		return nil
	}

	jobID, deduped, err := a.queue.Enqueue(ctx, model.EnqueueParams{
		RepositoryID: event.RepositoryID,
		Trigger:      model.TriggerEvent,
		Reason:       event.Name,
	})
	if err != nil {
		metrics.EmitAdmission(a.metrics, metrics.AdmissionError)
		return err
	}

	if deduped {
		a.logger.DebugContext(ctx, "enqueue deduplicated onto live job",
			"repository_id", event.RepositoryID, "job_id", jobID)
		metrics.EmitAdmission(a.metrics, metrics.AdmissionDeduped)
		return nil
	}
	a.logger.InfoContext(ctx, "tagging job admitted",
		"repository_id", event.RepositoryID,
		"job_id", jobID,
		"event", event.Name)
	metrics.EmitAdmission(a.metrics, metrics.AdmissionEnqueued)
	return nil
}

func (a *Admission) forward(event events.Normalized) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, fn := range a.listeners {
		fn(event)
	}
}
