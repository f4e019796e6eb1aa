package metrics

import (
	"time"

	obserrors "github.com/apphub/tagging-service/internal/observability/errors"
	"github.com/apphub/tagging-service/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Admission outcome constants.
const (
	AdmissionEnqueued   = "enqueued"
	AdmissionDeduped    = "deduped"
	AdmissionSuppressed = "suppressed"
	AdmissionSkipped    = "skipped"
	AdmissionMalformed  = "malformed"
	AdmissionError      = "error"
)

// RunMetric captures one tagging run outcome for metric emission.
type RunMetric struct {
	Trigger   string
	Result    string
	Transient bool
	Duration  time.Duration
	Err       error
}

// EmitRunOutcome emits standardised run lifecycle metrics.
func EmitRunOutcome(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"trigger": in.Trigger,
		"result":  in.Result,
	}
	if in.Result == ResultError {
		if in.Transient {
			tags["failure"] = "transient"
		} else {
			tags["failure"] = "permanent"
		}
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("run.outcome", 1, tags)
	if in.Duration > 0 {
		sink.Timing("run.duration", in.Duration, CloneTags(tags))
	}
}

// EmitAdmission counts one admission decision.
func EmitAdmission(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("admission.message", 1, map[string]string{"outcome": outcome})
}

// EmitSchedulerCycle emits the result of one scheduler backstop cycle.
func EmitSchedulerCycle(sink statsd.Sink, enqueued int, elapsed time.Duration, err error) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if err != nil {
		result = ResultError
	} else if enqueued == 0 {
		result = ResultNoop
	}
	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("scheduler.cycle", 1, tags)
	if enqueued > 0 {
		sink.Count("scheduler.enqueued", int64(enqueued), CloneTags(tags))
	}
	if elapsed > 0 {
		sink.Timing("scheduler.cycle_duration", elapsed, CloneTags(tags))
	}
	if err == nil {
		sink.Gauge("scheduler.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
