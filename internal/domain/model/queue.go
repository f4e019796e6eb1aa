package model

import (
	"errors"
	"time"
)

// QueueState tracks where a queued job currently sits.
type QueueState string

const (
	// QueueStateWaiting means the job sits on the waiting list.
	QueueStateWaiting QueueState = "waiting"
	// QueueStateActive means a worker holds the job.
	QueueStateActive QueueState = "active"
	// QueueStateDelayed means the job awaits a retry backoff.
	QueueStateDelayed QueueState = "delayed"
	// QueueStateCompleted means the job finished successfully.
	QueueStateCompleted QueueState = "completed"
	// QueueStateFailed means the job was discarded after permanent failure or exhausted retries.
	QueueStateFailed QueueState = "failed"
)

// Live reports whether the state still blocks re-enqueueing the same job id.
func (s QueueState) Live() bool {
	return s == QueueStateWaiting || s == QueueStateActive || s == QueueStateDelayed
}

// EnqueueParams describes a job to admit into the queue.
type EnqueueParams struct {
	RepositoryID string  `json:"repositoryId"`
	Trigger      Trigger `json:"trigger"`
	Reason       string  `json:"reason,omitempty"`
}

// Validate validates the EnqueueParams fields.
func (p *EnqueueParams) Validate() error {
	if p.RepositoryID == "" {
		return errors.New("repository id is required")
	}
	if !p.Trigger.Valid() {
		return errors.New("invalid trigger")
	}
	return nil
}

// QueuedJob is the queue-owned metadata for one job.
type QueuedJob struct {
	ID           string     `json:"id"`
	RepositoryID string     `json:"repository_id"`
	Trigger      Trigger    `json:"trigger"`
	Reason       string     `json:"reason,omitempty"`
	State        QueueState `json:"state"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	EnqueuedAt   time.Time  `json:"enqueued_at"`
	LastError    string     `json:"last_error,omitempty"`
}

// TransitionKind names the queue transitions observers can subscribe to.
type TransitionKind string

const (
	// TransitionWaiting fires when a job enters the waiting list.
	TransitionWaiting TransitionKind = "waiting"
	// TransitionActive fires when a worker reserves a job.
	TransitionActive TransitionKind = "active"
	// TransitionCompleted fires when a job finishes successfully.
	TransitionCompleted TransitionKind = "completed"
	// TransitionFailed fires when a job is discarded.
	TransitionFailed TransitionKind = "failed"
)

// Transition is the payload delivered to queue transition listeners.
type Transition struct {
	Kind         TransitionKind `json:"kind"`
	JobID        string         `json:"job_id"`
	RepositoryID string         `json:"repository_id"`
	Reason       string         `json:"reason,omitempty"`
}

// QueueStats reports queue depths for operator visibility.
type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}
