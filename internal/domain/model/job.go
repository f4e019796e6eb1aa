// Package model defines the core data types shared across the tagging service.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the current status of a tagging job.
type JobStatus string

// RunStatus represents the status of a single tagging run.
type RunStatus string

// Trigger records what caused a job to be enqueued.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Trigger string

const (
	// JobStatusQueued indicates a job is waiting to be processed.
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusSucceeded indicates the most recent run finished successfully.
	JobStatusSucceeded JobStatus = "succeeded"
	// JobStatusFailed indicates the most recent run failed.
	JobStatusFailed JobStatus = "failed"

	// RunStatusRunning indicates a run is in progress.
	RunStatusRunning RunStatus = "running"
	// RunStatusSucceeded indicates a run completed successfully.
	RunStatusSucceeded RunStatus = "succeeded"
	// RunStatusFailed indicates a run failed.
	RunStatusFailed RunStatus = "failed"

	// TriggerEvent marks jobs admitted from the pub/sub event stream.
	TriggerEvent Trigger = "event"
	// TriggerManual marks jobs enqueued by an operator.
	TriggerManual Trigger = "manual"
	// TriggerScheduler marks jobs enqueued by the periodic backstop.
	TriggerScheduler Trigger = "scheduler"
)

// ErrNoJobsAvailable is returned when no queued jobs are available for reservation.
var ErrNoJobsAvailable = errors.New("no jobs available")

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusQueued || s == JobStatusRunning || s == JobStatusSucceeded ||
		s == JobStatusFailed
}

// Valid returns true if the RunStatus is valid.
func (s RunStatus) Valid() bool {
	return s == RunStatusRunning || s == RunStatusSucceeded || s == RunStatusFailed
}

// Terminal returns true for run statuses that seal a run.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// Valid returns true if the Trigger is valid.
func (t Trigger) Valid() bool {
	return t == TriggerEvent || t == TriggerManual || t == TriggerScheduler
}

// UnmarshalText implements encoding.TextUnmarshaler for Trigger to allow env parsing.
func (t *Trigger) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	tr := Trigger(v)
	if tr.Valid() {
		*t = tr
		return nil
	}
	return fmt.Errorf("invalid Trigger: %q", v)
}

// Job is the durable audit record for one repository, exactly one per repository id.
type Job struct {
	ID           int64      `json:"id"                    db:"id"`
	RepositoryID string     `json:"repository_id"         db:"repository_id"`
	Status       JobStatus  `json:"status"                db:"status"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`
	Runs         int        `json:"runs"                  db:"runs"`
	CreatedAt    time.Time  `json:"created_at"            db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"            db:"updated_at"`
}

// JobRun is one tagging attempt. Created at run start and sealed exactly once.
type JobRun struct {
	ID               int64      `json:"id"                          db:"id"`
	JobID            int64      `json:"job_id"                      db:"job_id"`
	Status           RunStatus  `json:"status"                      db:"status"`
	StartedAt        time.Time  `json:"started_at"                  db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"      db:"completed_at"`
	ErrorMessage     *string    `json:"error_message,omitempty"     db:"error_message"`
	Prompt           *string    `json:"prompt,omitempty"            db:"prompt"`
	PromptTokens     *int       `json:"prompt_tokens,omitempty"     db:"prompt_tokens"`
	CompletionTokens *int       `json:"completion_tokens,omitempty" db:"completion_tokens"`
	CostUSD          *float64   `json:"cost_usd,omitempty"          db:"cost_usd"`
	LatencyMs        *int64     `json:"latency_ms,omitempty"        db:"latency_ms"`
	RawResponse      *string    `json:"raw_response,omitempty"      db:"raw_response"`
}

// CompleteRunParams carries everything needed to seal a run.
type CompleteRunParams struct {
	RunID            int64
	Status           RunStatus
	ErrorMessage     *string
	Prompt           *string
	PromptTokens     *int
	CompletionTokens *int
	CostUSD          *float64
	LatencyMs        *int64
	RawResponse      *string
}

// Validate checks that the params describe a legal run completion.
func (p *CompleteRunParams) Validate() error {
	if p.RunID <= 0 {
		return errors.New("run id is required")
	}
	if !p.Status.Terminal() {
		return fmt.Errorf("run status %q is not terminal", p.Status)
	}
	if p.Status == RunStatusFailed && (p.ErrorMessage == nil || *p.ErrorMessage == "") {
		return errors.New("failed runs require an error message")
	}
	return nil
}

// JobStats is the status breakdown reported by the read API.
type JobStats struct {
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Total returns the number of jobs across all statuses.
func (s JobStats) Total() int {
	return s.Queued + s.Running + s.Succeeded + s.Failed
}
