// Package events normalizes the two inbound pub/sub envelope shapes into a
// single form and defines the outbound lifecycle message format. All shape
// tolerance lives here; consumers only ever see a Normalized event.
package events

import (
	"encoding/json"
	"strings"
	"time"
)

// Inbound event names this service reacts to.
const (
	RepositoryPrefix         = "repository."
	RepositoryUpdated        = "repository.updated"
	RepositoryIngestionEvent = "repository.ingestion-event"
)

// Outbound lifecycle event names.
const (
	TaggingCompleted = "tagging.completed"
	TaggingFailed    = "tagging.failed"
)

// IngestStatusReady is the catalog's signal that a repository can be tagged.
const IngestStatusReady = "ready"

// Shape records which envelope variant a message arrived in.
type Shape string

const (
	// ShapeLegacy is {"event": "<name>", "payload": {...}}.
	ShapeLegacy Shape = "legacy"
	// ShapeEnvelope is {"event": {"type": "<name>", "data": {...}}}.
	ShapeEnvelope Shape = "envelope"
)

// Normalized is the single event form the admission path consumes.
// RepositoryID and IngestStatus are empty when the message did not carry them.
type Normalized struct {
	Shape        Shape
	Name         string
	RepositoryID string
	IngestStatus string
}

// IsRepositoryEvent reports whether the event concerns a repository at all.
func (n Normalized) IsRepositoryEvent() bool {
	return strings.HasPrefix(n.Name, RepositoryPrefix)
}

// TriggersTagging reports whether the event name is one that may enqueue a
// tagging job. Other repository events are observable but never enqueue.
func (n Normalized) TriggersTagging() bool {
	return n.Name == RepositoryUpdated || n.Name == RepositoryIngestionEvent
}

// Ready reports whether the repository is ingested and eligible for tagging.
func (n Normalized) Ready() bool {
	return n.IngestStatus == IngestStatusReady
}

type repositoryRef struct {
	ID           string `json:"id"`
	IngestStatus string `json:"ingestStatus"`
}

type envelopeEvent struct {
	Type string `json:"type"`
	Data struct {
		Repository   repositoryRef `json:"repository"`
		RepositoryID string        `json:"repositoryId"`
		IngestStatus string        `json:"ingestStatus"`
		Event        struct {
			RepositoryID string `json:"repositoryId"`
			Status       string `json:"status"`
		} `json:"event"`
	} `json:"data"`
}

// Parse decodes a raw pub/sub message. It returns false for malformed JSON
// and for messages without a resolvable event name; the caller decides how
// loudly to log. Field preference inside an envelope: data.repository, then
// data itself, then the nested data.event.
func Parse(raw []byte) (Normalized, bool) {
	var outer struct {
		Event   json.RawMessage `json:"event"`
		Payload struct {
			Repository repositoryRef `json:"repository"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return Normalized{}, false
	}
	if len(outer.Event) == 0 {
		return Normalized{}, false
	}

	var name string
	if err := json.Unmarshal(outer.Event, &name); err == nil {
		if name == "" {
			return Normalized{}, false
		}
		return Normalized{
			Shape:        ShapeLegacy,
			Name:         name,
			RepositoryID: outer.Payload.Repository.ID,
			IngestStatus: outer.Payload.Repository.IngestStatus,
		}, true
	}

	var env envelopeEvent
	if err := json.Unmarshal(outer.Event, &env); err != nil || env.Type == "" {
		return Normalized{}, false
	}
	n := Normalized{Shape: ShapeEnvelope, Name: env.Type}
	n.RepositoryID = firstNonEmpty(env.Data.Repository.ID, env.Data.RepositoryID, env.Data.Event.RepositoryID)
	n.IngestStatus = firstNonEmpty(env.Data.Repository.IngestStatus, env.Data.IngestStatus, env.Data.Event.Status)
	return n, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Outbound is the lifecycle message this service publishes.
type Outbound struct {
	ID        string    `json:"id,omitempty"`
	Event     string    `json:"event"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emittedAt"`
}

// CompletedPayload accompanies a tagging.completed event.
type CompletedPayload struct {
	RepositoryID string `json:"repositoryId"`
	RunID        int64  `json:"runId"`
	Trigger      string `json:"trigger"`
	TagCount     int    `json:"tagCount"`
	FileTagCount int    `json:"fileTagCount"`
}

// FailedPayload accompanies a tagging.failed event.
type FailedPayload struct {
	RepositoryID string `json:"repositoryId"`
	RunID        int64  `json:"runId,omitempty"`
	Trigger      string `json:"trigger"`
	Error        string `json:"error"`
	Transient    bool   `json:"transient"`
}
