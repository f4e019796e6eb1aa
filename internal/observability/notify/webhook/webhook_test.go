package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apphub/tagging-service/internal/domain/events"
)

func testEnvelope() events.Outbound {
	return events.Outbound{
		ID:    "evt-1",
		Event: events.TaggingCompleted,
		Payload: events.CompletedPayload{
			RepositoryID: "repo-1",
			RunID:        11,
			Trigger:      "event",
			TagCount:     2,
		},
		EmittedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	_, err = NewClient(Config{URL: "http://hooks.example.com", PayloadQuery: "not a ] query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid webhook payload query")
}

func TestSendDeliversEnvelope(t *testing.T) {
	var body []byte
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL})
	require.NoError(t, err)
	require.NoError(t, client.Send(context.Background(), testEnvelope()))

	assert.Equal(t, "application/json", contentType)
	var envelope events.Outbound
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "evt-1", envelope.ID)
	assert.Equal(t, events.TaggingCompleted, envelope.Event)
}

func TestSendRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL, RetryLimit: 1})
	require.NoError(t, err)
	require.NoError(t, client.Send(context.Background(), testEnvelope()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestSendReturnsLastErrorWhenRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL, RetryLimit: 1})
	require.NoError(t, err)

	err = client.Send(context.Background(), testEnvelope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(2), hits.Load())
}

func TestSendPayloadQueryReshapesBody(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL, PayloadQuery: "payload"})
	require.NoError(t, err)
	require.NoError(t, client.Send(context.Background(), testEnvelope()))

	var payload events.CompletedPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "repo-1", payload.RepositoryID)
	assert.Equal(t, int64(11), payload.RunID)
}

func TestSendStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL, RetryLimit: 5})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = client.Send(ctx, testEnvelope())
	require.Error(t, err)
}
