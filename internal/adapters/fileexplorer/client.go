// Package fileexplorer is the HTTP client for the file-explorer service,
// used to rank candidate files and to apply per-file tags.
package fileexplorer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Config configures the file-explorer client. The token is optional.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the file-explorer's HTTP API.
type Client struct {
	http *resty.Client
}

// NewClient creates a file-explorer client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		http.SetAuthToken(cfg.Token)
	}

	return &Client{http: http}
}

// Search returns the explorer's ranked candidate files for a repository.
// The pipeline treats failures here as advisory and falls back to a local
// walk, but the error itself is classified Transient like any collaborator.
func (c *Client) Search(ctx context.Context, repositoryID string, limit int) ([]model.FileHit, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("repositoryId", repositoryID).
		SetQueryParam("limit", strconv.Itoa(limit)).
		Get("/api/search")
	if err != nil {
		return nil, apperrors.WrapTransient(err, "file explorer search")
	}
	if resp.IsError() {
		return nil, apperrors.Transientf("file explorer search for %s: status %d", repositoryID, resp.StatusCode())
	}

	var hits []model.FileHit
	if err := json.Unmarshal(resp.Body(), &hits); err != nil {
		return nil, apperrors.WrapTransient(err, "decode file explorer results")
	}
	return hits, nil
}

type fileTagsRequest struct {
	RepositoryID string             `json:"repositoryId"`
	Path         string             `json:"path"`
	Tags         []model.TagPayload `json:"tags"`
}

// ApplyFileTags tags one file. The explorer holds no prior-tag state we can
// diff against, so this is always a plain apply.
func (c *Client) ApplyFileTags(ctx context.Context, repositoryID, path string, payload []model.TagPayload) error {
	if len(payload) == 0 {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fileTagsRequest{RepositoryID: repositoryID, Path: path, Tags: payload}).
		Post("/api/tags")
	if err != nil {
		return apperrors.WrapTransient(err, "file explorer apply tags")
	}
	if resp.IsError() {
		return apperrors.Transientf("file explorer apply tags for %s %s: status %d", repositoryID, path, resp.StatusCode())
	}
	return nil
}

// RemoveFileTags untags one file.
func (c *Client) RemoveFileTags(ctx context.Context, repositoryID, path string, payload []model.TagPayload) error {
	if len(payload) == 0 {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fileTagsRequest{RepositoryID: repositoryID, Path: path, Tags: payload}).
		Delete("/api/tags")
	if err != nil {
		return apperrors.WrapTransient(err, "file explorer remove tags")
	}
	if resp.IsError() {
		return apperrors.Transientf("file explorer remove tags for %s %s: status %d", repositoryID, path, resp.StatusCode())
	}
	return nil
}

// Health probes the explorer's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/healthz")
	if err != nil {
		return apperrors.WrapTransient(err, "file explorer health")
	}
	if resp.IsError() {
		return apperrors.Transientf("file explorer health: status %d", resp.StatusCode())
	}
	return nil
}
