// Package catalog is the HTTP client for the repository catalog service.
// Every call failure is classified Transient: the catalog is a collaborator
// whose outages the queue retries through.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Config configures the catalog client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the catalog's HTTP API with bearer auth.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient creates a catalog client.
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

	return &Client{http: http, baseURL: cfg.BaseURL}
}

// GetRepository fetches a repository's metadata, including its current tags.
func (c *Client) GetRepository(ctx context.Context, repositoryID string) (*model.RepositoryMetadata, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/apps/" + repositoryID)
	if err != nil {
		return nil, apperrors.WrapTransient(err, "catalog get repository")
	}
	if resp.IsError() {
		return nil, apperrors.Transientf("catalog get repository %s: status %d", repositoryID, resp.StatusCode())
	}

	var meta model.RepositoryMetadata
	if err := json.Unmarshal(resp.Body(), &meta); err != nil {
		return nil, apperrors.WrapTransient(err, "decode repository metadata")
	}
	return &meta, nil
}

// ListRepositories returns one page of the catalog's repository listing.
func (c *Client) ListRepositories(ctx context.Context, page, perPage int) ([]model.RepositorySummary, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("perPage", strconv.Itoa(perPage)).
		Get("/apps")
	if err != nil {
		return nil, apperrors.WrapTransient(err, "catalog list repositories")
	}
	if resp.IsError() {
		return nil, apperrors.Transientf("catalog list repositories page %d: status %d", page, resp.StatusCode())
	}

	var summaries []model.RepositorySummary
	if err := json.Unmarshal(resp.Body(), &summaries); err != nil {
		return nil, apperrors.WrapTransient(err, "decode repository listing")
	}
	return summaries, nil
}

type tagWrite struct {
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type tagRemove struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type applyTagsRequest struct {
	Tags   []tagWrite  `json:"tags"`
	Remove []tagRemove `json:"remove,omitempty"`
}

// ApplyTags posts a repository's reconciled tag batch: additions carry this
// service as their source, removals follow in the same request.
func (c *Client) ApplyTags(ctx context.Context, repositoryID string, apply, remove []model.TagPayload) error {
	if len(apply) == 0 && len(remove) == 0 {
		return nil
	}

	body := applyTagsRequest{Tags: make([]tagWrite, 0, len(apply))}
	for _, t := range apply {
		body.Tags = append(body.Tags, tagWrite{
			Key:        t.Key,
			Value:      t.Value,
			Source:     model.TagSourceService,
			Confidence: t.Confidence,
		})
	}
	for _, t := range remove {
		body.Remove = append(body.Remove, tagRemove{Key: t.Key, Value: t.Value})
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/apps/%s/tags", repositoryID))
	if err != nil {
		return apperrors.WrapTransient(err, "catalog apply tags")
	}
	if resp.IsError() {
		return apperrors.Transientf("catalog apply tags for %s: status %d", repositoryID, resp.StatusCode())
	}
	return nil
}
