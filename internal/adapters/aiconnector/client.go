// Package aiconnector is the HTTP client for the model service. It asks for
// structured tags via a chat completion constrained by a JSON schema and
// splits failures per the pipeline's taxonomy: transport problems are
// Transient, unusable model output is Permanent.
package aiconnector

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

const (
	defaultTimeout = 60 * time.Second
	temperature    = 0.2
	retryCount     = 2
	retryBaseDelay = 500 * time.Millisecond

	systemPrompt = "You are a repository analysis assistant. Inspect the provided " +
		"repository summary, README, and file snippets, then emit tags describing " +
		"the repository as JSON matching the response schema. Keys are short " +
		"snake_case identifiers (language, framework, domain); values are concise " +
		"lower-case terms. Only emit tags you are confident about."
)

// Config configures the model-service client.
type Config struct {
	BaseURL string
	Token   string
	Model   string
	Timeout time.Duration
}

// Client talks to the model service's chat-completions endpoint.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a model-service client. Failed calls are retried twice
// with a delay of the base times the attempt number.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(retryCount).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			attempt := 1
			if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
				attempt = resp.Request.Attempt
			}
			return retryBaseDelay * time.Duration(attempt), nil
		}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})
	if cfg.Token != "" {
		http.SetAuthToken(cfg.Token)
	}

	return &Client{http: http, model: cfg.Model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat any           `json:"response_format"`
	Messages       []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *model.ModelUsage `json:"usage,omitempty"`
}

// proposalContent mirrors the schema the model is constrained to. A nil
// RepositoryTags distinguishes a missing array from an empty one.
type proposalContent struct {
	RepositoryTags *[]model.TagPayload    `json:"repository_tags"`
	FileTags       []model.FileTagPayload `json:"file_tags,omitempty"`
}

// ProposeTags sends the rendered prompt and parses the structured tag
// proposal out of the completion. The raw body is returned alongside any
// Permanent classification so failed runs can still record it.
func (c *Client) ProposeTags(ctx context.Context, prompt string) (*model.ModelProposal, error) {
	body := chatRequest{
		Model:          c.model,
		Temperature:    temperature,
		ResponseFormat: responseFormat(),
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, apperrors.WrapTransient(err, "model service request")
	}
	if resp.IsError() {
		return nil, apperrors.Transientf("model service: status %d", resp.StatusCode())
	}

	raw := string(resp.Body())
	var completion chatResponse
	if err := json.Unmarshal(resp.Body(), &completion); err != nil {
		return nil, apperrors.WrapTransient(err, "decode model service response")
	}

	result := &model.ModelProposal{Usage: completion.Usage, Raw: raw}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return result, apperrors.Permanent("model returned no content")
	}

	var content proposalContent
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &content); err != nil {
		return result, apperrors.WrapPermanent(err, "model content is not valid JSON")
	}
	if content.RepositoryTags == nil {
		return result, apperrors.Permanent("model content missing repository_tags array")
	}

	result.Tags = model.TagProposal{
		RepositoryTags: *content.RepositoryTags,
		FileTags:       content.FileTags,
	}
	return result, nil
}

// responseFormat is the JSON-schema constraint sent with every completion:
// repository_tags is required, file_tags optional, confidences in [0,1].
func responseFormat() map[string]any {
	tagSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key":   map[string]any{"type": "string"},
			"value": map[string]any{"type": "string"},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
		},
		"required":             []string{"key", "value"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name": "repository_tags",
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"repository_tags": map[string]any{
						"type":  "array",
						"items": tagSchema,
					},
					"file_tags": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"path": map[string]any{"type": "string"},
								"tags": map[string]any{
									"type":  "array",
									"items": tagSchema,
								},
							},
							"required":             []string{"path", "tags"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"repository_tags"},
				"additionalProperties": false,
			},
		},
	}
}
