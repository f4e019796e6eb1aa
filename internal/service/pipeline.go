package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/apphub/tagging-service/internal/domain/events"
	"github.com/apphub/tagging-service/internal/domain/model"
	"github.com/apphub/tagging-service/internal/domain/tags"
	apperrors "github.com/apphub/tagging-service/internal/errors"
	"github.com/apphub/tagging-service/internal/observability/metrics"
	"github.com/apphub/tagging-service/internal/observability/statsd"
)

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Store    AuditStore
	Catalog  Catalog
	Explorer FileExplorer
	Model    ModelService
	Checkout RepoCheckout
	Sampler  *Sampler
	Prompts  *PromptBuilder
	Notifier LifecycleNotifier
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Now      func() time.Time
}

// Pipeline executes one tagging run per queued job: checkout, sampling,
// prompt, model call, normalization, diff, apply, audit, notify. Every
// failure is classified Transient or Permanent for the queue; audit-store
// failures propagate unclassified so the run is redelivered.
type Pipeline struct {
	store    AuditStore
	catalog  Catalog
	explorer FileExplorer
	model    ModelService
	checkout RepoCheckout
	sampler  *Sampler
	prompts  *PromptBuilder
	notifier LifecycleNotifier
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		store:    opts.Store,
		catalog:  opts.Catalog,
		explorer: opts.Explorer,
		model:    opts.Model,
		checkout: opts.Checkout,
		sampler:  opts.Sampler,
		prompts:  opts.Prompts,
		notifier: opts.Notifier,
		logger:   logger.With("component", "pipeline"),
		metrics:  opts.Metrics,
		now:      now,
	}
}

// runResult accumulates everything a run produces, including partial
// evidence from failed stages: the prompt once rendered and the raw model
// response once received both end up in the audit record either way.
type runResult struct {
	prompt     *string
	usage      *model.ModelUsage
	raw        *string
	repository []model.TagPayload
	files      []model.FileTagPayload
}

func (r *runResult) tagCount() int { return len(r.repository) }

func (r *runResult) fileTagCount() int {
	count := 0
	for _, f := range r.files {
		count += len(f.Tags)
	}
	return count
}

// Process runs the pipeline for one queued job. The returned error is nil
// for a sealed successful run; otherwise it carries the failure
// classification the queue maps into retry vs discard.
func (p *Pipeline) Process(ctx context.Context, queued *model.QueuedJob) error {
	job, err := p.store.UpsertJob(ctx, queued.RepositoryID)
	if err != nil {
		return err
	}
	run, err := p.store.StartRun(ctx, job.ID)
	if err != nil {
		return err
	}
	start := p.now()

	result, runErr := p.execute(ctx, queued)
	latency := p.now().Sub(start).Round(time.Millisecond).Milliseconds()

	if runErr != nil {
		return p.sealFailure(ctx, sealFailureParams{
			queued:  queued,
			run:     run,
			result:  result,
			latency: latency,
			cause:   runErr,
		})
	}

	if err := p.recordSuccess(ctx, run.ID, queued.RepositoryID, result); err != nil {
		// Audit-store failure: the run cannot be sealed, surface for redelivery.
		return err
	}
	if _, err := p.store.CompleteRun(ctx, completeParams(run.ID, model.RunStatusSucceeded, result, latency, nil)); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "tagging run succeeded",
		"repository_id", queued.RepositoryID,
		"run_id", run.ID,
		"tags", result.tagCount(),
		"file_tags", result.fileTagCount(),
		"latency_ms", latency)
	metrics.EmitRunOutcome(p.metrics, metrics.RunMetric{
		Trigger:  string(queued.Trigger),
		Result:   metrics.ResultSuccess,
		Duration: time.Duration(latency) * time.Millisecond,
	})

	p.notifier.TaggingCompleted(ctx, events.CompletedPayload{
		RepositoryID: queued.RepositoryID,
		RunID:        run.ID,
		Trigger:      string(queued.Trigger),
		TagCount:     result.tagCount(),
		FileTagCount: result.fileTagCount(),
	})
	return nil
}

type sealFailureParams struct {
	queued  *model.QueuedJob
	run     *model.JobRun
	result  *runResult
	latency int64
	cause   error
}

func (p *Pipeline) sealFailure(ctx context.Context, params sealFailureParams) error {
	message := params.cause.Error()
	if _, err := p.store.CompleteRun(ctx, completeParams(
		params.run.ID, model.RunStatusFailed, params.result, params.latency, &message)); err != nil {
		p.logger.ErrorContext(ctx, "failed to seal failed run",
			"run_id", params.run.ID, "error", err, "run_error", params.cause)
		return err
	}

	transient := !apperrors.IsPermanent(params.cause)
	p.logger.WarnContext(ctx, "tagging run failed",
		"repository_id", params.queued.RepositoryID,
		"run_id", params.run.ID,
		"transient", transient,
		"error", params.cause)
	metrics.EmitRunOutcome(p.metrics, metrics.RunMetric{
		Trigger:   string(params.queued.Trigger),
		Result:    metrics.ResultError,
		Transient: transient,
		Duration:  time.Duration(params.latency) * time.Millisecond,
		Err:       params.cause,
	})

	p.notifier.TaggingFailed(ctx, events.FailedPayload{
		RepositoryID: params.queued.RepositoryID,
		RunID:        params.run.ID,
		Trigger:      string(params.queued.Trigger),
		Error:        message,
		Transient:    transient,
	})
	return params.cause
}

func completeParams(runID int64, status model.RunStatus, result *runResult, latency int64, errMsg *string) model.CompleteRunParams {
	params := model.CompleteRunParams{
		RunID:        runID,
		Status:       status,
		ErrorMessage: errMsg,
		LatencyMs:    &latency,
	}
	if result == nil {
		return params
	}
	params.Prompt = result.prompt
	params.RawResponse = result.raw
	if result.usage != nil {
		promptTokens := result.usage.PromptTokens
		completionTokens := result.usage.CompletionTokens
		params.PromptTokens = &promptTokens
		params.CompletionTokens = &completionTokens
	}
	return params
}

// execute runs the fallible middle of the pipeline. The returned runResult
// is never nil; it holds whatever evidence was produced before a failure.
func (p *Pipeline) execute(ctx context.Context, queued *model.QueuedJob) (*runResult, error) {
	result := &runResult{}

	meta, err := p.catalog.GetRepository(ctx, queued.RepositoryID)
	if err != nil {
		return result, err
	}
	repoURL := meta.ResolveRepoURL()
	if repoURL == "" {
		return result, apperrors.Permanentf("metadata missing repoUrl for repository %s", queued.RepositoryID)
	}

	dir, err := p.checkout.Ensure(ctx, queued.RepositoryID, repoURL, meta.DefaultBranch)
	if err != nil {
		return result, err
	}

	samples := p.sampler.Collect(ctx, queued.RepositoryID, dir)

	prompt, err := p.prompts.Build(meta, samples)
	if err != nil {
		return result, err
	}
	result.prompt = &prompt

	proposal, err := p.model.ProposeTags(ctx, prompt)
	if proposal != nil {
		if proposal.Raw != "" {
			raw := proposal.Raw
			result.raw = &raw
		}
		result.usage = proposal.Usage
	}
	if err != nil {
		return result, err
	}

	normalized := tags.NormalizeProposal(proposal.Tags)
	diff := tags.DiffRepositoryTags(normalized.RepositoryTags, meta.Tags)

	if err := p.catalog.ApplyTags(ctx, queued.RepositoryID, diff.Apply, diff.Remove); err != nil {
		return result, err
	}
	for _, file := range normalized.FileTags {
		if err := p.explorer.ApplyFileTags(ctx, queued.RepositoryID, file.Path, file.Tags); err != nil {
			return result, err
		}
	}

	result.repository = diff.Apply
	result.files = normalized.FileTags
	return result, nil
}

func (p *Pipeline) recordSuccess(ctx context.Context, runID int64, repositoryID string, result *runResult) error {
	inputs := make([]model.AssignmentInput, 0, result.tagCount()+result.fileTagCount())
	for _, t := range result.repository {
		inputs = append(inputs, model.AssignmentInput{
			Scope:      model.TagScopeRepository,
			Target:     repositoryID,
			Key:        t.Key,
			Value:      t.Value,
			Confidence: t.Confidence,
		})
	}
	for _, file := range result.files {
		for _, t := range file.Tags {
			inputs = append(inputs, model.AssignmentInput{
				Scope:      model.TagScopeFile,
				Target:     file.Path,
				Key:        t.Key,
				Value:      t.Value,
				Confidence: t.Confidence,
			})
		}
	}
	return p.store.RecordAssignments(ctx, runID, inputs)
}
