package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/apphub/tagging-service/internal/domain/events"
	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
	"github.com/apphub/tagging-service/internal/mocks"
	"github.com/apphub/tagging-service/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pipelineMocks struct {
	store    *mocks.MockAuditStore
	catalog  *mocks.MockCatalog
	explorer *mocks.MockFileExplorer
	model    *mocks.MockModelService
	checkout *mocks.MockRepoCheckout
	notifier *mocks.MockLifecycleNotifier
}

func newTestPipeline(t *testing.T) (*service.Pipeline, pipelineMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := pipelineMocks{
		store:    mocks.NewMockAuditStore(ctrl),
		catalog:  mocks.NewMockCatalog(ctrl),
		explorer: mocks.NewMockFileExplorer(ctrl),
		model:    mocks.NewMockModelService(ctrl),
		checkout: mocks.NewMockRepoCheckout(ctrl),
		notifier: mocks.NewMockLifecycleNotifier(ctrl),
	}
	logger := discardLogger()
	pipeline := service.NewPipeline(service.PipelineOptions{
		Store:    m.store,
		Catalog:  m.catalog,
		Explorer: m.explorer,
		Model:    m.model,
		Checkout: m.checkout,
		Sampler:  service.NewSampler(service.SamplerOptions{Explorer: m.explorer, Logger: logger}),
		Prompts:  service.NewPromptBuilder(service.PromptBuilderOptions{}),
		Notifier: m.notifier,
		Logger:   logger,
	})
	return pipeline, m
}

func queuedJob() *model.QueuedJob {
	return &model.QueuedJob{
		ID:           "job-repo-1",
		RepositoryID: "repo-1",
		Trigger:      model.TriggerEvent,
	}
}

func startRun(m pipelineMocks) {
	m.store.EXPECT().UpsertJob(gomock.Any(), "repo-1").Return(&model.Job{ID: 7, RepositoryID: "repo-1"}, nil)
	m.store.EXPECT().StartRun(gomock.Any(), int64(7)).Return(&model.JobRun{ID: 11, JobID: 7}, nil)
}

func TestPipelineProcessSuccess(t *testing.T) {
	pipeline, m := newTestPipeline(t)
	startRun(m)

	meta := &model.RepositoryMetadata{
		ID:            "repo-1",
		Name:          "payments",
		RepoURL:       "https://git.example.com/payments.git",
		DefaultBranch: "main",
		Tags: []model.RepositoryTag{
			{Key: "language", Value: "java", Source: model.TagSourceService},
		},
	}
	m.catalog.EXPECT().GetRepository(gomock.Any(), "repo-1").Return(meta, nil)
	m.checkout.EXPECT().Ensure(gomock.Any(), "repo-1", "https://git.example.com/payments.git", "main").
		Return(t.TempDir(), nil)
	m.explorer.EXPECT().Search(gomock.Any(), "repo-1", 20).Return([]model.FileHit{
		{Path: "main.go", Preview: "package main"},
	}, nil)
	m.model.EXPECT().ProposeTags(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (*model.ModelProposal, error) {
			assert.Contains(t, prompt, "payments")
			assert.Contains(t, prompt, "## main.go")
			return &model.ModelProposal{
				Tags: model.TagProposal{
					RepositoryTags: []model.TagPayload{{Key: "Language", Value: "Go"}},
					FileTags: []model.FileTagPayload{
						{Path: "main.go", Tags: []model.TagPayload{{Key: "Role", Value: "Entrypoint"}}},
					},
				},
				Usage: &model.ModelUsage{PromptTokens: 100, CompletionTokens: 20},
				Raw:   `{"repository_tags":[{"key":"Language","value":"Go"}]}`,
			}, nil
		})

	// The stale java tag is owned by this service, so the diff removes it.
	m.catalog.EXPECT().ApplyTags(gomock.Any(), "repo-1",
		[]model.TagPayload{{Key: "language", Value: "go"}},
		[]model.TagPayload{{Key: "language", Value: "java"}},
	).Return(nil)
	m.explorer.EXPECT().ApplyFileTags(gomock.Any(), "repo-1", "main.go",
		[]model.TagPayload{{Key: "role", Value: "entrypoint"}},
	).Return(nil)

	record := m.store.EXPECT().RecordAssignments(gomock.Any(), int64(11), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, inputs []model.AssignmentInput) error {
			require.Len(t, inputs, 2)
			assert.Equal(t, model.TagScopeRepository, inputs[0].Scope)
			assert.Equal(t, "repo-1", inputs[0].Target)
			assert.Equal(t, "language", inputs[0].Key)
			assert.Equal(t, "go", inputs[0].Value)
			assert.Equal(t, model.TagScopeFile, inputs[1].Scope)
			assert.Equal(t, "main.go", inputs[1].Target)
			assert.Equal(t, "role", inputs[1].Key)
			return nil
		})
	complete := m.store.EXPECT().CompleteRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params model.CompleteRunParams) (*model.JobRun, error) {
			assert.Equal(t, int64(11), params.RunID)
			assert.Equal(t, model.RunStatusSucceeded, params.Status)
			assert.Nil(t, params.ErrorMessage)
			require.NotNil(t, params.Prompt)
			require.NotNil(t, params.RawResponse)
			require.NotNil(t, params.PromptTokens)
			assert.Equal(t, 100, *params.PromptTokens)
			require.NotNil(t, params.CompletionTokens)
			assert.Equal(t, 20, *params.CompletionTokens)
			require.NotNil(t, params.LatencyMs)
			return &model.JobRun{ID: 11, Status: model.RunStatusSucceeded}, nil
		})
	// Assignments must be recorded before the run is sealed.
	gomock.InOrder(record, complete)

	m.notifier.EXPECT().TaggingCompleted(gomock.Any(), events.CompletedPayload{
		RepositoryID: "repo-1",
		RunID:        11,
		Trigger:      "event",
		TagCount:     1,
		FileTagCount: 1,
	})

	require.NoError(t, pipeline.Process(context.Background(), queuedJob()))
}

func TestPipelineProcessMissingRepoURLIsPermanent(t *testing.T) {
	pipeline, m := newTestPipeline(t)
	startRun(m)

	m.catalog.EXPECT().GetRepository(gomock.Any(), "repo-1").
		Return(&model.RepositoryMetadata{ID: "repo-1", Name: "payments"}, nil)

	m.store.EXPECT().CompleteRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params model.CompleteRunParams) (*model.JobRun, error) {
			assert.Equal(t, model.RunStatusFailed, params.Status)
			require.NotNil(t, params.ErrorMessage)
			assert.Contains(t, *params.ErrorMessage, "metadata missing repoUrl")
			assert.Nil(t, params.Prompt)
			assert.Nil(t, params.RawResponse)
			return &model.JobRun{ID: 11, Status: model.RunStatusFailed}, nil
		})
	m.notifier.EXPECT().TaggingFailed(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, payload events.FailedPayload) {
			assert.Equal(t, "repo-1", payload.RepositoryID)
			assert.False(t, payload.Transient)
			assert.Contains(t, payload.Error, "metadata missing repoUrl")
		})

	err := pipeline.Process(context.Background(), queuedJob())
	require.Error(t, err)
	assert.True(t, apperrors.IsPermanent(err))
}

func TestPipelineProcessModelErrorKeepsEvidence(t *testing.T) {
	pipeline, m := newTestPipeline(t)
	startRun(m)

	meta := &model.RepositoryMetadata{
		ID:            "repo-1",
		Name:          "payments",
		LegacyRepoURL: "https://git.example.com/payments.git",
	}
	m.catalog.EXPECT().GetRepository(gomock.Any(), "repo-1").Return(meta, nil)
	m.checkout.EXPECT().Ensure(gomock.Any(), "repo-1", "https://git.example.com/payments.git", "").
		Return(t.TempDir(), nil)
	m.explorer.EXPECT().Search(gomock.Any(), "repo-1", 20).Return(nil, nil)

	cause := apperrors.Transient("model service unavailable")
	m.model.EXPECT().ProposeTags(gomock.Any(), gomock.Any()).Return(&model.ModelProposal{
		Raw:   "upstream timeout body",
		Usage: &model.ModelUsage{PromptTokens: 80, CompletionTokens: 0},
	}, cause)

	m.store.EXPECT().CompleteRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params model.CompleteRunParams) (*model.JobRun, error) {
			assert.Equal(t, model.RunStatusFailed, params.Status)
			require.NotNil(t, params.RawResponse)
			assert.Equal(t, "upstream timeout body", *params.RawResponse)
			require.NotNil(t, params.PromptTokens)
			assert.Equal(t, 80, *params.PromptTokens)
			require.NotNil(t, params.Prompt)
			return &model.JobRun{ID: 11, Status: model.RunStatusFailed}, nil
		})
	m.notifier.EXPECT().TaggingFailed(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, payload events.FailedPayload) {
			assert.True(t, payload.Transient)
		})

	err := pipeline.Process(context.Background(), queuedJob())
	require.ErrorIs(t, err, cause)
	assert.False(t, apperrors.IsPermanent(err))
}

func TestPipelineProcessSealFailureReturnsStoreError(t *testing.T) {
	pipeline, m := newTestPipeline(t)
	startRun(m)

	m.catalog.EXPECT().GetRepository(gomock.Any(), "repo-1").
		Return(nil, errors.New("catalog down"))

	sealErr := errors.New("database locked")
	m.store.EXPECT().CompleteRun(gomock.Any(), gomock.Any()).Return(nil, sealErr)

	// No lifecycle event fires when the run could not be sealed.
	err := pipeline.Process(context.Background(), queuedJob())
	require.ErrorIs(t, err, sealErr)
}

func TestPipelineProcessAssignmentErrorSkipsSeal(t *testing.T) {
	pipeline, m := newTestPipeline(t)
	startRun(m)

	meta := &model.RepositoryMetadata{
		ID:      "repo-1",
		Name:    "payments",
		RepoURL: "https://git.example.com/payments.git",
	}
	m.catalog.EXPECT().GetRepository(gomock.Any(), "repo-1").Return(meta, nil)
	m.checkout.EXPECT().Ensure(gomock.Any(), "repo-1", "https://git.example.com/payments.git", "").
		Return(t.TempDir(), nil)
	m.explorer.EXPECT().Search(gomock.Any(), "repo-1", 20).Return(nil, nil)
	m.model.EXPECT().ProposeTags(gomock.Any(), gomock.Any()).Return(&model.ModelProposal{
		Tags: model.TagProposal{
			RepositoryTags: []model.TagPayload{{Key: "language", Value: "go"}},
		},
		Raw: "{}",
	}, nil)
	m.catalog.EXPECT().ApplyTags(gomock.Any(), "repo-1", gomock.Any(), gomock.Any()).Return(nil)

	auditErr := errors.New("insert assignments: disk full")
	m.store.EXPECT().RecordAssignments(gomock.Any(), int64(11), gomock.Any()).Return(auditErr)

	// The run stays open for redelivery: no CompleteRun, no lifecycle event.
	err := pipeline.Process(context.Background(), queuedJob())
	require.ErrorIs(t, err, auditErr)
}

func TestPipelineProcessUpsertErrorPropagates(t *testing.T) {
	pipeline, m := newTestPipeline(t)

	upsertErr := errors.New("database locked")
	m.store.EXPECT().UpsertJob(gomock.Any(), "repo-1").Return(nil, upsertErr)

	err := pipeline.Process(context.Background(), queuedJob())
	require.ErrorIs(t, err, upsertErr)
}
