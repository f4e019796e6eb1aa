// Package service holds the tagging business logic: event admission, the
// scheduler backstop, the worker pipeline, and lifecycle notification. The
// interfaces below are the service layer's view of its collaborators; the
// concrete implementations live in internal/data and internal/adapters.
package service

import (
	"context"
	"time"

	"github.com/apphub/tagging-service/internal/domain/events"
	"github.com/apphub/tagging-service/internal/domain/model"
)

// Enqueuer admits jobs into the durable queue. Returns the deterministic job
// id and whether the call deduplicated onto an already-live job.
type Enqueuer interface {
	Enqueue(ctx context.Context, params model.EnqueueParams) (string, bool, error)
}

// RecencyReader answers the shared recency predicate used by admission and
// the scheduler to suppress redundant work.
type RecencyReader interface {
	HasRecentSuccessfulRun(ctx context.Context, repositoryID string, maxAge time.Duration) (bool, error)
}

// AuditStore is the pipeline's view of the durable run store.
type AuditStore interface {
	UpsertJob(ctx context.Context, repositoryID string) (*model.Job, error)
	StartRun(ctx context.Context, jobID int64) (*model.JobRun, error)
	CompleteRun(ctx context.Context, params model.CompleteRunParams) (*model.JobRun, error)
	RecordAssignments(ctx context.Context, runID int64, inputs []model.AssignmentInput) error
}

// Catalog is the repository catalog collaborator.
type Catalog interface {
	GetRepository(ctx context.Context, repositoryID string) (*model.RepositoryMetadata, error)
	ListRepositories(ctx context.Context, page, perPage int) ([]model.RepositorySummary, error)
	ApplyTags(ctx context.Context, repositoryID string, apply, remove []model.TagPayload) error
}

// FileExplorer is the file-explorer collaborator.
type FileExplorer interface {
	Search(ctx context.Context, repositoryID string, limit int) ([]model.FileHit, error)
	ApplyFileTags(ctx context.Context, repositoryID, path string, payload []model.TagPayload) error
}

// ModelService asks the external model for a structured tag proposal.
type ModelService interface {
	ProposeTags(ctx context.Context, prompt string) (*model.ModelProposal, error)
}

// RepoCheckout maintains the local working tree for a repository and returns
// its directory.
type RepoCheckout interface {
	Ensure(ctx context.Context, repositoryID, repoURL, branch string) (string, error)
}

// LifecycleNotifier publishes run lifecycle events. Implementations must
// never fail the pipeline: errors are logged and suppressed internally.
type LifecycleNotifier interface {
	TaggingCompleted(ctx context.Context, payload events.CompletedPayload)
	TaggingFailed(ctx context.Context, payload events.FailedPayload)
}
