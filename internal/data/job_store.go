package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

// JobStoreConfig holds configuration options for the audit store.
type JobStoreConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobStore is the durable audit store for jobs, runs, and tag assignments.
// All mutating operations are single-writer transactions; readers always
// observe sealed rows.
type JobStore struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobStore creates a new JobStore instance with the given database connection and configuration.
func NewJobStore(db *sql.DB, cfg JobStoreConfig) *JobStore {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobStore{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_store"),
	}
}

const jobColumns = `
  id,
  repository_id,
  status,
  last_run_at,
  runs,
  created_at,
  updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*model.Job, error) {
	var (
		job       model.Job
		lastRunAt sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := scanner.Scan(
		&job.ID,
		&job.RepositoryID,
		&job.Status,
		&lastRunAt,
		&job.Runs,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	job.LastRunAt = millisToTimePtr(lastRunAt)
	job.CreatedAt = fromMillis(createdAt)
	job.UpdatedAt = fromMillis(updatedAt)
	return &job, nil
}

// UpsertJob inserts the job row for a repository or touches it when it
// already exists. Status is only set on first insert; run transitions own it
// afterwards.
func (s *JobStore) UpsertJob(ctx context.Context, repositoryID string) (*model.Job, error) {
	repositoryID = strings.TrimSpace(repositoryID)
	if repositoryID == "" {
		return nil, apperrors.ValidationField("repository_id", "repository id is required")
	}

	now := toMillis(s.timeProvider.Now())
	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO jobs (repository_id, status, runs, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT (repository_id) DO UPDATE SET updated_at = excluded.updated_at
		RETURNING `+jobColumns,
		repositoryID, model.JobStatusQueued, now, now)

	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("upsert job: %w", err))
	}
	return job, nil
}

// GetJobByID returns a single job row.
func (s *JobStore) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get job %d: %w", id, err))
	}
	return job, nil
}

// GetJobByRepositoryID returns the job row owning a repository.
func (s *JobStore) GetJobByRepositoryID(ctx context.Context, repositoryID string) (*model.Job, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE repository_id = ?`, repositoryID)
	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get job for repository %s: %w", repositoryID, err))
	}
	return job, nil
}

// ListRecentJobs returns jobs ordered by most recent activity.
func (s *JobStore) ListRecentJobs(ctx context.Context, limit, offset int) ([]model.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list recent jobs: %w", err))
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, apperrors.MapDBError(fmt.Errorf("scan job row: %w", scanErr))
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate jobs: %w", err))
	}
	return jobs, nil
}

// CountJobs returns the total number of job rows.
func (s *JobStore) CountJobs(ctx context.Context) (int64, error) {
	var count int64
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("count jobs: %w", err))
	}
	return count, nil
}

// JobStats returns per-status job counts for the dashboard and admin CLI.
func (s *JobStore) JobStats(ctx context.Context) (*model.JobStats, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("job stats: %w", err))
	}
	defer rows.Close()

	stats := &model.JobStats{}
	for rows.Next() {
		var (
			status model.JobStatus
			count  int
		)
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, apperrors.MapDBError(fmt.Errorf("scan job stats: %w", scanErr))
		}
		switch status {
		case model.JobStatusQueued:
			stats.Queued = count
		case model.JobStatusRunning:
			stats.Running = count
		case model.JobStatusSucceeded:
			stats.Succeeded = count
		case model.JobStatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate job stats: %w", err))
	}
	return stats, nil
}
