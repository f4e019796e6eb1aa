package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apphub/tagging-service/internal/data/sqlutil"
	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

const runColumns = `
  id,
  job_id,
  status,
  started_at,
  completed_at,
  error_message,
  prompt,
  prompt_tokens,
  completion_tokens,
  cost_usd,
  latency_ms,
  raw_response
`

func scanRun(scanner rowScanner) (*model.JobRun, error) {
	var (
		run              model.JobRun
		startedAt        int64
		completedAt      sql.NullInt64
		errorMessage     sql.NullString
		prompt           sql.NullString
		promptTokens     sql.NullInt64
		completionTokens sql.NullInt64
		costUSD          sql.NullFloat64
		latencyMs        sql.NullInt64
		rawResponse      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.JobID,
		&run.Status,
		&startedAt,
		&completedAt,
		&errorMessage,
		&prompt,
		&promptTokens,
		&completionTokens,
		&costUSD,
		&latencyMs,
		&rawResponse,
	); err != nil {
		return nil, err
	}

	run.StartedAt = fromMillis(startedAt)
	run.CompletedAt = millisToTimePtr(completedAt)
	run.ErrorMessage = nullableString(errorMessage)
	run.Prompt = nullableString(prompt)
	run.PromptTokens = nullableInt(promptTokens)
	run.CompletionTokens = nullableInt(completionTokens)
	if costUSD.Valid {
		v := costUSD.Float64
		run.CostUSD = &v
	}
	if latencyMs.Valid {
		v := latencyMs.Int64
		run.LatencyMs = &v
	}
	run.RawResponse = nullableString(rawResponse)
	return &run, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullableInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// StartRun atomically creates a running JobRun, increments the owning job's
// run counter, and moves the job to running.
func (s *JobStore) StartRun(ctx context.Context, jobID int64) (*model.JobRun, error) {
	now := s.timeProvider.Now()
	nowMillis := toMillis(now)

	var run *model.JobRun
	txErr := sqlutil.WithTx(ctx, s.DB, sqlutil.TxConfig{
		Fn: func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET runs = runs + 1,
				    last_run_at = ?,
				    status = ?,
				    updated_at = ?
				WHERE id = ?`,
				nowMillis, model.JobStatusRunning, nowMillis, jobID)
			if err != nil {
				return fmt.Errorf("mark job running: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				return apperrors.NotFoundf("job %d not found", jobID)
			}

			row := tx.QueryRowContext(ctx, `
				INSERT INTO job_runs (job_id, status, started_at)
				VALUES (?, ?, ?)
				RETURNING `+runColumns,
				jobID, model.RunStatusRunning, nowMillis)
			run, err = scanRun(row)
			if err != nil {
				return fmt.Errorf("insert run: %w", err)
			}
			return nil
		},
	})
	if txErr != nil {
		return nil, apperrors.MapDBError(txErr)
	}
	return run, nil
}

// CompleteRun seals a running run with its terminal status and moves the
// owning job to the same status. Sealed runs never reopen.
func (s *JobStore) CompleteRun(ctx context.Context, params model.CompleteRunParams) (*model.JobRun, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	nowMillis := toMillis(s.timeProvider.Now())

	var run *model.JobRun
	txErr := sqlutil.WithTx(ctx, s.DB, sqlutil.TxConfig{
		Fn: func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `
				UPDATE job_runs
				SET status = ?,
				    completed_at = ?,
				    error_message = ?,
				    prompt = ?,
				    prompt_tokens = ?,
				    completion_tokens = ?,
				    cost_usd = ?,
				    latency_ms = ?,
				    raw_response = ?
				WHERE id = ? AND status = ?`,
				params.Status,
				nowMillis,
				params.ErrorMessage,
				params.Prompt,
				params.PromptTokens,
				params.CompletionTokens,
				params.CostUSD,
				params.LatencyMs,
				params.RawResponse,
				params.RunID,
				model.RunStatusRunning)
			if err != nil {
				return fmt.Errorf("seal run: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				var status model.RunStatus
				scanErr := tx.QueryRowContext(ctx,
					`SELECT status FROM job_runs WHERE id = ?`, params.RunID).Scan(&status)
				if errors.Is(scanErr, sql.ErrNoRows) {
					return apperrors.NotFoundf("run %d not found", params.RunID)
				}
				if scanErr != nil {
					return fmt.Errorf("inspect run: %w", scanErr)
				}
				return apperrors.Conflictf("run %d already sealed as %s", params.RunID, status)
			}

			row := tx.QueryRowContext(ctx,
				`SELECT `+runColumns+` FROM job_runs WHERE id = ?`, params.RunID)
			run, err = scanRun(row)
			if err != nil {
				return fmt.Errorf("reload run: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
				params.Status, nowMillis, run.JobID); err != nil {
				return fmt.Errorf("propagate job status: %w", err)
			}
			return nil
		},
	})
	if txErr != nil {
		return nil, apperrors.MapDBError(txErr)
	}
	return run, nil
}

// RecordAssignments batch-inserts the applied tags of a successful run. An
// empty batch is a no-op.
func (s *JobStore) RecordAssignments(ctx context.Context, runID int64, inputs []model.AssignmentInput) error {
	if len(inputs) == 0 {
		return nil
	}
	for i, in := range inputs {
		if !in.Scope.Valid() {
			return apperrors.Validationf("assignment %d: invalid scope %q", i, in.Scope)
		}
		if in.Target == "" || in.Key == "" || in.Value == "" {
			return apperrors.Validationf("assignment %d: target, key, and value are required", i)
		}
		if in.Confidence != nil && (*in.Confidence < 0 || *in.Confidence > 1) {
			return apperrors.Validationf("assignment %d: confidence %f out of range", i, *in.Confidence)
		}
	}

	nowMillis := toMillis(s.timeProvider.Now())

	txErr := sqlutil.WithTx(ctx, s.DB, sqlutil.TxConfig{
		Fn: func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `
				INSERT INTO tag_assignments (job_run_id, scope, target, key, value, confidence, applied_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return fmt.Errorf("prepare assignment insert: %w", err)
			}
			defer stmt.Close()

			for _, in := range inputs {
				if _, err := stmt.ExecContext(ctx,
					runID, in.Scope, in.Target, in.Key, in.Value, in.Confidence, nowMillis); err != nil {
					return fmt.Errorf("insert assignment %s=%s: %w", in.Key, in.Value, err)
				}
			}
			return nil
		},
	})
	if txErr != nil {
		return apperrors.MapDBError(txErr)
	}
	return nil
}

// GetRunByID returns a single run row.
func (s *JobStore) GetRunByID(ctx context.Context, id int64) (*model.JobRun, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM job_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get run %d: %w", id, err))
	}
	return run, nil
}

// ListRunsForJob returns a job's runs, most recent first.
func (s *JobStore) ListRunsForJob(ctx context.Context, jobID int64, limit int) ([]model.JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM job_runs
		WHERE job_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, jobID, limit)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list runs for job %d: %w", jobID, err))
	}
	defer rows.Close()

	var runs []model.JobRun
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, apperrors.MapDBError(fmt.Errorf("scan run row: %w", scanErr))
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate runs: %w", err))
	}
	return runs, nil
}

// LatestSuccessfulRun returns the most recently completed successful run for
// a repository, or nil when the repository has none.
func (s *JobStore) LatestSuccessfulRun(ctx context.Context, repositoryID string) (*model.JobRun, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT
		  job_runs.id,
		  job_runs.job_id,
		  job_runs.status,
		  job_runs.started_at,
		  job_runs.completed_at,
		  job_runs.error_message,
		  job_runs.prompt,
		  job_runs.prompt_tokens,
		  job_runs.completion_tokens,
		  job_runs.cost_usd,
		  job_runs.latency_ms,
		  job_runs.raw_response
		FROM job_runs
		JOIN jobs ON jobs.id = job_runs.job_id
		WHERE jobs.repository_id = ?
		  AND job_runs.status = ?
		  AND job_runs.completed_at IS NOT NULL
		ORDER BY job_runs.completed_at DESC, job_runs.id DESC
		LIMIT 1`, repositoryID, model.RunStatusSucceeded)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("latest successful run for %s: %w", repositoryID, err))
	}
	return run, nil
}

// HasRecentSuccessfulRun is the shared recency predicate: true iff a
// successful run completed within maxAge of now. A future completion
// timestamp counts as not recent.
func (s *JobStore) HasRecentSuccessfulRun(ctx context.Context, repositoryID string, maxAge time.Duration) (bool, error) {
	run, err := s.LatestSuccessfulRun(ctx, repositoryID)
	if err != nil || run == nil || run.CompletedAt == nil {
		return false, err
	}
	age := s.timeProvider.Now().Sub(*run.CompletedAt)
	return age >= 0 && age <= maxAge, nil
}

// GetAssignmentsForRun returns every tag recorded by a run.
func (s *JobStore) GetAssignmentsForRun(ctx context.Context, runID int64) ([]model.TagAssignment, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, job_run_id, scope, target, key, value, confidence, applied_at
		FROM tag_assignments
		WHERE job_run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("assignments for run %d: %w", runID, err))
	}
	defer rows.Close()

	var assignments []model.TagAssignment
	for rows.Next() {
		var (
			a          model.TagAssignment
			confidence sql.NullFloat64
			appliedAt  int64
		)
		if scanErr := rows.Scan(&a.ID, &a.JobRunID, &a.Scope, &a.Target, &a.Key, &a.Value, &confidence, &appliedAt); scanErr != nil {
			return nil, apperrors.MapDBError(fmt.Errorf("scan assignment row: %w", scanErr))
		}
		if confidence.Valid {
			v := confidence.Float64
			a.Confidence = &v
		}
		a.AppliedAt = fromMillis(appliedAt)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate assignments: %w", err))
	}
	return assignments, nil
}
