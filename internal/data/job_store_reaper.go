package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apphub/tagging-service/internal/data/sqlutil"
	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

const orphanRunMessage = "run orphaned by process shutdown"

// ReapOrphanRuns seals runs left in running state by a crashed or killed
// process. Runs started more than olderThan ago are failed, and owning jobs
// with no remaining live run follow. Returns the number of sealed runs.
func (s *JobStore) ReapOrphanRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan < 0 {
		return 0, apperrors.Validation("reap age must not be negative")
	}

	now := s.timeProvider.Now()
	nowMillis := toMillis(now)
	cutoff := toMillis(now.Add(-olderThan))

	var sealed int64
	txErr := sqlutil.WithTx(ctx, s.DB, sqlutil.TxConfig{
		Fn: func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `
				UPDATE job_runs
				SET status = ?,
				    completed_at = ?,
				    error_message = ?
				WHERE status = ?
				  AND started_at <= ?`,
				model.RunStatusFailed, nowMillis, orphanRunMessage,
				model.RunStatusRunning, cutoff)
			if err != nil {
				return fmt.Errorf("seal orphan runs: %w", err)
			}
			sealed, err = res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if sealed == 0 {
				return nil
			}

			if _, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = ?, updated_at = ?
				WHERE status = ?
				  AND NOT EXISTS (
				      SELECT 1 FROM job_runs
				      WHERE job_runs.job_id = jobs.id AND job_runs.status = ?
				  )`,
				model.JobStatusFailed, nowMillis,
				model.JobStatusRunning, model.RunStatusRunning); err != nil {
				return fmt.Errorf("fail orphaned jobs: %w", err)
			}
			return nil
		},
	})
	if txErr != nil {
		return 0, apperrors.MapDBError(txErr)
	}

	if sealed > 0 {
		s.logger.InfoContext(ctx, "reaped orphan runs", "count", sealed, "older_than", olderThan.String())
	}
	return sealed, nil
}
