package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/apphub/tagging-service/internal/bootstrap"
	"github.com/apphub/tagging-service/internal/data"
	"github.com/apphub/tagging-service/internal/domain/model"
)

const (
	defaultCommandTimeout   = 2 * time.Minute
	defaultMigrationTimeout = 5 * time.Minute
)

type enqueueOptions struct {
	RepositoryID string
	Reason       string
}

type recentJobsOptions struct {
	Limit int
}

type reapOptions struct {
	MinAge time.Duration
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	db, err := bootstrap.OpenDatabase(cmdCtx.Config.Database, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB(cmdCtx, db)

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runEnqueue(cmdCtx *commandContext, args []string) error {
	opts, err := parseEnqueueFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	redisClient, err := bootstrap.ConnectRedis(cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	queue := data.NewRedisQueue(redisClient, data.RedisQueueConfig{
		Prefix: cmdCtx.Config.Redis.QueuePrefix,
		Logger: cmdCtx.Logger,
	})
	defer func() {
		if cerr := queue.Close(); cerr != nil {
			cmdCtx.Logger.Warn("queue close failed", "error", cerr)
		}
	}()

	jobID, deduped, err := queue.Enqueue(ctx, model.EnqueueParams{
		RepositoryID: opts.RepositoryID,
		Trigger:      model.TriggerManual,
		Reason:       opts.Reason,
	})
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}

	if deduped {
		return writef(os.Stdout, "job %s already live for repository %s; not re-enqueued\n", jobID, opts.RepositoryID)
	}
	return writef(os.Stdout, "enqueued job %s for repository %s\n", jobID, opts.RepositoryID)
}

func runQueueStats(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	redisClient, err := bootstrap.ConnectRedis(cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	queue := data.NewRedisQueue(redisClient, data.RedisQueueConfig{
		Prefix: cmdCtx.Config.Redis.QueuePrefix,
		Logger: cmdCtx.Logger,
	})
	defer func() {
		if cerr := queue.Close(); cerr != nil {
			cmdCtx.Logger.Warn("queue close failed", "error", cerr)
		}
	}()

	stats, err := queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("queue stats: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(w, "State\tCount"); err != nil {
		return err
	}
	rows := []struct {
		label string
		count int64
	}{
		{"Waiting", stats.Waiting},
		{"Delayed", stats.Delayed},
		{"Active", stats.Active},
		{"Completed", stats.Completed},
		{"Failed", stats.Failed},
	}
	for _, row := range rows {
		if err := writef(w, "%s\t%d\n", row.label, row.count); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush stats: %w", err)
	}
	return nil
}

func runRecentJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseRecentJobsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := bootstrap.OpenDatabase(cmdCtx.Config.Database, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB(cmdCtx, db)

	store := data.NewJobStore(db, data.JobStoreConfig{Logger: cmdCtx.Logger})
	jobs, err := store.ListRecentJobs(ctx, opts.Limit, 0)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		return writeln(os.Stdout, "(no jobs)")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(w, "Repository\tStatus\tRuns\tLast Run"); err != nil {
		return err
	}
	for _, job := range jobs {
		lastRun := "-"
		if job.LastRunAt != nil {
			lastRun = job.LastRunAt.UTC().Format(time.RFC3339)
		}
		if err := writef(w, "%s\t%s\t%d\t%s\n", job.RepositoryID, job.Status, job.Runs, lastRun); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush jobs: %w", err)
	}
	return nil
}

func runReapOrphans(cmdCtx *commandContext, args []string) error {
	opts, err := parseReapFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := bootstrap.OpenDatabase(cmdCtx.Config.Database, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB(cmdCtx, db)

	store := data.NewJobStore(db, data.JobStoreConfig{Logger: cmdCtx.Logger})
	sealed, err := store.ReapOrphanRuns(ctx, opts.MinAge)
	if err != nil {
		return fmt.Errorf("reap orphan runs: %w", err)
	}

	return writef(os.Stdout, "sealed %d orphaned runs\n", sealed)
}

func parseEnqueueFlags(args []string) (enqueueOptions, error) {
	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts enqueueOptions
	fs.StringVar(&opts.RepositoryID, "repository-id", "", "Repository ID to tag (required)")
	fs.StringVar(&opts.Reason, "reason", "", "Optional reason recorded on the job")

	if err := fs.Parse(args); err != nil {
		return enqueueOptions{}, err
	}

	opts.RepositoryID = strings.TrimSpace(opts.RepositoryID)
	if opts.RepositoryID == "" {
		return enqueueOptions{}, errors.New("--repository-id is required")
	}

	return opts, nil
}

func parseRecentJobsFlags(args []string) (recentJobsOptions, error) {
	fs := flag.NewFlagSet("recent-jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := recentJobsOptions{Limit: 20}
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum jobs to display")

	if err := fs.Parse(args); err != nil {
		return recentJobsOptions{}, err
	}

	if opts.Limit < 1 {
		return recentJobsOptions{}, errors.New("--limit must be at least 1")
	}

	return opts, nil
}

func parseReapFlags(args []string) (reapOptions, error) {
	fs := flag.NewFlagSet("reap-orphans", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := reapOptions{MinAge: time.Minute}
	fs.DurationVar(&opts.MinAge, "min-age", time.Minute, "Only seal runs older than this")

	if err := fs.Parse(args); err != nil {
		return reapOptions{}, err
	}

	if opts.MinAge <= 0 {
		return reapOptions{}, errors.New("--min-age must be greater than zero")
	}

	return opts, nil
}

func closeDB(cmdCtx *commandContext, db *sql.DB) {
	if cerr := db.Close(); cerr != nil {
		cmdCtx.Logger.Warn("db close failed", "error", cerr)
	}
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeln(w io.Writer, args ...any) error {
	if _, err := fmt.Fprintln(w, args...); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
