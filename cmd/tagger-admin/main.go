package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/apphub/tagging-service/config"
	"github.com/apphub/tagging-service/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"))

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrate,
		},
		"enqueue": {
			name:        "enqueue",
			description: "Enqueue a tagging job for a repository",
			run:         runEnqueue,
		},
		"queue-stats": {
			name:        "queue-stats",
			description: "Show queue depths",
			run:         runQueueStats,
		},
		"recent-jobs": {
			name:        "recent-jobs",
			description: "List the most recently updated jobs",
			run:         runRecentJobs,
		},
		"reap-orphans": {
			name:        "reap-orphans",
			description: "Seal runs orphaned by a dead worker",
			run:         runReapOrphans,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: tagger-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	for _, name := range commandNames() {
		c := commands()[name]
		if err := writef(os.Stdout, "  %-14s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func commandNames() []string {
	return []string{"migrate", "enqueue", "queue-stats", "recent-jobs", "reap-orphans"}
}
