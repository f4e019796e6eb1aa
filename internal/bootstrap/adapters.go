package bootstrap

import (
	"log/slog"

	"github.com/apphub/tagging-service/config"
	"github.com/apphub/tagging-service/internal/adapters/aiconnector"
	"github.com/apphub/tagging-service/internal/adapters/catalog"
	"github.com/apphub/tagging-service/internal/adapters/fileexplorer"
	"github.com/apphub/tagging-service/internal/adapters/gitops"
	"github.com/apphub/tagging-service/internal/observability/notify/webhook"
	"github.com/apphub/tagging-service/internal/observability/statsd"
)

// CollaboratorClients groups the outbound HTTP clients and the checkout
// manager built from configuration.
type CollaboratorClients struct {
	Catalog      *catalog.Client
	FileExplorer *fileexplorer.Client
	AIConnector  *aiconnector.Client
	Checkout     *gitops.Checkout
}

// buildCollaborators constructs the outbound adapters. Construction never
// dials anything; a misconfigured client surfaces on first use.
func buildCollaborators(cfg *config.AppConfig, logger *slog.Logger) CollaboratorClients {
	return CollaboratorClients{
		Catalog: catalog.NewClient(catalog.Config{
			BaseURL: cfg.Catalog.BaseURL,
			Token:   cfg.Catalog.Token,
			Timeout: cfg.Catalog.Timeout,
		}),
		FileExplorer: fileexplorer.NewClient(fileexplorer.Config{
			BaseURL: cfg.FileExplorer.BaseURL,
			Token:   cfg.FileExplorer.Token,
			Timeout: cfg.FileExplorer.Timeout,
		}),
		AIConnector: aiconnector.NewClient(aiconnector.Config{
			BaseURL: cfg.AIConnector.BaseURL,
			Token:   cfg.AIConnector.Token,
			Model:   cfg.AIConnector.Model,
			Timeout: cfg.AIConnector.Timeout,
		}),
		Checkout: gitops.NewCheckout(gitops.Config{
			WorkspaceRoot: cfg.Worker.WorkspaceRoot,
			Logger:        logger,
		}),
	}
}

// buildWebhookClient constructs the lifecycle webhook client, or nil when no
// webhook URL is configured. A bad payload query fails here, at startup.
func buildWebhookClient(cfg config.WebhookConfig, logger *slog.Logger) (*webhook.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := webhook.NewClient(webhook.Config{
		URL:          cfg.URL,
		PayloadQuery: cfg.PayloadQuery,
		Timeout:      cfg.Timeout,
		RetryLimit:   cfg.RetryLimit,
	})
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("webhook notifications enabled", "url", cfg.URL)
	}
	return client, nil
}

// buildMetricsSink constructs the StatsD sink. With metrics disabled a
// no-op client is returned so callers never nil-check.
func buildMetricsSink(cfg config.MetricsConfig, logger *slog.Logger) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.Addr,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		if logger != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		}
		disabled, _ := statsd.NewClient(statsd.Config{Logger: logger})
		return disabled
	}
	return client
}
