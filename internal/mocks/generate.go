// Package mocks provides mock implementations for testing the tagging pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// service-layer ports. The mocks are generated using go:generate directives and
// provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	store := mocks.NewMockAuditStore(ctrl)
//	store.EXPECT().UpsertJob(gomock.Any(), "repo-1").Return(job, nil)
package mocks

// Generate mocks for the pipeline collaborator ports: the audit store, the
// catalog, the file explorer, the model service, the checkout manager, and
// the lifecycle notifier.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ports_mock.go github.com/apphub/tagging-service/internal/service AuditStore,Catalog,FileExplorer,ModelService,RepoCheckout,LifecycleNotifier

// Generate mocks for the queue-facing ports used by admission and the
// scheduler: Enqueue plus the recency predicate.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=queue_mock.go github.com/apphub/tagging-service/internal/service Enqueuer,RecencyReader
