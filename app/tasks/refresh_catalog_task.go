package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/page-comb/app/registry"
)

type RefreshCatalogTask struct {
	Task
	refresher Refresher
}

func NewRefreshCatalogTask(refresher Refresher) *RefreshCatalogTask {
	return &RefreshCatalogTask{
		Task:      NewTask(TaskTypeRefreshCatalog),
		refresher: refresher,
	}
}

func (t *RefreshCatalogTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.refresher.Refresh(ctx)

	var refreshErr *registry.RefreshError
	if errors.As(err, &refreshErr) {
		// Per-entry failures are not retried.
		slog.Warn("Task completed with failures",
			"type", "RefreshCatalog",
			"failures", len(refreshErr.Failures),
			"duration", t.GetDuration())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}

	state := t.refresher.State()
	slog.Info("Task completed",
		"type", "RefreshCatalog",
		"parsers", state.Parsers.Len(),
		"templates", state.Templates.Len(),
		"duration", t.GetDuration())

	return nil
}
