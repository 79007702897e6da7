package tasks

import (
	"context"

	"github.com/lysyi3m/page-comb/app/registry"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to keep the plugin catalogs fresh.
// Example usage:
//
//	scheduler := NewScheduler(reg, Options{CheckInterval: 5 * time.Minute, StaleAfter: 5 * time.Hour})
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshCatalogTask(reg))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Refresher is the part of the registry the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
	Refreshing() bool
	State() *registry.State
}

var _ Refresher = (*registry.Registry)(nil)
