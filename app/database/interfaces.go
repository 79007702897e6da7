package database

import (
	"context"
)

type HistoryRepository interface {
	RecordRefresh(ctx context.Context, record RefreshRecord) error
	ListRefreshes(ctx context.Context, limit int) ([]RefreshRecord, error)
}
