package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lysyi3m/page-comb/app/registry"
)

const DefaultHistoryLimit = 50

// RefreshRepository handles database operations for refresh history
type RefreshRepository struct {
	db *DB
}

var _ HistoryRepository = (*RefreshRepository)(nil)

func NewRefreshRepository(db *DB) *RefreshRepository {
	return &RefreshRepository{db: db}
}

func (r *RefreshRepository) RecordRefresh(ctx context.Context, record RefreshRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refreshes (id, started_at, finished_at, parser_count, template_count, failure_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.StartedAt.UTC(), record.FinishedAt.UTC(),
		record.ParserCount, record.TemplateCount, record.FailureCount, record.Error)
	if err != nil {
		return fmt.Errorf("failed to insert refresh %s: %w", record.ID, err)
	}
	return nil
}

// ListRefreshes returns the most recent refreshes, newest first
func (r *RefreshRepository) ListRefreshes(ctx context.Context, limit int) ([]RefreshRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, parser_count, template_count, failure_count, error
		FROM refreshes
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refreshes: %w", err)
	}
	defer rows.Close()

	var records []RefreshRecord
	for rows.Next() {
		var record RefreshRecord
		var startedAt, finishedAt time.Time
		if err := rows.Scan(&record.ID, &startedAt, &finishedAt,
			&record.ParserCount, &record.TemplateCount, &record.FailureCount, &record.Error); err != nil {
			return nil, fmt.Errorf("failed to scan refresh: %w", err)
		}
		record.StartedAt = startedAt.Local()
		record.FinishedAt = finishedAt.Local()
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refreshes: %w", err)
	}

	return records, nil
}

// RefreshRecorder stores registry refresh attempts as history records.
type RefreshRecorder struct {
	repo HistoryRepository
}

var _ registry.Recorder = (*RefreshRecorder)(nil)

func NewRefreshRecorder(repo HistoryRepository) *RefreshRecorder {
	return &RefreshRecorder{repo: repo}
}

func (r *RefreshRecorder) RecordRefresh(ctx context.Context, attempt registry.Attempt) error {
	record := RefreshRecord{
		ID:            attempt.ID,
		StartedAt:     attempt.StartedAt,
		FinishedAt:    attempt.FinishedAt,
		ParserCount:   attempt.Parsers,
		TemplateCount: attempt.Templates,
		FailureCount:  attempt.Failures,
	}
	if attempt.Err != nil {
		record.Error = attempt.Err.Error()
	}
	return r.repo.RecordRefresh(ctx, record)
}
