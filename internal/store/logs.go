package store

import (
	"context"
	"fmt"
	"time"

	"clinic-queue-backend/internal/model"
)

// LogFilter narrows a coordination log query. Zero-valued fields are
// ignored; combining filters intersects them.
type LogFilter struct {
	PatientID int64
	RoomID    int64
	From      time.Time
	To        time.Time
	Limit     int
}

// AppendLog writes one immutable coordination log entry. Called inside the
// same transaction as the token create/retire pair it describes.
func (s *gormStore) AppendLog(ctx context.Context, entry *model.CoordinationLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append coordination log: %w", err)
	}
	return nil
}

// Logs returns coordination log entries newest-first.
func (s *gormStore) Logs(ctx context.Context, filter LogFilter) ([]model.CoordinationLog, error) {
	q := s.db.WithContext(ctx).Model(&model.CoordinationLog{})

	if filter.PatientID > 0 {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.RoomID > 0 {
		q = q.Where(s.db.Where("from_room_id = ?", filter.RoomID).Or("to_room_id = ?", filter.RoomID))
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at <= ?", filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var entries []model.CoordinationLog
	if err := q.Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to query coordination logs: %w", err)
	}
	return entries, nil
}
