package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"clinic-queue-backend/internal/model"
)

func (s *gormStore) GetToken(ctx context.Context, id int64) (*model.Token, error) {
	var token model.Token
	err := s.db.WithContext(ctx).
		Preload("Service").
		Preload("Room").
		First(&token, id).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// WaitingTokens returns a room's waiting line in service order: position
// first, creation order breaking ties.
func (s *gormStore) WaitingTokens(ctx context.Context, roomID int64) ([]model.Token, error) {
	var tokens []model.Token
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Preload("Service").
		Where("room_id = ? AND state = ?", roomID, model.TokenWaiting).
		Order("position").
		Order("created_at").
		Order("id").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting tokens for room %d: %w", roomID, err)
	}
	return tokens, nil
}

func (s *gormStore) WaitingCount(ctx context.Context, roomID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("room_id = ? AND state = ?", roomID, model.TokenWaiting).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count waiting tokens for room %d: %w", roomID, err)
	}
	return count, nil
}

// CountAhead counts waiting tokens in the same room with a strictly lower
// position, i.e. the number of patients served before this one.
func (s *gormStore) CountAhead(ctx context.Context, roomID int64, position int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("room_id = ? AND state = ? AND position < ?", roomID, model.TokenWaiting, position).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens ahead in room %d: %w", roomID, err)
	}
	return count, nil
}

// CurrentWaitingToken returns the patient's single waiting token, or nil
// when the patient is not waiting anywhere. Should storage ever hold more
// than one (an engine invariant violation), the oldest is picked so the
// result stays deterministic.
func (s *gormStore) CurrentWaitingToken(ctx context.Context, patientID int64) (*model.Token, error) {
	var token model.Token
	err := s.db.WithContext(ctx).
		Preload("Service").
		Preload("Room").
		Where("patient_id = ? AND state = ?", patientID, model.TokenWaiting).
		Order("created_at").
		Order("id").
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting token for patient %d: %w", patientID, err)
	}
	return &token, nil
}

// WaitingTokenForService returns the patient's waiting token for one
// specific service, or nil when there is none.
func (s *gormStore) WaitingTokenForService(ctx context.Context, patientID, serviceID int64) (*model.Token, error) {
	var token model.Token
	err := s.db.WithContext(ctx).
		Preload("Service").
		Preload("Room").
		Where("patient_id = ? AND service_id = ? AND state = ?", patientID, serviceID, model.TokenWaiting).
		Order("created_at").
		Order("id").
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting token for patient %d service %d: %w", patientID, serviceID, err)
	}
	return &token, nil
}

func (s *gormStore) CountWaitingByPatient(ctx context.Context, patientID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("patient_id = ? AND state = ?", patientID, model.TokenWaiting).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count waiting tokens for patient %d: %w", patientID, err)
	}
	return count, nil
}

// CreateTokenAtBack appends t to the back of its room's waiting line:
// position = max(existing waiting positions) + 1, or 1 for an empty line.
// The room row is locked first so concurrent creations in the same room
// cannot compute the same position. Call inside a Transaction together
// with the log append and old-token retirement.
func (s *gormStore) CreateTokenAtBack(ctx context.Context, t *model.Token) error {
	tx := s.db.WithContext(ctx)

	var room model.Room
	if err := lockForUpdate(tx).First(&room, t.RoomID).Error; err != nil {
		return fmt.Errorf("failed to lock room %d: %w", t.RoomID, err)
	}

	var maxPosition int
	err := tx.Model(&model.Token{}).
		Where("room_id = ? AND state = ?", t.RoomID, model.TokenWaiting).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error
	if err != nil {
		return fmt.Errorf("failed to read max position in room %d: %w", t.RoomID, err)
	}

	t.Position = maxPosition + 1
	t.State = model.TokenWaiting
	if err := tx.Create(t).Error; err != nil {
		return fmt.Errorf("failed to create token in room %d: %w", t.RoomID, err)
	}
	return nil
}

func (s *gormStore) DeleteToken(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&model.Token{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete token %d: %w", id, err)
	}
	return nil
}
