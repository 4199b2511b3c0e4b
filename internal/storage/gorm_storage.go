package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"contact-form-service-go/internal/model"
)

// GormStorage persists contact messages in the relational database
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new database-backed storage
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func (s *GormStorage) Save(ctx context.Context, msg *model.ContactMessage) error {
	if err := s.db.WithContext(ctx).Save(msg).Error; err != nil {
		return fmt.Errorf("failed to save contact message: %w", err)
	}
	return nil
}

func (s *GormStorage) FindByID(ctx context.Context, id uint) (*model.ContactMessage, error) {
	var msg model.ContactMessage
	result := s.db.WithContext(ctx).First(&msg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &msg, nil
}

func (s *GormStorage) FindByVerificationToken(ctx context.Context, token string) (*model.ContactMessage, error) {
	var msg model.ContactMessage
	result := s.db.WithContext(ctx).Where("verification_token = ?", token).First(&msg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &msg, nil
}
