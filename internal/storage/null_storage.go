package storage

import (
	"context"

	"contact-form-service-go/internal/model"
)

// NullStorage does not persist messages. Used for email-only mode.
type NullStorage struct{}

// NewNullStorage creates a storage that drops everything
func NewNullStorage() *NullStorage {
	return &NullStorage{}
}

func (s *NullStorage) Save(ctx context.Context, msg *model.ContactMessage) error {
	return nil
}

func (s *NullStorage) FindByID(ctx context.Context, id uint) (*model.ContactMessage, error) {
	return nil, nil
}

func (s *NullStorage) FindByVerificationToken(ctx context.Context, token string) (*model.ContactMessage, error) {
	return nil, nil
}
