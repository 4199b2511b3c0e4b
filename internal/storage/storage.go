package storage

import (
	"context"

	"contact-form-service-go/internal/model"
)

// Storage persists and retrieves contact messages. Save performs an insert
// when the message has no ID yet and populates the ID on the same object;
// messages with an ID are updated in place.
type Storage interface {
	Save(ctx context.Context, msg *model.ContactMessage) error
	FindByID(ctx context.Context, id uint) (*model.ContactMessage, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.ContactMessage, error)
}
