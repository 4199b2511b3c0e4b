package storage

import (
	"context"
	"sync"

	"contact-form-service-go/internal/model"
)

// MemStorage is an in-memory Storage used by tests and local development
type MemStorage struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]model.ContactMessage
}

// NewMemStorage creates an empty in-memory storage
func NewMemStorage() *MemStorage {
	return &MemStorage{
		nextID: 1,
		byID:   make(map[uint]model.ContactMessage),
	}
}

func (s *MemStorage) Save(ctx context.Context, msg *model.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == 0 {
		msg.ID = s.nextID
		s.nextID++
	}
	s.byID[msg.ID] = *msg
	return nil
}

func (s *MemStorage) FindByID(ctx context.Context, id uint) (*model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	out := msg
	return &out, nil
}

func (s *MemStorage) FindByVerificationToken(ctx context.Context, token string) (*model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.byID {
		if msg.VerificationToken != nil && *msg.VerificationToken == token {
			out := msg
			return &out, nil
		}
	}
	return nil, nil
}

// Len reports the number of stored messages
func (s *MemStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
