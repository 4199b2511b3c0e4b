package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-form-service-go/internal/model"
)

func TestMemStorageSaveAssignsID(t *testing.T) {
	s := NewMemStorage()
	ctx := context.Background()

	msg := &model.ContactMessage{Data: model.FormData{"name": "Alice"}}
	require.NoError(t, s.Save(ctx, msg))
	assert.Equal(t, uint(1), msg.ID)

	other := &model.ContactMessage{Data: model.FormData{"name": "Bob"}}
	require.NoError(t, s.Save(ctx, other))
	assert.Equal(t, uint(2), other.ID)
	assert.Equal(t, 2, s.Len())
}

func TestMemStorageUpdateKeepsID(t *testing.T) {
	s := NewMemStorage()
	ctx := context.Background()

	msg := &model.ContactMessage{Data: model.FormData{"name": "Alice"}}
	require.NoError(t, s.Save(ctx, msg))

	msg.Verified = true
	require.NoError(t, s.Save(ctx, msg))
	assert.Equal(t, 1, s.Len())

	got, err := s.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Verified)
}

func TestMemStorageFindByVerificationToken(t *testing.T) {
	s := NewMemStorage()
	ctx := context.Background()

	token := "feedface"
	msg := &model.ContactMessage{VerificationToken: &token}
	require.NoError(t, s.Save(ctx, msg))

	got, err := s.FindByVerificationToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, msg.ID, got.ID)

	missing, err := s.FindByVerificationToken(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemStorageFindByIDMissing(t *testing.T) {
	s := NewMemStorage()

	got, err := s.FindByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}
