package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCardCache struct {
	mock.Mock
}

func (m *MockCardCache) GetCardsForUser(ctx context.Context, userID string) ([]byte, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCardCache) PutCardsForUser(ctx context.Context, userID string, payload []byte) error {
	args := m.Called(ctx, userID, payload)
	return args.Error(0)
}

func (m *MockCardCache) InvalidateUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
