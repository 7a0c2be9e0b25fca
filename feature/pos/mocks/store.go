package mocks

import (
	"context"

	"catalog-sync/feature/pos"

	"github.com/stretchr/testify/mock"
)

// CredentialStore is a mock implementation of pos.CredentialStore
type CredentialStore struct {
	mock.Mock
}

func (m *CredentialStore) Get(ctx context.Context, tenantID string, provider pos.Provider) (pos.Credentials, error) {
	args := m.Called(ctx, tenantID, provider)
	return args.Get(0).(pos.Credentials), args.Error(1)
}

func (m *CredentialStore) Save(ctx context.Context, tenantID string, creds pos.Credentials) error {
	args := m.Called(ctx, tenantID, creds)
	return args.Error(0)
}

func (m *CredentialStore) Clear(ctx context.Context, tenantID string, provider pos.Provider) error {
	args := m.Called(ctx, tenantID, provider)
	return args.Error(0)
}
