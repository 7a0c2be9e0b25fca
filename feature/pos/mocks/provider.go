package mocks

import (
	"context"

	"catalog-sync/feature/pos"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
)

// CatalogProvider is a mock implementation of pos.CatalogProvider
type CatalogProvider struct {
	mock.Mock
	Tag pos.Provider
}

func (m *CatalogProvider) Provider() pos.Provider {
	return m.Tag
}

func (m *CatalogProvider) ValidateCredentials(ctx context.Context, raw pos.RawCredentials) (pos.AccountInfo, pos.Credentials, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(pos.AccountInfo), args.Get(1).(pos.Credentials), args.Error(2)
}

func (m *CatalogProvider) Authenticate(ctx context.Context, tenantID string) (*oauth2.Token, error) {
	args := m.Called(ctx, tenantID)
	if tok, ok := args.Get(0).(*oauth2.Token); ok {
		return tok, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CatalogProvider) FetchCatalog(ctx context.Context, tenantID string, token *oauth2.Token) (pos.FetchResult, error) {
	args := m.Called(ctx, tenantID, token)
	return args.Get(0).(pos.FetchResult), args.Error(1)
}
