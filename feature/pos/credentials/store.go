package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/core/secret"
	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/models"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// Store implements pos.CredentialStore on the tenant_integrations table.
// Secrets are sealed with the cipher before they are written.
type Store struct {
	db     *gorm.DB
	cipher *secret.Cipher
}

// NewStore creates a credential store.
func NewStore(db *gorm.DB, cipher *secret.Cipher) *Store {
	return &Store{db: db, cipher: cipher}
}

// Get returns the decrypted credentials of an enabled provider.
func (s *Store) Get(ctx context.Context, tenantID string, provider pos.Provider) (pos.Credentials, error) {
	var row models.TenantIntegration
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pos.Credentials{}, pos.ErrNotConnected
	}
	if err != nil {
		return pos.Credentials{}, fmt.Errorf("failed to load integration: %w", err)
	}

	switch provider {
	case pos.ProviderSquare:
		if !row.SquareEnabled {
			return pos.Credentials{}, pos.ErrNotConnected
		}
		return s.decrypt(provider, row.SquareMerchantID, row.SquareMerchantName, "",
			row.SquareAccessToken, row.SquareRefreshToken, "", row.SquareWebhookSecret, row.SquareTokenExpiresAt)
	case pos.ProviderToast:
		if !row.ToastEnabled {
			return pos.Credentials{}, pos.ErrNotConnected
		}
		return s.decrypt(provider, row.ToastRestaurantGUID, row.ToastRestaurantName, row.ToastClientID,
			row.ToastAccessToken, "", row.ToastClientSecret, row.ToastWebhookSecret, row.ToastTokenExpiresAt)
	default:
		return pos.Credentials{}, fmt.Errorf("%w: %s", pos.ErrUnsupportedProvider, provider)
	}
}

func (s *Store) decrypt(provider pos.Provider, accountID, accountName, clientID, access, refresh, clientSecret, webhookSecret string, expiry *time.Time) (pos.Credentials, error) {
	plain := make([]string, 4)
	for i, sealed := range []string{access, refresh, clientSecret, webhookSecret} {
		v, err := s.cipher.Decrypt(sealed)
		if err != nil {
			return pos.Credentials{}, fmt.Errorf("failed to decrypt %s credentials: %w", provider, err)
		}
		plain[i] = v
	}

	creds := pos.Credentials{
		Provider:      provider,
		AccountID:     accountID,
		AccountName:   accountName,
		ClientID:      clientID,
		ClientSecret:  plain[2],
		WebhookSecret: plain[3],
	}
	if plain[0] != "" || plain[1] != "" {
		creds.Token = &oauth2.Token{AccessToken: plain[0], RefreshToken: plain[1], TokenType: "Bearer"}
		if expiry != nil {
			creds.Token.Expiry = *expiry
		}
	}
	return creds, nil
}

// Save encrypts and stores creds and marks the provider enabled.
// The tenant row is created on first save.
func (s *Store) Save(ctx context.Context, tenantID string, creds pos.Credentials) error {
	var access, refresh string
	var expiry *time.Time
	if creds.Token != nil {
		access, refresh = creds.Token.AccessToken, creds.Token.RefreshToken
		if !creds.Token.Expiry.IsZero() {
			e := creds.Token.Expiry.UTC()
			expiry = &e
		}
	}

	sealed := make([]string, 4)
	for i, v := range []string{access, refresh, creds.ClientSecret, creds.WebhookSecret} {
		enc, err := s.cipher.Encrypt(v)
		if err != nil {
			return fmt.Errorf("failed to encrypt credentials: %w", err)
		}
		sealed[i] = enc
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := loadOrInit(tx, tenantID)
		if err != nil {
			return err
		}

		switch creds.Provider {
		case pos.ProviderSquare:
			row.SquareEnabled = true
			row.SquareMerchantID = creds.AccountID
			row.SquareMerchantName = creds.AccountName
			row.SquareAccessToken = sealed[0]
			row.SquareRefreshToken = sealed[1]
			row.SquareTokenExpiresAt = expiry
			row.SquareWebhookSecret = sealed[3]
		case pos.ProviderToast:
			row.ToastEnabled = true
			row.ToastRestaurantGUID = creds.AccountID
			row.ToastRestaurantName = creds.AccountName
			row.ToastClientID = creds.ClientID
			row.ToastClientSecret = sealed[2]
			row.ToastAccessToken = sealed[0]
			row.ToastTokenExpiresAt = expiry
			row.ToastWebhookSecret = sealed[3]
		default:
			return fmt.Errorf("%w: %s", pos.ErrUnsupportedProvider, creds.Provider)
		}

		return tx.Save(row).Error
	})
}

// Clear removes a provider's credentials and disables it. Missing rows are a no-op.
func (s *Store) Clear(ctx context.Context, tenantID string, provider pos.Provider) error {
	var updates map[string]any
	switch provider {
	case pos.ProviderSquare:
		updates = map[string]any{
			"square_enabled":          false,
			"square_merchant_id":      "",
			"square_merchant_name":    "",
			"square_access_token":     "",
			"square_refresh_token":    "",
			"square_token_expires_at": nil,
			"square_webhook_secret":   "",
		}
	case pos.ProviderToast:
		updates = map[string]any{
			"toast_enabled":          false,
			"toast_restaurant_guid":  "",
			"toast_restaurant_name":  "",
			"toast_client_id":        "",
			"toast_client_secret":    "",
			"toast_access_token":     "",
			"toast_token_expires_at": nil,
			"toast_webhook_secret":   "",
		}
	default:
		return fmt.Errorf("%w: %s", pos.ErrUnsupportedProvider, provider)
	}

	err := s.db.WithContext(ctx).Model(&models.TenantIntegration{}).
		Where("tenant_id = ?", tenantID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to clear %s credentials: %w", provider, err)
	}
	return nil
}

func loadOrInit(tx *gorm.DB, tenantID string) (*models.TenantIntegration, error) {
	var row models.TenantIntegration
	err := tx.Where("tenant_id = ?", tenantID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TenantIntegration{TenantID: tenantID, SyncStatus: models.SyncStatusIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}
	return &row, nil
}
