package credentials

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"catalog-sync/core/secret"
	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	db := setupTestDB(t)
	key, err := secret.GenerateKey()
	require.NoError(t, err)
	cipher, err := secret.NewCipher(secret.Config{EncryptionKey: key})
	require.NoError(t, err)
	return NewStore(db, cipher), db
}

func TestStore_GetNotConnected(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Get(context.Background(), "tenant-1", pos.ProviderSquare)
	assert.ErrorIs(t, err, pos.ErrNotConnected)
}

func TestStore_SaveAndGetSquare(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	expiry := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)

	err := store.Save(ctx, "tenant-1", pos.Credentials{
		Provider:      pos.ProviderSquare,
		AccountID:     "MERCHANT-1",
		AccountName:   "Blue Bottle",
		Token:         &oauth2.Token{AccessToken: "EAAA-access", RefreshToken: "EQAA-refresh", Expiry: expiry},
		WebhookSecret: "sig-key",
	})
	require.NoError(t, err)

	creds, err := store.Get(ctx, "tenant-1", pos.ProviderSquare)
	require.NoError(t, err)
	assert.Equal(t, "MERCHANT-1", creds.AccountID)
	assert.Equal(t, "EAAA-access", creds.Token.AccessToken)
	assert.Equal(t, "EQAA-refresh", creds.Token.RefreshToken)
	assert.True(t, expiry.Equal(creds.Token.Expiry))
	assert.Equal(t, "sig-key", creds.WebhookSecret)

	// Secrets are not stored in clear text.
	var row models.TenantIntegration
	require.NoError(t, db.Where("tenant_id = ?", "tenant-1").First(&row).Error)
	assert.True(t, row.SquareEnabled)
	assert.Equal(t, models.SyncStatusIdle, row.SyncStatus)
	assert.NotContains(t, row.SquareAccessToken, "EAAA-access")
	assert.NotContains(t, row.SquareRefreshToken, "EQAA-refresh")

	// Toast stays disconnected.
	_, err = store.Get(ctx, "tenant-1", pos.ProviderToast)
	assert.ErrorIs(t, err, pos.ErrNotConnected)
}

func TestStore_SaveAndGetToastManualToken(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tenant-2", pos.Credentials{
		Provider:  pos.ProviderToast,
		AccountID: "guid-1",
		Token:     &oauth2.Token{AccessToken: "manual"},
	}))

	creds, err := store.Get(ctx, "tenant-2", pos.ProviderToast)
	require.NoError(t, err)
	assert.Equal(t, "manual", creds.Token.AccessToken)
	assert.True(t, creds.Token.Expiry.IsZero())
	assert.Empty(t, creds.ClientSecret)
	assert.False(t, creds.CanRenew())
}

func TestStore_SaveUpdatesExistingRow(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	for _, token := range []string{"first", "second"} {
		require.NoError(t, store.Save(ctx, "tenant-1", pos.Credentials{
			Provider:     pos.ProviderToast,
			AccountID:    "guid-1",
			ClientID:     "client",
			ClientSecret: "secret",
			Token:        &oauth2.Token{AccessToken: token},
		}))
	}

	var count int64
	require.NoError(t, db.Model(&models.TenantIntegration{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	creds, err := store.Get(ctx, "tenant-1", pos.ProviderToast)
	require.NoError(t, err)
	assert.Equal(t, "second", creds.Token.AccessToken)
	assert.Equal(t, "secret", creds.ClientSecret)
}

func TestStore_Clear(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tenant-1", pos.Credentials{
		Provider:  pos.ProviderSquare,
		AccountID: "MERCHANT-1",
		Token:     &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)},
	}))
	require.NoError(t, store.Clear(ctx, "tenant-1", pos.ProviderSquare))

	_, err := store.Get(ctx, "tenant-1", pos.ProviderSquare)
	assert.ErrorIs(t, err, pos.ErrNotConnected)

	var row models.TenantIntegration
	require.NoError(t, db.Where("tenant_id = ?", "tenant-1").First(&row).Error)
	assert.False(t, row.SquareEnabled)
	assert.Empty(t, row.SquareMerchantID)
	assert.Empty(t, row.SquareAccessToken)
	assert.Nil(t, row.SquareTokenExpiresAt)

	// Clearing a tenant without a row is a no-op.
	assert.NoError(t, store.Clear(ctx, "unknown", pos.ProviderToast))
}

func TestStore_UnsupportedProvider(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	err := store.Save(ctx, "tenant-1", pos.Credentials{Provider: "CLOVER"})
	assert.ErrorIs(t, err, pos.ErrUnsupportedProvider)

	err = store.Clear(ctx, "tenant-1", "CLOVER")
	assert.ErrorIs(t, err, pos.ErrUnsupportedProvider)
}
