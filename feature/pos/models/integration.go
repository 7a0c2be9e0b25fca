package models

import "time"

// Sync status values stored on TenantIntegration.
const (
	SyncStatusIdle    = "IDLE"
	SyncStatusSyncing = "SYNCING"
	SyncStatusError   = "ERROR"
)

// TenantIntegration is the per-tenant POS connection state.
// Token and secret columns hold ciphertext from core/secret.
type TenantIntegration struct {
	ID       uint   `gorm:"column:id;primaryKey"`
	TenantID string `gorm:"column:tenant_id;size:64;uniqueIndex;not null"`

	SquareEnabled        bool       `gorm:"column:square_enabled;not null"`
	SquareMerchantID     string     `gorm:"column:square_merchant_id;size:64;index"`
	SquareMerchantName   string     `gorm:"column:square_merchant_name;size:255"`
	SquareAccessToken    string     `gorm:"column:square_access_token;type:text"`
	SquareRefreshToken   string     `gorm:"column:square_refresh_token;type:text"`
	SquareTokenExpiresAt *time.Time `gorm:"column:square_token_expires_at"`
	SquareWebhookSecret  string     `gorm:"column:square_webhook_secret;type:text"`

	ToastEnabled        bool       `gorm:"column:toast_enabled;not null"`
	ToastRestaurantGUID string     `gorm:"column:toast_restaurant_guid;size:64;index"`
	ToastRestaurantName string     `gorm:"column:toast_restaurant_name;size:255"`
	ToastClientID       string     `gorm:"column:toast_client_id;size:255"`
	ToastClientSecret   string     `gorm:"column:toast_client_secret;type:text"`
	ToastAccessToken    string     `gorm:"column:toast_access_token;type:text"`
	ToastTokenExpiresAt *time.Time `gorm:"column:toast_token_expires_at"`
	ToastWebhookSecret  string     `gorm:"column:toast_webhook_secret;type:text"`

	SyncStatus    string     `gorm:"column:sync_status;size:16;not null"`
	LastSyncError string     `gorm:"column:last_sync_error;type:text"`
	LastSyncAt    *time.Time `gorm:"column:last_sync_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (TenantIntegration) TableName() string {
	return "tenant_integrations"
}

// ActiveProvider returns SQUARE, TOAST or NONE from the enabled flags.
func (t TenantIntegration) ActiveProvider() string {
	switch {
	case t.SquareEnabled && !t.ToastEnabled:
		return "SQUARE"
	case t.ToastEnabled && !t.SquareEnabled:
		return "TOAST"
	default:
		return "NONE"
	}
}

// EnabledCount is the number of providers flagged enabled. Anything above one is
// a corrupted row and blocks syncing.
func (t TenantIntegration) EnabledCount() int {
	n := 0
	if t.SquareEnabled {
		n++
	}
	if t.ToastEnabled {
		n++
	}
	return n
}
