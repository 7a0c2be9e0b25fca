package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/models"

	"gorm.io/gorm"
)

// Store is the gorm-backed menu and integration store the sync engine writes to.
type Store struct {
	db *gorm.DB
}

// New creates a store on db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for callers that share it (credential store).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// GetIntegration returns the tenant's integration row or pos.ErrNotConnected.
func (s *Store) GetIntegration(ctx context.Context, tenantID string) (*models.TenantIntegration, error) {
	var row models.TenantIntegration
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pos.ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}
	return &row, nil
}

// TenantByAccount finds the tenant whose enabled integration is linked to the
// given merchant id (Square) or restaurant guid (Toast).
func (s *Store) TenantByAccount(ctx context.Context, provider pos.Provider, accountID string) (*models.TenantIntegration, error) {
	q := s.db.WithContext(ctx)
	switch provider {
	case pos.ProviderSquare:
		q = q.Where("square_merchant_id = ? AND square_enabled = ?", accountID, true)
	case pos.ProviderToast:
		q = q.Where("toast_restaurant_guid = ? AND toast_enabled = ?", accountID, true)
	default:
		return nil, fmt.Errorf("%w: %s", pos.ErrUnsupportedProvider, provider)
	}

	var row models.TenantIntegration
	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pos.ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s account: %w", provider, err)
	}
	return &row, nil
}

// ListEnabledTenants returns the ids of tenants with any integration enabled.
func (s *Store) ListEnabledTenants(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.TenantIntegration{}).
		Where("square_enabled = ? OR toast_enabled = ?", true, true).
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled tenants: %w", err)
	}
	return ids, nil
}

// MarkSyncing moves the tenant to SYNCING.
func (s *Store) MarkSyncing(ctx context.Context, tenantID string) error {
	return s.updateIntegration(ctx, tenantID, map[string]any{
		"sync_status": models.SyncStatusSyncing,
	})
}

// FinishSync records the outcome of a sync. An empty syncErr means IDLE.
func (s *Store) FinishSync(ctx context.Context, tenantID, syncErr string, at time.Time) error {
	status := models.SyncStatusIdle
	if syncErr != "" {
		status = models.SyncStatusError
	}
	at = at.UTC()
	return s.updateIntegration(ctx, tenantID, map[string]any{
		"sync_status":     status,
		"last_sync_error": syncErr,
		"last_sync_at":    &at,
	})
}

// ResetSyncState clears sync metadata after connect or disconnect.
func (s *Store) ResetSyncState(ctx context.Context, tenantID string) error {
	return s.updateIntegration(ctx, tenantID, map[string]any{
		"sync_status":     models.SyncStatusIdle,
		"last_sync_error": "",
		"last_sync_at":    nil,
	})
}

func (s *Store) updateIntegration(ctx context.Context, tenantID string, updates map[string]any) error {
	err := s.db.WithContext(ctx).Model(&models.TenantIntegration{}).
		Where("tenant_id = ?", tenantID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update integration state: %w", err)
	}
	return nil
}

// SaveRun inserts a finished sync run.
func (s *Store) SaveRun(ctx context.Context, run *models.SyncRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save sync run: %w", err)
	}
	return nil
}

// ListRuns returns the latest runs of a tenant, newest first.
func (s *Store) ListRuns(ctx context.Context, tenantID string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.SyncRun
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}
