package models

import (
	"time"

	"gorm.io/datatypes"
)

// Sync run outcome values.
const (
	RunStatusSuccess = "SUCCESS"
	RunStatusPartial = "PARTIAL"
	RunStatusFailed  = "FAILED"
)

// SyncRun is the immutable record of one sync attempt.
// Modifier counts include modifier options.
type SyncRun struct {
	ID       string `gorm:"column:id;primaryKey;size:36"`
	TenantID string `gorm:"column:tenant_id;size:64;index:idx_sync_runs_tenant_started,priority:1;not null"`
	Provider string `gorm:"column:provider;size:16;not null"`
	Trigger  string `gorm:"column:trigger_source;size:16;not null"`
	Status   string `gorm:"column:status;size:16;not null"`
	Success  bool   `gorm:"column:success;not null"`

	CategoriesCreated   int `gorm:"column:categories_created"`
	CategoriesUpdated   int `gorm:"column:categories_updated"`
	CategoriesUnchanged int `gorm:"column:categories_unchanged"`
	CategoriesRemoved   int `gorm:"column:categories_removed"`
	ItemsCreated        int `gorm:"column:items_created"`
	ItemsUpdated        int `gorm:"column:items_updated"`
	ItemsUnchanged      int `gorm:"column:items_unchanged"`
	ItemsRemoved        int `gorm:"column:items_removed"`
	ModifiersCreated    int `gorm:"column:modifiers_created"`
	ModifiersUpdated    int `gorm:"column:modifiers_updated"`
	ModifiersUnchanged  int `gorm:"column:modifiers_unchanged"`
	ModifiersRemoved    int `gorm:"column:modifiers_removed"`

	// Errors is a JSON array of messages (record warnings, page errors, fatal error).
	Errors datatypes.JSON `gorm:"column:errors"`

	StartedAt  time.Time `gorm:"column:started_at;index:idx_sync_runs_tenant_started,priority:2"`
	FinishedAt time.Time `gorm:"column:finished_at"`
}

// TableName overrides the table name.
func (SyncRun) TableName() string {
	return "sync_runs"
}
