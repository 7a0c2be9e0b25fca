package possync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-sync/core/lock"
	"catalog-sync/core/logger"
	"catalog-sync/core/reconcile"
	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/archive"
	"catalog-sync/feature/pos/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Store is the persistence the orchestrator and service need.
type Store interface {
	GetIntegration(ctx context.Context, tenantID string) (*models.TenantIntegration, error)
	TenantByAccount(ctx context.Context, provider pos.Provider, accountID string) (*models.TenantIntegration, error)
	ListEnabledTenants(ctx context.Context) ([]string, error)
	MarkSyncing(ctx context.Context, tenantID string) error
	FinishSync(ctx context.Context, tenantID, syncErr string, at time.Time) error
	ResetSyncState(ctx context.Context, tenantID string) error
	SaveRun(ctx context.Context, run *models.SyncRun) error
	ListRuns(ctx context.Context, tenantID string, limit int) ([]models.SyncRun, error)
	LoadLocalCatalog(ctx context.Context, tenantID string) ([]reconcile.LocalCategory, error)
	ApplyPlan(ctx context.Context, tenantID string, plan reconcile.MergePlan) error
}

// Archiver stores fetched catalogs. It is optional.
type Archiver interface {
	Save(ctx context.Context, provider pos.Provider, snap archive.Snapshot) (string, error)
}

// SyncResult is the outcome of one sync attempt.
type SyncResult struct {
	RunID            string                `json:"runId,omitempty"`
	Provider         string                `json:"provider,omitempty"`
	Trigger          string                `json:"trigger"`
	Status           string                `json:"status,omitempty"`
	Success          bool                  `json:"success"`
	Skipped          bool                  `json:"skipped"`
	CategoriesSynced int                   `json:"categoriesSynced"`
	ItemsSynced      int                   `json:"itemsSynced"`
	ModifiersSynced  int                   `json:"modifiersSynced"`
	Details          reconcile.PlanSummary `json:"details"`
	Errors           []string              `json:"errors"`
}

// LockKey is the per-tenant lock key shared by sync, connect and disconnect.
func LockKey(tenantID string) string {
	return "pos-sync:" + tenantID
}

// Orchestrator runs authenticate, fetch, reconcile and apply for one tenant at a time.
type Orchestrator struct {
	store    Store
	registry *pos.Registry
	locker   lock.Locker
	archive  Archiver
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator. archiver may be nil.
func NewOrchestrator(store Store, registry *pos.Registry, locker lock.Locker, archiver Archiver, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		registry: registry,
		locker:   locker,
		archive:  archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// Sync runs one sync for the tenant. A trigger arriving while another sync
// holds the tenant lock is skipped and returns pos.ErrSyncInProgress.
func (o *Orchestrator) Sync(ctx context.Context, tenantID string, trigger pos.Trigger) (*SyncResult, error) {
	l := logger.ForTenant(o.logger, tenantID, "").With(zap.String("trigger", string(trigger)))

	if !trigger.Valid() {
		l.Warn("Ignoring sync with unknown trigger")
		return &SyncResult{Trigger: string(trigger), Skipped: true}, nil
	}

	lease, err := o.locker.TryAcquire(ctx, LockKey(tenantID))
	if errors.Is(err, lock.ErrNotObtained) {
		l.Info("Sync already running, trigger coalesced")
		return &SyncResult{Trigger: string(trigger), Skipped: true}, pos.ErrSyncInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire tenant lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			l.Warn("Failed to release tenant lock", zap.Error(err))
		}
	}()

	return o.syncLocked(ctx, tenantID, trigger, l)
}

func (o *Orchestrator) syncLocked(ctx context.Context, tenantID string, trigger pos.Trigger, l *zap.Logger) (*SyncResult, error) {
	integ, err := o.store.GetIntegration(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	switch integ.EnabledCount() {
	case 0:
		return nil, pos.ErrNotConnected
	case 1:
	default:
		l.Error("More than one POS integration enabled, refusing to sync")
		if err := o.store.FinishSync(ctx, tenantID, pos.ErrConflictingIntegration.Error(), o.now()); err != nil {
			l.Warn("Failed to record sync state", zap.Error(err))
		}
		return nil, pos.ErrConflictingIntegration
	}

	provider := pos.Provider(integ.ActiveProvider())
	adapter, err := o.registry.Provider(provider)
	if err != nil {
		return nil, err
	}

	rec := &recorder{
		run: &models.SyncRun{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			Provider:  string(provider),
			Trigger:   string(trigger),
			StartedAt: o.now().UTC(),
		},
		logger: l.With(zap.String("provider", string(provider))),
	}
	rec.logger = rec.logger.With(zap.String("run_id", rec.run.ID))

	if err := o.store.MarkSyncing(ctx, tenantID); err != nil {
		return nil, err
	}

	return o.execute(ctx, adapter, rec)
}

func (o *Orchestrator) execute(ctx context.Context, adapter pos.CatalogProvider, rec *recorder) (res *SyncResult, err error) {
	tenantID := rec.run.TenantID
	defer func() {
		if r := recover(); r != nil {
			res, err = o.fail(ctx, rec, fmt.Errorf("sync panicked: %v", r))
		}
	}()

	rec.logger.Info("Sync started")

	token, err := adapter.Authenticate(ctx, tenantID)
	if err != nil {
		return o.fail(ctx, rec, err)
	}

	fetched, err := adapter.FetchCatalog(ctx, tenantID, token)
	if err != nil {
		return o.fail(ctx, rec, err)
	}
	fetched.Catalog.Provider = rec.run.Provider
	for _, pe := range fetched.PageErrors {
		rec.errors = append(rec.errors, pe.Error())
	}

	if o.archive != nil {
		snap := archive.Snapshot{RunID: rec.run.ID, TenantID: tenantID, FetchedAt: o.now().UTC(), Catalog: fetched.Catalog}
		if _, err := o.archive.Save(ctx, pos.Provider(rec.run.Provider), snap); err != nil {
			rec.logger.Warn("Failed to archive catalog snapshot", zap.Error(err))
			rec.errors = append(rec.errors, "snapshot: "+err.Error())
		}
	}

	local, err := o.store.LoadLocalCatalog(ctx, tenantID)
	if err != nil {
		return o.fail(ctx, rec, err)
	}

	plan := reconcile.Reconcile(local, fetched.Catalog)
	rec.errors = append(rec.errors, plan.Warnings...)

	if err := o.store.ApplyPlan(ctx, tenantID, plan); err != nil {
		return o.fail(ctx, rec, err)
	}

	rec.summary = plan.Summary
	rec.run.Success = true
	rec.run.Status = models.RunStatusSuccess
	if len(fetched.PageErrors) > 0 {
		rec.run.Status = models.RunStatusPartial
	}

	// The plan is committed at this point; a bookkeeping failure is reported
	// through the tenant's ERROR state and the result's errors.
	if err := o.finish(ctx, rec, ""); err != nil {
		rec.logger.Error("Failed to record finished sync", zap.Error(err))
	}

	rec.logger.Info("Sync finished",
		zap.String("status", rec.run.Status),
		zap.Int("actions", len(plan.Actions)),
		zap.Int("categories_synced", plan.Summary.Categories.Synced()),
		zap.Int("items_synced", plan.Summary.Items.Synced()),
		zap.Int("page_errors", len(fetched.PageErrors)),
	)
	return rec.result(), nil
}

// fail records a failed run and moves the tenant to ERROR.
func (o *Orchestrator) fail(ctx context.Context, rec *recorder, cause error) (*SyncResult, error) {
	rec.run.Success = false
	rec.run.Status = models.RunStatusFailed
	rec.summary = reconcile.PlanSummary{}
	rec.errors = append(rec.errors, cause.Error())

	rec.logger.Error("Sync failed", zap.Error(cause))
	if err := o.finish(ctx, rec, cause.Error()); err != nil {
		rec.logger.Error("Failed to record failed sync", zap.Error(err))
	}
	return rec.result(), cause
}

// finish persists the run and always moves the tenant out of SYNCING. A run
// that cannot be saved leaves the tenant in ERROR with the save failure.
func (o *Orchestrator) finish(ctx context.Context, rec *recorder, syncErr string) error {
	// Persist even when the caller's context is gone.
	ctx = context.WithoutCancel(ctx)
	finished := o.now().UTC()
	rec.seal(finished)

	saveErr := o.store.SaveRun(ctx, rec.run)
	if saveErr != nil {
		saveErr = fmt.Errorf("failed to record sync run %s: %w", rec.run.ID, saveErr)
		rec.errors = append(rec.errors, saveErr.Error())
		if syncErr == "" {
			syncErr = saveErr.Error()
		} else {
			syncErr += "; " + saveErr.Error()
		}
	}

	if err := o.store.FinishSync(ctx, rec.run.TenantID, syncErr, finished); err != nil {
		return errors.Join(saveErr, fmt.Errorf("failed to record sync state: %w", err))
	}
	return saveErr
}

// recorder accumulates a run until it is persisted.
type recorder struct {
	run     *models.SyncRun
	summary reconcile.PlanSummary
	errors  []string
	logger  *zap.Logger
}

func (r *recorder) seal(finished time.Time) {
	s := r.summary
	mods := s.ModifierCounts()

	r.run.CategoriesCreated = s.Categories.Created
	r.run.CategoriesUpdated = s.Categories.Updated
	r.run.CategoriesUnchanged = s.Categories.Unchanged
	r.run.CategoriesRemoved = s.Categories.Removed
	r.run.ItemsCreated = s.Items.Created
	r.run.ItemsUpdated = s.Items.Updated
	r.run.ItemsUnchanged = s.Items.Unchanged
	r.run.ItemsRemoved = s.Items.Removed
	r.run.ModifiersCreated = mods.Created
	r.run.ModifiersUpdated = mods.Updated
	r.run.ModifiersUnchanged = mods.Unchanged
	r.run.ModifiersRemoved = mods.Removed

	errs := r.errors
	if errs == nil {
		errs = []string{}
	}
	data, _ := json.Marshal(errs)
	r.run.Errors = datatypes.JSON(data)
	r.run.FinishedAt = finished
}

func (r *recorder) result() *SyncResult {
	errs := r.errors
	if errs == nil {
		errs = []string{}
	}
	return &SyncResult{
		RunID:            r.run.ID,
		Provider:         r.run.Provider,
		Trigger:          r.run.Trigger,
		Status:           r.run.Status,
		Success:          r.run.Success,
		CategoriesSynced: r.summary.Categories.Synced(),
		ItemsSynced:      r.summary.Items.Synced(),
		ModifiersSynced:  r.summary.ModifierCounts().Synced(),
		Details:          r.summary,
		Errors:           errs,
	}
}
