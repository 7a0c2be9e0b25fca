package possync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"catalog-sync/core/lock"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/secret"
	"catalog-sync/core/worker"
	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/credentials"
	"catalog-sync/feature/pos/mocks"
	"catalog-sync/feature/pos/models"
	"catalog-sync/feature/pos/store"
	"catalog-sync/feature/pos/toast"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const tenantID = "tenant-1"

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

// recordingDispatcher keeps submitted jobs instead of running them.
type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []worker.Job
	full bool
}

func (d *recordingDispatcher) Submit(job worker.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.full {
		return worker.ErrQueueFull
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, j := range d.jobs {
		out = append(out, j.Name)
	}
	return out
}

type env struct {
	db         *gorm.DB
	store      *store.Store
	creds      *credentials.Store
	square     *mocks.CatalogProvider
	toast      *mocks.CatalogProvider
	locker     *lock.MemoryLocker
	dispatcher *recordingDispatcher
	orch       *Orchestrator
	service    *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := setupTestDB(t)

	key, err := secret.GenerateKey()
	require.NoError(t, err)
	cipher, err := secret.NewCipher(secret.Config{EncryptionKey: key})
	require.NoError(t, err)

	e := &env{
		db:         db,
		store:      store.New(db),
		creds:      credentials.NewStore(db, cipher),
		square:     &mocks.CatalogProvider{Tag: pos.ProviderSquare},
		toast:      &mocks.CatalogProvider{Tag: pos.ProviderToast},
		locker:     lock.NewMemoryLocker(),
		dispatcher: &recordingDispatcher{},
	}

	registry := pos.NewRegistry()
	registry.Register(e.square, nil)
	registry.Register(e.toast, toast.NewWebhookVerifier())

	e.orch = NewOrchestrator(e.store, registry, e.locker, nil, zap.NewNop())
	e.service = NewService(e.orch, e.creds, e.dispatcher, ServiceOptions{
		WebhookSecrets: map[pos.Provider]string{pos.ProviderToast: "toast-secret"},
	}, zap.NewNop())
	return e
}

func (e *env) connectSquare(t *testing.T) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.TenantIntegration{
		TenantID:         tenantID,
		SquareEnabled:    true,
		SquareMerchantID: "MERCHANT-1",
		SyncStatus:       models.SyncStatusIdle,
	}).Error)
}

func (e *env) integration(t *testing.T) *models.TenantIntegration {
	t.Helper()
	row, err := e.store.GetIntegration(context.Background(), tenantID)
	require.NoError(t, err)
	return row
}

func (e *env) runs(t *testing.T) []models.SyncRun {
	t.Helper()
	runs, err := e.store.ListRuns(context.Background(), tenantID, 100)
	require.NoError(t, err)
	return runs
}

func drinks(price int64) reconcile.Catalog {
	return reconcile.Catalog{
		Categories: []reconcile.Category{{
			ProviderCategoryID: "C1",
			Name:               "Drinks",
			Items: []reconcile.Item{{
				ProviderItemID: "I1",
				Name:           "Latte",
				Price:          price,
				Available:      true,
			}},
		}},
	}
}
