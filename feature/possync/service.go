package possync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/core/lock"
	"catalog-sync/core/worker"
	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// tokenExpiringWithin flags tokens that need attention in Status.
const tokenExpiringWithin = 7 * 24 * time.Hour

// Dispatcher accepts background jobs.
type Dispatcher interface {
	Submit(job worker.Job) error
}

// Authorizer builds the OAuth consent URL of a provider.
type Authorizer interface {
	AuthorizeURL(state, redirectURL string) string
}

// ConnectRequest is the body of a connect call.
type ConnectRequest struct {
	AuthorizationCode string     `json:"authorization_code" validate:"required_without_all=AccessToken ClientID"`
	RedirectURL       string     `json:"redirect_url" validate:"omitempty,url"`
	AccessToken       string     `json:"access_token" validate:"omitempty,min=8"`
	RefreshToken      string     `json:"refresh_token"`
	ExpiresAt         *time.Time `json:"expires_at"`
	ClientID          string     `json:"client_id" validate:"required_with=ClientSecret"`
	ClientSecret      string     `json:"client_secret" validate:"required_with=ClientID"`
	RestaurantGUID    string     `json:"restaurant_guid" validate:"omitempty,max=64"`
	WebhookSecret     string     `json:"webhook_secret"`
}

func (r ConnectRequest) raw() pos.RawCredentials {
	return pos.RawCredentials{
		AuthorizationCode: r.AuthorizationCode,
		RedirectURL:       r.RedirectURL,
		AccessToken:       r.AccessToken,
		RefreshToken:      r.RefreshToken,
		ExpiresAt:         r.ExpiresAt,
		ClientID:          r.ClientID,
		ClientSecret:      r.ClientSecret,
		RestaurantGUID:    r.RestaurantGUID,
		WebhookSecret:     r.WebhookSecret,
	}
}

// ValidationError wraps request validation failures.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Status is the tenant integration summary.
type Status struct {
	TenantID           string            `json:"tenantId"`
	Provider           string            `json:"provider"`
	Enabled            bool              `json:"enabled"`
	ProviderAccountIDs map[string]string `json:"providerAccountIds"`
	AccountName        string            `json:"accountName,omitempty"`
	LastSyncAt         *time.Time        `json:"lastSyncAt"`
	SyncStatus         string            `json:"syncStatus"`
	SyncError          string            `json:"syncError,omitempty"`
	TokenExpiresAt     *time.Time        `json:"tokenExpiresAt,omitempty"`
	TokenExpiring      bool              `json:"tokenExpiring"`
}

// Service is the integration API: connect, disconnect, status, sync and webhooks.
type Service struct {
	orchestrator   *Orchestrator
	store          Store
	creds          pos.CredentialStore
	registry       *pos.Registry
	locker         lock.Locker
	dispatcher     Dispatcher
	authorizer     Authorizer
	redirectURL    string
	webhookSecrets map[pos.Provider]string
	validate       *validator.Validate
	logger         *zap.Logger
	now            func() time.Time
}

// ServiceOptions carries the optional collaborators of the service.
type ServiceOptions struct {
	// Authorizer builds the Square consent URL.
	Authorizer Authorizer
	// RedirectURL is where Square sends the tenant back after consent.
	RedirectURL string
	// WebhookSecrets are the provider-level signing secrets.
	WebhookSecrets map[pos.Provider]string
}

// NewService creates the integration service.
func NewService(orchestrator *Orchestrator, creds pos.CredentialStore, dispatcher Dispatcher, opts ServiceOptions, logger *zap.Logger) *Service {
	secrets := opts.WebhookSecrets
	if secrets == nil {
		secrets = map[pos.Provider]string{}
	}
	return &Service{
		orchestrator:   orchestrator,
		store:          orchestrator.store,
		creds:          creds,
		registry:       orchestrator.registry,
		locker:         orchestrator.locker,
		dispatcher:     dispatcher,
		authorizer:     opts.Authorizer,
		redirectURL:    opts.RedirectURL,
		webhookSecrets: secrets,
		validate:       validator.New(),
		logger:         logger,
		now:            time.Now,
	}
}

// withTenantLock runs fn holding the tenant's sync lock.
func (s *Service) withTenantLock(ctx context.Context, tenantID string, fn func() error) error {
	lease, err := s.locker.TryAcquire(ctx, LockKey(tenantID))
	if errors.Is(err, lock.ErrNotObtained) {
		return pos.ErrSyncInProgress
	}
	if err != nil {
		return fmt.Errorf("failed to acquire tenant lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release tenant lock", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}()
	return fn()
}

// Connect validates credentials with the provider and stores them. It fails
// with pos.ErrConflictingIntegration while the other provider is enabled.
func (s *Service) Connect(ctx context.Context, tenantID string, provider pos.Provider, req ConnectRequest) (pos.AccountInfo, error) {
	if err := s.validate.Struct(req); err != nil {
		return pos.AccountInfo{}, &ValidationError{Err: err}
	}
	if provider == pos.ProviderToast && req.RestaurantGUID == "" {
		return pos.AccountInfo{}, &ValidationError{Err: errors.New("restaurant_guid is required for Toast")}
	}

	adapter, err := s.registry.Provider(provider)
	if err != nil {
		return pos.AccountInfo{}, err
	}

	var info pos.AccountInfo
	err = s.withTenantLock(ctx, tenantID, func() error {
		integ, err := s.store.GetIntegration(ctx, tenantID)
		if err != nil && !errors.Is(err, pos.ErrNotConnected) {
			return err
		}
		if integ != nil {
			active := pos.Provider(integ.ActiveProvider())
			if integ.EnabledCount() > 1 || (active != pos.ProviderNone && active != provider) {
				return pos.ErrConflictingIntegration
			}
		}

		var creds pos.Credentials
		info, creds, err = adapter.ValidateCredentials(ctx, req.raw())
		if err != nil {
			return err
		}
		// Account details come from the validated account when the adapter
		// leaves them off the credentials.
		creds.Provider = provider
		if creds.AccountID == "" {
			creds.AccountID = info.AccountID
		}
		if creds.AccountName == "" {
			creds.AccountName = info.AccountName
		}
		if err := s.creds.Save(ctx, tenantID, creds); err != nil {
			return err
		}
		return s.store.ResetSyncState(ctx, tenantID)
	})
	if err != nil {
		return pos.AccountInfo{}, err
	}

	s.logger.Info("POS integration connected",
		zap.String("tenant_id", tenantID),
		zap.String("provider", string(provider)),
		zap.String("account_id", info.AccountID),
	)
	return info, nil
}

// Disconnect clears a provider's credentials and, when it was the active
// provider, resets sync metadata.
// Synced menu rows keep their provider ids.
func (s *Service) Disconnect(ctx context.Context, tenantID string, provider pos.Provider) error {
	if _, err := s.registry.Provider(provider); err != nil {
		return err
	}

	err := s.withTenantLock(ctx, tenantID, func() error {
		integ, err := s.store.GetIntegration(ctx, tenantID)
		if err != nil {
			return err
		}
		if err := s.creds.Clear(ctx, tenantID, provider); err != nil {
			return err
		}
		// Sync metadata belongs to the active provider; leave it alone when
		// another provider is the one in use.
		if active := pos.Provider(integ.ActiveProvider()); active != pos.ProviderNone && active != provider {
			return nil
		}
		return s.store.ResetSyncState(ctx, tenantID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("POS integration disconnected",
		zap.String("tenant_id", tenantID),
		zap.String("provider", string(provider)),
	)
	return nil
}

// Status reports the tenant's integration state.
func (s *Service) Status(ctx context.Context, tenantID string) (*Status, error) {
	integ, err := s.store.GetIntegration(ctx, tenantID)
	if errors.Is(err, pos.ErrNotConnected) {
		return &Status{
			TenantID:           tenantID,
			Provider:           string(pos.ProviderNone),
			ProviderAccountIDs: map[string]string{},
			SyncStatus:         models.SyncStatusIdle,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	st := &Status{
		TenantID:           tenantID,
		Provider:           integ.ActiveProvider(),
		Enabled:            integ.EnabledCount() > 0,
		ProviderAccountIDs: map[string]string{},
		LastSyncAt:         integ.LastSyncAt,
		SyncStatus:         integ.SyncStatus,
		SyncError:          integ.LastSyncError,
	}
	if integ.SquareMerchantID != "" {
		st.ProviderAccountIDs["square"] = integ.SquareMerchantID
	}
	if integ.ToastRestaurantGUID != "" {
		st.ProviderAccountIDs["toast"] = integ.ToastRestaurantGUID
	}

	canRenew := false
	switch pos.Provider(st.Provider) {
	case pos.ProviderSquare:
		st.AccountName = integ.SquareMerchantName
		st.TokenExpiresAt = integ.SquareTokenExpiresAt
	case pos.ProviderToast:
		st.AccountName = integ.ToastRestaurantName
		st.TokenExpiresAt = integ.ToastTokenExpiresAt
		canRenew = integ.ToastClientID != "" && integ.ToastClientSecret != ""
	}
	if st.TokenExpiresAt != nil && !canRenew {
		st.TokenExpiring = st.TokenExpiresAt.Sub(s.now()) < tokenExpiringWithin
	}
	return st, nil
}

// SyncNow runs a manual sync and waits for it.
func (s *Service) SyncNow(ctx context.Context, tenantID string) (*SyncResult, error) {
	return s.orchestrator.Sync(ctx, tenantID, pos.TriggerManual)
}

// History returns the tenant's latest sync runs.
func (s *Service) History(ctx context.Context, tenantID string, limit int) ([]models.SyncRun, error) {
	return s.store.ListRuns(ctx, tenantID, limit)
}

// AuthorizeURL returns the Square consent URL for state.
func (s *Service) AuthorizeURL(state string) (string, error) {
	if s.authorizer == nil {
		return "", fmt.Errorf("%w: square oauth not configured", pos.ErrUnsupportedProvider)
	}
	if state == "" {
		return "", &ValidationError{Err: errors.New("state is required")}
	}
	return s.authorizer.AuthorizeURL(state, s.redirectURL), nil
}
