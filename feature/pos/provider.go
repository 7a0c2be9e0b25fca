package pos

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"catalog-sync/core/reconcile"

	"golang.org/x/oauth2"
)

// Provider identifies a point-of-sale system.
type Provider string

const (
	ProviderNone   Provider = "NONE"
	ProviderSquare Provider = "SQUARE"
	ProviderToast  Provider = "TOAST"
)

// ParseProvider accepts the tag in any case ("square", "SQUARE").
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToUpper(strings.TrimSpace(s))); p {
	case ProviderSquare, ProviderToast:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Slug is the lower-case form used in routes and object keys.
func (p Provider) Slug() string {
	return strings.ToLower(string(p))
}

// Trigger is what started a sync.
type Trigger string

const (
	TriggerManual   Trigger = "MANUAL"
	TriggerWebhook  Trigger = "WEBHOOK"
	TriggerSchedule Trigger = "SCHEDULE"
)

// Valid reports whether t is a known trigger source.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerManual, TriggerWebhook, TriggerSchedule:
		return true
	}
	return false
}

// RawCredentials is what a tenant submits when connecting a provider.
// Square uses AuthorizationCode or AccessToken (+RefreshToken); Toast uses
// ClientID/ClientSecret or a manually pasted AccessToken, plus RestaurantGUID.
type RawCredentials struct {
	AuthorizationCode string     `json:"authorization_code,omitempty"`
	RedirectURL       string     `json:"redirect_url,omitempty"`
	AccessToken       string     `json:"access_token,omitempty"`
	RefreshToken      string     `json:"refresh_token,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	ClientID          string     `json:"client_id,omitempty"`
	ClientSecret      string     `json:"client_secret,omitempty"`
	RestaurantGUID    string     `json:"restaurant_guid,omitempty"`
	WebhookSecret     string     `json:"webhook_secret,omitempty"`
}

// Credentials is the decrypted, validated credential set of one tenant/provider.
type Credentials struct {
	Provider Provider
	// AccountID is the Square merchant id or the Toast restaurant guid.
	AccountID   string
	AccountName string
	Token       *oauth2.Token

	// ClientID and ClientSecret let Toast log in again without the tenant.
	ClientID     string
	ClientSecret string

	// WebhookSecret overrides the provider-level signing secret when set.
	WebhookSecret string
}

// CanRenew reports whether an expired token can be replaced without the tenant.
func (c Credentials) CanRenew() bool {
	switch c.Provider {
	case ProviderSquare:
		return c.Token != nil && c.Token.RefreshToken != ""
	case ProviderToast:
		return c.ClientID != "" && c.ClientSecret != ""
	}
	return false
}

// AccountInfo is the outcome of ValidateCredentials.
type AccountInfo struct {
	Valid       bool   `json:"valid"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// FetchResult is a fetched catalog plus the pages that could not be read.
type FetchResult struct {
	Catalog    reconcile.Catalog
	PageErrors []PageError
}

// CatalogProvider is the contract every POS adapter implements.
type CatalogProvider interface {
	// Provider returns the tag of the POS this adapter talks to.
	Provider() Provider
	// ValidateCredentials checks raw credentials against the provider before anything is stored.
	ValidateCredentials(ctx context.Context, raw RawCredentials) (AccountInfo, Credentials, error)
	// Authenticate returns a live token for the tenant, refreshing and persisting it when needed.
	Authenticate(ctx context.Context, tenantID string) (*oauth2.Token, error)
	// FetchCatalog pulls and normalizes the full remote catalog.
	FetchCatalog(ctx context.Context, tenantID string, token *oauth2.Token) (FetchResult, error)
}

// CredentialStore persists encrypted credentials per tenant and provider.
type CredentialStore interface {
	Get(ctx context.Context, tenantID string, provider Provider) (Credentials, error)
	Save(ctx context.Context, tenantID string, creds Credentials) error
	Clear(ctx context.Context, tenantID string, provider Provider) error
}

// Registry maps provider tags to adapters.
type Registry struct {
	mu        sync.RWMutex
	providers map[Provider]CatalogProvider
	verifiers map[Provider]WebhookVerifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[Provider]CatalogProvider),
		verifiers: make(map[Provider]WebhookVerifier),
	}
}

// Register adds an adapter and, optionally, its webhook verifier.
func (r *Registry) Register(p CatalogProvider, v WebhookVerifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Provider()] = p
	if v != nil {
		r.verifiers[p.Provider()] = v
	}
}

// Provider returns the adapter for p.
func (r *Registry) Provider(p Provider) (CatalogProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cp, ok := r.providers[p]; ok {
		return cp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
}

// Verifier returns the webhook verifier for p.
func (r *Registry) Verifier(p Provider) (WebhookVerifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.verifiers[p]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
}
