package toast

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"catalog-sync/feature/pos"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	restaurantHeader = "Toast-Restaurant-External-ID"
	// Tokens this close to expiry are renewed before use.
	expirySkew = 5 * time.Minute
)

// Adapter implements pos.CatalogProvider for Toast.
type Adapter struct {
	cfg    Config
	client *resty.Client
	store  pos.CredentialStore
	logger *zap.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewAdapter creates a Toast adapter. timeout bounds every HTTP request.
func NewAdapter(cfg Config, store pos.CredentialStore, timeout time.Duration, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.UserAccessType == "" {
		cfg.UserAccessType = "TOAST_MACHINE_CLIENT"
	}
	if cfg.StockPageSize <= 0 {
		cfg.StockPageSize = 100
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &Adapter{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger.With(zap.String("provider", string(pos.ProviderToast))),
		now:    time.Now,
	}
}

// Provider returns pos.ProviderToast.
func (a *Adapter) Provider() pos.Provider {
	return pos.ProviderToast
}

type loginResponse struct {
	Token struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int64  `json:"expiresIn"`
		TokenType   string `json:"tokenType"`
	} `json:"token"`
	Status string `json:"status"`
}

func (a *Adapter) login(ctx context.Context, clientID, clientSecret string) (*oauth2.Token, error) {
	var out loginResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"clientId":       clientID,
			"clientSecret":   clientSecret,
			"userAccessType": a.cfg.UserAccessType,
		}).
		SetResult(&out).
		Post("/authentication/v1/authentication/login")
	if err != nil {
		return nil, err
	}
	if resp.IsError() || out.Token.AccessToken == "" {
		return nil, fmt.Errorf("login returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	tok := &oauth2.Token{AccessToken: out.Token.AccessToken, TokenType: "Bearer"}
	if out.Token.ExpiresIn > 0 {
		tok.Expiry = a.now().Add(time.Duration(out.Token.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// ValidateCredentials logs in with client credentials (or accepts a manual
// token) and reads the restaurant to confirm access.
func (a *Adapter) ValidateCredentials(ctx context.Context, raw pos.RawCredentials) (pos.AccountInfo, pos.Credentials, error) {
	if raw.RestaurantGUID == "" {
		return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: restaurant guid required", pos.ErrInvalidCredentials)
	}

	creds := pos.Credentials{
		Provider:      pos.ProviderToast,
		AccountID:     raw.RestaurantGUID,
		WebhookSecret: raw.WebhookSecret,
	}

	switch {
	case raw.ClientID != "" && raw.ClientSecret != "":
		tok, err := a.login(ctx, raw.ClientID, raw.ClientSecret)
		if err != nil {
			return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: %v", pos.ErrInvalidCredentials, err)
		}
		creds.Token = tok
		creds.ClientID = raw.ClientID
		creds.ClientSecret = raw.ClientSecret
	case raw.AccessToken != "":
		creds.Token = &oauth2.Token{AccessToken: raw.AccessToken, TokenType: "Bearer"}
		if raw.ExpiresAt != nil {
			creds.Token.Expiry = *raw.ExpiresAt
		}
	default:
		return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: client credentials or access token required", pos.ErrInvalidCredentials)
	}

	var restaurant struct {
		GUID    string `json:"guid"`
		General struct {
			Name string `json:"name"`
		} `json:"general"`
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(creds.Token.AccessToken).
		SetHeader(restaurantHeader, raw.RestaurantGUID).
		SetResult(&restaurant).
		Get("/restaurants/v1/restaurants/" + raw.RestaurantGUID)
	if err != nil {
		return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: %v", pos.ErrInvalidCredentials, err)
	}
	if resp.IsError() {
		return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: restaurant lookup returned %d", pos.ErrInvalidCredentials, resp.StatusCode())
	}

	creds.AccountName = restaurant.General.Name
	return pos.AccountInfo{Valid: true, AccountID: raw.RestaurantGUID, AccountName: creds.AccountName}, creds, nil
}

// Authenticate returns the cached token, logging in again with the stored
// client credentials when it is expired or about to expire. A manual token
// that expired cannot be renewed and yields pos.ErrAuthExpired.
func (a *Adapter) Authenticate(ctx context.Context, tenantID string) (*oauth2.Token, error) {
	v, err, _ := a.group.Do(tenantID, func() (any, error) {
		return a.authenticate(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

func (a *Adapter) authenticate(ctx context.Context, tenantID string) (*oauth2.Token, error) {
	creds, err := a.store.Get(ctx, tenantID, pos.ProviderToast)
	if err != nil {
		return nil, err
	}

	if creds.Token != nil && creds.Token.AccessToken != "" {
		if creds.Token.Expiry.IsZero() || creds.Token.Expiry.Sub(a.now()) > expirySkew {
			return creds.Token, nil
		}
	}

	if !creds.CanRenew() {
		return nil, fmt.Errorf("%w: manual token expired, reconnect required", pos.ErrAuthExpired)
	}

	tok, err := a.login(ctx, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: login failed: %v", pos.ErrAuthExpired, err)
	}

	creds.Token = tok
	if err := a.store.Save(ctx, tenantID, creds); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	a.logger.Info("Renewed access token",
		zap.String("tenant_id", tenantID),
		zap.Time("expires_at", tok.Expiry),
	)
	return tok, nil
}
