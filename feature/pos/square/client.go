package square

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

// Adapter implements pos.CatalogProvider for Square.
type Adapter struct {
	cfg    Config
	client *resty.Client
	store  pos.CredentialStore
	logger *zap.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewAdapter creates a Square adapter. timeout bounds every HTTP request.
func NewAdapter(cfg Config, store pos.CredentialStore, timeout time.Duration, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-10-17"
	}

	client := resty.New().
		SetBaseURL(cfg.baseURL()).
		SetTimeout(timeout).
		SetHeader("Square-Version", apiVersion).
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
		logger: logger.With(zap.String("provider", string(pos.ProviderSquare))),
		now:    time.Now,
	}
}

// Provider returns pos.ProviderSquare.
func (a *Adapter) Provider() pos.Provider {
	return pos.ProviderSquare
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    string `json:"expires_at"`
	MerchantID   string `json:"merchant_id"`
}

func (t tokenResponse) token() *oauth2.Token {
	tok := &oauth2.Token{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, TokenType: "Bearer"}
	if exp, err := time.Parse(time.RFC3339, t.ExpiresAt); err == nil {
		tok.Expiry = exp
	}
	return tok
}

type errorResponse struct {
	Errors []struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Detail   string `json:"detail"`
	} `json:"errors"`
	Message string `json:"message"`
}

func (e errorResponse) String() string {
	if len(e.Errors) > 0 {
		return e.Errors[0].Code + ": " + e.Errors[0].Detail
	}
	return e.Message
}

// ValidateCredentials exchanges an authorization code or checks a pre-issued
// token, then reads the merchant profile.
func (a *Adapter) ValidateCredentials(ctx context.Context, raw pos.RawCredentials) (pos.AccountInfo, pos.Credentials, error) {
	var token *oauth2.Token
	switch {
	case raw.AuthorizationCode != "":
		body := map[string]string{
			"client_id":     a.cfg.ApplicationID,
			"client_secret": a.cfg.ApplicationSecret,
			"grant_type":    "authorization_code",
			"code":          raw.AuthorizationCode,
		}
		if raw.RedirectURL != "" {
			body["redirect_uri"] = raw.RedirectURL
		}
		tr, err := a.requestToken(ctx, body)
		if err != nil {
			return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: code exchange: %v", pos.ErrInvalidCredentials, err)
		}
		token = tr.token()
	case raw.AccessToken != "":
		token = &oauth2.Token{AccessToken: raw.AccessToken, RefreshToken: raw.RefreshToken, TokenType: "Bearer"}
		if raw.ExpiresAt != nil {
			token.Expiry = *raw.ExpiresAt
		}
	default:
		return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: authorization code or access token required", pos.ErrInvalidCredentials)
	}

	var me struct {
		Merchant struct {
			ID           string `json:"id"`
			BusinessName string `json:"business_name"`
			Status       string `json:"status"`
		} `json:"merchant"`
	}
	var apiErr errorResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetResult(&me).
		SetError(&apiErr).
		Get("/v2/merchants/me")
	if err != nil {
		return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: %v", pos.ErrInvalidCredentials, err)
	}
	if resp.IsError() || me.Merchant.ID == "" {
		return pos.AccountInfo{}, pos.Credentials{}, fmt.Errorf("%w: merchant lookup returned %d %s", pos.ErrInvalidCredentials, resp.StatusCode(), apiErr)
	}

	info := pos.AccountInfo{Valid: true, AccountID: me.Merchant.ID, AccountName: me.Merchant.BusinessName}
	creds := pos.Credentials{
		Provider:      pos.ProviderSquare,
		AccountID:     me.Merchant.ID,
		AccountName:   me.Merchant.BusinessName,
		Token:         token,
		WebhookSecret: raw.WebhookSecret,
	}
	return info, creds, nil
}

// Authenticate returns the stored token, refreshing it first when it expires
// within the refresh window. Concurrent calls for one tenant share a refresh.
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
	creds, err := a.store.Get(ctx, tenantID, pos.ProviderSquare)
	if err != nil {
		return nil, err
	}
	if creds.Token == nil || creds.Token.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token stored", pos.ErrAuthExpired)
	}

	window := time.Duration(a.cfg.RefreshWindowHours) * time.Hour
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}

	expiry := creds.Token.Expiry
	if expiry.IsZero() || expiry.Sub(a.now()) > window {
		return creds.Token, nil
	}

	if creds.Token.RefreshToken == "" {
		if a.now().Before(expiry) {
			return creds.Token, nil
		}
		return nil, fmt.Errorf("%w: token expired at %s and no refresh token is stored", pos.ErrAuthExpired, expiry.Format(time.RFC3339))
	}

	tr, err := a.requestToken(ctx, map[string]string{
		"client_id":     a.cfg.ApplicationID,
		"client_secret": a.cfg.ApplicationSecret,
		"grant_type":    "refresh_token",
		"refresh_token": creds.Token.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: refresh failed: %v", pos.ErrAuthExpired, err)
	}

	refreshed := tr.token()
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = creds.Token.RefreshToken
	}
	creds.Token = refreshed
	if err := a.store.Save(ctx, tenantID, creds); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	a.logger.Info("Refreshed access token",
		zap.String("tenant_id", tenantID),
		zap.Time("expires_at", refreshed.Expiry),
	)
	return refreshed, nil
}

func (a *Adapter) requestToken(ctx context.Context, body map[string]string) (*tokenResponse, error) {
	var tr tokenResponse
	var apiErr errorResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&tr).
		SetError(&apiErr).
		Post("/oauth2/token")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), apiErr)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response without access_token")
	}
	return &tr, nil
}

// AuthorizeURL builds the Square OAuth consent URL for the code flow.
func (a *Adapter) AuthorizeURL(state, redirectURL string) string {
	conf := oauth2.Config{
		ClientID:     a.cfg.ApplicationID,
		ClientSecret: a.cfg.ApplicationSecret,
		RedirectURL:  redirectURL,
		Scopes:       strings.Fields(a.cfg.Scopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:  a.cfg.baseURL() + "/oauth2/authorize",
			TokenURL: a.cfg.baseURL() + "/oauth2/token",
		},
	}
	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("session", "false"))
}
