package square

import "strings"

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
)

// Config holds the Square application settings.
type Config struct {
	// Environment is "sandbox" or "production".
	Environment string `mapstructure:"environment" default:"sandbox"`
	// ApplicationID is the OAuth client id.
	ApplicationID string `mapstructure:"application_id" default:""`
	// ApplicationSecret is the OAuth client secret.
	ApplicationSecret string `mapstructure:"application_secret" default:""`
	// WebhookSignatureKey is the default signing key for webhook subscriptions.
	WebhookSignatureKey string `mapstructure:"webhook_signature_key" default:""`
	// WebhookNotificationURL is the exact URL registered with Square; it is part of the signed message.
	WebhookNotificationURL string `mapstructure:"webhook_notification_url" default:""`
	// RedirectURL is where Square returns the tenant after consent. The
	// dashboard behind it posts the code to the connect route.
	RedirectURL string `mapstructure:"redirect_url" default:""`
	// RefreshWindowHours refreshes tokens expiring within this window.
	RefreshWindowHours int `mapstructure:"refresh_window_hours" default:"168"`
	// Scopes are space separated OAuth permissions.
	Scopes string `mapstructure:"scopes" default:"ITEMS_READ MERCHANT_PROFILE_READ INVENTORY_READ"`
	// APIVersion is sent as the Square-Version header.
	APIVersion string `mapstructure:"api_version" default:"2024-10-17"`
	// BaseURL overrides the environment URL.
	BaseURL string `mapstructure:"base_url" default:""`
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if strings.EqualFold(c.Environment, "production") {
		return productionBaseURL
	}
	return sandboxBaseURL
}
