package toast

// Config holds the Toast partner settings.
type Config struct {
	// BaseURL is the Toast API host.
	BaseURL string `mapstructure:"base_url" default:"https://ws-api.toasttab.com"`
	// WebhookSecret is the default signing secret for webhook subscriptions.
	WebhookSecret string `mapstructure:"webhook_secret" default:""`
	// UserAccessType is sent on login.
	UserAccessType string `mapstructure:"user_access_type" default:"TOAST_MACHINE_CLIENT"`
	// StockPageSize is the page size of the inventory endpoint.
	StockPageSize int `mapstructure:"stock_page_size" default:"100"`
}
