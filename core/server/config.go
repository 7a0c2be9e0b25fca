package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the integration API.
	// Webhook routes are exempt because providers authenticate with signatures.
	ApiKey string `mapstructure:"api_key" default:""`
	// BaseURL is the public URL of this service, used to derive webhook URLs.
	BaseURL string `mapstructure:"base_url" default:"http://localhost:8080"`
}

// WebhookURL returns the public URL providers deliver webhooks to.
func (c Config) WebhookURL(provider string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/webhooks/" + provider
}
