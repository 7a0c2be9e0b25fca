package server_test

import (
	"testing"

	"catalog-sync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_WebhookURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		provider string
		want     string
	}{
		{"Plain", "https://sync.example.com", "square", "https://sync.example.com/webhooks/square"},
		{"TrailingSlash", "https://sync.example.com/", "toast", "https://sync.example.com/webhooks/toast"},
		{"Local", "http://localhost:8080", "square", "http://localhost:8080/webhooks/square"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{BaseURL: tt.baseURL}
			assert.Equal(t, tt.want, c.WebhookURL(tt.provider))
		})
	}
}
