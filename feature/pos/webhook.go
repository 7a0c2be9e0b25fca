package pos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// WebhookEvent is a provider notification normalized for the orchestrator.
type WebhookEvent struct {
	Provider  Provider `json:"provider"`
	EventID   string   `json:"event_id"`
	EventType string   `json:"event_type"`
	AccountID string   `json:"account_id"`
	// CatalogChanged is true for events that should trigger a sync.
	CatalogChanged bool `json:"catalog_changed"`
}

// WebhookVerifier authenticates and parses inbound provider notifications.
type WebhookVerifier interface {
	Provider() Provider
	// SignatureHeader is the HTTP header carrying the signature.
	SignatureHeader() string
	// Verify checks the signature of rawBody. It returns false on any malformed input.
	Verify(rawBody []byte, signature, secret string) bool
	// Parse decodes rawBody into a WebhookEvent.
	Parse(rawBody []byte) (WebhookEvent, error)
}

// VerifyHMAC compares a base64 HMAC-SHA256 signature of message in constant time.
func VerifyHMAC(message []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	return hmac.Equal(got, SignHMAC(message, secret))
}

// SignHMAC returns the raw HMAC-SHA256 of message.
func SignHMAC(message []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return mac.Sum(nil)
}
