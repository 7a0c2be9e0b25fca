package toast

import (
	"encoding/json"
	"errors"

	"catalog-sync/feature/pos"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw body.
const SignatureHeader = "Toast-Signature"

// Event types that change what the menu shows.
const (
	EventMenusUpdated     = "menus_updated"
	EventStockUpdated     = "stock_updated"
	EventItemStockChanged = "item_stock_changed"
)

// WebhookVerifier verifies and parses Toast webhook notifications.
type WebhookVerifier struct{}

// NewWebhookVerifier creates a Toast verifier.
func NewWebhookVerifier() *WebhookVerifier {
	return &WebhookVerifier{}
}

// Provider returns pos.ProviderToast.
func (v *WebhookVerifier) Provider() pos.Provider {
	return pos.ProviderToast
}

// SignatureHeader returns the header Toast signs with.
func (v *WebhookVerifier) SignatureHeader() string {
	return SignatureHeader
}

// Verify checks the signature over the body.
func (v *WebhookVerifier) Verify(rawBody []byte, signature, secret string) bool {
	return pos.VerifyHMAC(rawBody, signature, secret)
}

type notification struct {
	GUID           string `json:"guid"`
	EventType      string `json:"eventType"`
	RestaurantGUID string `json:"restaurantGuid"`
	Details        struct {
		RestaurantGUID string `json:"restaurantGuid"`
	} `json:"details"`
}

// Parse decodes a notification body. The restaurant guid is read from the
// envelope or, failing that, from details.
func (v *WebhookVerifier) Parse(rawBody []byte) (pos.WebhookEvent, error) {
	var n notification
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return pos.WebhookEvent{}, err
	}

	restaurant := n.RestaurantGUID
	if restaurant == "" {
		restaurant = n.Details.RestaurantGUID
	}
	if restaurant == "" || n.EventType == "" {
		return pos.WebhookEvent{}, errors.New("toast notification missing restaurantGuid or eventType")
	}

	changed := false
	switch n.EventType {
	case EventMenusUpdated, EventStockUpdated, EventItemStockChanged:
		changed = true
	}

	return pos.WebhookEvent{
		Provider:       pos.ProviderToast,
		EventID:        n.GUID,
		EventType:      n.EventType,
		AccountID:      restaurant,
		CatalogChanged: changed,
	}, nil
}
