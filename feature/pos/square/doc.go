// Package square implements the POS adapter for Square.
//
// # Credentials
//
// Tenants connect with an OAuth authorization code (exchanged at /oauth2/token)
// or a pre-issued access token. Either way the token is checked against
// /v2/merchants/me before anything is stored. Authenticate refreshes tokens that
// expire within the configured window (seven days by default) and writes the new
// pair back to the credential store. Concurrent refreshes for one tenant are
// collapsed with singleflight.
//
// # Catalog
//
// /v2/catalog/list is paged with a cursor. The flat object list is folded into
// categories: items take the price of their first live variation, resolve their
// first image, and attach enabled modifier lists. Items without a category land
// in a synthetic "square:uncategorized" category. Deleted or archived items are
// reported unavailable.
//
// # Webhooks
//
// The signature is base64 HMAC-SHA256 over the subscription's notification URL
// followed by the raw body. catalog.version.updated triggers a sync.
package square
