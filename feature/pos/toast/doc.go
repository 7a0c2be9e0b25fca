// Package toast implements the POS adapter for Toast.
//
// Tenants connect with partner client credentials plus a restaurant guid, or
// with a manually pasted access token. Client credentials are stored so the
// adapter can log in again when the cached token is within five minutes of
// expiry; a manual token that has expired needs the tenant to reconnect.
//
// The catalog comes from /menus/v2/menus: menu groups become categories (nested
// groups are flattened after their parent) and modifier group and option
// references are resolved. Prices are decimal dollars and are converted to
// cents with shopspring/decimal. /stock/v1/inventory pages mark OUT_OF_STOCK
// items unavailable; a failing stock page is reported as a page error.
package toast
