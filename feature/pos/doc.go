// Package pos defines the contract shared by point-of-sale adapters.
//
// A CatalogProvider validates a tenant's raw credentials, keeps a live token, and
// fetches the remote catalog in the canonical reconcile.Catalog shape. Square and
// Toast live in sub-packages and are registered in a Registry keyed by Provider,
// so adding a third POS is one more registration.
//
// Errors are sentinels checked with errors.Is. PageError wraps ErrPartialFetch and
// describes a page that failed while the rest of the catalog was fetched.
//
// Webhook verification shares VerifyHMAC: a base64 HMAC-SHA256 compared in
// constant time. Each provider decides what the signed message is.
package pos
