// Package secret encrypts provider credentials before they reach the database.
//
// Values are sealed with XChaCha20-Poly1305 from golang.org/x/crypto using a
// random 24-byte nonce per value, and stored as base64 text.
package secret
