// Package credentials stores POS credentials per tenant with secrets sealed by
// core/secret. It never makes network calls and never logs secret material.
package credentials
