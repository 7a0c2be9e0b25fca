// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key). Provider webhook routes are exempt
//     because they authenticate with HMAC signatures instead.
//   - rayid: generates a request id, stores it in Locals("ray_id") and echoes it
//     in the X-Ray-ID response header for tracing.
//
// Both are registered globally in cmd/start.go, rayid first.
package middleware
