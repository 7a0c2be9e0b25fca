// Package models contains the gorm models for POS integrations, the synced menu
// and sync run history.
//
// Provider-linked rows carry a non-nil ProviderID and the Provider tag of the POS
// that owns them. Rows with a nil ProviderID were created by staff and are never
// modified by a sync.
package models
