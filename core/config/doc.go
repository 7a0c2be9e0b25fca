// Package config provides configuration management for the catalog sync service.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults are declared on the partial config structs with the
// `default` tag and registered by reflection, so every key can be overridden by its
// upper-cased environment variable (SYNC_WORKERS -> sync.workers).
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, public base URL
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: MinIO/S3 snapshot archive
//   - Log: level and format
//   - Redis: distributed lock backend
//   - Security: credential encryption key
//   - Square / Toast: provider application settings and webhook secrets
//   - Sync: cron schedule, dispatcher sizing, locker selection
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.Schedule)
package config
