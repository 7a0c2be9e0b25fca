package storage

import "time"

// Config configures the S3-compatible bucket that holds catalog snapshots.
type Config struct {
	// SnapshotsEnabled archives every fetched catalog. Nothing else in this
	// section is read while it is false.
	SnapshotsEnabled bool `mapstructure:"snapshots_enabled" default:"false"`

	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	UseSSL    bool   `mapstructure:"use_ssl" default:"false"`
	Region    string `mapstructure:"region" default:""`

	// Bucket is created on first write when missing.
	Bucket string `mapstructure:"bucket" default:"catalog-snapshots"`

	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Timeout returns the dial and response timeout, 30s when unset.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
