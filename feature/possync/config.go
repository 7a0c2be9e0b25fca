package possync

import "time"

// Config holds sync orchestration settings.
type Config struct {
	// Schedule is the cron spec (with seconds) of the periodic pull.
	Schedule string `mapstructure:"schedule" default:"0 */30 * * * *"`
	// ScheduleEnabled turns the periodic pull on.
	ScheduleEnabled bool `mapstructure:"schedule_enabled" default:"true"`
	// Workers is the number of background sync workers.
	Workers int `mapstructure:"workers" default:"4"`
	// QueueSize bounds pending background syncs.
	QueueSize int `mapstructure:"queue_size" default:"256"`
	// RequestTimeoutSeconds bounds every provider HTTP request.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" default:"30"`
	// Locker selects the per-tenant lock backend: "memory" or "redis".
	Locker string `mapstructure:"locker" default:"memory"`
	// LockTTLSeconds is the redis lock TTL; the lock is refreshed while held.
	LockTTLSeconds int `mapstructure:"lock_ttl_seconds" default:"120"`
}

// RequestTimeout returns the provider request timeout.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LockTTL returns the redis lock TTL.
func (c Config) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}
