package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"catalog-sync/core/database"
	"catalog-sync/core/logger"
	"catalog-sync/core/redis"
	"catalog-sync/core/secret"
	"catalog-sync/core/server"
	"catalog-sync/core/storage"
	"catalog-sync/feature/pos/square"
	"catalog-sync/feature/pos/toast"
	"catalog-sync/feature/possync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the snapshot object storage.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the catalog database.
	Database database.Config `mapstructure:"database"`
	// Redis holds configuration for the distributed lock backend.
	Redis redis.Config `mapstructure:"redis"`
	// Security holds the credential encryption key.
	Security secret.Config `mapstructure:"security"`
	// Square holds the Square application settings.
	Square square.Config `mapstructure:"square"`
	// Toast holds the Toast partner settings.
	Toast toast.Config `mapstructure:"toast"`
	// Sync holds orchestration settings (schedule, workers, locking).
	Sync possync.Config `mapstructure:"sync"`
}

// LoadConfig reads dir/.env (when present) into the environment, then builds the
// Config from tag defaults overridden by environment variables.
func LoadConfig(dir string) (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	registerDefaults(v, reflect.TypeOf(Config{}), "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Sync.Locker) {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: sync.locker must be memory or redis, got %q", c.Sync.Locker)
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("config: sync.workers must be at least 1, got %d", c.Sync.Workers)
	}
	return nil
}

// registerDefaults walks the struct type and registers every mapstructure key
// with its default tag. Registering empty defaults too lets AutomaticEnv see
// keys that have no default (SQUARE_APPLICATION_ID).
func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, field := range reflect.VisibleFields(t) {
		name, ok := field.Tag.Lookup("mapstructure")
		if !ok || name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			registerDefaults(v, field.Type, key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
