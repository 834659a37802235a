// config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Mongo       MongoConfig     `mapstructure:"mongo"`
	Redis       RedisConfig     `mapstructure:"redis"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	IDs         IDConfig        `mapstructure:"ids"`
	Policy      PolicyConfig    `mapstructure:"policy"`
	Notify      NotifyConfig    `mapstructure:"notify"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Bootstrap   BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigin string        `mapstructure:"allowed_origin"`
}

// StorageConfig selects the application store: "mongo" or "memory".
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// IDConfig holds the prefix stamped on new application identifiers
// (MPA in production, DEV for development data, MIG for migrated records).
type IDConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// PolicyConfig tunes transition validation. Zero lengths mean any
// non-empty text is accepted.
type PolicyConfig struct {
	MinRejectionReason int  `mapstructure:"min_rejection_reason"`
	MinRequiredInfo    int  `mapstructure:"min_required_info"`
	StrictTransitions  bool `mapstructure:"strict_transitions"`
}

type NotifyConfig struct {
	// Driver is "log", "ses" or "none".
	Driver      string `mapstructure:"driver"`
	FromAddress string `mapstructure:"from_address"`
	AWSRegion   string `mapstructure:"aws_region"`
	SMSEnabled  bool   `mapstructure:"sms_enabled"`
	// Queue routes dispatch through a Redis list drained by a worker
	// instead of sending inline.
	Queue     bool   `mapstructure:"queue"`
	QueueName string `mapstructure:"queue_name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	Burst             int `mapstructure:"burst"`
}

// BootstrapConfig seeds the first admin account on startup when both fields
// are set and the email is not yet registered.
type BootstrapConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminName     string `mapstructure:"admin_name"`
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "mongo"
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "mpa_portal"
	}
	if cfg.Mongo.ConnectTimeout == 0 {
		cfg.Mongo.ConnectTimeout = 20 * time.Second
	}
	if cfg.Mongo.MaxPoolSize == 0 {
		cfg.Mongo.MaxPoolSize = 50
	}

	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}

	if cfg.IDs.Prefix == "" {
		if cfg.Environment == "development" {
			cfg.IDs.Prefix = "DEV"
		} else {
			cfg.IDs.Prefix = "MPA"
		}
	}

	if cfg.Notify.Driver == "" {
		cfg.Notify.Driver = "log"
	}
	if cfg.Notify.QueueName == "" {
		cfg.Notify.QueueName = "mpa:notifications"
	}
	if cfg.Notify.AWSRegion == "" {
		cfg.Notify.AWSRegion = "ap-southeast-1"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 10
	}

	if cfg.Bootstrap.AdminName == "" {
		cfg.Bootstrap.AdminName = "Administrator"
	}
}

// validate checks critical configuration fields
func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "mongo":
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver must be mongo or memory, got %q", cfg.Storage.Driver)
	}

	if cfg.JWT.Secret == "" {
		if cfg.Environment == "production" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		cfg.JWT.Secret = "secret"
	}

	switch cfg.Notify.Driver {
	case "log", "none":
	case "ses":
		if cfg.Notify.FromAddress == "" {
			return fmt.Errorf("notify.from_address is required for the ses driver")
		}
	default:
		return fmt.Errorf("notify.driver must be log, ses or none, got %q", cfg.Notify.Driver)
	}

	if cfg.Notify.Queue && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when notify.queue is enabled")
	}

	if cfg.Policy.MinRejectionReason < 0 || cfg.Policy.MinRequiredInfo < 0 {
		return fmt.Errorf("policy minimum lengths must not be negative")
	}

	if (cfg.Bootstrap.AdminEmail == "") != (cfg.Bootstrap.AdminPassword == "") {
		return fmt.Errorf("bootstrap.admin_email and bootstrap.admin_password must be set together")
	}

	cfg.IDs.Prefix = strings.ToUpper(cfg.IDs.Prefix)
	return nil
}
