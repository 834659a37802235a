// config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that override
// them. The first name found wins.
var envBindings = map[string][]string{
	"environment":                 {"APP_ENVIRONMENT"},
	"server.port":                 {"PORT"},
	"server.allowed_origin":       {"ALLOWED_ORIGIN"},
	"storage.driver":              {"STORAGE_DRIVER"},
	"mongo.uri":                   {"MONGODB_URI", "MONGO_URI"},
	"mongo.database":              {"MONGODB_DATABASE"},
	"redis.address":               {"REDIS_ADDRESS"},
	"redis.password":              {"REDIS_PASSWORD"},
	"redis.db":                    {"REDIS_DB"},
	"jwt.secret":                  {"JWT_SECRET"},
	"ids.prefix":                  {"APPLICATION_ID_PREFIX"},
	"policy.min_rejection_reason": {"POLICY_MIN_REJECTION_REASON"},
	"policy.min_required_info":    {"POLICY_MIN_REQUIRED_INFO"},
	"policy.strict_transitions":   {"POLICY_STRICT_TRANSITIONS"},
	"notify.driver":               {"NOTIFY_DRIVER"},
	"notify.from_address":         {"NOTIFY_FROM_ADDRESS", "EMAIL_FROM"},
	"notify.aws_region":           {"AWS_REGION"},
	"notify.sms_enabled":          {"NOTIFY_SMS_ENABLED"},
	"notify.queue":                {"NOTIFY_QUEUE"},
	"notify.queue_name":           {"NOTIFY_QUEUE_NAME"},
	"logging.level":               {"LOG_LEVEL"},
	"logging.format":              {"LOG_FORMAT"},

	"rate_limit.requests_per_second": {"RATE_LIMIT_RPS"},
	"rate_limit.burst":               {"RATE_LIMIT_BURST"},
	"bootstrap.admin_email":          {"ADMIN_EMAIL"},
	"bootstrap.admin_password":       {"ADMIN_PASSWORD"},
	"bootstrap.admin_name":           {"ADMIN_NAME"},
}

// Load reads .env, then config.yaml and config.<env>.yaml from ./configs or
// the working directory, then environment overrides.
func Load() (*Config, error) {
	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig() // ignore error if not found

	return fromViper(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if raw := os.Getenv("JWT_EXPIRE"); raw != "" {
		cfg.JWT.Expiration = parseExpiration(raw)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// parseExpiration accepts Go durations plus whole days such as "7d".
// Anything else falls back to 24h.
func parseExpiration(raw string) time.Duration {
	if strings.HasSuffix(raw, "d") {
		var days int
		if _, err := fmt.Sscanf(raw, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	dur, err := time.ParseDuration(raw)
	if err != nil || dur <= 0 {
		return 24 * time.Hour
	}
	return dur
}
