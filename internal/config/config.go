// Package config loads and validates client config from env, an optional .env file and command-line flags using Viper.
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	// BankAPIURL is the base URL of the banking REST API including the /api prefix (e.g. https://bank.example.com/api).
	BankAPIURL string `mapstructure:"BANK_API_URL"`
	// AllowInsecureHTTP permits an http:// BankAPIURL. Must not be true when Env is production.
	AllowInsecureHTTP bool `mapstructure:"ALLOW_INSECURE_HTTP"`
	// HTTPTimeout is the per-request timeout for read calls (e.g. "15s").
	HTTPTimeout string `mapstructure:"HTTP_TIMEOUT"`
	// TransferTimeout bounds a single transfer submission (e.g. "30s"). Submissions are never retried automatically.
	TransferTimeout string `mapstructure:"TRANSFER_TIMEOUT"`

	// JWTPublicKey is the PEM-encoded public key or path to file. When set, access tokens returned at login are verified.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim of access tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim of access tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	// PolicyFile is an optional path to a Rego module replacing the built-in role policy.
	PolicyFile string `mapstructure:"POLICY_FILE"`

	// OTLPEndpoint is the OTLP collector (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables the Kafka sink.
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for client events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group used by the event tail.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with command-line flags bound on top of env. Flags that were not set on the
// command line do not override env or .env values. fs may be nil.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("BANK_API_URL", "http://localhost:8080/api")
	v.SetDefault("ALLOW_INSECURE_HTTP", "")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("TRANSFER_TIMEOUT", "30s")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "bank-auth")
	v.SetDefault("JWT_AUDIENCE", "bank-api")
	v.SetDefault("POLICY_FILE", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "bankdesk")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "bankdesk-events")
	v.SetDefault("KAFKA_GROUP_ID", "bankdesk-eventtail")
	v.SetDefault("APP_ENV", "")

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Insecure HTTP defaults to allowed outside production; explicit values win.
	if raw := strings.TrimSpace(v.GetString("ALLOW_INSECURE_HTTP")); raw == "" {
		cfg.AllowInsecureHTTP = cfg.Env != "production"
	}

	if cfg.BankAPIURL == "" {
		return nil, errors.New("config: BANK_API_URL must be set")
	}
	u, err := url.Parse(cfg.BankAPIURL)
	if err != nil || u.Host == "" {
		return nil, errors.New("config: BANK_API_URL must be an absolute URL")
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !cfg.AllowInsecureHTTP {
			return nil, errors.New("config: BANK_API_URL must use https unless ALLOW_INSECURE_HTTP=true")
		}
	default:
		return nil, errors.New("config: BANK_API_URL scheme must be http or https")
	}
	if cfg.AllowInsecureHTTP && cfg.Env == "production" {
		return nil, errors.New("config: ALLOW_INSECURE_HTTP must not be true when APP_ENV=production")
	}
	if d, err := time.ParseDuration(cfg.HTTPTimeout); err != nil || d <= 0 {
		return nil, errors.New("config: HTTP_TIMEOUT must be a positive duration (e.g. 15s)")
	}
	d, err := time.ParseDuration(cfg.TransferTimeout)
	if err != nil {
		return nil, errors.New("config: TRANSFER_TIMEOUT must be a duration (e.g. 30s)")
	}
	if d < time.Second {
		return nil, errors.New("config: TRANSFER_TIMEOUT must be at least 1s")
	}

	return &cfg, nil
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"api-url":          "BANK_API_URL",
	"insecure":         "ALLOW_INSECURE_HTTP",
	"transfer-timeout": "TRANSFER_TIMEOUT",
	"policy-file":      "POLICY_FILE",
	"env":              "APP_ENV",
}

// RegisterFlags defines the flags understood by LoadWithFlags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("api-url", "", "banking REST API base URL (overrides BANK_API_URL)")
	fs.Bool("insecure", false, "allow an http:// API URL (overrides ALLOW_INSECURE_HTTP)")
	fs.String("transfer-timeout", "", "transfer submission timeout, e.g. 30s (overrides TRANSFER_TIMEOUT)")
	fs.String("policy-file", "", "Rego policy file (overrides POLICY_FILE)")
	fs.String("env", "", "application environment (overrides APP_ENV)")
}

// RequestTimeout parses HTTPTimeout as a time.Duration. Load rejects invalid values; an unset field gives 15s.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// SubmitTimeout parses TransferTimeout as a time.Duration. Load rejects invalid values; an unset field gives 30s.
func (c *Config) SubmitTimeout() time.Duration {
	d, err := time.ParseDuration(c.TransferTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka sink is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
