package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "VIN_DECODER"

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Inference InferenceConfig `mapstructure:"inference"`
	Report    ReportConfig    `mapstructure:"report"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	JWTSecret string            `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration     `mapstructure:"token_ttl"`
	Users     map[string]string `mapstructure:"users"`
	// UseDatabase switches credential checks to the users table.
	UseDatabase bool `mapstructure:"use_database"`
	// MaxSessionsPerUser of 0 or less disables the cap.
	MaxSessionsPerUser int `mapstructure:"max_sessions_per_user"`
}

type InferenceConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type ReportConfig struct {
	ProductName string `mapstructure:"product_name"`
	Compress    bool   `mapstructure:"compress"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
	// AuditRetention of 0 keeps audit rows forever.
	AuditRetention time.Duration `mapstructure:"audit_retention"`
}

// DefaultUsers is the built-in credential table.
func DefaultUsers() map[string]string {
	return map[string]string{
		"admin": "1741",
		"gast":  "vin2024",
		"user":  "user123",
	}
}

// Load reads defaults, then the optional file at path, then VIN_DECODER_*
// environment variables. The Gemini key is also taken from GEMINI_API_KEY or
// API_KEY when not set otherwise.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("inference.api_key", envPrefix+"_INFERENCE_API_KEY", "GEMINI_API_KEY", "API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if len(cfg.Auth.Users) == 0 {
		cfg.Auth.Users = DefaultUsers()
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 120*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("auth.use_database", false)
	v.SetDefault("auth.max_sessions_per_user", 5)

	v.SetDefault("inference.api_key", "")
	v.SetDefault("inference.model", "gemini-2.5-flash")
	v.SetDefault("inference.base_url", "")
	v.SetDefault("inference.timeout", 90*time.Second)
	v.SetDefault("inference.max_retries", 2)
	v.SetDefault("inference.rate_per_second", 1.0)
	v.SetDefault("inference.burst", 3)

	v.SetDefault("report.product_name", "VIN Decoder Pro")
	v.SetDefault("report.compress", true)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.audit_retention", time.Duration(0))
}

// ValidateServer checks what `serve` needs on top of ValidateInference.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.UseDatabase && c.Database.DSN == "" {
		errs = append(errs, errors.New("auth.use_database requires database.dsn"))
	}
	if c.Database.AuditRetention < 0 {
		errs = append(errs, errors.New("database.audit_retention must not be negative"))
	}
	if err := c.ValidateInference(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) ValidateInference() error {
	if c.Inference.APIKey == "" {
		return errors.New("inference.api_key is required (or set GEMINI_API_KEY)")
	}
	if c.Inference.Timeout <= 0 {
		return errors.New("inference.timeout must be positive")
	}
	return nil
}
