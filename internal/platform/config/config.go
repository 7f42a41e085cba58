package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:hrledger.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
)

type Config struct {
	Addr                string        `mapstructure:"app_addr"`
	Environment         string        `mapstructure:"app_env"`
	DatabaseDriver      string        `mapstructure:"database_driver"`
	DatabaseURL         string        `mapstructure:"database_url"`
	JWTSecret           string        `mapstructure:"jwt_secret"`
	TokenTTL            time.Duration `mapstructure:"token_ttl"`
	Timezone            string        `mapstructure:"timezone"`
	DefaultLeaveBalance int           `mapstructure:"default_leave_balance"`
	AdminLeaveBalance   int           `mapstructure:"admin_leave_balance"`
	ReservePendingLeave bool          `mapstructure:"leave_reserve_pending"`
	CORSAllowedOrigins  []string      `mapstructure:"cors_allowed_origins"`
	MaxBodyBytes        int64         `mapstructure:"max_body_bytes"`
	RateLimitPerMinute  int           `mapstructure:"rate_limit_per_minute"`
	RunMigrations       bool          `mapstructure:"run_migrations"`
	RunSeed             bool          `mapstructure:"run_seed"`
	SeedAdminEmail      string        `mapstructure:"seed_admin_email"`
	SeedAdminName       string        `mapstructure:"seed_admin_name"`
	SeedSampleEmployees bool          `mapstructure:"seed_sample_employees"`
	EmailEnabled        bool          `mapstructure:"email_enabled"`
	EmailFrom           string        `mapstructure:"email_from"`
	SMTPHost            string        `mapstructure:"smtp_host"`
	SMTPPort            int           `mapstructure:"smtp_port"`
	SMTPUser            string        `mapstructure:"smtp_user"`
	SMTPPassword        string        `mapstructure:"smtp_password"`
	MetricsEnabled      bool          `mapstructure:"metrics_enabled"`
}

func Defaults() map[string]any {
	return map[string]any{
		"app_addr":              ":8080",
		"app_env":               "development",
		"database_driver":       DriverPostgres,
		"database_url":          "",
		"jwt_secret":            "",
		"token_ttl":             "12h",
		"timezone":              "UTC",
		"default_leave_balance": 20,
		"admin_leave_balance":   25,
		"leave_reserve_pending": false,
		"cors_allowed_origins":  []string{"http://localhost:5173"},
		"max_body_bytes":        1048576,
		"rate_limit_per_minute": 120,
		"run_migrations":        true,
		"run_seed":              true,
		"seed_admin_email":      "admin@company.com",
		"seed_admin_name":       "Admin User",
		"seed_sample_employees": false,
		"email_enabled":         false,
		"email_from":            "no-reply@example.com",
		"smtp_host":             "",
		"smtp_port":             587,
		"smtp_user":             "",
		"smtp_password":         "",
		"metrics_enabled":       true,
	}
}

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"addr":      "app_addr",
	"driver":    "database_driver",
	"database":  "database_url",
	"env":       "app_env",
	"timezone":  "timezone",
	"migrate":   "run_migrations",
	"seed":      "run_seed",
	"jwtsecret": "jwt_secret",
}

// Load resolves configuration from defaults, an optional ledger.yaml, a .env
// file, the environment and finally any flags set on cmd.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}

	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("ledger")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()

	if cmd != nil {
		for flag, key := range flagKeys {
			if f := cmd.Flags().Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return cfg, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DatabaseDriver == DriverSQLite && strings.TrimSpace(c.DatabaseURL) == "" {
		return defaultSQLiteDSN
	}
	return c.DatabaseURL
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if c.DefaultLeaveBalance < 0 || c.AdminLeaveBalance < 0 {
		return fmt.Errorf("leave balances must not be negative")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
