package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OTP      OTPConfig
	Email    EmailConfig
	Admin    AdminConfig
	Event    EventConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: Redis deployment mode ("single", "sentinel", "cluster"). Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs: list of host:port addresses, used in all modes. For 'single',
	// the first address wins when non-empty.
	Addrs []string `mapstructure:"addrs"`

	// Addr: alternative single-mode address, kept for compatibility.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Redis master name (sentinel mode only).
	MasterName string `mapstructure:"master_name"`
}

// OTPConfig holds one-time code issuance and lockout settings.
type OTPConfig struct {
	// CodeLength: number of random characters after the fixed prefix.
	CodeLength int `mapstructure:"code_length"`
	// ExpiryMinutes: how long an issued code stays valid.
	ExpiryMinutes int `mapstructure:"expiry_minutes"`
	// MaxFailures: consecutive failures before the email is locked out.
	MaxFailures int `mapstructure:"max_failures"`
	// LockoutMinutes: lockout window measured from the last failed attempt.
	LockoutMinutes int `mapstructure:"lockout_minutes"`
	// LockWaitSeconds: bounded wait for the OTP mutex before the request fails.
	LockWaitSeconds int `mapstructure:"lock_wait_seconds"`
	// Pepper: server-side secret mixed into stored code hashes.
	Pepper string `mapstructure:"pepper"`
}

// EmailConfig holds outbound email settings.
type EmailConfig struct {
	// Provider: "resend" or "noop". Noop logs instead of sending.
	Provider     string `mapstructure:"provider"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// AdminConfig holds admin session token settings.
type AdminConfig struct {
	TokenSecret     string `mapstructure:"token_secret"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
}

// EventConfig holds registration defaults.
type EventConfig struct {
	// DefaultSlots is reported by GET_SLOTS when no active event exists.
	DefaultSlots int `mapstructure:"default_slots"`
}

// PostgresConnectionString builds the PostgreSQL DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// OTPExpiry returns the configured code lifetime as a duration.
func (o *OTPConfig) OTPExpiry() time.Duration {
	return time.Duration(o.ExpiryMinutes) * time.Minute
}

// LockoutWindow returns the configured lockout duration.
func (o *OTPConfig) LockoutWindow() time.Duration {
	return time.Duration(o.LockoutMinutes) * time.Minute
}

// Load reads configuration from the given file, with environment variables
// taking precedence over file values.
func Load(configPath string) (*Config, error) {
	vip := viper.New() // own instance, no global viper state

	// Defaults for everything that has a sane fixed value.
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("otp.code_length", 6)
	vip.SetDefault("otp.expiry_minutes", 5)
	vip.SetDefault("otp.max_failures", 5)
	vip.SetDefault("otp.lockout_minutes", 15)
	vip.SetDefault("otp.lock_wait_seconds", 3)
	vip.SetDefault("email.provider", "noop")
	vip.SetDefault("admin.token_ttl_minutes", 60)
	vip.SetDefault("event.default_slots", 60)

	// Bind environment variables explicitly, one per key.
	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("otp.pepper", "OTP_PEPPER")
	vip.BindEnv("otp.expiry_minutes", "OTP_EXPIRY_MINUTES")
	vip.BindEnv("otp.max_failures", "OTP_MAX_FAILURES")
	vip.BindEnv("otp.lockout_minutes", "OTP_LOCKOUT_MINUTES")

	vip.BindEnv("email.provider", "EMAIL_PROVIDER")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("admin.token_secret", "ADMIN_TOKEN_SECRET")
	vip.BindEnv("admin.token_ttl_minutes", "ADMIN_TOKEN_TTL_MINUTES")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, relying on environment variables and defaults.", configPath)
			} else {
				log.Printf("Warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Loaded configuration ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Email Provider: %s", cfg.Email.Provider)
		log.Printf("OTP Expiry Minutes: %d", cfg.OTP.ExpiryMinutes)
		log.Printf("OTP Pepper Set: %t", cfg.OTP.Pepper != "")
		log.Printf("Admin Token Secret Set: %t", cfg.Admin.TokenSecret != "")
		log.Printf("----------------------------")
	}

	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.OTP.Pepper == "" {
		return nil, fmt.Errorf("OTP pepper is required (check OTP_PEPPER env var)")
	}
	if cfg.Admin.TokenSecret == "" {
		return nil, fmt.Errorf("admin token secret is required (check ADMIN_TOKEN_SECRET env var)")
	}
	if cfg.Email.Provider == "resend" && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("resend api key is required when email provider is 'resend' (check RESEND_API_KEY env var)")
	}

	return &cfg, nil
}
