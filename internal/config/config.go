package config

import (
	"fmt"
	"strings"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Chat      ChatConfig
	Expiry    ExpiryConfig
	Hierarchy HierarchyConfig
	Scheduler SchedulerConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port        int
	Environment string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DBName   string
	SSLMode  string
	// Driver is "postgres" or "memory"
	Driver string
}

// AuthConfig holds the admin authentication configuration. When
// AdminEmail and AdminPassword are set the account is created at startup.
type AuthConfig struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// ChatConfig describes the third-party chat product logins are forwarded to
type ChatConfig struct {
	LoginURL     string
	DashboardURL string
	TeamSlug     string
}

// ExpiryConfig holds the "expiring soon" window in days
type ExpiryConfig struct {
	SoonWindowDays int
}

// HierarchyConfig controls parent-account grouping
type HierarchyConfig struct {
	ReparentOrphans bool
}

// SchedulerConfig holds cron schedules
type SchedulerConfig struct {
	StatusRefreshSchedule string
}

// CORSConfig lists browser origins allowed to post the public forms
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig throttles the chat login proxy per client
type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USERNAME", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "dailit")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("STORE_DRIVER", "postgres")

	v.SetDefault("JWT_SECRET", "your-secret-key-here")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "Administrator")

	v.SetDefault("CHAT_LOGIN_URL", "https://chat.dailit.com/api/v4/users/login")
	v.SetDefault("CHAT_DASHBOARD_URL", "https://chat.dailit.com/landing")
	v.SetDefault("CHAT_TEAM_SLUG", "dailit")

	v.SetDefault("EXPIRY_SOON_WINDOW_DAYS", aggregate.DefaultSoonWindowDays)
	v.SetDefault("HIERARCHY_REPARENT_ORPHANS", false)
	v.SetDefault("STATUS_REFRESH_SCHEDULE", "0 * * * *") // hourly, on the hour

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_RATE_BURST", 5)
}

// LoadConfig loads the configuration from an optional .env file and the
// environment. Environment variables win over .env values.
func LoadConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	window := v.GetInt("EXPIRY_SOON_WINDOW_DAYS")
	if window < 0 {
		window = aggregate.DefaultSoonWindowDays
	}

	return &Config{
		Server: ServerConfig{
			Port:        v.GetInt("SERVER_PORT"),
			Environment: v.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			Username: v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			AdminName:     v.GetString("ADMIN_NAME"),
		},
		Chat: ChatConfig{
			LoginURL:     v.GetString("CHAT_LOGIN_URL"),
			DashboardURL: v.GetString("CHAT_DASHBOARD_URL"),
			TeamSlug:     v.GetString("CHAT_TEAM_SLUG"),
		},
		Expiry: ExpiryConfig{
			SoonWindowDays: window,
		},
		Hierarchy: HierarchyConfig{
			ReparentOrphans: v.GetBool("HIERARCHY_REPARENT_ORPHANS"),
		},
		Scheduler: SchedulerConfig{
			StatusRefreshSchedule: v.GetString("STATUS_REFRESH_SCHEDULE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
			LoginBurst:     v.GetInt("LOGIN_RATE_BURST"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
