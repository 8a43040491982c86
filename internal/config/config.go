package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
	OpenAIAPIKey  string
	HTTPAddr      string
	LogLevel      string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	FrontendURL  string

	// RealtimeRedis fans realtime events out through Redis pub/sub so every
	// API instance can deliver them to its own websocket clients.
	RealtimeRedis bool
	// ReconcileSchedule is a cron spec for the periodic pending-motion sweep.
	// Empty disables the sweep.
	ReconcileSchedule string
}

var defaults = map[string]any{
	"DB_DRIVER":          "mysql",
	"DB_HOST":            "localhost",
	"DB_PORT":            "3306",
	"DB_USER":            "govern",
	"DB_PASSWORD":        "governpassword",
	"DB_NAME":            "governance",
	"REDIS_HOST":         "localhost",
	"REDIS_PORT":         "6379",
	"SESSION_SECRET":     "default-secret-key-change-me",
	"GIN_MODE":           "debug",
	"OPENAI_API_KEY":     "",
	"HTTP_ADDR":          ":8080",
	"LOG_LEVEL":          "info",
	"SMTP_HOST":          "",
	"SMTP_PORT":          "587",
	"SMTP_USERNAME":      "",
	"SMTP_PASSWORD":      "",
	"SMTP_FROM":          "noreply@wegovern.com",
	"FRONTEND_URL":       "http://localhost:3001",
	"REALTIME_REDIS":     false,
	"RECONCILE_SCHEDULE": "",
}

// Load reads configuration from the environment. Values bound to v (for
// example from command line flags) take precedence over the environment.
func Load(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Config{
		DBDriver:          v.GetString("DB_DRIVER"),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetString("DB_PORT"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBName:            v.GetString("DB_NAME"),
		RedisHost:         v.GetString("REDIS_HOST"),
		RedisPort:         v.GetString("REDIS_PORT"),
		SessionSecret:     v.GetString("SESSION_SECRET"),
		GinMode:           v.GetString("GIN_MODE"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		HTTPAddr:          v.GetString("HTTP_ADDR"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		SMTPHost:          v.GetString("SMTP_HOST"),
		SMTPPort:          v.GetString("SMTP_PORT"),
		SMTPUsername:      v.GetString("SMTP_USERNAME"),
		SMTPPassword:      v.GetString("SMTP_PASSWORD"),
		SMTPFrom:          v.GetString("SMTP_FROM"),
		FrontendURL:       v.GetString("FRONTEND_URL"),
		RealtimeRedis:     v.GetBool("REALTIME_REDIS"),
		ReconcileSchedule: v.GetString("RECONCILE_SCHEDULE"),
	}
}

// RedisAddr returns the host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
