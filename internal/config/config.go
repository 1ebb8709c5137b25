package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds portal configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// MedVault backend the engine consumes.
	PortalAPIBaseURL string
	PortalAPITimeout time.Duration

	// SessionJWTSecret verifies bearer tokens presented to the portal API.
	SessionJWTSecret string
	// Timezone used to group slots by calendar date.
	Timezone string

	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	DoctorCacheTTL time.Duration

	DoctorsPerPage      int
	AppointmentsPerPage int
	EmergencyPerPage    int

	WizardIdleTTL      time.Duration
	CORSAllowedOrigins []string

	// Per-patient budget for mutating portal calls.
	WriteRatePerMinute int
	WriteRateBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PortalAPIBaseURL: strings.TrimRight(getEnv("PORTAL_API_BASE_URL", "http://localhost:8080"), "/"),
		PortalAPITimeout: getEnvAsDuration("PORTAL_API_TIMEOUT", 15*time.Second),

		SessionJWTSecret: getEnv("SESSION_JWT_SECRET", ""),
		Timezone:         getEnv("PORTAL_TIMEZONE", "Local"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		DoctorCacheTTL: getEnvAsDuration("DOCTOR_CACHE_TTL", 5*time.Minute),

		DoctorsPerPage:      getEnvAsInt("DOCTORS_PER_PAGE", 8),
		AppointmentsPerPage: getEnvAsInt("APPOINTMENTS_PER_PAGE", 5),
		EmergencyPerPage:    getEnvAsInt("EMERGENCY_PER_PAGE", 6),

		WizardIdleTTL:      getEnvAsDuration("WIZARD_IDLE_TTL", 30*time.Minute),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		WriteRatePerMinute: getEnvAsInt("WRITE_RATE_PER_MINUTE", 30),
		WriteRateBurst:     getEnvAsInt("WRITE_RATE_BURST", 5),
	}
}

// Location resolves Timezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
