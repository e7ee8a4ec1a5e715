package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Reference data
	DataDir         string
	SymptomsCSV     string
	TreatmentsCSV   string
	DoctorsCSV      string
	AppointmentsCSV string
	DoctorSource    string

	// Session storage
	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Appointment log
	AppointmentStore string
	DatabaseURL      string

	// Clinic
	ClinicName      string
	ClinicLocation  string
	CampusName      string
	ClinicTimezone  string
	LongIllnessDays int

	// HTTP
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:         dataDir,
		SymptomsCSV:     getEnv("SYMPTOMS_CSV", filepath.Join(dataDir, "symptoms_conditions.csv")),
		TreatmentsCSV:   getEnv("TREATMENTS_CSV", filepath.Join(dataDir, "conditions_treatments.csv")),
		DoctorsCSV:      getEnv("DOCTORS_CSV", filepath.Join(dataDir, "doctors.csv")),
		AppointmentsCSV: getEnv("APPOINTMENTS_CSV", filepath.Join(dataDir, "appointments.csv")),
		DoctorSource:    strings.ToLower(strings.TrimSpace(getEnv("DOCTOR_SOURCE", "csv"))),

		SessionStore:  strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 0),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AppointmentStore: strings.ToLower(strings.TrimSpace(getEnv("APPOINTMENT_STORE", "csv"))),
		DatabaseURL:      getEnv("DATABASE_URL", ""),

		ClinicName:      getEnv("CLINIC_NAME", "Guni Health Clinic"),
		ClinicLocation:  getEnv("CLINIC_LOCATION", "opposite the shopping center"),
		CampusName:      getEnv("CAMPUS_NAME", "Ganpat University"),
		ClinicTimezone:  getEnv("CLINIC_TIMEZONE", "Local"),
		LongIllnessDays: getEnvAsInt("LONG_ILLNESS_DAYS", 5),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Campus Triage Bot"),
	}
}

// Location resolves ClinicTimezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.ClinicTimezone == "" || strings.EqualFold(c.ClinicTimezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.ClinicTimezone)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
