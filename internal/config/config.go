package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultCourses populate the enrollment form when COURSES is unset.
var DefaultCourses = []string{
	"Web Development",
	"Mobile App Development",
	"Data Science",
	"UI/UX Design",
	"Cloud Computing",
}

// Config is the process configuration read from .env and the environment.
type Config struct {
	Production bool
	Port       int
	DataDir    string
	StaticDir  string

	MongoURI      string
	MongoDatabase string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string

	ResendAPIKey string
	FromEmail    string
	CompanyEmail string

	CORSOrigins  []string
	Courses      []string
	FormEndpoint string
	CSRFKey      []byte
	LogLevel     slog.Level
}

// SQLitePath is the relational store file inside DataDir.
func (c Config) SQLitePath() string { return filepath.Join(c.DataDir, "enrollments.db") }

// WorkbookPath is the spreadsheet store file inside DataDir.
func (c Config) WorkbookPath() string { return filepath.Join(c.DataDir, "enrollments.xlsx") }

// Load reads .env (if present) and then the process environment.
// PRE: none
// POST: returns a complete Config or the first invalid value
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Production:    os.Getenv("APP_ENV") == "production",
		DataDir:       envOrDefault("DATA_DIR", "data"),
		StaticDir:     envOrDefault("STATIC_DIR", "static"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: envOrDefault("MONGODB_DATABASE", "barreltech"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		FromEmail:     envOrDefault("FROM_EMAIL", "noreply@barreltech.local"),
		CompanyEmail:  envOrDefault("COMPANY_EMAIL", "info@barreltech.local"),
		CORSOrigins:   splitList(envOrDefault("CORS_ORIGINS", "*")),
		Courses:       splitList(os.Getenv("COURSES")),
		FormEndpoint:  envOrDefault("FORM_ENDPOINT", "/api/enroll-sqlite"),
	}
	if len(cfg.Courses) == 0 {
		cfg.Courses = DefaultCourses
	}

	var err error
	if cfg.Port, err = envInt("PORT", 3000); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = envInt("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = parseLevel(envOrDefault("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.CSRFKey, err = loadCSRFKey(cfg.Production); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadCSRFKey reads the CSRF secret from CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey(production bool) ([]byte, error) {
	if keyHex := os.Getenv("CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "set CSRF_KEY so form tokens survive restarts")
	return key, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
