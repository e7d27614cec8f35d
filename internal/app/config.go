package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig.
const (
	EnvDBPath            = "FITPLATE_DB"
	EnvUser              = "FITPLATE_USER"
	EnvLogLevel          = "FITPLATE_LOG_LEVEL"
	EnvKafkaBrokers      = "FITPLATE_KAFKA_BROKERS"
	EnvAchievementsTopic = "FITPLATE_KAFKA_ACHIEVEMENTS_TOPIC"
	EnvHealthTopic       = "FITPLATE_KAFKA_HEALTH_TOPIC"
	EnvWidgetDir         = "FITPLATE_WIDGET_DIR"
	EnvHTTPAddr          = "FITPLATE_HTTP_ADDR"
	EnvSerializeByDay    = "FITPLATE_SERIALIZE_BY_DAY"
	EnvMinValidDays      = "FITPLATE_MIN_VALID_DAYS"
)

// Config is the process configuration. Pointer fields are unset when the
// environment does not mention them, so stored settings can fill them in.
type Config struct {
	DBPath            string
	UserID            string
	LogLevel          string
	KafkaBrokers      []string
	AchievementsTopic string
	HealthTopic       string
	WidgetDir         string
	HTTPAddr          string
	SerializeByDay    *bool
	MinValidDays      *int
}

// LoadConfig reads envFile (when it exists) into the environment without
// overriding variables already set, then parses the FITPLATE_* variables.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg := Config{
		DBPath:            strings.TrimSpace(os.Getenv(EnvDBPath)),
		UserID:            strings.TrimSpace(os.Getenv(EnvUser)),
		LogLevel:          envOr(EnvLogLevel, "warn"),
		AchievementsTopic: envOr(EnvAchievementsTopic, "fitplate.achievements"),
		HealthTopic:       envOr(EnvHealthTopic, "fitplate.health"),
		WidgetDir:         strings.TrimSpace(os.Getenv(EnvWidgetDir)),
		HTTPAddr:          envOr(EnvHTTPAddr, "127.0.0.1:8080"),
	}
	for _, b := range strings.Split(os.Getenv(EnvKafkaBrokers), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSerializeByDay)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q", EnvSerializeByDay, v)
		}
		cfg.SerializeByDay = &b
	}
	if v := strings.TrimSpace(os.Getenv(EnvMinValidDays)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid %s %q", EnvMinValidDays, v)
		}
		cfg.MinValidDays = &n
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
