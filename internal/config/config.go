package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Earthdata credentials for the vegetation-index provider. Optional at
	// startup; a vegetation fetch without them fails with an auth error.
	EarthdataUsername string
	EarthdataPassword string

	// Gemini descriptive-text provider. Optional; without a key every
	// description degrades to the fixed fallback string.
	GeminiAPIKey string
	GeminiModel  string

	ObservationRadiusKm float64
	PollInterval        time.Duration
	PollMaxAttempts     int
	ProviderTimeout     time.Duration
	EvaluationTimeout   time.Duration

	// Kafka result publishing (optional, feature-flagged).
	KafkaBrokers      []string
	KafkaResultsTopic string
	KafkaEnabled      bool

	// Provider base URLs, overridable for tests.
	PowerBaseURL       string
	AppEEARSBaseURL    string
	INaturalistBaseURL string
	GlobeBaseURL       string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := durationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := durationOrDefault("POLL_INTERVAL", 20*time.Second)
	if err != nil {
		return nil, err
	}
	providerTimeout, err := durationOrDefault("PROVIDER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	// Must cover the full polling budget (30 × 20s) with headroom.
	evaluationTimeout, err := durationOrDefault("EVALUATION_TIMEOUT", 12*time.Minute)
	if err != nil {
		return nil, err
	}
	pollMaxAttempts, err := intOrDefault("POLL_MAX_ATTEMPTS", 30)
	if err != nil {
		return nil, err
	}
	radius, err := floatOrDefault("OBSERVATION_RADIUS_KM", 10)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		EarthdataUsername: os.Getenv("EARTHDATA_USERNAME"),
		EarthdataPassword: os.Getenv("EARTHDATA_PASSWORD"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),

		ObservationRadiusKm: radius,
		PollInterval:        pollInterval,
		PollMaxAttempts:     pollMaxAttempts,
		ProviderTimeout:     providerTimeout,
		EvaluationTimeout:   evaluationTimeout,

		KafkaBrokers:      kafkaBrokers,
		KafkaResultsTopic: envOrDefault("KAFKA_RESULTS_TOPIC", "bloom-evaluations"),
		KafkaEnabled:      kafkaEnabled,

		PowerBaseURL:       envOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal/daily/point"),
		AppEEARSBaseURL:    envOrDefault("APPEEARS_BASE_URL", "https://appeears.earthdatacloud.nasa.gov/api"),
		INaturalistBaseURL: envOrDefault("INATURALIST_BASE_URL", "https://api.inaturalist.org/v1"),
		GlobeBaseURL:       envOrDefault("GLOBE_BASE_URL", "https://api.globe.gov/search/v1"),
	}

	if cfg.PollMaxAttempts <= 0 {
		return nil, errors.New("POLL_MAX_ATTEMPTS must be positive")
	}
	if cfg.ObservationRadiusKm <= 0 {
		return nil, errors.New("OBSERVATION_RADIUS_KM must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func intOrDefault(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func floatOrDefault(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
