package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 20*time.Second, cfg.PollInterval)
	assert.Equal(t, 30, cfg.PollMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 12*time.Minute, cfg.EvaluationTimeout)
	assert.Equal(t, 10.0, cfg.ObservationRadiusKm)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "bloom-evaluations", cfg.KafkaResultsTopic)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)

	assert.Equal(t, "https://power.larc.nasa.gov/api/temporal/daily/point", cfg.PowerBaseURL)
	assert.Equal(t, "https://appeears.earthdatacloud.nasa.gov/api", cfg.AppEEARSBaseURL)
	assert.Equal(t, "https://api.inaturalist.org/v1", cfg.INaturalistBaseURL)
	assert.Equal(t, "https://api.globe.gov/search/v1", cfg.GlobeBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("POLL_MAX_ATTEMPTS", "3")
	t.Setenv("OBSERVATION_RADIUS_KM", "25.5")
	t.Setenv("EARTHDATA_USERNAME", "nasa-user")
	t.Setenv("EARTHDATA_PASSWORD", "nasa-pass")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("APPEEARS_BASE_URL", "http://localhost:8081")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.PollMaxAttempts)
	assert.Equal(t, 25.5, cfg.ObservationRadiusKm)
	assert.Equal(t, "nasa-user", cfg.EarthdataUsername)
	assert.Equal(t, "nasa-pass", cfg.EarthdataPassword)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled, "brokers alone enable publishing")
	assert.Equal(t, "http://localhost:8081", cfg.AppEEARSBaseURL)
}

func TestLoad_KafkaOptOut(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad poll interval", "POLL_INTERVAL", "soon"},
		{"negative poll interval", "POLL_INTERVAL", "-5s"},
		{"bad poll attempts", "POLL_MAX_ATTEMPTS", "many"},
		{"zero poll attempts", "POLL_MAX_ATTEMPTS", "0"},
		{"bad radius", "OBSERVATION_RADIUS_KM", "wide"},
		{"negative radius", "OBSERVATION_RADIUS_KM", "-1"},
		{"enabled without brokers", "KAFKA_ENABLED", "true"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
