package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartroute/envmcp/config"
)

func Test_FromEnv_Defaults(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "")
	t.Setenv("GEO_BASE_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_PREFIX", "")

	cfg := config.FromEnv()
	assert.Empty(t, cfg.OpenAQAPIKey)
	assert.Equal(t, "https://ipapi.co", cfg.GeoBaseURL)
	assert.Equal(t, "https://api.open-meteo.com", cfg.WeatherBaseURL)
	assert.Equal(t, "https://geocoding-api.open-meteo.com", cfg.GeocodingBaseURL)
	assert.Equal(t, "https://api.openaq.org", cfg.AirQualityBaseURL)
	assert.Equal(t, "https://air-quality-api.open-meteo.com", cfg.ModeledBaseURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "envmcp", cfg.RedisPrefix)
}

func Test_FromEnv_Overrides(t *testing.T) {
	t.Setenv("OPENAQ_API_KEY", "testkey")
	t.Setenv("GEO_BASE_URL", "http://localhost:8081")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PREFIX", "test")

	cfg := config.FromEnv()
	assert.Equal(t, "testkey", cfg.OpenAQAPIKey)
	assert.Equal(t, "http://localhost:8081", cfg.GeoBaseURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "test", cfg.RedisPrefix)
}
