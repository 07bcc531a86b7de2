// Package config loads the process configuration for the envmcp server.
// Values are read once at startup; tools receive them through their
// constructors and never consult the environment on their own.
package config

import (
	"os"

	"github.com/effective-security/x/values"
)

// Config holds the upstream endpoints and credentials for all tools.
type Config struct {
	// OpenAQAPIKey authenticates station lookups against OpenAQ v3.
	// Required by the air-quality tool only.
	OpenAQAPIKey string

	// Upstream base URLs, overridable for tests and proxies.
	GeoBaseURL        string
	WeatherBaseURL    string
	GeocodingBaseURL  string
	AirQualityBaseURL string
	ModeledBaseURL    string

	// Redis settings for the health-report store.
	// When RedisAddr is empty an in-memory store is used.
	RedisAddr   string
	RedisPrefix string
}

// FromEnv reads the configuration from the process environment,
// applying defaults for everything but the OpenAQ API key.
func FromEnv() *Config {
	return &Config{
		OpenAQAPIKey:      os.Getenv("OPENAQ_API_KEY"),
		GeoBaseURL:        values.StringsCoalesce(os.Getenv("GEO_BASE_URL"), "https://ipapi.co"),
		WeatherBaseURL:    values.StringsCoalesce(os.Getenv("WEATHER_BASE_URL"), "https://api.open-meteo.com"),
		GeocodingBaseURL:  values.StringsCoalesce(os.Getenv("GEOCODING_BASE_URL"), "https://geocoding-api.open-meteo.com"),
		AirQualityBaseURL: values.StringsCoalesce(os.Getenv("OPENAQ_BASE_URL"), "https://api.openaq.org"),
		ModeledBaseURL:    values.StringsCoalesce(os.Getenv("AIR_QUALITY_BASE_URL"), "https://air-quality-api.open-meteo.com"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPrefix:       values.StringsCoalesce(os.Getenv("REDIS_PREFIX"), "envmcp"),
	}
}
