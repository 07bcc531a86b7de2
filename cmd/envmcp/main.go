// Command envmcp runs the SmartRoute environment MCP server: location,
// weather, air-quality, summary and health-report tools over stdio.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/effective-security/xlog"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/smartroute/envmcp/config"
	"github.com/smartroute/envmcp/store"
	"github.com/smartroute/envmcp/tools"
	"github.com/smartroute/envmcp/tools/airquality"
	"github.com/smartroute/envmcp/tools/envsummary"
	"github.com/smartroute/envmcp/tools/geolocate"
	"github.com/smartroute/envmcp/tools/healthreport"
	"github.com/smartroute/envmcp/tools/weather"

	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"
)

var logger = xlog.NewPackageLogger("github.com/smartroute/envmcp", "cmd")

func main() {
	// stdout carries the MCP transport, keep logs on stderr
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	xlog.SetGlobalLogLevel(xlog.INFO)

	if err := run(); err != nil {
		logger.KV(xlog.ERROR, "err", err.Error())
		os.Exit(1)
	}
}

func run() error {
	// .env is optional, the environment wins
	_ = godotenv.Load()
	cfg := config.FromEnv()

	var reports store.Reports
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		reports = store.NewRedisStore(client, cfg.RedisPrefix)
	} else {
		reports = store.NewMemoryStore()
	}

	location, err := geolocate.New()
	if err != nil {
		return err
	}
	location.WithBaseURL(cfg.GeoBaseURL)

	forecast, err := weather.New()
	if err != nil {
		return err
	}
	forecast.WithBaseURL(cfg.WeatherBaseURL)

	air, err := airquality.New(cfg.OpenAQAPIKey)
	if err != nil {
		return err
	}
	air.WithGeocodingBaseURL(cfg.GeocodingBaseURL).
		WithStationsBaseURL(cfg.AirQualityBaseURL).
		WithModeledBaseURL(cfg.ModeledBaseURL)

	summary, err := envsummary.New(location, forecast, air)
	if err != nil {
		return err
	}

	report, err := healthreport.New(reports)
	if err != nil {
		return err
	}

	server := mcp.NewServer(stdio.NewStdioServerTransport(),
		mcp.WithName("SmartRoute_MCP_Server"),
		mcp.WithVersion("1.0.0"))

	for _, tool := range []tools.IMCPTool{location, forecast, air, summary, report} {
		if err := tool.RegisterMCP(server); err != nil {
			return err
		}
	}

	if err := server.Serve(); err != nil {
		return err
	}
	logger.KV(xlog.INFO, "status", "serving", "transport", "stdio")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}
