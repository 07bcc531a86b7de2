package tools_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroute/envmcp/store"
	"github.com/smartroute/envmcp/tools"
	"github.com/smartroute/envmcp/tools/airquality"
	"github.com/smartroute/envmcp/tools/envsummary"
	"github.com/smartroute/envmcp/tools/geolocate"
	"github.com/smartroute/envmcp/tools/healthreport"
	"github.com/smartroute/envmcp/tools/weather"
)

// fakeRegistrator records registered tool names.
type fakeRegistrator struct {
	names []string
}

func (f *fakeRegistrator) RegisterTool(name string, _ string, _ any) error {
	f.names = append(f.names, name)
	return nil
}

func Test_RegisterMCP(t *testing.T) {
	location, err := geolocate.New()
	require.NoError(t, err)
	forecast, err := weather.New()
	require.NoError(t, err)
	air, err := airquality.New("testkey")
	require.NoError(t, err)
	summary, err := envsummary.New(location, forecast, air)
	require.NoError(t, err)
	report, err := healthreport.New(store.NewMemoryStore())
	require.NoError(t, err)

	reg := &fakeRegistrator{}
	for _, tool := range []tools.IMCPTool{location, forecast, air, summary, report} {
		require.NoError(t, tool.RegisterMCP(reg))
	}

	assert.Equal(t, []string{
		"get_location",
		"get_weather",
		"get_air_quality",
		"summarize_environment",
		"save_health_report",
	}, reg.names)
}

func Test_GetDescriptions(t *testing.T) {
	location, err := geolocate.New()
	require.NoError(t, err)
	forecast, err := weather.New()
	require.NoError(t, err)

	d := tools.GetDescriptions(location, forecast)
	assert.Contains(t, d, "get_location")
	assert.Contains(t, d, "get_weather")
	assert.Contains(t, d, "```json")
}
