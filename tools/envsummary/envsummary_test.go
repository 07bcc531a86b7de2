package envsummary_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroute/envmcp/toolmodel"
	"github.com/smartroute/envmcp/tools/envsummary"
)

// stubTool is a scripted ITool for composing the summarizer in tests.
type stubTool struct {
	name      string
	lastInput string
	out       string
	err       error
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Parameters() any     { return nil }

func (s *stubTool) Call(_ context.Context, input string) (string, error) {
	s.lastInput = input
	return s.out, s.err
}

func Test_Tool(t *testing.T) {
	location := &stubTool{name: "get_location", out: `{"city":"Berlin","lat":52.52,"lon":13.405}`}
	weather := &stubTool{name: "get_weather", out: `{"temperature":21.4,"humidity":63,"wind_speed":10.8}`}
	air := &stubTool{name: "get_air_quality", out: `{"requested_city":"Berlin","source":"OpenAQ Station Data","stations_found":1,"stations":[{"name":"Berlin Mitte","parameters":["pm25"]}]}`}

	ctx := context.Background()

	tool, err := envsummary.New(location, weather, air)
	require.NoError(t, err)

	assert.Equal(t, envsummary.ToolName, tool.Name())

	res, err := tool.Run(ctx, &envsummary.Request{City: "Berlin"})
	require.NoError(t, err)

	// the resolved coordinates are forwarded to the weather tool
	var fwd map[string]float64
	require.NoError(t, json.Unmarshal([]byte(weather.lastInput), &fwd))
	assert.Equal(t, 52.52, fwd["lat"])
	assert.Equal(t, 13.405, fwd["lon"])

	assert.Contains(t, air.lastInput, `"Berlin"`)

	assert.Contains(t, res.Summary, "📍 City: Berlin")
	assert.Contains(t, res.Summary, "🌡️ Temp: 21.4°C")
	assert.Contains(t, res.Summary, "💨 Wind: 10.8 km/h")
	// get_air_quality never emits nearest_city, so the indicator is N/A
	assert.Contains(t, res.Summary, "🫁 Air Quality: N/A")

	out, err := tool.Call(ctx, `{"city":"Berlin"}`)
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Contains(t, payload["summary"], "Berlin")
}

func Test_Tool_NearestCityPassthrough(t *testing.T) {
	location := &stubTool{name: "get_location", out: `{"city":"Berlin","lat":1,"lon":2}`}
	weather := &stubTool{name: "get_weather", out: `{"temperature":20,"humidity":50,"wind_speed":5}`}
	air := &stubTool{name: "get_air_quality", out: `{"nearest_city":"Berlin Mitte"}`}

	tool, err := envsummary.New(location, weather, air)
	require.NoError(t, err)

	res, err := tool.Run(context.Background(), &envsummary.Request{City: "Berlin"})
	require.NoError(t, err)
	assert.Contains(t, res.Summary, "🫁 Air Quality: Berlin Mitte")
}

func Test_Tool_DegradesToNA(t *testing.T) {
	location := &stubTool{name: "get_location", out: `not json at all`}
	weather := &stubTool{name: "get_weather", err: errors.New("boom")}
	air := &stubTool{name: "get_air_quality", out: `{"error":"missing OpenAQ API key"}`}

	ctx := context.Background()

	tool, err := envsummary.New(location, weather, air)
	require.NoError(t, err)

	// no upstream failure escapes the summarizer
	res, err := tool.Run(ctx, &envsummary.Request{City: "Berlin"})
	require.NoError(t, err)

	// the location payload failed to decode, so 0,0 was forwarded
	var fwd map[string]float64
	require.NoError(t, json.Unmarshal([]byte(weather.lastInput), &fwd))
	assert.Equal(t, float64(0), fwd["lat"])
	assert.Equal(t, float64(0), fwd["lon"])

	assert.Contains(t, res.Summary, "📍 City: Berlin")
	assert.Contains(t, res.Summary, "🌡️ Temp: N/A°C")
	assert.Contains(t, res.Summary, "💨 Wind: N/A km/h")
	assert.Contains(t, res.Summary, "🫁 Air Quality: N/A")
}

func Test_Tool_PreSerializedLocation(t *testing.T) {
	// the hosting transport may hand over the location result re-serialized
	// as an escaped JSON string; the lenient decode still resolves it
	location := &stubTool{name: "get_location", out: `"{\"city\":\"Berlin\",\"lat\":52.52,\"lon\":13.405}"`}
	weather := &stubTool{name: "get_weather", out: `{"temperature":20,"humidity":50,"wind_speed":5}`}
	air := &stubTool{name: "get_air_quality", out: `{}`}

	tool, err := envsummary.New(location, weather, air)
	require.NoError(t, err)

	_, err = tool.Run(context.Background(), &envsummary.Request{City: "Berlin"})
	require.NoError(t, err)

	var fwd map[string]float64
	require.NoError(t, json.Unmarshal([]byte(weather.lastInput), &fwd))
	assert.Equal(t, 52.52, fwd["lat"])
}

func Test_Tool_BadInput(t *testing.T) {
	tool, err := envsummary.New(&stubTool{}, &stubTool{}, &stubTool{})
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), "plain string")
	assert.True(t, errors.Is(err, toolmodel.ErrFailedUnmarshalInput))

	_, err = tool.Run(context.Background(), &envsummary.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}
