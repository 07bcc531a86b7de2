// Package weather provides the get_weather tool, reading current conditions
// for a coordinate pair from the Open-Meteo forecast API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/smartroute/envmcp/llmutils"
	"github.com/smartroute/envmcp/schema"
	"github.com/smartroute/envmcp/toolmodel"
	"github.com/smartroute/envmcp/tools"

	mcp "github.com/metoro-io/mcp-golang"
)

var logger = xlog.NewPackageLogger("github.com/smartroute/envmcp", "weather")

const ToolName = "get_weather"

const defaultBaseURL = "https://api.open-meteo.com"

// Request represents the tool input.
type Request struct {
	Latitude  float64 `json:"lat" yaml:"Lat" jsonschema:"title=Latitude,description=Latitude of the location."`
	Longitude float64 `json:"lon" yaml:"Lon" jsonschema:"title=Longitude,description=Longitude of the location."`
}

// Metric is a numeric reading that renders as the literal "N/A" when the
// upstream omitted the field.
type Metric struct {
	Value *float64
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if m.Value == nil {
		return json.Marshal("N/A")
	}
	return json.Marshal(*m.Value)
}

func (m *Metric) UnmarshalJSON(bs []byte) error {
	if string(bs) == `"N/A"` {
		m.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(bs, &v); err != nil {
		return err
	}
	m.Value = &v
	return nil
}

func (m Metric) String() string {
	if m.Value == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*m.Value, 'f', -1, 64)
}

// Reading represents current conditions. Every field is present in the
// rendered JSON, either as a number or as "N/A".
type Reading struct {
	Temperature Metric `json:"temperature" yaml:"Temperature" jsonschema:"title=Temperature,description=Current temperature in Celsius."`
	Humidity    Metric `json:"humidity" yaml:"Humidity" jsonschema:"title=Humidity,description=Current relative humidity in percent."`
	WindSpeed   Metric `json:"wind_speed" yaml:"WindSpeed" jsonschema:"title=Wind Speed,description=Current wind speed in km/h."`
}

func (r *Reading) GetContent() string {
	return llmutils.ToJSON(r)
}

// Tool reads current weather from the Open-Meteo forecast API.
// No API key is required.
type Tool struct {
	name        string
	description string
	funcParams  any

	baseURL    string
	httpClient *http.Client
}

var _ tools.MCPTool[Request] = (*Tool)(nil)

func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Get current weather (temperature, humidity, wind speed) for the given coordinates.",
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		funcParams:  sc.Parameters,
	}
	return tool, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	if baseURL != "" {
		t.baseURL = baseURL
	}
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

func (t *Tool) Run(ctx context.Context, req *Request) (*Reading, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%v", req.Latitude))
	q.Set("longitude", fmt.Sprintf("%v", req.Longitude))
	q.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m")

	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := t.httpClient.Do(hr)
	if err != nil {
		return nil, errors.Wrap(err, "weather request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read weather response")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode weather response")
	}

	current, ok := payload["current"].(map[string]any)
	if !ok || len(current) == 0 {
		return nil, errors.Errorf("no weather data returned: %s", string(body))
	}

	return &Reading{
		Temperature: metricFrom(current, "temperature_2m"),
		Humidity:    metricFrom(current, "relative_humidity_2m"),
		WindSpeed:   metricFrom(current, "wind_speed_10m"),
	}, nil
}

func metricFrom(section map[string]any, key string) Metric {
	if v, ok := section[key].(float64); ok {
		return Metric{Value: &v}
	}
	return Metric{}
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", toolmodel.ErrFailedUnmarshalInput
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "tool", t.name, "err", err.Error())
		return llmutils.ToJSON(map[string]string{"error": err.Error()}), nil
	}
	return out.GetContent(), nil
}

func (t *Tool) RegisterMCP(registrator tools.McpServerRegistrator) error {
	return registrator.RegisterTool(t.name, t.description,
		func(ctx context.Context, req Request) (*mcp.ToolResponse, error) {
			return t.RunMCP(ctx, &req)
		})
}

func (t *Tool) RunMCP(ctx context.Context, req *Request) (*mcp.ToolResponse, error) {
	out, err := t.Run(ctx, req)
	if err != nil {
		return mcp.NewToolResponse(mcp.NewTextContent(llmutils.ToJSON(map[string]string{"error": err.Error()}))), nil
	}
	return mcp.NewToolResponse(mcp.NewTextContent(out.GetContent())), nil
}
