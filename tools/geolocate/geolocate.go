// Package geolocate provides the get_location tool, resolving the caller's
// approximate position from an IP-geolocation service.
package geolocate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/smartroute/envmcp/llmutils"
	"github.com/smartroute/envmcp/schema"
	"github.com/smartroute/envmcp/toolmodel"
	"github.com/smartroute/envmcp/tools"

	mcp "github.com/metoro-io/mcp-golang"
)

var logger = xlog.NewPackageLogger("github.com/smartroute/envmcp", "geolocate")

const ToolName = "get_location"

const defaultBaseURL = "https://ipapi.co"

// Request represents the tool input. The tool takes no arguments.
type Request struct{}

// Location represents the resolved position.
type Location struct {
	City string  `json:"city" yaml:"City" jsonschema:"title=City,description=The resolved city name."`
	Lat  float64 `json:"lat" yaml:"Lat" jsonschema:"title=Latitude,description=The resolved latitude."`
	Lon  float64 `json:"lon" yaml:"Lon" jsonschema:"title=Longitude,description=The resolved longitude."`
}

func (l *Location) GetContent() string {
	return llmutils.ToJSON(l)
}

// Tool resolves the caller's approximate location from its public IP.
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
		description: "Get user's approximate location using IP-based geolocation.",
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

func (t *Tool) Run(ctx context.Context, _ *Request) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/json/", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "geolocation request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read geolocation response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		City      string  `json:"city"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.Wrap(err, "failed to decode geolocation response")
	}

	res := &Location{
		City: data.City,
		Lat:  data.Latitude,
		Lon:  data.Longitude,
	}
	if res.City == "" {
		res.City = "Unknown"
	}
	return res, nil
}

// Call executes the tool. Upstream failures are reported in the result
// payload rather than as a call error, so a failing lookup never tears
// down the hosting session.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if input != "" {
		if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
			return "", toolmodel.ErrFailedUnmarshalInput
		}
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
