// Package airquality provides the get_air_quality tool. It geocodes the
// requested city, looks for OpenAQ monitoring stations near it, and falls
// back to Open-Meteo modeled data when no station exists.
package airquality

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"

	"github.com/smartroute/envmcp/llmutils"
	"github.com/smartroute/envmcp/schema"
	"github.com/smartroute/envmcp/toolmodel"
	"github.com/smartroute/envmcp/tools"

	mcp "github.com/metoro-io/mcp-golang"
)

var logger = xlog.NewPackageLogger("github.com/smartroute/envmcp", "airquality")

const ToolName = "get_air_quality"

const (
	defaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com"
	defaultStationsBaseURL  = "https://api.openaq.org"
	defaultModeledBaseURL   = "https://air-quality-api.open-meteo.com"

	// SourceStations tags results built from physical monitoring stations.
	SourceStations = "OpenAQ Station Data"
	// SourceModeled tags results built from the modeled fallback.
	SourceModeled = "Open-Meteo Modeled Data"

	stationRadiusMeters = 25000
	stationLimit        = 5

	modeledParameters = "pm2_5,pm10,carbon_monoxide,ozone,nitrogen_dioxide,sulphur_dioxide"
)

var validate = validator.New()

// Request represents the tool input.
type Request struct {
	City string `json:"city" yaml:"City" validate:"required" jsonschema:"title=City,description=The city to look up air quality for."`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Station describes one OpenAQ monitoring station. Country is carried as
// raw JSON since OpenAQ emits a string in v2 payloads and an object in v3.
type Station struct {
	Name        string          `json:"name"`
	City        string          `json:"city,omitempty"`
	Country     json.RawMessage `json:"country,omitempty"`
	Coordinates *Coordinates    `json:"coordinates,omitempty"`
	Parameters  []string        `json:"parameters"`
}

// Result is the tool output: exactly one of the station branch
// (StationsFound/Stations) or the modeled branch (Coordinates/Measurements)
// is populated, indicated by Source.
type Result struct {
	RequestedCity string             `json:"requested_city"`
	Source        string             `json:"source"`
	StationsFound int                `json:"stations_found,omitempty"`
	Stations      []Station          `json:"stations,omitempty"`
	Coordinates   *Coordinates       `json:"coordinates,omitempty"`
	Measurements  map[string]float64 `json:"measurements,omitempty"`
}

func (r *Result) GetContent() string {
	return llmutils.ToJSON(r)
}

// Tool resolves air quality for a city, preferring station data.
type Tool struct {
	name        string
	description string
	funcParams  any

	apiKey string

	geocodingBaseURL string
	stationsBaseURL  string
	modeledBaseURL   string
	httpClient       *http.Client
}

var _ tools.MCPTool[Request] = (*Tool)(nil)

// New creates the tool. The OpenAQ API key is injected here once;
// an empty key fails at call time with a configuration error.
func New(apiKey string) (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Get air quality for a city from OpenAQ stations, falling back to Open-Meteo modeled data when no station is nearby.",
		apiKey:      apiKey,

		geocodingBaseURL: defaultGeocodingBaseURL,
		stationsBaseURL:  defaultStationsBaseURL,
		modeledBaseURL:   defaultModeledBaseURL,
		httpClient:       &http.Client{Timeout: 10 * time.Second},
		funcParams:       sc.Parameters,
	}
	return tool, nil
}

func (t *Tool) WithGeocodingBaseURL(baseURL string) *Tool {
	if baseURL != "" {
		t.geocodingBaseURL = baseURL
	}
	return t
}

func (t *Tool) WithStationsBaseURL(baseURL string) *Tool {
	if baseURL != "" {
		t.stationsBaseURL = baseURL
	}
	return t
}

func (t *Tool) WithModeledBaseURL(baseURL string) *Tool {
	if baseURL != "" {
		t.modeledBaseURL = baseURL
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

// Geocode resolves a city name to coordinates using the Open-Meteo
// geocoding API, requesting the single best match in English.
func (t *Tool) Geocode(ctx context.Context, city string) (*Coordinates, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	body, err := t.get(ctx, t.geocodingBaseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Results []Coordinates `json:"results"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.Wrap(err, "failed to decode geocoding response")
	}
	if len(data.Results) == 0 {
		return nil, errors.Errorf("could not geocode city %q", city)
	}
	return &data.Results[0], nil
}

func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.WithMessage(err, "invalid request")
	}
	if t.apiKey == "" {
		return nil, errors.New("missing OpenAQ API key: set OPENAQ_API_KEY")
	}

	coords, err := t.Geocode(ctx, req.City)
	if err != nil {
		return nil, errors.WithMessagef(err, "geocoding failed for %s", req.City)
	}

	stations, err := t.findStations(ctx, coords)
	if err != nil {
		return nil, errors.WithMessage(err, "OpenAQ location request failed")
	}

	if len(stations) > 0 {
		logger.ContextKV(ctx, xlog.DEBUG, "city", req.City, "stations", len(stations))
		return &Result{
			RequestedCity: req.City,
			Source:        SourceStations,
			StationsFound: len(stations),
			Stations:      stations,
		}, nil
	}

	logger.ContextKV(ctx, xlog.DEBUG, "city", req.City, "fallback", "modeled")
	measurements, err := t.modeledMeasurements(ctx, coords)
	if err != nil {
		return nil, errors.WithMessagef(err, "fallback (Open-Meteo) failed for %s", req.City)
	}
	if len(measurements) == 0 {
		return nil, errors.Errorf("no air quality data available for %s", req.City)
	}

	return &Result{
		RequestedCity: req.City,
		Source:        SourceModeled,
		Coordinates:   coords,
		Measurements:  measurements,
	}, nil
}

// findStations queries OpenAQ v3 for monitoring stations within 25 km.
func (t *Tool) findStations(ctx context.Context, coords *Coordinates) ([]Station, error) {
	q := url.Values{}
	q.Set("coordinates", fmt.Sprintf("%v,%v", coords.Latitude, coords.Longitude))
	q.Set("radius", fmt.Sprintf("%d", stationRadiusMeters))
	q.Set("limit", fmt.Sprintf("%d", stationLimit))

	headers := map[string]string{"X-API-Key": t.apiKey}
	body, err := t.get(ctx, t.stationsBaseURL+"/v3/locations?"+q.Encode(), headers)
	if err != nil {
		return nil, err
	}

	var data struct {
		Results []struct {
			Name        string          `json:"name"`
			City        string          `json:"city"`
			Country     json.RawMessage `json:"country"`
			Coordinates *Coordinates    `json:"coordinates"`
			Parameters  []struct {
				Parameter string `json:"parameter"`
			} `json:"parameters"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.Wrap(err, "failed to decode locations response")
	}

	var stations []Station
	for _, st := range data.Results {
		params := make([]string, 0, len(st.Parameters))
		for _, p := range st.Parameters {
			params = append(params, p.Parameter)
		}
		stations = append(stations, Station{
			Name:        st.Name,
			City:        st.City,
			Country:     st.Country,
			Coordinates: st.Coordinates,
			Parameters:  params,
		})
	}
	return stations, nil
}

// modeledMeasurements fetches hourly modeled series for six pollutants and
// keeps the last (most recent) value of each numeric series.
func (t *Tool) modeledMeasurements(ctx context.Context, coords *Coordinates) (map[string]float64, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%v", coords.Latitude))
	q.Set("longitude", fmt.Sprintf("%v", coords.Longitude))
	q.Set("hourly", modeledParameters)

	body, err := t.get(ctx, t.modeledBaseURL+"/v1/air-quality?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Hourly map[string][]any `json:"hourly"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.Wrap(err, "failed to decode air quality response")
	}
	if len(data.Hourly) == 0 {
		return nil, nil
	}

	latest := make(map[string]float64)
	for name, series := range data.Hourly {
		if len(series) == 0 {
			continue
		}
		// the time axis and null readings are not scalar measurements
		if v, ok := series[len(series)-1].(float64); ok {
			latest[name] = v
		}
	}
	return latest, nil
}

func (t *Tool) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", toolmodel.ErrFailedUnmarshalInput
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "tool", t.name, "city", req.City, "err", err.Error())
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
