// Package healthreport provides the save_health_report tool, persisting a
// user's wellbeing record through the report store.
package healthreport

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/smartroute/envmcp/llmutils"
	"github.com/smartroute/envmcp/schema"
	"github.com/smartroute/envmcp/store"
	"github.com/smartroute/envmcp/toolmodel"
	"github.com/smartroute/envmcp/tools"

	mcp "github.com/metoro-io/mcp-golang"
)

var logger = xlog.NewPackageLogger("github.com/smartroute/envmcp", "healthreport")

const ToolName = "save_health_report"

var validate = validator.New()

// Request represents the tool input.
type Request struct {
	Name     string `json:"name" yaml:"Name" validate:"required" jsonschema:"title=Name,description=Name of the person reporting."`
	Mood     string `json:"mood" yaml:"Mood" validate:"required" jsonschema:"title=Mood,description=Current mood."`
	Activity string `json:"activity" yaml:"Activity" validate:"required" jsonschema:"title=Activity,description=Current or planned activity."`
	City     string `json:"city" yaml:"City" validate:"required" jsonschema:"title=City,description=City the report is tied to."`
}

// Result confirms the saved report.
type Result struct {
	Status string              `json:"status"`
	ID     string              `json:"id"`
	Report *store.HealthReport `json:"data"`
}

func (r *Result) GetContent() string {
	return llmutils.ToJSON(r)
}

// Tool persists health reports.
type Tool struct {
	name        string
	description string
	funcParams  any

	reports store.Reports
}

var _ tools.MCPTool[Request] = (*Tool)(nil)

func New(reports store.Reports) (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Save a user's health report (name, mood, activity, city).",
		reports:     reports,
		funcParams:  sc.Parameters,
	}
	return tool, nil
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

func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.WithMessage(err, "invalid request")
	}

	report := &store.HealthReport{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Mood:      req.Mood,
		Activity:  req.Activity,
		City:      req.City,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.reports.Save(ctx, report); err != nil {
		return nil, errors.WithMessage(err, "failed to save health report")
	}

	logger.ContextKV(ctx, xlog.DEBUG, "report", report.ID, "city", report.City)
	return &Result{
		Status: "saved",
		ID:     report.ID,
		Report: report,
	}, nil
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
