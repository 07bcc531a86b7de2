package healthreport_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartroute/envmcp/llmutils"
	"github.com/smartroute/envmcp/store"
	"github.com/smartroute/envmcp/toolmodel"
	"github.com/smartroute/envmcp/tools/healthreport"
)

func Test_Tool(t *testing.T) {
	ctx := context.Background()
	reports := store.NewMemoryStore()

	tool, err := healthreport.New(reports)
	require.NoError(t, err)

	assert.Equal(t, healthreport.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), "health report")

	req := &healthreport.Request{
		Name:     gofakeit.Name(),
		Mood:     "relaxed",
		Activity: "cycling",
		City:     gofakeit.City(),
	}

	res, err := tool.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "saved", res.Status)
	assert.NotEmpty(t, res.ID)
	require.NotNil(t, res.Report)
	assert.Equal(t, req.Name, res.Report.Name)
	assert.Equal(t, req.City, res.Report.City)
	assert.False(t, res.Report.CreatedAt.IsZero())

	saved, err := reports.List(ctx, req.City)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, res.ID, saved[0].ID)

	out, err := tool.Call(ctx, llmutils.ToJSON(req))
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "saved", payload["status"])

	// two invocations, two independent records
	saved, err = reports.List(ctx, req.City)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.NotEqual(t, saved[0].ID, saved[1].ID)
}

func Test_Tool_Invalid(t *testing.T) {
	ctx := context.Background()

	tool, err := healthreport.New(store.NewMemoryStore())
	require.NoError(t, err)

	_, err = tool.Call(ctx, "plain string")
	assert.True(t, errors.Is(err, toolmodel.ErrFailedUnmarshalInput))

	// missing fields fail validation, reported in the payload
	out, err := tool.Call(ctx, `{"name":"Ann"}`)
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Contains(t, payload["error"], "invalid request")
}
