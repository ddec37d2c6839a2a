package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "sales-service"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "server address is required")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "application name is required")
}

func TestProfiler_ProfileTypes(t *testing.T) {
	p := &Profiler{config: ProfilerConfig{}}
	assert.Equal(t, DefaultProfileTypes, p.profileTypes())

	custom := []pyroscope.ProfileType{pyroscope.ProfileCPU}
	p.config.ProfileTypes = custom
	assert.Equal(t, custom, p.profileTypes())
}

func TestSanitizeLabels(t *testing.T) {
	long := strings.Repeat("x", MaxLabelValueLength+10)
	pairs := sanitizeLabels(map[string]string{
		"route":      "/api/v1/sales/:id",
		"Method":     "POST",
		"sale_id":    "5f8b...",
		"empty":      "",
		"Long-Value": long,
		"!!!":        "dropped",
	})

	assert.Equal(t, []string{
		"long_value", long[:MaxLabelValueLength],
		"method", "POST",
		"route", "/api/v1/sales/:id",
	}, pairs)
}

func TestSanitizeLabelKey(t *testing.T) {
	assert.Equal(t, "http_route", sanitizeLabelKey("HTTP Route"))
	assert.Equal(t, "sale_number", sanitizeLabelKey("sale-number"))
	assert.Equal(t, "", sanitizeLabelKey("$%^"))
}

func TestWithProfilingLabels(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), HTTPRequestLabels("/api/v1/sales", "GET"), func(ctx context.Context) {
		called = true
		assert.NotNil(t, ctx)
	})
	assert.True(t, called)

	called = false
	WithProfilingLabels(context.Background(), nil, func(ctx context.Context) { called = true })
	assert.True(t, called)
}
