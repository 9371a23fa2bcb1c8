package telemetry

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestProvider(t *testing.T) (*Provider, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	p, err := NewProvider(
		sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	)
	require.NoError(t, err)
	return p, spans, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMetrics_CountersSkipZero(t *testing.T) {
	p, _, reader := newTestProvider(t)
	ctx := context.Background()

	p.Metrics.SetLogged(ctx, false)
	p.Metrics.SetLogged(ctx, true)
	p.Metrics.PersonalRecordsSet(ctx, 2)
	p.Metrics.AchievementsAwarded(ctx, 0)
	p.Metrics.ChallengesCompleted(ctx, 1)

	got := collect(t, reader)

	sets := got["ironlog.sets.logged"].(metricdata.Sum[int64])
	assert.Len(t, sets.DataPoints, 2, "one series per warmup flag")
	assert.EqualValues(t, 2, got["ironlog.personal_records.set"].(metricdata.Sum[int64]).DataPoints[0].Value)
	assert.EqualValues(t, 1, got["ironlog.challenges.completed"].(metricdata.Sum[int64]).DataPoints[0].Value)
	_, recorded := got["ironlog.achievements.awarded"]
	assert.False(t, recorded)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.SetLogged(ctx, false) })
}

func TestFiberMiddleware_NamesSpanAfterRoute(t *testing.T) {
	p, spans, reader := newTestProvider(t)

	app := fiber.New()
	app.Use(p.FiberMiddleware())
	app.Post("/v1/me/sessions/:id/sets", func(c *fiber.Ctx) error {
		c.Set("X-Idempotent-Replay", "true")
		return c.SendStatus(fiber.StatusCreated)
	})

	req := httptest.NewRequest("POST", "/v1/me/sessions/01HZX/sets", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "POST /v1/me/sessions/:id/sets", ended[0].Name())
	attrs := attribute.NewSet(ended[0].Attributes()...)
	route, _ := attrs.Value("http.route")
	assert.Equal(t, "/v1/me/sessions/:id/sets", route.AsString())
	correlation, _ := attrs.Value("ironlog.correlation_id")
	assert.Equal(t, "abc-123", correlation.AsString())

	hist := collect(t, reader)["ironlog.http.server.duration"].(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	replayed, _ := hist.DataPoints[0].Attributes.Value("ironlog.idempotent_replay")
	assert.True(t, replayed.AsBool())
	status, _ := hist.DataPoints[0].Attributes.Value("http.status_code")
	assert.EqualValues(t, 201, status.AsInt64())
}

func TestInitialize_DisabledStillUsable(t *testing.T) {
	p, err := Initialize(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NotPanics(t, func() { p.Metrics.SetLogged(context.Background(), false) })
	assert.NoError(t, p.Shutdown(context.Background()))

	var none *Provider
	assert.NoError(t, none.Shutdown(context.Background()))
}
