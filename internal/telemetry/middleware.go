package telemetry

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// FiberMiddleware opens a server span per request and records its latency.
// The span is renamed to "METHOD /route/:param" once routing has matched, so
// ids in the path never reach span names or metric labels.
func (p *Provider) FiberMiddleware() fiber.Handler {
	tracer := otel.Tracer(tracerName)
	var metrics *Metrics
	if p != nil {
		tracer = p.tracer
		metrics = p.Metrics
	}
	propagator := otel.GetTextMapPropagator()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		ctx := propagator.Extract(c.Context(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.url", c.OriginalURL()),
				attribute.String("http.user_agent", c.Get("User-Agent")),
				attribute.String("http.client_ip", c.IP()),
			),
		)
		defer span.End()

		if correlationID := c.Get("X-Correlation-ID"); correlationID != "" {
			span.SetAttributes(attribute.String("ironlog.correlation_id", correlationID))
		}
		c.SetUserContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		err := c.Next()

		// With an error the handler chain stopped early; the error handler
		// writes the final status after this returns.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Route().Path
		replayed := c.GetRespHeader("X-Idempotent-Replay") == "true"

		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Bool("ironlog.idempotent_replay", replayed),
		)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= 500:
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}

		metrics.RequestServed(ctx, c.Method(), route, status, replayed, time.Since(start))
		return err
	}
}

// SetUserAttribute tags the request span with the authenticated user.
func SetUserAttribute(c *fiber.Ctx, userID string) {
	trace.SpanFromContext(c.UserContext()).SetAttributes(attribute.String("enduser.id", userID))
}
