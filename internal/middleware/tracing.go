package middleware

import (
	"context"
	"fmt"

	"unnest/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware adds OpenTelemetry tracing to requests
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		spanName := fmt.Sprintf("%s %s", c.Method(), c.Path())
		ctx, span := observability.Tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
				attribute.String("http.ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		if requestID, ok := c.Locals(LocalRequestID).(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		if span.SpanContext().HasTraceID() {
			c.Locals(LocalTraceID, traceID)
			c.Set("X-Trace-ID", traceID)
			ctx = context.WithValue(ctx, TraceIDKey, traceID)
		}

		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil && status >= fiber.StatusInternalServerError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if userID, ok := c.Locals(LocalUserID).(uint); ok && userID != 0 {
			span.SetAttributes(attribute.Int64("user.id", int64(userID)))
		}

		return err
	}
}
