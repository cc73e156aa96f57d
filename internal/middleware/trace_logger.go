package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// loggerKey is the context key for the logger
type loggerKey struct{}

// renderIDKey is the context key for the render pass ID
type renderIDKey struct{}

// WithRenderContext returns middleware that assigns every request a render
// pass ID and adds it, plus any trace IDs, to the logger in context.
// Responses echo the render ID so a dashboard payload can be matched back to
// its log lines and spans.
func WithRenderContext(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			renderID := uuid.NewString()
			reqLogger := logger.With(zap.String("render_id", renderID))

			// Get trace context from the request
			span := trace.SpanFromContext(r.Context())
			if span.SpanContext().IsValid() {
				reqLogger = reqLogger.With(
					zap.String("trace_id", span.SpanContext().TraceID().String()),
					zap.String("span_id", span.SpanContext().SpanID().String()),
				)
			}

			ctx := context.WithValue(r.Context(), loggerKey{}, reqLogger)
			ctx = context.WithValue(ctx, renderIDKey{}, renderID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggerFromContext retrieves the logger from context
// If no logger is found, returns the provided fallback logger
func LoggerFromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	// If no logger in context, try to add trace ID from span
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return fallback.With(
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return fallback
}

// LoggerFromRequest is a convenience function to get logger from HTTP request
func LoggerFromRequest(r *http.Request, fallback *zap.Logger) *zap.Logger {
	return LoggerFromContext(r.Context(), fallback)
}

// RenderIDFromRequest returns the render pass ID assigned to the request.
// A fresh ID is generated when the middleware did not run, so handlers can
// rely on always having one (e.g. under httptest).
func RenderIDFromRequest(r *http.Request) string {
	if id, ok := r.Context().Value(renderIDKey{}).(string); ok {
		return id
	}
	return uuid.NewString()
}
