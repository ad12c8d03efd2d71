package telemetry

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// TracerName is the instrumentation scope of oneway spans.
const TracerName = "github.com/felixgeelhaar/oneway"

// Tracer returns the oneway tracer from tp.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	return tp.Tracer(TracerName)
}

// RecordError marks span as failed and tags it with the error code.
func RecordError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := errors.CodeOf(err); code != "" {
		span.SetAttributes(AttrErrorCode.String(string(code)))
	}
}
