package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys.
const (
	AttrTransport   = attribute.Key("oneway.transport")
	AttrOperation   = attribute.Key("oneway.operation")
	AttrRequestID   = attribute.Key("oneway.request_id")
	AttrErrorCode   = attribute.Key("oneway.error_code")
	AttrHTTPStatus  = attribute.Key("http.response.status_code")
	AttrCommandName = attribute.Key("oneway.command")
)
