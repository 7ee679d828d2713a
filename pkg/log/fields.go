package log

import (
	"context"
	"time"
)

// Standard field names for consistent logging across the application
const (
	FieldTimestamp = "timestamp"
	FieldLevel     = "level"
	FieldMessage   = "message"
	FieldError     = "error"

	// Request/Response fields
	FieldRequestID    = "request_id"
	FieldUserID       = "user_id"
	FieldSessionID    = "session_id"
	FieldTraceID      = "trace_id"
	FieldSpanID       = "span_id"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldResponseTime = "response_time"
	FieldResponseSize = "response_size"
	FieldClientIP     = "client_ip"
	FieldUserAgent    = "user_agent"
	FieldReferer      = "referer"

	// Service fields
	FieldService     = "service"
	FieldVersion     = "version"
	FieldComponent   = "component"
	FieldEnvironment = "environment"

	// Database fields
	FieldDatabase     = "database"
	FieldTable        = "table"
	FieldStatement    = "statement"
	FieldRowsAffected = "rows_affected"
)

// RequestFields creates standard request logging fields
func RequestFields(requestID, userID, method, path string) []Field {
	return []Field{
		String(FieldRequestID, requestID),
		String(FieldUserID, userID),
		String(FieldMethod, method),
		String(FieldPath, path),
	}
}

// ResponseFields creates standard response logging fields
func ResponseFields(statusCode int, responseSize int64, duration time.Duration) []Field {
	return []Field{
		Int(FieldStatusCode, statusCode),
		Int64(FieldResponseSize, responseSize),
		Duration(FieldResponseTime, duration),
	}
}

// DatabaseFields creates standard database logging fields
func DatabaseFields(database, table, statement string, rowsAffected int64) []Field {
	return []Field{
		String(FieldDatabase, database),
		String(FieldTable, table),
		String(FieldStatement, statement),
		Int64(FieldRowsAffected, rowsAffected),
	}
}

// StartupFields creates fields for the application start entry
func StartupFields(appName, version, environment string, startTime time.Time) []Field {
	return []Field{
		String(FieldService, appName),
		String(FieldVersion, version),
		String(FieldEnvironment, environment),
		Time("start_time", startTime),
	}
}

type requestIDKey struct{}

// WithRequestID stores the request id in ctx so that WithContext loggers pick it up.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
