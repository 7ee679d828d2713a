// Package stdout is the zap-backed JSON logging driver. Importing it registers
// the "stdout" driver with pkg/log.
package stdout

import (
	"context"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/folio-app/folio/pkg/log"
)

func init() {
	log.RegisterDriver("stdout", func(fc *log.FactoryConfig, name string) (log.Logger, error) {
		return New(&Config{
			Level:            fc.Level,
			TimeFormat:       fc.TimeFormat,
			EnableCaller:     fc.EnableCaller,
			EnableStacktrace: fc.EnableStacktrace,
			Development:      fc.Development,
			Name:             name,
		})
	})
}

// StdoutLogger implements log.Logger with zap, one JSON object per line.
type StdoutLogger struct {
	zapLogger *zap.Logger
	config    *Config
}

// Config represents the configuration options for StdoutLogger.
type Config struct {
	Level log.Level `json:"level"`

	// TimeFormat for timestamps, RFC3339 by default
	TimeFormat string `json:"time_format,omitempty"`

	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"`

	// Development switches to zap's console encoder
	Development bool `json:"development"`

	// Name is recorded under the "logger" key when set
	Name string `json:"name,omitempty"`

	// Output defaults to os.Stdout
	Output io.Writer `json:"-"`
}

// DefaultConfig returns a default configuration for StdoutLogger.
func DefaultConfig() *Config {
	return &Config{
		Level:            log.InfoLevel,
		TimeFormat:       time.RFC3339,
		EnableStacktrace: true,
	}
}

// New creates a new StdoutLogger with the given configuration.
func New(config *Config) (*StdoutLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}
	out := config.Output
	if out == nil {
		out = os.Stdout
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     getTimeEncoder(config.TimeFormat),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if config.Development {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), convertLogLevel(config.Level))

	var options []zap.Option
	if config.EnableCaller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.EnableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if config.Development {
		options = append(options, zap.Development())
	}

	zapLogger := zap.New(core, options...)
	if config.Name != "" && config.Name != "default" {
		zapLogger = zapLogger.Named(config.Name)
	}

	return &StdoutLogger{zapLogger: zapLogger, config: config}, nil
}

// Debug logs a debug message with optional structured fields.
func (l *StdoutLogger) Debug(msg string, fields ...log.Field) {
	l.zapLogger.Debug(msg, convertToZapFields(fields)...)
}

// Info logs an informational message with optional structured fields.
func (l *StdoutLogger) Info(msg string, fields ...log.Field) {
	l.zapLogger.Info(msg, convertToZapFields(fields)...)
}

// Warn logs a warning message with optional structured fields.
func (l *StdoutLogger) Warn(msg string, fields ...log.Field) {
	l.zapLogger.Warn(msg, convertToZapFields(fields)...)
}

// Error logs an error message with optional structured fields.
func (l *StdoutLogger) Error(msg string, fields ...log.Field) {
	l.zapLogger.Error(msg, convertToZapFields(fields)...)
}

// Fatal logs and exits the program.
func (l *StdoutLogger) Fatal(msg string, fields ...log.Field) {
	l.zapLogger.Fatal(msg, convertToZapFields(fields)...)
}

// With creates a new logger instance with additional structured fields.
func (l *StdoutLogger) With(fields ...log.Field) log.Logger {
	return &StdoutLogger{
		zapLogger: l.zapLogger.With(convertToZapFields(fields)...),
		config:    l.config,
	}
}

// WithContext adds the request id and the active trace and span ids.
func (l *StdoutLogger) WithContext(ctx context.Context) log.Logger {
	var contextFields []log.Field

	if requestID := log.RequestIDFromContext(ctx); requestID != "" {
		contextFields = append(contextFields, log.String(log.FieldRequestID, requestID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		contextFields = append(contextFields,
			log.String(log.FieldTraceID, sc.TraceID().String()),
			log.String(log.FieldSpanID, sc.SpanID().String()))
	}

	if len(contextFields) == 0 {
		return l
	}
	return l.With(contextFields...)
}

// Sync flushes buffered entries.
func (l *StdoutLogger) Sync() error {
	return l.zapLogger.Sync()
}

func convertLogLevel(level log.Level) zapcore.Level {
	switch level {
	case log.DebugLevel:
		return zapcore.DebugLevel
	case log.InfoLevel:
		return zapcore.InfoLevel
	case log.WarnLevel:
		return zapcore.WarnLevel
	case log.ErrorLevel:
		return zapcore.ErrorLevel
	case log.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func convertToZapFields(fields []log.Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		zapFields[i] = convertToZapField(field)
	}
	return zapFields
}

func convertToZapField(field log.Field) zap.Field {
	switch v := field.Value.(type) {
	case string:
		return zap.String(field.Key, v)
	case int:
		return zap.Int(field.Key, v)
	case int64:
		return zap.Int64(field.Key, v)
	case float64:
		return zap.Float64(field.Key, v)
	case bool:
		return zap.Bool(field.Key, v)
	case time.Time:
		return zap.Time(field.Key, v)
	case time.Duration:
		return zap.Duration(field.Key, v)
	case error:
		return zap.NamedError(field.Key, v)
	default:
		return zap.Any(field.Key, v)
	}
}

func getTimeEncoder(format string) zapcore.TimeEncoder {
	switch format {
	case time.RFC3339:
		return zapcore.RFC3339TimeEncoder
	case time.RFC3339Nano:
		return zapcore.RFC3339NanoTimeEncoder
	default:
		return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format(format))
		}
	}
}
