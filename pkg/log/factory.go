package log

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Factory creates and caches named loggers for one driver.
type Factory struct {
	mu            sync.RWMutex
	defaultLogger Logger
	loggers       map[string]Logger
	config        *FactoryConfig
}

// FactoryConfig represents the configuration for the logger factory.
type FactoryConfig struct {
	// DefaultDriver names a driver registered with RegisterDriver
	DefaultDriver string `json:"default_driver" yaml:"default_driver"`

	// Level sets the global minimum logging level
	Level Level `json:"level" yaml:"level"`

	// Development enables human-friendly output and caller info
	Development bool `json:"development" yaml:"development"`

	EnableCaller     bool `json:"enable_caller" yaml:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace" yaml:"enable_stacktrace"`

	// TimeFormat specifies the time format for timestamps
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

// DefaultFactoryConfig returns a default factory configuration.
func DefaultFactoryConfig() *FactoryConfig {
	return &FactoryConfig{
		DefaultDriver:    "stdout",
		Level:            InfoLevel,
		EnableStacktrace: true,
		TimeFormat:       "2006-01-02T15:04:05Z07:00", // RFC3339
	}
}

// DriverFunc builds a logger for the named component.
type DriverFunc func(config *FactoryConfig, name string) (Logger, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFunc)
)

// RegisterDriver makes a logging driver available by name. Drivers register
// themselves from init, so importing the driver package is enough.
func RegisterDriver(name string, fn DriverFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if fn == nil {
		panic("log: RegisterDriver driver is nil")
	}
	drivers[name] = fn
}

// Drivers returns the names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFactory creates a new logger factory with the given configuration.
func NewFactory(config *FactoryConfig) (*Factory, error) {
	if config == nil {
		config = DefaultFactoryConfig()
	}

	factory := &Factory{
		loggers: make(map[string]Logger),
		config:  config,
	}

	defaultLogger, err := factory.createLogger(config.DefaultDriver, "default")
	if err != nil {
		return nil, fmt.Errorf("failed to create default logger: %w", err)
	}

	factory.defaultLogger = defaultLogger
	factory.loggers["default"] = defaultLogger

	return factory, nil
}

// GetDefault returns the default logger instance.
func (f *Factory) GetDefault() Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaultLogger
}

// GetLogger returns a named logger instance, creating it if it doesn't exist.
func (f *Factory) GetLogger(name string) Logger {
	f.mu.RLock()
	if logger, exists := f.loggers[name]; exists {
		f.mu.RUnlock()
		return logger
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if logger, exists := f.loggers[name]; exists {
		return logger
	}

	logger, err := f.createLogger(f.config.DefaultDriver, name)
	if err != nil {
		return f.defaultLogger
	}

	f.loggers[name] = logger
	return logger
}

// GetComponentLogger returns a logger tagged with the component name.
func (f *Factory) GetComponentLogger(component string) Logger {
	return f.GetLogger(component).With(String(FieldComponent, component))
}

// GetRequestLogger returns a logger for a specific request with pre-configured fields.
func (f *Factory) GetRequestLogger(requestID, userID string) Logger {
	return f.GetDefault().With(
		String(FieldRequestID, requestID),
		String(FieldUserID, userID),
	)
}

func (f *Factory) createLogger(driver, name string) (Logger, error) {
	driversMu.RLock()
	fn, ok := drivers[driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported logger driver: %s", driver)
	}
	return fn(f.config, name)
}

// Shutdown flushes loggers that buffer output.
func (f *Factory) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []string
	for _, logger := range f.loggers {
		if s, ok := logger.(interface{ Sync() error }); ok {
			if err := s.Sync(); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("logger sync: %s", strings.Join(errs, "; "))
	}
	return nil
}

var (
	globalFactory   *Factory
	globalFactoryMu sync.RWMutex
)

// InitGlobalFactory replaces the global logger factory.
func InitGlobalFactory(config *FactoryConfig) error {
	factory, err := NewFactory(config)
	if err != nil {
		return err
	}
	globalFactoryMu.Lock()
	globalFactory = factory
	globalFactoryMu.Unlock()
	return nil
}

// GetGlobalFactory returns the global logger factory instance.
func GetGlobalFactory() *Factory {
	globalFactoryMu.RLock()
	defer globalFactoryMu.RUnlock()
	return globalFactory
}

// Default returns the default logger from the global factory.
func Default() Logger {
	factory := GetGlobalFactory()
	if factory == nil {
		return &fallbackLogger{name: "default"}
	}
	return factory.GetDefault()
}

// Component returns a component logger from the global factory.
func Component(component string) Logger {
	factory := GetGlobalFactory()
	if factory == nil {
		return &fallbackLogger{name: component}
	}
	return factory.GetComponentLogger(component)
}

// Request returns a request logger from the global factory.
func Request(requestID, userID string) Logger {
	factory := GetGlobalFactory()
	if factory == nil {
		return &fallbackLogger{name: "request", fields: []Field{String(FieldRequestID, requestID), String(FieldUserID, userID)}}
	}
	return factory.GetRequestLogger(requestID, userID)
}

// FromContext extracts a logger from the context, or returns the default logger.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return logger
	}
	return Default()
}

// ToContext adds a logger to the context.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"

// fallbackLogger writes plain lines to stderr until a factory is initialized.
type fallbackLogger struct {
	name   string
	fields []Field
}

func (l *fallbackLogger) print(level Level, msg string, fields []Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", level, l.name, msg)
	for _, f := range append(append([]Field(nil), l.fields...), fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(os.Stderr, b.String())
}

func (l *fallbackLogger) Debug(msg string, fields ...Field) {}

func (l *fallbackLogger) Info(msg string, fields ...Field) {
	l.print(InfoLevel, msg, fields)
}

func (l *fallbackLogger) Warn(msg string, fields ...Field) {
	l.print(WarnLevel, msg, fields)
}

func (l *fallbackLogger) Error(msg string, fields ...Field) {
	l.print(ErrorLevel, msg, fields)
}

func (l *fallbackLogger) Fatal(msg string, fields ...Field) {
	l.print(FatalLevel, msg, fields)
	os.Exit(1)
}

func (l *fallbackLogger) With(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)
	return &fallbackLogger{name: l.name, fields: newFields}
}

func (l *fallbackLogger) WithContext(ctx context.Context) Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With(String(FieldRequestID, id))
	}
	return l
}
