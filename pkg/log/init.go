package log

import (
	"context"
	"fmt"
	"os"
)

// Options are the user-facing logging settings.
type Options struct {
	Level       string `yaml:"level" json:"level"`
	Driver      string `yaml:"driver" json:"driver"`
	Development bool   `yaml:"development" json:"development"`
	Caller      bool   `yaml:"caller" json:"caller"`
}

// InitializeLogging initializes the global logging system from opts.
func InitializeLogging(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	factoryConfig := DefaultFactoryConfig()
	factoryConfig.Level = level
	factoryConfig.Development = opts.Development
	factoryConfig.EnableCaller = opts.Caller || opts.Development
	if opts.Driver != "" {
		factoryConfig.DefaultDriver = opts.Driver
	}

	if err := InitGlobalFactory(factoryConfig); err != nil {
		return fmt.Errorf("failed to initialize global logger factory: %w", err)
	}

	Default().Debug("Logging system initialized",
		String("driver", factoryConfig.DefaultDriver),
		String("level", factoryConfig.Level.String()),
		Bool("development", factoryConfig.Development),
	)
	return nil
}

// MustInitializeLogging initializes logging and exits on error.
func MustInitializeLogging(opts Options) {
	if err := InitializeLogging(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
}

// Shutdown flushes the global logging system.
func Shutdown() error {
	factory := GetGlobalFactory()
	if factory == nil {
		return nil
	}
	return factory.Shutdown(context.Background())
}
