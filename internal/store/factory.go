// Package store opens the configured pkg/store driver.
package store

import (
	"fmt"

	"github.com/folio-app/folio/internal/store/driver/memory"
	"github.com/folio-app/folio/internal/store/driver/redis"
	"github.com/folio-app/folio/pkg/store"
)

// New opens the driver named by config.Type.
func New(config *store.Config) (store.Store, error) {
	if config == nil {
		config = store.DefaultConfig()
	}
	switch config.Type {
	case "", "memory":
		return memory.New(config)
	case "redis":
		return redis.New(config)
	}
	return nil, fmt.Errorf("%w: %s", store.ErrUnsupportedType, config.Type)
}
