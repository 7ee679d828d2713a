package store

import "errors"

var (
	// ErrInvalidKey is returned for empty keys
	ErrInvalidKey = errors.New("invalid key")

	// ErrStoreConnectionFailed is returned when the backend cannot be reached
	ErrStoreConnectionFailed = errors.New("store connection failed")

	// ErrUnsupportedType is returned for an unknown Config.Type
	ErrUnsupportedType = errors.New("unsupported store type")
)

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrStoreConnectionFailed)
}
