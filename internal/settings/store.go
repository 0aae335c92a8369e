package settings

import (
	"context"
	"fmt"
	"time"
)

// defaultOpTimeout bounds a single backend round trip made through Namespace.
const defaultOpTimeout = 2 * time.Second

// Store is the string key/value contract the device registry persists
// through. Implementations are bound to a single namespace and never fail
// from the caller's point of view.
type Store interface {
	GetString(key, defaultValue string) string
	SetString(key, value string)
	EraseKey(key string)
}

// Backend is a namespaced key/value store that reports its errors.
//
// All implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, namespace, key string) (string, bool, error)

	// Set creates or replaces the value under namespace/key.
	Set(ctx context.Context, namespace, key, value string) error

	// Erase removes namespace/key. Erasing a missing key is not an error.
	Erase(ctx context.Context, namespace, key string) error

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Logger defines the logging interface used by Namespace.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Namespace adapts a Backend to the Store contract for one namespace.
// Backend errors are logged and absorbed: reads fall back to the default,
// failed writes leave the previous value in place.
type Namespace struct {
	backend Backend
	name    string
	timeout time.Duration
	logger  Logger
}

// NewNamespace binds backend to the namespace name.
func NewNamespace(backend Backend, name string) *Namespace {
	return &Namespace{
		backend: backend,
		name:    name,
		timeout: defaultOpTimeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger used to report absorbed backend errors.
func (n *Namespace) SetLogger(logger Logger) {
	n.logger = logger
}

// Name returns the namespace this adapter is bound to.
func (n *Namespace) Name() string {
	return n.name
}

// GetString returns the value stored under key, or defaultValue when the
// key is missing or the backend fails.
func (n *Namespace) GetString(key, defaultValue string) string {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	value, found, err := n.backend.Get(ctx, n.name, key)
	if err != nil {
		n.logger.Warn("settings read failed", "namespace", n.name, "key", key, "error", err)
		return defaultValue
	}
	if !found {
		return defaultValue
	}
	return value
}

// SetString stores value under key.
func (n *Namespace) SetString(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.backend.Set(ctx, n.name, key, value); err != nil {
		n.logger.Warn("settings write failed", "namespace", n.name, "key", key, "error", err)
		return
	}
	n.logger.Debug("settings written", "namespace", n.name, "key", key, "bytes", len(value))
}

// EraseKey removes key.
func (n *Namespace) EraseKey(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.backend.Erase(ctx, n.name, key); err != nil {
		n.logger.Warn("settings erase failed", "namespace", n.name, "key", key, "error", err)
		return
	}
	n.logger.Debug("settings erased", "namespace", n.name, "key", key)
}

func validateKey(namespace, key string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace", ErrEmptyKey)
	}
	if key == "" {
		return fmt.Errorf("%w: key", ErrEmptyKey)
	}
	return nil
}
