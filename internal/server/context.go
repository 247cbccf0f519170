package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tmeadows/outboxd/internal/action"
	"github.com/tmeadows/outboxd/internal/instrumentation"
	"github.com/tmeadows/outboxd/internal/tools"
)

// ServerContext holds the shared dependencies for the server surfaces.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	actions  *action.Service
	registry *tools.Registry
	provider *instrumentation.Provider
	logger   *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context over the given dependencies.
func NewServerContext(ctx context.Context, actions *action.Service, registry *tools.Registry, provider *instrumentation.Provider, logger *slog.Logger) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if logger == nil {
		logger = slog.Default()
	}

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		actions:  actions,
		registry: registry,
		provider: provider,
		logger:   logger,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Actions returns the action service.
func (sc *ServerContext) Actions() *action.Service {
	return sc.actions
}

// Registry returns the tool registry.
func (sc *ServerContext) Registry() *tools.Registry {
	return sc.registry
}

// Metrics returns the metrics recorder, or nil when instrumentation is
// not configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.provider == nil {
		return nil
	}
	return sc.provider.Metrics()
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
