package rpc

import (
	"github.com/swapspot/swapspot/internal/infrastructure/config"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
)

// Registry is the typed client registry built once at startup: one client per
// configured service name, immutable afterward. Services and the gateway
// resolve siblings through it instead of constructing clients at call sites.
type Registry struct {
	clients map[string]Caller
}

func NewRegistry(cfg *config.Config, logger *logger.Logger) *Registry {
	clients := make(map[string]Caller, len(cfg.Services))
	for name, ep := range cfg.Services {
		clients[name] = NewClient(name, ep.Addr(), logger)
	}
	return &Registry{clients: clients}
}

// NewStaticRegistry builds a registry from pre-constructed callers. Tests use
// it to inject fakes.
func NewStaticRegistry(clients map[string]Caller) *Registry {
	copied := make(map[string]Caller, len(clients))
	for name, c := range clients {
		copied[name] = c
	}
	return &Registry{clients: copied}
}

func (r *Registry) Client(service string) (Caller, bool) {
	c, ok := r.clients[service]
	return c, ok
}

func (r *Registry) Close() {
	for _, c := range r.clients {
		if client, ok := c.(*Client); ok {
			client.Close()
		}
	}
}
