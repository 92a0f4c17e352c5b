package backend

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// Registry maps binding names to forwarders.
type Registry struct {
	forwarders map[string]Forwarder
	transport  *http.Transport
	mu         sync.RWMutex
	logger     observability.Logger
}

// NewRegistry creates an empty registry. Forwarders created by
// LoadFromConfig share one connection pool.
func NewRegistry(logger observability.Logger) *Registry {
	return &Registry{
		forwarders: make(map[string]Forwarder),
		transport:  newTransport(DefaultPoolConfig()),
		logger:     logger,
	}
}

// Register adds a forwarder under name.
func (r *Registry) Register(name string, f Forwarder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.forwarders[name]; exists {
		return fmt.Errorf("binding already registered: %s", name)
	}
	r.forwarders[name] = f

	r.logger.Debug("registered binding", observability.String("binding", name))
	return nil
}

// Get returns the forwarder registered under name.
func (r *Registry) Get(name string) (Forwarder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.forwarders[name]
	return f, ok
}

// Names returns the registered binding names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.forwarders))
	for name := range r.forwarders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFromConfig creates an HTTPForwarder for every binding.
func (r *Registry) LoadFromConfig(bindings map[string]config.BindingConfig) error {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, err := NewHTTPForwarder(name, bindings[name],
			WithForwarderLogger(r.logger),
			WithTransport(r.transport),
		)
		if err != nil {
			return fmt.Errorf("failed to create binding %s: %w", name, err)
		}
		if err := r.Register(name, f); err != nil {
			return err
		}
		r.logger.Info("binding configured",
			observability.String("binding", name),
			observability.String("url", f.Target().String()),
		)
	}

	return nil
}

// Close releases idle upstream connections.
func (r *Registry) Close() {
	r.transport.CloseIdleConnections()
}
