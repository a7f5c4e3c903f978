package worker

import (
	"fmt"
	"sort"
)

// Registry maps a task type tag to its handler. Registration happens during
// process startup, before the manager starts claiming; after that the table
// is only read. There is no runtime plugin loading: an unregistered type is
// rejected deterministically at dispatch.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register associates h with the given task type. Registering the same type
// twice is a programming error and returns one.
func (r *Registry) Register(taskType string, h Handler) error {
	if taskType == "" {
		return fmt.Errorf("task type cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("handler for %q cannot be nil", taskType)
	}
	if _, exists := r.handlers[taskType]; exists {
		return fmt.Errorf("handler for %q already registered", taskType)
	}
	r.handlers[taskType] = h
	return nil
}

// Lookup returns the handler for taskType, or false when none is registered.
func (r *Registry) Lookup(taskType string) (Handler, bool) {
	h, ok := r.handlers[taskType]
	return h, ok
}

// Types returns the registered task types in sorted order, for logging.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
