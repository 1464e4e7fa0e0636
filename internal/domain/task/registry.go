package task

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a zero-valued task bound to env. The config store decodes
// the document element into the returned value.
type Factory func(env Env) Task

// ControllerFactory creates the controller for a task type.
type ControllerFactory func(env Env) Controller

// Registration binds a type identifier to its constructors.
type Registration struct {
	// Type is the identifier used in the document's type attribute.
	Type string
	// Title is a human readable name for listings.
	Title string
	// Source names where the type came from: "builtin" or a plugin path.
	Source string
	// New creates task instances.
	New Factory
	// Controller creates the form controller. Nil selects FormController.
	Controller ControllerFactory
}

// Registry maps task type identifiers to constructors.
type Registry struct {
	mu    sync.RWMutex
	env   Env
	types map[string]Registration
}

// NewRegistry creates an empty registry whose tasks receive env.
func NewRegistry(env Env) *Registry {
	return &Registry{
		env:   env.WithDefaults(),
		types: make(map[string]Registration),
	}
}

// Env returns the environment handed to factories.
func (r *Registry) Env() Env {
	return r.env
}

// Register adds a registration. Registering a type twice is an error.
func (r *Registry) Register(reg Registration) error {
	if reg.Type == "" {
		return ErrEmptyType
	}
	if reg.New == nil {
		return fmt.Errorf("task type %q: factory is required", reg.Type)
	}
	if reg.Source == "" {
		reg.Source = "builtin"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[reg.Type]; ok {
		return &DuplicateTypeError{Type: reg.Type, Existing: existing.Source, Incoming: reg.Source}
	}
	r.types[reg.Type] = reg
	return nil
}

// Lookup returns the registration for taskType.
func (r *Registry) Lookup(taskType string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[taskType]
	return reg, ok
}

// New creates a fresh task of taskType.
func (r *Registry) New(taskType string) (Task, error) {
	reg, ok := r.Lookup(taskType)
	if !ok {
		return nil, &UnknownTypeError{Type: taskType}
	}
	return reg.New(r.env), nil
}

// NewController creates the controller for taskType and binds it to t.
func (r *Registry) NewController(t Task) (Controller, error) {
	reg, ok := r.Lookup(t.Type())
	if !ok {
		return nil, &UnknownTypeError{Type: t.Type()}
	}

	var c Controller
	if reg.Controller != nil {
		c = reg.Controller(r.env)
	} else {
		c = NewFormController()
	}
	if err := c.Init(t); err != nil {
		return nil, fmt.Errorf("initializing controller for %s: %w", t.TypeID(), err)
	}
	return c, nil
}

// Types returns the set of registered identifiers.
func (r *Registry) Types() TypeSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := make(TypeSet, len(r.types))
	for id := range r.types {
		s.Add(id)
	}
	return s
}

// Registrations returns every registration sorted by type.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, 0, len(r.types))
	for _, reg := range r.types {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
