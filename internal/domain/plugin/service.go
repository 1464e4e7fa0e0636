package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/devsetup/internal/domain/sandbox"
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// Service discovers plugins and registers their task types.
type Service struct {
	mu         sync.Mutex
	registry   *task.Registry
	discoverer Discoverer
	logger     ports.Logger
	modules    moduleRunner
	runtime    *sandbox.Runtime
	last       *DiscoveryResult
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDiscoverer sets the plugin discoverer.
func WithDiscoverer(d Discoverer) ServiceOption {
	return func(s *Service) {
		s.discoverer = d
	}
}

// WithLogger sets the logger used for discovery diagnostics.
func WithLogger(l ports.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithModuleRunner replaces the WASM runtime, mainly for tests.
func WithModuleRunner(r moduleRunner) ServiceOption {
	return func(s *Service) {
		s.modules = r
	}
}

// NewService creates a Service registering into registry.
func NewService(registry *task.Registry, opts ...ServiceOption) *Service {
	s := &Service{registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	if s.discoverer == nil {
		s.discoverer = NewLoader()
	}
	if s.logger == nil {
		s.logger = registry.Env().Logger
	}
	return s
}

// Discover scans for plugins and registers every declared task type. It
// returns the identifiers contributed by plugins; unusable units are logged
// and skipped.
func (s *Service) Discover(ctx context.Context) (task.TypeSet, error) {
	result, err := s.discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering plugins: %w", err)
	}

	found := task.NewTypeSet()
	for _, p := range result.Plugins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, spec := range p.Manifest.Tasks {
			unit, spec := p, spec
			reg := task.Registration{
				Type:   unit.TaskIdentifier(spec),
				Title:  spec.Title,
				Source: unit.Path,
				New: func(env task.Env) task.Task {
					return newManifestTask(unit, spec, env, s.moduleRunner())
				},
			}
			if err := s.registry.Register(reg); err != nil {
				result.Errors = append(result.Errors, DiscoveryError{Path: unit.Path, Err: err})
				continue
			}
			found.Add(reg.Type)
		}
		s.logger.Debug(ctx, "plugin loaded", ports.F("plugin", p.ID()), ports.F("path", p.Path))
	}

	for _, de := range result.Errors {
		s.logger.Warn(ctx, "skipping plugin unit", ports.F("path", de.Path), ports.Err(de.Err))
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	return found, nil
}

// LastResult returns the most recent discovery result, nil before Discover.
func (s *Service) LastResult() *DiscoveryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Close releases the WASM runtime if one was started.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runtime == nil {
		return nil
	}
	err := s.runtime.Close()
	s.runtime = nil
	return err
}

func (s *Service) moduleRunner() moduleRunner {
	if s.modules != nil {
		return s.modules
	}
	return lazyRuntime{s}
}

// lazyRuntime starts the wazero runtime on first use.
type lazyRuntime struct{ s *Service }

func (l lazyRuntime) Run(ctx context.Context, m sandbox.Module) error {
	l.s.mu.Lock()
	if l.s.runtime == nil {
		rt, err := sandbox.NewRuntime(context.Background())
		if err != nil {
			l.s.mu.Unlock()
			return err
		}
		l.s.runtime = rt
	}
	rt := l.s.runtime
	l.s.mu.Unlock()
	return rt.Run(ctx, m)
}
