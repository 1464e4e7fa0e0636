// Package app wires a devsetup session: logging, the preference store, the
// task registry with built-in and plugin tasks, the setup document and the
// wizard walking it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/devsetup/internal/adapters/command"
	"github.com/felixgeelhaar/devsetup/internal/adapters/filesystem"
	"github.com/felixgeelhaar/devsetup/internal/adapters/logging"
	"github.com/felixgeelhaar/devsetup/internal/adapters/prefs"
	"github.com/felixgeelhaar/devsetup/internal/domain/config"
	"github.com/felixgeelhaar/devsetup/internal/domain/plugin"
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/tasks"
)

// Options configures a Session.
type Options struct {
	// PluginPaths are searched before the default plugin directories.
	PluginPaths []string
	// NoDefaultPlugins skips the default plugin directories.
	NoDefaultPlugins bool
	// PrefsPath overrides ~/.devsetup/prefs.ini.
	PrefsPath string
	// Prefs replaces the INI preference store, mainly for tests.
	Prefs ports.PreferenceStore
	// LogWriter receives the session log through a logr sink.
	LogWriter io.Writer
	JSONLog   bool
	Verbose   bool
	// Loggers are extra sinks, such as the TUI output feed.
	Loggers []ports.Logger
	// Runner replaces the os/exec runner, mainly for tests.
	Runner ports.CommandRunner
	// HTTP is used for URL documents and task calls.
	HTTP *http.Client
	// Home overrides the user's home directory.
	Home string
	// Version gates plugins that declare a minimum wizard version.
	Version string
}

// Session owns everything one wizard run needs. Close releases it.
type Session struct {
	ID       string
	Logger   ports.Logger
	Registry *task.Registry
	Plugins  *plugin.Service

	env   task.Env
	prefs ports.PreferenceStore
	ownsP bool
}

// NewSession sets up logging, preferences and the registry of built-in
// tasks. Plugins are not scanned until Discover.
func NewSession(opts Options) (*Session, error) {
	id := uuid.NewString()
	logger := newLogger(opts).With(ports.F("session", id))

	store, owned := opts.Prefs, false
	if store == nil {
		path := opts.PrefsPath
		if path == "" {
			var err error
			if path, err = prefs.DefaultPath(); err != nil {
				return nil, err
			}
		}
		ini, err := prefs.OpenINI(path)
		if err != nil {
			return nil, err
		}
		store, owned = ini, true
	}

	runner := opts.Runner
	if runner == nil {
		runner = command.NewRealRunner()
	}

	env := task.Env{
		Logger: logger,
		Runner: runner,
		FS:     filesystem.NewRealFileSystem(),
		Prefs:  store,
		HTTP:   opts.HTTP,
		Home:   opts.Home,
	}.WithDefaults()

	registry, err := tasks.NewRegistry(env)
	if err != nil {
		if owned {
			_ = store.Close()
		}
		return nil, fmt.Errorf("registering built-in tasks: %w", err)
	}

	paths := append([]string(nil), opts.PluginPaths...)
	if !opts.NoDefaultPlugins {
		paths = append(paths, plugin.DefaultSearchPaths()...)
	}
	loader := plugin.NewLoader().WithSearchPaths(paths...).WithWizardVersion(opts.Version)

	return &Session{
		ID:       id,
		Logger:   logger,
		Registry: registry,
		Plugins:  plugin.NewService(registry, plugin.WithDiscoverer(loader), plugin.WithLogger(logger)),
		env:      env,
		prefs:    store,
		ownsP:    owned,
	}, nil
}

func newLogger(opts Options) ports.Logger {
	level := ports.LevelInfo
	if opts.Verbose {
		level = ports.LevelDebug
	}

	sinks := append([]ports.Logger(nil), opts.Loggers...)
	if opts.LogWriter != nil {
		sinks = append(sinks, logging.NewFileLogger(opts.LogWriter, level, opts.JSONLog))
	}
	switch len(sinks) {
	case 0:
		return logging.NewNopLogger()
	case 1:
		return sinks[0]
	default:
		return logging.NewMultiLogger(sinks...)
	}
}

// Discover scans the plugin search paths and registers the task types
// they declare.
func (s *Session) Discover(ctx context.Context) (task.TypeSet, error) {
	return s.Plugins.Discover(ctx)
}

// Open returns the source of a document path or URL. URL documents are
// mirrored into the working directory.
func (s *Session) Open(location string) (config.Source, error) {
	return config.OpenSource(location, s.env.FS, config.WithHTTPClient(s.env.HTTP))
}

// PreviewReport lists the task types a document references.
type PreviewReport struct {
	Location string
	Types    []string
	Missing  []string
}

// Preview reads the document and reports which of its task types are not
// registered, without decoding any task.
func (s *Session) Preview(ctx context.Context, location string) (*PreviewReport, error) {
	src, err := s.Open(location)
	if err != nil {
		return nil, err
	}
	data, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	types, err := config.Preview(data, src.Codec())
	if err != nil {
		return nil, config.NewConfigParseError(src.Location(), err)
	}
	return &PreviewReport{
		Location: src.Location(),
		Types:    types.Sorted(),
		Missing:  types.Missing(s.Registry.Types()),
	}, nil
}

// Load reads the document and builds the wizard over it. Executions run
// under ctx.
func (s *Session) Load(ctx context.Context, location string) (*wizard.Wizard, error) {
	src, err := s.Open(location)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ctx, src, s.Registry)
	if err != nil {
		return nil, err
	}
	s.Logger.Info(ctx, "document loaded",
		ports.F("document", src.Location()),
		ports.F("tasks", cfg.Len()),
	)

	return wizard.New(cfg, s.Registry,
		wizard.WithLogger(s.Logger),
		wizard.WithContext(ctx),
	)
}

// Close releases the plugin runtime and the preference store.
func (s *Session) Close() error {
	var errs []error
	if err := s.Plugins.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing plugin runtime: %w", err))
	}
	if s.ownsP {
		if err := s.prefs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing preferences: %w", err))
		}
	}
	return errors.Join(errs...)
}
