package task

import (
	"net/http"
	"os"
	"time"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// Env holds the host services task implementations use.
type Env struct {
	Logger ports.Logger
	Runner ports.CommandRunner
	FS     ports.FileSystem
	Prefs  ports.PreferenceStore
	HTTP   *http.Client
	// Home is the user's home directory.
	Home string
	// Hostname reports the machine name.
	Hostname func() (string, error)
}

// WithDefaults fills unset optional members.
func (e Env) WithDefaults() Env {
	if e.HTTP == nil {
		e.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	if e.Home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			e.Home = home
		}
	}
	if e.Logger == nil {
		e.Logger = discard{}
	}
	if e.Hostname == nil {
		e.Hostname = os.Hostname
	}
	return e
}

// ExpandHome expands a leading ~ against Env.Home.
func (e Env) ExpandHome(path string) string {
	return ports.ExpandPathWithHome(path, e.Home)
}
