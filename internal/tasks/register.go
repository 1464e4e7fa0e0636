// Package tasks registers the built-in task types.
package tasks

import (
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/tasks/gitsetup"
	"github.com/felixgeelhaar/devsetup/internal/tasks/hostname"
	"github.com/felixgeelhaar/devsetup/internal/tasks/summary"
	"github.com/felixgeelhaar/devsetup/internal/tasks/welcome"
)

// Register adds every built-in type to reg.
func Register(reg *task.Registry) error {
	for _, register := range []func(*task.Registry) error{
		welcome.Register,
		summary.Register,
		hostname.Register,
		gitsetup.Register,
	} {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry creates a registry with the built-in types.
func NewRegistry(env task.Env) (*task.Registry, error) {
	reg := task.NewRegistry(env)
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
