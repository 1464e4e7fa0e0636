package welcome

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
)

type document struct {
	name  string
	tasks []task.Task
}

func (d *document) Name() string       { return d.name }
func (d *document) Tasks() []task.Task  { return d.tasks }
func (d *document) Persist() error     { return nil }

func TestWelcome(t *testing.T) {
	t.Parallel()

	w := New()
	assert.Equal(t, Type, w.TypeID())
	assert.True(t, task.IsSingleton(w))
	assert.Equal(t, "Welcome", w.Title())
	assert.Contains(t, w.Describe(), "your workstation in 0 steps")

	w.Init(&document{name: "Backend team", tasks: []task.Task{New(), New()}})
	assert.Contains(t, w.Describe(), "Backend team in 2 steps")
	assert.NoError(t, w.Execute(context.Background()))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg := task.NewRegistry(task.Env{})
	require.NoError(t, Register(reg))

	created, err := reg.New(Type)
	require.NoError(t, err)
	assert.IsType(t, &Task{}, created)
	assert.True(t, task.IsDuplicateType(Register(reg)))
}
