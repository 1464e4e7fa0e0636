package gitsetup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/devsetup/internal/adapters/filesystem"
	"github.com/felixgeelhaar/devsetup/internal/adapters/logging"
	"github.com/felixgeelhaar/devsetup/internal/adapters/prefs"
	"github.com/felixgeelhaar/devsetup/internal/domain/sshkey"
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/testutil"
	"github.com/felixgeelhaar/devsetup/internal/testutil/mocks"
)

type document struct {
	tasks []task.Task
	err   error
}

func (d *document) Name() string       { return "Workstation" }
func (d *document) Tasks() []task.Task { return d.tasks }
func (d *document) Persist() error     { return d.err }

func testEnv(t *testing.T, runner ports.CommandRunner) (task.Env, *prefs.MemoryStore) {
	t.Helper()
	store := prefs.NewMemoryStore()
	return task.Env{
		Logger:   logging.NewMemoryLogger(),
		Runner:   runner,
		FS:       filesystem.NewRealFileSystem(),
		Prefs:    store,
		Home:     t.TempDir(),
		Hostname: func() (string, error) { return "devbox", nil },
	}.WithDefaults(), store
}

func TestConfigTask(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t, nil)
	c := NewConfigTask(env)
	c.TaskID = "main"

	fields := c.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "simple", fields[2].Value)

	fields[0].Value = "Ada Lovelace"
	fields[1].Value = "ada@example.com"
	fields[2].Value = "current"
	for _, f := range fields {
		assert.Empty(t, f.Validate())
	}
	c.Apply(task.Values(fields))
	require.NoError(t, c.Validate())

	assert.False(t, c.AlreadyExecuted())
	require.NoError(t, c.Execute(context.Background()))
	assert.True(t, c.AlreadyExecuted(), "an existing file counts as completion")

	file, err := ini.Load(filepath.Join(env.Home, ".gitconfig"))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", file.Section("user").Key("name").String())
	assert.Equal(t, "ada@example.com", file.Section("user").Key("email").String())
	assert.Equal(t, "current", file.Section("push").Key("default").String())
}

func TestConfigTask_KeepsExistingFile(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t, nil)
	path := filepath.Join(env.Home, ".gitconfig")
	require.NoError(t, os.WriteFile(path, []byte("[user]\n\tname = Someone\n"), 0o644))

	c := NewConfigTask(env)
	c.Apply(map[string]string{"name": "Ada", "email": "ada@example.com", "push-default": "simple"})
	require.NoError(t, c.Execute(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Someone")
}

func TestConfigTask_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]string
		errMsg string
	}{
		{"missing name", map[string]string{"email": "a@b.io", "push-default": "simple"}, "name is required"},
		{"newline in name", map[string]string{"name": "Ada\n[core]", "email": "a@b.io", "push-default": "simple"}, "newline"},
		{"bad email", map[string]string{"name": "Ada", "email": "ada", "push-default": "simple"}, "email"},
		{"bad push mode", map[string]string{"name": "Ada", "email": "a@b.io", "push-default": "always"}, "push-default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, _ := testEnv(t, nil)
			c := NewConfigTask(env)
			c.Apply(tt.values)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

type bitbucket struct {
	server *httptest.Server
	hits   atomic.Int32
	user   string
	pass   string
	label  string
	key    string
	status int
}

func newBitbucket(t *testing.T, status int) *bitbucket {
	t.Helper()
	b := &bitbucket{status: status}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/users/ada/ssh-keys" {
			http.NotFound(w, r)
			return
		}
		b.user, b.pass, _ = r.BasicAuth()
		_ = r.ParseForm()
		b.label = r.PostForm.Get("label")
		b.key = r.PostForm.Get("key")
		w.WriteHeader(b.status)
		_, _ = w.Write([]byte(`{"pk": 1}`))
	}))
	t.Cleanup(b.server.Close)
	return b
}

func newSSHTask(t *testing.T, runner ports.CommandRunner, api string) (*SSHTask, task.Env, *prefs.MemoryStore) {
	t.Helper()
	env, store := testEnv(t, runner)
	s := NewSSHTask(env, WithKeyGenerator(sshkey.NewGenerator(1024)), WithBitbucketAPI(api+"/"))
	s.TaskID = "bb"
	s.Apply(map[string]string{"name": "ada", "password": "s3cret", "provider": ProviderBitbucket, "host": "bitbucket.org"})
	return s, env, store
}

func TestSSHTask_Execute(t *testing.T) {
	t.Parallel()

	api := newBitbucket(t, http.StatusOK)
	runner := ports.NewMockCommandRunner()
	runner.AddResult("ssh-keyscan", []string{"-t", "rsa", "bitbucket.org"}, ports.CommandResult{Stdout: "bitbucket.org ssh-rsa AAAAB3Nza\n"})

	s, env, store := newSSHTask(t, runner, api.server.URL)
	require.NoError(t, s.Validate())
	require.NoError(t, s.Execute(context.Background()))

	assert.Equal(t, int32(1), api.hits.Load(), "exactly one outbound call")
	assert.Equal(t, "ada", api.user)
	assert.Equal(t, "s3cret", api.pass)
	assert.Equal(t, "devbox", api.label)
	assert.True(t, strings.HasPrefix(api.key, "ssh-rsa "))
	assert.True(t, strings.HasSuffix(api.key, " ada"))

	sshDir := filepath.Join(env.Home, ".ssh")
	testutil.AssertFileMode(t, filepath.Join(sshDir, "ada-bitbucket.org.prv"), 0o600)

	pub, err := os.ReadFile(filepath.Join(sshDir, "ada-bitbucket.org.pub"))
	require.NoError(t, err)
	assert.Equal(t, api.key+"\n", string(pub))

	cfg, err := os.ReadFile(filepath.Join(sshDir, "config"))
	require.NoError(t, err)
	assert.Equal(t, s.HostBlock(), string(cfg))
	assert.Contains(t, string(cfg), "IdentityFile "+filepath.Join(sshDir, "ada-bitbucket.org.prv"))

	known, err := os.ReadFile(filepath.Join(sshDir, "known_hosts"))
	require.NoError(t, err)
	assert.Equal(t, "bitbucket.org ssh-rsa AAAAB3Nza\n", string(known))

	assert.False(t, store.Bool("setup-git-ssh-bb"), "marker waits for Success")
	assert.False(t, s.AlreadyExecuted())

	s.Init(&document{tasks: []task.Task{s}})
	require.NoError(t, s.Success())
	assert.True(t, store.Bool("setup-git-ssh-bb"))
	assert.True(t, s.AlreadyExecuted())
}

func TestSSHTask_SuccessPersistFailure(t *testing.T) {
	t.Parallel()

	s, _, store := newSSHTask(t, nil, "http://127.0.0.1")
	s.Init(&document{err: errors.New("disk full")})

	require.Error(t, s.Success())
	assert.False(t, s.Executed)
	assert.False(t, store.Bool("setup-git-ssh-bb"))
	assert.False(t, s.AlreadyExecuted())
}

func TestSSHTask_KeyscanTimeout(t *testing.T) {
	t.Parallel()

	api := newBitbucket(t, http.StatusOK)
	runner := mocks.NewHangingRunner()
	s, _, _ := newSSHTask(t, runner, api.server.URL)
	s.timeout = 20 * time.Millisecond

	err := s.Execute(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, runner.Calls(), 1)
	assert.Equal(t, "ssh-keyscan", runner.Calls()[0].Command)
}

func TestSSHTask_PasswordIsNotPersisted(t *testing.T) {
	t.Parallel()

	s, _, _ := newSSHTask(t, nil, "http://127.0.0.1")
	for _, f := range s.Fields() {
		if f.Key == "password" {
			assert.True(t, f.Secret)
		}
	}
	data, err := yamlOf(s)
	require.NoError(t, err)
	assert.NotContains(t, data, "s3cret")
	assert.Contains(t, data, "host: bitbucket.org")
}

func yamlOf(v any) (string, error) {
	data, err := yaml.Marshal(v)
	return string(data), err
}

func TestSSHTask_GitHubUnsupported(t *testing.T) {
	t.Parallel()

	api := newBitbucket(t, http.StatusOK)
	s, env, _ := newSSHTask(t, nil, api.server.URL)
	s.Provider = ProviderGitHub

	err := s.Execute(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Zero(t, api.hits.Load())
	testutil.AssertFileNotExists(t, filepath.Join(env.Home, ".ssh", "ada-bitbucket.org.prv"))
}

func TestSSHTask_APIError(t *testing.T) {
	t.Parallel()

	api := newBitbucket(t, http.StatusUnauthorized)
	s, env, store := newSSHTask(t, ports.NewMockCommandRunner(), api.server.URL)

	err := s.Execute(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Unauthorized [401]")

	assert.False(t, store.Bool("setup-git-ssh-bb"))
	testutil.AssertFileNotExists(t, filepath.Join(env.Home, ".ssh", "config"))
}

func TestSSHTask_Validate(t *testing.T) {
	t.Parallel()

	s, _, _ := newSSHTask(t, nil, "http://127.0.0.1")
	require.NoError(t, s.Validate())

	s.Apply(map[string]string{"password": ""})
	assert.EqualError(t, s.Validate(), "password is required")

	s.Apply(map[string]string{"password": "x", "host": "bit bucket"})
	assert.Error(t, s.Validate())

	s.Apply(map[string]string{"host": "bitbucket.org", "provider": "gitlab"})
	assert.Error(t, s.Validate())
}

func TestCloneTask_Execute(t *testing.T) {
	t.Parallel()

	runner := ports.NewMockCommandRunner()
	runner.SetDefault(ports.CommandResult{Stdout: "Cloning into 'service'...\n"})
	env, store := testEnv(t, runner)

	c := NewCloneTask(env)
	c.TaskID = "src"
	fields := c.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, DefaultTargetDir, fields[0].Value)

	fields[1].Value = "git@bitbucket.org:team/service.git\nhttps://github.com/team/tools.git\n"
	for _, f := range fields {
		assert.Empty(t, f.Validate())
	}
	c.Apply(task.Values(fields))
	require.Equal(t, []string{"git@bitbucket.org:team/service.git", "https://github.com/team/tools.git"}, c.Repositories)
	require.NoError(t, c.Validate())

	require.NoError(t, c.Execute(context.Background()))

	dir := filepath.Join(env.Home, "git")
	assert.DirExists(t, dir)
	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "git -C "+dir+" clone -v git@bitbucket.org:team/service.git", calls[0].String())
	assert.Equal(t, "git -C "+dir+" clone -v https://github.com/team/tools.git", calls[1].String())
	assert.False(t, store.Bool("git-clone-src"), "marker waits for Success")
	assert.True(t, env.Logger.(*logging.MemoryLogger).Contains("Cloning into 'service'..."))

	c.Init(&document{tasks: []task.Task{c}})
	require.NoError(t, c.Success())
	assert.True(t, store.Bool("git-clone-src"))
}

func TestCloneTask_SkipsExistingCheckouts(t *testing.T) {
	t.Parallel()

	runner := ports.NewMockCommandRunner()
	env, _ := testEnv(t, runner)
	dir := filepath.Join(env.Home, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))

	c := NewCloneTask(env)
	c.Apply(map[string]string{"target-dir": "~/src", "repositories": "https://example.com/a.git\nhttps://example.com/b.git"})

	require.NoError(t, c.Execute(context.Background()))
	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "git -C "+dir+" clone -v https://example.com/b.git", calls[0].String())
	assert.True(t, env.Logger.(*logging.MemoryLogger).Contains("repository already cloned"))
}

func TestCloneTask_Timeout(t *testing.T) {
	t.Parallel()

	runner := mocks.NewHangingRunner()
	env, store := testEnv(t, runner)
	c := NewCloneTask(env)
	c.timeout = 20 * time.Millisecond
	c.Apply(map[string]string{"repositories": "https://example.com/a.git\nhttps://example.com/b.git"})

	err := c.Execute(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "cloning https://example.com/a.git")
	assert.Len(t, runner.Calls(), 1)
	assert.False(t, store.Bool(task.PreferenceKey(c)))
}

func TestCheckoutName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		repo string
		want string
	}{
		{"git@bitbucket.org:team/service.git", "service"},
		{"https://github.com/team/tools.git", "tools"},
		{"https://example.com/team/plain/", "plain"},
		{"git@host:repo.git", "repo"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.repo, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CheckoutName(tt.repo))
		})
	}
}

func TestCloneTask_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	runner := ports.NewMockCommandRunner()
	env, store := testEnv(t, runner)
	dir := filepath.Join(env.Home, "src")
	runner.AddResult("git", []string{"-C", dir, "clone", "-v", "https://example.com/a.git"}, ports.CommandResult{ExitCode: 128, Stderr: "fatal: not found"})

	c := NewCloneTask(env)
	c.Apply(map[string]string{"target-dir": "~/src", "repositories": "https://example.com/a.git\nhttps://example.com/b.git"})

	err := c.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, task.IsCommandError(err))
	assert.Contains(t, err.Error(), "cloning https://example.com/a.git")
	assert.Len(t, runner.Calls(), 1)
	assert.False(t, store.Bool(task.PreferenceKey(c)))
}

func TestCloneTask_Validate(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t, nil)
	c := NewCloneTask(env)
	assert.Error(t, c.Validate(), "at least one repository")

	c.Repositories = []string{"https://example.com/$(id).git"}
	assert.Error(t, c.Validate())
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg := task.NewRegistry(task.Env{})
	require.NoError(t, Register(reg))
	assert.True(t, reg.Types().Has(ConfigType))
	assert.True(t, reg.Types().Has(SSHType))
	assert.True(t, reg.Types().Has(CloneType))
}
