package gitsetup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/devsetup/internal/domain/sshkey"
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/validation"
)

// SSHType is the registry identifier of the SSH key task.
const SSHType = "setup-git-ssh"

// Git hosting providers.
const (
	ProviderBitbucket = "bitbucket"
	ProviderGitHub    = "github"
)

// Providers lists the accepted provider values.
var Providers = []string{ProviderBitbucket, ProviderGitHub}

// BitbucketAPI is the base URL of the Bitbucket key endpoint.
const BitbucketAPI = "https://api.bitbucket.org/1.0"

// KeyscanTimeout bounds the ssh-keyscan call.
const KeyscanTimeout = 30 * time.Second

// ErrUnsupportedProvider indicates a provider the task cannot register keys with.
var ErrUnsupportedProvider = errors.New("git provider is not supported")

// KeyGenerator creates SSH key pairs.
type KeyGenerator interface {
	Generate(comment string) (*sshkey.KeyPair, error)
}

// SSHTask creates a key pair for a git host, registers the public key with
// the provider and adds the host to the SSH client configuration. The
// password is only held in memory.
type SSHTask struct {
	task.Base `yaml:",inline"`
	Name      string `yaml:"name,omitempty"`
	Provider  string `yaml:"provider,omitempty"`
	Host      string `yaml:"host,omitempty"`

	password string
	env      task.Env
	keys     KeyGenerator
	api      string
	timeout  time.Duration
}

// SSHOption configures an SSHTask.
type SSHOption func(*SSHTask)

// WithKeyGenerator replaces the RSA generator.
func WithKeyGenerator(g KeyGenerator) SSHOption {
	return func(t *SSHTask) {
		t.keys = g
	}
}

// WithBitbucketAPI points the task at another Bitbucket endpoint.
func WithBitbucketAPI(base string) SSHOption {
	return func(t *SSHTask) {
		t.api = strings.TrimSuffix(base, "/")
	}
}

// NewSSHTask creates a setup-git-ssh task bound to env.
func NewSSHTask(env task.Env, opts ...SSHOption) *SSHTask {
	t := &SSHTask{
		Base:    task.NewBase(SSHType, ""),
		env:     env,
		keys:    sshkey.NewGenerator(sshkey.DefaultBits),
		api:     BitbucketAPI,
		timeout: KeyscanTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AlreadyExecuted checks the document flag and the preference store.
func (t *SSHTask) AlreadyExecuted() bool {
	return t.Executed || t.env.Remembered(t)
}

// Fields returns the account and host fields.
func (t *SSHTask) Fields() []*task.Field {
	provider := t.Provider
	if provider == "" {
		provider = ProviderBitbucket
	}
	host := t.Host
	if host == "" {
		host = "bitbucket.org"
	}
	return []*task.Field{
		{Key: "name", Label: "User name", Value: t.Name, Required: true, Check: validation.ValidateUsername},
		{Key: "password", Label: "Password", Value: t.password, Required: true, Secret: true},
		{Key: "provider", Label: "Provider", Value: provider, Required: true, Choices: Providers},
		{Key: "host", Label: "Git host", Value: host, Required: true, Check: validation.ValidateHostname},
	}
}

// Apply stores the edited values. The password stays in memory.
func (t *SSHTask) Apply(values map[string]string) {
	if v, ok := values["name"]; ok {
		t.Name = v
	}
	if v, ok := values["password"]; ok {
		t.password = v
	}
	if v, ok := values["provider"]; ok {
		t.Provider = v
	}
	if v, ok := values["host"]; ok {
		t.Host = v
	}
}

// Validate checks that every value is present and safe to write.
func (t *SSHTask) Validate() error {
	if err := validation.ValidateUsername(t.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if t.password == "" {
		return fmt.Errorf("password is required")
	}
	if err := validation.ValidateHostname(t.Host); err != nil {
		return fmt.Errorf("host: %w", err)
	}
	switch t.Provider {
	case ProviderBitbucket, ProviderGitHub:
		return nil
	default:
		return fmt.Errorf("provider %q is not one of %v", t.Provider, Providers)
	}
}

// SSHDir returns the user's SSH directory.
func (t *SSHTask) SSHDir() string {
	return filepath.Join(t.env.Home, ".ssh")
}

// PrivateKeyPath returns the private key file, named after user and host.
func (t *SSHTask) PrivateKeyPath() string {
	return filepath.Join(t.SSHDir(), t.Name+"-"+t.Host+".prv")
}

// PublicKeyPath returns the public key file.
func (t *SSHTask) PublicKeyPath() string {
	return filepath.Join(t.SSHDir(), t.Name+"-"+t.Host+".pub")
}

// Execute generates the keys, registers the public key, and updates the
// SSH configuration and known hosts.
func (t *SSHTask) Execute(ctx context.Context) error {
	if t.env.Remembered(t) {
		return nil
	}
	if t.env.FS == nil {
		return fmt.Errorf("%s: no file system configured", t.TypeID())
	}
	if t.Provider != ProviderBitbucket {
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, t.Provider)
	}

	log := task.LoggerFrom(ctx, t.env.Logger)

	if err := t.env.FS.MkdirAll(t.SSHDir(), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", t.SSHDir(), err)
	}

	pair, err := t.keys.Generate(t.Name)
	if err != nil {
		return err
	}
	if err := t.env.FS.WriteFile(t.PrivateKeyPath(), []byte(pair.PrivateKey), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := t.env.FS.WriteFile(t.PublicKeyPath(), []byte(pair.PublicKey+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	log.Info(ctx, "generated ssh keys", ports.F("private", t.PrivateKeyPath()), ports.F("public", t.PublicKeyPath()))

	if err := t.postBitbucketKey(ctx, pair.PublicKey); err != nil {
		return err
	}

	if err := t.env.FS.AppendFile(filepath.Join(t.SSHDir(), "config"), []byte(t.HostBlock()), 0o600); err != nil {
		return fmt.Errorf("writing ssh config: %w", err)
	}
	log.Info(ctx, "added host to ssh config", ports.F("host", t.Host))

	if err := t.addKnownHost(ctx); err != nil {
		return err
	}

	log.Info(ctx, "ssh git setup finished")
	return nil
}

// Success persists the document first and records the preference marker
// only once completion is durable.
func (t *SSHTask) Success() error {
	if err := t.Base.Success(); err != nil {
		return err
	}
	return t.env.Remember(t)
}

// HostBlock returns the entry appended to ~/.ssh/config.
func (t *SSHTask) HostBlock() string {
	return fmt.Sprintf("Host %s\n    User %s\n    HostName %s\n    IdentityFile %s\n", t.Host, t.Name, t.Host, t.PrivateKeyPath())
}

func (t *SSHTask) postBitbucketKey(ctx context.Context, publicKey string) error {
	label := "devsetup"
	if t.env.Hostname != nil {
		if h, err := t.env.Hostname(); err == nil && h != "" {
			label = h
		}
	}

	endpoint := t.api + "/users/" + url.PathEscape(t.Name) + "/ssh-keys"
	form := url.Values{"label": {label}, "key": {publicKey}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(t.Name, t.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := t.env.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("posting public key to %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{URL: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	task.LoggerFrom(ctx, t.env.Logger).Info(ctx, "posted public ssh key", ports.F("url", endpoint), ports.F("label", label))
	return nil
}

func (t *SSHTask) addKnownHost(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result, err := t.env.Run(ctx, "ssh-keyscan", "-t", "rsa", t.Host)
	if err != nil {
		return err
	}
	entries := strings.TrimSpace(result.Stdout)
	if entries == "" {
		return fmt.Errorf("ssh-keyscan returned no keys for %s", t.Host)
	}
	path := filepath.Join(t.SSHDir(), "known_hosts")
	if err := t.env.FS.AppendFile(path, []byte(entries+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// APIError reports an unexpected response from a git provider.
type APIError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("posting public key to %s: %s", e.URL, http.StatusText(e.StatusCode))
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" [%d]", e.StatusCode)
	}
	return msg
}

var (
	_ task.FormTask  = (*SSHTask)(nil)
	_ task.Validator = (*SSHTask)(nil)
)
