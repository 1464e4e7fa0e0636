// Package config reads and writes the setup document. Loading takes two
// passes: Preview collects the task types the document references so the
// caller can make sure every one is registered, then Load decodes each task
// element into the concrete type the registry provides. Persist writes the
// whole document back, keeping attributes no task type knows about.
package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
)

// Config is a loaded setup document.
type Config struct {
	mu       sync.Mutex
	name     string
	tasks    []task.Task
	elements []element
	root     *yaml.Node
	source   Source
	codec    Codec
}

// element is the document node a task was decoded from, plus the keys of
// that node the task does not own.
type element struct {
	node   *yaml.Node
	extras map[string]bool
}

// Load reads src and decodes it against the task types in registry. The
// load fails as a whole: no Config is returned when any step fails.
func Load(ctx context.Context, src Source, registry *task.Registry) (*Config, error) {
	data, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data, src, registry)
}

// Parse is Load over document bytes already read from src.
func Parse(data []byte, src Source, registry *task.Registry) (*Config, error) {
	location, codec := src.Location(), src.Codec()

	root, err := codec.Decode(data)
	if err != nil {
		return nil, parseError(location, codec, err)
	}

	if missing := PreviewNode(root).Missing(registry.Types()); len(missing) > 0 {
		return nil, NewUnknownTaskTypesError(location, missing)
	}

	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, NewConfigParseError(location, errors.New("the document must be a mapping with name and tasks"))
	}

	cfg := &Config{
		name:   scalar(body, keyName),
		root:   root,
		source: src,
		codec:  codec,
	}

	seq := lookup(body, keyTasks)
	if seq != nil && seq.Kind != yaml.SequenceNode && seq.Tag != "!!null" {
		return nil, NewConfigParseError(location, errors.New("tasks must be a list"))
	}

	if seq != nil {
		for i, item := range seq.Content {
			t, err := decodeTask(item, registry)
			if err != nil {
				return nil, NewInvalidTaskError(location, i, err)
			}
			if _, dup := cfg.FindTask(t.TypeID()); dup {
				return nil, NewDuplicateTaskError(location, t.TypeID())
			}

			extras, err := unknownKeys(item, t)
			if err != nil {
				return nil, NewInvalidTaskError(location, i, err)
			}
			cfg.tasks = append(cfg.tasks, t)
			cfg.elements = append(cfg.elements, element{node: item, extras: extras})
		}
	}

	for _, t := range cfg.tasks {
		t.Init(cfg)
	}
	return cfg, nil
}

func decodeTask(item *yaml.Node, registry *task.Registry) (task.Task, error) {
	if item.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, found %s", kindName(item))
	}
	taskType := scalar(item, keyType)
	if taskType == "" {
		return nil, errors.New("type is required")
	}
	t, err := registry.New(taskType)
	if err != nil {
		return nil, err
	}
	if err := item.Decode(t); err != nil {
		return nil, err
	}
	return t, nil
}

// unknownKeys returns the keys of item that encoding t does not produce.
func unknownKeys(item *yaml.Node, t task.Task) (map[string]bool, error) {
	var encoded yaml.Node
	if err := encoded.Encode(t); err != nil {
		return nil, err
	}
	extras := make(map[string]bool)
	for i := 0; i+1 < len(item.Content); i += 2 {
		key := item.Content[i].Value
		if lookup(&encoded, key) == nil {
			extras[key] = true
		}
	}
	return extras, nil
}

func parseError(location string, codec Codec, err error) *UserError {
	if codec == YAML && !errors.Is(err, ErrEmptyDocument) {
		return NewYAMLParseError(location, err)
	}
	return NewConfigParseError(location, err)
}

// Name returns the display name of the document.
func (c *Config) Name() string {
	return c.name
}

// Tasks returns the tasks in document order.
func (c *Config) Tasks() []task.Task {
	out := make([]task.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Len returns the number of tasks.
func (c *Config) Len() int {
	return len(c.tasks)
}

// Source returns where the document was loaded from.
func (c *Config) Source() Source {
	return c.source
}

// FindTask returns the task with the given type-id.
func (c *Config) FindTask(typeID string) (task.Task, bool) {
	for _, t := range c.tasks {
		if t.TypeID() == typeID {
			return t, true
		}
	}
	return nil, false
}

// Persist writes the whole document back to its source.
func (c *Config) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.encode()
	if err != nil {
		return NewPersistError(c.source.Location(), err)
	}
	if err := c.source.Write(data); err != nil {
		return NewPersistError(c.source.Location(), err)
	}
	return nil
}

// Encode returns the document bytes Persist would write.
func (c *Config) Encode() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encode()
}

func (c *Config) encode() ([]byte, error) {
	body := c.root.Content[0]

	items := make([]*yaml.Node, len(c.tasks))
	for i, t := range c.tasks {
		merged, err := mergeElement(c.elements[i], t)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", t.TypeID(), err)
		}
		c.elements[i].node = merged
		items[i] = merged
	}

	seq := lookup(body, keyTasks)
	switch {
	case seq != nil:
		seq.Kind, seq.Tag, seq.Value = yaml.SequenceNode, "!!seq", ""
		seq.Content = items
	case len(items) > 0:
		body.Content = append(body.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: keyTasks},
			&yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items})
	}

	return c.codec.Encode(c.root)
}

// mergeElement encodes t and lays it over the original node: keys keep
// their original order, keys t owns take the fresh value, unknown keys are
// carried over, and new keys are appended.
func mergeElement(el element, t task.Task) (*yaml.Node, error) {
	var fresh yaml.Node
	if err := fresh.Encode(t); err != nil {
		return nil, err
	}

	orig := el.node
	out := &yaml.Node{
		Kind:        yaml.MappingNode,
		Tag:         "!!map",
		Style:       orig.Style,
		HeadComment: orig.HeadComment,
		LineComment: orig.LineComment,
		FootComment: orig.FootComment,
	}

	used := make(map[string]bool)
	for i := 0; i+1 < len(orig.Content); i += 2 {
		key, value := orig.Content[i], orig.Content[i+1]
		if v := lookup(&fresh, key.Value); v != nil {
			keepComments(v, value)
			out.Content = append(out.Content, key, v)
			used[key.Value] = true
			continue
		}
		if el.extras[key.Value] {
			out.Content = append(out.Content, key, value)
		}
	}
	for i := 0; i+1 < len(fresh.Content); i += 2 {
		if !used[fresh.Content[i].Value] {
			out.Content = append(out.Content, fresh.Content[i], fresh.Content[i+1])
		}
	}
	return out, nil
}

func keepComments(dst, src *yaml.Node) {
	if dst.HeadComment == "" {
		dst.HeadComment = src.HeadComment
	}
	if dst.LineComment == "" {
		dst.LineComment = src.LineComment
	}
	if dst.FootComment == "" {
		dst.FootComment = src.FootComment
	}
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return fmt.Sprintf("%q", n.Value)
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unexpected node"
	}
}

var _ task.Document = (*Config)(nil)
