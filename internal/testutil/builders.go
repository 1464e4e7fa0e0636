package testutil

import (
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// DocumentBuilder builds setup documents.
type DocumentBuilder struct {
	name  string
	tasks []*yaml.Node
}

// NewDocument starts a document with a display name.
func NewDocument(name string) *DocumentBuilder {
	return &DocumentBuilder{name: name}
}

// Task appends a task element. attrs are written after type and id in
// key order given as alternating key, value strings.
func (b *DocumentBuilder) Task(taskType, id string, attrs ...string) *DocumentBuilder {
	item := &yaml.Node{Kind: yaml.MappingNode}
	add := func(k, v string) {
		item.Content = append(item.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: v},
		)
	}
	add("type", taskType)
	if id != "" {
		add("id", id)
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		add(attrs[i], attrs[i+1])
	}
	b.tasks = append(b.tasks, item)
	return b
}

// YAML renders the document.
func (b *DocumentBuilder) YAML() string {
	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "name"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: b.name},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "tasks"},
		&yaml.Node{Kind: yaml.SequenceNode, Content: b.tasks},
	)
	out, err := yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
	if err != nil {
		panic(err)
	}
	return string(out)
}

// Write stores the document as dir/name and returns its path.
func (b *DocumentBuilder) Write(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, b.YAML())
}

// PluginField is a field declaration of a plugin task.
type PluginField struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label,omitempty"`
	Default  string `yaml:"default,omitempty"`
	Required bool   `yaml:"required,omitempty"`
}

type pluginTask struct {
	Type   string        `yaml:"type"`
	Title  string        `yaml:"title,omitempty"`
	Run    []string      `yaml:"run,omitempty"`
	Fields []PluginField `yaml:"fields,omitempty"`
}

type pluginManifest struct {
	APIVersion string       `yaml:"apiVersion"`
	Name       string       `yaml:"name"`
	Version    string       `yaml:"version"`
	Tasks      []pluginTask `yaml:"tasks"`
}

// PluginBuilder builds plugin units with command tasks.
type PluginBuilder struct {
	manifest pluginManifest
}

// NewPlugin starts a plugin manifest.
func NewPlugin(name, version string) *PluginBuilder {
	return &PluginBuilder{manifest: pluginManifest{APIVersion: "v1", Name: name, Version: version}}
}

// CommandTask declares a task that runs argv.
func (b *PluginBuilder) CommandTask(taskType, title string, argv []string, fields ...PluginField) *PluginBuilder {
	b.manifest.Tasks = append(b.manifest.Tasks, pluginTask{Type: taskType, Title: title, Run: argv, Fields: fields})
	return b
}

// YAML renders plugin.yaml.
func (b *PluginBuilder) YAML() string {
	out, err := yaml.Marshal(b.manifest)
	if err != nil {
		panic(err)
	}
	return string(out)
}

// WriteUnit writes the plugin as a directory unit under dir and returns
// the unit path.
func (b *PluginBuilder) WriteUnit(t testing.TB, dir string) string {
	t.Helper()
	unit := filepath.Join(dir, b.manifest.Name)
	WriteFile(t, unit, "plugin.yaml", b.YAML())
	return unit
}
