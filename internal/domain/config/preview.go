package config

import (
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"gopkg.in/yaml.v3"
)

const (
	keyName  = "name"
	keyTasks = "tasks"
	keyType  = "type"
)

// Preview returns the task types a document references without decoding
// any task. Every mapping that is an item of a "tasks" sequence counts, at
// any depth.
func Preview(data []byte, codec Codec) (task.TypeSet, error) {
	root, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return PreviewNode(root), nil
}

// PreviewNode is Preview over an already decoded tree.
func PreviewNode(root *yaml.Node) task.TypeSet {
	types := task.NewTypeSet()
	collectTypes(root, types)
	return types
}

func collectTypes(n *yaml.Node, types task.TypeSet) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range n.Content {
			collectTypes(child, types)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Value == keyTasks && value.Kind == yaml.SequenceNode {
				for _, item := range value.Content {
					if t := scalar(item, keyType); t != "" {
						types.Add(t)
					}
				}
			}
			collectTypes(value, types)
		}
	}
}

// lookup returns the value node of key in a mapping.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// scalar returns the scalar value of key in a mapping, empty otherwise.
func scalar(m *yaml.Node, key string) string {
	if v := lookup(m, key); v != nil && v.Kind == yaml.ScalarNode {
		return v.Value
	}
	return ""
}
