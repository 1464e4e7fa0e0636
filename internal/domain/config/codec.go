package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument indicates a document with no content.
var ErrEmptyDocument = errors.New("document is empty")

// Codec converts between document bytes and the generic yaml.Node tree the
// store works on. Decode always returns a DocumentNode.
type Codec interface {
	Name() string
	Decode(data []byte) (*yaml.Node, error)
	Encode(root *yaml.Node) ([]byte, error)
}

// YAML is the default document codec.
var YAML Codec = yamlCodec{}

// TOML stores the document as TOML. Tasks become [[tasks]] tables.
var TOML Codec = tomlCodec{}

// CodecFor picks a codec from a file name.
func CodecFor(name string) Codec {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return TOML
	}
	return YAML
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Decode(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	return &root, nil
}

func (yamlCodec) Encode(root *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type tomlCodec struct{}

func (tomlCodec) Name() string { return "toml" }

func (tomlCodec) Decode(data []byte) (*yaml.Node, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, ErrEmptyDocument
	}

	var body yaml.Node
	if err := body.Encode(doc); err != nil {
		return nil, fmt.Errorf("converting TOML document: %w", err)
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{&body}}, nil
}

func (tomlCodec) Encode(root *yaml.Node) ([]byte, error) {
	var doc map[string]any
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("converting document to TOML: %w", err)
	}
	return toml.Marshal(doc)
}
